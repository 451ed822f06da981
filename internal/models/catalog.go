package models

import "fmt"

// Task is one leaf combination of the cascading selector form:
// vehicle type, brand, engine displacement and model. Tasks are built
// once by the enumerator (or loaded from the checkpoint file) and are
// read-only afterwards.
type Task struct {
	TypeValue         string
	TypeLabel         string
	BrandValue        string
	BrandLabel        string
	DisplacementValue string
	DisplacementLabel string
	ModelValue        string
	ModelLabel        string
}

func (t Task) String() string {
	return fmt.Sprintf("%s | %s | %s | %s", t.TypeLabel, t.BrandLabel, t.DisplacementLabel, t.ModelLabel)
}

// YearRow is one row of the results table shown after selecting a model:
// a link to a year-specific listing plus the composite model text the
// row carries. Lives only while its task is processed.
type YearRow struct {
	GeneralURL   string
	RawModelText string
	Model        string
	Displacement string
	Year         string
	Ordinal      int
}

// VehicleContext is the vehicle identity a product listing was reached
// under. One product page can be reachable under several contexts; each
// pairing is recorded separately.
type VehicleContext struct {
	TypeLabel    string
	BrandLabel   string
	Model        string
	Displacement string
	Year         string
	GeneralURL   string
}

// ProductStub is a product found on a listing page, before its detail
// page has been visited.
type ProductStub struct {
	URL   string
	Brand string
}
