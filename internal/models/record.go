package models

import "strings"

// Placeholder marks fields that could not be extracted, and the two
// alternative reference columns that are intentionally not populated.
const Placeholder = "N/A"

// RecordHeader is the column order of the output table. Existing output
// files are read back by column name, so order changes are safe only for
// new files.
var RecordHeader = []string{
	"TYPE", "BRAND", "MODEL", "DISPLACEMENT", "YEAR", "GENERAL_URL",
	"PRODUCT", "PRODUCT_BRAND", "REFERENCE", "REFERENCE_ALT_1",
	"REFERENCE_ALT_2", "PRODUCT_URL",
}

// Record is the persisted unit: one product under one vehicle context.
type Record struct {
	Type         string
	Brand        string
	Model        string
	Displacement string
	Year         string
	GeneralURL   string
	Product      string
	ProductBrand string
	Reference    string
	RefAlt1      string
	RefAlt2      string
	ProductURL   string
}

// CompositeKey builds the dedup identity for a product/vehicle pairing.
// The product URL alone is not unique: the same product page is valid
// under multiple brand/model/year contexts.
func CompositeKey(productURL, brand, model, year string) string {
	return strings.Join([]string{productURL, brand, model, year}, "|")
}

// Key returns the record's composite key.
func (r Record) Key() string {
	return CompositeKey(r.ProductURL, r.Brand, r.Model, r.Year)
}

// Row returns the record's fields in RecordHeader order.
func (r Record) Row() []string {
	return []string{
		r.Type, r.Brand, r.Model, r.Displacement, r.Year, r.GeneralURL,
		r.Product, r.ProductBrand, r.Reference, r.RefAlt1, r.RefAlt2,
		r.ProductURL,
	}
}

// RunStats counts task and product outcomes for the final report.
type RunStats struct {
	TasksTotal        int
	TasksSucceeded    int
	TasksSkipped      int
	TasksFailed       int
	ProductsPersisted int
}
