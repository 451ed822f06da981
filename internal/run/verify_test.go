package run

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/storage"
)

func verifyRecord(url, model, year string) models.Record {
	return models.Record{
		Type:         "Moto",
		Brand:        "AJP",
		Model:        model,
		Displacement: "125",
		Year:         year,
		GeneralURL:   "https://site.example/veh/x",
		Product:      "Filtro de aceite",
		ProductBrand: "HIFLOFILTRO",
		Reference:    "HF112",
		RefAlt1:      models.Placeholder,
		RefAlt2:      models.Placeholder,
		ProductURL:   url,
	}
}

func TestVerifyAggregatesMultiYearProducts(t *testing.T) {
	store := storage.NewRecordStore(filepath.Join(t.TempDir(), "catalog.csv"))

	for _, rec := range []models.Record{
		verifyRecord("https://site.example/producto/101", "PR7 125", "2019"),
		verifyRecord("https://site.example/producto/101", "PR7 125", "2020"),
		verifyRecord("https://site.example/producto/202", "PR7 125", "2019"),
		verifyRecord("https://site.example/producto/303", "PR4 240", models.Placeholder),
	} {
		require.NoError(t, store.Append(rec))
	}

	report, err := Verify(store)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 4, report.TotalRecords)
	assert.Equal(t, 3, report.DistinctProducts)
	assert.Equal(t, 1, report.MultiYearProducts)
	assert.Equal(t, 3, report.RecordsWithYear)

	require.Len(t, report.Examples, 1)
	ex := report.Examples[0]
	assert.Equal(t, "Filtro de aceite", ex.Product)
	assert.Equal(t, "AJP PR7 125", ex.Vehicle)
	assert.Equal(t, []string{"2019", "2020"}, ex.Years)
	assert.Equal(t, "https://site.example/producto/101", ex.URL)
}

func TestVerifyEmptyOutput(t *testing.T) {
	report, err := Verify(storage.NewRecordStore(filepath.Join(t.TempDir(), "catalog.csv")))
	require.NoError(t, err)
	assert.Nil(t, report)
}
