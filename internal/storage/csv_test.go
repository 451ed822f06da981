package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

func sampleRecord(product, url string) models.Record {
	return models.Record{
		Type:         "Moto",
		Brand:        "AJP",
		Model:        "PR7 125",
		Displacement: "125",
		Year:         "2019",
		GeneralURL:   "https://site.example/veh/pr7-2019",
		Product:      product,
		ProductBrand: "HIFLOFILTRO",
		Reference:    "HF112",
		RefAlt1:      models.Placeholder,
		RefAlt2:      models.Placeholder,
		ProductURL:   url,
	}
}

func TestRecordStoreAppendAndReadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	store := NewRecordStore(path)

	recA := sampleRecord("Filtro de aceite HF112", "https://site.example/producto/101")
	require.NoError(t, store.Append(recA))

	// Each Append reopens the file; the header must not repeat.
	store2 := NewRecordStore(path)
	recB := sampleRecord("Bujia CR7E", "https://site.example/producto/202")
	require.NoError(t, store2.Append(recB))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "PRODUCT_URL"))

	records, err := store.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, recA, records[0])
	assert.Equal(t, recB, records[1])
}

func TestRecordStoreReadAllMissingFile(t *testing.T) {
	store := NewRecordStore(filepath.Join(t.TempDir(), "nope.csv"))

	records, err := store.ReadAll()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecordStoreReadAllByColumnName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "YEAR,MODEL,BRAND,PRODUCT_URL\n2019,PR7 125,AJP,https://site.example/producto/101\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	records, err := NewRecordStore(path).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "AJP", records[0].Brand)
	assert.Equal(t, "PR7 125", records[0].Model)
	assert.Equal(t, "2019", records[0].Year)
	assert.Equal(t, "https://site.example/producto/101", records[0].ProductURL)
	assert.Empty(t, records[0].Product)
}

func TestRecordStoreReadAllMissingRequiredColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte("YEAR,MODEL,BRAND\n2019,PR7,AJP\n"), 0644))

	_, err := NewRecordStore(path).ReadAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRODUCT_URL")
}

func TestRecordStoreHeaderOnEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	store := NewRecordStore(path)
	require.NoError(t, store.Append(sampleRecord("Filtro", "https://site.example/producto/101")))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), strings.Join(models.RecordHeader, ",")))
}

func TestTaskStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	store := NewTaskStore(path)

	assert.False(t, store.Exists())

	tasks := []models.Task{
		{
			TypeValue: "3", TypeLabel: "Moto",
			BrandValue: "23", BrandLabel: "AJP",
			DisplacementValue: "125", DisplacementLabel: "125",
			ModelValue: "77", ModelLabel: "PR7 (2019)",
		},
		{
			TypeValue: "4", TypeLabel: "Scooter",
			BrandValue: "51", BrandLabel: "PIAGGIO",
			DisplacementValue: "50", DisplacementLabel: "50",
			ModelValue: "12", ModelLabel: "ZIP 50 (2000-2005)",
		},
	}
	require.NoError(t, store.Save(tasks))
	assert.True(t, store.Exists())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, tasks, loaded)
}

func TestTaskStoreSaveReplacesCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	store := NewTaskStore(path)

	require.NoError(t, store.Save([]models.Task{
		{TypeValue: "3", TypeLabel: "Moto", BrandValue: "23", BrandLabel: "AJP"},
		{TypeValue: "3", TypeLabel: "Moto", BrandValue: "30", BrandLabel: "APRILIA"},
	}))
	require.NoError(t, store.Save([]models.Task{
		{TypeValue: "4", TypeLabel: "Scooter", BrandValue: "51", BrandLabel: "PIAGGIO"},
	}))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "PIAGGIO", loaded[0].BrandLabel)
}

func TestTaskStoreExistsIgnoresEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	assert.False(t, NewTaskStore(path).Exists())
}
