package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

var testContext = models.VehicleContext{
	TypeLabel:    "Moto",
	BrandLabel:   "AJP",
	Model:        "PR7 125",
	Displacement: "125",
	Year:         "2019",
	GeneralURL:   "https://site.example/veh/pr7-2019",
}

func TestDetailExtractor(t *testing.T) {
	site := newFakeSite("https://site.example/veh/pr7-2019", map[string]string{
		"https://site.example/producto/filtro-aceite-101": `<html><body>
			<div class="detalls">
				<div class="nom_producte"><span>Filtro de aceite HF112</span></div>
				<div><span>Referencia:</span> HF112</div>
			</div>
		</body></html>`,
	})
	de := NewDetailExtractor(site, time.Second)

	stub := models.ProductStub{
		URL:   "https://site.example/producto/filtro-aceite-101",
		Brand: "HIFLOFILTRO",
	}
	rec, ok := de.Extract(context.Background(), stub, testContext)
	require.True(t, ok)

	assert.Equal(t, "Moto", rec.Type)
	assert.Equal(t, "AJP", rec.Brand)
	assert.Equal(t, "PR7 125", rec.Model)
	assert.Equal(t, "125", rec.Displacement)
	assert.Equal(t, "2019", rec.Year)
	assert.Equal(t, "https://site.example/veh/pr7-2019", rec.GeneralURL)
	assert.Equal(t, "Filtro de aceite HF112", rec.Product)
	assert.Equal(t, "HIFLOFILTRO", rec.ProductBrand)
	assert.Equal(t, "HF112", rec.Reference)
	assert.Equal(t, models.Placeholder, rec.RefAlt1)
	assert.Equal(t, models.Placeholder, rec.RefAlt2)
	assert.Equal(t, stub.URL, rec.ProductURL)
}

func TestDetailExtractorReferenceFromBareSpan(t *testing.T) {
	site := newFakeSite("", map[string]string{
		"https://site.example/producto/bujia-202": `<html><body>
			<div class="detalls">
				<p class="nom_producte">NGK Bujia CR7E</p>
				<p><span>Referencia: CR7E</span></p>
			</div>
		</body></html>`,
	})
	de := NewDetailExtractor(site, time.Second)

	rec, ok := de.Extract(context.Background(),
		models.ProductStub{URL: "https://site.example/producto/bujia-202", Brand: "NGK"}, testContext)
	require.True(t, ok)
	assert.Equal(t, "NGK Bujia CR7E", rec.Product)
	assert.Equal(t, "CR7E", rec.Reference)
}

func TestDetailExtractorMissingContainerSkips(t *testing.T) {
	site := newFakeSite("", map[string]string{
		"https://site.example/producto/roto": `<html><body><p>error</p></body></html>`,
	})
	de := NewDetailExtractor(site, 10*time.Millisecond)

	_, ok := de.Extract(context.Background(),
		models.ProductStub{URL: "https://site.example/producto/roto"}, testContext)
	assert.False(t, ok)
}

func TestDetailExtractorNavigationFailureSkips(t *testing.T) {
	site := newFakeSite("", map[string]string{})
	de := NewDetailExtractor(site, 10*time.Millisecond)

	_, ok := de.Extract(context.Background(),
		models.ProductStub{URL: "https://site.example/producto/desaparecido"}, testContext)
	assert.False(t, ok)
}
