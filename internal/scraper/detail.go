package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/ratelimit"
)

// DetailExtractor loads a product page and builds the persisted record
// for it under a given vehicle context.
type DetailExtractor struct {
	d           driver.Driver
	waitTimeout time.Duration
	logger      *slog.Logger
}

func NewDetailExtractor(d driver.Driver, waitTimeout time.Duration) *DetailExtractor {
	return &DetailExtractor{
		d:           d,
		waitTimeout: waitTimeout,
		logger:      slog.Default().With("component", "detail_extractor"),
	}
}

// Extract visits the product page and returns its record. ok is false
// on any hard failure; the caller then skips the product without
// marking it processed, so a later run picks it up again.
func (de *DetailExtractor) Extract(ctx context.Context, stub models.ProductStub, vctx models.VehicleContext) (models.Record, bool) {
	var rec models.Record

	if err := de.d.Navigate(stub.URL); err != nil {
		de.logger.Warn("failed to open product page", "url", stub.URL, "error", err)
		return rec, false
	}
	if err := de.d.WaitVisible(selDetailContainer, de.waitTimeout); err != nil {
		de.logger.Warn("detail container missing", "url", stub.URL, "error", err)
		return rec, false
	}
	if err := ratelimit.Sleep(ctx, time.Second); err != nil {
		return rec, false
	}

	html, err := de.d.Content()
	if err != nil {
		de.logger.Warn("failed to read product page", "url", stub.URL, "error", err)
		return rec, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		de.logger.Warn("failed to parse product page", "url", stub.URL, "error", err)
		return rec, false
	}

	rec = models.Record{
		Type:         vctx.TypeLabel,
		Brand:        vctx.BrandLabel,
		Model:        vctx.Model,
		Displacement: vctx.Displacement,
		Year:         vctx.Year,
		GeneralURL:   vctx.GeneralURL,
		Product:      de.extractName(doc),
		ProductBrand: stub.Brand,
		Reference:    de.extractReference(doc),
		RefAlt1:      models.Placeholder,
		RefAlt2:      models.Placeholder,
		ProductURL:   stub.URL,
	}

	return rec, true
}

func (de *DetailExtractor) extractName(doc *goquery.Document) string {
	if el := doc.Find(selProductName).First(); el.Length() > 0 {
		if name := strings.TrimSpace(el.Text()); name != "" {
			return name
		}
	}
	if el := doc.Find(selProductNameLoose).First(); el.Length() > 0 {
		if name := strings.TrimSpace(el.Text()); name != "" {
			return name
		}
	}
	return models.Placeholder
}

// extractReference looks for the "Referencia:" label: first a div whose
// child span carries it, then any span carrying it directly.
func (de *DetailExtractor) extractReference(doc *goquery.Document) string {
	ref := models.Placeholder

	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		hasLabel := false
		div.ChildrenFiltered("span").Each(func(_ int, span *goquery.Selection) {
			if strings.Contains(span.Text(), referenceLabel) {
				hasLabel = true
			}
		})
		if !hasLabel {
			return true
		}
		if v := stripLabel(div.Text()); v != "" {
			ref = v
			return false
		}
		return true
	})
	if ref != models.Placeholder {
		return ref
	}

	doc.Find("span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		if !strings.Contains(span.Text(), referenceLabel) {
			return true
		}
		if v := stripLabel(span.Text()); v != "" {
			ref = v
			return false
		}
		return true
	})

	return ref
}

func stripLabel(text string) string {
	return strings.TrimSpace(strings.Replace(text, referenceLabel, "", 1))
}
