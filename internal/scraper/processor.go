package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/ledger"
	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/parser"
	"github.com/rvalero/motoparts-scraper/internal/ratelimit"
	"github.com/rvalero/motoparts-scraper/internal/selector"
	"github.com/rvalero/motoparts-scraper/internal/storage"
)

// Processor runs one task end to end: drive the form to the task's leaf,
// resolve the year rows (or the direct listing), and persist every
// product/context pairing not already in the ledger.
type Processor struct {
	d        driver.Driver
	engine   *selector.Engine
	products *ProductExtractor
	details  *DetailExtractor
	ledger   *ledger.Ledger
	store    *storage.RecordStore
	limiter  ratelimit.RateLimiter

	requestDelay time.Duration
	settleDelay  time.Duration
	logger       *slog.Logger
}

func NewProcessor(
	d driver.Driver,
	engine *selector.Engine,
	led *ledger.Ledger,
	store *storage.RecordStore,
	limiter ratelimit.RateLimiter,
	requestDelay, settleDelay, waitTimeout time.Duration,
) *Processor {
	return &Processor{
		d:            d,
		engine:       engine,
		products:     NewProductExtractor(d, requestDelay, waitTimeout),
		details:      NewDetailExtractor(d, waitTimeout),
		ledger:       led,
		store:        store,
		limiter:      limiter,
		requestDelay: requestDelay,
		settleDelay:  settleDelay,
		logger:       slog.Default().With("component", "processor"),
	}
}

// Process drives the form to the task's leaf and extracts its products.
// Returns the number of newly persisted records; zero is a valid
// outcome meaning everything was already on disk or the leaf has no
// products.
func (p *Processor) Process(ctx context.Context, task models.Task) (int, error) {
	p.logger.Info("processing task", "task", task.String())

	if err := p.engine.ResetForm(ctx); err != nil {
		return 0, fmt.Errorf("failed to reset form for task: %w", err)
	}

	steps := []struct {
		locator string
		value   string
		next    string
		label   string
	}{
		{SelVehicleType, task.TypeValue, SelBrand, "vehicle type"},
		{SelBrand, task.BrandValue, SelDisplacement, "brand"},
		{SelDisplacement, task.DisplacementValue, SelModel, "displacement"},
		{SelModel, task.ModelValue, "", "model"},
	}
	for _, step := range steps {
		if err := p.engine.SelectValidated(ctx, step.locator, step.value, step.next, step.label); err != nil {
			return 0, fmt.Errorf("failed to select %s for task %s: %w", step.label, task.String(), err)
		}
	}

	if err := ratelimit.Sleep(ctx, p.settleDelay); err != nil {
		return 0, err
	}

	html, err := p.d.Content()
	if err != nil {
		return 0, fmt.Errorf("failed to read results page: %w", err)
	}

	rows, err := p.parseYearTable(html, task)
	if err != nil {
		p.logger.Warn("failed to parse year table", "task", task.String(), "error", err)
		rows = nil
	}

	if len(rows) == 0 {
		return p.processDirectListing(ctx, task)
	}
	return p.processYearRows(ctx, task, rows)
}

// processYearRows visits each year row's listing in table order. A
// failed row is logged and skipped; the remaining rows still run.
func (p *Processor) processYearRows(ctx context.Context, task models.Task, rows []models.YearRow) (int, error) {
	p.logger.Info("year table found", "task", task.String(), "rows", len(rows))

	persisted := 0
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return persisted, err
		}

		vctx := models.VehicleContext{
			TypeLabel:    task.TypeLabel,
			BrandLabel:   task.BrandLabel,
			Model:        row.Model,
			Displacement: row.Displacement,
			Year:         row.Year,
			GeneralURL:   row.GeneralURL,
		}

		p.logger.Info("processing year row",
			"row", row.Ordinal, "year", row.Year, "url", row.GeneralURL)

		if err := p.d.Navigate(row.GeneralURL); err != nil {
			p.logger.Warn("failed to open year listing",
				"row", row.Ordinal, "url", row.GeneralURL, "error", err)
			continue
		}
		if err := ratelimit.Sleep(ctx, p.requestDelay); err != nil {
			return persisted, err
		}

		n, err := p.processListing(ctx, vctx)
		if err != nil {
			p.logger.Warn("year row failed", "row", row.Ordinal, "year", row.Year, "error", err)
			continue
		}
		persisted += n
		p.logger.Info("year row done", "row", row.Ordinal, "year", row.Year, "new_records", n)
	}

	return persisted, nil
}

// processDirectListing treats the current page as the model's single
// listing when no year table exists.
func (p *Processor) processDirectListing(ctx context.Context, task models.Task) (int, error) {
	p.logger.Info("no year table, processing direct listing", "task", task.String())

	model, displacement, year := parser.ParseModelText(task.ModelLabel, task.DisplacementLabel)
	vctx := models.VehicleContext{
		TypeLabel:    task.TypeLabel,
		BrandLabel:   task.BrandLabel,
		Model:        model,
		Displacement: displacement,
		Year:         year,
		GeneralURL:   p.d.CurrentURL(),
	}

	return p.processListing(ctx, vctx)
}

// processListing extracts the current listing's products and persists
// the pairings the ledger has not seen. A product is added to the
// ledger only after its record is durably written.
func (p *Processor) processListing(ctx context.Context, vctx models.VehicleContext) (int, error) {
	stubs, err := p.products.Extract(ctx)
	if err != nil {
		return 0, err
	}
	p.logger.Info("listing extracted", "products", len(stubs), "year", vctx.Year)

	persisted := 0
	for _, stub := range stubs {
		if err := ctx.Err(); err != nil {
			return persisted, err
		}

		key := models.CompositeKey(stub.URL, vctx.BrandLabel, vctx.Model, vctx.Year)
		if p.ledger.Has(key) {
			p.logger.Info("skipping already persisted product", "url", stub.URL, "year", vctx.Year)
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return persisted, err
		}

		rec, ok := p.details.Extract(ctx, stub, vctx)
		if !ok {
			p.logger.Warn("product detail extraction failed, will retry next run", "url", stub.URL)
			continue
		}

		if err := p.store.Append(rec); err != nil {
			p.logger.Error("failed to persist record", "url", stub.URL, "error", err)
			continue
		}
		p.ledger.Add(key)
		persisted++
		p.logger.Info("record persisted",
			"product", rec.Product, "brand", rec.ProductBrand, "year", rec.Year)
	}

	return persisted, nil
}

// parseYearTable reads the results table shown under the form. The year
// comes from a detected year column when one exists and from the row's
// composite model text otherwise.
func (p *Processor) parseYearTable(html string, task models.Task) ([]models.YearRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	trs := doc.Find(selYearTableRows)
	if trs.Length() == 0 {
		return nil, nil
	}

	yearCol := -1
	doc.Find(selYearTableHead).Each(func(i int, th *goquery.Selection) {
		head := strings.ToUpper(th.Text())
		if yearCol < 0 && (strings.Contains(head, "AÑO") || strings.Contains(head, "ANY")) {
			yearCol = i
		}
	})
	if yearCol >= 0 {
		p.logger.Debug("year column detected", "index", yearCol)
	}

	base := p.d.CurrentURL()
	var rows []models.YearRow
	trs.Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}

		first := cells.Eq(0)
		href, ok := first.Find("a").First().Attr("href")
		if !ok {
			p.logger.Warn("year row without link", "row", i+1)
			return
		}
		generalURL := resolveURL(base, href)
		if generalURL == "" {
			p.logger.Warn("year row with unresolvable link", "row", i+1, "href", href)
			return
		}

		rawModel := strings.TrimSpace(first.Text())
		model, displacement, parsedYear := parser.ParseModelText(rawModel, task.DisplacementLabel)

		year := parsedYear
		if yearCol >= 0 && yearCol < cells.Length() {
			if cellYear, ok := parser.ParseYearCell(cells.Eq(yearCol).Text()); ok {
				year = cellYear
			}
		}

		rows = append(rows, models.YearRow{
			GeneralURL:   generalURL,
			RawModelText: rawModel,
			Model:        model,
			Displacement: displacement,
			Year:         year,
			Ordinal:      i + 1,
		})
	})

	return rows, nil
}
