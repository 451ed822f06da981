package run

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/storage"
)

// Report summarizes the persisted output after a run. Advisory only: it
// never blocks or rolls anything back.
type Report struct {
	TotalRecords      int
	DistinctProducts  int
	MultiYearProducts int
	RecordsWithYear   int
	Examples          []MultiYearExample
}

// MultiYearExample is one product recorded under several year contexts.
type MultiYearExample struct {
	Product string
	Vehicle string
	Years   []string
	URL     string
}

const maxExamples = 5

// Verify re-reads the output file and aggregates consistency figures.
// Returns nil without error when there is no output yet.
func Verify(store *storage.RecordStore) (*Report, error) {
	records, err := store.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	byURL := make(map[string][]models.Record)
	report := &Report{TotalRecords: len(records)}
	for _, rec := range records {
		if rec.ProductURL == "" {
			continue
		}
		byURL[rec.ProductURL] = append(byURL[rec.ProductURL], rec)
		if rec.Year != models.Placeholder {
			report.RecordsWithYear++
		}
	}
	report.DistinctProducts = len(byURL)

	urls := make([]string, 0, len(byURL))
	for u := range byURL {
		urls = append(urls, u)
	}
	sort.Strings(urls)

	for _, u := range urls {
		recs := byURL[u]
		if len(recs) < 2 {
			continue
		}
		report.MultiYearProducts++
		if len(report.Examples) >= maxExamples {
			continue
		}

		var years []string
		for _, rec := range recs {
			if rec.Year != models.Placeholder {
				years = append(years, rec.Year)
			}
		}
		sort.Strings(years)
		report.Examples = append(report.Examples, MultiYearExample{
			Product: recs[0].Product,
			Vehicle: fmt.Sprintf("%s %s", recs[0].Brand, recs[0].Model),
			Years:   years,
			URL:     u,
		})
	}

	return report, nil
}

// Log writes the report through the run logger.
func (r *Report) Log(logger *slog.Logger) {
	logger.Info("output verification",
		"total_records", r.TotalRecords,
		"distinct_products", r.DistinctProducts,
		"multi_year_products", r.MultiYearProducts,
		"records_with_year", r.RecordsWithYear,
		"records_without_year", r.TotalRecords-r.RecordsWithYear)

	for i, ex := range r.Examples {
		logger.Info("multi-year product example",
			"n", i+1,
			"product", ex.Product,
			"vehicle", ex.Vehicle,
			"years", strings.Join(ex.Years, ", "),
			"url", ex.URL)
	}
}
