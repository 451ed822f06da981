package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/ratelimit"
)

// ProductExtractor collects product stubs from a loaded listing page
// and all of its pagination pages.
type ProductExtractor struct {
	d            driver.Driver
	requestDelay time.Duration
	waitTimeout  time.Duration
	logger       *slog.Logger
}

func NewProductExtractor(d driver.Driver, requestDelay, waitTimeout time.Duration) *ProductExtractor {
	return &ProductExtractor{
		d:            d,
		requestDelay: requestDelay,
		waitTimeout:  waitTimeout,
		logger:       slog.Default().With("component", "product_extractor"),
	}
}

// Extract returns the unique product stubs of the listing the driver is
// currently on. An empty result is valid: either the page says so or
// the container is missing, and the two are logged apart.
func (pe *ProductExtractor) Extract(ctx context.Context) ([]models.ProductStub, error) {
	if err := pe.d.WaitVisible(selProductContainer, pe.waitTimeout); err != nil {
		html, cErr := pe.d.Content()
		if cErr == nil && strings.Contains(strings.ToLower(html), noProductsText) {
			pe.logger.Info("listing reports no products", "url", pe.d.CurrentURL())
			return nil, nil
		}
		pe.logger.Warn("product container not found", "url", pe.d.CurrentURL(), "error", err)
		return nil, nil
	}

	html, err := pe.d.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read listing page: %w", err)
	}
	if strings.Contains(strings.ToLower(html), noProductsText) {
		pe.logger.Info("listing reports no products", "url", pe.d.CurrentURL())
		return nil, nil
	}

	currentURL := pe.d.CurrentURL()
	pages, err := pe.paginationPages(html, currentURL)
	if err != nil {
		pe.logger.Warn("failed to read pagination", "url", currentURL, "error", err)
		pages = nil
	}
	if len(pages) > 0 {
		pe.logger.Info("pagination detected", "pages", len(pages)+1, "url", currentURL)
	}

	// Current page first, without re-navigating; the rest in ascending
	// URL order.
	stubs, err := pe.stubsFromHTML(html, currentURL)
	if err != nil {
		return nil, err
	}

	for i, pageURL := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pe.logger.Info("navigating to listing page", "page", i+2, "url", pageURL)
		if err := pe.d.Navigate(pageURL); err != nil {
			pe.logger.Warn("failed to open listing page", "url", pageURL, "error", err)
			continue
		}
		if err := ratelimit.Sleep(ctx, pe.requestDelay); err != nil {
			return nil, err
		}
		if err := pe.d.WaitVisible(selProductContainer, pe.waitTimeout); err != nil {
			pe.logger.Warn("product container missing on listing page", "url", pageURL, "error", err)
			continue
		}

		pageHTML, err := pe.d.Content()
		if err != nil {
			pe.logger.Warn("failed to read listing page", "url", pageURL, "error", err)
			continue
		}
		pageStubs, err := pe.stubsFromHTML(pageHTML, pageURL)
		if err != nil {
			pe.logger.Warn("failed to extract products", "url", pageURL, "error", err)
			continue
		}
		stubs = append(stubs, pageStubs...)
	}

	return pe.dedupe(stubs), nil
}

// paginationPages returns the other listing pages in ascending URL
// order, the current page excluded.
func (pe *ProductExtractor) paginationPages(html, currentURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	seen := map[string]struct{}{currentURL: {}}
	var pages []string
	doc.Find(selPaginationLinks).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		resolved := resolveURL(currentURL, href)
		if resolved == "" {
			return
		}
		if _, dup := seen[resolved]; dup {
			return
		}
		seen[resolved] = struct{}{}
		pages = append(pages, resolved)
	})

	sort.Strings(pages)
	return pages, nil
}

func (pe *ProductExtractor) stubsFromHTML(html, pageURL string) ([]models.ProductStub, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing HTML: %w", err)
	}

	var tiles *goquery.Selection
	for _, sel := range productTileSelectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			tiles = found
			pe.logger.Debug("product tiles matched", "selector", sel, "count", found.Length())
			break
		}
	}
	if tiles == nil {
		pe.logger.Warn("no product tiles matched any selector", "url", pageURL)
		return nil, nil
	}

	var stubs []models.ProductStub
	tiles.Each(func(i int, tile *goquery.Selection) {
		href, ok := tile.Find("a").First().Attr("href")
		if !ok {
			pe.logger.Warn("product tile without link", "index", i+1, "url", pageURL)
			return
		}
		productURL := resolveURL(pageURL, href)
		if productURL == "" {
			pe.logger.Warn("product tile with unresolvable link", "index", i+1, "href", href)
			return
		}

		stubs = append(stubs, models.ProductStub{
			URL:   productURL,
			Brand: pe.extractBrand(tile),
		})
	})

	return stubs, nil
}

// extractBrand tries the brand image title, a brand element, and the
// first word of the product title, in that order.
func (pe *ProductExtractor) extractBrand(tile *goquery.Selection) string {
	if img := tile.Find(selListingBrandImage).First(); img.Length() > 0 {
		if title, ok := img.Attr("title"); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
		if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			return strings.TrimSpace(alt)
		}
	}

	if el := tile.Find(selListingBrand).First(); el.Length() > 0 {
		if title, ok := el.Attr("title"); ok && strings.TrimSpace(title) != "" {
			return strings.TrimSpace(title)
		}
		if text := strings.TrimSpace(el.Text()); text != "" {
			return text
		}
	}

	if el := tile.Find(selListingTitle).First(); el.Length() > 0 {
		words := strings.Fields(el.Text())
		if len(words) > 0 {
			return words[0]
		}
	}

	return models.Placeholder
}

func (pe *ProductExtractor) dedupe(stubs []models.ProductStub) []models.ProductStub {
	seen := make(map[string]struct{}, len(stubs))
	unique := stubs[:0]
	for _, stub := range stubs {
		if _, dup := seen[stub.URL]; dup {
			pe.logger.Info("duplicate product dropped", "url", stub.URL)
			continue
		}
		seen[stub.URL] = struct{}{}
		unique = append(unique, stub)
	}
	return unique
}

// resolveURL resolves href against base; empty on failure.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ""
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := b.ResolveReference(h)
	if resolved.Scheme == "" || resolved.Host == "" {
		return ""
	}
	return resolved.String()
}
