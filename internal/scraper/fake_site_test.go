package scraper

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rvalero/motoparts-scraper/internal/driver"
)

// fakeSite serves canned HTML pages by URL and answers locator queries
// by actually matching them against the current page.
type fakeSite struct {
	pages   map[string]string
	current string
	visits  []string
}

func newFakeSite(start string, pages map[string]string) *fakeSite {
	return &fakeSite{pages: pages, current: start}
}

func (f *fakeSite) doc() (*goquery.Document, error) {
	html, ok := f.pages[f.current]
	if !ok {
		return nil, fmt.Errorf("no page for %s", f.current)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeSite) Navigate(url string) error {
	if _, ok := f.pages[url]; !ok {
		return fmt.Errorf("page not found: %s", url)
	}
	f.current = url
	f.visits = append(f.visits, url)
	return nil
}

func (f *fakeSite) WaitVisible(locator string, timeout time.Duration) error {
	doc, err := f.doc()
	if err != nil {
		return err
	}
	if doc.Find(locator).Length() == 0 {
		return fmt.Errorf("%w: %s", driver.ErrNotFound, locator)
	}
	return nil
}

func (f *fakeSite) Options(locator string) ([]driver.Option, error) {
	doc, err := f.doc()
	if err != nil {
		return nil, err
	}
	var opts []driver.Option
	doc.Find(locator + " option").Each(func(_ int, o *goquery.Selection) {
		value, _ := o.Attr("value")
		opts = append(opts, driver.Option{
			Value: value,
			Text:  strings.TrimSpace(o.Text()),
		})
	})
	return opts, nil
}

func (f *fakeSite) SelectValue(locator, value string) error {
	doc, err := f.doc()
	if err != nil {
		return err
	}
	sel := fmt.Sprintf(`%s option[value="%s"]`, locator, value)
	if doc.Find(sel).Length() == 0 {
		return fmt.Errorf("no option %q in %s", value, locator)
	}
	return nil
}

func (f *fakeSite) SelectText(locator, text string) error {
	doc, err := f.doc()
	if err != nil {
		return err
	}
	found := false
	doc.Find(locator + " option").Each(func(_ int, o *goquery.Selection) {
		if strings.TrimSpace(o.Text()) == text {
			found = true
		}
	})
	if !found {
		return fmt.Errorf("no option %q in %s", text, locator)
	}
	return nil
}

func (f *fakeSite) SelectIndex(locator string, i int) error { return nil }

func (f *fakeSite) Click(locator string) error { return nil }

func (f *fakeSite) CurrentURL() string { return f.current }

func (f *fakeSite) Content() (string, error) {
	html, ok := f.pages[f.current]
	if !ok {
		return "", fmt.Errorf("no page for %s", f.current)
	}
	return html, nil
}
