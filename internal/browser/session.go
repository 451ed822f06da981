package browser

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/rvalero/motoparts-scraper/internal/driver"
)

// session adapts one playwright page to the driver boundary.
type session struct {
	context playwright.BrowserContext
	page    playwright.Page
	timeout time.Duration
	logger  *slog.Logger
}

func (s *session) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (s *session) WaitVisible(locator string, timeout time.Duration) error {
	err := s.page.Locator(locator).First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", driver.ErrNotFound, locator, err)
	}
	return nil
}

// Options reads a select's entries in DOM order.
func (s *session) Options(locator string) ([]driver.Option, error) {
	raw, err := s.page.Locator(locator).First().Evaluate(
		`el => Array.from(el.options).map(o => ({value: o.value, text: o.textContent}))`, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to read options of %s: %w", locator, err))
	}

	entries, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected options payload for %s: %T", locator, raw)
	}

	opts := make([]driver.Option, 0, len(entries))
	for _, entry := range entries {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		opts = append(opts, driver.Option{
			Value: strings.TrimSpace(fmt.Sprintf("%v", m["value"])),
			Text:  strings.TrimSpace(fmt.Sprintf("%v", m["text"])),
		})
	}
	return opts, nil
}

func (s *session) SelectValue(locator, value string) error {
	_, err := s.page.Locator(locator).First().SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	})
	if err != nil {
		return classify(fmt.Errorf("failed to select value %q in %s: %w", value, locator, err))
	}
	return nil
}

func (s *session) SelectText(locator, text string) error {
	_, err := s.page.Locator(locator).First().SelectOption(playwright.SelectOptionValues{
		Labels: &[]string{text},
	})
	if err != nil {
		return classify(fmt.Errorf("failed to select text %q in %s: %w", text, locator, err))
	}
	return nil
}

func (s *session) SelectIndex(locator string, index int) error {
	_, err := s.page.Locator(locator).First().SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{index},
	})
	if err != nil {
		return classify(fmt.Errorf("failed to select index %d in %s: %w", index, locator, err))
	}
	return nil
}

func (s *session) Click(locator string) error {
	el := s.page.Locator(locator).First()
	if err := el.ScrollIntoViewIfNeeded(); err != nil {
		s.logger.Debug("scroll before click failed", "locator", locator, "error", err)
	}
	if err := el.Click(); err != nil {
		return classify(fmt.Errorf("failed to click %s: %w", locator, err))
	}
	return nil
}

func (s *session) CurrentURL() string {
	return s.page.URL()
}

func (s *session) Content() (string, error) {
	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

func (s *session) Close() error {
	var errs []error
	if err := s.page.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing session: %v", errs)
	}
	return nil
}

// classify maps playwright's detached-element failures onto the
// boundary's stale sentinel so the recovery engine can retry in place.
func classify(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "detached") || strings.Contains(msg, "stale") {
		return fmt.Errorf("%w: %v", driver.ErrStale, err)
	}
	return err
}
