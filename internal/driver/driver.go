// Package driver defines the narrow browser capability the crawl needs.
// The playwright implementation lives in internal/browser; tests use
// in-memory fakes.
package driver

import (
	"errors"
	"time"
)

var (
	// ErrStale signals a transient element failure worth an in-place retry.
	ErrStale = errors.New("stale element")
	// ErrNotFound signals a locator that matched nothing within its wait.
	ErrNotFound = errors.New("element not found")
)

// Option is one entry of a select element.
type Option struct {
	Value string
	Text  string
}

// Driver is the full set of browser operations the crawl performs.
// Locators are CSS selectors.
type Driver interface {
	Navigate(url string) error
	WaitVisible(locator string, timeout time.Duration) error
	Options(locator string) ([]Option, error)
	SelectValue(locator, value string) error
	SelectText(locator, text string) error
	SelectIndex(locator string, index int) error
	Click(locator string) error
	CurrentURL() string
	Content() (string, error)
}

// Session is a Driver with an owned lifetime. Exactly one session is
// live at a time; each task gets a fresh one.
type Session interface {
	Driver
	Close() error
}

// Factory allocates sessions. The orchestrator takes a Factory so tests
// can hand it fakes instead of a real browser.
type Factory interface {
	NewSession() (Session, error)
}
