// Package selector drives the site's cascading select form. The form
// has no reliable "refreshed" signal: the only trustworthy evidence
// that a selection took effect is that the dependent selector now
// exposes valid, non-placeholder options. When it does not — whether
// the options have not loaded yet or the page wedged itself — the form
// is reset from the landing page and the selection is replayed.
package selector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/ratelimit"
)

// ErrBuggedState reports a dependent selector left without valid options
// after its parent was selected. Resolved by a form reset, never by
// waiting longer.
var ErrBuggedState = errors.New("dependent selector has no valid options")

const placeholderText = "- Seleccionar -"

// Config bounds the engine's retry and recovery behavior.
type Config struct {
	// BaseURL is the landing page a form reset navigates back to.
	BaseURL string
	// Chain is the selector locators in root-first order; a reset
	// forces each of them back to its default option.
	Chain []string
	// Retries is the in-place attempt budget per recovery cycle.
	Retries int
	// RecoveryAttempts is the outer reset-and-replay budget.
	RecoveryAttempts int
	// StepDelay is the pause after a selection, giving the page time to
	// refresh its dependents.
	StepDelay time.Duration
	// SettleDelay is the pause after navigating back to the landing page.
	SettleDelay time.Duration
	// WaitTimeout bounds every element wait.
	WaitTimeout time.Duration
}

// Engine wraps a driver with validated selection and recovery.
type Engine struct {
	d      driver.Driver
	cfg    Config
	logger *slog.Logger

	// expected tracks the value each selector was last validated to
	// hold. The UI's own current value is never trusted; after a reset
	// the map is cleared and every level must be re-asserted.
	expected map[string]string
	resets   int
}

func New(d driver.Driver, cfg Config) *Engine {
	return &Engine{
		d:        d,
		cfg:      cfg,
		logger:   slog.Default().With("component", "selector"),
		expected: make(map[string]string),
	}
}

// Resets returns how many recovery cycles the engine has completed.
func (e *Engine) Resets() int {
	return e.resets
}

// Expected returns the value the engine last validated for a locator.
func (e *Engine) Expected(locator string) (string, bool) {
	v, ok := e.expected[locator]
	return v, ok
}

// SelectValidated selects value in the given selector, by value first
// and by visible text as fallback. When nextLocator is non-empty the
// selection only counts once that dependent selector exposes at least
// one valid option. Transient failures are retried in place; a bugged
// dependent escalates to a full form reset. Returns an error only after
// both budgets are exhausted.
func (e *Engine) SelectValidated(ctx context.Context, locator, value, nextLocator, label string) error {
	var lastErr error

	for recovery := 0; recovery < e.cfg.RecoveryAttempts; recovery++ {
		for attempt := 0; attempt < e.cfg.Retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := e.trySelect(ctx, locator, value, nextLocator)
			if err == nil {
				e.expected[locator] = value
				e.logger.Info("selection validated", "label", label, "value", value)
				return nil
			}
			lastErr = err

			if errors.Is(err, ErrBuggedState) {
				// Waiting longer never repairs a wedged form.
				e.logger.Warn("dependent selector not populated",
					"label", label, "value", value, "next", nextLocator)
				break
			}

			e.logger.Warn("selection attempt failed",
				"label", label, "value", value,
				"attempt", attempt+1, "retries", e.cfg.Retries, "error", err)
			if err := ratelimit.Sleep(ctx, time.Second); err != nil {
				return err
			}
		}

		if recovery < e.cfg.RecoveryAttempts-1 {
			e.logger.Warn("starting recovery cycle",
				"label", label, "value", value,
				"cycle", recovery+1, "budget", e.cfg.RecoveryAttempts)
			if err := e.ResetForm(ctx); err != nil {
				e.logger.Error("form reset failed", "error", err)
			}
		}
	}

	return fmt.Errorf("selecting %s=%q exhausted %d recovery attempts: %w",
		label, value, e.cfg.RecoveryAttempts, lastErr)
}

// ValidOptions reads a selector's options with placeholders filtered
// out. An empty result after a valid parent selection means the page is
// in a bugged state, not a true empty set, so it triggers the same
// reset-and-retry loop as a failed selection.
func (e *Engine) ValidOptions(ctx context.Context, locator string) ([]driver.Option, error) {
	var lastErr error

	for recovery := 0; recovery < e.cfg.RecoveryAttempts; recovery++ {
		for attempt := 0; attempt < e.cfg.Retries; attempt++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			if err := e.d.WaitVisible(locator, e.cfg.WaitTimeout); err != nil {
				lastErr = err
				e.logger.Warn("selector not present",
					"locator", locator, "attempt", attempt+1, "error", err)
				if err := ratelimit.Sleep(ctx, time.Second); err != nil {
					return nil, err
				}
				continue
			}

			opts, err := e.d.Options(locator)
			if err != nil {
				lastErr = err
				e.logger.Warn("failed to read options",
					"locator", locator, "attempt", attempt+1, "error", err)
				if err := ratelimit.Sleep(ctx, time.Second); err != nil {
					return nil, err
				}
				continue
			}

			if valid := filterValid(opts); len(valid) > 0 {
				e.logger.Info("options read", "locator", locator, "count", len(valid))
				return valid, nil
			}

			lastErr = ErrBuggedState
			e.logger.Warn("no valid options", "locator", locator)
			break
		}

		if recovery < e.cfg.RecoveryAttempts-1 {
			e.logger.Warn("starting recovery cycle for option read",
				"locator", locator, "cycle", recovery+1, "budget", e.cfg.RecoveryAttempts)
			if err := e.ResetForm(ctx); err != nil {
				e.logger.Error("form reset failed", "error", err)
			}
		}
	}

	return nil, fmt.Errorf("reading options of %s exhausted %d recovery attempts: %w",
		locator, e.cfg.RecoveryAttempts, lastErr)
}

// ResetForm navigates back to the landing page, waits for the root
// selector and forces every selector in the chain to its default
// option. All validated state is discarded.
func (e *Engine) ResetForm(ctx context.Context) error {
	e.logger.Info("resetting selector form")

	if err := e.d.Navigate(e.cfg.BaseURL); err != nil {
		return fmt.Errorf("failed to navigate to landing page: %w", err)
	}
	if err := ratelimit.Sleep(ctx, e.cfg.SettleDelay); err != nil {
		return err
	}
	if len(e.cfg.Chain) > 0 {
		if err := e.d.WaitVisible(e.cfg.Chain[0], e.cfg.WaitTimeout); err != nil {
			return fmt.Errorf("root selector not present after reset: %w", err)
		}
	}

	for _, locator := range e.cfg.Chain {
		if err := e.d.SelectIndex(locator, 0); err != nil {
			e.logger.Warn("failed to reset selector", "locator", locator, "error", err)
		}
	}

	clear(e.expected)
	e.resets++
	e.logger.Info("selector form reset", "cycles", e.resets)
	return nil
}

func (e *Engine) trySelect(ctx context.Context, locator, value, nextLocator string) error {
	if err := e.d.WaitVisible(locator, e.cfg.WaitTimeout); err != nil {
		return fmt.Errorf("selector %s not present: %w", locator, err)
	}

	if err := e.d.SelectValue(locator, value); err != nil {
		if err2 := e.d.SelectText(locator, value); err2 != nil {
			return fmt.Errorf("failed to select %q in %s: %w", value, locator, err2)
		}
	}

	if err := ratelimit.Sleep(ctx, e.cfg.StepDelay); err != nil {
		return err
	}

	if nextLocator == "" {
		return nil
	}

	if err := e.d.WaitVisible(nextLocator, e.cfg.WaitTimeout); err != nil {
		return fmt.Errorf("dependent selector %s not present: %w", nextLocator, err)
	}
	// Options can lag behind the element itself.
	if err := ratelimit.Sleep(ctx, e.cfg.StepDelay); err != nil {
		return err
	}

	opts, err := e.d.Options(nextLocator)
	if err != nil {
		return fmt.Errorf("failed to read dependent options of %s: %w", nextLocator, err)
	}
	if len(filterValid(opts)) == 0 {
		return ErrBuggedState
	}

	return nil
}

// filterValid drops the form's placeholder entries: values -1, empty
// and 0, and the "- Seleccionar -" label.
func filterValid(opts []driver.Option) []driver.Option {
	var valid []driver.Option
	for _, o := range opts {
		switch o.Value {
		case "-1", "", "0":
			continue
		}
		text := strings.TrimSpace(o.Text)
		if text == "" || text == placeholderText {
			continue
		}
		valid = append(valid, o)
	}
	return valid
}
