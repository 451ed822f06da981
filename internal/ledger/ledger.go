// Package ledger tracks which product/vehicle pairings are already on
// disk so interrupted runs resume without duplicating work.
package ledger

import (
	"log/slog"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

// Ledger is the in-memory set of composite keys already persisted. It
// is rebuilt from the output file at startup and only ever grows during
// a run; the output file itself stays the source of truth.
type Ledger struct {
	keys   map[string]struct{}
	logger *slog.Logger
}

func New() *Ledger {
	return &Ledger{
		keys:   make(map[string]struct{}),
		logger: slog.Default().With("component", "ledger"),
	}
}

// FromRecords rebuilds the ledger from previously persisted records.
func FromRecords(records []models.Record) *Ledger {
	l := New()
	for _, r := range records {
		l.keys[r.Key()] = struct{}{}
	}
	l.logger.Info("ledger rebuilt from existing output", "keys", len(l.keys))
	return l
}

// Has reports whether a composite key was already persisted.
func (l *Ledger) Has(key string) bool {
	_, ok := l.keys[key]
	return ok
}

// Add marks a composite key as persisted. Called only after the record
// is durably written.
func (l *Ledger) Add(key string) {
	l.keys[key] = struct{}{}
}

func (l *Ledger) Len() int {
	return len(l.keys)
}
