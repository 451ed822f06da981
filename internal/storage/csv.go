// Package storage persists records and the task checkpoint as CSV
// files. Writes are one row at a time with the file opened and closed
// around each write: a crash can lose at most the in-flight row.
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

// RecordStore appends product records to the output CSV and reads them
// back for ledger rebuilds and the verification pass.
type RecordStore struct {
	path   string
	logger *slog.Logger
}

func NewRecordStore(path string) *RecordStore {
	return &RecordStore{
		path:   path,
		logger: slog.Default().With("component", "storage"),
	}
}

func (s *RecordStore) Path() string {
	return s.path
}

// Append writes one record, emitting the header first if the file is
// absent or empty. The file handle is not held between calls so that
// interleaved restarts always see complete rows.
func (s *RecordStore) Append(r models.Record) error {
	needHeader, err := fileEmpty(s.path)
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if needHeader {
		if err := w.Write(models.RecordHeader); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(r.Row()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}

	return f.Sync()
}

// ReadAll loads every persisted record. Columns are resolved by header
// name so older files with the same columns in another order still load.
// A missing file yields an empty slice.
func (s *RecordStore) ReadAll() ([]models.Record, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"PRODUCT_URL", "BRAND", "MODEL", "YEAR"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("output file missing column %s", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var records []models.Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("skipping unreadable output row", "error", err)
			continue
		}
		records = append(records, models.Record{
			Type:         field(row, "TYPE"),
			Brand:        field(row, "BRAND"),
			Model:        field(row, "MODEL"),
			Displacement: field(row, "DISPLACEMENT"),
			Year:         field(row, "YEAR"),
			GeneralURL:   field(row, "GENERAL_URL"),
			Product:      field(row, "PRODUCT"),
			ProductBrand: field(row, "PRODUCT_BRAND"),
			Reference:    field(row, "REFERENCE"),
			RefAlt1:      field(row, "REFERENCE_ALT_1"),
			RefAlt2:      field(row, "REFERENCE_ALT_2"),
			ProductURL:   field(row, "PRODUCT_URL"),
		})
	}

	return records, nil
}

func fileEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}
