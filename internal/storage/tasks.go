package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rvalero/motoparts-scraper/internal/models"
)

var taskHeader = []string{
	"type_value", "type_label", "brand_value", "brand_label",
	"displacement_value", "displacement_label", "model_value", "model_label",
}

// TaskStore checkpoints the enumerated task list so later runs can skip
// the enumeration walk entirely.
type TaskStore struct {
	path string
}

func NewTaskStore(path string) *TaskStore {
	return &TaskStore{path: path}
}

func (s *TaskStore) Path() string {
	return s.path
}

// Exists reports whether a checkpoint is present on disk.
func (s *TaskStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && info.Size() > 0
}

// Save writes the complete task list, replacing any prior checkpoint.
func (s *TaskStore) Save(tasks []models.Task) error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create task checkpoint: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(taskHeader); err != nil {
		return fmt.Errorf("failed to write task header: %w", err)
	}
	for _, t := range tasks {
		row := []string{
			t.TypeValue, t.TypeLabel, t.BrandValue, t.BrandLabel,
			t.DisplacementValue, t.DisplacementLabel, t.ModelValue, t.ModelLabel,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write task row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush task checkpoint: %w", err)
	}

	return f.Sync()
}

// Load reads the checkpointed task list.
func (s *TaskStore) Load() ([]models.Task, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open task checkpoint: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read task header: %w", err)
	}
	if len(header) < len(taskHeader) {
		return nil, fmt.Errorf("task checkpoint has %d columns, want %d", len(header), len(taskHeader))
	}

	var tasks []models.Task
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read task row: %w", err)
		}
		tasks = append(tasks, models.Task{
			TypeValue:         row[0],
			TypeLabel:         row[1],
			BrandValue:        row[2],
			BrandLabel:        row[3],
			DisplacementValue: row[4],
			DisplacementLabel: row[5],
			ModelValue:        row[6],
			ModelLabel:        row[7],
		})
	}

	return tasks, nil
}
