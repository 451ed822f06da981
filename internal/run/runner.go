// Package run holds the top-level orchestration: source the task list,
// process it one task per fresh browser session, and report.
package run

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/rvalero/motoparts-scraper/internal/config"
	"github.com/rvalero/motoparts-scraper/internal/driver"
	"github.com/rvalero/motoparts-scraper/internal/ledger"
	"github.com/rvalero/motoparts-scraper/internal/models"
	"github.com/rvalero/motoparts-scraper/internal/ratelimit"
	"github.com/rvalero/motoparts-scraper/internal/scraper"
	"github.com/rvalero/motoparts-scraper/internal/selector"
	"github.com/rvalero/motoparts-scraper/internal/storage"
)

// Runner drives a complete crawl: TASK_SOURCING then PROCESSING, with a
// final advisory verification pass over the output.
type Runner struct {
	cfg     *config.Config
	factory driver.Factory
	store   *storage.RecordStore
	tasks   *storage.TaskStore
	limiter ratelimit.RateLimiter
	logger  *slog.Logger
}

func New(cfg *config.Config, factory driver.Factory) *Runner {
	return &Runner{
		cfg:     cfg,
		factory: factory,
		store:   storage.NewRecordStore(cfg.Files.Output),
		tasks:   storage.NewTaskStore(cfg.Files.Tasks),
		limiter: ratelimit.NewFixed(cfg.Crawl.RequestDelay),
		logger:  slog.Default().With("component", "runner", "run_id", uuid.NewString()),
	}
}

// Run executes the crawl and returns the accumulated stats. Task-level
// failures never abort the run; only startup problems do.
func (r *Runner) Run(ctx context.Context) (models.RunStats, error) {
	var stats models.RunStats

	if r.cfg.Run.FreshStart {
		if err := r.freshStart(); err != nil {
			return stats, err
		}
	}

	tasks, err := r.sourceTasks(ctx)
	if err != nil {
		return stats, err
	}
	tasks = r.applyResumeCursor(tasks)

	led, err := r.buildLedger()
	if err != nil {
		return stats, err
	}

	stats.TasksTotal = len(tasks)
	r.logger.Info("processing phase starting", "tasks", len(tasks), "known_records", led.Len())

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run cancelled", "completed_tasks", i)
			break
		}

		r.logger.Info("task starting", "task", task.String(),
			"progress", fmt.Sprintf("%d/%d", i+1, len(tasks)))

		persisted, err := r.runTask(ctx, task, led)
		switch {
		case err != nil:
			stats.TasksFailed++
			r.logger.Error("task failed", "task", task.String(), "error", err)
		case persisted > 0:
			stats.TasksSucceeded++
			stats.ProductsPersisted += persisted
			r.logger.Info("task done", "task", task.String(), "new_records", persisted)
		default:
			stats.TasksSkipped++
			r.logger.Info("task done without new records", "task", task.String())
		}

		if i < len(tasks)-1 {
			if err := ratelimit.Sleep(ctx, r.cfg.Crawl.TaskPause); err != nil {
				break
			}
		}
	}

	r.report(stats)
	return stats, nil
}

// runTask processes one task in its own browser session. The session is
// always closed, whatever the task's outcome.
func (r *Runner) runTask(ctx context.Context, task models.Task, led *ledger.Ledger) (int, error) {
	session, err := r.factory.NewSession()
	if err != nil {
		return 0, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("failed to close session", "error", err)
		}
	}()

	engine := selector.New(session, r.engineConfig())
	proc := scraper.NewProcessor(session, engine, led, r.store, r.limiter,
		r.cfg.Crawl.RequestDelay, r.cfg.Crawl.SettleDelay, r.cfg.Crawl.WaitTimeout)

	return proc.Process(ctx, task)
}

// sourceTasks loads the checkpointed task list or builds it with a full
// enumeration walk. Skip-enumeration mode refuses to run without a
// checkpoint.
func (r *Runner) sourceTasks(ctx context.Context) ([]models.Task, error) {
	if r.cfg.Run.SkipEnumeration {
		if !r.tasks.Exists() {
			return nil, fmt.Errorf("enumeration skipped but checkpoint %s does not exist", r.tasks.Path())
		}
		tasks, err := r.tasks.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load task checkpoint: %w", err)
		}
		r.logger.Info("task checkpoint loaded", "tasks", len(tasks), "path", r.tasks.Path())
		return tasks, nil
	}

	if r.tasks.Exists() {
		tasks, err := r.tasks.Load()
		if err == nil && len(tasks) > 0 {
			r.logger.Info("task checkpoint loaded", "tasks", len(tasks), "path", r.tasks.Path())
			return tasks, nil
		}
		if err != nil {
			r.logger.Warn("task checkpoint unreadable, re-enumerating", "error", err)
		}
	}

	r.logger.Info("no usable checkpoint, enumerating task tree")
	session, err := r.factory.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start browser session for enumeration: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Warn("failed to close enumeration session", "error", err)
		}
	}()

	engine := selector.New(session, r.engineConfig())
	tasks, err := scraper.NewEnumerator(engine).Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumeration failed: %w", err)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("enumeration produced no tasks")
	}

	if err := r.tasks.Save(tasks); err != nil {
		return nil, fmt.Errorf("failed to save task checkpoint: %w", err)
	}
	r.logger.Info("task checkpoint saved", "tasks", len(tasks), "path", r.tasks.Path())
	return tasks, nil
}

// applyResumeCursor truncates the task list to everything strictly
// after the last task whose brand matches the configured cursor.
func (r *Runner) applyResumeCursor(tasks []models.Task) []models.Task {
	brand := r.cfg.Run.ResumeAfterBrand
	if brand == "" {
		return tasks
	}

	last := -1
	for i, task := range tasks {
		if task.BrandLabel == brand {
			last = i
		}
	}
	if last < 0 {
		r.logger.Warn("resume brand not found in task list, processing everything", "brand", brand)
		return tasks
	}

	remaining := tasks[last+1:]
	r.logger.Info("resuming after brand", "brand", brand, "remaining_tasks", len(remaining))
	return remaining
}

func (r *Runner) buildLedger() (*ledger.Ledger, error) {
	records, err := r.store.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild ledger from output: %w", err)
	}
	if len(records) == 0 {
		return ledger.New(), nil
	}
	return ledger.FromRecords(records), nil
}

// freshStart backs up the existing output and log files, then removes
// the output so the run begins with an empty ledger.
func (r *Runner) freshStart() error {
	r.logger.Info("fresh start requested, discarding prior output")

	if _, err := os.Stat(r.cfg.Files.Output); os.IsNotExist(err) {
		return nil
	}

	stamp := time.Now().Format("20060102_150405")
	for _, path := range []string{r.cfg.Files.Output, r.cfg.Files.Log} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		backup := fmt.Sprintf("%s.backup_%s", path, stamp)
		if err := copyFile(path, backup); err != nil {
			r.logger.Warn("failed to back up file", "path", path, "error", err)
			continue
		}
		r.logger.Info("backup created", "path", backup)
	}

	if err := os.Remove(r.cfg.Files.Output); err != nil {
		return fmt.Errorf("failed to remove prior output: %w", err)
	}
	return nil
}

func (r *Runner) report(stats models.RunStats) {
	successRate := 0.0
	if stats.TasksTotal > 0 {
		successRate = float64(stats.TasksSucceeded) / float64(stats.TasksTotal) * 100
	}

	r.logger.Info("run finished",
		"tasks_total", stats.TasksTotal,
		"tasks_succeeded", stats.TasksSucceeded,
		"tasks_skipped", stats.TasksSkipped,
		"tasks_failed", stats.TasksFailed,
		"products_persisted", stats.ProductsPersisted,
		"success_rate", fmt.Sprintf("%.1f%%", successRate),
		"output", r.cfg.Files.Output,
		"tasks_file", r.cfg.Files.Tasks)

	report, err := Verify(r.store)
	if err != nil {
		r.logger.Warn("verification pass failed", "error", err)
		return
	}
	if report != nil {
		report.Log(r.logger)
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

func (r *Runner) engineConfig() selector.Config {
	return selector.Config{
		BaseURL:          r.cfg.Site.BaseURL,
		Chain:            scraper.SelectorChain,
		Retries:          r.cfg.Crawl.MaxRetries,
		RecoveryAttempts: r.cfg.Crawl.MaxRecoveryAttempts,
		StepDelay:        r.cfg.Crawl.RequestDelay,
		SettleDelay:      r.cfg.Crawl.SettleDelay,
		WaitTimeout:      r.cfg.Crawl.WaitTimeout,
	}
}
