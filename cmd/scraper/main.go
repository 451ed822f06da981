package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/rvalero/motoparts-scraper/internal/browser"
	"github.com/rvalero/motoparts-scraper/internal/config"
	"github.com/rvalero/motoparts-scraper/internal/logging"
	"github.com/rvalero/motoparts-scraper/internal/run"
)

func main() {
	app := &cli.App{
		Name:  "motoparts-scraper",
		Usage: "crawl the motorcycle/scooter spare-part catalog into a resumable CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "landing page of the vendor site",
				EnvVars: []string{"SCRAPER_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    "output",
				Usage:   "path of the output CSV",
				EnvVars: []string{"SCRAPER_OUTPUT_FILE"},
			},
			&cli.StringFlag{
				Name:    "tasks",
				Usage:   "path of the task checkpoint CSV",
				EnvVars: []string{"SCRAPER_TASKS_FILE"},
			},
			&cli.StringFlag{
				Name:    "log",
				Usage:   "path of the append-only run log",
				EnvVars: []string{"SCRAPER_LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "resume-after-brand",
				Usage:   "skip every task up to and including the last task of this brand",
				EnvVars: []string{"SCRAPER_RESUME_AFTER_BRAND"},
			},
			&cli.BoolFlag{
				Name:    "fresh-start",
				Usage:   "back up and discard prior output before running",
				EnvVars: []string{"SCRAPER_FRESH_START"},
			},
			&cli.BoolFlag{
				Name:    "skip-enumeration",
				Usage:   "require and trust an existing task checkpoint",
				EnvVars: []string{"SCRAPER_SKIP_ENUMERATION"},
			},
			&cli.BoolFlag{
				Name:    "headless",
				Usage:   "run the browser headless",
				Value:   true,
				EnvVars: []string{"SCRAPER_HEADLESS"},
			},
		},
		Action: runScraper,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runScraper(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(c, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Files.Log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting motoparts scraper",
		"base_url", cfg.Site.BaseURL,
		"output", cfg.Files.Output,
		"fresh_start", cfg.Run.FreshStart,
		"skip_enumeration", cfg.Run.SkipEnumeration)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout

	b, err := browser.New(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}
	defer b.Close()

	stats, err := run.New(cfg, b).Run(ctx)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	logger.Info("exiting",
		"tasks_total", stats.TasksTotal,
		"products_persisted", stats.ProductsPersisted)
	return nil
}

func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("base-url") {
		cfg.Site.BaseURL = c.String("base-url")
	}
	if c.IsSet("output") {
		cfg.Files.Output = c.String("output")
	}
	if c.IsSet("tasks") {
		cfg.Files.Tasks = c.String("tasks")
	}
	if c.IsSet("log") {
		cfg.Files.Log = c.String("log")
	}
	if c.IsSet("resume-after-brand") {
		cfg.Run.ResumeAfterBrand = c.String("resume-after-brand")
	}
	if c.IsSet("fresh-start") {
		cfg.Run.FreshStart = c.Bool("fresh-start")
	}
	if c.IsSet("skip-enumeration") {
		cfg.Run.SkipEnumeration = c.Bool("skip-enumeration")
	}
	if c.IsSet("headless") {
		cfg.Browser.Headless = c.Bool("headless")
	}
}
