package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Site    SiteConfig
	Files   FilesConfig
	Run     RunConfig
	Crawl   CrawlConfig
	Browser BrowserConfig
	Logging LoggingConfig
}

type SiteConfig struct {
	BaseURL string
}

type FilesConfig struct {
	Output string
	Tasks  string
	Log    string
}

type RunConfig struct {
	// ResumeAfterBrand truncates the task list to everything strictly
	// after the last task of the named brand. Empty disables it.
	ResumeAfterBrand string
	// FreshStart backs up and discards prior output before running.
	FreshStart bool
	// SkipEnumeration requires and trusts an existing task checkpoint.
	SkipEnumeration bool
}

type CrawlConfig struct {
	MaxRetries          int
	MaxRecoveryAttempts int
	RequestDelay        time.Duration
	SettleDelay         time.Duration
	TaskPause           time.Duration
	WaitTimeout         time.Duration
}

type BrowserConfig struct {
	Headless bool
	Timeout  time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Site: SiteConfig{
			BaseURL: getEnv("SCRAPER_BASE_URL", "https://www.euromoto85.com"),
		},
		Files: FilesConfig{
			Output: getEnv("SCRAPER_OUTPUT_FILE", "motoparts_catalog.csv"),
			Tasks:  getEnv("SCRAPER_TASKS_FILE", "motoparts_tasks.csv"),
			Log:    getEnv("SCRAPER_LOG_FILE", "scraper_log.txt"),
		},
		Run: RunConfig{
			ResumeAfterBrand: getEnv("SCRAPER_RESUME_AFTER_BRAND", ""),
			FreshStart:       getEnvBool("SCRAPER_FRESH_START", false),
			SkipEnumeration:  getEnvBool("SCRAPER_SKIP_ENUMERATION", false),
		},
		Crawl: CrawlConfig{
			MaxRetries:          getEnvInt("SCRAPER_MAX_RETRIES", 3),
			MaxRecoveryAttempts: getEnvInt("SCRAPER_MAX_RECOVERY_ATTEMPTS", 3),
			RequestDelay:        getEnvDuration("SCRAPER_REQUEST_DELAY", 2*time.Second),
			SettleDelay:         getEnvDuration("SCRAPER_SETTLE_DELAY", 3*time.Second),
			TaskPause:           getEnvDuration("SCRAPER_TASK_PAUSE", 3*time.Second),
			WaitTimeout:         getEnvDuration("SCRAPER_WAIT_TIMEOUT", 20*time.Second),
		},
		Browser: BrowserConfig{
			Headless: getEnvBool("SCRAPER_HEADLESS", true),
			Timeout:  getEnvDuration("SCRAPER_BROWSER_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	if c.Files.Output == "" {
		return fmt.Errorf("output file path is required")
	}
	if c.Files.Tasks == "" {
		return fmt.Errorf("tasks file path is required")
	}
	if c.Crawl.MaxRetries < 1 {
		return fmt.Errorf("SCRAPER_MAX_RETRIES must be at least 1")
	}
	if c.Crawl.MaxRecoveryAttempts < 1 {
		return fmt.Errorf("SCRAPER_MAX_RECOVERY_ATTEMPTS must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
