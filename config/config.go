/*
Package config loads server configuration from the environment.

PURPOSE:
  Collects every tunable of cmd/server in one struct. Values come from
  environment variables, optionally seeded from a .env file. Command-line
  flags in cmd/server override what is loaded here.

VARIABLES:
  PAY_PORT                   HTTP port (default 8080)
  PAY_DB                     SQLite path (default ./pay.db)
  PAY_LOG_LEVEL              debug | info | warn | error (default info)
  PAY_LOG_FORMAT             json | text (default json)
  PAY_TIMEZONE               Default zone for period endpoints (default UTC)
  PAY_WEEK_START             First day of pay weeks (default monday)
  PAY_BATCH_LIMIT            Concurrent calculations per summary (default 8)
  PAY_GUIDES_DIR             Directory of .json/.yaml guides loaded at start
  PAY_PRESETS                Comma-separated award presets to seed
  PAY_PRESET_BASE_RATE       Base rate for seeded presets (default 25.00)
  PAY_PRESET_FY              Financial year start for presets (default: current)
  PAY_HOLIDAY_SYNC           Enable the holiday sync scheduler (default false)
  PAY_HOLIDAY_SYNC_INTERVAL  Go duration between syncs (default 24h)
  PAY_CORS_ORIGINS           Comma-separated allowed origins
  PAY_SHUTDOWN_TIMEOUT       Graceful shutdown limit (default 30s)

SEE ALSO:
  - cmd/server/main.go: flag overrides and startup
  - logging.go: slog handler construction
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/payroll"
)

// Config holds the server's runtime configuration.
type Config struct {
	Port      int
	DBPath    string
	LogLevel  string
	LogFormat string

	Timezone   string
	WeekStart  time.Weekday
	BatchLimit int

	GuidesDir      string
	Presets        []string
	PresetBaseRate string
	PresetFYStart  int

	HolidaySync         bool
	HolidaySyncInterval time.Duration

	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads envFile (or ./.env when envFile is empty and it exists) into
// the process environment, then builds and validates a Config. Variables
// already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup, applies defaults, and
// validates.
func FromEnv(getenv func(string) string) (*Config, error) {
	var problems []string
	cfg := &Config{
		DBPath:         getenv("PAY_DB"),
		LogLevel:       strings.ToLower(getenv("PAY_LOG_LEVEL")),
		LogFormat:      strings.ToLower(getenv("PAY_LOG_FORMAT")),
		Timezone:       getenv("PAY_TIMEZONE"),
		GuidesDir:      getenv("PAY_GUIDES_DIR"),
		Presets:        splitList(getenv("PAY_PRESETS")),
		PresetBaseRate: getenv("PAY_PRESET_BASE_RATE"),
		CORSOrigins:    splitList(getenv("PAY_CORS_ORIGINS")),
		WeekStart:      time.Monday,
	}

	intVar := func(name string, dst *int) {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
				return
			}
			*dst = n
		}
	}
	durationVar := func(name string, dst *time.Duration) {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
				return
			}
			*dst = d
		}
	}

	intVar("PAY_PORT", &cfg.Port)
	intVar("PAY_BATCH_LIMIT", &cfg.BatchLimit)
	intVar("PAY_PRESET_FY", &cfg.PresetFYStart)
	durationVar("PAY_HOLIDAY_SYNC_INTERVAL", &cfg.HolidaySyncInterval)
	durationVar("PAY_SHUTDOWN_TIMEOUT", &cfg.ShutdownTimeout)

	if v := getenv("PAY_HOLIDAY_SYNC"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("PAY_HOLIDAY_SYNC: %v", err))
		}
		cfg.HolidaySync = b
	}
	if v := getenv("PAY_WEEK_START"); v != "" {
		d, err := payroll.ParseWeekday(v)
		if err != nil {
			problems = append(problems, fmt.Sprintf("PAY_WEEK_START: %v", err))
		}
		cfg.WeekStart = d
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	cfg.applyDefaults(time.Now())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(now time.Time) {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DBPath == "" {
		c.DBPath = "./pay.db"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = 8
	}
	if c.PresetBaseRate == "" {
		c.PresetBaseRate = "25.00"
	}
	if c.PresetFYStart == 0 {
		c.PresetFYStart = financialYearStart(now)
	}
	if c.HolidaySyncInterval == 0 {
		c.HolidaySyncInterval = 24 * time.Hour
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.Port < 1 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range", c.Port))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("unknown log level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("unknown log format %q", c.LogFormat))
	}
	if _, err := payroll.LoadZone(c.Timezone); err != nil {
		problems = append(problems, err.Error())
	}
	if c.BatchLimit < 0 {
		problems = append(problems, "batch limit must not be negative")
	}
	if rate, err := decimal.NewFromString(c.PresetBaseRate); err != nil || !rate.IsPositive() {
		problems = append(problems, fmt.Sprintf("preset base rate %q must be a positive decimal", c.PresetBaseRate))
	}
	known := make(map[string]bool)
	for _, n := range awards.PresetNames() {
		known[n] = true
	}
	for _, p := range c.Presets {
		if !known[p] {
			problems = append(problems, fmt.Sprintf("unknown preset %q (have %s)", p, strings.Join(awards.PresetNames(), ", ")))
		}
	}
	if c.HolidaySyncInterval < time.Minute {
		problems = append(problems, "holiday sync interval must be at least 1m")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// financialYearStart is the calendar year in which the Australian financial
// year containing now began.
func financialYearStart(now time.Time) int {
	if now.Month() >= time.July {
		return now.Year()
	}
	return now.Year() - 1
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
