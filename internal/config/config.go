// Package config holds the importer configuration.
//
// Values are layered, later layers winning:
//
//  1. Defaults()
//  2. a JSON file named by -config (or BEAUTYWIZ_CONFIG)
//  3. BEAUTYWIZ_* environment variables
//  4. command-line flags
//
// Load also reads a .env file from the working directory when one exists;
// variables already set in the process environment are not overridden.
//
// For tests, prefer LoadFromArgs to keep them hermetic:
//
//	fs := flag.NewFlagSet("test", flag.ContinueOnError)
//	getenv := func(k string) string { return testEnv[k] }
//	cfg, err := config.LoadFromArgs(fs, getenv, []string{"-storage=postgres"})
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by LoadFromArgs.
const EnvPrefix = "BEAUTYWIZ_"

// Config is the full process configuration. It is a plain value and safe to
// copy once loaded.
type Config struct {
	// Job labels metrics and names the skip log file.
	Job string `json:"job"`

	Storage Storage `json:"storage"`
	Sources Sources `json:"sources"`
	CSV     CSV     `json:"csv"`
	HTTP    HTTP    `json:"http"`
	Metrics Metrics `json:"metrics"`

	// IdempotentFeeds fingerprints hazard and report rows so a re-run does
	// not duplicate them.
	IdempotentFeeds bool `json:"idempotent_feeds"`

	// SkippedDir receives a CSV of skipped rows; empty disables it.
	SkippedDir string `json:"skipped_dir"`

	// Reset recreates the schema before importing. Flag only.
	Reset bool `json:"-"`

	// Verbose enables extra logging. Flag only.
	Verbose bool `json:"-"`
}

// Storage selects the target database.
type Storage struct {
	Kind string `json:"kind"` // sqlite, postgres, mssql or mysql
	DSN  string `json:"dsn"`
}

// Sources are the three input feeds; each is a path or an http(s) URL.
type Sources struct {
	Catalog string `json:"catalog"`
	Hazards string `json:"hazards"`
	Reports string `json:"reports"`
}

// CSV controls how the feeds are parsed.
type CSV struct {
	Delimiter  string `json:"delimiter"`
	LazyQuotes bool   `json:"lazy_quotes"`
}

// HTTP controls fetching of remote feeds.
type HTTP struct {
	Timeout    Duration `json:"timeout"`
	MaxRetries int      `json:"max_retries"`
}

// Metrics selects a metrics backend.
type Metrics struct {
	Backend          string `json:"backend"` // none, pushgateway or datadog
	PushgatewayURL   string `json:"pushgateway_url"`
	DatadogAddr      string `json:"datadog_addr"`
	DatadogNamespace string `json:"datadog_namespace"`
}

// Duration is a time.Duration written as a string ("30s") in JSON.
type Duration time.Duration

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("duration: %s is neither a string nor an integer", b)
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Defaults returns the configuration used when nothing overrides it. The
// paths match the layout the catalog exports ship with.
func Defaults() Config {
	return Config{
		Job:     "beautywiz",
		Storage: Storage{Kind: "sqlite", DSN: "db/BeautyWiz.db"},
		Sources: Sources{
			Catalog: "data/cosmetic_p.csv",
			Hazards: "data/BeautyFeeds.csv",
			Reports: "data/cscpopendata.csv",
		},
		CSV:     CSV{Delimiter: ","},
		HTTP:    HTTP{Timeout: Duration(30 * time.Second), MaxRetries: 3},
		Metrics: Metrics{Backend: "none", PushgatewayURL: "http://localhost:9091", DatadogAddr: "127.0.0.1:8125"},
	}
}

// Load is the production entry point: it reads .env, then process flags and
// environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFromArgs(flag.CommandLine, os.Getenv, os.Args[1:])
}

// LoadFromArgs layers the JSON file, getenv and args over Defaults. Flags
// are defined on fs with the already layered values as defaults, so -help
// shows the effective configuration.
func LoadFromArgs(fs *flag.FlagSet, getenv func(string) string, args []string) (*Config, error) {
	cfg := Defaults()

	path := configPath(args, getenv(EnvPrefix+"CONFIG"))
	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}

	var ignored string
	fs.StringVar(&ignored, "config", path, "JSON config file")
	fs.StringVar(&cfg.Job, "job", cfg.Job, "job name for metrics and skip logs")
	fs.StringVar(&cfg.Storage.Kind, "storage", cfg.Storage.Kind, "storage kind: sqlite, postgres, mssql or mysql")
	fs.StringVar(&cfg.Storage.DSN, "dsn", cfg.Storage.DSN, "storage DSN (sqlite: file path)")
	fs.StringVar(&cfg.Sources.Catalog, "catalog", cfg.Sources.Catalog, "product catalog CSV path or URL")
	fs.StringVar(&cfg.Sources.Hazards, "hazards", cfg.Sources.Hazards, "ingredient hazard CSV path or URL")
	fs.StringVar(&cfg.Sources.Reports, "reports", cfg.Sources.Reports, "chemical report CSV path or URL")
	fs.StringVar(&cfg.CSV.Delimiter, "delimiter", cfg.CSV.Delimiter, "CSV field delimiter")
	fs.BoolVar(&cfg.CSV.LazyQuotes, "lazy-quotes", cfg.CSV.LazyQuotes, "tolerate stray quotes in CSV input")
	fs.DurationVar((*time.Duration)(&cfg.HTTP.Timeout), "http-timeout", time.Duration(cfg.HTTP.Timeout), "timeout per HTTP attempt")
	fs.IntVar(&cfg.HTTP.MaxRetries, "http-retries", cfg.HTTP.MaxRetries, "retries for transient HTTP failures")
	fs.BoolVar(&cfg.IdempotentFeeds, "idempotent-feeds", cfg.IdempotentFeeds, "skip hazard and report rows already loaded")
	fs.StringVar(&cfg.SkippedDir, "skipped-dir", cfg.SkippedDir, "directory for skipped-row CSV logs (empty disables)")
	fs.StringVar(&cfg.Metrics.Backend, "metrics-backend", cfg.Metrics.Backend, "metrics backend: none, pushgateway or datadog")
	fs.StringVar(&cfg.Metrics.PushgatewayURL, "pushgateway-url", cfg.Metrics.PushgatewayURL, "Pushgateway base URL")
	fs.StringVar(&cfg.Metrics.DatadogAddr, "datadog-addr", cfg.Metrics.DatadogAddr, "DogStatsD address")
	fs.StringVar(&cfg.Metrics.DatadogNamespace, "datadog-namespace", cfg.Metrics.DatadogNamespace, "prefix for Datadog metric names")
	fs.BoolVar(&cfg.Reset, "reset", false, "drop and recreate the schema before importing")
	fs.BoolVar(&cfg.Verbose, "v", false, "enable verbose logs")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// configPath finds -config in args before the flag set is parsed.
func configPath(args []string, env string) string {
	path := env
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			break
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !strings.HasPrefix(a, "-") || name != "config" {
			continue
		}
		if hasValue {
			path = value
		} else if i+1 < len(args) {
			path = args[i+1]
			i++
		}
	}
	return path
}

func readFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	str("JOB", &cfg.Job)
	str("STORAGE_KIND", &cfg.Storage.Kind)
	str("DSN", &cfg.Storage.DSN)
	str("CATALOG_CSV", &cfg.Sources.Catalog)
	str("HAZARDS_CSV", &cfg.Sources.Hazards)
	str("REPORTS_CSV", &cfg.Sources.Reports)
	str("CSV_DELIMITER", &cfg.CSV.Delimiter)
	str("SKIPPED_DIR", &cfg.SkippedDir)
	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)
	str("DATADOG_ADDR", &cfg.Metrics.DatadogAddr)
	str("DATADOG_NAMESPACE", &cfg.Metrics.DatadogNamespace)

	for key, dst := range map[string]*bool{
		"CSV_LAZY_QUOTES":  &cfg.CSV.LazyQuotes,
		"IDEMPOTENT_FEEDS": &cfg.IdempotentFeeds,
	} {
		v := getenv(EnvPrefix + key)
		if v == "" {
			continue
		}
		b, ok := parseBool(v)
		if !ok {
			return fmt.Errorf("config: %s%s=%q is not a boolean", EnvPrefix, key, v)
		}
		*dst = b
	}

	if v := getenv(EnvPrefix + "HTTP_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sHTTP_RETRIES: %w", EnvPrefix, err)
		}
		cfg.HTTP.MaxRetries = n
	}
	if v := getenv(EnvPrefix + "HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sHTTP_TIMEOUT: %w", EnvPrefix, err)
		}
		cfg.HTTP.Timeout = Duration(d)
	}
	return nil
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}

// Comma returns the CSV delimiter as a rune, or 0 when unset.
func (c CSV) Comma() rune {
	r := []rune(c.Delimiter)
	if len(r) == 0 {
		return 0
	}
	if c.Delimiter == `\t` {
		return '\t'
	}
	return r[0]
}
