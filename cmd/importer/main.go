// Command importer loads the product catalog, hazard feed and chemical
// report feed into the configured store.
//
// main stays small: configuration and metrics are wired here and the work
// happens in run, whose side effects are injected through Deps.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"beautywiz/internal/config"
	"beautywiz/internal/datasource/httpds"
	"beautywiz/internal/etl"
	"beautywiz/internal/metrics"
	"beautywiz/internal/metrics/datadog"
	"beautywiz/internal/metrics/prompush"
	"beautywiz/internal/parser/csv"
	"beautywiz/internal/skiplog"
	"beautywiz/internal/source"
	"beautywiz/internal/storage"

	// register all backends with the storage factory.
	_ "beautywiz/internal/storage/all"
)

// Deps holds the boundaries run crosses so tests can replace them.
type Deps struct {
	LoadSources func(ctx context.Context, loc source.Locations, opt source.Options) (*source.Sources, error)
	OpenStore   func(ctx context.Context, cfg storage.Config) (storage.Store, error)
	Import      func(ctx context.Context, st storage.Store, src *source.Sources, opt etl.Options) (etl.Summary, error)
}

func defaultDeps() Deps {
	return Deps{
		LoadSources: source.Load,
		OpenStore:   storage.New,
		Import:      etl.Run,
	}
}

// run reads the feeds, opens the store and runs the import. Feeds are read
// first so a missing input fails before the store is touched.
func run(ctx context.Context, cfg *config.Config, deps Deps) (etl.Summary, error) {
	client := httpds.NewClient(httpds.Config{
		Timeout:    time.Duration(cfg.HTTP.Timeout),
		MaxRetries: cfg.HTTP.MaxRetries,
	})
	src, err := deps.LoadSources(ctx,
		source.Locations{Catalog: cfg.Sources.Catalog, Hazards: cfg.Sources.Hazards, Reports: cfg.Sources.Reports},
		source.Options{CSV: csv.Options{Comma: cfg.CSV.Comma(), LazyQuotes: cfg.CSV.LazyQuotes}, HTTP: client},
	)
	if err != nil {
		return etl.Summary{}, fmt.Errorf("load sources: %w", err)
	}

	st, err := deps.OpenStore(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return etl.Summary{}, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var skips *skiplog.Log
	if cfg.SkippedDir != "" {
		skips, err = skiplog.Open(filepath.Join(cfg.SkippedDir, cfg.Job+"_skipped.csv"))
		if err != nil {
			return etl.Summary{}, err
		}
		defer func() {
			if err := skips.Close(); err != nil {
				log.Printf("skiplog: close: %v", err)
			}
		}()
	}

	return deps.Import(ctx, st, src, etl.Options{
		Job:             cfg.Job,
		ResetSchema:     cfg.Reset,
		IdempotentFeeds: cfg.IdempotentFeeds,
		Skips:           skips,
	})
}

// setupMetrics installs the configured backend. The returned func flushes
// it and is safe to call when metrics are disabled.
func setupMetrics(cfg *config.Config) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case "pushgateway":
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.DatadogNamespace,
			GlobalTags: []string{"job:" + cfg.Job},
		})
	case "", "none":
		if cfg.Verbose {
			log.Printf("metrics: disabled")
		}
		return func() {}
	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.Metrics.Backend)
		return func() {}
	}
	if err != nil {
		log.Printf("metrics: init %s backend: %v; using nop", cfg.Metrics.Backend, err)
		return func() {}
	}

	log.Printf("metrics: backend=%s job=%s", cfg.Metrics.Backend, cfg.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func main() {
	validate := flag.Bool("validate", false, "validate the configuration and exit")

	cfg, err := config.Load()
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid")
	}
	if *validate {
		log.Printf("configuration is valid")
		return
	}

	if cfg.Verbose {
		log.Printf("importer: storage=%s catalog=%s hazards=%s reports=%s reset=%t idempotent_feeds=%t",
			cfg.Storage.Kind, cfg.Sources.Catalog, cfg.Sources.Hazards, cfg.Sources.Reports, cfg.Reset, cfg.IdempotentFeeds)
	}

	flush := setupMetrics(cfg)
	sum, err := run(context.Background(), cfg, defaultDeps())
	flush()
	if err != nil {
		log.Fatalf("importer: %v", err)
	}

	for _, p := range sum.Phases {
		if p.SkipReason != "" {
			fmt.Printf("%-12s skipped: %s\n", p.Name, p.SkipReason)
			continue
		}
		fmt.Printf("%-12s read=%d written=%d skipped=%d\n", p.Name, p.Read, p.Written, p.Skipped)
	}
	fmt.Printf("loaded %d products, %d ingredients, %d links, %d hazards, %d reports in %s\n",
		sum.Counts.Products, sum.Counts.Ingredients, sum.Counts.ProductIngredients,
		sum.Counts.IngredientHazards, sum.Counts.ChemicalReports, sum.Duration.Truncate(time.Millisecond))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
