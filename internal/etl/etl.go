// Package etl runs the catalog import against a storage.Store.
//
// Phases run in a fixed order and each one commits before the next starts:
//
//	schema (optional) -> products -> ingredients -> links -> hazards -> reports
//
// A failing phase stops the run; rows committed by earlier phases stay.
// Ingredient and link phases are safe to re-run. Hazard and report phases
// append unless Options.IdempotentFeeds is set.
package etl

import (
	"context"
	"fmt"
	"log"
	"time"

	"beautywiz/internal/catalog"
	"beautywiz/internal/ingredient"
	"beautywiz/internal/metrics"
	"beautywiz/internal/skiplog"
	"beautywiz/internal/source"
	"beautywiz/internal/storage"
)

// Phase names, also used as metric and skip log labels.
const (
	PhaseSchema      = "schema"
	PhaseProducts    = "products"
	PhaseIngredients = "ingredients"
	PhaseLinks       = "links"
	PhaseHazards     = "hazards"
	PhaseReports     = "reports"
)

// DefaultJob labels metrics when Options.Job is empty.
const DefaultJob = "beautywiz"

// Options configures Run.
type Options struct {
	// Job labels metrics.
	Job string

	// ResetSchema drops and recreates the tables before loading.
	ResetSchema bool

	// IdempotentFeeds fingerprints hazard and report rows so reloading the
	// same feed does not add duplicates.
	IdempotentFeeds bool

	// Skips receives row-level skips; nil discards them.
	Skips *skiplog.Log
}

// PhaseResult summarizes one phase. Read, Written and Skipped are in the
// phase's own unit: catalog rows, distinct names, stored products, or feed
// rows.
type PhaseResult struct {
	Name     string
	Read     int64
	Written  int64
	Skipped  int64
	Duration time.Duration

	// SkipReason is set when the whole phase was skipped.
	SkipReason string
}

// Summary is the outcome of Run.
type Summary struct {
	Phases   []PhaseResult
	Counts   catalog.Counts
	Duration time.Duration
}

// Phase returns the result of the named phase.
func (s Summary) Phase(name string) (PhaseResult, bool) {
	for _, p := range s.Phases {
		if p.Name == name {
			return p, true
		}
	}
	return PhaseResult{}, false
}

type runner struct {
	st    storage.Store
	src   *source.Sources
	opt   Options
	index ingredient.Index
}

type phase struct {
	name string
	run  func(context.Context) (PhaseResult, error)
}

// Run loads src into st. On error the returned Summary holds the phases
// that ran, including the failed one.
func Run(ctx context.Context, st storage.Store, src *source.Sources, opt Options) (Summary, error) {
	if st == nil || src == nil {
		return Summary{}, fmt.Errorf("etl: store and sources are required")
	}
	if opt.Job == "" {
		opt.Job = DefaultJob
	}
	r := &runner{st: st, src: src, opt: opt}

	var phases []phase
	if opt.ResetSchema {
		phases = append(phases, phase{PhaseSchema, r.resetSchema})
	}
	phases = append(phases,
		phase{PhaseProducts, r.loadProducts},
		phase{PhaseIngredients, r.resolveIngredients},
		phase{PhaseLinks, r.linkProducts},
		phase{PhaseHazards, r.loadHazards},
		phase{PhaseReports, r.loadReports},
	)

	start := time.Now()
	var sum Summary
	for _, p := range phases {
		res, err := r.timed(ctx, p)
		sum.Phases = append(sum.Phases, res)
		if err != nil {
			sum.Duration = time.Since(start)
			return sum, fmt.Errorf("etl: %s: %w", p.name, err)
		}
	}

	counts, err := st.Counts(ctx)
	if err != nil {
		return sum, fmt.Errorf("etl: counts: %w", err)
	}
	sum.Counts = counts
	sum.Duration = time.Since(start)
	log.Printf("etl: done products=%d ingredients=%d links=%d hazards=%d reports=%d elapsed=%s",
		counts.Products, counts.Ingredients, counts.ProductIngredients,
		counts.IngredientHazards, counts.ChemicalReports, sum.Duration.Truncate(time.Millisecond))
	return sum, nil
}

func (r *runner) timed(ctx context.Context, p phase) (PhaseResult, error) {
	start := time.Now()
	res, err := p.run(ctx)
	res.Name = p.name
	res.Duration = time.Since(start)

	metrics.RecordPhase(r.opt.Job, p.name, res.SkipReason != "", err, res.Duration)
	metrics.RecordRows(r.opt.Job, p.name, "read", res.Read)
	metrics.RecordRows(r.opt.Job, p.name, "written", res.Written)
	metrics.RecordRows(r.opt.Job, p.name, "skipped", res.Skipped)

	switch {
	case err != nil:
		log.Printf("etl: phase=%s failed after %s: %v", p.name, res.Duration.Truncate(time.Millisecond), err)
	case res.SkipReason != "":
		log.Printf("warning: etl: phase=%s skipped: %s", p.name, res.SkipReason)
	default:
		log.Printf("etl: phase=%s read=%d written=%d skipped=%d elapsed=%s",
			p.name, res.Read, res.Written, res.Skipped, res.Duration.Truncate(time.Millisecond))
	}
	return res, err
}

func (r *runner) skip(phase, reason string, line int, value string) {
	r.opt.Skips.Add(phase, reason, line, value)
}
