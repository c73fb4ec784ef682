// Package pipeline drives the three scrape steps. Each step computes the keys
// it still needs, fetches them one at a time, and saves the affected store
// after every key so an interrupted run loses at most the key in flight.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/fault"
	"github.com/pfrederiksen/ncaabb-scrape/internal/filter"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/merge"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// Step names
const (
	StepStats    = "stats"
	StepScores   = "scores"
	StepInjuries = "injuries"
)

// BoxscoreFetcher lists the games of one day
type BoxscoreFetcher interface {
	FetchBoxscores(ctx context.Context, day time.Time) ([]scraper.Game, []error, error)
}

// InjuryFetcher lists matchups and their injury reports
type InjuryFetcher interface {
	FetchMatchupIDs(ctx context.Context, date string) ([]int, error)
	FetchInjuries(ctx context.Context, matchupID int) ([]scraper.Injury, error)
}

// Config wires a Runner
type Config struct {
	Engine    *merge.Engine
	Boxscores BoxscoreFetcher
	Injuries  InjuryFetcher
	Filter    *filter.Competition
	Stores    *Stores
	Logger    *logger.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// Runner executes scrape steps against the stores
type Runner struct {
	engine    *merge.Engine
	boxscores BoxscoreFetcher
	injuries  InjuryFetcher
	filter    *filter.Competition
	stores    *Stores
	log       *logger.Logger
	now       func() time.Time
}

// New creates a Runner. Stores is required; each step also needs its fetcher.
func New(cfg Config) (*Runner, error) {
	if cfg.Stores == nil {
		return nil, fmt.Errorf("pipeline needs stores")
	}
	r := &Runner{
		engine:    cfg.Engine,
		boxscores: cfg.Boxscores,
		injuries:  cfg.Injuries,
		filter:    cfg.Filter,
		stores:    cfg.Stores,
		log:       cfg.Logger,
		now:       cfg.Now,
	}
	if r.filter == nil {
		r.filter = filter.NewCompetition(filter.DefaultExcludeTokens)
	}
	if r.log == nil {
		r.log = logger.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// StepSummary reports what one step did
type StepSummary struct {
	Step      string        `json:"step"`
	Attempted int           `json:"attempted"`
	Saved     int           `json:"saved"`
	Partial   int           `json:"partial"`
	Failed    int           `json:"failed"`
	Rows      int           `json:"rows"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
}

// OK reports whether the step ran to the end with every key fetched in full.
// Partial keys were saved, but some of their sources failed.
func (s StepSummary) OK() bool {
	return s.Err == nil && s.Failed == 0 && s.Partial == 0
}

// Summary collects the step summaries of a full run
type Summary struct {
	Steps []StepSummary `json:"steps"`
}

// Run executes stats, scores and injuries in order. A fatal error stops the
// run; the summary holds every step that started.
func (r *Runner) Run(ctx context.Context, start, end time.Time) (Summary, error) {
	var sum Summary
	steps := []struct {
		name string
		fn   func(context.Context, time.Time, time.Time) (StepSummary, error)
	}{
		{StepStats, r.Stats},
		{StepScores, r.Scores},
		{StepInjuries, r.Injuries},
	}

	for _, step := range steps {
		r.log.Info("step starting", logger.Fields{"step": step.name})
		s, err := step.fn(ctx, start, end)
		s.Err = err
		sum.Steps = append(sum.Steps, s)
		if err != nil {
			r.log.Error("step aborted", logger.Fields{
				"step": step.name,
				"tier": string(fault.Classify(err)),
			}, err)
			return sum, fmt.Errorf("%s step: %w", step.name, err)
		}
		r.log.Info("step finished", logger.Fields{
			"step":      step.name,
			"attempted": s.Attempted,
			"saved":     s.Saved,
			"partial":   s.Partial,
			"failed":    s.Failed,
			"duration":  s.Duration.String(),
		})
	}
	return sum, nil
}

// complete stamps a fetched table with the runner's clock
func (r *Runner) complete(t table.Table) snapshot.Entry {
	e := snapshot.Complete(t)
	e.FetchedAt = r.now()
	return e
}

func (r *Runner) failed() snapshot.Entry {
	e := snapshot.Failed()
	e.FetchedAt = r.now()
	return e
}

// logFailedKeys prints the keys a previous run could not fetch
func (r *Runner) logFailedKeys(store string, s snapshot.Set) {
	keys := s.FailedKeys()
	fields := logger.Fields{"store": store, "failed": len(keys)}
	if len(keys) > 0 {
		fields["keys"] = keys
	}
	r.log.Info("stored failures", fields)
}

// itemError logs a non-fatal error for one key and reports whether the
// step must stop instead.
func (r *Runner) itemError(step, key string, err error) bool {
	tier := fault.Classify(err)
	if fault.Fatal(err) {
		return true
	}
	r.log.Warn("fetch failed", logger.Fields{
		"step":  step,
		"key":   key,
		"tier":  string(tier),
		"error": err.Error(),
	})
	logger.IncrCounter(step + ".failed")
	return false
}

func errNoFetcher(step string) error {
	return fmt.Errorf("%s step has no fetcher configured", step)
}
