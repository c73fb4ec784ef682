package pipeline

import (
	"context"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schedule"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
)

// StatsDates returns the dates in [start, end] that either stats store still
// needs, given the columns the configured pages produce.
func StatsDates(dates []string, home, away snapshot.Set, pages []schema.Page) []string {
	return snapshot.Merge(
		snapshot.FindMissing(dates, home, schema.ExpectedColumns(pages, schema.Home)),
		snapshot.FindMissing(dates, away, schema.ExpectedColumns(pages, schema.Away)),
	)
}

// Stats merges every missing date in [start, end] and upserts the home and
// away tables. A date where no page succeeded is stored as failed. A date
// where only some pages succeeded is stored and counted as partial; the
// missing columns queue it again on the next run.
func (r *Runner) Stats(ctx context.Context, start, end time.Time) (StepSummary, error) {
	began := time.Now()
	sum := StepSummary{Step: StepStats}

	if r.engine == nil {
		return sum, errNoFetcher(StepStats)
	}
	dates, err := schedule.Range(start, end)
	if err != nil {
		return sum, err
	}

	home, err := r.stores.StatsHome.Load(ctx)
	if err != nil {
		return sum, err
	}
	away, err := r.stores.StatsAway.Load(ctx)
	if err != nil {
		return sum, err
	}
	r.logFailedKeys(storage.StatsHome, home)
	r.logFailedKeys(storage.StatsAway, away)

	missing := StatsDates(dates, home, away, r.engine.Pages())
	r.log.Info("stats dates to scrape", logger.Fields{
		"count": len(missing),
		"dates": missing,
	})

	for _, date := range missing {
		sum.Attempted++
		res, err := r.engine.MergeDate(ctx, date)
		if err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}

		if res.OK() {
			home.Upsert(date, r.complete(res.Home))
			away.Upsert(date, r.complete(res.Away))
			sum.Rows += res.Home.Len()
		} else {
			home.Upsert(date, r.failed())
			away.Upsert(date, r.failed())
			sum.Failed++
			r.log.Warn("no page merged", logger.Fields{"date": date, "skipped": len(res.Skipped)})
		}

		if err := r.stores.StatsHome.Save(ctx, home); err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if err := r.stores.StatsAway.Save(ctx, away); err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if res.OK() {
			sum.Saved++
			if len(res.Skipped) > 0 {
				sum.Partial++
			}
		}
		logger.IncrCounter("dates.saved")
		r.log.Info("stats date saved", logger.Fields{
			"date":    date,
			"teams":   res.Home.Len(),
			"fetched": len(res.Fetched),
			"skipped": len(res.Skipped),
		})
	}

	sum.Duration = time.Since(began)
	return sum, nil
}
