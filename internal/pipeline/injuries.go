package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schedule"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// InjuryDates returns the dates to fetch: every day after start through end
// without a complete entry, plus today, whose report changes until tip-off.
func InjuryDates(start, end, now time.Time, stored snapshot.Set) ([]string, error) {
	today := []string{schedule.Format(schedule.Day(now))}
	first := schedule.Day(start).AddDate(0, 0, 1)
	if schedule.Day(end).Before(first) {
		return today, nil
	}
	dates, err := schedule.Range(first, end)
	if err != nil {
		return nil, err
	}
	return snapshot.Merge(snapshot.FindMissing(dates, stored, nil), today), nil
}

// InjuriesTable converts injury reports to rows
func InjuriesTable(injuries []scraper.Injury) table.Table {
	out := table.New(InjuryColumns...)
	for _, in := range injuries {
		// seven values for seven columns
		_ = out.AddRow(
			table.Value(strconv.Itoa(in.MatchupID)),
			optional(in.Team),
			optional(in.Player),
			optional(in.Position),
			optional(in.Status),
			optional(in.Date),
			optional(in.Note),
		)
	}
	return out
}

// Injuries fetches the injury reports of every matchup on each selected date
// and stores them as one table per date.
func (r *Runner) Injuries(ctx context.Context, start, end time.Time) (StepSummary, error) {
	began := time.Now()
	sum := StepSummary{Step: StepInjuries}

	if r.injuries == nil {
		return sum, errNoFetcher(StepInjuries)
	}
	stored, err := r.stores.Injuries.Load(ctx)
	if err != nil {
		return sum, err
	}
	r.logFailedKeys(r.stores.Injuries.Name(), stored)

	dates, err := InjuryDates(start, end, r.now(), stored)
	if err != nil {
		return sum, err
	}
	r.log.Info("injury dates to scrape", logger.Fields{"count": len(dates), "dates": dates})

	for _, date := range dates {
		sum.Attempted++
		rows, failures, ok, err := r.injuryDay(ctx, date)
		if err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if ok {
			stored.Upsert(date, r.complete(rows))
			sum.Rows += rows.Len()
		} else {
			stored.Upsert(date, r.failed())
			sum.Failed++
		}

		if err := r.stores.Injuries.Save(ctx, stored); err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if ok {
			sum.Saved++
			if failures > 0 {
				sum.Partial++
			}
		}
		logger.IncrCounter("dates.saved")
	}

	sum.Duration = time.Since(began)
	return sum, nil
}

// injuryDay fetches every matchup of date and reports how many failed. ok is
// false when the matchup list failed or every listed matchup failed.
func (r *Runner) injuryDay(ctx context.Context, date string) (table.Table, int, bool, error) {
	ids, err := r.injuries.FetchMatchupIDs(ctx, date)
	if err != nil {
		if r.itemError(StepInjuries, date, err) {
			return table.Table{}, 0, false, err
		}
		return table.Table{}, 0, false, nil
	}

	var reports []scraper.Injury
	failures := 0
	for _, id := range ids {
		injuries, err := r.injuries.FetchInjuries(ctx, id)
		if err != nil {
			if r.itemError(StepInjuries, date+"/"+strconv.Itoa(id), err) {
				return table.Table{}, 0, false, err
			}
			failures++
			continue
		}
		reports = append(reports, injuries...)
	}

	r.log.Info("injuries fetched", logger.Fields{
		"date":     date,
		"matchups": len(ids),
		"failed":   failures,
		"players":  len(reports),
	})
	if len(ids) > 0 && failures == len(ids) {
		return table.Table{}, failures, false, nil
	}
	return InjuriesTable(reports), failures, true, nil
}
