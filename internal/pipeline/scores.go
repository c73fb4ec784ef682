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

// ScoreDates returns the game days to fetch. Game days run from the day after
// start through end. A day is fetched when it is missing or failed, or when
// its last fetch happened on or before the game day, since scores were not
// final then. Today and tomorrow are always fetched.
func ScoreDates(start, end, now time.Time, days snapshot.Set) ([]string, error) {
	today := schedule.Day(now)
	always := []string{schedule.Format(today), schedule.Format(today.AddDate(0, 0, 1))}

	first := schedule.Day(start).AddDate(0, 0, 1)
	if schedule.Day(end).Before(first) {
		return always, nil
	}
	targets, err := schedule.Range(first, end)
	if err != nil {
		return nil, err
	}

	unsettled := make([]string, 0)
	for _, d := range targets {
		e, ok := days[d]
		if !ok || e.IsFailed() {
			continue
		}
		if schedule.Format(schedule.Day(e.FetchedAt)) <= d {
			unsettled = append(unsettled, d)
		}
	}

	return snapshot.Merge(snapshot.FindMissing(targets, days, nil), unsettled, always), nil
}

// GamesTable converts parsed games to score rows. Unlinked team names and
// unposted scores become nulls.
func GamesTable(games []scraper.Game) (table.Table, error) {
	out := table.New(ScoreColumns...)
	for _, g := range games {
		dateStat, err := schedule.PreviousDay(g.Date)
		if err != nil {
			return out, err
		}
		if err := out.AddRow(
			table.Value(g.Date),
			table.Value(dateStat),
			optional(g.HomeTeam),
			score(g.HomeScore),
			optional(g.AwayTeam),
			score(g.AwayScore),
		); err != nil {
			return out, err
		}
	}
	return out, nil
}

func optional(s string) table.Cell {
	if s == "" {
		return table.Null()
	}
	return table.Value(s)
}

func score(n *int) table.Cell {
	if n == nil {
		return table.Null()
	}
	return table.Value(strconv.Itoa(*n))
}

// Scores fetches boxscores for every day ScoreDates selects, filters out
// other competitions, and appends the games to the cumulative table.
// Newly fetched rows replace stored rows with the same natural key.
func (r *Runner) Scores(ctx context.Context, start, end time.Time) (StepSummary, error) {
	began := time.Now()
	sum := StepSummary{Step: StepScores}

	if r.boxscores == nil {
		return sum, errNoFetcher(StepScores)
	}
	book, err := r.stores.LoadScores(ctx)
	if err != nil {
		return sum, err
	}
	r.logFailedKeys(r.stores.Scores.Name(), book.Days)

	dates, err := ScoreDates(start, end, r.now(), book.Days)
	if err != nil {
		return sum, err
	}
	r.log.Info("score dates to scrape", logger.Fields{"count": len(dates), "dates": dates})

	for _, date := range dates {
		if err := ctx.Err(); err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		sum.Attempted++

		day, err := schedule.ParseDate(date)
		if err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}

		rows, ok, err := r.scoreDay(ctx, date, day)
		if err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if ok {
			book.Games = table.Append(book.Games, rows, ScoreKey...)
			book.Days.Upsert(date, r.complete(rows))
			sum.Rows += rows.Len()
		} else {
			book.Days.Upsert(date, r.failed())
			sum.Failed++
		}

		if err := r.stores.Scores.Save(ctx, book); err != nil {
			sum.Duration = time.Since(began)
			return sum, err
		}
		if ok {
			sum.Saved++
		}
		logger.IncrCounter("dates.saved")
	}

	r.log.Info("score table updated", logger.Fields{
		"games": book.Games.Len(),
		"days":  len(book.Days),
	})
	sum.Duration = time.Since(began)
	return sum, nil
}

// scoreDay fetches and filters one day's games. ok is false when the page
// could not be fetched; err is set only for errors that end the step.
func (r *Runner) scoreDay(ctx context.Context, date string, day time.Time) (rows table.Table, ok bool, err error) {
	games, skipped, err := r.boxscores.FetchBoxscores(ctx, day)
	if err != nil {
		if r.itemError(StepScores, date, err) {
			return rows, false, err
		}
		return rows, false, nil
	}
	for _, s := range skipped {
		r.log.Debug("boxscore entry skipped", logger.Fields{"date": date, "tier": "parse", "error": s.Error()})
	}

	kept, dropped := r.filter.Apply(games)
	logger.AddCounter("games.filtered", int64(dropped))

	rows, err = GamesTable(kept)
	if err != nil {
		r.itemError(StepScores, date, err)
		return rows, false, nil
	}
	rows = rows.DropNullKeys(ScoreKey...).DedupFirst(ScoreKey...)
	r.log.Info("scores fetched", logger.Fields{
		"date":     date,
		"games":    rows.Len(),
		"filtered": dropped,
		"skipped":  len(skipped),
	})
	return rows, true, nil
}
