// Package merge combines the stat and rating pages scraped for one date into
// a home-oriented and an away-oriented wide table keyed on (Date, Team).
//
// Pages are left-joined in schema order onto a running accumulator; the first
// page that yields a usable table seeds it. A page that fails or lacks a Team
// column is skipped for that date, so one bad page never costs the other
// pages' columns.
package merge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/fault"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// PageFetcher retrieves one stat or rating page as of a date
type PageFetcher interface {
	FetchPage(ctx context.Context, page schema.Page, date string) (table.Table, error)
}

// Skip records a page left out of a date's merge
type Skip struct {
	Page string
	Err  error
}

// Result is the merged output for one date
type Result struct {
	Date    string
	Home    table.Table
	Away    table.Table
	Fetched []string
	Skipped []Skip
}

// OK reports whether at least one page contributed
func (r Result) OK() bool {
	return len(r.Fetched) > 0
}

// Complete reports whether every one of pages contributed
func (r Result) Complete(pages []schema.Page) bool {
	return len(r.Skipped) == 0 && len(r.Fetched) == len(pages)
}

// Engine merges pages for a date
type Engine struct {
	fetcher PageFetcher
	pages   []schema.Page
	season  string
	log     *logger.Logger
}

// NewEngine validates pages and returns an engine that fetches them with f
func NewEngine(f PageFetcher, pages []schema.Page, season string) (*Engine, error) {
	if err := schema.Validate(pages, season); err != nil {
		return nil, fmt.Errorf("invalid page schema: %w", err)
	}
	return &Engine{fetcher: f, pages: pages, season: season, log: logger.Default()}, nil
}

// SetLogger replaces the engine's logger
func (e *Engine) SetLogger(l *logger.Logger) {
	e.log = l
}

// Pages returns the configured page list
func (e *Engine) Pages() []schema.Page {
	return e.pages
}

// MergeDate fetches every page for date and joins them. The only error
// returned is context cancellation; page failures are recorded in Skipped.
func (e *Engine) MergeDate(ctx context.Context, date string) (Result, error) {
	start := time.Now()
	res := Result{Date: date}
	var home, away *table.Table

	for _, page := range e.pages {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		h, a, err := e.pageFrames(ctx, page, date)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			e.log.Warn("page skipped", logger.Fields{
				"date":  date,
				"page":  page.Name,
				"tier":  string(fault.Classify(err)),
				"error": err.Error(),
			})
			logger.IncrCounter("pages.skipped")
			res.Skipped = append(res.Skipped, Skip{Page: page.Name, Err: err})
			continue
		}
		logger.IncrCounter("pages.merged")
		res.Fetched = append(res.Fetched, page.Name)

		if home == nil {
			home, away = &h, &a
			continue
		}
		joinedHome, err := table.LeftJoin(*home, h, schema.ColDate, schema.ColTeam)
		if err != nil {
			return res, fmt.Errorf("joining %s (home): %w", page.Name, err)
		}
		joinedAway, err := table.LeftJoin(*away, a, schema.ColDate, schema.ColTeam)
		if err != nil {
			return res, fmt.Errorf("joining %s (away): %w", page.Name, err)
		}
		home, away = &joinedHome, &joinedAway
	}

	if home != nil {
		res.Home, res.Away = *home, *away
	} else {
		res.Home = table.New(schema.ColDate, schema.ColTeam)
		res.Away = table.New(schema.ColDate, schema.ColTeam)
	}
	logger.RecordTiming("date.merge", time.Since(start))
	return res, nil
}

// pageFrames fetches one page and projects it to its home and away frames
func (e *Engine) pageFrames(ctx context.Context, page schema.Page, date string) (home, away table.Table, err error) {
	raw, err := e.fetcher.FetchPage(ctx, page, date)
	if err != nil {
		return home, away, err
	}
	if !raw.Has(schema.SrcTeam) {
		return home, away, &scraper.ParseError{What: fmt.Sprintf("page %s has no %q column", page.Name, schema.SrcTeam)}
	}

	raw = raw.Clone()
	raw.Transform(schema.SrcTeam, NormalizeTeam)
	raw = raw.DropNullKeys(schema.SrcTeam).DedupFirst(schema.SrcTeam)

	home, err = frame(raw, page, schema.Home, e.season, date)
	if err != nil {
		return home, away, err
	}
	away, err = frame(raw, page, schema.Away, e.season, date)
	return home, away, err
}

func frame(raw table.Table, page schema.Page, side schema.Side, season, date string) (table.Table, error) {
	pairs := [][2]string{{schema.ColTeam, schema.SrcTeam}}
	for _, m := range page.Mappings(side, season) {
		pairs = append(pairs, [2]string{m.Column, m.Source})
	}
	projected, err := raw.Select(pairs...)
	if err != nil {
		return table.Table{}, &scraper.ParseError{What: fmt.Sprintf("page %s (%s): %v", page.Name, side, err)}
	}
	return projected.WithConstant(schema.ColDate, date), nil
}

var annotation = regexp.MustCompile(`\(.*\)`)

// NormalizeTeam strips parenthetical annotations such as records or seeds
// and surrounding whitespace from a team name.
func NormalizeTeam(name string) string {
	return strings.TrimSpace(annotation.ReplaceAllString(name, ""))
}
