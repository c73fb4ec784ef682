// Package fault classifies pipeline errors into the tiers that decide whether
// a run continues.
//
// Fetch and parse failures are contained to the page, row or date they hit.
// Schedule failures reject malformed input before any work starts. Store
// failures are fatal: once persisted state cannot be read or written, stored
// keys no longer reflect fetch success.
package fault

import (
	"context"
	"errors"

	"github.com/pfrederiksen/ncaabb-scrape/internal/schedule"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
)

// Tier names an error class
type Tier string

const (
	TierFetch    Tier = "fetch"
	TierParse    Tier = "parse"
	TierSchedule Tier = "schedule"
	TierStore    Tier = "store"
	TierCanceled Tier = "canceled"
	TierUnknown  Tier = "unknown"
)

// Classify returns the tier of err. Nil errors have no tier.
func Classify(err error) Tier {
	var (
		fetchErr    *scraper.FetchError
		parseErr    *scraper.ParseError
		scheduleErr *schedule.ScheduleError
		storeErr    *storage.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &storeErr):
		return TierStore
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return TierCanceled
	case errors.As(err, &scheduleErr):
		return TierSchedule
	case errors.As(err, &fetchErr):
		return TierFetch
	case errors.As(err, &parseErr):
		return TierParse
	default:
		return TierUnknown
	}
}

// Fatal reports whether err must stop the run
func Fatal(err error) bool {
	switch Classify(err) {
	case TierStore, TierCanceled:
		return true
	}
	return false
}
