package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/ncaabb-scrape/internal/fault"
	"github.com/pfrederiksen/ncaabb-scrape/internal/logger"
	"github.com/pfrederiksen/ncaabb-scrape/internal/merge"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

var (
	day1 = time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	// a fixed "now" well after the test range
	later = time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
)

type fakePages struct {
	// failing dates return a fetch error for every page
	failing      map[string]bool
	// failingPages return a fetch error on every date
	failingPages map[string]bool
	calls        map[string]int
}

func (f *fakePages) FetchPage(_ context.Context, page schema.Page, date string) (table.Table, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[date]++
	if f.failing[date] || f.failingPages[page.Name] {
		return table.New(), &scraper.FetchError{URL: page.Name, StatusCode: 503}
	}
	if page.Kind == schema.KindRating {
		t := table.New("Rank", "Team", "Rating")
		_ = t.AddValues("1", "Duke", "20.1")
		return t, nil
	}
	t := table.New("Rank", "Team", "2025", "Last 3", "Last 1", "Home", "Away")
	_ = t.AddValues("1", "Duke (7-1)", "10", "11", "12", "13", "14")
	_ = t.AddValues("2", "Army", "5", "6", "7", "8", "9")
	return t, nil
}

type fakeBoxscores struct {
	games map[string][]scraper.Game
	fail  map[string]bool
	calls []string
}

func (f *fakeBoxscores) FetchBoxscores(_ context.Context, day time.Time) ([]scraper.Game, []error, error) {
	d := day.Format("2006-01-02")
	f.calls = append(f.calls, d)
	if f.fail[d] {
		return nil, nil, &scraper.FetchError{URL: d, StatusCode: 429}
	}
	return f.games[d], nil, nil
}

type fakeInjuries struct {
	ids      map[string][]int
	reports  map[int][]scraper.Injury
	failIDs  map[int]bool
	listings []string
}

func (f *fakeInjuries) FetchMatchupIDs(_ context.Context, date string) ([]int, error) {
	f.listings = append(f.listings, date)
	return f.ids[date], nil
}

func (f *fakeInjuries) FetchInjuries(_ context.Context, id int) ([]scraper.Injury, error) {
	if f.failIDs[id] {
		return nil, &scraper.FetchError{URL: "matchup", StatusCode: 500}
	}
	return f.reports[id], nil
}

func intp(n int) *int { return &n }

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelError, io.Discard)
}

func newRunner(t *testing.T, cfg Config) (*Runner, *Stores) {
	t.Helper()
	backend, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	cfg.Stores = NewStores(backend)
	cfg.Logger = quietLogger()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return later }
	}
	r, err := New(cfg)
	require.NoError(t, err)
	return r, cfg.Stores
}

func engineWith(t *testing.T, f merge.PageFetcher, pages []schema.Page) *merge.Engine {
	t.Helper()
	e, err := merge.NewEngine(f, pages, "2025")
	require.NoError(t, err)
	e.SetLogger(quietLogger())
	return e
}

func TestStats_MergesAndSkipsStoredDates(t *testing.T) {
	ctx := context.Background()
	f := &fakePages{}
	pages := []schema.Page{schema.Stat("points-per-game"), schema.Rating("predictive-by-other")}
	r, stores := newRunner(t, Config{Engine: engineWith(t, f, pages)})

	sum, err := r.Stats(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Attempted)
	assert.Equal(t, 2, sum.Saved)
	assert.True(t, sum.OK())

	home, err := stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	require.Len(t, home, 2)
	entry := home["2025-11-10"]
	require.False(t, entry.IsFailed())
	assert.Equal(t, 2, entry.Table.Len())
	assert.Equal(t, "20.1", entry.Table.Get(0, "predictive-by-other").String)
	assert.False(t, entry.Table.Get(1, "predictive-by-other").Valid)

	away, err := stores.StatsAway.Load(ctx)
	require.NoError(t, err)
	assert.True(t, away["2025-11-09"].Table.Has("points-per-game.Away"))

	// second run finds nothing to do
	f.calls = nil
	sum, err = r.Stats(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Attempted)
	assert.Empty(t, f.calls)
}

func TestStats_NewColumnBackfillsInPlace(t *testing.T) {
	ctx := context.Background()
	f := &fakePages{}
	before := []schema.Page{schema.Stat("points-per-game")}
	r, stores := newRunner(t, Config{Engine: engineWith(t, f, before)})

	_, err := r.Stats(ctx, day1, day2)
	require.NoError(t, err)

	// a page is added: every stored date lacks its columns
	after := []schema.Page{schema.Stat("points-per-game"), schema.Stat("reb")}
	r.engine = engineWith(t, f, after)

	home, err := stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	away, err := stores.StatsAway.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-09", "2025-11-10"},
		StatsDates([]string{"2025-11-09", "2025-11-10"}, home, away, after))

	sum, err := r.Stats(ctx, day2, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Saved)

	home, err = stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	got := home["2025-11-10"].Table
	require.Equal(t, 2, got.Len(), "rows are replaced, not added")
	assert.Equal(t, "Duke", got.Get(0, "Team").String)
	assert.Equal(t, "10", got.Get(0, "reb").String)
	assert.Equal(t, "13", got.Get(0, "reb.Home").String)
	assert.False(t, home["2025-11-09"].Table.Has("reb"), "dates outside the run are untouched")
}

func TestStats_AllPagesFailedIsRetried(t *testing.T) {
	ctx := context.Background()
	f := &fakePages{failing: map[string]bool{"2025-11-10": true}}
	pages := []schema.Page{schema.Stat("points-per-game")}
	r, stores := newRunner(t, Config{Engine: engineWith(t, f, pages)})

	sum, err := r.Stats(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.False(t, sum.OK())

	home, err := stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-10"}, home.FailedKeys())

	f.failing = nil
	sum, err = r.Stats(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Attempted)
	assert.Equal(t, 1, sum.Saved)
}

func TestStats_PartialPagesRequeued(t *testing.T) {
	ctx := context.Background()
	f := &fakePages{failingPages: map[string]bool{"rpi": true}}
	pages := []schema.Page{schema.Stat("points-per-game"), schema.Rating("rpi")}
	r, stores := newRunner(t, Config{Engine: engineWith(t, f, pages)})

	sum, err := r.Stats(ctx, day2, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Saved)
	assert.Equal(t, 1, sum.Partial)
	assert.Zero(t, sum.Failed)
	assert.False(t, sum.OK(), "a skipped page is not a clean run")

	home, err := stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	away, err := stores.StatsAway.Load(ctx)
	require.NoError(t, err)
	require.False(t, home["2025-11-10"].IsFailed())
	assert.False(t, home["2025-11-10"].Table.Has("rpi"))
	assert.Equal(t, []string{"2025-11-10"},
		StatsDates([]string{"2025-11-10"}, home, away, pages), "missing rating column queues the date again")

	f.failingPages = nil
	sum, err = r.Stats(ctx, day2, day2)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Attempted)
	assert.Zero(t, sum.Partial)
	assert.True(t, sum.OK())

	home, err = stores.StatsHome.Load(ctx)
	require.NoError(t, err)
	got := home["2025-11-10"].Table
	require.Equal(t, 2, got.Len(), "the rating is upserted into the same rows")
	assert.Equal(t, "20.1", got.Get(0, "rpi").String)
	assert.False(t, got.Get(1, "rpi").Valid)
	assert.True(t, got.Has("points-per-game.Home"))

	sum, err = r.Stats(ctx, day2, day2)
	require.NoError(t, err)
	assert.Zero(t, sum.Attempted, "complete date is not fetched again")
}

func TestStats_BadRange(t *testing.T) {
	r, _ := newRunner(t, Config{Engine: engineWith(t, &fakePages{}, []schema.Page{schema.Stat("a")})})

	_, err := r.Stats(context.Background(), day2, day1)
	assert.Equal(t, fault.TierSchedule, fault.Classify(err))
}

type failingBackend struct{ storage.Backend }

func (failingBackend) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestStats_StoreErrorIsFatal(t *testing.T) {
	fb, err := storage.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	f := &fakePages{}
	r, err := New(Config{
		Engine: engineWith(t, f, []schema.Page{schema.Stat("points-per-game")}),
		Stores: NewStores(failingBackend{fb}),
		Logger: quietLogger(),
	})
	require.NoError(t, err)

	sum, err := r.Stats(context.Background(), day1, day2)
	require.Error(t, err)
	assert.True(t, fault.Fatal(err))
	assert.Equal(t, 1, sum.Attempted, "stops at the first failed save")
}

func TestStats_Canceled(t *testing.T) {
	f := &fakePages{}
	r, _ := newRunner(t, Config{Engine: engineWith(t, f, []schema.Page{schema.Stat("points-per-game")})})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Stats(ctx, day1, day2)
	assert.Equal(t, fault.TierCanceled, fault.Classify(err))
}

func TestScoreDates(t *testing.T) {
	now := time.Date(2025, 11, 12, 15, 0, 0, 0, time.UTC)
	days := snapshot.NewSet()
	// settled: fetched the day after the games
	days.Upsert("2025-11-10", snapshot.Entry{Status: snapshot.StatusComplete, FetchedAt: time.Date(2025, 11, 11, 8, 0, 0, 0, time.UTC)})
	// fetched while games were still being played
	days.Upsert("2025-11-11", snapshot.Entry{Status: snapshot.StatusComplete, FetchedAt: time.Date(2025, 11, 11, 20, 0, 0, 0, time.UTC)})

	got, err := ScoreDates(day1, now, now, days)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-11", "2025-11-12", "2025-11-13"}, got)

	got, err = ScoreDates(now, now, now, days)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-12", "2025-11-13"}, got, "today and tomorrow only")
}

func TestScores_FilterBeforeDedup(t *testing.T) {
	ctx := context.Background()
	box := &fakeBoxscores{games: map[string][]scraper.Game{
		"2025-11-10": {
			{Date: "2025-11-10", HomeTeam: "Duke", AwayTeam: "Army", HomeScore: intp(70), AwayScore: intp(60), Marker: "Women's"},
			{Date: "2025-11-10", HomeTeam: "Duke", AwayTeam: "Army", HomeScore: intp(90), AwayScore: intp(61), Marker: "Men's"},
			{Date: "2025-11-10", HomeTeam: "", AwayTeam: "Army"},
		},
	}}
	r, stores := newRunner(t, Config{Boxscores: box})

	sum, err := r.Scores(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Failed)

	book, err := stores.LoadScores(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, book.Games.Len())
	assert.Equal(t, "90", book.Games.Get(0, ColTeamScoreHome).String)
	assert.Equal(t, "2025-11-09", book.Games.Get(0, ColDateStat).String)
	assert.Contains(t, box.calls, "2025-11-10")
	assert.Contains(t, box.calls, "2025-12-02", "tomorrow is always fetched")
}

func TestScores_EmptyDayIsDoneFailedDayIsRetried(t *testing.T) {
	ctx := context.Background()
	box := &fakeBoxscores{
		games: map[string][]scraper.Game{},
		fail:  map[string]bool{"2025-11-11": true},
	}
	r, stores := newRunner(t, Config{Boxscores: box})

	end := time.Date(2025, 11, 11, 0, 0, 0, 0, time.UTC)
	_, err := r.Scores(ctx, day1, end)
	require.NoError(t, err)

	book, err := stores.LoadScores(ctx)
	require.NoError(t, err)
	assert.False(t, book.Days["2025-11-10"].IsFailed(), "no games is still complete")
	assert.True(t, book.Days["2025-11-11"].IsFailed())

	box.calls = nil
	box.fail = nil
	_, err = r.Scores(ctx, day1, end)
	require.NoError(t, err)
	assert.Contains(t, box.calls, "2025-11-11")
	assert.NotContains(t, box.calls, "2025-11-10")
}

func TestScores_RefetchReplacesRows(t *testing.T) {
	ctx := context.Background()
	gameDay := "2025-11-10"
	now := time.Date(2025, 11, 10, 18, 0, 0, 0, time.UTC)
	box := &fakeBoxscores{games: map[string][]scraper.Game{
		gameDay: {{Date: gameDay, HomeTeam: "Duke", AwayTeam: "Army"}},
	}}
	r, stores := newRunner(t, Config{Boxscores: box, Now: func() time.Time { return now }})

	_, err := r.Scores(ctx, day1, day2)
	require.NoError(t, err)

	box.games[gameDay] = []scraper.Game{{Date: gameDay, HomeTeam: "Duke", AwayTeam: "Army", HomeScore: intp(90), AwayScore: intp(61)}}
	now = now.Add(24 * time.Hour)
	_, err = r.Scores(ctx, day1, now)
	require.NoError(t, err)

	book, err := stores.LoadScores(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, book.Games.Len())
	assert.Equal(t, "90", book.Games.Get(0, ColTeamScoreHome).String)
}

func TestInjuries(t *testing.T) {
	ctx := context.Background()
	inj := &fakeInjuries{
		ids: map[string][]int{"2025-11-10": {1, 2}},
		reports: map[int][]scraper.Injury{
			1: {{MatchupID: 1, Team: "Duke", Player: "J. Smith", Position: "G", Status: "Out", Date: "Nov 8", Note: "Ankle"}},
		},
		failIDs: map[int]bool{2: true},
	}
	r, stores := newRunner(t, Config{Injuries: inj})

	sum, err := r.Injuries(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-11-10", "2025-12-01"}, inj.listings)
	assert.Equal(t, 1, sum.Rows)
	assert.Equal(t, 1, sum.Partial, "one of two matchups failed")
	assert.False(t, sum.OK())

	stored, err := stores.Injuries.Load(ctx)
	require.NoError(t, err)
	got := stored["2025-11-10"].Table
	assert.Equal(t, InjuryColumns, got.Columns)
	assert.Equal(t, "J. Smith", got.Get(0, "player").String)
	assert.False(t, stored["2025-12-01"].IsFailed())

	inj.listings = nil
	_, err = r.Injuries(ctx, day1, day2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-01"}, inj.listings, "complete dates are skipped, today is refreshed")
}

func TestRun_Summary(t *testing.T) {
	ctx := context.Background()
	r, stores := newRunner(t, Config{
		Engine:    engineWith(t, &fakePages{}, []schema.Page{schema.Stat("points-per-game")}),
		Boxscores: &fakeBoxscores{},
		Injuries:  &fakeInjuries{},
	})

	sum, err := r.Run(ctx, day1, day2)
	require.NoError(t, err)
	require.Len(t, sum.Steps, 3)
	assert.Equal(t, StepStats, sum.Steps[0].Step)
	assert.Equal(t, StepInjuries, sum.Steps[2].Step)

	status, err := stores.Status(ctx)
	require.NoError(t, err)
	require.Len(t, status, 4)
	assert.Equal(t, storage.StatsHome, status[0].Store)
	assert.Equal(t, 2, status[0].Keys)
	assert.Equal(t, "2025-11-09", status[0].First)
	assert.Equal(t, 4, status[0].Rows)
}

func TestRun_StopsOnMissingFetcher(t *testing.T) {
	r, _ := newRunner(t, Config{
		Engine: engineWith(t, &fakePages{}, []schema.Page{schema.Stat("points-per-game")}),
	})

	sum, err := r.Run(context.Background(), day1, day2)
	require.Error(t, err)
	require.Len(t, sum.Steps, 2)
	assert.Error(t, sum.Steps[1].Err)
}
