package merge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/ncaabb-scrape/internal/fault"
	"github.com/pfrederiksen/ncaabb-scrape/internal/schema"
	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// fakeFetcher serves canned tables keyed by page name
type fakeFetcher struct {
	pages map[string]table.Table
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, page schema.Page, date string) (table.Table, error) {
	f.calls = append(f.calls, page.Name+"@"+date)
	if err, ok := f.errs[page.Name]; ok {
		return table.New(), err
	}
	t, ok := f.pages[page.Name]
	if !ok {
		return table.New(), &scraper.ParseError{What: "no table"}
	}
	return t, nil
}

func statTable(t *testing.T, rows ...[]string) table.Table {
	t.Helper()
	tbl := table.New("Rank", "Team", "2025", "Last 3", "Last 1", "Home", "Away", "2024")
	for _, r := range rows {
		require.NoError(t, tbl.AddValues(r...))
	}
	return tbl
}

func ratingTable(t *testing.T, rows ...[]string) table.Table {
	t.Helper()
	tbl := table.New("Rank", "Team", "Rating")
	for _, r := range rows {
		require.NoError(t, tbl.AddValues(r...))
	}
	return tbl
}

func TestMergeDate_RatingMissingForOneTeam(t *testing.T) {
	f := &fakeFetcher{pages: map[string]table.Table{
		"points-per-game": statTable(t,
			[]string{"1", "A (5-0)", "80", "81", "82", "83", "77", "70"},
			[]string{"2", "B", "70", "71", "72", "73", "67", "60"},
		),
		"predictive-by-other": ratingTable(t, []string{"1", "A", "12.5"}),
	}}
	pages := []schema.Page{schema.Stat("points-per-game"), schema.Rating("predictive-by-other")}
	e, err := NewEngine(f, pages, "2025")
	require.NoError(t, err)

	res, err := e.MergeDate(context.Background(), "2025-11-10")
	require.NoError(t, err)
	assert.True(t, res.Complete(pages))

	home := res.Home
	require.Equal(t, 2, home.Len(), "one row per team")
	assert.Equal(t, []string{
		"Date", "Team",
		"points-per-game", "points-per-game.Last3", "points-per-game.Last1", "points-per-game.Home",
		"predictive-by-other",
	}, home.Columns)
	assert.Equal(t, "A", home.Get(0, "Team").String)
	assert.Equal(t, "2025-11-10", home.Get(1, "Date").String)
	assert.Equal(t, "12.5", home.Get(0, "predictive-by-other").String)
	assert.False(t, home.Get(1, "predictive-by-other").Valid, "B has no rating")

	away := res.Away
	assert.True(t, away.Has("points-per-game.Away"))
	assert.False(t, away.Has("points-per-game.Home"))
	assert.Equal(t, "67", away.Get(1, "points-per-game.Away").String)
}

func TestMergeDate_SkipsUnusablePages(t *testing.T) {
	f := &fakeFetcher{
		pages: map[string]table.Table{
			"points-per-game": statTable(t, []string{"1", "A", "80", "81", "82", "83", "77", "70"}),
			// a rating table without a Team header
			"schedule-strength-by-other": table.New("Rank", "School", "Rating"),
		},
		errs: map[string]error{
			"offensive-efficiency": &scraper.FetchError{URL: "x", StatusCode: 503},
		},
	}
	pages := []schema.Page{
		schema.Stat("offensive-efficiency"),
		schema.Stat("points-per-game"),
		schema.Rating("schedule-strength-by-other"),
		schema.Rating("predictive-by-other"),
	}
	e, err := NewEngine(f, pages, "2025")
	require.NoError(t, err)

	res, err := e.MergeDate(context.Background(), "2025-11-10")
	require.NoError(t, err)

	assert.True(t, res.OK())
	assert.False(t, res.Complete(pages))
	assert.Equal(t, []string{"points-per-game"}, res.Fetched)
	require.Len(t, res.Skipped, 3)

	tiers := map[string]fault.Tier{}
	for _, s := range res.Skipped {
		tiers[s.Page] = fault.Classify(s.Err)
	}
	assert.Equal(t, fault.TierFetch, tiers["offensive-efficiency"])
	assert.Equal(t, fault.TierParse, tiers["schedule-strength-by-other"])
	assert.Equal(t, fault.TierParse, tiers["predictive-by-other"])

	assert.Equal(t, 1, res.Home.Len())
	assert.False(t, res.Home.Has("offensive-efficiency"))
}

func TestMergeDate_MissingSeasonColumn(t *testing.T) {
	f := &fakeFetcher{pages: map[string]table.Table{
		"points-per-game": statTable(t, []string{"1", "A", "80", "81", "82", "83", "77", "70"}),
	}}
	e, err := NewEngine(f, []schema.Page{schema.Stat("points-per-game")}, "2026")
	require.NoError(t, err)

	res, err := e.MergeDate(context.Background(), "2025-11-10")
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, fault.TierParse, fault.Classify(res.Skipped[0].Err))
	assert.True(t, res.Home.Empty())
}

func TestMergeDate_DuplicateTeamsCollapse(t *testing.T) {
	f := &fakeFetcher{pages: map[string]table.Table{
		"points-per-game": statTable(t,
			[]string{"1", "A", "80", "81", "82", "83", "77", "70"},
			[]string{"2", "A (dup)", "10", "11", "12", "13", "17", "10"},
			[]string{"3", "", "1", "1", "1", "1", "1", "1"},
		),
	}}
	e, err := NewEngine(f, []schema.Page{schema.Stat("points-per-game")}, "2025")
	require.NoError(t, err)

	res, err := e.MergeDate(context.Background(), "2025-11-10")
	require.NoError(t, err)
	require.Equal(t, 1, res.Home.Len())
	assert.Equal(t, "80", res.Home.Get(0, "points-per-game").String)
}

func TestMergeDate_Canceled(t *testing.T) {
	f := &fakeFetcher{}
	e, err := NewEngine(f, []schema.Page{schema.Stat("points-per-game")}, "2025")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.MergeDate(ctx, "2025-11-10")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, f.calls)
}

func TestNewEngine_InvalidSchema(t *testing.T) {
	_, err := NewEngine(&fakeFetcher{}, []schema.Page{schema.Stat("a"), schema.Stat("a")}, "2025")
	assert.Error(t, err)
}

func TestNormalizeTeam(t *testing.T) {
	tests := map[string]string{
		"Duke (7-1)":       "Duke",
		"  Saint Mary's ":  "Saint Mary's",
		"Miami (FL) (3-2)": "Miami",
		"Army":             "Army",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeTeam(in), in)
	}
}
