package pipeline

import (
	"context"

	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
	"github.com/pfrederiksen/ncaabb-scrape/internal/storage"
	"github.com/pfrederiksen/ncaabb-scrape/internal/table"
)

// Score table columns
const (
	ColDateGame      = "date_game"
	ColDateStat      = "date_stat"
	ColTeamNameHome  = "team_name_home"
	ColTeamScoreHome = "team_score_home"
	ColTeamNameAway  = "team_name_away"
	ColTeamScoreAway = "team_score_away"
)

// ScoreColumns is the column order of the cumulative score table
var ScoreColumns = []string{
	ColDateGame, ColDateStat,
	ColTeamNameHome, ColTeamScoreHome,
	ColTeamNameAway, ColTeamScoreAway,
}

// ScoreKey is the natural key of a game
var ScoreKey = []string{ColDateGame, ColTeamNameHome, ColTeamNameAway}

// InjuryColumns is the column order of a per-date injury table
var InjuryColumns = []string{"matchup_id", "team", "player", "position", "status", "date", "note"}

// ScoreBook is the stored value of the scores store: the cumulative game
// table plus the fetch outcome of every game day.
type ScoreBook struct {
	Games table.Table
	Days  snapshot.Set
}

// NewScoreBook creates an empty score book
func NewScoreBook() ScoreBook {
	return ScoreBook{Games: table.New(ScoreColumns...), Days: snapshot.NewSet()}
}

// Stores bundles the four persisted values
type Stores struct {
	StatsHome *storage.Store[snapshot.Set]
	StatsAway *storage.Store[snapshot.Set]
	Scores    *storage.Store[ScoreBook]
	Injuries  *storage.Store[snapshot.Set]
}

// NewStores binds every store to backend
func NewStores(backend storage.Backend) *Stores {
	return &Stores{
		StatsHome: storage.New(backend, storage.StatsHome, snapshot.NewSet),
		StatsAway: storage.New(backend, storage.StatsAway, snapshot.NewSet),
		Scores:    storage.New(backend, storage.Scores, NewScoreBook),
		Injuries:  storage.New(backend, storage.Injuries, snapshot.NewSet),
	}
}

// LoadScores returns the score book, never with nil parts
func (s *Stores) LoadScores(ctx context.Context) (ScoreBook, error) {
	book, err := s.Scores.Load(ctx)
	if err != nil {
		return book, err
	}
	if book.Days == nil {
		book.Days = snapshot.NewSet()
	}
	if len(book.Games.Columns) == 0 {
		book.Games = table.New(ScoreColumns...)
	}
	return book, nil
}
