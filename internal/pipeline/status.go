package pipeline

import (
	"context"
	"time"

	"github.com/pfrederiksen/ncaabb-scrape/internal/snapshot"
)

// StoreStatus summarizes one store
type StoreStatus struct {
	Store     string    `json:"store"`
	Keys      int       `json:"keys"`
	Failed    []string  `json:"failed"`
	Rows      int       `json:"rows"`
	First     string    `json:"first,omitempty"`
	Last      string    `json:"last,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

func setStatus(name string, s snapshot.Set) StoreStatus {
	st := StoreStatus{Store: name, Keys: len(s), Failed: s.FailedKeys(), Rows: s.Rows()}
	if keys := s.Keys(); len(keys) > 0 {
		st.First, st.Last = keys[0], keys[len(keys)-1]
	}
	for _, e := range s {
		if e.FetchedAt.After(st.FetchedAt) {
			st.FetchedAt = e.FetchedAt
		}
	}
	return st
}

// Status loads every store and summarizes it. For the scores store, keys are
// game days and rows are games in the cumulative table.
func (s *Stores) Status(ctx context.Context) ([]StoreStatus, error) {
	out := make([]StoreStatus, 0, 4)
	for _, st := range []struct {
		name string
		load func(context.Context) (snapshot.Set, error)
	}{
		{s.StatsHome.Name(), s.StatsHome.Load},
		{s.StatsAway.Name(), s.StatsAway.Load},
	} {
		set, err := st.load(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, setStatus(st.name, set))
	}

	book, err := s.LoadScores(ctx)
	if err != nil {
		return nil, err
	}
	scores := setStatus(s.Scores.Name(), book.Days)
	scores.Rows = book.Games.Len()
	out = append(out, scores)

	injuries, err := s.Injuries.Load(ctx)
	if err != nil {
		return nil, err
	}
	out = append(out, setStatus(s.Injuries.Name(), injuries))
	return out, nil
}
