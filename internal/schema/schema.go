// Package schema is the static description of every stat and rating page the
// merge engine scrapes, and of the columns each page contributes to the home
// and away snapshot tables.
package schema

import (
	"fmt"
	"regexp"
)

// Kind selects the site section a page lives under
type Kind string

const (
	KindStat   Kind = "stat"
	KindRating Kind = "rating"
)

// Side selects the home- or away-oriented snapshot table
type Side string

const (
	Home Side = "home"
	Away Side = "away"
)

// Key columns shared by every snapshot table
const (
	ColDate = "Date"
	ColTeam = "Team"
)

// Columns scraped from the source tables
const (
	SrcTeam   = "Team"
	SrcRating = "Rating"
	SrcLast3  = "Last 3"
	SrcLast1  = "Last 1"
	SrcHome   = "Home"
	SrcAway   = "Away"
)

// Page is one scraped page
type Page struct {
	Name string
	Kind Kind
}

// Stat declares a stat page
func Stat(name string) Page { return Page{Name: name, Kind: KindStat} }

// Rating declares a rating page
func Rating(name string) Page { return Page{Name: name, Kind: KindRating} }

// Mapping pairs a snapshot column with the source column it is copied from
type Mapping struct {
	Column string
	Source string
}

// Mappings returns the columns a page contributes to one side, excluding the
// Date/Team keys. season is the header of the season-to-date column (e.g. "2025").
func (p Page) Mappings(side Side, season string) []Mapping {
	if p.Kind == KindRating {
		return []Mapping{{Column: p.Name, Source: SrcRating}}
	}
	split := Mapping{Column: p.Name + ".Home", Source: SrcHome}
	if side == Away {
		split = Mapping{Column: p.Name + ".Away", Source: SrcAway}
	}
	return []Mapping{
		{Column: p.Name, Source: season},
		{Column: p.Name + ".Last3", Source: SrcLast3},
		{Column: p.Name + ".Last1", Source: SrcLast1},
		split,
	}
}

// Columns returns the derived column names of a page for one side
func (p Page) Columns(side Side) []string {
	ms := p.Mappings(side, "")
	cols := make([]string, len(ms))
	for i, m := range ms {
		cols[i] = m.Column
	}
	return cols
}

// SourceColumns returns the page-table headers a page needs for one side
func (p Page) SourceColumns(side Side, season string) []string {
	ms := p.Mappings(side, season)
	cols := make([]string, 0, len(ms)+1)
	cols = append(cols, SrcTeam)
	for _, m := range ms {
		cols = append(cols, m.Source)
	}
	return cols
}

// ExpectedColumns returns every column a complete snapshot for side must carry
func ExpectedColumns(pages []Page, side Side) []string {
	cols := []string{ColDate, ColTeam}
	for _, p := range pages {
		cols = append(cols, p.Columns(side)...)
	}
	return cols
}

var pageName = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Validate checks that the page list can be merged: names are URL path
// segments, kinds are known, and no two pages derive the same column.
func Validate(pages []Page, season string) error {
	if len(pages) == 0 {
		return fmt.Errorf("no pages configured")
	}
	if season == "" {
		return fmt.Errorf("season column header is empty")
	}

	seen := make(map[string]bool, len(pages))
	owner := map[string]string{ColDate: "key", ColTeam: "key"}
	for _, p := range pages {
		if !pageName.MatchString(p.Name) {
			return fmt.Errorf("page %q: name must be a lowercase URL path segment", p.Name)
		}
		if p.Kind != KindStat && p.Kind != KindRating {
			return fmt.Errorf("page %q: unknown kind %q", p.Name, p.Kind)
		}
		if seen[p.Name] {
			return fmt.Errorf("page %q: listed twice", p.Name)
		}
		seen[p.Name] = true

		for _, side := range []Side{Home, Away} {
			for _, col := range p.Columns(side) {
				if prev, ok := owner[col]; ok && prev != p.Name {
					return fmt.Errorf("page %q: column %q already derived by %s", p.Name, col, prev)
				}
				owner[col] = p.Name
			}
		}
	}
	return nil
}
