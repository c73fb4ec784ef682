// Package filter drops scraped boxscore entries that belong to a competition
// the pipeline does not track.
//
// Each boxscore entry carries a marker (the competition line printed under
// the two teams). An entry is excluded when its marker contains any of the
// configured tokens, compared case-insensitively:
//
//	f := filter.NewCompetition(filter.DefaultExcludeTokens)
//	kept, dropped := f.Apply(games)
//
// The filter runs before natural-key deduplication, so an excluded game never
// reaches the cumulative score table even when its key is otherwise unique.
package filter

import (
	"strings"

	"github.com/pfrederiksen/ncaabb-scrape/internal/scraper"
)

// DefaultExcludeTokens mark women's and women's-postseason games
var DefaultExcludeTokens = []string{"Women's", "Womens", "WBIT", "WNIT"}

// Competition excludes games by marker token
type Competition struct {
	tokens []string
}

// NewCompetition creates a filter. Blank tokens are ignored.
func NewCompetition(tokens []string) *Competition {
	c := &Competition{tokens: make([]string, 0, len(tokens))}
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok != "" {
			c.tokens = append(c.tokens, tok)
		}
	}
	return c
}

// Match returns the first token found in marker
func (c *Competition) Match(marker string) (string, bool) {
	lower := strings.ToLower(marker)
	for _, tok := range c.tokens {
		if strings.Contains(lower, tok) {
			return tok, true
		}
	}
	return "", false
}

// Apply returns the games whose marker matches no token, in input order
func (c *Competition) Apply(games []scraper.Game) (kept []scraper.Game, dropped int) {
	kept = make([]scraper.Game, 0, len(games))
	for _, g := range games {
		if _, excluded := c.Match(g.Marker); excluded {
			dropped++
			continue
		}
		kept = append(kept, g)
	}
	return kept, dropped
}
