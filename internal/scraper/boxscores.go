package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// BoxscoreReferer is sent with boxscore requests; the site blocks bare clients more often
const BoxscoreReferer = "https://www.sports-reference.com/cbb/boxscores/"

// Game is one entry of a boxscore index page
type Game struct {
	Date      string `json:"date_game"`
	HomeTeam  string `json:"team_name_home"`
	AwayTeam  string `json:"team_name_away"`
	HomeScore *int   `json:"team_score_home"`
	AwayScore *int   `json:"team_score_away"`
	// Marker is the text of the competition row under the teams (e.g. "Women's")
	Marker string `json:"marker"`
}

// Finished reports whether both scores were posted
func (g Game) Finished() bool {
	return g.HomeScore != nil && g.AwayScore != nil
}

// BoxscoreURL returns the index page address for day
func (s *Scraper) BoxscoreURL(day time.Time) string {
	q := url.Values{}
	q.Set("month", strconv.Itoa(int(day.Month())))
	q.Set("day", strconv.Itoa(day.Day()))
	q.Set("year", strconv.Itoa(day.Year()))
	return s.urls.Boxscores + "?" + q.Encode()
}

// FetchBoxscores fetches every game listed for day. skipped holds one
// *ParseError per entry that could not be read; the rest are still returned.
func (s *Scraper) FetchBoxscores(ctx context.Context, day time.Time) (games []Game, skipped []error, err error) {
	pageURL := s.BoxscoreURL(day)
	body, err := s.get(ctx, pageURL, map[string]string{"Referer": BoxscoreReferer})
	if err != nil {
		return nil, nil, err
	}
	return parseBoxscores(bytes.NewReader(body), day.Format("2006-01-02"), pageURL)
}

// parseBoxscores reads the .teams blocks: away row, home row, then a row whose
// first cell names the competition.
func parseBoxscores(r io.Reader, date, sourceURL string) ([]Game, []error, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, &ParseError{URL: sourceURL, What: fmt.Sprintf("reading HTML: %v", err)}
	}

	games := make([]Game, 0)
	var skipped []error

	doc.Find(".teams").Each(func(i int, block *goquery.Selection) {
		rows := block.Find("tr")
		if rows.Length() < 2 {
			skipped = append(skipped, &ParseError{
				URL:  sourceURL,
				What: fmt.Sprintf("game %d: expected away and home rows, found %d rows", i, rows.Length()),
			})
			return
		}

		away, home := rows.Eq(0), rows.Eq(1)
		game := Game{
			Date:      date,
			AwayTeam:  teamName(away),
			HomeTeam:  teamName(home),
			AwayScore: score(away),
			HomeScore: score(home),
		}
		if rows.Length() > 2 {
			game.Marker = strings.TrimSpace(rows.Eq(2).Find("td").First().Text())
		}
		games = append(games, game)
	})

	return games, skipped, nil
}

// teamName returns the linked team name. Teams without a school page have no
// link and come back empty, which later drops the game as a null key.
func teamName(row *goquery.Selection) string {
	return strings.TrimSpace(row.Find("td a").First().Text())
}

func score(row *goquery.Selection) *int {
	cell := row.Find("td").Eq(1)
	if cell.Length() == 0 {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(cell.Text()))
	if err != nil {
		return nil
	}
	return &n
}
