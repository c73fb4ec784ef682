package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var matchupLink = regexp.MustCompile(`/sport/basketball/ncaab/matchup/(\d+)`)

// Injury is one player listed on a matchup's injury report
type Injury struct {
	MatchupID int    `json:"matchup_id"`
	Team      string `json:"team"`
	Player    string `json:"player"`
	Position  string `json:"position"`
	Status    string `json:"status"`
	Date      string `json:"date"`
	Note      string `json:"note"`
}

// MatchupsURL returns the matchup list address for date (YYYY-MM-DD)
func (s *Scraper) MatchupsURL(date string) string {
	q := url.Values{}
	q.Set("selectedDate", date)
	return s.urls.Matchups + "?" + q.Encode()
}

// MatchupURL returns the detail page address of one matchup
func (s *Scraper) MatchupURL(id int) string {
	return strings.TrimRight(s.urls.Matchup, "/") + "/" + strconv.Itoa(id)
}

// FetchMatchupIDs returns the sorted matchup IDs linked from the list page for date
func (s *Scraper) FetchMatchupIDs(ctx context.Context, date string) ([]int, error) {
	body, err := s.get(ctx, s.MatchupsURL(date), nil)
	if err != nil {
		return nil, err
	}
	return parseMatchupIDs(bytes.NewReader(body))
}

// FetchInjuries fetches the injury report of one matchup. Calls are throttled.
func (s *Scraper) FetchInjuries(ctx context.Context, matchupID int) ([]Injury, error) {
	if err := s.detail.Wait(ctx); err != nil {
		return nil, err
	}
	pageURL := s.MatchupURL(matchupID)
	body, err := s.get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	return parseInjuries(bytes.NewReader(body), matchupID, pageURL)
}

func parseMatchupIDs(r io.Reader) ([]int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{What: fmt.Sprintf("reading HTML: %v", err)}
	}

	seen := make(map[int]bool)
	ids := make([]int, 0)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		m := matchupLink.FindStringSubmatch(href)
		if m == nil {
			return
		}
		id, err := strconv.Atoi(m[1])
		if err != nil || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})

	sort.Ints(ids)
	return ids, nil
}

// parseInjuries reads the away then home sections of div#injuries. A page
// without the block has no report and yields no rows.
func parseInjuries(r io.Reader, matchupID int, sourceURL string) ([]Injury, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, &ParseError{URL: sourceURL, What: fmt.Sprintf("reading HTML: %v", err)}
	}

	block := doc.Find("div#injuries").First()
	if block.Length() == 0 {
		return []Injury{}, nil
	}

	injuries := make([]Injury, 0)
	injuries = append(injuries, teamInjuries(block, "section.away-team-section", matchupID)...)
	injuries = append(injuries, teamInjuries(block, "section.home-team-section", matchupID)...)
	return injuries, nil
}

func teamInjuries(block *goquery.Selection, selector string, matchupID int) []Injury {
	section := block.Find(selector).First()
	if section.Length() == 0 {
		return nil
	}

	team := "Unknown Team"
	if h2 := section.Find("h2").First(); h2.Length() > 0 {
		team = cleanInjuryTeam(h2.Text())
	}

	tbl := section.Find("table").First()
	if tbl.Length() == 0 {
		return nil
	}

	rows := tbl.Find("tr")
	if rows.Length() < 2 {
		return nil
	}

	var out []Injury
	noInjuries := false
	// first row is the header
	rows.Slice(1, goquery.ToEnd).EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		cols := tr.Find("td")
		switch {
		case cols.Length() == 1 && strings.Contains(cols.First().Text(), "No injuries"):
			noInjuries = true
			return false
		case cols.Length() == 5:
			text := func(i int) string { return strings.TrimSpace(cols.Eq(i).Text()) }
			out = append(out, Injury{
				MatchupID: matchupID,
				Team:      team,
				Player:    text(0),
				Position:  text(1),
				Status:    text(2),
				Date:      text(3),
				Note:      text(4),
			})
		}
		return true
	})
	if noInjuries {
		return nil
	}
	return out
}

// cleanInjuryTeam turns a heading like "Duke's Injuries" into "Duke"
func cleanInjuryTeam(heading string) string {
	team := strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(heading), "Injuries", ""))
	team = strings.TrimSuffix(team, "'s")
	team = strings.TrimSuffix(team, "’s")
	return strings.TrimSpace(team)
}
