package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/ncaabb-scrape/internal/teams"
)

// SortOrder represents the available sorting options for team links
type SortOrder string

const (
	SortByName       SortOrder = "name"
	SortBySimilarity SortOrder = "similarity"
)

func parseSortOrder(s string) (SortOrder, error) {
	order := SortOrder(strings.ToLower(strings.TrimSpace(s)))
	switch order {
	case "":
		return SortByName, nil
	case SortByName, SortBySimilarity:
		return order, nil
	}
	return "", fmt.Errorf("invalid sort: %s (must be 'name' or 'similarity')", s)
}

// sortLinks sorts links in place. Unknown orders leave the input order.
func sortLinks(links []teams.Link, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(links, func(i, j int) bool {
			return compareByName(links[i], links[j])
		})
	case SortBySimilarity:
		sort.SliceStable(links, func(i, j int) bool {
			if links[i].Similarity != links[j].Similarity {
				// weakest links first; those are the ones to review
				return links[i].Similarity < links[j].Similarity
			}
			return compareByName(links[i], links[j])
		})
	}
}

func compareByName(a, b teams.Link) bool {
	an, bn := strings.ToLower(a.Score), strings.ToLower(b.Score)
	if an != bn {
		return an < bn
	}
	return a.Stat < b.Stat
}
