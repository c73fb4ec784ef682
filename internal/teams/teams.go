// Package teams links the team names used by the score site to the names
// used by the stat site, so score rows can be joined to stat snapshots.
package teams

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the minimum similarity for a fuzzy link
const DefaultThreshold = 0.85

// Link pairs a score-site name with a stat-site name
type Link struct {
	Score      string  `json:"score"`
	Stat       string  `json:"stat"`
	Similarity float64 `json:"similarity"`
}

// Exact reports whether both names normalize to the same key
func (l Link) Exact() bool {
	return l.Similarity == 1
}

// Result holds the links and the score-site names that found no partner
type Result struct {
	Links     []Link   `json:"links"`
	Unmatched []string `json:"unmatched"`
}

var punctuation = strings.NewReplacer(
	".", "",
	"'", "",
	"(", "",
	")", "",
	"-", " ",
	"&", " and ",
)

// wordForms folds spellings that differ between the two sites
var wordForms = map[string]string{
	"saint": "st",
	"state": "st",
	"univ":  "university",
}

// Normalize reduces a team name to a comparison key
func Normalize(name string) string {
	words := strings.Fields(punctuation.Replace(strings.ToLower(name)))
	for i, w := range words {
		if f, ok := wordForms[w]; ok {
			words[i] = f
		}
	}
	return strings.Join(words, " ")
}

// Match links every score-site name to at most one stat-site name. Names
// whose normalized keys are equal link first; the rest take the most similar
// remaining stat name by Jaro-Winkler similarity if it reaches threshold.
func Match(scoreNames, statNames []string, threshold float64) Result {
	scoreNames = unique(scoreNames)
	statNames = unique(statNames)

	statKey := make(map[string]string, len(statNames))
	for _, n := range statNames {
		k := Normalize(n)
		if _, ok := statKey[k]; !ok {
			statKey[k] = n
		}
	}

	var res Result
	usedStat := make(map[string]bool)
	var pending []string

	for _, s := range scoreNames {
		if stat, ok := statKey[Normalize(s)]; ok && !usedStat[stat] {
			res.Links = append(res.Links, Link{Score: s, Stat: stat, Similarity: 1})
			usedStat[stat] = true
			continue
		}
		pending = append(pending, s)
	}

	for _, s := range pending {
		var best string
		var bestSim float64
		key := Normalize(s)
		for _, stat := range statNames {
			if usedStat[stat] {
				continue
			}
			if sim := matchr.JaroWinkler(key, Normalize(stat), false); sim > bestSim {
				best, bestSim = stat, sim
			}
		}
		if best == "" || bestSim < threshold {
			res.Unmatched = append(res.Unmatched, s)
			continue
		}
		res.Links = append(res.Links, Link{Score: s, Stat: best, Similarity: bestSim})
		usedStat[best] = true
	}

	sort.Slice(res.Links, func(i, j int) bool { return res.Links[i].Score < res.Links[j].Score })
	return res
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
