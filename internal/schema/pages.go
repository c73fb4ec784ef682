package schema

// DefaultSeason is the header of the season-to-date column on stat pages
const DefaultSeason = "2025"

// DefaultPages is the scraped page list, in merge order.
// Ratings come last so the stat pages seed the team list.
func DefaultPages() []Page {
	return []Page{
		// offense
		Stat("offensive-efficiency"),
		Stat("three-point-pct"),
		Stat("two-point-pct"),
		Stat("free-throw-pct"),
		Stat("percent-of-points-from-3-pointers"),
		Stat("points-per-game"),
		Stat("three-pointers-made-per-game"),
		Stat("free-throws-made-per-game"),
		Stat("floor-percentage"),
		Stat("turnovers-per-possession"),
		Stat("turnovers-per-game"),
		Stat("assists-per-game"),
		Stat("possessions-per-game"),
		// rebounding
		Stat("offensive-rebounding-pct"),
		Stat("defensive-rebounding-pct"),
		Stat("total-rebounds-per-game"),
		Stat("total-rebounding-percentage"),
		Stat("extra-chances-per-game"),
		// defense
		Stat("defensive-efficiency"),
		Stat("blocks-per-game"),
		Stat("steals-per-game"),
		Stat("block-pct"),
		Stat("steals-perpossession"),
		Stat("personal-fouls-per-possession"),
		// other
		Stat("win-pct-all-games"),
		Stat("effective-possession-ratio"),
		Stat("opponent-effective-possession-ratio"),
		// ratings
		Rating("schedule-strength-by-other"),
		Rating("predictive-by-other"),
		Rating("consistency-by-other"),
	}
}

// Lookup returns the page with the given name from pages
func Lookup(pages []Page, name string) (Page, bool) {
	for _, p := range pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}
