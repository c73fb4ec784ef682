// Package scraper fetches and parses the public pages the pipeline reads:
// teamrankings.com stat and rating tables, sports-reference.com boxscore
// indexes, and covers.com matchup lists and injury reports.
//
// Fetching and parsing are split so every parser can be fed HTML directly.
// Transport failures and non-2xx responses are returned as *FetchError and a
// missing table or column as *ParseError; callers decide whether to skip the
// page. Detail pages (one per matchup) are throttled by a fixed delay.
package scraper
