// Package cli implements the command-line interface for ncaabb-scrape.
//
// The cli package provides the Cobra-based CLI: one command per scrape step
// (stats, scores, injuries), run to chain them, and read-only commands that
// report on (status), export (export) or cross-reference (teams) the stores.
// It wires configuration, logging, the scraper, the merge engine and the
// stores together for each command.
package cli
