package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pfrederiksen/ncaabb-scrape/internal/pipeline"
	"github.com/pfrederiksen/ncaabb-scrape/internal/teams"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// summaryOutput is the JSON shape of a run summary
type summaryOutput struct {
	RunID      string       `json:"run_id"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []stepOutput `json:"steps"`
}

type stepOutput struct {
	pipeline.StepSummary
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func stepStatus(s pipeline.StepSummary) string {
	switch {
	case s.Err != nil:
		return "aborted"
	case s.Failed > 0 || s.Partial > 0:
		return "partial"
	default:
		return "success"
	}
}

// WriteSummary writes the per-step outcome of a run
func WriteSummary(w io.Writer, runID string, sum pipeline.Summary, format OutputFormat) error {
	switch format {
	case FormatJSON:
		out := summaryOutput{RunID: runID, FinishedAt: time.Now().UTC(), Steps: make([]stepOutput, 0, len(sum.Steps))}
		for _, s := range sum.Steps {
			so := stepOutput{StepSummary: s, Status: stepStatus(s)}
			if s.Err != nil {
				so.Error = s.Err.Error()
			}
			out.Steps = append(out.Steps, so)
		}
		return writeJSON(w, out)
	case FormatText:
		if len(sum.Steps) == 0 {
			fmt.Fprintln(w, "No steps ran.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Step", "Status", "Attempted", "Saved", "Partial", "Failed", "Rows", "Duration"})
		for _, s := range sum.Steps {
			t.AppendRow(table.Row{s.Step, stepStatus(s), s.Attempted, s.Saved, s.Partial, s.Failed, s.Rows, s.Duration.Round(time.Millisecond)})
		}
		t.Render()
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStatus writes one line per store
func WriteStatus(w io.Writer, status []pipeline.StoreStatus, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, status)
	case FormatText:
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Store", "Keys", "First", "Last", "Rows", "Failed", "Last fetch"})
		for _, s := range status {
			fetched := ""
			if !s.FetchedAt.IsZero() {
				fetched = s.FetchedAt.Format("2006-01-02 15:04")
			}
			t.AppendRow(table.Row{s.Store, s.Keys, s.First, s.Last, s.Rows, len(s.Failed), fetched})
		}
		t.Render()

		for _, s := range status {
			if len(s.Failed) > 0 {
				fmt.Fprintf(w, "\n%s failed keys: %s\n", s.Store, strings.Join(s.Failed, ", "))
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteLinks writes team links and the names left unmatched
func WriteLinks(w io.Writer, res teams.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case FormatText:
		if len(res.Links) == 0 && len(res.Unmatched) == 0 {
			fmt.Fprintln(w, "No team names found.")
			return nil
		}
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"Score site", "Stat site", "Similarity"})
		for _, l := range res.Links {
			t.AppendRow(table.Row{l.Score, l.Stat, fmt.Sprintf("%.3f", l.Similarity)})
		}
		t.Render()
		if len(res.Unmatched) > 0 {
			fmt.Fprintf(w, "\nUnmatched (%d): %s\n", len(res.Unmatched), strings.Join(res.Unmatched, ", "))
		}
		fmt.Fprintf(w, "\nTotal: %d linked, %d unmatched\n", len(res.Links), len(res.Unmatched))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
