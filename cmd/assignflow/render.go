package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kingrea/assignflow/internal/artifact"
	"github.com/kingrea/assignflow/internal/tui"
	"github.com/kingrea/assignflow/internal/workflow"
	"github.com/kingrea/assignflow/internal/workflow/selector"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	return tw
}

// statusReport is the JSON shape of `status`.
type statusReport struct {
	selector.Outcome
	Artifacts []artifactRow `json:"artifacts,omitempty"`
}

type artifactRow struct {
	Artifact string         `json:"artifact"`
	Path     string         `json:"path"`
	State    artifact.State `json:"state"`
	Modified *time.Time     `json:"modified,omitempty"`
	Error    string         `json:"error,omitempty"`
}

func artifactRows(checks []artifact.CheckResult) []artifactRow {
	rows := make([]artifactRow, 0, len(checks))
	for _, c := range checks {
		row := artifactRow{Artifact: c.Ref.Rel, Path: c.Path, State: c.State}
		if !c.ModTime.IsZero() {
			mod := c.ModTime
			row.Modified = &mod
		}
		if c.Err != nil {
			row.Error = c.Err.Error()
		}
		rows = append(rows, row)
	}
	return rows
}

func renderStatus(w io.Writer, s selector.Selection, artifacts []artifactRow, now time.Time) {
	res := s.Result
	tw := newTable(w)
	tw.SetTitle(s.Name)
	tw.AppendRows([]table.Row{
		{"State", tui.Badge(res.State)},
		{"Next action", res.NextAction},
		{"Progress", res.Progress.Summary},
		{"Selected", string(s.Method)},
		{"Path", s.Path},
	})
	if res.Revision.Recorded {
		tw.AppendRow(table.Row{"Revision", fmt.Sprintf("design %d, breakdown %d", res.Revision.BrainstormRevision, res.Revision.BreakdownRevision)})
	}
	tw.Render()

	if len(artifacts) > 0 {
		at := newTable(w)
		at.SetTitle("Artifacts")
		at.AppendHeader(table.Row{"Artifact", "State", "Modified", "Note"})
		for _, row := range artifacts {
			modified := ""
			if row.Modified != nil {
				modified = tui.Touched(*row.Modified, now)
			}
			at.AppendRow(table.Row{row.Artifact, row.State, modified, row.Error})
		}
		at.Render()
	}

	if len(res.Blockers) == 0 {
		return
	}
	bt := newTable(w)
	bt.SetTitle("Blockers")
	bt.AppendHeader(table.Row{"Code", "Detail", "Fix"})
	for _, b := range res.Blockers {
		bt.AppendRow(table.Row{b.Code, b.Detail, b.RecommendedFix})
	}
	bt.Render()
}

func renderResume(w io.Writer, s selector.Selection) {
	fmt.Fprintf(w, "Resume %s (%s, %s)\n", s.Name, tui.Badge(s.Result.State), s.Method)
	fmt.Fprintf(w, "  path: %s\n", s.Path)
	fmt.Fprintf(w, "  next: %s\n", s.Result.NextAction)
	switch {
	case s.Result.State.IsBlocking():
		fmt.Fprintln(w, "  blocked: fix this before continuing implementation")
	case s.Result.State.IsTerminal():
		fmt.Fprintln(w, "  done: nothing left to resume here")
	}
	for _, b := range s.Result.Blockers {
		fmt.Fprintf(w, "  blocker %s: %s\n", b.Code, b.RecommendedFix)
	}
}

func renderCandidates(w io.Writer, candidates []selector.Candidate, now time.Time) {
	tw := newTable(w)
	tw.AppendHeader(table.Row{"#", "Assignment", "State", "Priority", "Progress", "Recency", "Blockers"})
	for i, c := range candidates {
		tw.AppendRow(table.Row{
			i + 1,
			c.Name,
			tui.Badge(c.State),
			c.Priority,
			c.Progress,
			tui.Touched(c.Touched(), now),
			len(c.Result.Blockers),
		})
	}
	tw.Render()
}

func renderAmbiguity(w io.Writer, amb selector.Ambiguity, now time.Time) {
	fmt.Fprintf(w, "%d assignments are equally good candidates:\n", len(amb.Candidates))
	renderCandidates(w, amb.Candidates, now)
	fmt.Fprintf(w, "Choose one with %s <name>\n", amb.Flag)
}

func renderMigration(w io.Writer, name string, report workflow.MigrationReport) {
	if len(report.Moved) == 0 && len(report.Skipped) == 0 {
		fmt.Fprintf(w, "%s: no legacy files found\n", name)
		return
	}
	tw := newTable(w)
	tw.SetTitle(name)
	tw.AppendHeader(table.Row{"From", "To", "Result"})
	for _, m := range report.Moved {
		tw.AppendRow(table.Row{m.From, m.To, "moved"})
	}
	for _, m := range report.Skipped {
		tw.AppendRow(table.Row{m.From, m.To, "skipped: target exists"})
	}
	tw.Render()
}
