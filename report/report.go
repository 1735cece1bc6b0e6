// Package report renders the result journal as a terminal table.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"jobscout/models"
)

// Filter selects which outcomes are shown
type Filter string

const (
	FilterAll        Filter = ""
	FilterBookmarked Filter = "bookmarked"
	FilterSkipped    Filter = "skipped"
	FilterErrors     Filter = "errors"
)

// ParseFilter validates a --only flag value
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterAll, FilterBookmarked, FilterSkipped, FilterErrors:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q, want bookmarked, skipped or errors", s)
	}
}

// Match reports whether o passes the filter
func (f Filter) Match(o models.ClassificationOutcome) bool {
	switch f {
	case FilterBookmarked:
		return o.FinalAction == models.ActionBookmarked
	case FilterSkipped:
		return o.FinalAction == models.ActionSkipped && !o.Failed()
	case FilterErrors:
		return o.Failed() || o.Bookmark == models.BookmarkFailed
	}
	return true
}

// Render writes a table of the outcomes matching filter to w, followed by
// per-action totals
func Render(w io.Writer, outcomes []models.ClassificationOutcome, filter Filter) int {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Job ID", "Action", "Bookmark", "Eligible", "Domain", "Skills", "Note"})

	shown := 0
	totals := map[models.FinalAction]int{}
	for _, o := range outcomes {
		totals[o.FinalAction]++
		if !filter.Match(o) {
			continue
		}
		shown++
		t.AppendRow(table.Row{
			o.ID,
			o.FinalAction,
			o.Bookmark,
			stageCell(o, 1),
			stageCell(o, 2),
			stageCell(o, 3),
			note(o),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d shown", shown),
		fmt.Sprintf("%d bookmarked", totals[models.ActionBookmarked]),
		fmt.Sprintf("%d skipped", totals[models.ActionSkipped]),
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
	return shown
}

func stageCell(o models.ClassificationOutcome, n int) string {
	pass, _, attempted := o.Stage(n)
	switch {
	case !attempted:
		return "-"
	case pass:
		return "yes"
	case o.InconclusiveStage == n:
		return "?"
	case o.Failed():
		return "error"
	}
	return "no"
}

func note(o models.ClassificationOutcome) string {
	if o.Failed() {
		return o.ServiceError
	}
	if o.InconclusiveStage != 0 {
		if answer, ok := o.Answer(o.InconclusiveStage); ok {
			return fmt.Sprintf("stage %d inconclusive: %q", o.InconclusiveStage, truncate(answer, 60))
		}
		return fmt.Sprintf("stage %d inconclusive", o.InconclusiveStage)
	}
	return ""
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "…"
	}
	return s
}
