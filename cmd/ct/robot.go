package main

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/checktree/pkg/metrics"
	"github.com/vanderheijden86/checktree/pkg/tree"
)

type robotMode int

const (
	robotModeVisible robotMode = iota
	robotModeChecked
	robotModeMetrics
)

// robotRow is one visible row as printed by -robot-visible.
type robotRow struct {
	tree.Row
	Label string `json:"label"`
	State string `json:"state"`
}

type visibleOutput struct {
	Query        string     `json:"query,omitempty"`
	SearchActive bool       `json:"search_active"`
	MatchCount   int        `json:"match_count,omitempty"`
	Rows         []robotRow `json:"rows"`
}

type checkedOutput struct {
	Count   int      `json:"count"`
	Checked []string `json:"checked"`
}

func writeRobot(w io.Writer, e *tree.Engine, mode robotMode) error {
	var data []byte
	var err error

	switch mode {
	case robotModeVisible:
		data, err = json.MarshalIndent(visibleRows(e), "", "  ")
	case robotModeChecked:
		checked := e.AllChecked()
		if checked == nil {
			checked = []string{}
		}
		data, err = json.MarshalIndent(checkedOutput{Count: len(checked), Checked: checked}, "", "  ")
	case robotModeMetrics:
		// Rows are built so the report has flatten and resolver samples.
		_ = visibleRows(e)
		_ = e.AllChecked()
		data, err = metrics.MarshalReport()
	default:
		return fmt.Errorf("unknown robot mode %d", mode)
	}
	if err != nil {
		return fmt.Errorf("encoding robot output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func visibleRows(e *tree.Engine) visibleOutput {
	items := e.VisibleItems()
	out := visibleOutput{
		Query:        e.SearchQuery(),
		SearchActive: e.IsSearchActive(),
		Rows:         make([]robotRow, 0, len(items)),
	}
	if out.SearchActive {
		out.MatchCount = e.MatchCount()
	}
	for _, r := range items {
		out.Rows = append(out.Rows, robotRow{
			Row:   r,
			Label: e.Label(r.ID),
			State: e.ViewState(r.ID).String(),
		})
	}
	return out
}
