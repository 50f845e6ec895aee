package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/checktree/pkg/tree"
)

// detailPane renders information about the node under the cursor. String
// data is treated as markdown; anything else is shown as YAML.
type detailPane struct {
	width    int
	renderer *glamour.TermRenderer
	// cache of the last rendered markdown keyed by node and width
	lastID, lastOut string
	lastWidth       int
}

func newDetailPane(width int) *detailPane {
	d := &detailPane{}
	d.setWidth(width)
	return d
}

func (d *detailPane) setWidth(width int) {
	if width == d.width && d.renderer != nil {
		return
	}
	d.width = width
	d.renderer = nil
	d.lastID = ""
	if width <= 4 {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		d.renderer = r
	}
}

// path returns the labels from the top-level ancestor down to id.
func nodePath(e *tree.Engine, id string) []string {
	var labels []string
	cur := id
	for i := 0; i <= e.Len(); i++ {
		parent, ok := e.Parent(cur)
		if !ok || parent == e.RootID() {
			break
		}
		labels = append(labels, e.Label(parent))
		cur = parent
	}
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return labels
}

// formatData renders passthrough data. Markdown strings go through glamour
// when a renderer is available.
func (d *detailPane) formatData(id string, data any) string {
	switch v := data.(type) {
	case nil:
		return ""
	case string:
		if d.renderer == nil {
			return v
		}
		if id == d.lastID && d.width == d.lastWidth {
			return d.lastOut
		}
		out, err := d.renderer.Render(v)
		if err != nil {
			return v
		}
		out = strings.TrimRight(out, "\n ")
		d.lastID, d.lastOut, d.lastWidth = id, out, d.width
		return out
	default:
		b, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return strings.TrimRight(string(b), "\n")
	}
}

// View renders the pane for id.
func (d *detailPane) View(t Theme, e *tree.Engine, id string, height int) string {
	if d.width <= 4 || id == "" {
		return ""
	}
	inner := d.width - 4

	var sb strings.Builder
	sb.WriteString(t.DetailTitle.Render(truncate(e.Label(id), inner)))
	sb.WriteString("\n")
	sb.WriteString(t.DetailKey.Render("id ") + truncate(id, inner-3))
	sb.WriteString("\n")
	if p := nodePath(e, id); len(p) > 0 {
		sb.WriteString(t.DetailKey.Render("in ") + truncate(strings.Join(p, " / "), inner-3))
		sb.WriteString("\n")
	}
	sb.WriteString(t.DetailKey.Render("state ") + e.ViewState(id).String())
	if e.IsFolder(id) {
		sb.WriteString(fmt.Sprintf(" (%d children)", len(e.Children(id))))
	}
	sb.WriteString("\n")

	if body := d.formatData(id, e.Data(id)); body != "" {
		sb.WriteString("\n")
		sb.WriteString(body)
	}

	content := sb.String()
	lines := strings.Split(content, "\n")
	if height > 2 && len(lines) > height-2 {
		lines = lines[:height-2]
		content = strings.Join(lines, "\n")
	}
	return t.DetailBox.Width(inner).Render(content)
}
