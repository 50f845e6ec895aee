package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/checktree/pkg/tree"
)

// TermProfile holds the detected terminal color profile, computed once at
// package init.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns hex on TrueColor terminals and no color otherwise, so
// limited palettes keep the terminal's own background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns hex on ANSI256+ terminals and ANSI white otherwise.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme holds every style the picker renders with. Styles are built once so
// rendering a frame allocates no new lipgloss.Style values.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor

	Base     lipgloss.Style
	Selected lipgloss.Style
	Header   lipgloss.Style
	Footer   lipgloss.Style

	Checked   lipgloss.Style
	Partial   lipgloss.Style
	Unchecked lipgloss.Style
	Folder    lipgloss.Style
	Leaf      lipgloss.Style
	Arrow     lipgloss.Style
	Count     lipgloss.Style

	SearchPrompt lipgloss.Style
	StatusOK     lipgloss.Style
	StatusError  lipgloss.Style

	DetailBox   lipgloss.Style
	DetailTitle lipgloss.Style
	DetailKey   lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired adaptive theme.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer:  r,
		Primary:   ColorPrimary,
		Secondary: ColorSecondary,
		Muted:     ColorMuted,
		Border:    ColorBorder,
		Highlight: ColorHighlight,
	}

	t.Base = r.NewStyle().Foreground(ColorText)

	t.Selected = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.Footer = r.NewStyle().Foreground(t.Muted)

	t.Checked = r.NewStyle().Foreground(ColorSuccess).Bold(true)
	t.Partial = r.NewStyle().Foreground(ColorWarning).Bold(true)
	t.Unchecked = r.NewStyle().Foreground(t.Secondary)
	t.Folder = r.NewStyle().Foreground(ColorText).Bold(true)
	t.Leaf = r.NewStyle().Foreground(ColorText)
	t.Arrow = r.NewStyle().Foreground(t.Primary)
	t.Count = r.NewStyle().Foreground(t.Muted)

	t.SearchPrompt = r.NewStyle().Foreground(ColorInfo).Bold(true)
	t.StatusOK = r.NewStyle().Foreground(ColorSuccess)
	t.StatusError = r.NewStyle().Foreground(ColorDanger).Bold(true)

	t.DetailBox = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 1)
	t.DetailTitle = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.DetailKey = r.NewStyle().Foreground(ThemeFg("#8BE9FD"))

	return t
}

// CheckboxStyle returns the glyph and style for a checkbox state.
func (t Theme) CheckboxStyle(s tree.CheckState) (string, lipgloss.Style) {
	switch s {
	case tree.Checked:
		return GlyphChecked, t.Checked
	case tree.Indeterminate:
		return GlyphPartial, t.Partial
	default:
		return GlyphUnchecked, t.Unchecked
	}
}

// TestTheme returns a theme suitable for use in tests.
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
