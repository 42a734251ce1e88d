package app

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskpilot/internal/theme"
)

// Layout holds the terminal dimensions of the live view.
type Layout struct {
	Width  int
	Height int
}

// chrome is the number of rows used by the header, tabs and status bar.
const chrome = 4

// ContentHeight returns the rows available for the list.
func (l Layout) ContentHeight() int {
	if h := l.Height - chrome; h > 1 {
		return h
	}
	return 1
}

// RenderBar renders a full-width bar with text on the left and right.
func (l Layout) RenderBar(style lipgloss.Style, left, right string) string {
	leftRendered := style.Render(left)
	rightRendered := ""
	if right != "" {
		rightRendered = style.Align(lipgloss.Right).Render(right)
	}

	gap := l.Width - lipgloss.Width(leftRendered) - lipgloss.Width(rightRendered)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, filler, rightRendered)
}

// RenderHeader renders the title bar.
func (l Layout) RenderHeader(title, status string) string {
	return l.RenderBar(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders the bottom bar.
func (l Layout) RenderStatusBar(text string) string {
	return l.RenderBar(theme.StatusBarStyle, text, "")
}

// RenderWithFrame stacks the header, tabs, content and status bar.
func (l Layout) RenderWithFrame(header, tabs, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, statusBar)
}
