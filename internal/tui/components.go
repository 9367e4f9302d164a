package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/blogr/internal/search"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// renderMuted renders text in muted color (utility wrapper).
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders help/instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderBadge renders a small pill, used for the post count.
func renderBadge(text string) string {
	return BadgeStyle.Render(text)
}

// renderHighlighted marks every case-insensitive occurrence of term in text.
func renderHighlighted(text, term string) string {
	if strings.TrimSpace(term) == "" {
		return text
	}
	var b strings.Builder
	for _, seg := range search.Segments(text, term) {
		if seg.Match {
			b.WriteString(HighlightStyle.Render(seg.Text))
		} else {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// renderSeparator draws the rule between content and the status bar.
func renderSeparator(width int) string {
	separatorWidth := width - 2
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	return SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))
}
