package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Navigation",
			items: []helpItem{
				{"j/k", "Move down/up"},
				{"g/G", "Go to top/bottom"},
				{"f", "Feed view"},
				{"a", "Activity view"},
				{"esc", "Close panel / back to feed"},
			},
		},
		{
			title: "Feed",
			items: []helpItem{
				{"r", "Refresh (consumes pending posts)"},
				{"m", "Load older posts"},
				{"l", "Like / unlike"},
				{"enter", "Open comments"},
				{"c", "Compose post"},
				{"d", "Delete own post/comment"},
			},
		},
		{
			title: "Comments",
			items: []helpItem{
				{"i", "Write a comment"},
				{"j/k", "Select comment"},
			},
		},
		{
			title: "Session",
			items: []helpItem{
				{"L", "Log in"},
				{"O", "Log out"},
				{"R", "Reconnect push channel"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"e/ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 34)))
	b.WriteString("\n\n")

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	return m.overlay(b.String(), 48)
}
