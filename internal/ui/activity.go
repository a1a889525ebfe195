package ui

import (
	"strings"
)

// renderActivity renders the live event log: connection lifecycle and pushed
// feed events, newest at the bottom.
func (m Model) renderActivity() string {
	styles := m.theme.Styles()

	if len(m.activity) == 0 {
		return styles.FaintText.Render("No activity yet.")
	}

	rows := m.height - 3
	if rows < 1 {
		rows = 1
	}
	start := 0
	if len(m.activity) > rows {
		start = len(m.activity) - rows
	}

	var b strings.Builder
	for i := start; i < len(m.activity); i++ {
		entry := m.activity[i]
		textStyle := styles.Text
		if entry.alert {
			textStyle = styles.WarningText
		}
		b.WriteString(styles.FaintText.Render(entry.at.Format("15:04:05")))
		b.WriteString("  ")
		b.WriteString(styles.MutedText.Render(padKind(entry.kind)))
		b.WriteString("  ")
		b.WriteString(textStyle.Render(truncate(entry.text, m.width-22)))
		if i < len(m.activity)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func padKind(kind string) string {
	const width = 8
	if len(kind) >= width {
		return kind[:width]
	}
	return kind + strings.Repeat(" ", width-len(kind))
}
