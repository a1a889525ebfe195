package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// renderComments renders the side panel for the selected post's comments.
// The list is fetched lazily when the panel opens; pushed comment events
// keep it current while it stays open.
func (m Model) renderComments(width int) string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Comments"))
	b.WriteString("\n\n")

	switch {
	case m.commentsLoading:
		b.WriteString(styles.MutedText.Render("Loading…"))
	case m.commentsErr != nil:
		b.WriteString(styles.DangerText.Render(truncate(m.commentsErr.Error(), width-4)))
	case len(m.comments) == 0:
		b.WriteString(styles.FaintText.Render("No comments yet."))
	default:
		now := time.Now()
		for i, comment := range m.comments {
			nameStyle := styles.AccentText
			bodyStyle := styles.Text
			if i == m.commentSelected {
				nameStyle = styles.Selected.Bold(true)
				bodyStyle = styles.Selected
			}
			b.WriteString(nameStyle.Render(comment.Author.Name()))
			b.WriteString(styles.MutedText.Render("  " + relativeTime(comment.CreatedAt, now)))
			b.WriteString("\n")
			b.WriteString(bodyStyle.Render(truncate(firstLine(comment.Content), width-4)))
			b.WriteString("\n\n")
		}
		b.WriteString(styles.FaintText.Render(plural(len(m.comments), "comment")))
	}

	if m.commentTyping {
		b.WriteString("\n\n")
		b.WriteString(styles.MutedText.Render("› "))
		b.WriteString(m.commentInput.View())
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 1).
		Width(width - 2).
		Height(m.height - 5)

	return panel.Render(b.String())
}
