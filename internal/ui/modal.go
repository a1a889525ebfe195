package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// overlay centers a bordered modal on a blank background.
func (m Model) overlay(content string, width int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(width)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(content),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

// renderCompose renders the new-post modal.
func (m Model) renderCompose() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("New post"))
	b.WriteString("\n\n")
	b.WriteString(m.composeInput.View())
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("enter to post, esc to cancel"))

	return m.overlay(b.String(), 60)
}

// renderLogin renders the credential form.
func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Log in"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Username"))
	b.WriteString("\n")
	b.WriteString(m.loginInputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.loginInputs[1].View())
	b.WriteString("\n\n")

	switch {
	case m.loginBusy:
		b.WriteString(styles.InfoText.Render("Signing in…"))
	case m.loginErr != nil:
		b.WriteString(styles.DangerText.Render(truncate(m.loginErr.Error(), 44)))
	default:
		b.WriteString(styles.FaintText.Render("tab to switch, enter to submit, esc to cancel"))
	}

	return m.overlay(b.String(), 50)
}
