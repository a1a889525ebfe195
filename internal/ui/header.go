package ui

import (
	"fmt"
	"strings"

	"ripple/internal/feed"
	"ripple/internal/push"
)

// renderHeader renders the status bar: logo, connection state, identity,
// feed stats, pending-post banner and any transient notice.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()

	var parts []string
	parts = append(parts, styles.Logo.Render("ripple"))

	state := push.StateIdle
	if m.transport != nil {
		state = m.transport.State()
	}
	label := strings.ToUpper(state.String())
	if m.connLost {
		label = "LOST"
	}
	parts = append(parts, styles.ConnStyle(state.String()).Render("● "+label))

	if m.session != nil && m.session.Authenticated() {
		parts = append(parts, styles.MutedText.Render("@")+styles.Text.Render(m.session.Username()))
	} else {
		parts = append(parts, styles.FaintText.Render("anonymous"))
	}

	if m.feed != nil {
		count := fmt.Sprintf("%d", m.feed.Len())
		if total := m.feed.Total(); total > 0 {
			count = fmt.Sprintf("%d/%d", m.feed.Len(), total)
		}
		parts = append(parts, styles.MutedText.Render("Posts: ")+styles.Text.Render(count))

		if pending := m.feed.PendingNew(); pending > 0 {
			parts = append(parts, styles.WarningText.Bold(true).Render(
				fmt.Sprintf("▲ %s, press r", plural(pending, "new post"))))
		}

		switch m.feed.Phase() {
		case feed.PhaseLoading, feed.PhaseLoadingMore:
			parts = append(parts, styles.InfoText.Render("fetching…"))
		}

		if err := m.feed.LastError(); err != nil {
			parts = append(parts, styles.DangerText.Render("ERR ")+
				styles.DangerText.Render(truncate(err.Error(), 48)))
		}
	}

	if m.notice != "" {
		style := styles.WarningText
		if m.noticeAlert {
			style = styles.DangerText
		}
		parts = append(parts, style.Render(truncate(m.notice, 64)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

// renderCommandBar renders the key hints line under the header.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.commentsOpen:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"i", "Comment"},
			{"d", "Delete"},
			{"esc", "Close"},
			{"?", "More"},
		}
	case m.currentView == ViewActivity:
		commands = []cmd{
			{"f", "Feed"},
			{"R", "Reconnect"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"l", "Like"},
			{"enter", "Comments"},
			{"c", "Compose"},
			{"r", "Refresh"},
			{"m", "More"},
			{"a", "Activity"},
			{"?", "Help"},
		}
		if m.session != nil && !m.session.Authenticated() {
			commands = append(commands, cmd{"L", "Log in"})
		}
	}

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			styles.AccentText.Render(c.key)+styles.MutedText.Render(":"+c.desc))
	}
	segments = append(segments,
		styles.AccentText.Render("T")+styles.FaintText.Render(":"+m.theme.Name))

	return styles.Header.Width(m.width).Render(strings.Join(segments, "  "))
}
