package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"ripple/internal/api"
	"ripple/internal/feed"
)

// renderFeed renders the post list, with the comments panel alongside when
// open.
func (m Model) renderFeed() string {
	list := m.renderPostList()
	if !m.commentsOpen {
		return list
	}

	listWidth := m.width / 2
	left := lipgloss.NewStyle().Width(listWidth).Render(list)
	right := m.renderComments(m.width - listWidth - 1)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)
}

func (m Model) renderPostList() string {
	styles := m.theme.Styles()
	if m.feed == nil {
		return styles.FaintText.Render("no feed")
	}

	posts := m.feed.Posts()
	if len(posts) == 0 {
		switch m.feed.Phase() {
		case feed.PhaseLoading:
			return styles.MutedText.Render("Loading feed…")
		default:
			return styles.FaintText.Render("Nothing here yet. Press r to refresh.")
		}
	}

	width := m.width
	if m.commentsOpen {
		width = m.width / 2
	}

	rowsAvail := m.height - 4 // header, command bar, footer
	perPost := 3              // author line, content line, spacer
	visible := rowsAvail / perPost
	if visible < 1 {
		visible = 1
	}

	start := 0
	if m.selectedRow >= visible {
		start = m.selectedRow - visible + 1
	}
	end := start + visible
	if end > len(posts) {
		end = len(posts)
	}

	now := time.Now()
	var b strings.Builder
	for i := start; i < end; i++ {
		b.WriteString(m.renderPostRow(posts[i], i == m.selectedRow, width, now))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderFeedFooter(len(posts)))
	return b.String()
}

func (m Model) renderPostRow(post api.Post, selected bool, width int, now time.Time) string {
	styles := m.theme.Styles()

	nameStyle := styles.AccentText
	bodyStyle := styles.Text
	metaStyle := styles.MutedText
	if selected {
		nameStyle = styles.Selected.Bold(true)
		bodyStyle = styles.Selected
		metaStyle = styles.Selected
	}

	heartStyle := metaStyle
	heart := "♡"
	if post.IsLiked {
		heart = "♥"
		heartStyle = styles.DangerText
		if selected {
			heartStyle = styles.Selected.Bold(true)
		}
	}

	marker := "  "
	if selected {
		marker = styles.AccentText.Render("▌") + " "
	}

	meta := heartStyle.Render(fmt.Sprintf("%s %d", heart, post.LikesCount)) +
		metaStyle.Render(fmt.Sprintf("  ◦ %d  ◦ %s", post.CommentsCount, relativeTime(post.CreatedAt, now)))

	header := marker + nameStyle.Render(post.Author.Name()) + "  " + meta

	// Image posts show their URL; uploads are out of scope for a terminal.
	text := firstLine(post.Content)
	if post.ImageURL != "" {
		if text == "" {
			text = post.ImageURL
		} else {
			text += "  " + post.ImageURL
		}
	}
	body := "  " + bodyStyle.Render(truncate(text, width-4))

	return header + "\n" + body + "\n"
}

func (m Model) renderFeedFooter(shown int) string {
	styles := m.theme.Styles()
	if m.feed == nil {
		return ""
	}
	switch m.feed.Phase() {
	case feed.PhaseLoadingMore:
		return styles.MutedText.Render("loading more…")
	case feed.PhaseEnd:
		return styles.FaintText.Render(fmt.Sprintf("— end of feed (%d posts) —", shown))
	default:
		return styles.FaintText.Render("press m for more")
	}
}
