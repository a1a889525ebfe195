package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ripple/internal/prefs"
)

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays capture all input while open.
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.loginOpen {
		return m.handleLoginKey(msg)
	}
	if m.composeOpen {
		return m.handleComposeKey(msg)
	}
	if m.commentsOpen && m.commentTyping {
		return m.handleCommentInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		if m.prefsPath != "" {
			saved := prefs.Load(m.prefsPath)
			saved.Theme = m.theme.Name
			_ = prefs.Save(m.prefsPath, saved)
		}
		return m, nil

	case key.Matches(msg, m.keys.Escape):
		if m.commentsOpen {
			m.closeComments()
			return m, nil
		}
		m.currentView = ViewFeed
		m.syncAtTop()
		return m, nil

	case key.Matches(msg, m.keys.ViewActivity):
		m.currentView = ViewActivity
		m.syncAtTop()
		return m, nil

	case key.Matches(msg, m.keys.ViewFeed):
		m.currentView = ViewFeed
		m.syncAtTop()
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		if m.session != nil {
			m.session.Reconnect()
			m.connLost = false
			m.record("conn", "manual reconnect requested", false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Login):
		if m.session != nil && !m.session.Authenticated() {
			return m.openLogin(), nil
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m.handleLogout()
	}

	if m.currentView == ViewFeed {
		return m.handleFeedKey(msg)
	}
	return m, nil
}

// handleFeedKey processes keys in the feed view, comments panel included.
func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.commentsOpen {
			m.commentSelected = clamp(m.commentSelected+1, 0, len(m.comments)-1)
			return m, nil
		}
		m.selectedRow = clamp(m.selectedRow+1, 0, m.feedLen()-1)
		m.syncAtTop()
		return m, m.maybeLoadMore()

	case key.Matches(msg, m.keys.Up):
		if m.commentsOpen {
			m.commentSelected = clamp(m.commentSelected-1, 0, len(m.comments)-1)
			return m, nil
		}
		m.selectedRow = clamp(m.selectedRow-1, 0, m.feedLen()-1)
		m.syncAtTop()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.selectedRow = 0
		m.syncAtTop()
		return m, m.maybeConsumePending()

	case key.Matches(msg, m.keys.Bottom):
		m.selectedRow = clamp(m.feedLen()-1, 0, m.feedLen()-1)
		m.syncAtTop()
		return m, m.maybeLoadMore()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshFeed()

	case key.Matches(msg, m.keys.LoadMore):
		return m, m.loadMore()

	case key.Matches(msg, m.keys.Like):
		return m.handleLikeKey()

	case key.Matches(msg, m.keys.Compose):
		if m.session == nil || !m.session.Authenticated() {
			return m, m.notify("log in to post (L)", false)
		}
		m.composeOpen = true
		m.composeInput.SetValue("")
		m.composeInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.commentsOpen {
			return m.handleDeleteCommentKey()
		}
		return m.handleDeleteKey()

	case key.Matches(msg, m.keys.Comments):
		return m.handleCommentsKey()
	}

	// "i" starts a comment while the panel is open.
	if m.commentsOpen && msg.String() == "i" {
		if m.session == nil || !m.session.Authenticated() {
			return m, m.notify("log in to comment (L)", false)
		}
		m.commentTyping = true
		m.commentInput.SetValue("")
		m.commentInput.Focus()
		return m, nil
	}

	return m, nil
}

func (m Model) feedLen() int {
	if m.feed == nil {
		return 0
	}
	return m.feed.Len()
}

// refreshFeed refetches page one. This is also how withheld pushed posts are
// consumed: the first page lands, the pending counter resets.
func (m *Model) refreshFeed() tea.Cmd {
	if m.feed == nil || !m.feed.BeginLoad() {
		return nil
	}
	m.selectedRow = 0
	m.syncAtTop()
	return fetchPageCmd(m.ctx, m.client, 1, m.pageSize())
}

func (m *Model) loadMore() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	page, ok := m.feed.BeginLoadMore()
	if !ok {
		return nil
	}
	return fetchPageCmd(m.ctx, m.client, page, m.pageSize())
}

// maybeLoadMore fetches the next page when the selection reaches the end.
func (m *Model) maybeLoadMore() tea.Cmd {
	if m.feed == nil || m.selectedRow < m.feed.Len()-1 {
		return nil
	}
	return m.loadMore()
}

// maybeConsumePending refetches page one when the user returns to the top
// with withheld posts waiting.
func (m *Model) maybeConsumePending() tea.Cmd {
	if m.feed == nil || m.feed.PendingNew() == 0 {
		return nil
	}
	return m.refreshFeed()
}

func (m Model) handleLikeKey() (tea.Model, tea.Cmd) {
	if m.session == nil || !m.session.Authenticated() {
		return m, m.notify("log in to like posts (L)", false)
	}
	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}
	intent, ok := m.feed.ToggleLike(post.ID)
	if !ok {
		return m, nil
	}
	return m, likeCmd(m.ctx, m.client, intent)
}

func (m Model) handleDeleteKey() (tea.Model, tea.Cmd) {
	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}
	if m.session == nil || !m.session.Authenticated() || post.AuthorID != m.session.UserID() {
		return m, m.notify("only your own posts can be deleted", false)
	}
	// First press arms, second press on the same post confirms.
	if m.pendingDeleteID != post.ID {
		m.pendingDeleteID = post.ID
		return m, m.notify("press d again to delete", false)
	}
	m.pendingDeleteID = 0
	return m, deletePostCmd(m.ctx, m.client, post.ID)
}

func (m Model) handleDeleteCommentKey() (tea.Model, tea.Cmd) {
	if m.commentSelected < 0 || m.commentSelected >= len(m.comments) {
		return m, nil
	}
	comment := m.comments[m.commentSelected]
	if m.session == nil || !m.session.Authenticated() || comment.AuthorID != m.session.UserID() {
		return m, m.notify("only your own comments can be deleted", false)
	}
	return m, deleteCommentCmd(m.ctx, m.client, m.commentsPostID, comment.ID)
}

func (m Model) handleCommentsKey() (tea.Model, tea.Cmd) {
	if m.commentsOpen {
		m.closeComments()
		return m, nil
	}
	post, ok := m.selectedPost()
	if !ok {
		return m, nil
	}
	m.commentsOpen = true
	m.commentsPostID = post.ID
	m.commentsLoading = true
	m.commentsErr = nil
	m.comments = nil
	m.commentSelected = 0
	return m, fetchCommentsCmd(m.ctx, m.client, post.ID)
}

func (m *Model) closeComments() {
	m.commentsOpen = false
	m.commentTyping = false
	m.comments = nil
	m.commentsErr = nil
	m.commentInput.Blur()
}

func (m Model) handleLogout() (tea.Model, tea.Cmd) {
	if m.session == nil || !m.session.Authenticated() {
		return m, nil
	}
	m.session.Stop()
	m.feed.SetViewer(0)
	m.record("session", "logged out", false)
	// Reconnect anonymously so the feed keeps flowing read-only.
	m.session.StartAnonymous()
	return m, m.notify("logged out", false)
}

// Modal key handling

func (m Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.composeOpen = false
		m.composeInput.Blur()
		return m, nil
	case "enter":
		content := strings.TrimSpace(m.composeInput.Value())
		if content == "" {
			return m, nil
		}
		m.composeOpen = false
		m.composeInput.Blur()
		return m, createPostCmd(m.ctx, m.client, content)
	}
	var cmd tea.Cmd
	m.composeInput, cmd = m.composeInput.Update(msg)
	return m, cmd
}

func (m Model) handleCommentInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.commentTyping = false
		m.commentInput.Blur()
		return m, nil
	case "enter":
		content := strings.TrimSpace(m.commentInput.Value())
		if content == "" {
			return m, nil
		}
		m.commentTyping = false
		m.commentInput.Blur()
		return m, createCommentCmd(m.ctx, m.client, m.commentsPostID, content)
	}
	var cmd tea.Cmd
	m.commentInput, cmd = m.commentInput.Update(msg)
	return m, cmd
}

func (m Model) openLogin() Model {
	m.loginOpen = true
	m.loginErr = nil
	m.loginBusy = false
	m.loginFocus = 0
	m.loginInputs[0].SetValue("")
	m.loginInputs[1].SetValue("")
	m.loginInputs[0].Focus()
	m.loginInputs[1].Blur()
	return m
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.loginOpen = false
		for i := range m.loginInputs {
			m.loginInputs[i].Blur()
		}
		return m, nil

	case "tab", "shift+tab", "up", "down":
		m.loginFocus = 1 - m.loginFocus
		for i := range m.loginInputs {
			if i == m.loginFocus {
				m.loginInputs[i].Focus()
			} else {
				m.loginInputs[i].Blur()
			}
		}
		return m, nil

	case "enter":
		if m.loginBusy {
			return m, nil
		}
		username := strings.TrimSpace(m.loginInputs[0].Value())
		password := m.loginInputs[1].Value()
		if username == "" || password == "" {
			return m, nil
		}
		m.loginBusy = true
		return m, loginCmd(m.ctx, m.client, username, password)
	}

	var cmd tea.Cmd
	m.loginInputs[m.loginFocus], cmd = m.loginInputs[m.loginFocus].Update(msg)
	return m, cmd
}
