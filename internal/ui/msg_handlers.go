package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"ripple/internal/api"
	"ripple/internal/prefs"
	"ripple/internal/push"
)

// handleConnEvent records connection lifecycle events and mirrors the state
// the header needs.
func (m Model) handleConnEvent(msg ConnEventMsg) (tea.Model, tea.Cmd) {
	switch msg.Event {
	case push.EventConnected:
		m.connLost = false
		m.record("conn", "connected", false)
		return m, nil

	case push.EventDisconnected:
		if d, ok := msg.Payload.(push.Disconnect); ok {
			m.record("conn", fmt.Sprintf("disconnected (code %d): %s", d.Code, d.Reason), true)
		} else {
			m.record("conn", "disconnected", true)
		}
		return m, nil

	case push.EventError:
		if err, ok := msg.Payload.(error); ok {
			m.record("conn", "connection error: "+err.Error(), true)
		}
		return m, nil

	case push.EventAuthenticated:
		if userID, ok := msg.Payload.(int64); ok {
			m.record("session", fmt.Sprintf("authenticated as user %d", userID), false)
		}
		return m, nil

	case push.EventMaxReconnect:
		m.connLost = true
		m.record("conn", "reconnect attempts exhausted, press R to retry", true)
		return m, m.notify("connection lost, press R to reconnect", true)

	case push.EventNewPost:
		if post, ok := msg.Payload.(api.Post); ok {
			m.record("post", "new post by "+post.Author.Name(), false)
		}
		return m, nil

	case push.EventLikeUpdate:
		if update, ok := msg.Payload.(push.LikeUpdate); ok && update.User != nil {
			verb := "unliked"
			if update.IsLike {
				verb = "liked"
			}
			m.record("like", fmt.Sprintf("%s %s post %d", update.User.Name(), verb, update.PostID), false)
		}
		return m, nil

	case push.EventNewComment:
		if comment, ok := msg.Payload.(push.NewComment); ok {
			m.record("comment", fmt.Sprintf("%s commented on post %d", comment.Comment.Author.Name(), comment.PostID), false)
			// Live-update an open panel for the same post.
			if m.commentsOpen && m.commentsPostID == comment.PostID {
				m.comments = append(m.comments, comment.Comment)
			}
		}
		return m, nil

	case push.EventCommentDeleted:
		if deleted, ok := msg.Payload.(push.CommentDeleted); ok {
			m.record("comment", fmt.Sprintf("comment removed from post %d", deleted.PostID), false)
			if m.commentsOpen && m.commentsPostID == deleted.PostID {
				m.removeComment(deleted.CommentID)
			}
		}
		return m, nil

	case push.EventPostDeleted:
		if deleted, ok := msg.Payload.(push.PostDeleted); ok {
			m.record("post", fmt.Sprintf("post %d deleted", deleted.PostID), false)
			if m.commentsOpen && m.commentsPostID == deleted.PostID {
				m.closeComments()
			}
			m.clampSelection()
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handlePage(msg pageMsg) (tea.Model, tea.Cmd) {
	if m.feed == nil {
		return m, nil
	}
	if msg.err != nil {
		m.feed.LoadFailed(msg.err)
		// Later-page failures stay quiet; the feed keeps what it has and the
		// next scroll retries. Only a first-page failure gets a notice.
		if msg.requested > 1 {
			m.record("feed", "page fetch failed: "+msg.err.Error(), true)
			return m, nil
		}
		return m, m.notify("feed fetch failed: "+msg.err.Error(), true)
	}
	page := msg.page.Page
	if page == 0 {
		page = msg.requested
	}
	m.feed.ApplyPage(page, msg.page.Posts, msg.page.Total, msg.page.HasMore)
	m.clampSelection()
	m.syncAtTop()
	return m, nil
}

func (m Model) handleLikeDone(msg likeDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.feed.Revert(msg.intent)
		return m, m.notify("like failed: "+msg.err.Error(), true)
	}
	// The REST response is as authoritative as a push event; applying it here
	// settles the toggle even if the socket is down.
	var viewer *api.UserBrief
	if m.session != nil && m.session.UserID() != 0 {
		viewer = &api.UserBrief{ID: m.session.UserID(), Username: m.session.Username()}
	}
	m.feed.ApplyLikeUpdate(push.LikeUpdate{
		PostID:     msg.intent.PostID,
		LikesCount: msg.status.LikesCount,
		User:       viewer,
		IsLike:     msg.status.IsLiked,
	})
	return m, nil
}

func (m Model) handleComments(msg commentsMsg) (tea.Model, tea.Cmd) {
	if !m.commentsOpen || m.commentsPostID != msg.postID {
		return m, nil
	}
	m.commentsLoading = false
	if msg.err != nil {
		m.commentsErr = msg.err
		return m, nil
	}
	m.comments = msg.list.Comments
	m.commentSelected = clamp(m.commentSelected, 0, len(m.comments)-1)
	return m, nil
}

func (m Model) handleCommentCreated(msg commentCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.notify("comment failed: "+msg.err.Error(), true)
	}
	if m.commentsOpen && m.commentsPostID == msg.postID {
		// The push echo for our own comment is skipped by id below.
		if !m.hasComment(msg.comment.ID) {
			m.comments = append(m.comments, msg.comment)
		}
	}
	m.feed.ApplyNewComment(msg.postID)
	return m, nil
}

func (m Model) handleCommentDeleted(msg commentDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.notify("delete failed: "+msg.err.Error(), true)
	}
	if m.commentsOpen && m.commentsPostID == msg.postID {
		m.removeComment(msg.commentID)
	}
	m.feed.ApplyCommentDeleted(msg.postID)
	return m, nil
}

func (m Model) handlePostCreated(msg postCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.notify("post failed: "+msg.err.Error(), true)
	}
	m.feed.InsertOwn(msg.post)
	m.selectedRow = 0
	m.syncAtTop()
	return m, m.notify("posted", false)
}

func (m Model) handlePostDeleted(msg postDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, m.notify("delete failed: "+msg.err.Error(), true)
	}
	m.feed.ApplyPostDeleted(msg.id)
	if m.commentsOpen && m.commentsPostID == msg.id {
		m.closeComments()
	}
	m.clampSelection()
	return m, nil
}

func (m Model) handleLogin(msg loginMsg) (tea.Model, tea.Cmd) {
	m.loginBusy = false
	if msg.err != nil {
		m.loginErr = msg.err
		return m, nil
	}
	if m.session != nil {
		if err := m.session.Start(msg.token.AccessToken); err != nil {
			m.loginErr = err
			return m, nil
		}
		m.feed.SetViewer(m.session.UserID())
	}
	m.loginOpen = false
	for i := range m.loginInputs {
		m.loginInputs[i].Blur()
	}
	if m.prefsPath != "" {
		saved := prefs.Load(m.prefsPath)
		saved.Username = msg.username
		_ = prefs.Save(m.prefsPath, saved)
	}
	m.record("session", "logged in as "+msg.username, false)
	// Refetch so is_liked flags reflect the new viewer.
	return m, m.refreshFeed()
}

func (m *Model) hasComment(id int64) bool {
	for _, c := range m.comments {
		if c.ID == id {
			return true
		}
	}
	return false
}

func (m *Model) removeComment(id int64) {
	for i, c := range m.comments {
		if c.ID == id {
			m.comments = append(m.comments[:i:i], m.comments[i+1:]...)
			break
		}
	}
	m.commentSelected = clamp(m.commentSelected, 0, len(m.comments)-1)
}
