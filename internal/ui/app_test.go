package ui

import (
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"ripple/internal/api"
	"ripple/internal/bus"
	"ripple/internal/feed"
	"ripple/internal/push"
	"ripple/internal/session"
)

func testModel() Model {
	b := bus.New(zerolog.New(io.Discard))
	m := New(Options{
		Session: session.New(nil, nil, b, zerolog.New(io.Discard)),
		Feed:    feed.NewView(0),
	})
	m.width = 80
	m.height = 24
	m.ready = true
	return m
}

func applyPage(m Model, posts ...api.Post) Model {
	m.feed.BeginLoad()
	out, _ := m.Update(pageMsg{requested: 1, page: api.PostPage{
		Posts: posts,
		Total: len(posts),
		Page:  1,
	}})
	return out.(Model)
}

func TestPageMsgPopulatesFeed(t *testing.T) {
	m := applyPage(testModel(),
		api.Post{ID: 2, Content: "second"},
		api.Post{ID: 1, Content: "first"},
	)

	if got := m.feed.Len(); got != 2 {
		t.Fatalf("feed len = %d, want 2", got)
	}
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestPageErrorKeepsFeedAndSetsNotice(t *testing.T) {
	m := applyPage(testModel(), api.Post{ID: 1, Content: "keep me"})

	m.feed.BeginLoad()
	out, _ := m.Update(pageMsg{requested: 1, err: io.ErrUnexpectedEOF})
	m = out.(Model)

	if got := m.feed.Len(); got != 1 {
		t.Fatalf("feed len after failure = %d, want 1", got)
	}
	if m.notice == "" {
		t.Fatal("expected a failure notice")
	}
}

func TestLaterPageErrorStaysSilent(t *testing.T) {
	m := testModel()
	m.feed.BeginLoad()
	out, _ := m.Update(pageMsg{requested: 1, page: api.PostPage{
		Posts:   []api.Post{{ID: 2}, {ID: 1}},
		Total:   5,
		Page:    1,
		HasMore: true,
	}})
	m = out.(Model)

	_, ok := m.feed.BeginLoadMore()
	if !ok {
		t.Fatal("expected a next page to fetch")
	}
	out, _ = m.Update(pageMsg{requested: 2, err: io.ErrUnexpectedEOF})
	m = out.(Model)

	if m.notice != "" {
		t.Fatalf("later-page failure raised a notice: %q", m.notice)
	}
	if got := m.feed.Len(); got != 2 {
		t.Fatalf("feed len after failure = %d, want 2", got)
	}
	if m.feed.LastError() == nil {
		t.Fatal("failure should still be recorded on the feed")
	}
	if len(m.activity) == 0 {
		t.Fatal("failure should still land in the activity log")
	}
}

func TestSelectionClampsAfterFeedShrinks(t *testing.T) {
	m := applyPage(testModel(),
		api.Post{ID: 3}, api.Post{ID: 2}, api.Post{ID: 1},
	)
	m.selectedRow = 2

	m.feed.ApplyPostDeleted(1)
	m.feed.ApplyPostDeleted(2)
	out, _ := m.Update(FeedUpdatedMsg{})
	m = out.(Model)

	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0 after shrink", m.selectedRow)
	}
}

func TestMaxReconnectMarksConnectionLost(t *testing.T) {
	m := testModel()

	out, _ := m.Update(ConnEventMsg{Event: push.EventMaxReconnect, Payload: 5})
	m = out.(Model)

	if !m.connLost {
		t.Fatal("connLost not set after exhausted reconnect budget")
	}
	if len(m.activity) == 0 {
		t.Fatal("activity log empty after connection event")
	}
}

func TestConnectedClearsConnectionLost(t *testing.T) {
	m := testModel()
	m.connLost = true

	out, _ := m.Update(ConnEventMsg{Event: push.EventConnected, Payload: push.ConnectedInfo{}})
	m = out.(Model)

	if m.connLost {
		t.Fatal("connLost still set after reconnect")
	}
}

func TestScrollingAwayWithholdsPushedPosts(t *testing.T) {
	m := applyPage(testModel(), api.Post{ID: 2}, api.Post{ID: 1})

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	out, _ := m.Update(down)
	m = out.(Model)

	m.feed.ApplyNewPost(api.Post{ID: 3})
	if got := m.feed.PendingNew(); got != 1 {
		t.Fatalf("pendingNew = %d, want 1 while scrolled away", got)
	}

	// Returning to the top triggers the consuming refetch.
	top := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}}
	out, cmd := m.Update(top)
	m = out.(Model)
	if cmd == nil {
		t.Fatal("expected a refetch command when returning to top with pending posts")
	}
	if m.selectedRow != 0 {
		t.Fatalf("selectedRow = %d, want 0", m.selectedRow)
	}
}

func TestHelpOverlayTogglesAndSwallowsKeys(t *testing.T) {
	m := testModel()

	help := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}}
	out, _ := m.Update(help)
	m = out.(Model)
	if !m.showHelp {
		t.Fatal("help overlay not shown")
	}

	any := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}
	out, _ = m.Update(any)
	m = out.(Model)
	if m.showHelp {
		t.Fatal("help overlay should close on any key")
	}
}

func TestLikeRequiresAuthentication(t *testing.T) {
	m := applyPage(testModel(), api.Post{ID: 1})

	like := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}}
	out, _ := m.Update(like)
	m = out.(Model)

	if m.notice == "" {
		t.Fatal("anonymous like should prompt for login")
	}
	if post, _ := m.feed.Post(1); post.IsLiked {
		t.Fatal("anonymous like must not toggle state")
	}
}

func TestViewRendersWithoutPanicking(t *testing.T) {
	m := applyPage(testModel(), api.Post{
		ID:      1,
		Content: "hello world",
		Author:  api.UserBrief{Username: "ada"},
	})

	for _, view := range []View{ViewFeed, ViewActivity} {
		m.currentView = view
		if m.View() == "" {
			t.Fatalf("view %d rendered empty", view)
		}
	}

	m.showHelp = true
	if m.View() == "" {
		t.Fatal("help overlay rendered empty")
	}
}
