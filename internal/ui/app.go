// Package ui provides the Bubble Tea TUI for Ripple.
package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ripple/internal/api"
	"ripple/internal/config"
	"ripple/internal/feed"
	"ripple/internal/prefs"
	"ripple/internal/push"
	"ripple/internal/session"
)

// View represents the current active view.
type View int

const (
	ViewFeed View = iota
	ViewActivity
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    *api.Client
	Session   *session.Session
	Feed      *feed.View
	Transport *push.Transport
	Config    *config.Config
	ThemeName string
	PrefsPath string
}

// activityEntry is one line of the live event log.
type activityEntry struct {
	at    time.Time
	kind  string
	text  string
	alert bool
}

const maxActivity = 200

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	client    *api.Client
	session   *session.Session
	feed      *feed.View
	transport *push.Transport
	config    *config.Config
	prefsPath string
	keys      keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool

	// Feed state
	selectedRow     int
	pendingDeleteID int64 // armed by the first delete press on a post

	// Comments panel
	commentsOpen    bool
	commentsPostID  int64
	comments        []api.Comment
	commentsLoading bool
	commentsErr     error
	commentSelected int
	commentInput    textinput.Model
	commentTyping   bool

	// Compose modal
	composeOpen  bool
	composeInput textinput.Model

	// Login modal
	loginOpen   bool
	loginInputs [2]textinput.Model // username, password
	loginFocus  int
	loginBusy   bool
	loginErr    error

	// Activity log
	activity []activityEntry

	// Connection state mirror
	connLost bool // reconnect budget exhausted; manual R required

	// Transient notice shown in the header
	notice      string
	noticeAlert bool
}

// Messages sent from outside the program loop.

// FeedUpdatedMsg signals that a push event mutated the feed view.
type FeedUpdatedMsg struct{}

// ConnEventMsg carries a connection lifecycle event from the bus.
type ConnEventMsg struct {
	Event   string
	Payload any
}

// Internal messages.

type pageMsg struct {
	requested int
	page      api.PostPage
	err       error
}

type likeDoneMsg struct {
	intent feed.ToggleIntent
	status api.LikeStatus
	err    error
}

type commentsMsg struct {
	postID int64
	list   api.CommentList
	err    error
}

type commentCreatedMsg struct {
	postID  int64
	comment api.Comment
	err     error
}

type commentDeletedMsg struct {
	postID    int64
	commentID int64
	err       error
}

type postCreatedMsg struct {
	post api.Post
	err  error
}

type postDeletedMsg struct {
	id  int64
	err error
}

type loginMsg struct {
	username string
	token    api.Token
	err      error
}

type clearNoticeMsg struct{}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Dracula"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	compose := textinput.New()
	compose.Placeholder = "What's happening?"
	compose.CharLimit = 500

	comment := textinput.New()
	comment.Placeholder = "Write a comment"
	comment.CharLimit = 500

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	return Model{
		ctx:          ctx,
		client:       opts.Client,
		session:      opts.Session,
		feed:         opts.Feed,
		transport:    opts.Transport,
		config:       opts.Config,
		prefsPath:    prefsPath,
		keys:         DefaultKeyMap(),
		theme:        GetTheme(themeName),
		currentView:  ViewFeed,
		composeInput: compose,
		commentInput: comment,
		loginInputs:  [2]textinput.Model{username, password},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen}
	if m.feed != nil && m.feed.BeginLoad() {
		cmds = append(cmds, fetchPageCmd(m.ctx, m.client, 1, m.pageSize()))
	}
	return tea.Batch(cmds...)
}

func (m Model) pageSize() int {
	if m.config != nil && m.config.PageSize > 0 {
		return m.config.PageSize
	}
	return 20
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		return m, nil

	case FeedUpdatedMsg:
		m.clampSelection()
		return m, nil

	case ConnEventMsg:
		return m.handleConnEvent(msg)

	case pageMsg:
		return m.handlePage(msg)

	case likeDoneMsg:
		return m.handleLikeDone(msg)

	case commentsMsg:
		return m.handleComments(msg)

	case commentCreatedMsg:
		return m.handleCommentCreated(msg)

	case commentDeletedMsg:
		return m.handleCommentDeleted(msg)

	case postCreatedMsg:
		return m.handlePostCreated(msg)

	case postDeletedMsg:
		return m.handlePostDeleted(msg)

	case loginMsg:
		return m.handleLogin(msg)

	case clearNoticeMsg:
		m.notice = ""
		m.noticeAlert = false
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}
	if m.loginOpen {
		return m.renderLogin()
	}
	if m.composeOpen {
		return m.renderCompose()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewActivity:
		b.WriteString(m.renderActivity())
	default:
		b.WriteString(m.renderFeed())
	}

	return b.String()
}

// NewProgram builds the Bubble Tea program without starting it, so the
// caller can register bus handlers that inject messages via Send first.
func NewProgram(opts Options) *tea.Program {
	return tea.NewProgram(New(opts), tea.WithAltScreen())
}

// notify sets a transient header notice and schedules its removal.
func (m *Model) notify(text string, alert bool) tea.Cmd {
	m.notice = text
	m.noticeAlert = alert
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return clearNoticeMsg{}
	})
}

// record appends one entry to the activity log, trimming the oldest.
func (m *Model) record(kind, text string, alert bool) {
	m.activity = append(m.activity, activityEntry{
		at:    time.Now(),
		kind:  kind,
		text:  text,
		alert: alert,
	})
	if len(m.activity) > maxActivity {
		m.activity = m.activity[len(m.activity)-maxActivity:]
	}
}

func (m *Model) clampSelection() {
	if m.feed == nil {
		return
	}
	m.selectedRow = clamp(m.selectedRow, 0, m.feed.Len()-1)
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// syncAtTop tells the reconciler whether the head of the feed is visible.
func (m *Model) syncAtTop() {
	if m.feed == nil {
		return
	}
	m.feed.SetAtTop(m.selectedRow == 0 && m.currentView == ViewFeed)
}

func (m *Model) selectedPost() (api.Post, bool) {
	if m.feed == nil {
		return api.Post{}, false
	}
	posts := m.feed.Posts()
	if m.selectedRow < 0 || m.selectedRow >= len(posts) {
		return api.Post{}, false
	}
	return posts[m.selectedRow], true
}
