package push

import (
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ripple/internal/bus"
)

// State is the lifecycle phase of the logical push connection.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosing
	StateClosed
	// StateFailed is terminal: the reconnect budget is exhausted and only an
	// explicit Connect leaves it.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

const (
	feedPath         = "/ws/feed"
	handshakeTimeout = 10 * time.Second

	defaultHeartbeat   = 30 * time.Second
	defaultBaseDelay   = time.Second
	defaultMaxAttempts = 5
)

// Options configure a Transport.
type Options struct {
	Server         string // host:port
	Secure         bool   // wss when true
	HeartbeatEvery time.Duration
	BaseDelay      time.Duration
	MaxAttempts    int
	Bus            *bus.Bus
	Log            zerolog.Logger
}

// Transport owns the single logical WebSocket connection to the feed
// service. Decoded inbound frames fan out on the event bus; consumers never
// touch the socket. All methods are safe for concurrent use.
type Transport struct {
	server         string
	secure         bool
	heartbeatEvery time.Duration
	baseDelay      time.Duration
	maxAttempts    int
	bus            *bus.Bus
	log            zerolog.Logger
	dialer         *websocket.Dialer

	mu             sync.Mutex
	conn           *websocket.Conn
	state          State
	attempts       int
	credential     string
	gen            uint64 // bumped on every connect/disconnect; guards stale goroutines
	heartbeatStop  chan struct{}
	reconnectTimer *time.Timer
}

// New builds a Transport. It does not connect.
func New(opts Options) *Transport {
	if opts.HeartbeatEvery <= 0 {
		opts.HeartbeatEvery = defaultHeartbeat
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	return &Transport{
		server:         opts.Server,
		secure:         opts.Secure,
		heartbeatEvery: opts.HeartbeatEvery,
		baseDelay:      opts.BaseDelay,
		maxAttempts:    opts.MaxAttempts,
		bus:            opts.Bus,
		log:            opts.Log,
		dialer:         &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		state:          StateIdle,
	}
}

// State reports the current connection state.
func (t *Transport) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect (re)establishes the push connection, closing any live one first.
// The credential is attached as a query parameter when non-empty; pass ""
// for anonymous read-only access. A failed dial schedules a reconnect
// attempt instead of returning an error; callers watch the bus for outcome.
func (t *Transport) Connect(credential string) {
	t.mu.Lock()
	t.credential = credential
	t.cancelReconnectLocked()
	t.stopHeartbeatLocked()
	t.closeConnLocked()
	t.state = StateConnecting
	t.gen++
	gen := t.gen
	target := buildURL(t.server, t.secure, credential)
	t.mu.Unlock()

	conn, resp, err := t.dialer.Dial(target, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	t.mu.Lock()
	if t.gen != gen {
		// A newer Connect or Disconnect superseded this dial.
		t.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		t.state = StateClosed
		t.mu.Unlock()
		t.log.Warn().Err(err).Str("url", redactToken(target)).Msg("push dial failed")
		t.bus.Emit(EventError, err)
		t.scheduleReconnect(gen)
		return
	}

	t.conn = conn
	t.state = StateOpen
	t.attempts = 0
	stop := make(chan struct{})
	t.heartbeatStop = stop
	t.mu.Unlock()

	t.log.Info().Str("state", StateOpen.String()).Msg("push connected")
	t.bus.Emit(EventConnected, ConnectedInfo{})

	go t.readLoop(conn, gen)
	go t.heartbeat(stop)
}

// Disconnect closes the connection with a normal closure and cancels any
// pending reconnect. Idempotent: callable from any state, including an
// already-closed transport.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.cancelReconnectLocked()
	t.stopHeartbeatLocked()
	wasLive := t.conn != nil
	t.state = StateClosing
	t.closeConnLocked()
	t.state = StateClosed
	t.gen++ // orphan any in-flight reader or dial
	t.mu.Unlock()

	if wasLive {
		t.bus.Emit(EventDisconnected, Disconnect{
			Code:   websocket.CloseNormalClosure,
			Reason: "client disconnect",
		})
	}
}

// Send marshals v and transmits it if the connection is currently open.
// Returns false otherwise: not delivered, and this layer performs no retry.
func (t *Transport) Send(v any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateOpen || t.conn == nil {
		return false
	}
	data, err := json.Marshal(v)
	if err != nil {
		t.log.Warn().Err(err).Msg("encode outbound message")
		return false
	}
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.log.Warn().Err(err).Msg("write outbound message")
		return false
	}
	return true
}

// readLoop pumps inbound frames onto the bus until the connection dies.
func (t *Transport) readLoop(conn *websocket.Conn, gen uint64) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			reason := err.Error()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code = closeErr.Code
				reason = closeErr.Text
			}
			t.handleClose(gen, code, reason)
			return
		}

		event, payload, err := decodeFrame(raw)
		if err != nil {
			if !errors.Is(err, errSwallow) {
				t.log.Warn().Err(err).Msg("dropping malformed frame")
			}
			continue
		}
		t.bus.Emit(event, payload)
	}
}

// heartbeat sends a ping frame at the configured cadence while the
// connection stays open. A missing pong does not by itself trigger
// reconnection; only close events do.
func (t *Transport) heartbeat(stop chan struct{}) {
	ticker := time.NewTicker(t.heartbeatEvery)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.Send(map[string]string{"type": "ping"})
		}
	}
}

func (t *Transport) handleClose(gen uint64, code int, reason string) {
	t.mu.Lock()
	if t.gen != gen {
		// Deliberate close or superseding connect already dealt with this.
		t.mu.Unlock()
		return
	}
	t.stopHeartbeatLocked()
	t.conn = nil
	t.state = StateClosed
	t.mu.Unlock()

	t.log.Info().Int("code", code).Str("reason", reason).Msg("push connection closed")
	t.bus.Emit(EventDisconnected, Disconnect{Code: code, Reason: reason})

	if code != websocket.CloseNormalClosure {
		t.scheduleReconnect(gen)
	}
}

// scheduleReconnect books the next automatic attempt with exponential
// backoff, or goes terminal once the budget is spent. The caller's gen is
// rechecked under the lock: a Disconnect or newer Connect racing the
// unlocked window before this call must not get a timer booked behind it.
func (t *Transport) scheduleReconnect(gen uint64) {
	t.mu.Lock()
	if t.gen != gen || t.state == StateOpen {
		t.mu.Unlock()
		return
	}
	t.attempts++
	if t.attempts > t.maxAttempts {
		t.state = StateFailed
		max := t.maxAttempts
		t.mu.Unlock()
		t.log.Warn().Int("attempts", max).Msg("reconnect budget exhausted")
		t.bus.Emit(EventMaxReconnect, max)
		return
	}
	delay := backoffDelay(t.baseDelay, t.attempts)
	credential := t.credential
	attempt := t.attempts
	t.reconnectTimer = time.AfterFunc(delay, func() {
		// Fire only if nothing reconnected in the meantime; a racing manual
		// Connect wins.
		if t.State() == StateOpen {
			return
		}
		t.Connect(credential)
	})
	t.mu.Unlock()
	t.log.Info().Int("attempt", attempt).Dur("delay", delay).Msg("reconnect scheduled")
}

// backoffDelay is base * 2^attempt. The attempt counter is incremented
// before the delay is computed, so the first retry already waits 2*base.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	return base << attempt
}

func (t *Transport) cancelReconnectLocked() {
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
}

func (t *Transport) stopHeartbeatLocked() {
	if t.heartbeatStop != nil {
		close(t.heartbeatStop)
		t.heartbeatStop = nil
	}
}

func (t *Transport) closeConnLocked() {
	if t.conn == nil {
		return
	}
	deadline := time.Now().Add(time.Second)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	_ = t.conn.Close()
	t.conn = nil
}

// buildURL derives the push endpoint from the server address: ws or wss by
// the secure flag, fixed feed path, credential as a query parameter when
// present. Reconnect attempts reuse the same derivation.
func buildURL(server string, secure bool, credential string) string {
	scheme := "ws"
	if secure {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: server, Path: feedPath}
	if credential != "" {
		q := url.Values{}
		q.Set("token", credential)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func redactToken(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	if u.Query().Get("token") != "" {
		q := u.Query()
		q.Set("token", "redacted")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
