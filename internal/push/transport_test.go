package push

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/bus"
)

type busEvent struct {
	name    string
	payload any
}

// collectEvents subscribes to the given event names and funnels emissions
// into one channel, preserving per-type order.
func collectEvents(b *bus.Bus, names ...string) <-chan busEvent {
	ch := make(chan busEvent, 64)
	for _, name := range names {
		name := name
		b.Subscribe(name, func(payload any) {
			ch <- busEvent{name: name, payload: payload}
		})
	}
	return ch
}

func waitEvent(t *testing.T, ch <-chan busEvent, want string) busEvent {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-ch:
			if ev.name == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}

// wsServer runs an httptest server upgrading every request and handing the
// connection to handler. Returns the host:port to dial.
func wsServer(t *testing.T, dials *atomic.Int32, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if dials != nil {
			dials.Add(1)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func newTestTransport(server string, b *bus.Bus) *Transport {
	return New(Options{
		Server:         server,
		HeartbeatEvery: 25 * time.Millisecond,
		BaseDelay:      5 * time.Millisecond,
		MaxAttempts:    5,
		Bus:            b,
		Log:            zerolog.New(io.Discard),
	})
}

func TestConnectEmitsConnectedAndForwardsFrames(t *testing.T) {
	host := wsServer(t, nil, func(conn *websocket.Conn) {
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"new_post","data":{"id":1,"content":"hi"}}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	b := bus.New(zerolog.New(io.Discard))
	events := collectEvents(b, EventConnected, EventNewPost)
	tr := newTestTransport(host, b)
	defer tr.Disconnect()

	tr.Connect("")

	waitEvent(t, events, EventConnected)
	waitEvent(t, events, EventNewPost)
	assert.Equal(t, StateOpen, tr.State())
}

func TestHeartbeatSendsPing(t *testing.T) {
	gotPing := make(chan string, 1)
	host := wsServer(t, nil, func(conn *websocket.Conn) {
		defer conn.Close()
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		select {
		case gotPing <- string(raw):
		default:
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	b := bus.New(zerolog.New(io.Discard))
	tr := newTestTransport(host, b)
	defer tr.Disconnect()

	tr.Connect("")

	select {
	case raw := <-gotPing:
		assert.JSONEq(t, `{"type":"ping"}`, raw)
	case <-time.After(3 * time.Second):
		t.Fatal("no ping received")
	}
}

func TestNormalCloseDoesNotReconnect(t *testing.T) {
	var dials atomic.Int32
	host := wsServer(t, &dials, func(conn *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		time.Sleep(50 * time.Millisecond)
		conn.Close()
	})

	b := bus.New(zerolog.New(io.Discard))
	events := collectEvents(b, EventDisconnected)
	tr := newTestTransport(host, b)
	defer tr.Disconnect()

	tr.Connect("")

	ev := waitEvent(t, events, EventDisconnected)
	disc := ev.payload.(Disconnect)
	assert.Equal(t, websocket.CloseNormalClosure, disc.Code)

	// Backoff base is 5ms; give any (wrong) reconnect plenty of time.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), dials.Load(), "normal closure must not auto-reconnect")
}

func TestAbnormalCloseSchedulesReconnect(t *testing.T) {
	var dials atomic.Int32
	host := wsServer(t, &dials, func(conn *websocket.Conn) {
		if dials.Load() == 1 {
			// Drop the first connection without a close handshake.
			conn.Close()
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	b := bus.New(zerolog.New(io.Discard))
	events := collectEvents(b, EventDisconnected, EventConnected)
	tr := newTestTransport(host, b)
	defer tr.Disconnect()

	tr.Connect("")
	waitEvent(t, events, EventConnected)
	waitEvent(t, events, EventDisconnected)

	// The reconnect should land on the second, well-behaved connection.
	waitEvent(t, events, EventConnected)
	assert.GreaterOrEqual(t, dials.Load(), int32(2))
	assert.Equal(t, StateOpen, tr.State())
}

func TestDisconnectSupersedesFailedDial(t *testing.T) {
	b := bus.New(zerolog.New(io.Discard))
	tr := newTestTransport("127.0.0.1:1", b)

	// Take the generation an in-flight dial would be carrying, then let a
	// Disconnect land before its failure path runs.
	tr.mu.Lock()
	tr.gen++
	staleGen := tr.gen
	tr.mu.Unlock()

	tr.Disconnect()
	tr.scheduleReconnect(staleGen)

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Nil(t, tr.reconnectTimer, "superseded dial must not book a reconnect")
	assert.Equal(t, StateClosed, tr.state)
	assert.Equal(t, 0, tr.attempts)
}

func TestExhaustedBudgetEmitsMaxReconnectAttempts(t *testing.T) {
	b := bus.New(zerolog.New(io.Discard))
	events := collectEvents(b, EventMaxReconnect)
	tr := New(Options{
		Server:      "127.0.0.1:1", // nothing listens here
		BaseDelay:   time.Millisecond,
		MaxAttempts: 3,
		Bus:         b,
		Log:         zerolog.New(io.Discard),
	})

	tr.Connect("")

	ev := waitEvent(t, events, EventMaxReconnect)
	assert.Equal(t, 3, ev.payload.(int))
	assert.Equal(t, StateFailed, tr.State())
}

func TestSendReturnsFalseWhenNotOpen(t *testing.T) {
	b := bus.New(zerolog.New(io.Discard))
	tr := newTestTransport("127.0.0.1:1", b)

	assert.False(t, tr.Send(map[string]string{"type": "ping"}))
}

func TestDisconnectIsIdempotent(t *testing.T) {
	b := bus.New(zerolog.New(io.Discard))
	tr := newTestTransport("127.0.0.1:1", b)

	require.NotPanics(t, func() {
		tr.Disconnect()
		tr.Disconnect()
	})
	assert.Equal(t, StateClosed, tr.State())
}

func TestBackoffDelaysStrictlyIncrease(t *testing.T) {
	base := time.Second
	var prev time.Duration
	for attempt := 1; attempt <= 5; attempt++ {
		delay := backoffDelay(base, attempt)
		assert.Greater(t, delay, prev, "attempt %d", attempt)
		prev = delay
	}
	assert.Equal(t, 2*time.Second, backoffDelay(base, 1))
	assert.Equal(t, 32*time.Second, backoffDelay(base, 5))
}

func TestBuildURL(t *testing.T) {
	assert.Equal(t, "ws://feed.local:8000/ws/feed", buildURL("feed.local:8000", false, ""))
	assert.Equal(t, "wss://feed.local:443/ws/feed?token=abc", buildURL("feed.local:443", true, "abc"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
}
