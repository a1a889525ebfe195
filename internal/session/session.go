// Package session ties the push transport's lifecycle to authentication
// state: the transport is connected exactly while the session is started,
// and losing the credential tears the connection down synchronously.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"ripple/internal/bus"
)

// Connector is the slice of the transport the session drives.
// *push.Transport satisfies it.
type Connector interface {
	Connect(credential string)
	Disconnect()
}

// TokenSetter is the slice of the API client the session keeps in sync with
// the credential. *api.Client satisfies it.
type TokenSetter interface {
	SetToken(token string)
}

const reconnectGrace = 500 * time.Millisecond

// Session owns the current credential and the viewer's identity derived
// from it.
type Session struct {
	transport Connector
	apiClient TokenSetter
	bus       *bus.Bus
	log       zerolog.Logger

	mu            sync.Mutex
	token         string
	userID        int64
	username      string
	authenticated bool
	started       bool
	reconnectTmr  *time.Timer
}

// New builds a Session. Any of transport, apiClient and bus may be nil;
// a nil bus makes On return no-op unsubscribes rather than failing.
func New(transport Connector, apiClient TokenSetter, b *bus.Bus, log zerolog.Logger) *Session {
	return &Session{
		transport: transport,
		apiClient: apiClient,
		bus:       b,
		log:       log,
	}
}

// Start installs the credential and connects the transport. The viewer's
// user id is read from the token's subject claim; the token is not verified
// here (the server rejects forgeries), only parsed for identity.
func (s *Session) Start(token string) error {
	userID, username, err := identityFromToken(token)
	if err != nil {
		return fmt.Errorf("parse credential: %w", err)
	}

	s.mu.Lock()
	s.cancelReconnectLocked()
	s.token = token
	s.userID = userID
	s.username = username
	s.authenticated = true
	s.started = true
	s.mu.Unlock()

	if s.apiClient != nil {
		s.apiClient.SetToken(token)
	}
	s.log.Info().Int64("user_id", userID).Str("username", username).Msg("session started")
	if s.bus != nil {
		s.bus.Emit("authenticated", userID)
	}
	if s.transport != nil {
		s.transport.Connect(token)
	}
	return nil
}

// StartAnonymous connects the transport without a credential: read-only
// access, no like self-reconciliation.
func (s *Session) StartAnonymous() {
	s.mu.Lock()
	s.cancelReconnectLocked()
	s.token = ""
	s.userID = 0
	s.username = ""
	s.authenticated = false
	s.started = true
	s.mu.Unlock()

	if s.apiClient != nil {
		s.apiClient.SetToken("")
	}
	s.log.Info().Msg("anonymous session started")
	if s.transport != nil {
		s.transport.Connect("")
	}
}

// Stop drops the credential and disconnects synchronously. Used for both
// explicit logout and a rejected credential.
func (s *Session) Stop() {
	s.mu.Lock()
	s.cancelReconnectLocked()
	s.token = ""
	s.userID = 0
	s.username = ""
	s.authenticated = false
	s.started = false
	s.mu.Unlock()

	if s.apiClient != nil {
		s.apiClient.SetToken("")
	}
	if s.transport != nil {
		s.transport.Disconnect()
	}
	s.log.Info().Msg("session stopped")
}

// Reconnect forces a fresh connection after a short fixed delay. It is
// operator-initiated and therefore bypasses the transport's backoff
// counter; it remains available no matter how many automatic attempts have
// been exhausted.
func (s *Session) Reconnect() {
	if s.transport == nil {
		return
	}
	s.transport.Disconnect()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	token := s.token
	s.cancelReconnectLocked()
	s.reconnectTmr = time.AfterFunc(reconnectGrace, func() {
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if !started {
			return
		}
		s.transport.Connect(token)
	})
}

// On subscribes handler to a bus event. Safe to call before any transport
// or bus exists: it reports ok=false and returns a usable no-op
// unsubscribe instead of failing.
func (s *Session) On(event string, handler bus.Handler) (unsubscribe func(), ok bool) {
	if s.bus == nil {
		return func() {}, false
	}
	return s.bus.Subscribe(event, handler), true
}

// Authenticated reports whether a credential is installed.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// UserID returns the viewer's id, or 0 for anonymous sessions.
func (s *Session) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Username returns the username claim from the credential, if any.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Token returns the raw credential.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) cancelReconnectLocked() {
	if s.reconnectTmr != nil {
		s.reconnectTmr.Stop()
		s.reconnectTmr = nil
	}
}

// identityFromToken extracts the subject (user id) and username claims. The
// service issues tokens with a numeric sub; a string sub that parses as a
// number is accepted too.
func identityFromToken(token string) (int64, string, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return 0, "", err
	}

	var userID int64
	switch sub := claims["sub"].(type) {
	case float64:
		userID = int64(sub)
	case string:
		if _, err := fmt.Sscan(sub, &userID); err != nil {
			return 0, "", fmt.Errorf("subject %q is not a user id", sub)
		}
	default:
		return 0, "", fmt.Errorf("credential has no subject claim")
	}

	username, _ := claims["username"].(string)
	return userID, username, nil
}
