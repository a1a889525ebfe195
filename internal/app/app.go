// Package app wires configuration, transport, session and UI together and
// owns their lifecycles.
package app

import (
	"context"
	"fmt"

	"ripple/internal/api"
	"ripple/internal/bus"
	"ripple/internal/config"
	"ripple/internal/feed"
	"ripple/internal/logging"
	"ripple/internal/prefs"
	"ripple/internal/push"
	"ripple/internal/session"
	"ripple/internal/ui"
)

// Options configure the Ripple application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/ripple/prefs.toml
	Token      string // optional credential; empty starts anonymous
}

// uiEvents is every bus event the UI mirrors into its activity log and
// connection indicator.
var uiEvents = []string{
	push.EventConnected,
	push.EventDisconnected,
	push.EventError,
	push.EventMaxReconnect,
	push.EventAuthenticated,
	push.EventNewPost,
	push.EventLikeUpdate,
	push.EventNewComment,
	push.EventCommentDeleted,
	push.EventPostDeleted,
}

// Run boots the Ripple TUI until the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	userPrefs := prefs.Load(opts.PrefsPath)

	// The TUI owns stdout, so logs go to a file.
	log, closeLog := logging.Open(cfg.LogFile)
	defer closeLog()

	client, err := api.NewClient(cfg.Server, cfg.TLS, log)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	b := bus.New(log)
	transport := push.New(push.Options{
		Server:         cfg.Server,
		Secure:         cfg.TLS,
		HeartbeatEvery: cfg.HeartbeatEvery,
		BaseDelay:      cfg.ReconnectBase,
		MaxAttempts:    cfg.ReconnectAttempts,
		Bus:            b,
		Log:            log,
	})
	sess := session.New(transport, client, b, log)
	view := feed.NewView(0)

	p := ui.NewProgram(ui.Options{
		Context:   ctx,
		Client:    client,
		Session:   sess,
		Feed:      view,
		Transport: transport,
		Config:    &cfg,
		ThemeName: userPrefs.Theme,
		PrefsPath: opts.PrefsPath,
	})

	// Push events flow bus -> reconciler -> render invalidation.
	unbind := feed.Bind(b, view, func() { p.Send(ui.FeedUpdatedMsg{}) })
	defer unbind()

	for _, event := range uiEvents {
		defer b.Subscribe(event, func(payload any) {
			p.Send(ui.ConnEventMsg{Event: event, Payload: payload})
		})()
	}

	// The session connects on its own goroutine: event emission blocks on
	// Send until the program loop below starts consuming.
	go func() {
		if opts.Token != "" {
			if err := sess.Start(opts.Token); err != nil {
				log.Warn().Err(err).Msg("credential rejected, starting anonymous")
				sess.StartAnonymous()
				return
			}
			view.SetViewer(sess.UserID())
			return
		}
		sess.StartAnonymous()
	}()

	// Degraded mode: keep the feed fresh over REST while the push channel
	// is down.
	StartFallback(ctx, FallbackOptions{
		Feed:     view,
		Client:   client,
		PageSize: cfg.PageSize,
		State:    transport.State,
		Notify:   func() { p.Send(ui.FeedUpdatedMsg{}) },
		Log:      log,
	})

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	_, runErr := p.Run()

	sess.Stop()
	b.Reset()
	return runErr
}
