package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ripple/internal/api"
	"ripple/internal/feed"
	"ripple/internal/push"
)

const defaultFallbackInterval = 60 * time.Second

// FallbackOptions configure the REST fallback refresher.
type FallbackOptions struct {
	Feed     *feed.View
	Client   api.Feed
	PageSize int
	Interval time.Duration
	State    func() push.State
	Notify   func()
	Log      zerolog.Logger
}

// StartFallback launches a background goroutine that refetches the first
// feed page at a fixed cadence whenever the push channel is not open. While
// the socket delivers events the poller stays quiet; it exists so the feed
// still moves when every reconnect attempt has failed. Returns immediately.
func StartFallback(ctx context.Context, opts FallbackOptions) {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultFallbackInterval
	}
	if opts.Notify == nil {
		opts.Notify = func() {}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			if opts.State != nil && opts.State() == push.StateOpen {
				continue
			}
			refresh(ctx, opts)
		}
	}()
}

func refresh(ctx context.Context, opts FallbackOptions) {
	if !opts.Feed.BeginLoad() {
		return
	}
	page, err := opts.Client.FetchPosts(ctx, 1, opts.PageSize)
	if err != nil {
		opts.Feed.LoadFailed(err)
		opts.Log.Warn().Err(err).Msg("fallback refresh failed")
		opts.Notify()
		return
	}
	opts.Feed.ApplyPage(page.Page, page.Posts, page.Total, page.HasMore)
	opts.Notify()
}
