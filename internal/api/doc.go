// Package api is the typed HTTP client for the feed service's REST surface:
// auth, posts, comments and likes. The realtime channel lives in
// internal/push; this package is plain request/response.
package api
