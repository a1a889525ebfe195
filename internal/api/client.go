package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Feed defines the REST operations the rest of the client depends on.
// Implemented by *Client; test doubles implement it without a server.
type Feed interface {
	FetchPosts(ctx context.Context, page, pageSize int) (PostPage, error)
	FetchUserPosts(ctx context.Context, userID int64, page, pageSize int) (PostPage, error)
	CreatePost(ctx context.Context, content string) (Post, error)
	DeletePost(ctx context.Context, id int64) error
	FetchComments(ctx context.Context, postID int64) (CommentList, error)
	CreateComment(ctx context.Context, postID int64, content string) (Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	Like(ctx context.Context, postID int64) (LikeStatus, error)
	Unlike(ctx context.Context, postID int64) (LikeStatus, error)
}

var _ Feed = (*Client)(nil)

// Client talks to the feed service's HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	log       zerolog.Logger

	mu    sync.RWMutex
	token string
}

const (
	defaultUserAgent = "ripple/0.1"
	requestTimeout   = 10 * time.Second
)

// Error is a non-2xx API response. The service reports failures as
// {"detail": "..."} bodies.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Detail, e.Status)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// NewClient builds a Client for the given host:port, using https when secure
// is set.
func NewClient(server string, secure bool, log zerolog.Logger) (*Client, error) {
	base, err := parseBaseURL(server, secure)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		log:       log,
	}, nil
}

// SetToken installs the bearer credential attached to subsequent requests.
// An empty token reverts the client to anonymous access.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the currently installed credential.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login exchanges credentials for a bearer token. The service expects an
// OAuth2 password form, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	reqURL := c.baseURL.ResolveReference(&url.URL{Path: "/api/auth/login"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return Token{}, decodeError(resp)
	}
	var token Token
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return Token{}, fmt.Errorf("decode response: %w", err)
	}
	return token, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, username, email, password string) (User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var user User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// FetchPosts retrieves one page of the global feed, newest first.
func (c *Client) FetchPosts(ctx context.Context, page, pageSize int) (PostPage, error) {
	return c.fetchPage(ctx, "/api/posts", page, pageSize)
}

// FetchUserPosts retrieves one page of a single author's posts.
func (c *Client) FetchUserPosts(ctx context.Context, userID int64, page, pageSize int) (PostPage, error) {
	return c.fetchPage(ctx, "/api/posts/user/"+strconv.FormatInt(userID, 10), page, pageSize)
}

func (c *Client) fetchPage(ctx context.Context, path string, page, pageSize int) (PostPage, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		values.Set("page_size", strconv.Itoa(pageSize))
	}
	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	var payload PostPage
	if err := c.doURL(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return PostPage{}, err
	}
	return payload, nil
}

// CreatePost publishes a new post and returns the server's record.
func (c *Client) CreatePost(ctx context.Context, content string) (Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/posts", map[string]string{"content": content}, &post); err != nil {
		return Post{}, err
	}
	return post, nil
}

// DeletePost removes one of the viewer's own posts.
func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/posts/"+strconv.FormatInt(id, 10), nil, nil)
}

// FetchComments retrieves all comments for a post, oldest first.
func (c *Client) FetchComments(ctx context.Context, postID int64) (CommentList, error) {
	var payload CommentList
	if err := c.do(ctx, http.MethodGet, "/api/comments/post/"+strconv.FormatInt(postID, 10), nil, &payload); err != nil {
		return CommentList{}, err
	}
	return payload, nil
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, postID int64, content string) (Comment, error) {
	var comment Comment
	if err := c.do(ctx, http.MethodPost, "/api/comments/"+strconv.FormatInt(postID, 10), map[string]string{"content": content}, &comment); err != nil {
		return Comment{}, err
	}
	return comment, nil
}

// DeleteComment removes one of the viewer's own comments.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/comments/"+strconv.FormatInt(id, 10), nil, nil)
}

// Like marks a post liked by the viewer and returns the authoritative count.
func (c *Client) Like(ctx context.Context, postID int64) (LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodPost, "/api/likes/"+strconv.FormatInt(postID, 10), nil, &status); err != nil {
		return LikeStatus{}, err
	}
	return status, nil
}

// Unlike removes the viewer's like and returns the authoritative count.
func (c *Client) Unlike(ctx context.Context, postID int64) (LikeStatus, error) {
	var status LikeStatus
	if err := c.do(ctx, http.MethodDelete, "/api/likes/"+strconv.FormatInt(postID, 10), nil, &status); err != nil {
		return LikeStatus{}, err
	}
	return status, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		apiErr := decodeError(resp)
		c.log.Debug().Str("method", method).Str("path", rel.Path).Int("status", resp.StatusCode).Msg("request failed")
		return apiErr
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		apiErr.Detail = payload.Detail
	}
	return apiErr
}

func parseBaseURL(server string, secure bool) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		return nil, fmt.Errorf("server address is empty")
	}
	if !strings.Contains(trimmed, "://") {
		scheme := "http://"
		if secure {
			scheme = "https://"
		}
		trimmed = scheme + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
