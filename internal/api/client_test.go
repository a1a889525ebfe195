package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	host := strings.TrimPrefix(srv.URL, "http://")
	client, err := NewClient(host, false, zerolog.New(io.Discard))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestFetchPosts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/posts" {
			t.Errorf("path = %q, want /api/posts", r.URL.Path)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q, want 2", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "10" {
			t.Errorf("page_size = %q, want 10", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		_ = json.NewEncoder(w).Encode(PostPage{
			Posts:   []Post{{ID: 7, Content: "hello"}},
			Total:   21,
			Page:    2,
			HasMore: true,
		})
	})

	page, err := client.FetchPosts(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("FetchPosts: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != 7 {
		t.Fatalf("posts = %#v", page.Posts)
	}
	if !page.HasMore {
		t.Fatal("HasMore = false, want true")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(Post{ID: 1})
	})

	client.SetToken("tok123")
	if _, err := client.CreatePost(context.Background(), "hi"); err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if gotAuth != "Bearer tok123" {
		t.Fatalf("Authorization = %q, want Bearer tok123", gotAuth)
	}
}

func TestLoginSendsForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		if form.Get("username") != "ada" || form.Get("password") != "secret" {
			t.Errorf("form = %q", body)
		}
		_ = json.NewEncoder(w).Encode(Token{AccessToken: "tok", TokenType: "bearer"})
	})

	token, err := client.Login(context.Background(), "ada", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("AccessToken = %q", token.AccessToken)
	}
}

func TestErrorDecodesDetail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "You have already liked this post"})
	})

	_, err := client.Like(context.Background(), 5)
	if err == nil {
		t.Fatal("Like succeeded, want error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Fatalf("Status = %d", apiErr.Status)
	}
	if apiErr.Detail != "You have already liked this post" {
		t.Fatalf("Detail = %q", apiErr.Detail)
	}
}

func TestLikeAndUnlikePaths(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		_ = json.NewEncoder(w).Encode(LikeStatus{IsLiked: true, LikesCount: 3})
	})

	status, err := client.Like(context.Background(), 9)
	if err != nil {
		t.Fatalf("Like: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/api/likes/9" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if status.LikesCount != 3 || !status.IsLiked {
		t.Fatalf("status = %#v", status)
	}

	if _, err := client.Unlike(context.Background(), 9); err != nil {
		t.Fatalf("Unlike: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/likes/9" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
}

func TestCommentPaths(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		switch {
		case r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(CommentList{Comments: []Comment{{ID: 1, PostID: 4}}, Total: 1})
		default:
			_ = json.NewEncoder(w).Encode(Comment{ID: 2, PostID: 4, Content: "nice"})
		}
	})

	list, err := client.FetchComments(context.Background(), 4)
	if err != nil {
		t.Fatalf("FetchComments: %v", err)
	}
	if gotPath != "/api/comments/post/4" {
		t.Fatalf("path = %q", gotPath)
	}
	if list.Total != 1 {
		t.Fatalf("Total = %d", list.Total)
	}

	comment, err := client.CreateComment(context.Background(), 4, "nice")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	if gotPath != "/api/comments/4" {
		t.Fatalf("path = %q", gotPath)
	}
	if comment.Content != "nice" {
		t.Fatalf("comment = %#v", comment)
	}
}

func TestParseBaseURLSchemes(t *testing.T) {
	cases := []struct {
		server string
		secure bool
		want   string
	}{
		{"example.com:8000", false, "http://example.com:8000"},
		{"example.com:443", true, "https://example.com:443"},
		{"https://already.example.com", false, "https://already.example.com"},
	}
	for _, tc := range cases {
		u, err := parseBaseURL(tc.server, tc.secure)
		if err != nil {
			t.Fatalf("parseBaseURL(%q): %v", tc.server, err)
		}
		if u.String() != tc.want {
			t.Errorf("parseBaseURL(%q, %v) = %q, want %q", tc.server, tc.secure, u, tc.want)
		}
	}

	if _, err := parseBaseURL("  ", false); err == nil {
		t.Fatal("empty server accepted, want error")
	}
}
