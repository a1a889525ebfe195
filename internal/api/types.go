package api

// UserBrief is the compact user shape embedded in posts and comments.
type UserBrief struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Name returns the display name, falling back to the username.
func (u UserBrief) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Post is a single feed entry. LikesCount and CommentsCount are authoritative
// server-side counters; the client never derives them by local arithmetic
// except as an optimistic correction that a later push event overrides.
type Post struct {
	ID            int64     `json:"id"`
	Content       string    `json:"content"`
	ImageURL      string    `json:"image_url"`
	AuthorID      int64     `json:"author_id"`
	CreatedAt     string    `json:"created_at"`
	UpdatedAt     string    `json:"updated_at"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	Author        UserBrief `json:"author"`
	IsLiked       bool      `json:"is_liked"`
}

// PostPage is one page of the paginated feed.
type PostPage struct {
	Posts    []Post `json:"posts"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	HasMore  bool   `json:"has_more"`
}

// Comment belongs to one post.
type Comment struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AuthorID  int64     `json:"author_id"`
	PostID    int64     `json:"post_id"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Author    UserBrief `json:"author"`
}

// CommentList is the response for a post's comments.
type CommentList struct {
	Comments []Comment `json:"comments"`
	Total    int       `json:"total"`
}

// LikeStatus reports the viewer's like state and the post's current count.
type LikeStatus struct {
	IsLiked    bool `json:"is_liked"`
	LikesCount int  `json:"likes_count"`
}

// Token is the credential returned by login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the full profile shape returned by the auth endpoints.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}
