package push

import (
	"encoding/json"
	"fmt"

	"ripple/internal/api"
)

// Bus event names emitted by the transport. Inbound server frames are
// forwarded under their own type string, so this list is not exhaustive:
// unrecognized types still fan out under whatever name the server used.
const (
	EventConnected      = "connected"
	EventDisconnected   = "disconnected"
	EventError          = "error"
	EventMaxReconnect   = "max_reconnect_attempts"
	EventAuthenticated  = "authenticated"
	EventNewPost        = "new_post"
	EventLikeUpdate     = "like_update"
	EventNewComment     = "new_comment"
	EventCommentDeleted = "comment_deleted"
	EventPostDeleted    = "post_deleted"
)

// frame is the wire shape of every inbound message:
// {"type": ..., "data": {...}, "post_id"?: ...}.
type frame struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	PostID int64           `json:"post_id"`
}

// ConnectedInfo is the payload of the connected event. The transport emits a
// zero value on socket open; the server's own "connected" frame follows with
// the authenticated flag filled in.
type ConnectedInfo struct {
	Authenticated bool   `json:"authenticated"`
	UserID        int64  `json:"user_id"`
	Message       string `json:"message"`
}

// Disconnect carries the close code and reason of a dropped connection.
type Disconnect struct {
	Code   int
	Reason string
}

// LikeUpdate is the normalized form of the server's new_like/unlike pair.
// LikesCount is the authoritative post-level count; IsLike tells whether the
// acting user liked (true) or unliked (false), which the reconciler uses to
// settle the viewer's own optimistic toggle.
type LikeUpdate struct {
	PostID     int64          `json:"post_id"`
	LikesCount int            `json:"likes_count"`
	User       *api.UserBrief `json:"user"`
	IsLike     bool           `json:"-"`
}

// NewComment pairs a pushed comment with the post it belongs to.
type NewComment struct {
	Comment api.Comment
	PostID  int64
}

// CommentDeleted identifies a removed comment.
type CommentDeleted struct {
	CommentID int64 `json:"comment_id"`
	PostID    int64 `json:"post_id"`
}

// PostDeleted identifies a removed post.
type PostDeleted struct {
	PostID int64 `json:"post_id"`
}

// errSwallow marks frames that decode fine but produce no bus event.
var errSwallow = fmt.Errorf("frame swallowed")

// decodeFrame parses one inbound frame into a bus event name and a typed
// payload. A pong returns errSwallow (heartbeat acknowledgement, no
// emission). Unknown types pass their raw data through under their own name
// so late-added server events reach subscribers without a transport change.
func decodeFrame(raw []byte) (string, any, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", nil, fmt.Errorf("decode frame: %w", err)
	}
	if f.Type == "" {
		return "", nil, fmt.Errorf("frame missing type")
	}

	switch f.Type {
	case "pong":
		return "", nil, errSwallow

	case "new_like", "unlike":
		var update LikeUpdate
		if err := json.Unmarshal(f.Data, &update); err != nil {
			return "", nil, fmt.Errorf("decode %s: %w", f.Type, err)
		}
		update.IsLike = f.Type == "new_like"
		return EventLikeUpdate, update, nil

	case "new_post":
		var post api.Post
		if err := json.Unmarshal(f.Data, &post); err != nil {
			return "", nil, fmt.Errorf("decode new_post: %w", err)
		}
		return EventNewPost, post, nil

	case "new_comment":
		var comment api.Comment
		if err := json.Unmarshal(f.Data, &comment); err != nil {
			return "", nil, fmt.Errorf("decode new_comment: %w", err)
		}
		postID := f.PostID
		if postID == 0 {
			postID = comment.PostID
		}
		return EventNewComment, NewComment{Comment: comment, PostID: postID}, nil

	case "comment_deleted":
		var deleted CommentDeleted
		if err := json.Unmarshal(f.Data, &deleted); err != nil {
			return "", nil, fmt.Errorf("decode comment_deleted: %w", err)
		}
		return EventCommentDeleted, deleted, nil

	case "post_deleted":
		var deleted PostDeleted
		if err := json.Unmarshal(f.Data, &deleted); err != nil {
			return "", nil, fmt.Errorf("decode post_deleted: %w", err)
		}
		return EventPostDeleted, deleted, nil

	case "connected":
		var info ConnectedInfo
		if err := json.Unmarshal(f.Data, &info); err != nil {
			return "", nil, fmt.Errorf("decode connected: %w", err)
		}
		return EventConnected, info, nil

	default:
		return f.Type, f.Data, nil
	}
}
