package push

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/internal/api"
)

func TestDecodeNewLikeNormalizesToLikeUpdate(t *testing.T) {
	raw := []byte(`{"type":"new_like","data":{"post_id":4,"likes_count":9,"user":{"id":2,"username":"ada"}}}`)

	event, payload, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, EventLikeUpdate, event)

	update, ok := payload.(LikeUpdate)
	require.True(t, ok, "payload type %T", payload)
	assert.Equal(t, int64(4), update.PostID)
	assert.Equal(t, 9, update.LikesCount)
	assert.True(t, update.IsLike)
	require.NotNil(t, update.User)
	assert.Equal(t, "ada", update.User.Username)
}

func TestDecodeUnlikeSetsIsLikeFalse(t *testing.T) {
	raw := []byte(`{"type":"unlike","data":{"post_id":4,"likes_count":8,"user":{"id":2,"username":"ada"}}}`)

	event, payload, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, EventLikeUpdate, event)
	assert.False(t, payload.(LikeUpdate).IsLike)
}

func TestDecodePongIsSwallowed(t *testing.T) {
	_, _, err := decodeFrame([]byte(`{"type":"pong"}`))
	assert.True(t, errors.Is(err, errSwallow))
}

func TestDecodeNewPost(t *testing.T) {
	raw := []byte(`{"type":"new_post","data":{"id":11,"content":"hi","author":{"id":3,"username":"bob"},"likes_count":0,"comments_count":0}}`)

	event, payload, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, EventNewPost, event)

	post := payload.(api.Post)
	assert.Equal(t, int64(11), post.ID)
	assert.Equal(t, "bob", post.Author.Username)
}

func TestDecodeNewCommentUsesTopLevelPostID(t *testing.T) {
	raw := []byte(`{"type":"new_comment","post_id":5,"data":{"id":30,"content":"yo","post_id":5,"author":{"id":1,"username":"ada"}}}`)

	event, payload, err := decodeFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, EventNewComment, event)

	nc := payload.(NewComment)
	assert.Equal(t, int64(5), nc.PostID)
	assert.Equal(t, int64(30), nc.Comment.ID)
}

func TestDecodePostDeleted(t *testing.T) {
	event, payload, err := decodeFrame([]byte(`{"type":"post_deleted","data":{"post_id":12}}`))
	require.NoError(t, err)
	assert.Equal(t, EventPostDeleted, event)
	assert.Equal(t, int64(12), payload.(PostDeleted).PostID)
}

func TestDecodeCommentDeleted(t *testing.T) {
	event, payload, err := decodeFrame([]byte(`{"type":"comment_deleted","data":{"comment_id":7,"post_id":12}}`))
	require.NoError(t, err)
	assert.Equal(t, EventCommentDeleted, event)
	deleted := payload.(CommentDeleted)
	assert.Equal(t, int64(7), deleted.CommentID)
	assert.Equal(t, int64(12), deleted.PostID)
}

func TestDecodeConnectedInfo(t *testing.T) {
	event, payload, err := decodeFrame([]byte(`{"type":"connected","data":{"authenticated":true,"user_id":2,"message":"Connected to feed updates"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventConnected, event)
	info := payload.(ConnectedInfo)
	assert.True(t, info.Authenticated)
	assert.Equal(t, int64(2), info.UserID)
}

func TestDecodeUnknownTypePassesThrough(t *testing.T) {
	event, payload, err := decodeFrame([]byte(`{"type":"server_announcement","data":{"text":"maintenance at noon"}}`))
	require.NoError(t, err)
	assert.Equal(t, "server_announcement", event)

	raw, ok := payload.(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"text":"maintenance at noon"}`, string(raw))
}

func TestDecodeMalformedFrames(t *testing.T) {
	cases := []string{
		`not json at all`,
		`{"data":{}}`,
		`{"type":"new_post","data":"not an object"}`,
		`{"type":"new_like","data":[1,2]}`,
	}
	for _, raw := range cases {
		_, _, err := decodeFrame([]byte(raw))
		assert.Error(t, err, "frame %q should fail", raw)
		assert.False(t, errors.Is(err, errSwallow), "frame %q must not be silently swallowed", raw)
	}
}
