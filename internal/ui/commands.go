package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ripple/internal/api"
	"ripple/internal/feed"
)

// Commands wrap the REST client so every network call runs off the program
// loop and reports back as a message.

func fetchPageCmd(ctx context.Context, client *api.Client, page, pageSize int) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.FetchPosts(ctx, page, pageSize)
		return pageMsg{requested: page, page: resp, err: err}
	}
}

func likeCmd(ctx context.Context, client *api.Client, intent feed.ToggleIntent) tea.Cmd {
	return func() tea.Msg {
		var (
			status api.LikeStatus
			err    error
		)
		if intent.WasLiked {
			status, err = client.Unlike(ctx, intent.PostID)
		} else {
			status, err = client.Like(ctx, intent.PostID)
		}
		return likeDoneMsg{intent: intent, status: status, err: err}
	}
}

func fetchCommentsCmd(ctx context.Context, client *api.Client, postID int64) tea.Cmd {
	return func() tea.Msg {
		list, err := client.FetchComments(ctx, postID)
		return commentsMsg{postID: postID, list: list, err: err}
	}
}

func createCommentCmd(ctx context.Context, client *api.Client, postID int64, content string) tea.Cmd {
	return func() tea.Msg {
		comment, err := client.CreateComment(ctx, postID, content)
		return commentCreatedMsg{postID: postID, comment: comment, err: err}
	}
}

func deleteCommentCmd(ctx context.Context, client *api.Client, postID, commentID int64) tea.Cmd {
	return func() tea.Msg {
		err := client.DeleteComment(ctx, commentID)
		return commentDeletedMsg{postID: postID, commentID: commentID, err: err}
	}
}

func createPostCmd(ctx context.Context, client *api.Client, content string) tea.Cmd {
	return func() tea.Msg {
		post, err := client.CreatePost(ctx, content)
		return postCreatedMsg{post: post, err: err}
	}
}

func deletePostCmd(ctx context.Context, client *api.Client, id int64) tea.Cmd {
	return func() tea.Msg {
		err := client.DeletePost(ctx, id)
		return postDeletedMsg{id: id, err: err}
	}
}

func loginCmd(ctx context.Context, client *api.Client, username, password string) tea.Cmd {
	return func() tea.Msg {
		token, err := client.Login(ctx, username, password)
		return loginMsg{username: username, token: token, err: err}
	}
}
