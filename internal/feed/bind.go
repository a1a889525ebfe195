package feed

import (
	"ripple/internal/api"
	"ripple/internal/bus"
	"ripple/internal/push"
)

// Bind subscribes the view to the push events it reconciles and calls
// notify after each applied mutation. The returned function releases every
// subscription; a torn-down view must call it or its handlers keep firing
// against state nobody reads.
func Bind(b *bus.Bus, v *View, notify func()) func() {
	if notify == nil {
		notify = func() {}
	}

	unsubs := []func(){
		b.Subscribe(push.EventNewPost, func(payload any) {
			post, ok := payload.(api.Post)
			if !ok {
				return
			}
			v.ApplyNewPost(post)
			notify()
		}),
		b.Subscribe(push.EventLikeUpdate, func(payload any) {
			update, ok := payload.(push.LikeUpdate)
			if !ok {
				return
			}
			v.ApplyLikeUpdate(update)
			notify()
		}),
		b.Subscribe(push.EventNewComment, func(payload any) {
			comment, ok := payload.(push.NewComment)
			if !ok {
				return
			}
			v.ApplyNewComment(comment.PostID)
			notify()
		}),
		b.Subscribe(push.EventCommentDeleted, func(payload any) {
			deleted, ok := payload.(push.CommentDeleted)
			if !ok {
				return
			}
			v.ApplyCommentDeleted(deleted.PostID)
			notify()
		}),
		b.Subscribe(push.EventPostDeleted, func(payload any) {
			deleted, ok := payload.(push.PostDeleted)
			if !ok {
				return
			}
			v.ApplyPostDeleted(deleted.PostID)
			notify()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}
