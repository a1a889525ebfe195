package feed

import (
	"sync"

	"ripple/internal/api"
	"ripple/internal/push"
)

// Phase tracks the pagination axis of a view. Push events mutate the post
// collection in place regardless of phase.
type Phase int

const (
	PhaseEmpty Phase = iota
	PhaseLoading
	PhaseReady
	PhaseLoadingMore
	// PhaseEnd means the last page has been consumed; pushes still apply.
	PhaseEnd
)

// likeOverride is the viewer's pending optimistic like toggle for one post.
// It sits on top of the confirmed snapshot until a server push settles it.
type likeOverride struct {
	liked      bool
	countDelta int
}

// ToggleIntent captures everything needed to revert one optimistic like
// toggle if the network call behind it fails.
type ToggleIntent struct {
	PostID   int64
	WasLiked bool // merged state before the toggle; true means the action is an unlike

	prev    likeOverride
	hadPrev bool
}

// View owns the feed state for one rendered timeline. It is the only writer
// of that state; every other component requests mutations through its
// methods. Internally it keeps two layers: the confirmed snapshot (REST
// pages and push events, both server-authoritative) and the viewer's
// pending like overrides, merged by a pure function on read.
type View struct {
	mu        sync.Mutex
	confirmed []api.Post
	overrides map[int64]likeOverride

	phase      Phase
	page       int
	total      int
	authorID   int64 // 0 = unscoped global feed
	viewerID   int64 // 0 = anonymous
	atTop      bool
	pendingNew int
	lastErr    error
}

// NewView creates an empty view. A non-zero authorID scopes the view to one
// author's posts; pushes from other authors are discarded.
func NewView(authorID int64) *View {
	return &View{
		overrides: make(map[int64]likeOverride),
		atTop:     true,
		authorID:  authorID,
	}
}

// SetViewer records the identity used to match like events against the
// viewer's own optimistic toggles. Zero means anonymous.
func (v *View) SetViewer(userID int64) {
	v.mu.Lock()
	v.viewerID = userID
	v.mu.Unlock()
}

// SetAtTop tells the view whether the user currently sees the head of the
// feed. Pushed posts splice in only while at top; otherwise they are
// withheld and counted.
func (v *View) SetAtTop(atTop bool) {
	v.mu.Lock()
	v.atTop = atTop
	v.mu.Unlock()
}

// Posts returns the merged, cloned feed: confirmed snapshot with the
// viewer's pending like overrides applied. Mutating the result does not
// affect the view.
func (v *View) Posts() []api.Post {
	v.mu.Lock()
	defer v.mu.Unlock()
	return mergeLikes(v.confirmed, v.overrides)
}

// Post returns the merged state of one entry.
func (v *View) Post(id int64) (api.Post, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, p := range v.confirmed {
		if p.ID == id {
			merged := mergeLikes([]api.Post{p}, v.overrides)
			return merged[0], true
		}
	}
	return api.Post{}, false
}

// Phase reports the pagination phase.
func (v *View) Phase() Phase {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phase
}

// PendingNew reports how many pushed posts are withheld while the user is
// scrolled away from the top.
func (v *View) PendingNew() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pendingNew
}

// Len reports the number of posts currently held.
func (v *View) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.confirmed)
}

// Total reports the server's total post count from the last page fetch.
func (v *View) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// LastError returns the most recent fetch failure, cleared by the next
// successful page.
func (v *View) LastError() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastErr
}

// BeginLoad marks the initial (or refresh) first-page fetch as in flight
// and returns false when one already is.
func (v *View) BeginLoad() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase == PhaseLoading || v.phase == PhaseLoadingMore {
		return false
	}
	v.phase = PhaseLoading
	return true
}

// BeginLoadMore marks the next-page fetch as in flight and returns the page
// number to request. False when a fetch is already running or the feed is
// exhausted.
func (v *View) BeginLoadMore() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.phase != PhaseReady {
		return 0, false
	}
	v.phase = PhaseLoadingMore
	return v.page + 1, true
}

// ApplyPage merges one fetched page. Page 1 replaces the whole confirmed
// snapshot, clears pending like overrides (the server's view of is_liked is
// now authoritative) and resets the pending-new counter — this is how
// withheld pushed posts are consumed. Later pages append, skipping ids
// already present so a page boundary shifting underneath a concurrent
// insert cannot duplicate an entry.
func (v *View) ApplyPage(page int, posts []api.Post, total int, hasMore bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if page <= 1 {
		v.confirmed = clonePosts(posts)
		v.overrides = make(map[int64]likeOverride)
		v.pendingNew = 0
	} else {
		seen := make(map[int64]struct{}, len(v.confirmed))
		for _, p := range v.confirmed {
			seen[p.ID] = struct{}{}
		}
		for _, p := range posts {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			v.confirmed = append(v.confirmed, p)
		}
	}

	v.page = page
	v.total = total
	v.lastErr = nil
	if hasMore {
		v.phase = PhaseReady
	} else {
		v.phase = PhaseEnd
	}
}

// LoadFailed records a fetch failure without touching existing posts. The
// phase rolls back so the fetch can be retried.
func (v *View) LoadFailed(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lastErr = err
	switch v.phase {
	case PhaseLoading:
		if len(v.confirmed) == 0 {
			v.phase = PhaseEmpty
		} else {
			v.phase = PhaseReady
		}
	case PhaseLoadingMore:
		v.phase = PhaseReady
	}
}

// ApplyNewPost handles a pushed post from another session. Out-of-scope
// authors are discarded; a duplicate id is a no-op (the acting client may
// already have inserted its own post optimistically). At the top of the
// feed the post splices in immediately; otherwise it is withheld and
// counted until the user consumes pending posts via a first-page refetch.
func (v *View) ApplyNewPost(post api.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.authorID != 0 && post.AuthorID != v.authorID {
		return
	}
	if v.containsLocked(post.ID) {
		return
	}
	if !v.atTop {
		v.pendingNew++
		return
	}
	v.confirmed = append([]api.Post{post}, v.confirmed...)
}

// InsertOwn places the viewer's freshly created post (the REST response) at
// the head of the feed, regardless of scroll position.
func (v *View) InsertOwn(post api.Post) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.authorID != 0 && post.AuthorID != v.authorID {
		return
	}
	if v.containsLocked(post.ID) {
		return
	}
	v.confirmed = append([]api.Post{post}, v.confirmed...)
}

// ApplyLikeUpdate overwrites the post's like count with the authoritative
// value; never add or subtract locally. When the acting user is the viewer
// the is_liked flag is settled from the event and any pending optimistic
// toggle is discarded — the server won. For other actors an outstanding
// toggle keeps its flag but stops adjusting the count, which is now exact.
// A post not present locally is a no-op.
func (v *View) ApplyLikeUpdate(update push.LikeUpdate) {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx := v.indexLocked(update.PostID)
	if idx < 0 {
		return
	}
	v.confirmed[idx].LikesCount = update.LikesCount

	selfAction := update.User != nil && v.viewerID != 0 && update.User.ID == v.viewerID
	if selfAction {
		v.confirmed[idx].IsLiked = update.IsLike
		delete(v.overrides, update.PostID)
		return
	}
	if o, ok := v.overrides[update.PostID]; ok {
		o.countDelta = 0
		v.overrides[update.PostID] = o
	}
}

// ApplyNewComment bumps the post's comment counter. The comment list itself
// stays lazy; it is fetched only when the comment panel opens.
func (v *View) ApplyNewComment(postID int64) {
	v.adjustComments(postID, 1)
}

// ApplyCommentDeleted decrements the post's comment counter, floored at 0.
func (v *View) ApplyCommentDeleted(postID int64) {
	v.adjustComments(postID, -1)
}

func (v *View) adjustComments(postID int64, delta int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexLocked(postID)
	if idx < 0 {
		return
	}
	count := v.confirmed[idx].CommentsCount + delta
	if count < 0 {
		count = 0
	}
	v.confirmed[idx].CommentsCount = count
}

// ApplyPostDeleted removes the post unconditionally: a deleted post must
// never remain visible, regardless of scroll position or pending-new
// bookkeeping. Removing an absent id is a no-op.
func (v *View) ApplyPostDeleted(postID int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexLocked(postID)
	if idx < 0 {
		delete(v.overrides, postID)
		return
	}
	v.confirmed = append(v.confirmed[:idx:idx], v.confirmed[idx+1:]...)
	delete(v.overrides, postID)
}

// ToggleLike flips the viewer's like optimistically, before the network
// call resolves. The returned intent tells the caller whether to issue a
// like or an unlike and how to revert on failure.
func (v *View) ToggleLike(postID int64) (ToggleIntent, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	idx := v.indexLocked(postID)
	if idx < 0 {
		return ToggleIntent{}, false
	}

	prev, hadPrev := v.overrides[postID]
	liked := v.confirmed[idx].IsLiked
	if hadPrev {
		liked = prev.liked
	}

	next := likeOverride{liked: !liked}
	if next.liked != v.confirmed[idx].IsLiked {
		if next.liked {
			next.countDelta = 1
		} else {
			next.countDelta = -1
		}
	}
	v.overrides[postID] = next

	return ToggleIntent{
		PostID:   postID,
		WasLiked: liked,
		prev:     prev,
		hadPrev:  hadPrev,
	}, true
}

// Revert undoes one optimistic toggle after its network call failed,
// restoring the exact pre-toggle state.
func (v *View) Revert(intent ToggleIntent) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if intent.hadPrev {
		v.overrides[intent.PostID] = intent.prev
		return
	}
	delete(v.overrides, intent.PostID)
}

func (v *View) containsLocked(id int64) bool {
	return v.indexLocked(id) >= 0
}

func (v *View) indexLocked(id int64) int {
	for i, p := range v.confirmed {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// mergeLikes is the pure reconciliation step: it projects the pending like
// overrides onto a clone of the confirmed snapshot. Server-confirmed
// counters always dominate; an override only contributes the viewer's not
// yet acknowledged ±1.
func mergeLikes(confirmed []api.Post, overrides map[int64]likeOverride) []api.Post {
	out := clonePosts(confirmed)
	if len(overrides) == 0 {
		return out
	}
	for i := range out {
		o, ok := overrides[out[i].ID]
		if !ok {
			continue
		}
		out[i].IsLiked = o.liked
		count := out[i].LikesCount + o.countDelta
		if count < 0 {
			count = 0
		}
		out[i].LikesCount = count
	}
	return out
}

func clonePosts(posts []api.Post) []api.Post {
	if len(posts) == 0 {
		return nil
	}
	dup := make([]api.Post, len(posts))
	copy(dup, posts)
	return dup
}
