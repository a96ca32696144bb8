package actors

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/events"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

func TestPostActor_NewPostsStartPending(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	editor := h.register("editor")

	post := must[*models.PostView](h, h.posts, &CreatePostMsg{
		Caller:     alice,
		Title:      "  Hello  ",
		Content:    "World",
		Tags:       []string{"Go", "go", " news "},
		EditorPick: true,
	})
	assert.False(t, post.IsApproved)
	assert.False(t, post.IsEditorPick, "regular users cannot pick their own post")
	assert.Equal(t, models.StatusPending, post.Status)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, []string{"go", "news"}, post.Tags)
	require.NotNil(t, post.Author)
	assert.Equal(t, "alice", post.Author.Username)

	picked := must[*models.PostView](h, h.posts, &CreatePostMsg{Caller: editor, Title: "Pick", Content: "x", EditorPick: true})
	assert.True(t, picked.IsEditorPick)
	assert.False(t, picked.IsApproved)

	h.fails(h.posts, &CreatePostMsg{Title: "anon", Content: "x"}, utils.ErrUnauthorized)
	h.fails(h.posts, &CreatePostMsg{Caller: alice, Title: " ", Content: "x"}, utils.ErrInvalidInput)
	missing := uuid.New()
	h.fails(h.posts, &CreatePostMsg{Caller: alice, Title: "t", Content: "c", CategoryID: &missing}, utils.ErrNotFound)
}

func TestPostActor_PublicFeedsOnlyShowApprovedPosts(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	reader := h.register("reader")
	authors := []*models.Caller{h.register("alice"), h.register("bob"), h.register("carol")}
	for _, a := range authors {
		must[*models.ToggleResult](h, h.users, &FollowMsg{Caller: reader, TargetID: a.ID})
	}

	rng := rand.New(rand.NewPCG(7, 11))
	var posts []uuid.UUID
	for i := 0; i < 24; i++ {
		author := authors[rng.IntN(len(authors))]
		posts = append(posts, h.publish(author, fmt.Sprintf("story %d", i)).ID)
	}
	actions := []moderation.Action{moderation.ActionApprove, moderation.ActionReject, moderation.ActionPick}
	for i := 0; i < 60; i++ {
		id := posts[rng.IntN(len(posts))]
		must[*models.PostView](h, h.posts, &ModeratePostMsg{Caller: editor, PostID: id, Action: actions[rng.IntN(len(actions))]})
		if rng.IntN(3) == 0 {
			must[*models.LikeResult](h, h.posts, &LikePostMsg{Caller: reader, PostID: id})
		}
	}

	approved := map[uuid.UUID]bool{}
	for _, p := range h.feed(&GetFeedMsg{Caller: editor, Feed: moderation.FeedAdmin, Status: models.StatusApproved}) {
		approved[p.ID] = true
	}

	public := []*GetFeedMsg{
		{Feed: moderation.FeedAll},
		{Feed: moderation.FeedEditor},
		{Feed: moderation.FeedTrending},
		{Feed: moderation.FeedSearch, Text: "story"},
		{Feed: moderation.FeedFollowing, Caller: reader},
		{Feed: moderation.FeedUser, AuthorID: authors[0].ID},
	}
	for _, msg := range public {
		for _, p := range h.feed(msg) {
			assert.True(t, p.IsApproved, "feed %s leaked pending post", msg.Feed)
			assert.True(t, approved[p.ID], "feed %s returned unknown post", msg.Feed)
			assert.Equal(t, models.StatusApproved, p.Status)
		}
	}

	all := h.feed(&GetFeedMsg{Feed: moderation.FeedAll})
	assert.Len(t, all, len(approved))
	for _, p := range h.feed(&GetFeedMsg{Feed: moderation.FeedEditor}) {
		assert.True(t, p.IsEditorPick)
	}
}

func TestPostActor_AuthorsSeeOwnPendingPosts(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	post := h.publish(alice, "draft")

	mine := h.feed(&GetFeedMsg{Caller: alice, Feed: moderation.FeedMine})
	require.Len(t, mine, 1)
	assert.Equal(t, post.ID, mine[0].ID)
	assert.Empty(t, h.feed(&GetFeedMsg{Feed: moderation.FeedUser, AuthorID: alice.ID}))
	h.fails(h.posts, &GetFeedMsg{Feed: moderation.FeedMine}, utils.ErrUnauthorized)
	h.fails(h.posts, &GetFeedMsg{Caller: alice, Feed: moderation.FeedAdmin}, utils.ErrForbidden)
}

func TestPostActor_FollowingFeed(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	reader := h.register("reader")
	alice, bob := h.register("alice"), h.register("bob")

	assert.Empty(t, h.feed(&GetFeedMsg{Caller: reader, Feed: moderation.FeedFollowing}))

	fromAlice := h.publish(alice, "from alice")
	fromBob := h.publish(bob, "from bob")
	h.publish(alice, "still pending")
	h.approve(editor, fromAlice.ID)
	h.approve(editor, fromBob.ID)

	must[*models.ToggleResult](h, h.users, &FollowMsg{Caller: reader, TargetID: alice.ID})
	got := h.feed(&GetFeedMsg{Caller: reader, Feed: moderation.FeedFollowing})
	assert.Equal(t, []uuid.UUID{fromAlice.ID}, postIDs(got))

	h.fails(h.posts, &GetFeedMsg{Feed: moderation.FeedFollowing}, utils.ErrUnauthorized)
}

func TestPostActor_EditorPickToggle(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	post := h.publish(alice, "pick me")
	h.approve(editor, post.ID)

	pick := &ModeratePostMsg{Caller: editor, PostID: post.ID, Action: moderation.ActionPick}
	assert.True(t, must[*models.PostView](h, h.posts, pick).IsEditorPick)
	assert.Equal(t, []uuid.UUID{post.ID}, postIDs(h.feed(&GetFeedMsg{Feed: moderation.FeedEditor})))

	assert.False(t, must[*models.PostView](h, h.posts, pick).IsEditorPick)
	assert.Empty(t, h.feed(&GetFeedMsg{Feed: moderation.FeedEditor}))

	h.fails(h.posts, &ModeratePostMsg{Caller: alice, PostID: post.ID, Action: moderation.ActionPick}, utils.ErrForbidden)
	h.fails(h.posts, &ModeratePostMsg{Caller: editor, PostID: uuid.New(), Action: moderation.ActionApprove}, utils.ErrNotFound)
}

func TestPostActor_TrendingRanksByLikes(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	var likers []*models.Caller
	for i := 0; i < 6; i++ {
		likers = append(likers, h.register(fmt.Sprintf("fan%d", i)))
	}

	var ranked []uuid.UUID
	for i := 0; i < 7; i++ {
		p := h.publish(alice, fmt.Sprintf("post %d", i))
		h.approve(editor, p.ID)
		for _, fan := range likers[:i%7] {
			must[*models.LikeResult](h, h.posts, &LikePostMsg{Caller: fan, PostID: p.ID})
		}
		ranked = append([]uuid.UUID{p.ID}, ranked...)
	}
	pending := h.publish(alice, "popular but pending")
	for _, fan := range likers {
		must[*models.LikeResult](h, h.posts, &LikePostMsg{Caller: fan, PostID: pending.ID})
	}

	trending := h.feed(&GetFeedMsg{Feed: moderation.FeedTrending})
	require.Len(t, trending, moderation.TrendingLimit)
	assert.Equal(t, ranked[:moderation.TrendingLimit], postIDs(trending))

	withPending := newHarness(t, moderation.Policy{TrendingIncludesPending: true})
	author := withPending.register("alice")
	fan := withPending.register("fan")
	draft := withPending.publish(author, "draft")
	must[*models.LikeResult](withPending, withPending.posts, &LikePostMsg{Caller: fan, PostID: draft.ID})
	got := withPending.feed(&GetFeedMsg{Feed: moderation.FeedTrending})
	assert.Equal(t, []uuid.UUID{draft.ID}, postIDs(got))
}

func TestPostActor_SearchFiltersAndSorts(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	fan := h.register("fan")

	cat := must[*models.Category](h, h.admin, &CreateCategoryMsg{Caller: editor, Name: "Science"})
	inCat := must[*models.PostView](h, h.posts, &CreatePostMsg{Caller: alice, Title: "Go Gophers", Content: "x", CategoryID: &cat.ID})
	other := h.publish(alice, "go routines")
	hidden := h.publish(alice, "go pending")
	h.approve(editor, inCat.ID)
	h.approve(editor, other.ID)
	must[*models.LikeResult](h, h.posts, &LikePostMsg{Caller: fan, PostID: inCat.ID})

	got := h.feed(&GetFeedMsg{Feed: moderation.FeedSearch, Text: "GO", Sort: models.SortLikes})
	assert.Equal(t, []uuid.UUID{inCat.ID, other.ID}, postIDs(got))
	assert.NotContains(t, postIDs(got), hidden.ID)

	got = h.feed(&GetFeedMsg{Feed: moderation.FeedSearch, Text: "go", CategoryID: &cat.ID})
	require.Len(t, got, 1)
	require.NotNil(t, got[0].Category)
	assert.Equal(t, "science", got[0].Category.Slug)
}

func TestPostActor_UniqueViews(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	reader := h.register("reader")
	post := h.publish(alice, "viewed")
	h.approve(editor, post.ID)

	view := func(v models.ViewerKey) int {
		return must[*models.PostView](h, h.posts, &GetPostMsg{PostID: post.ID, Viewer: v}).Views
	}

	assert.Equal(t, 1, view(models.ViewerKey{UserID: reader.ID}))
	assert.Equal(t, 1, view(models.ViewerKey{UserID: reader.ID}))
	assert.Equal(t, 2, view(models.ViewerKey{Addr: "10.0.0.1"}))
	assert.Equal(t, 2, view(models.ViewerKey{Addr: "10.0.0.1"}))
	assert.Equal(t, 3, view(models.ViewerKey{Addr: "10.0.0.2"}))
	assert.Equal(t, 4, view(models.ViewerKey{UserID: alice.ID}))
	assert.Equal(t, 4, view(models.ViewerKey{}))

	h.fails(h.posts, &GetPostMsg{PostID: uuid.New(), Viewer: models.ViewerKey{Addr: "10.0.0.1"}}, utils.ErrNotFound)
}

func TestPostActor_DetailIsPopulated(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "detail")
	must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: bob, PostID: post.ID, Content: "first"})

	got := must[*models.PostView](h, h.posts, &GetPostMsg{PostID: post.ID})
	require.NotNil(t, got.Author)
	assert.Equal(t, alice.ID, got.Author.ID)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].Author.Username)
	assert.Equal(t, 1, got.CommentsCount)
}

func TestPostActor_LikeToggleIsInvolution(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "like me")

	like := &LikePostMsg{Caller: bob, PostID: post.ID}
	first := must[*models.LikeResult](h, h.posts, like)
	assert.Equal(t, models.LikeResult{Liked: true, LikesCount: 1}, *first)
	second := must[*models.LikeResult](h, h.posts, like)
	assert.Equal(t, models.LikeResult{Liked: false, LikesCount: 0}, *second)

	h.fails(h.posts, &LikePostMsg{PostID: post.ID}, utils.ErrUnauthorized)
	h.fails(h.posts, &LikePostMsg{Caller: bob, PostID: uuid.New()}, utils.ErrNotFound)
}

func TestPostActor_AuthorEditCannotModerate(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "original")

	title, yes := "edited", true
	got := must[*models.PostView](h, h.posts, &UpdatePostMsg{
		Caller: alice,
		PostID: post.ID,
		Update: models.PostUpdate{Title: &title, IsApproved: &yes, IsEditorPick: &yes},
	})
	assert.Equal(t, "edited", got.Title)
	assert.False(t, got.IsApproved)
	assert.False(t, got.IsEditorPick)

	h.fails(h.posts, &UpdatePostMsg{Caller: bob, PostID: post.ID, Update: models.PostUpdate{Title: &title}}, utils.ErrForbidden)
	h.fails(h.posts, &UpdatePostMsg{Caller: alice, PostID: post.ID, Update: models.PostUpdate{IsApproved: &yes}, AsAdmin: true}, utils.ErrForbidden)

	got = must[*models.PostView](h, h.posts, &UpdatePostMsg{Caller: editor, PostID: post.ID, Update: models.PostUpdate{IsApproved: &yes}, AsAdmin: true})
	assert.True(t, got.IsApproved)

	e, ok := h.audit.Next(2 * time.Second)
	require.True(t, ok)
	assert.Equal(t, events.PostEdited, e.Type)
	assert.Equal(t, editor.ID, e.ActorID)
}

func TestPostActor_ModerationIsAudited(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	post := h.publish(alice, "audited")

	h.approve(editor, post.ID)
	must[*models.PostView](h, h.posts, &ModeratePostMsg{Caller: editor, PostID: post.ID, Action: moderation.ActionReject})
	assert.True(t, must[bool](h, h.posts, &DeletePostMsg{Caller: editor, PostID: post.ID}))

	for _, want := range []events.Type{events.PostApproved, events.PostRejected, events.PostDeleted} {
		e, ok := h.audit.Next(2 * time.Second)
		require.True(t, ok, "missing %s", want)
		assert.Equal(t, want, e.Type)
		assert.Equal(t, post.ID, e.SubjectID)
	}
	h.fails(h.posts, &GetPostMsg{PostID: post.ID}, utils.ErrNotFound)
}

func TestPostActor_Bookmarks(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "save me")

	res := must[*models.ToggleResult](h, h.users, &BookmarkMsg{Caller: bob, PostID: post.ID})
	assert.Equal(t, models.ToggleResult{Active: true, Count: 1}, *res)
	saved := must[[]*models.PostView](h, h.posts, &GetBookmarkedPostsMsg{Caller: bob})
	assert.Equal(t, []uuid.UUID{post.ID}, postIDs(saved))

	res = must[*models.ToggleResult](h, h.users, &BookmarkMsg{Caller: bob, PostID: post.ID})
	assert.False(t, res.Active)
	assert.Empty(t, must[[]*models.PostView](h, h.posts, &GetBookmarkedPostsMsg{Caller: bob}))

	h.fails(h.users, &BookmarkMsg{Caller: bob, PostID: uuid.New()}, utils.ErrNotFound)
}
