package actors

import (
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

func TestCommentActor(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "discuss")

	comment := must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: bob, PostID: post.ID, Content: "  Test comment "})
	assert.Equal(t, "Test comment", comment.Content)
	assert.Equal(t, bob.ID, comment.AuthorID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "bob", comment.Author.Username)

	time.Sleep(2 * time.Millisecond)
	second := must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: alice, PostID: post.ID, Content: "reply"})

	list := must[[]*models.CommentView](h, h.comments, &GetCommentsForPostMsg{PostID: post.ID})
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest comment first")

	detail := must[*models.PostView](h, h.posts, &GetPostMsg{PostID: post.ID})
	assert.Equal(t, 2, detail.CommentsCount)

	h.fails(h.comments, &CreateCommentMsg{Caller: bob, PostID: post.ID, Content: "   "}, utils.ErrInvalidInput)
	h.fails(h.comments, &CreateCommentMsg{Caller: bob, PostID: uuid.New(), Content: "lost"}, utils.ErrNotFound)
	h.fails(h.comments, &CreateCommentMsg{PostID: post.ID, Content: "anon"}, utils.ErrUnauthorized)
	h.fails(h.comments, &GetCommentsForPostMsg{PostID: uuid.New()}, utils.ErrNotFound)
}

func TestCommentActor_LikeToggle(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")
	post := h.publish(alice, "likes")
	comment := must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: alice, PostID: post.ID, Content: "me"})

	like := &LikeCommentMsg{Caller: alice, CommentID: comment.ID}
	assert.Equal(t, models.LikeResult{Liked: true, LikesCount: 1}, *must[*models.LikeResult](h, h.comments, like))
	assert.Equal(t, models.LikeResult{Liked: false, LikesCount: 0}, *must[*models.LikeResult](h, h.comments, like))
	h.fails(h.comments, &LikeCommentMsg{Caller: alice, CommentID: uuid.New()}, utils.ErrNotFound)
}

func TestCommentActor_DeletePermissions(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	bob := h.register("bob")
	post := h.publish(alice, "moderated thread")

	own := must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: bob, PostID: post.ID, Content: "mine"})
	other := must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: bob, PostID: post.ID, Content: "spam"})

	h.fails(h.comments, &DeleteCommentMsg{Caller: alice, CommentID: own.ID}, utils.ErrForbidden)
	assert.True(t, must[bool](h, h.comments, &DeleteCommentMsg{Caller: bob, CommentID: own.ID}))
	assert.True(t, must[bool](h, h.comments, &DeleteCommentMsg{Caller: editor, CommentID: other.ID}))
	h.fails(h.comments, &DeleteCommentMsg{Caller: bob, CommentID: own.ID}, utils.ErrNotFound)

	detail := must[*models.PostView](h, h.posts, &GetPostMsg{PostID: post.ID})
	assert.Zero(t, detail.CommentsCount)

	e, ok := h.audit.Next(2 * time.Second)
	require.True(t, ok)
	assert.Equal(t, events.CommentDeleted, e.Type)
	assert.Equal(t, other.ID, e.SubjectID)
	_, ok = h.audit.Next(50 * time.Millisecond)
	assert.False(t, ok, "authors deleting their own comments are not audited")
}

func TestCommentActor_DeletingPostRemovesComments(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	post := h.publish(alice, "doomed")
	var ids []uuid.UUID
	for _, text := range []string{"one", "two", "three"} {
		ids = append(ids, must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: alice, PostID: post.ID, Content: text}).ID)
	}
	must[*models.ToggleResult](h, h.users, &BookmarkMsg{Caller: alice, PostID: post.ID})

	assert.True(t, must[bool](h, h.posts, &DeletePostMsg{Caller: editor, PostID: post.ID}))

	h.fails(h.comments, &GetCommentsForPostMsg{PostID: post.ID}, utils.ErrNotFound)
	for _, id := range ids {
		h.fails(h.comments, &LikeCommentMsg{Caller: alice, CommentID: id}, utils.ErrNotFound)
	}
	me := must[*models.User](h, h.users, &GetUserProfileMsg{UserID: alice.ID})
	assert.Empty(t, me.Bookmarks)
	h.fails(h.posts, &DeletePostMsg{Caller: alice, PostID: post.ID}, utils.ErrForbidden)
}
