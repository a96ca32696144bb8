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

func TestAdminActor_RequiresAdmin(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	alice := h.register("alice")

	for _, msg := range []interface{}{
		&GetStatsMsg{Caller: alice},
		&ListUsersMsg{Caller: alice},
		&SetUserRoleMsg{Caller: alice, UserID: alice.ID, Role: models.RoleAdmin},
		&DeleteUserMsg{Caller: alice, UserID: uuid.New()},
		&CreateCategoryMsg{Caller: alice, Name: "News"},
		&CreateBannerMsg{Caller: alice, Title: "Sale"},
	} {
		h.fails(h.admin, msg, utils.ErrForbidden)
	}
	h.fails(h.admin, &GetStatsMsg{}, utils.ErrUnauthorized)
}

func TestAdminActor_Stats(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	first := h.publish(alice, "one")
	h.publish(alice, "two")
	h.approve(editor, first.ID)
	must[*models.CommentView](h, h.comments, &CreateCommentMsg{Caller: editor, PostID: first.ID, Content: "nice"})

	stats := must[*models.Stats](h, h.admin, &GetStatsMsg{Caller: editor})
	assert.Equal(t, models.Stats{Users: 2, Posts: 2, Comments: 1, PendingPosts: 1}, *stats)
}

func TestAdminActor_UserManagement(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")
	bob := h.register("bob")
	must[*models.ToggleResult](h, h.users, &FollowMsg{Caller: bob, TargetID: alice.ID})

	users := must[[]*models.User](h, h.admin, &ListUsersMsg{Caller: editor})
	assert.Len(t, users, 3)

	promoted := must[*models.User](h, h.admin, &SetUserRoleMsg{Caller: editor, UserID: alice.ID, Role: models.RoleAdmin})
	assert.Equal(t, models.RoleAdmin, promoted.Role)
	h.fails(h.admin, &SetUserRoleMsg{Caller: editor, UserID: alice.ID, Role: "owner"}, utils.ErrInvalidInput)

	h.fails(h.admin, &DeleteUserMsg{Caller: editor, UserID: editor.ID}, utils.ErrInvalidInput)
	assert.True(t, must[bool](h, h.admin, &DeleteUserMsg{Caller: editor, UserID: alice.ID}))
	h.fails(h.users, &GetUserProfileMsg{UserID: alice.ID}, utils.ErrNotFound)

	me := must[*models.User](h, h.users, &GetUserProfileMsg{UserID: bob.ID})
	assert.Empty(t, me.Following)

	for _, want := range []events.Type{events.UserRoleChanged, events.UserDeleted} {
		e, ok := h.audit.Next(2 * time.Second)
		require.True(t, ok, "missing %s", want)
		assert.Equal(t, want, e.Type)
		assert.Equal(t, alice.ID, e.SubjectID)
	}
}

func TestAdminActor_Categories(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")
	alice := h.register("alice")

	cat := must[*models.Category](h, h.admin, &CreateCategoryMsg{Caller: editor, Name: "World News"})
	assert.Equal(t, "world-news", cat.Slug)
	assert.True(t, models.InPalette(cat.Color))
	h.fails(h.admin, &CreateCategoryMsg{Caller: editor, Name: "world news"}, utils.ErrDuplicate)
	h.fails(h.admin, &CreateCategoryMsg{Caller: editor, Name: "  "}, utils.ErrInvalidInput)

	renamed := "Global"
	updated := must[*models.Category](h, h.admin, &UpdateCategoryMsg{Caller: editor, CategoryID: cat.ID, Update: models.CategoryUpdate{Name: &renamed}})
	assert.Equal(t, "Global", updated.Name)
	assert.Equal(t, "world-news", updated.Slug)

	listed := must[[]*models.Category](h, h.admin, &ListCategoriesMsg{})
	require.Len(t, listed, 1)

	post := must[*models.PostView](h, h.posts, &CreatePostMsg{Caller: alice, Title: "t", Content: "c", CategoryID: &cat.ID})
	assert.True(t, must[bool](h, h.admin, &DeleteCategoryMsg{Caller: editor, CategoryID: cat.ID}))
	detail := must[*models.PostView](h, h.posts, &GetPostMsg{PostID: post.ID})
	assert.Nil(t, detail.CategoryID)
	assert.Nil(t, detail.Category)
	h.fails(h.admin, &DeleteCategoryMsg{Caller: editor, CategoryID: cat.ID}, utils.ErrNotFound)
}

func TestAdminActor_Banners(t *testing.T) {
	h := newHarness(t, moderation.Policy{})
	editor := h.register("editor")

	top := must[*models.Banner](h, h.admin, &CreateBannerMsg{Caller: editor, Title: "Subscribe"})
	assert.Equal(t, models.PositionTop, top.Position)
	assert.True(t, top.IsActive)

	off := false
	hidden := must[*models.Banner](h, h.admin, &CreateBannerMsg{Caller: editor, Title: "Later", Position: models.PositionLeft, IsActive: &off})
	h.fails(h.admin, &CreateBannerMsg{Caller: editor, Title: "Bad", Position: "diagonal"}, utils.ErrInvalidInput)

	active := must[[]*models.Banner](h, h.admin, &ListBannersMsg{ActiveOnly: true})
	require.Len(t, active, 1)
	assert.Equal(t, top.ID, active[0].ID)
	assert.Len(t, must[[]*models.Banner](h, h.admin, &ListBannersMsg{}), 2)

	on := true
	shown := must[*models.Banner](h, h.admin, &UpdateBannerMsg{Caller: editor, BannerID: hidden.ID, Update: models.BannerUpdate{IsActive: &on}})
	assert.True(t, shown.IsActive)
	assert.Len(t, must[[]*models.Banner](h, h.admin, &ListBannersMsg{ActiveOnly: true}), 2)

	assert.True(t, must[bool](h, h.admin, &DeleteBannerMsg{Caller: editor, BannerID: top.ID}))
	h.fails(h.admin, &UpdateBannerMsg{Caller: editor, BannerID: top.ID, Update: models.BannerUpdate{IsActive: &on}}, utils.ErrNotFound)
}
