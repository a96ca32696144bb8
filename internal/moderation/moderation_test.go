package moderation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/models"
)

func TestPublicFeedsRequireApproval(t *testing.T) {
	var p Policy
	author := uuid.New()
	plans := []Plan{
		p.AllFeed(),
		p.FollowingFeed([]uuid.UUID{author}),
		p.EditorFeed(),
		p.TrendingFeed(),
		p.SearchFeed("x", nil, models.SortNewest),
		p.UserPosts(author),
	}
	pending := &models.Post{AuthorID: author, Title: "x", IsEditorPick: true}
	for _, plan := range plans {
		require.NotNil(t, plan.Query.Approved, plan.Feed)
		assert.True(t, *plan.Query.Approved, plan.Feed)
		assert.False(t, plan.Query.Matches(pending), plan.Feed)
	}
}

func TestFollowingFeedWithNoFollows(t *testing.T) {
	plan := Policy{}.FollowingFeed(nil)
	assert.True(t, plan.Empty)
}

func TestTrendingFeed(t *testing.T) {
	plan := Policy{}.TrendingFeed()
	assert.Equal(t, models.SortLikes, plan.Query.Sort)
	assert.Equal(t, TrendingLimit, plan.Query.Limit)

	open := Policy{TrendingIncludesPending: true}.TrendingFeed()
	assert.Nil(t, open.Query.Approved)
}

func TestPrivateFeeds(t *testing.T) {
	me := uuid.New()
	mine := Policy{}.MyPosts(me)
	assert.Nil(t, mine.Query.Approved)
	assert.True(t, mine.Query.Matches(&models.Post{AuthorID: me}))

	all := Policy{}.AdminPosts("")
	assert.Nil(t, all.Query.Approved)
	pending := Policy{}.AdminPosts(models.StatusPending)
	require.NotNil(t, pending.Query.Approved)
	assert.False(t, *pending.Query.Approved)
}

func TestParseSortAndStatus(t *testing.T) {
	s, ok := ParseSort("")
	assert.True(t, ok)
	assert.Equal(t, models.SortNewest, s)
	s, ok = ParseSort("LIKES")
	assert.True(t, ok)
	assert.Equal(t, models.SortLikes, s)
	_, ok = ParseSort("random")
	assert.False(t, ok)

	st, ok := ParseStatus("approved")
	assert.True(t, ok)
	assert.Equal(t, models.StatusApproved, st)
	_, ok = ParseStatus("rejected")
	assert.False(t, ok)
}

func TestActions(t *testing.T) {
	approved, sets := ApprovalFor(ActionApprove)
	assert.True(t, sets)
	assert.True(t, approved)

	approved, sets = ApprovalFor(ActionReject)
	assert.True(t, sets)
	assert.False(t, approved)

	_, sets = ApprovalFor(ActionPick)
	assert.False(t, sets)
}

func TestSanitizeAndAuthorUpdate(t *testing.T) {
	p := &models.Post{IsApproved: true, IsEditorPick: true}
	SanitizeNew(p, false, true)
	assert.False(t, p.IsApproved)
	assert.False(t, p.IsEditorPick)
	SanitizeNew(p, true, true)
	assert.True(t, p.IsEditorPick)

	yes := true
	u := AuthorUpdate(models.PostUpdate{IsApproved: &yes, IsEditorPick: &yes})
	assert.True(t, u.Empty())
}
