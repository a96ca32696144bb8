package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestToggleID(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	ids := []uuid.UUID{a}

	added, active := ToggleID(ids, b)
	assert.True(t, active)
	assert.Equal(t, []uuid.UUID{a, b}, added)
	assert.Equal(t, []uuid.UUID{a}, ids, "input slice is not modified")

	removed, active := ToggleID(added, b)
	assert.False(t, active)
	assert.Equal(t, ids, removed)
}

func TestPostQueryMatches(t *testing.T) {
	author, cat := uuid.New(), uuid.New()
	yes, no := true, false
	post := &Post{AuthorID: author, Title: "Gophers at Work", Content: "body", CategoryID: &cat, IsApproved: true}

	tests := []struct {
		name  string
		query PostQuery
		want  bool
	}{
		{"empty query", PostQuery{}, true},
		{"approved", PostQuery{Approved: &yes}, true},
		{"pending", PostQuery{Approved: &no}, false},
		{"editor pick", PostQuery{EditorPick: &yes}, false},
		{"author listed", PostQuery{AuthorIDs: []uuid.UUID{author}}, true},
		{"no authors", PostQuery{AuthorIDs: []uuid.UUID{}}, false},
		{"category", PostQuery{CategoryID: &cat}, true},
		{"other category", PostQuery{CategoryID: &author}, false},
		{"text in title", PostQuery{Text: "gopher"}, true},
		{"text missing", PostQuery{Text: "rust"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(post))
		})
	}
}

func TestSortPosts(t *testing.T) {
	now := time.Now()
	old := &Post{Title: "old", Views: 9, CreatedAt: now.Add(-time.Hour), Likes: []uuid.UUID{uuid.New()}}
	mid := &Post{Title: "mid", Views: 1, CreatedAt: now.Add(-time.Minute), Likes: []uuid.UUID{uuid.New()}}
	recent := &Post{Title: "recent", Views: 1, CreatedAt: now}

	titles := func(ps []*Post) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Title
		}
		return out
	}

	posts := []*Post{old, mid, recent}
	SortPosts(posts, SortNewest)
	assert.Equal(t, []string{"recent", "mid", "old"}, titles(posts))

	SortPosts(posts, SortLikes)
	assert.Equal(t, []string{"mid", "old", "recent"}, titles(posts))

	SortPosts(posts, SortViews)
	assert.Equal(t, []string{"old", "recent", "mid"}, titles(posts))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "world-news", Slugify("  World   News! "))
	assert.Equal(t, "c-3po", Slugify("C-3PO"))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestRandomCategoryColor(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.True(t, InPalette(RandomCategoryColor()))
	}
	assert.False(t, InPalette("#123456"))
}

func TestPostViewCounts(t *testing.T) {
	p := &Post{Comments: []uuid.UUID{uuid.New(), uuid.New()}, Likes: []uuid.UUID{uuid.New()}}
	v := NewPostView(p)
	assert.Equal(t, 2, v.CommentsCount)
	assert.Equal(t, 1, v.LikesCount)
	assert.Equal(t, StatusPending, v.Status)
}
