// Package moderation holds the visibility and feed rules for posts.
// It has no I/O: the engine turns a Plan into store queries.
package moderation

import (
	"strings"

	"github.com/google/uuid"

	"newsroom/internal/models"
)

const (
	TrendingLimit = 5
	SearchLimit   = 50
)

// Feed names a post listing.
type Feed string

const (
	FeedAll       Feed = "all"
	FeedFollowing Feed = "following"
	FeedEditor    Feed = "editor"
	FeedTrending  Feed = "trending"
	FeedSearch    Feed = "search"
	FeedMine      Feed = "mine"
	FeedUser      Feed = "user"
	FeedAdmin     Feed = "admin"
)

// Populate selects which references are resolved on each post of a feed.
type Populate struct {
	Author   bool
	Category bool
	Comments bool
}

// Plan is the resolved query for one feed request.
// An Empty plan yields no posts and must not reach the store.
type Plan struct {
	Feed     Feed
	Query    models.PostQuery
	Populate Populate
	Empty    bool
}

// Policy carries the configurable parts of the feed rules.
type Policy struct {
	// TrendingIncludesPending lets unapproved posts into the trending feed.
	TrendingIncludesPending bool
}

var (
	authorAndCategory = Populate{Author: true, Category: true}
	approved          = ptr(true)
)

func (Policy) AllFeed() Plan {
	return Plan{
		Feed:     FeedAll,
		Query:    models.PostQuery{Approved: approved, Sort: models.SortNewest},
		Populate: Populate{Author: true, Category: true, Comments: true},
	}
}

// FollowingFeed lists approved posts by the accounts in following.
func (Policy) FollowingFeed(following []uuid.UUID) Plan {
	plan := Plan{
		Feed:     FeedFollowing,
		Populate: authorAndCategory,
	}
	if len(following) == 0 {
		plan.Empty = true
		return plan
	}
	plan.Query = models.PostQuery{
		Approved:  approved,
		AuthorIDs: append([]uuid.UUID(nil), following...),
		Sort:      models.SortNewest,
	}
	return plan
}

func (Policy) EditorFeed() Plan {
	return Plan{
		Feed:     FeedEditor,
		Query:    models.PostQuery{Approved: approved, EditorPick: ptr(true), Sort: models.SortNewest},
		Populate: authorAndCategory,
	}
}

func (p Policy) TrendingFeed() Plan {
	q := models.PostQuery{Sort: models.SortLikes, Limit: TrendingLimit}
	if !p.TrendingIncludesPending {
		q.Approved = approved
	}
	return Plan{Feed: FeedTrending, Query: q, Populate: authorAndCategory}
}

// SearchFeed matches text against title and content, optionally within a category.
func (Policy) SearchFeed(text string, categoryID *uuid.UUID, sort models.PostSort) Plan {
	return Plan{
		Feed: FeedSearch,
		Query: models.PostQuery{
			Approved:   approved,
			Text:       strings.TrimSpace(text),
			CategoryID: categoryID,
			Sort:       sort,
			Limit:      SearchLimit,
		},
		Populate: authorAndCategory,
	}
}

// MyPosts lists every post by the caller regardless of moderation state.
func (Policy) MyPosts(caller uuid.UUID) Plan {
	return Plan{
		Feed:     FeedMine,
		Query:    models.PostQuery{AuthorIDs: []uuid.UUID{caller}, Sort: models.SortNewest},
		Populate: Populate{Category: true},
	}
}

// UserPosts lists the approved posts on a public profile.
func (Policy) UserPosts(author uuid.UUID) Plan {
	return Plan{
		Feed:     FeedUser,
		Query:    models.PostQuery{Approved: approved, AuthorIDs: []uuid.UUID{author}, Sort: models.SortNewest},
		Populate: authorAndCategory,
	}
}

// AdminPosts lists all posts, optionally restricted to one moderation state.
func (Policy) AdminPosts(status models.PostStatus) Plan {
	q := models.PostQuery{Sort: models.SortNewest}
	switch status {
	case models.StatusApproved:
		q.Approved = ptr(true)
	case models.StatusPending:
		q.Approved = ptr(false)
	}
	return Plan{Feed: FeedAdmin, Query: q, Populate: authorAndCategory}
}

// ParseSort maps the search sort parameter, defaulting to newest.
func ParseSort(raw string) (models.PostSort, bool) {
	switch models.PostSort(strings.ToLower(strings.TrimSpace(raw))) {
	case "", models.SortNewest:
		return models.SortNewest, true
	case models.SortLikes:
		return models.SortLikes, true
	case models.SortViews:
		return models.SortViews, true
	}
	return "", false
}

// ParseStatus maps the admin status filter. Empty means no filter.
func ParseStatus(raw string) (models.PostStatus, bool) {
	switch models.PostStatus(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", true
	case models.StatusPending:
		return models.StatusPending, true
	case models.StatusApproved:
		return models.StatusApproved, true
	}
	return "", false
}

// Action is an administrative moderation transition.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPick    Action = "pick"
)

// ApprovalFor returns the approval flag an action sets. Pick does not touch approval.
func ApprovalFor(a Action) (bool, bool) {
	switch a {
	case ActionApprove:
		return true, true
	case ActionReject:
		return false, true
	}
	return false, false
}

// SanitizeNew resets the moderation flags on a post submitted by a regular user.
func SanitizeNew(p *models.Post, asAdmin bool, editorPick bool) {
	p.IsApproved = false
	p.IsEditorPick = asAdmin && editorPick
}

// AuthorUpdate strips the fields an author may not change on their own post.
func AuthorUpdate(u models.PostUpdate) models.PostUpdate {
	u.IsApproved = nil
	u.IsEditorPick = nil
	return u
}

func ptr[T any](v T) *T { return &v }
