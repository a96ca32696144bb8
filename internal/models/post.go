package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostStatus is the moderation state of a post.
type PostStatus string

const (
	StatusPending  PostStatus = "pending"
	StatusApproved PostStatus = "approved"
)

type Post struct {
	ID           uuid.UUID   `json:"id"`
	AuthorID     uuid.UUID   `json:"authorId"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Image        string      `json:"image"`
	CategoryID   *uuid.UUID  `json:"categoryId,omitempty"`
	Tags         []string    `json:"tags"`
	Comments     []uuid.UUID `json:"comments"`
	Likes        []uuid.UUID `json:"likes"`
	Views        int         `json:"views"`
	ViewedBy     []uuid.UUID `json:"-"`
	ViewedByAddr []string    `json:"-"`
	IsEditorPick bool        `json:"isEditorPick"`
	IsApproved   bool        `json:"isApproved"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (p *Post) Status() PostStatus {
	if p.IsApproved {
		return StatusApproved
	}
	return StatusPending
}

func (p *Post) LikesCount() int {
	return len(p.Likes)
}

func (p *Post) LikedBy(userID uuid.UUID) bool {
	return ContainsID(p.Likes, userID)
}

// PostView is a post with its references resolved for an API response.
// Which references are resolved depends on the feed that produced it.
type PostView struct {
	*Post
	Author        *UserSummary     `json:"author,omitempty"`
	Category      *CategorySummary `json:"category,omitempty"`
	Comments      []*CommentView   `json:"comments,omitempty"`
	CommentsCount int              `json:"commentsCount"`
	LikesCount    int              `json:"likesCount"`
	Status        PostStatus       `json:"status"`
}

func NewPostView(p *Post) *PostView {
	return &PostView{
		Post:          p,
		CommentsCount: len(p.Comments),
		LikesCount:    len(p.Likes),
		Status:        p.Status(),
	}
}

// PostUpdate carries the editable fields of a post. Nil fields are left untouched.
// The moderation flags are only honoured for administrators.
type PostUpdate struct {
	Title        *string
	Content      *string
	Image        *string
	CategoryID   *uuid.UUID
	Tags         *[]string
	IsEditorPick *bool
	IsApproved   *bool
}

func (u PostUpdate) Empty() bool {
	return u.Title == nil && u.Content == nil && u.Image == nil && u.CategoryID == nil &&
		u.Tags == nil && u.IsEditorPick == nil && u.IsApproved == nil
}

// Apply copies the set fields onto post.
func (u PostUpdate) Apply(post *Post) {
	if u.Title != nil {
		post.Title = *u.Title
	}
	if u.Content != nil {
		post.Content = *u.Content
	}
	if u.Image != nil {
		post.Image = *u.Image
	}
	if u.CategoryID != nil {
		id := *u.CategoryID
		post.CategoryID = &id
	}
	if u.Tags != nil {
		post.Tags = append([]string(nil), (*u.Tags)...)
	}
	if u.IsEditorPick != nil {
		post.IsEditorPick = *u.IsEditorPick
	}
	if u.IsApproved != nil {
		post.IsApproved = *u.IsApproved
	}
}

// PostSort selects the ordering of a post listing.
type PostSort string

const (
	SortNewest PostSort = "newest"
	SortLikes  PostSort = "likes"
	SortViews  PostSort = "views"
)

// PostQuery is a store-independent description of a post listing.
// A nil AuthorIDs means any author; a non-nil empty slice matches nothing.
type PostQuery struct {
	Approved   *bool
	EditorPick *bool
	AuthorIDs  []uuid.UUID
	CategoryID *uuid.UUID
	Text       string
	Sort       PostSort
	Limit      int
}

// Matches evaluates the query filter against a single post.
func (q PostQuery) Matches(p *Post) bool {
	if q.Approved != nil && p.IsApproved != *q.Approved {
		return false
	}
	if q.EditorPick != nil && p.IsEditorPick != *q.EditorPick {
		return false
	}
	if q.AuthorIDs != nil && !ContainsID(q.AuthorIDs, p.AuthorID) {
		return false
	}
	if q.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *q.CategoryID) {
		return false
	}
	if q.Text != "" {
		needle := strings.ToLower(q.Text)
		if !strings.Contains(strings.ToLower(p.Title), needle) &&
			!strings.Contains(strings.ToLower(p.Content), needle) {
			return false
		}
	}
	return true
}

// SortPosts orders posts in place. Ties fall back to newest first.
func SortPosts(posts []*Post, by PostSort) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch by {
		case SortLikes:
			if len(a.Likes) != len(b.Likes) {
				return len(a.Likes) > len(b.Likes)
			}
		case SortViews:
			if a.Views != b.Views {
				return a.Views > b.Views
			}
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// ViewerKey identifies who is looking at a post for unique-view counting:
// the account when the request is authenticated, otherwise its network address.
type ViewerKey struct {
	UserID uuid.UUID
	Addr   string
}

func (k ViewerKey) Authenticated() bool {
	return k.UserID != uuid.Nil
}

func (k ViewerKey) String() string {
	if k.Authenticated() {
		return "user:" + k.UserID.String()
	}
	return "addr:" + k.Addr
}

// Stats is the admin dashboard summary.
type Stats struct {
	Users        int64 `json:"users"`
	Posts        int64 `json:"posts"`
	Comments     int64 `json:"comments"`
	PendingPosts int64 `json:"pendingPosts"`
}
