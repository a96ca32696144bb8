package models

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID   `json:"id"`
	PostID    uuid.UUID   `json:"postId"`
	AuthorID  uuid.UUID   `json:"authorId"`
	Content   string      `json:"content"`
	Likes     []uuid.UUID `json:"likes"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CommentView is a comment with its author resolved.
type CommentView struct {
	*Comment
	Author     *UserSummary `json:"author,omitempty"`
	LikesCount int          `json:"likesCount"`
}

func NewCommentView(c *Comment) *CommentView {
	return &CommentView{Comment: c, LikesCount: len(c.Likes)}
}
