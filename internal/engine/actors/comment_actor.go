package actors

import (
	"log/slog"
	"strings"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"newsroom/internal/events"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		Caller  *models.Caller
		PostID  uuid.UUID
		Content string
	}

	DeleteCommentMsg struct {
		Caller    *models.Caller
		CommentID uuid.UUID
	}

	GetCommentsForPostMsg struct {
		PostID uuid.UUID
	}

	LikeCommentMsg struct {
		Caller    *models.Caller
		CommentID uuid.UUID
	}
)

// CommentActor manages comment operations
type CommentActor struct {
	base
}

func NewCommentActor(deps Deps) actor.Actor {
	return &CommentActor{base: newBase(deps)}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *GetCommentsForPostMsg:
		a.handleGetPostComments(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *LikeCommentMsg:
		a.handleLikeComment(context, msg)
	default:
		logUnhandled("CommentActor", msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		a.reply(context, "create_comment", start, nil, err)
		return
	}
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		a.reply(context, "create_comment", start, nil, utils.NewInvalidInputError("Comment content is required"))
		return
	}

	ctx, cancel := a.opContext()
	defer cancel()

	now := time.Now()
	comment := &models.Comment{
		ID:        uuid.New(),
		PostID:    msg.PostID,
		AuthorID:  msg.Caller.ID,
		Content:   content,
		Likes:     []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.DB.CreateComment(ctx, comment); err != nil {
		a.reply(context, "create_comment", start, nil, err)
		return
	}
	slog.Debug("comment created", "comment", comment.ID, "post", comment.PostID)

	views, err := commentViews(ctx, a.DB, []*models.Comment{comment})
	if err != nil {
		a.reply(context, "create_comment", start, nil, err)
		return
	}
	a.reply(context, "create_comment", start, views[0], nil)
}

func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetCommentsForPostMsg) {
	start := time.Now()
	ctx, cancel := a.opContext()
	defer cancel()

	if _, err := a.DB.GetPost(ctx, msg.PostID); err != nil {
		a.reply(context, "get_comments", start, nil, err)
		return
	}
	comments, err := a.DB.GetPostComments(ctx, msg.PostID)
	if err != nil {
		a.reply(context, "get_comments", start, nil, err)
		return
	}
	views, err := commentViews(ctx, a.DB, comments)
	a.reply(context, "get_comments", start, views, err)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		a.reply(context, "delete_comment", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()

	comment, err := a.DB.GetComment(ctx, msg.CommentID)
	if err != nil {
		a.reply(context, "delete_comment", start, nil, err)
		return
	}
	if comment.AuthorID != msg.Caller.ID && !msg.Caller.IsAdmin() {
		a.reply(context, "delete_comment", start, nil, utils.NewForbiddenError("Only the author or an admin can delete this comment"))
		return
	}
	if err := a.DB.DeleteComment(ctx, msg.CommentID); err != nil {
		a.reply(context, "delete_comment", start, nil, err)
		return
	}
	if comment.AuthorID != msg.Caller.ID {
		a.emit(context, events.New(events.CommentDeleted, msg.Caller.ID, comment.ID,
			map[string]string{"postId": comment.PostID.String()}))
	}
	a.reply(context, "delete_comment", start, true, nil)
}

func (a *CommentActor) handleLikeComment(context actor.Context, msg *LikeCommentMsg) {
	start := time.Now()
	if err := requireCaller(msg.Caller); err != nil {
		a.reply(context, "like_comment", start, nil, err)
		return
	}
	ctx, cancel := a.opContext()
	defer cancel()
	result, err := a.DB.ToggleCommentLike(ctx, msg.CommentID, msg.Caller.ID)
	a.reply(context, "like_comment", start, result, err)
}
