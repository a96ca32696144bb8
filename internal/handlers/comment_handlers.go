package handlers

import (
	"net/http"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"

	"newsroom/internal/engine/actors"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
)

// CreateCommentRequest represents a request to comment on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

func (s *Server) HandleCreateComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "postId")
		if err != nil {
			respondError(w, err)
			return
		}
		var req CreateCommentRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		comment, err := ask[*models.CommentView](s, s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
			Caller:  middleware.CallerFromContext(r.Context()),
			PostID:  postID,
			Content: req.Content,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusCreated, comment)
	}
}

// HandleGetComments lists a post's comments, newest first.
func (s *Server) HandleGetComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "postId")
		if err != nil {
			respondError(w, err)
			return
		}
		comments, err := ask[[]*models.CommentView](s, s.Engine.GetCommentActor(), &actors.GetCommentsForPostMsg{PostID: postID})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, comments)
	}
}

func (s *Server) HandleDeleteComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[bool](s, s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
			Caller:    middleware.CallerFromContext(r.Context()),
			CommentID: id,
		}); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, deleted("Comment"))
	}
}

func (s *Server) HandleLikeComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.like(w, r, s.Engine.GetCommentActor(), func(caller *models.Caller, id uuid.UUID) interface{} {
			return &actors.LikeCommentMsg{Caller: caller, CommentID: id}
		})
	}
}

// like runs a like toggle on the resource named by the id wildcard.
func (s *Server) like(w http.ResponseWriter, r *http.Request, pid *actor.PID, build func(*models.Caller, uuid.UUID) interface{}) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	res, err := ask[*models.LikeResult](s, pid, build(middleware.CallerFromContext(r.Context()), id))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, res)
}
