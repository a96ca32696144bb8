package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"newsroom/internal/engine/actors"
	"newsroom/internal/middleware"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// CreatePostRequest represents a request to create a new post. The same
// fields are accepted as multipart form values alongside an "image" file.
type CreatePostRequest struct {
	Title        string   `json:"title" validate:"required,max=300"`
	Content      string   `json:"content" validate:"required"`
	Image        string   `json:"image" validate:"omitempty,max=2048"`
	CategoryID   string   `json:"categoryId" validate:"omitempty,uuid"`
	Tags         []string `json:"tags" validate:"max=20,dive,max=40"`
	IsEditorPick bool     `json:"isEditorPick"`
}

// UpdatePostRequest lists the fields an author may edit.
type UpdatePostRequest struct {
	Title      *string   `json:"title" validate:"omitempty,max=300"`
	Content    *string   `json:"content"`
	Image      *string   `json:"image" validate:"omitempty,max=2048"`
	CategoryID *string   `json:"categoryId" validate:"omitempty,uuid"`
	Tags       *[]string `json:"tags" validate:"omitempty,max=20,dive,max=40"`
}

// AdminUpdatePostRequest adds the moderation flags to UpdatePostRequest.
type AdminUpdatePostRequest struct {
	UpdatePostRequest
	IsEditorPick *bool `json:"isEditorPick"`
	IsApproved   *bool `json:"isApproved"`
}

func (req UpdatePostRequest) toUpdate() (models.PostUpdate, error) {
	update := models.PostUpdate{
		Title:   req.Title,
		Content: req.Content,
		Image:   req.Image,
		Tags:    req.Tags,
	}
	if req.CategoryID != nil {
		id, err := optionalID(*req.CategoryID, "categoryId")
		if err != nil {
			return update, err
		}
		update.CategoryID = id
	}
	return update, nil
}

// HandleCreatePost accepts JSON or a multipart form with an optional image.
// Posts always start pending; the editor pick flag is honoured for admins only.
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.readCreatePost(w, r)
		if err != nil {
			respondError(w, err)
			return
		}
		categoryID, err := optionalID(req.CategoryID, "categoryId")
		if err != nil {
			respondError(w, err)
			return
		}
		post, err := ask[*models.PostView](s, s.Engine.GetPostActor(), &actors.CreatePostMsg{
			Caller:     middleware.CallerFromContext(r.Context()),
			Title:      req.Title,
			Content:    req.Content,
			Image:      req.Image,
			CategoryID: categoryID,
			Tags:       req.Tags,
			EditorPick: req.IsEditorPick,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusCreated, post)
	}
}

func (s *Server) readCreatePost(w http.ResponseWriter, r *http.Request) (*CreatePostRequest, error) {
	var req CreatePostRequest
	if !isMultipart(r) {
		if err := s.decodeJSON(w, r, &req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	if err := parseMultipart(w, r); err != nil {
		return nil, err
	}
	req.Title = r.FormValue("title")
	req.Content = r.FormValue("content")
	req.CategoryID = r.FormValue("categoryId")
	req.Tags = splitTags(r.MultipartForm.Value["tags"])
	if raw := r.FormValue("isEditorPick"); raw != "" {
		pick, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, utils.NewInvalidInputError("isEditorPick must be true or false")
		}
		req.IsEditorPick = pick
	}
	if err := s.validateStruct(&req); err != nil {
		return nil, err
	}
	url, err := s.formImage(r, false)
	if err != nil {
		return nil, err
	}
	req.Image = url
	return &req, nil
}

// HandleUpdatePost edits a post. The author route rejects moderation
// fields as unknown; the admin route accepts them.
func (s *Server) HandleUpdatePost(asAdmin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var update models.PostUpdate
		if asAdmin {
			var req AdminUpdatePostRequest
			if err := s.decodeJSON(w, r, &req); err != nil {
				respondError(w, err)
				return
			}
			if update, err = req.toUpdate(); err != nil {
				respondError(w, err)
				return
			}
			update.IsApproved = req.IsApproved
			update.IsEditorPick = req.IsEditorPick
		} else {
			var req UpdatePostRequest
			if err := s.decodeJSON(w, r, &req); err != nil {
				respondError(w, err)
				return
			}
			if update, err = req.toUpdate(); err != nil {
				respondError(w, err)
				return
			}
		}

		post, err := ask[*models.PostView](s, s.Engine.GetPostActor(), &actors.UpdatePostMsg{
			Caller:  middleware.CallerFromContext(r.Context()),
			PostID:  id,
			Update:  update,
			AsAdmin: asAdmin,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, post)
	}
}

// HandleFeed serves one of the post listings.
func (s *Server) HandleFeed(feed moderation.Feed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msg := &actors.GetFeedMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			Feed:   feed,
		}
		q := r.URL.Query()
		switch feed {
		case moderation.FeedSearch:
			sort, ok := moderation.ParseSort(q.Get("sort"))
			if !ok {
				respondError(w, utils.NewInvalidInputError("sort must be newest, likes or views"))
				return
			}
			categoryID, err := optionalID(q.Get("category"), "category")
			if err != nil {
				respondError(w, err)
				return
			}
			msg.Text = strings.TrimSpace(q.Get("q"))
			msg.Sort = sort
			msg.CategoryID = categoryID
		case moderation.FeedAdmin:
			status, ok := moderation.ParseStatus(q.Get("status"))
			if !ok {
				respondError(w, utils.NewInvalidInputError("status must be pending or approved"))
				return
			}
			msg.Status = status
		}

		posts, err := ask[[]*models.PostView](s, s.Engine.GetPostActor(), msg)
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, posts)
	}
}

// HandleGetPost returns one post fully populated and counts a unique view.
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		viewer := models.ViewerKey{Addr: clientAddr(r, s.TrustedProxies)}
		if caller := middleware.CallerFromContext(r.Context()); caller.Authenticated() {
			viewer = models.ViewerKey{UserID: caller.ID}
		}
		post, err := ask[*models.PostView](s, s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: id, Viewer: viewer})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, post)
	}
}

func (s *Server) HandleLikePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.like(w, r, s.Engine.GetPostActor(), func(caller *models.Caller, id uuid.UUID) interface{} {
			return &actors.LikePostMsg{Caller: caller, PostID: id}
		})
	}
}

// HandleModeratePost runs an approve, reject or pick transition.
func (s *Server) HandleModeratePost(action moderation.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		post, err := ask[*models.PostView](s, s.Engine.GetPostActor(), &actors.ModeratePostMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			PostID: id,
			Action: action,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, post)
	}
}

func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[bool](s, s.Engine.GetPostActor(), &actors.DeletePostMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			PostID: id,
		}); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, deleted("Post"))
	}
}
