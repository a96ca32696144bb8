package handlers

import (
	"net/http"
	"strconv"

	"newsroom/internal/engine/actors"
	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=80"`
	Slug        string `json:"slug" validate:"omitempty,max=80"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=80"`
	Slug        *string `json:"slug" validate:"omitempty,max=80"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Color       *string `json:"color" validate:"omitempty,hexcolor"`
}

// CreateBannerRequest is accepted as JSON or as multipart form values with an "image" file.
type CreateBannerRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Subtitle string `json:"subtitle" validate:"omitempty,max=300"`
	Link     string `json:"link" validate:"omitempty,max=2048"`
	Image    string `json:"image" validate:"omitempty,max=2048"`
	Position string `json:"position" validate:"omitempty,oneof=top bottom left right center"`
	IsActive *bool  `json:"isActive"`
}

type UpdateBannerRequest struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	Subtitle *string `json:"subtitle" validate:"omitempty,max=300"`
	Link     *string `json:"link" validate:"omitempty,max=2048"`
	Image    *string `json:"image" validate:"omitempty,max=2048"`
	Position *string `json:"position" validate:"omitempty,oneof=top bottom left right center"`
	IsActive *bool   `json:"isActive"`
}

func deleted(what string) map[string]string {
	return map[string]string{"message": what + " deleted"}
}

func (s *Server) HandleStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := ask[*models.Stats](s, s.Engine.GetAdminActor(), &actors.GetStatsMsg{
			Caller: middleware.CallerFromContext(r.Context()),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, stats)
	}
}

func (s *Server) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := ask[[]*models.User](s, s.Engine.GetAdminActor(), &actors.ListUsersMsg{
			Caller: middleware.CallerFromContext(r.Context()),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, users)
	}
}

func (s *Server) HandleSetRole() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		var req SetRoleRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		user, err := ask[*models.User](s, s.Engine.GetAdminActor(), &actors.SetUserRoleMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			UserID: id,
			Role:   models.Role(req.Role),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, user)
	}
}

func (s *Server) HandleDeleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[bool](s, s.Engine.GetAdminActor(), &actors.DeleteUserMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			UserID: id,
		}); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, deleted("User"))
	}
}

// HandleListCategories is public and sorted by name.
func (s *Server) HandleListCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := ask[[]*models.Category](s, s.Engine.GetAdminActor(), &actors.ListCategoriesMsg{})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, categories)
	}
}

func (s *Server) HandleCreateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateCategoryRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		category, err := ask[*models.Category](s, s.Engine.GetAdminActor(), &actors.CreateCategoryMsg{
			Caller:      middleware.CallerFromContext(r.Context()),
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Color:       req.Color,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusCreated, category)
	}
}

func (s *Server) HandleUpdateCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		var req UpdateCategoryRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		category, err := ask[*models.Category](s, s.Engine.GetAdminActor(), &actors.UpdateCategoryMsg{
			Caller:     middleware.CallerFromContext(r.Context()),
			CategoryID: id,
			Update: models.CategoryUpdate{
				Name:        req.Name,
				Slug:        req.Slug,
				Description: req.Description,
				Color:       req.Color,
			},
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, category)
	}
}

// HandleDeleteCategory removes a category and clears it from posts that used it.
func (s *Server) HandleDeleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[bool](s, s.Engine.GetAdminActor(), &actors.DeleteCategoryMsg{
			Caller:     middleware.CallerFromContext(r.Context()),
			CategoryID: id,
		}); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, deleted("Category"))
	}
}

func (s *Server) HandleListBanners(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		banners, err := ask[[]*models.Banner](s, s.Engine.GetAdminActor(), &actors.ListBannersMsg{ActiveOnly: activeOnly})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, banners)
	}
}

func (s *Server) HandleCreateBanner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := s.readCreateBanner(w, r)
		if err != nil {
			respondError(w, err)
			return
		}
		banner, err := ask[*models.Banner](s, s.Engine.GetAdminActor(), &actors.CreateBannerMsg{
			Caller:   middleware.CallerFromContext(r.Context()),
			Title:    req.Title,
			Subtitle: req.Subtitle,
			Link:     req.Link,
			Image:    req.Image,
			Position: models.BannerPosition(req.Position),
			IsActive: req.IsActive,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusCreated, banner)
	}
}

func (s *Server) readCreateBanner(w http.ResponseWriter, r *http.Request) (*CreateBannerRequest, error) {
	var req CreateBannerRequest
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
	req.Subtitle = r.FormValue("subtitle")
	req.Link = r.FormValue("link")
	req.Position = r.FormValue("position")
	if raw := r.FormValue("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, utils.NewInvalidInputError("isActive must be true or false")
		}
		req.IsActive = &active
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

func (s *Server) HandleUpdateBanner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		var req UpdateBannerRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		update := models.BannerUpdate{
			Title:    req.Title,
			Subtitle: req.Subtitle,
			Link:     req.Link,
			Image:    req.Image,
			IsActive: req.IsActive,
		}
		if req.Position != nil {
			pos := models.BannerPosition(*req.Position)
			update.Position = &pos
		}
		banner, err := ask[*models.Banner](s, s.Engine.GetAdminActor(), &actors.UpdateBannerMsg{
			Caller:   middleware.CallerFromContext(r.Context()),
			BannerID: id,
			Update:   update,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, banner)
	}
}

func (s *Server) HandleDeleteBanner() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[bool](s, s.Engine.GetAdminActor(), &actors.DeleteBannerMsg{
			Caller:   middleware.CallerFromContext(r.Context()),
			BannerID: id,
		}); err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, deleted("Banner"))
	}
}
