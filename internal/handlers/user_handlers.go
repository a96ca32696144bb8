package handlers

import (
	"net/http"

	"newsroom/internal/api"
	"newsroom/internal/engine/actors"
	"newsroom/internal/middleware"
	"newsroom/internal/moderation"
	"newsroom/internal/models"
)

// UpdateProfileRequest lists the profile fields an account may change.
type UpdateProfileRequest struct {
	FullName   *string         `json:"fullName" validate:"omitempty,max=100"`
	Username   *string         `json:"username" validate:"omitempty,min=3,max=32"`
	Email      *string         `json:"email" validate:"omitempty,email"`
	Bio        *string         `json:"bio" validate:"omitempty,max=2000"`
	Profession *string         `json:"profession" validate:"omitempty,max=100"`
	Experience *string         `json:"experience" validate:"omitempty,max=2000"`
	Contact    *models.Contact `json:"contact"`
}

func (s *Server) HandleGetMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, middleware.UserFromContext(r.Context()))
	}
}

func (s *Server) HandleUpdateMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateProfileRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		s.updateProfile(w, r, models.ProfileUpdate{
			FullName:   req.FullName,
			Username:   req.Username,
			Email:      req.Email,
			Bio:        req.Bio,
			Profession: req.Profession,
			Experience: req.Experience,
			Contact:    req.Contact,
		})
	}
}

// HandleUpdateAvatar stores the multipart "image" file and sets it as the profile image.
func (s *Server) HandleUpdateAvatar() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := s.uploadImage(w, r, true)
		if err != nil {
			respondError(w, err)
			return
		}
		s.updateProfile(w, r, models.ProfileUpdate{ProfileImage: &url})
	}
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request, update models.ProfileUpdate) {
	user, err := ask[*models.User](s, s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
		Caller: middleware.CallerFromContext(r.Context()),
		Update: update,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, user)
}

func (s *Server) HandleGetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		user, err := ask[*models.User](s, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: id})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, api.NewPublicProfile(user))
	}
}

// HandleGetUserPosts lists the approved posts of one author.
func (s *Server) HandleGetUserPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		if _, err := ask[*models.User](s, s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: id}); err != nil {
			respondError(w, err)
			return
		}
		posts, err := ask[[]*models.PostView](s, s.Engine.GetPostActor(), &actors.GetFeedMsg{
			Feed:     moderation.FeedUser,
			AuthorID: id,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, posts)
	}
}

func (s *Server) HandleToggleFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		res, err := ask[*models.ToggleResult](s, s.Engine.GetUserActor(), &actors.FollowMsg{
			Caller:   middleware.CallerFromContext(r.Context()),
			TargetID: id,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, res)
	}
}

func (s *Server) HandleIsFollowing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		following, err := ask[bool](s, s.Engine.GetUserActor(), &actors.IsFollowingMsg{
			Caller:   middleware.CallerFromContext(r.Context()),
			TargetID: id,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, api.FollowStatus{IsFollowing: following})
	}
}

// HandleGetFollows lists followers, or followed accounts when following is set.
func (s *Server) HandleGetFollows(following bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}
		users, err := ask[[]*models.UserSummary](s, s.Engine.GetUserActor(), &actors.GetFollowsMsg{
			UserID:    id,
			Following: following,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, users)
	}
}

func (s *Server) HandleGetBookmarks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := ask[[]*models.PostView](s, s.Engine.GetPostActor(), &actors.GetBookmarkedPostsMsg{
			Caller: middleware.CallerFromContext(r.Context()),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, posts)
	}
}

func (s *Server) HandleToggleBookmark() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "postId")
		if err != nil {
			respondError(w, err)
			return
		}
		res, err := ask[*models.ToggleResult](s, s.Engine.GetUserActor(), &actors.BookmarkMsg{
			Caller: middleware.CallerFromContext(r.Context()),
			PostID: postID,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, res)
	}
}
