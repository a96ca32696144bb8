package handlers

import (
	"log/slog"
	"net/http"

	"newsroom/internal/api"
	"newsroom/internal/engine/actors"
	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	FullName string `json:"fullName" validate:"max=100"`
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates an account. It does not log the user in.
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		user, err := ask[*models.User](s, s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			FullName: req.FullName,
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		slog.Info("user registered", "user", user.ID, "role", user.Role)
		respond(w, http.StatusCreated, api.RegisterResponse{User: user})
	}
}

// HandleLogin verifies credentials and issues a bearer token.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := s.decodeJSON(w, r, &req); err != nil {
			respondError(w, err)
			return
		}
		user, err := ask[*models.User](s, s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		token, err := s.Tokens.GenerateToken(user.ID)
		if err != nil {
			respondError(w, utils.NewAppError(utils.ErrDatabase, "Failed to generate auth token", err))
			return
		}
		respond(w, http.StatusOK, api.LoginResponse{Token: token, User: user})
	}
}
