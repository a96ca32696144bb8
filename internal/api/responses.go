// Package api holds the response bodies that are not plain domain models.
package api

import (
	"time"

	"github.com/google/uuid"

	"newsroom/internal/models"
	"newsroom/internal/utils"
)

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type RegisterResponse struct {
	User *models.User `json:"user"`
}

// MessageResponse acknowledges mutations that return no resource.
type MessageResponse struct {
	Message string `json:"message"`
}

type FollowStatus struct {
	IsFollowing bool `json:"isFollowing"`
}

// PublicProfile is what anyone may see about an account.
type PublicProfile struct {
	ID             uuid.UUID      `json:"id"`
	FullName       string         `json:"fullName"`
	Username       string         `json:"username"`
	Bio            string         `json:"bio"`
	Profession     string         `json:"profession"`
	Experience     string         `json:"experience"`
	Contact        models.Contact `json:"contact"`
	ProfileImage   string         `json:"profileImage"`
	Role           models.Role    `json:"role"`
	FollowersCount int            `json:"followersCount"`
	FollowingCount int            `json:"followingCount"`
	CreatedAt      time.Time      `json:"createdAt"`
}

func NewPublicProfile(u *models.User) *PublicProfile {
	return &PublicProfile{
		ID:             u.ID,
		FullName:       u.FullName,
		Username:       u.Username,
		Bio:            u.Bio,
		Profession:     u.Profession,
		Experience:     u.Experience,
		Contact:        u.Contact,
		ProfileImage:   u.ProfileImage,
		Role:           u.Role,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
}

type HealthResponse struct {
	Status     string         `json:"status"`
	PostCount  int            `json:"postCount"`
	ServerTime time.Time      `json:"serverTime"`
	Metrics    utils.Snapshot `json:"metrics"`
}
