package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the permission level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Contact struct {
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Address string `json:"address"`
}

type User struct {
	ID           uuid.UUID   `json:"id"`
	FullName     string      `json:"fullName"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Bio          string      `json:"bio"`
	Profession   string      `json:"profession"`
	Experience   string      `json:"experience"`
	Contact      Contact     `json:"contact"`
	ProfileImage string      `json:"profileImage"`
	Role         Role        `json:"role"`
	Following    []uuid.UUID `json:"following"`
	Followers    []uuid.UUID `json:"followers"`
	Bookmarks    []uuid.UUID `json:"bookmarks"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsFollowing reports whether u follows the user with the given ID.
func (u *User) IsFollowing(id uuid.UUID) bool {
	return ContainsID(u.Following, id)
}

// Summary is the populated form of a user embedded in posts and comments.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		FullName:     u.FullName,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
	}
}

// Caller converts an account into the identity passed along with engine requests.
func (u *User) Caller() *Caller {
	return &Caller{ID: u.ID, Role: u.Role}
}

type UserSummary struct {
	ID           uuid.UUID `json:"id"`
	FullName     string    `json:"fullName"`
	Username     string    `json:"username"`
	ProfileImage string    `json:"profileImage"`
}

// Caller is the resolved identity of the account making a request.
// A nil *Caller is an anonymous request.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

func (c *Caller) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

func (c *Caller) Authenticated() bool {
	return c != nil && c.ID != uuid.Nil
}

// ProfileUpdate lists the profile fields an account may change on itself.
// Nil fields are left untouched.
type ProfileUpdate struct {
	FullName     *string
	Username     *string
	Email        *string
	Bio          *string
	Profession   *string
	Experience   *string
	Contact      *Contact
	ProfileImage *string
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.FullName == nil && u.Username == nil && u.Email == nil && u.Bio == nil &&
		u.Profession == nil && u.Experience == nil && u.Contact == nil && u.ProfileImage == nil
}

// Apply copies the set fields onto user.
func (u ProfileUpdate) Apply(user *User) {
	if u.FullName != nil {
		user.FullName = *u.FullName
	}
	if u.Username != nil {
		user.Username = *u.Username
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if u.Bio != nil {
		user.Bio = *u.Bio
	}
	if u.Profession != nil {
		user.Profession = *u.Profession
	}
	if u.Experience != nil {
		user.Experience = *u.Experience
	}
	if u.Contact != nil {
		user.Contact = *u.Contact
	}
	if u.ProfileImage != nil {
		user.ProfileImage = *u.ProfileImage
	}
}
