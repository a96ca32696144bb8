package models

import (
	"time"

	"github.com/google/uuid"
)

type BannerPosition string

const (
	PositionTop    BannerPosition = "top"
	PositionBottom BannerPosition = "bottom"
	PositionLeft   BannerPosition = "left"
	PositionRight  BannerPosition = "right"
	PositionCenter BannerPosition = "center"
)

func (p BannerPosition) Valid() bool {
	switch p {
	case PositionTop, PositionBottom, PositionLeft, PositionRight, PositionCenter:
		return true
	}
	return false
}

type Banner struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Subtitle  string         `json:"subtitle"`
	Link      string         `json:"link"`
	Image     string         `json:"image"`
	Position  BannerPosition `json:"position"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BannerUpdate holds the editable fields of a banner. Nil fields are left untouched.
type BannerUpdate struct {
	Title    *string
	Subtitle *string
	Link     *string
	Image    *string
	Position *BannerPosition
	IsActive *bool
}

func (u BannerUpdate) Empty() bool {
	return u.Title == nil && u.Subtitle == nil && u.Link == nil && u.Image == nil &&
		u.Position == nil && u.IsActive == nil
}

func (u BannerUpdate) Apply(b *Banner) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Subtitle != nil {
		b.Subtitle = *u.Subtitle
	}
	if u.Link != nil {
		b.Link = *u.Link
	}
	if u.Image != nil {
		b.Image = *u.Image
	}
	if u.Position != nil {
		b.Position = *u.Position
	}
	if u.IsActive != nil {
		b.IsActive = *u.IsActive
	}
}
