package models

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCategoryColor is used when a category is stored without a color.
const DefaultCategoryColor = "#009688"

var categoryPalette = []string{
	"#F44336", "#E91E63", "#9C27B0", "#673AB7", "#3F51B5",
	"#2196F3", "#03A9F4", "#00BCD4", "#009688", "#4CAF50",
	"#8BC34A", "#CDDC39", "#FFC107", "#FF9800", "#FF5722",
}

type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (c *Category) Summary() *CategorySummary {
	return &CategorySummary{ID: c.ID, Name: c.Name, Slug: c.Slug, Color: c.Color}
}

type CategorySummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Color string    `json:"color"`
}

// CategoryUpdate holds the editable fields of a category. Nil fields are left untouched.
type CategoryUpdate struct {
	Name        *string
	Slug        *string
	Description *string
	Color       *string
}

func (u CategoryUpdate) Empty() bool {
	return u.Name == nil && u.Slug == nil && u.Description == nil && u.Color == nil
}

func (u CategoryUpdate) Apply(c *Category) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Slug != nil {
		c.Slug = *u.Slug
	}
	if u.Description != nil {
		c.Description = *u.Description
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	return strings.Trim(slugStrip.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

// RandomCategoryColor picks a color from the fixed palette.
func RandomCategoryColor() string {
	return categoryPalette[rand.IntN(len(categoryPalette))]
}

// InPalette reports whether color is one of the palette colors.
func InPalette(color string) bool {
	for _, c := range categoryPalette {
		if strings.EqualFold(c, color) {
			return true
		}
	}
	return false
}
