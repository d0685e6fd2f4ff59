package models

import "time"

// Category is the topic a blog post is filed under
type Category string

// Category constants
const (
	CategoryAgriculture   Category = "Agriculture"
	CategoryBusiness      Category = "Business"
	CategoryEducation     Category = "Education"
	CategoryEntertainment Category = "Entertainment"
	CategoryArt           Category = "Art"
	CategoryInvestment    Category = "Investment"
	CategoryWeather       Category = "Weather"
	CategoryTechnology    Category = "Technology"
)

// Categories lists every accepted category
var Categories = []Category{
	CategoryAgriculture,
	CategoryBusiness,
	CategoryEducation,
	CategoryEntertainment,
	CategoryArt,
	CategoryInvestment,
	CategoryWeather,
	CategoryTechnology,
}

// IsValid reports whether c is one of the accepted categories
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Image count bounds of a blog post
const (
	MinBlogImages = 1
	MaxBlogImages = 5
)

// Blog represents a blog post
type Blog struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Category    Category    `json:"category"`
	Images      []string    `json:"images"`
	AuthorID    string      `json:"authorId"`
	Author      *AuthorName `json:"author,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// AuthorName is the display name embedded into blog responses
type AuthorName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CreateBlogRequest contains the text fields of a new blog post
type CreateBlogRequest struct {
	Title       string
	Description string
	Category    string
}

// UpdateBlogRequest contains the fields to overwrite; nil fields stay unchanged
type UpdateBlogRequest struct {
	Title       *string
	Description *string
	Category    *string
}
