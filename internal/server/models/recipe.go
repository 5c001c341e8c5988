package models

import "time"

// Recipe is a published recipe. AuthorID is the only ownership record;
// AuthorName is filled on reads that join the author.
type Recipe struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Ingredients []string   `json:"ingredients"`
	Category    string     `json:"category"`
	CoverImage  string     `json:"coverImage"`
	AuthorID    IdentityID `json:"authorId"`
	AuthorName  string     `json:"authorName,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
