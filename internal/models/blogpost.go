package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publication status of a blog post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusScheduled PostStatus = "scheduled"
)

// BlogPost represents an editorial article
type BlogPost struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Slug          string     `json:"slug" db:"slug"`
	Excerpt       string     `json:"excerpt" db:"excerpt"`
	Content       string     `json:"content" db:"content"`
	FeaturedImage *string    `json:"featured_image,omitempty" db:"featured_image"`
	Category      string     `json:"category" db:"category"`
	Tags          []string   `json:"tags,omitempty" db:"tags"`
	Status        PostStatus `json:"status" db:"status"`
	AuthorID      uuid.UUID  `json:"author_id" db:"author_id"`
	PublishedAt   *time.Time `json:"published_at,omitempty" db:"published_at"`
	Views         int        `json:"views" db:"views"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}
