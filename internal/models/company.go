package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Company represents a listed business in the directory
type Company struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Slug          string          `json:"slug" db:"slug"`
	URL           *string         `json:"url,omitempty" db:"url"`
	Description   string          `json:"description" db:"description"`
	Logo          *string         `json:"logo,omitempty" db:"logo"`
	Industry      *string         `json:"industry,omitempty" db:"industry"`
	Location      *string         `json:"location,omitempty" db:"location"`
	IsPartner     bool            `json:"is_partner" db:"is_partner"`
	IsActive      bool            `json:"is_active" db:"is_active"`
	AverageRating decimal.Decimal `json:"average_rating" db:"average_rating"`
	TotalReviews  int             `json:"total_reviews" db:"total_reviews"`
	MetaData      map[string]any  `json:"meta_data,omitempty" db:"meta_data"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
}
