package models

import (
	"time"

	"github.com/google/uuid"
)

// Review represents a user review of a company.
// The pair (company_id, user_id) is unique: a user holds at most one
// review per company.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CompanyID  uuid.UUID `json:"company_id" db:"company_id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Title      string    `json:"title" db:"title"`
	Content    string    `json:"content" db:"content"`
	Rating     int       `json:"rating" db:"rating"`
	IsVerified bool      `json:"is_verified" db:"is_verified"`
	IsFeatured bool      `json:"is_featured" db:"is_featured"`
	Pros       []string  `json:"pros,omitempty" db:"pros"`
	Cons       []string  `json:"cons,omitempty" db:"cons"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
