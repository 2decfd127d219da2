package faq

import (
	"context"
	"errors"
	"fmt"

	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrFAQNotFound is returned when the requested FAQ does not exist
var ErrFAQNotFound = errors.New("faq not found")

const generalCategory = "General"

const faqColumns = `id, question, answer, category, position, is_active, created_at, updated_at`

// Service handles FAQ operations
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new FAQ service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateFAQRequest represents a request to create an FAQ entry
type CreateFAQRequest struct {
	Question string  `json:"question" binding:"required"`
	Answer   string  `json:"answer" binding:"required"`
	Category *string `json:"category,omitempty"`
	Position int     `json:"position"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// UpdateFAQRequest represents a request to update an FAQ entry
type UpdateFAQRequest struct {
	Question *string `json:"question,omitempty"`
	Answer   *string `json:"answer,omitempty"`
	Category *string `json:"category,omitempty"`
	Position *int    `json:"position,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// FAQGroup is a category with its ordered questions. Entries without
// a category fall under "General".
type FAQGroup struct {
	Category string       `json:"category"`
	FAQs     []models.FAQ `json:"faqs"`
}

// ListGrouped returns active FAQs grouped by category. Groups keep
// the order their first entry appears in, entries sort by position
// then question.
func (s *Service) ListGrouped(ctx context.Context) ([]FAQGroup, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+faqColumns+` FROM faqs
		WHERE is_active = true
		ORDER BY COALESCE(category, '`+generalCategory+`'), position, question
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	defer rows.Close()

	faqs, err := scanFAQs(rows)
	if err != nil {
		return nil, err
	}

	var groups []FAQGroup
	index := make(map[string]int)
	for _, f := range faqs {
		category := generalCategory
		if f.Category != nil && *f.Category != "" {
			category = *f.Category
		}
		i, ok := index[category]
		if !ok {
			i = len(groups)
			index[category] = i
			groups = append(groups, FAQGroup{Category: category})
		}
		groups[i].FAQs = append(groups[i].FAQs, f)
	}

	return groups, nil
}

// Categories returns the distinct categories of active FAQs
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT COALESCE(category, '`+generalCategory+`') FROM faqs
		WHERE is_active = true
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list faq categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan faq category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faq categories: %w", err)
	}

	return categories, nil
}

// Create stores a new FAQ entry
func (s *Service) Create(ctx context.Context, req *CreateFAQRequest) (*models.FAQ, error) {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	var f models.FAQ
	err := s.db.QueryRow(ctx, `
		INSERT INTO faqs (question, answer, category, position, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+faqColumns+`
	`, req.Question, req.Answer, req.Category, req.Position, isActive,
	).Scan(faqFields(&f)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create faq: %w", err)
	}
	return &f, nil
}

// Update updates an FAQ entry
func (s *Service) Update(ctx context.Context, faqID uuid.UUID, req *UpdateFAQRequest) (*models.FAQ, error) {
	var f models.FAQ
	err := s.db.QueryRow(ctx, `
		SELECT `+faqColumns+` FROM faqs WHERE id = $1
	`, faqID).Scan(faqFields(&f)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFAQNotFound
		}
		return nil, fmt.Errorf("failed to get faq: %w", err)
	}

	if req.Question != nil {
		f.Question = *req.Question
	}
	if req.Answer != nil {
		f.Answer = *req.Answer
	}
	if req.Category != nil {
		f.Category = req.Category
	}
	if req.Position != nil {
		f.Position = *req.Position
	}
	if req.IsActive != nil {
		f.IsActive = *req.IsActive
	}

	err = s.db.QueryRow(ctx, `
		UPDATE faqs SET question = $1, answer = $2, category = $3, position = $4, is_active = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING `+faqColumns+`
	`, f.Question, f.Answer, f.Category, f.Position, f.IsActive, faqID,
	).Scan(faqFields(&f)...)
	if err != nil {
		return nil, fmt.Errorf("failed to update faq: %w", err)
	}
	return &f, nil
}

// Delete removes an FAQ entry
func (s *Service) Delete(ctx context.Context, faqID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM faqs WHERE id = $1`, faqID)
	if err != nil {
		return fmt.Errorf("failed to delete faq: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFAQNotFound
	}
	return nil
}

func faqFields(f *models.FAQ) []any {
	return []any{
		&f.ID, &f.Question, &f.Answer, &f.Category, &f.Position,
		&f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	}
}

func scanFAQs(rows pgx.Rows) ([]models.FAQ, error) {
	var faqs []models.FAQ
	for rows.Next() {
		var f models.FAQ
		if err := rows.Scan(faqFields(&f)...); err != nil {
			return nil, fmt.Errorf("failed to scan faq: %w", err)
		}
		faqs = append(faqs, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate faqs: %w", err)
	}

	return faqs, nil
}
