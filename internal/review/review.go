package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/finnrudolph/firmlens/internal/config"
	"github.com/finnrudolph/firmlens/internal/logging"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service errors
var (
	ErrReviewNotFound    = errors.New("review not found")
	ErrCompanyNotFound   = errors.New("company not found")
	ErrDuplicateReview   = errors.New("user already reviewed this company")
	ErrNotReviewAuthor   = errors.New("review not owned by user")
	ErrTitleRequired     = errors.New("review title is required")
	ErrContentTooShort   = errors.New("review content must be at least 50 characters")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrAggregationFailed = errors.New("aggregation failed")
)

// Validation constants
const (
	MinContentLength = 50
	MinRating        = 1
	MaxRating        = 5
)

// Postgres error codes surfaced by constraint violations
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Service is the review store. Every mutation recomputes the owning
// company's aggregate fields inside the same transaction, so a caller
// never observes aggregates that lag the committed review set.
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new review service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateReviewRequest represents a request to create a review
type CreateReviewRequest struct {
	Title   string   `json:"title" binding:"required,max=255"`
	Content string   `json:"content" binding:"required"`
	Rating  int      `json:"rating" binding:"required"`
	Pros    []string `json:"pros,omitempty"`
	Cons    []string `json:"cons,omitempty"`
}

// UpdateReviewRequest represents a request to update a review
type UpdateReviewRequest struct {
	Title   *string   `json:"title,omitempty"`
	Content *string   `json:"content,omitempty"`
	Rating  *int      `json:"rating,omitempty"`
	Pros    *[]string `json:"pros,omitempty"`
	Cons    *[]string `json:"cons,omitempty"`
}

// ListReviewsResponse represents a paginated list of reviews
type ListReviewsResponse struct {
	Reviews    []models.Review `json:"reviews"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

// ValidateTitle validates a review title
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}
	return nil
}

// ValidateContent validates review content length. Length is counted
// in characters, not bytes, so multibyte content is not over-credited.
func ValidateContent(content string) error {
	if utf8.RuneCountInString(content) < MinContentLength {
		return ErrContentTooShort
	}
	return nil
}

// ValidateRating validates that a rating is within [1,5]
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	return nil
}

// Create persists a new review by authorID for companyID and recomputes
// the company's aggregates before the transaction commits.
func (s *Service) Create(ctx context.Context, companyID, authorID uuid.UUID, req *CreateReviewRequest) (*models.Review, error) {
	if err := ValidateTitle(req.Title); err != nil {
		return nil, err
	}
	if err := ValidateContent(req.Content); err != nil {
		return nil, err
	}
	if err := ValidateRating(req.Rating); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var rev models.Review
	err = tx.QueryRow(ctx, `
		INSERT INTO reviews (company_id, user_id, title, content, rating, pros, cons)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, company_id, user_id, title, content, rating,
			is_verified, is_featured, pros, cons, created_at, updated_at
	`, companyID, authorID, req.Title, req.Content, req.Rating, req.Pros, req.Cons).Scan(
		&rev.ID, &rev.CompanyID, &rev.UserID, &rev.Title, &rev.Content,
		&rev.Rating, &rev.IsVerified, &rev.IsFeatured, &rev.Pros, &rev.Cons,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgUniqueViolation:
				return nil, ErrDuplicateReview
			case pgForeignKeyViolation:
				return nil, ErrCompanyNotFound
			}
		}
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	count, avg, err := s.recompute(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	monitoring.RecordReviewMutation("create")
	logging.LogReviewEvent("create", rev.ID.String(), companyID.String(), count, avg.String())
	return &rev, nil
}

// Update modifies a review owned by actorID (admins may modify any review),
// re-validating changed fields, and recomputes the company's aggregates in
// the same transaction.
func (s *Service) Update(ctx context.Context, reviewID, actorID uuid.UUID, isAdmin bool, req *UpdateReviewRequest) (*models.Review, error) {
	if req.Title != nil {
		if err := ValidateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		if err := ValidateContent(*req.Content); err != nil {
			return nil, err
		}
	}
	if req.Rating != nil {
		if err := ValidateRating(*req.Rating); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var rev models.Review
	err = tx.QueryRow(ctx, `
		SELECT id, company_id, user_id, title, content, rating,
			is_verified, is_featured, pros, cons, created_at, updated_at
		FROM reviews WHERE id = $1
		FOR UPDATE
	`, reviewID).Scan(
		&rev.ID, &rev.CompanyID, &rev.UserID, &rev.Title, &rev.Content,
		&rev.Rating, &rev.IsVerified, &rev.IsFeatured, &rev.Pros, &rev.Cons,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if rev.UserID != actorID && !isAdmin {
		return nil, ErrNotReviewAuthor
	}

	if req.Title != nil {
		rev.Title = *req.Title
	}
	if req.Content != nil {
		rev.Content = *req.Content
	}
	if req.Rating != nil {
		rev.Rating = *req.Rating
	}
	if req.Pros != nil {
		rev.Pros = *req.Pros
	}
	if req.Cons != nil {
		rev.Cons = *req.Cons
	}

	err = tx.QueryRow(ctx, `
		UPDATE reviews SET
			title = $1, content = $2, rating = $3, pros = $4, cons = $5,
			updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`, rev.Title, rev.Content, rev.Rating, rev.Pros, rev.Cons, reviewID).Scan(&rev.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update review: %w", err)
	}

	count, avg, err := s.recompute(ctx, tx, rev.CompanyID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	monitoring.RecordReviewMutation("update")
	logging.LogReviewEvent("update", rev.ID.String(), rev.CompanyID.String(), count, avg.String())
	return &rev, nil
}

// Delete removes a review owned by actorID (admins may remove any review)
// and recomputes the owning company's aggregates in the same transaction.
func (s *Service) Delete(ctx context.Context, reviewID, actorID uuid.UUID, isAdmin bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var ownerID, companyID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id, company_id FROM reviews WHERE id = $1 FOR UPDATE
	`, reviewID).Scan(&ownerID, &companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrReviewNotFound
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if ownerID != actorID && !isAdmin {
		return ErrNotReviewAuthor
	}

	if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	count, avg, err := s.recompute(ctx, tx, companyID)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	monitoring.RecordReviewMutation("delete")
	logging.LogReviewEvent("delete", reviewID.String(), companyID.String(), count, avg.String())
	return nil
}

// GetByID retrieves a review by ID
func (s *Service) GetByID(ctx context.Context, reviewID uuid.UUID) (*models.Review, error) {
	var rev models.Review
	err := s.db.QueryRow(ctx, `
		SELECT id, company_id, user_id, title, content, rating,
			is_verified, is_featured, pros, cons, created_at, updated_at
		FROM reviews WHERE id = $1
	`, reviewID).Scan(
		&rev.ID, &rev.CompanyID, &rev.UserID, &rev.Title, &rev.Content,
		&rev.Rating, &rev.IsVerified, &rev.IsFeatured, &rev.Pros, &rev.Cons,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &rev, nil
}

// ListForCompany retrieves reviews for a company, newest first, with
// pagination. Re-querying always reflects the current review set.
func (s *Service) ListForCompany(ctx context.Context, companyID uuid.UUID, page, pageSize int) (*ListReviewsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = config.DefaultPageSize
	}
	offset := (page - 1) * pageSize

	var total int64
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM reviews WHERE company_id = $1
	`, companyID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, company_id, user_id, title, content, rating,
			is_verified, is_featured, pros, cons, created_at, updated_at
		FROM reviews
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, companyID, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, err
	}

	return &ListReviewsResponse{
		Reviews:    reviews,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// List retrieves reviews across companies with optional filters: a
// company-name search and an exact rating.
func (s *Service) List(ctx context.Context, search string, rating, page, pageSize int) (*ListReviewsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = config.DefaultPageSize
	}
	offset := (page - 1) * pageSize

	where := "WHERE 1=1"
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND r.company_id IN (SELECT id FROM companies WHERE name ILIKE $%d)", len(args))
	}
	if rating >= MinRating && rating <= MaxRating {
		args = append(args, rating)
		where += fmt.Sprintf(" AND r.rating = $%d", len(args))
	}

	var total int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM reviews r "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	args = append(args, pageSize, offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT r.id, r.company_id, r.user_id, r.title, r.content, r.rating,
			r.is_verified, r.is_featured, r.pros, r.cons, r.created_at, r.updated_at
		FROM reviews r
		%s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews, err := scanReviews(rows)
	if err != nil {
		return nil, err
	}

	return &ListReviewsResponse{
		Reviews:    reviews,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

// FeaturedVerified retrieves the latest featured and verified reviews
func (s *Service) FeaturedVerified(ctx context.Context, limit int) ([]models.Review, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, company_id, user_id, title, content, rating,
			is_verified, is_featured, pros, cons, created_at, updated_at
		FROM reviews
		WHERE is_featured AND is_verified
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list featured reviews: %w", err)
	}
	defer rows.Close()

	return scanReviews(rows)
}

func scanReviews(rows pgx.Rows) ([]models.Review, error) {
	var reviews []models.Review
	for rows.Next() {
		var rev models.Review
		err := rows.Scan(
			&rev.ID, &rev.CompanyID, &rev.UserID, &rev.Title, &rev.Content,
			&rev.Rating, &rev.IsVerified, &rev.IsFeatured, &rev.Pros, &rev.Cons,
			&rev.CreatedAt, &rev.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

func totalPages(total int64, pageSize int) int {
	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}
	return pages
}
