package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/finnrudolph/firmlens/internal/config"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Service errors
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrDuplicateSlug   = errors.New("company with this name already exists")
	ErrNameRequired    = errors.New("company name is required")
)

const pgUniqueViolation = "23505"

const companyColumns = `id, name, slug, url, description, logo, industry, location,
	is_partner, is_active, average_rating, total_reviews, meta_data, created_at, updated_at`

// Service handles company directory operations
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new company service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreateCompanyRequest represents a request to register a company
type CreateCompanyRequest struct {
	Name        string         `json:"name" binding:"required,min=1,max=255"`
	URL         *string        `json:"url,omitempty"`
	Description string         `json:"description" binding:"required"`
	Logo        *string        `json:"logo,omitempty"`
	Industry    *string        `json:"industry,omitempty"`
	Location    *string        `json:"location,omitempty"`
	IsPartner   bool           `json:"is_partner"`
	MetaData    map[string]any `json:"meta_data,omitempty"`
}

// UpdateCompanyRequest represents a request to update a company
type UpdateCompanyRequest struct {
	Name        *string         `json:"name,omitempty"`
	URL         *string         `json:"url,omitempty"`
	Description *string         `json:"description,omitempty"`
	Logo        *string         `json:"logo,omitempty"`
	Industry    *string         `json:"industry,omitempty"`
	Location    *string         `json:"location,omitempty"`
	IsPartner   *bool           `json:"is_partner,omitempty"`
	IsActive    *bool           `json:"is_active,omitempty"`
	MetaData    *map[string]any `json:"meta_data,omitempty"`
}

// ListFilters holds the optional filters for company listings
type ListFilters struct {
	Search   string
	Industry string
	Location string
}

// ListCompaniesResponse represents a paginated list of companies
type ListCompaniesResponse struct {
	Companies  []models.Company `json:"companies"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

// Create registers a new company. The slug is derived from the name.
// Aggregate fields start at zero and are owned by the review store's
// rating recomputation from then on.
func (s *Service) Create(ctx context.Context, req *CreateCompanyRequest) (*models.Company, error) {
	if req.Name == "" {
		return nil, ErrNameRequired
	}

	var company models.Company
	err := s.db.QueryRow(ctx, `
		INSERT INTO companies (name, slug, url, description, logo, industry, location, is_partner, meta_data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+companyColumns+`
	`, req.Name, slug.Make(req.Name), req.URL, req.Description, req.Logo,
		req.Industry, req.Location, req.IsPartner, req.MetaData,
	).Scan(companyFields(&company)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	monitoring.RecordCompanyCreated()
	return &company, nil
}

// GetByID retrieves a company by ID
func (s *Service) GetByID(ctx context.Context, companyID uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := s.db.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE id = $1
	`, companyID).Scan(companyFields(&company)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// GetBySlug retrieves an active company by slug
func (s *Service) GetBySlug(ctx context.Context, companySlug string) (*models.Company, error) {
	var company models.Company
	err := s.db.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE slug = $1 AND is_active
	`, companySlug).Scan(companyFields(&company)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &company, nil
}

// List retrieves active companies ordered by average rating, applying
// the optional search/industry/location filters, with pagination.
func (s *Service) List(ctx context.Context, filters ListFilters, page, pageSize int) (*ListCompaniesResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = config.DefaultPageSize
	}
	offset := (page - 1) * pageSize

	where := "WHERE is_active"
	args := []any{}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	if filters.Industry != "" {
		args = append(args, filters.Industry)
		where += fmt.Sprintf(" AND industry = $%d", len(args))
	}
	if filters.Location != "" {
		args = append(args, filters.Location)
		where += fmt.Sprintf(" AND location = $%d", len(args))
	}

	var total int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM companies "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count companies: %w", err)
	}

	args = append(args, pageSize, offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM companies
		%s
		ORDER BY average_rating DESC, total_reviews DESC, name ASC
		LIMIT $%d OFFSET $%d
	`, companyColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	companies, err := scanCompanies(rows)
	if err != nil {
		return nil, err
	}

	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}

	return &ListCompaniesResponse{
		Companies:  companies,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}, nil
}

// Partners retrieves active partner companies ordered by rating
func (s *Service) Partners(ctx context.Context, limit int) ([]models.Company, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE is_active AND is_partner
		ORDER BY average_rating DESC, total_reviews DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

// Related retrieves active companies in the same industry, excluding
// the given company.
func (s *Service) Related(ctx context.Context, companyID uuid.UUID, industry *string, limit int) ([]models.Company, error) {
	if industry == nil {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE is_active AND industry = $1 AND id != $2
		ORDER BY average_rating DESC
		LIMIT $3
	`, *industry, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related companies: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

// Industries returns the distinct industries of active companies
func (s *Service) Industries(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "industry")
}

// Locations returns the distinct locations of active companies
func (s *Service) Locations(ctx context.Context) ([]string, error) {
	return s.distinctColumn(ctx, "location")
}

func (s *Service) distinctColumn(ctx context.Context, column string) ([]string, error) {
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT DISTINCT %s FROM companies
		WHERE is_active AND %s IS NOT NULL
		ORDER BY %s
	`, column, column, column))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s values: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", column, err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s values: %w", column, err)
	}

	return values, nil
}

// Update updates a company. The slug follows the name when the name
// changes; aggregate fields are never writable here.
func (s *Service) Update(ctx context.Context, companyID uuid.UUID, req *UpdateCompanyRequest) (*models.Company, error) {
	company, err := s.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, ErrNameRequired
		}
		company.Name = *req.Name
		company.Slug = slug.Make(*req.Name)
	}
	if req.URL != nil {
		company.URL = req.URL
	}
	if req.Description != nil {
		company.Description = *req.Description
	}
	if req.Logo != nil {
		company.Logo = req.Logo
	}
	if req.Industry != nil {
		company.Industry = req.Industry
	}
	if req.Location != nil {
		company.Location = req.Location
	}
	if req.IsPartner != nil {
		company.IsPartner = *req.IsPartner
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if req.MetaData != nil {
		company.MetaData = *req.MetaData
	}

	err = s.db.QueryRow(ctx, `
		UPDATE companies SET
			name = $1, slug = $2, url = $3, description = $4, logo = $5,
			industry = $6, location = $7, is_partner = $8, is_active = $9,
			meta_data = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING `+companyColumns+`
	`, company.Name, company.Slug, company.URL, company.Description, company.Logo,
		company.Industry, company.Location, company.IsPartner, company.IsActive,
		company.MetaData, companyID,
	).Scan(companyFields(company)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return company, nil
}

// Delete removes a company. Its reviews are removed by the cascade on
// the reviews foreign key.
func (s *Service) Delete(ctx context.Context, companyID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

// Stats holds directory-wide totals for the home page
type Stats struct {
	TotalCompanies int64 `json:"total_companies"`
	TotalReviews   int64 `json:"total_reviews"`
	TotalPartners  int64 `json:"total_partners"`
}

// DirectoryStats returns directory-wide totals
func (s *Service) DirectoryStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM companies WHERE is_active),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM companies WHERE is_active AND is_partner)
	`).Scan(&stats.TotalCompanies, &stats.TotalReviews, &stats.TotalPartners)
	if err != nil {
		return nil, fmt.Errorf("failed to get directory stats: %w", err)
	}
	return &stats, nil
}

func companyFields(c *models.Company) []any {
	return []any{
		&c.ID, &c.Name, &c.Slug, &c.URL, &c.Description, &c.Logo,
		&c.Industry, &c.Location, &c.IsPartner, &c.IsActive,
		&c.AverageRating, &c.TotalReviews, &c.MetaData,
		&c.CreatedAt, &c.UpdatedAt,
	}
}

func scanCompanies(rows pgx.Rows) ([]models.Company, error) {
	var companies []models.Company
	for rows.Next() {
		var company models.Company
		if err := rows.Scan(companyFields(&company)...); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, company)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate companies: %w", err)
	}

	return companies, nil
}
