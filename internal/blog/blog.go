package blog

import (
	"context"
	"errors"
	"fmt"
	"time"

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
	ErrPostNotFound  = errors.New("blog post not found")
	ErrDuplicateSlug = errors.New("blog post with this title already exists")
	ErrInvalidStatus = errors.New("invalid post status")
)

const pgUniqueViolation = "23505"

const postColumns = `id, title, slug, excerpt, content, featured_image, category, tags,
	status, author_id, published_at, views, created_at, updated_at`

// Service handles blog post operations
type Service struct {
	db *pgxpool.Pool
}

// NewService creates a new blog service
func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

// CreatePostRequest represents a request to create a blog post
type CreatePostRequest struct {
	Title         string            `json:"title" binding:"required,min=1,max=255"`
	Excerpt       string            `json:"excerpt" binding:"required"`
	Content       string            `json:"content" binding:"required"`
	FeaturedImage *string           `json:"featured_image,omitempty"`
	Category      string            `json:"category" binding:"required"`
	Tags          []string          `json:"tags,omitempty"`
	Status        models.PostStatus `json:"status"`
	PublishedAt   *time.Time        `json:"published_at,omitempty"`
}

// UpdatePostRequest represents a request to update a blog post
type UpdatePostRequest struct {
	Title         *string            `json:"title,omitempty"`
	Excerpt       *string            `json:"excerpt,omitempty"`
	Content       *string            `json:"content,omitempty"`
	FeaturedImage *string            `json:"featured_image,omitempty"`
	Category      *string            `json:"category,omitempty"`
	Tags          *[]string          `json:"tags,omitempty"`
	Status        *models.PostStatus `json:"status,omitempty"`
	PublishedAt   *time.Time         `json:"published_at,omitempty"`
}

// ListPostsResponse represents a paginated list of blog posts
type ListPostsResponse struct {
	Posts      []models.BlogPost `json:"posts"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func validStatus(status models.PostStatus) bool {
	switch status {
	case models.PostStatusDraft, models.PostStatusPublished, models.PostStatusScheduled:
		return true
	}
	return false
}

// Create stores a new blog post authored by authorID. The slug is
// derived from the title. A published post without an explicit
// publication time is published now.
func (s *Service) Create(ctx context.Context, authorID uuid.UUID, req *CreatePostRequest) (*models.BlogPost, error) {
	status := req.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if !validStatus(status) {
		return nil, ErrInvalidStatus
	}

	publishedAt := req.PublishedAt
	if status == models.PostStatusPublished && publishedAt == nil {
		now := time.Now()
		publishedAt = &now
	}

	var post models.BlogPost
	err := s.db.QueryRow(ctx, `
		INSERT INTO blog_posts (title, slug, excerpt, content, featured_image, category, tags, status, author_id, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+postColumns+`
	`, req.Title, slug.Make(req.Title), req.Excerpt, req.Content, req.FeaturedImage,
		req.Category, req.Tags, status, authorID, publishedAt,
	).Scan(postFields(&post)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to create blog post: %w", err)
	}

	if status == models.PostStatusPublished {
		monitoring.RecordPostPublished()
	}
	return &post, nil
}

// GetBySlug retrieves a published blog post by slug and increments its
// view counter.
func (s *Service) GetBySlug(ctx context.Context, postSlug string) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.QueryRow(ctx, `
		UPDATE blog_posts SET views = views + 1
		WHERE slug = $1 AND status = 'published' AND published_at <= NOW()
		RETURNING `+postColumns+`
	`, postSlug).Scan(postFields(&post)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}

	monitoring.RecordPostView()
	return &post, nil
}

// GetByID retrieves a blog post by ID regardless of status
func (s *Service) GetByID(ctx context.Context, postID uuid.UUID) (*models.BlogPost, error) {
	var post models.BlogPost
	err := s.db.QueryRow(ctx, `
		SELECT `+postColumns+` FROM blog_posts WHERE id = $1
	`, postID).Scan(postFields(&post)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	return &post, nil
}

// List retrieves published blog posts, newest first by publication
// time, with optional full-text-ish search and category filters.
func (s *Service) List(ctx context.Context, search, category string, page, pageSize int) (*ListPostsResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = config.DefaultPageSize
	}
	offset := (page - 1) * pageSize

	where := "WHERE status = 'published' AND published_at <= NOW()"
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		where += fmt.Sprintf(" AND (title ILIKE $%d OR content ILIKE $%d)", len(args), len(args))
	}
	if category != "" {
		args = append(args, category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var total int64
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM blog_posts "+where, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count blog posts: %w", err)
	}

	args = append(args, pageSize, offset)
	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM blog_posts
		%s
		ORDER BY published_at DESC
		LIMIT $%d OFFSET $%d
	`, postColumns, where, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	defer rows.Close()

	posts, err := scanPosts(rows)
	if err != nil {
		return nil, err
	}

	pages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		pages++
	}

	return &ListPostsResponse{
		Posts:      posts,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: pages,
	}, nil
}

// Recent retrieves the most recently published posts
func (s *Service) Recent(ctx context.Context, limit int) ([]models.BlogPost, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+postColumns+` FROM blog_posts
		WHERE status = 'published' AND published_at <= NOW()
		ORDER BY published_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Related retrieves published posts in the same category, excluding
// the given post.
func (s *Service) Related(ctx context.Context, postID uuid.UUID, category string, limit int) ([]models.BlogPost, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+postColumns+` FROM blog_posts
		WHERE status = 'published' AND published_at <= NOW()
			AND category = $1 AND id != $2
		ORDER BY published_at DESC
		LIMIT $3
	`, category, postID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list related posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// Categories returns the distinct categories of published posts
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT category FROM blog_posts
		WHERE status = 'published' AND published_at <= NOW()
		ORDER BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// Update updates a blog post. The slug follows the title when the
// title changes.
func (s *Service) Update(ctx context.Context, postID uuid.UUID, req *UpdatePostRequest) (*models.BlogPost, error) {
	post, err := s.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	wasPublished := post.Status == models.PostStatusPublished

	if req.Title != nil {
		post.Title = *req.Title
		post.Slug = slug.Make(*req.Title)
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = req.FeaturedImage
	}
	if req.Category != nil {
		post.Category = *req.Category
	}
	if req.Tags != nil {
		post.Tags = *req.Tags
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, ErrInvalidStatus
		}
		post.Status = *req.Status
	}
	if req.PublishedAt != nil {
		post.PublishedAt = req.PublishedAt
	}
	if post.Status == models.PostStatusPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	err = s.db.QueryRow(ctx, `
		UPDATE blog_posts SET
			title = $1, slug = $2, excerpt = $3, content = $4, featured_image = $5,
			category = $6, tags = $7, status = $8, published_at = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING `+postColumns+`
	`, post.Title, post.Slug, post.Excerpt, post.Content, post.FeaturedImage,
		post.Category, post.Tags, post.Status, post.PublishedAt, postID,
	).Scan(postFields(post)...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateSlug
		}
		return nil, fmt.Errorf("failed to update blog post: %w", err)
	}

	if !wasPublished && post.Status == models.PostStatusPublished {
		monitoring.RecordPostPublished()
	}
	return post, nil
}

// Delete removes a blog post
func (s *Service) Delete(ctx context.Context, postID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func postFields(p *models.BlogPost) []any {
	return []any{
		&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.FeaturedImage,
		&p.Category, &p.Tags, &p.Status, &p.AuthorID, &p.PublishedAt,
		&p.Views, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPosts(rows pgx.Rows) ([]models.BlogPost, error) {
	var posts []models.BlogPost
	for rows.Next() {
		var post models.BlogPost
		if err := rows.Scan(postFields(&post)...); err != nil {
			return nil, fmt.Errorf("failed to scan blog post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blog posts: %w", err)
	}

	return posts, nil
}
