package home

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finnrudolph/firmlens/internal/blog"
	"github.com/finnrudolph/firmlens/internal/company"
	"github.com/finnrudolph/firmlens/internal/logging"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/finnrudolph/firmlens/internal/review"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKey = "firmlens:home:v1"

const (
	partnerLimit = 6
	reviewLimit  = 6
	postLimit    = 3
)

// Page is the aggregated home page payload
type Page struct {
	PartnerCompanies []models.Company  `json:"partner_companies"`
	FeaturedReviews  []models.Review   `json:"featured_reviews"`
	RecentPosts      []models.BlogPost `json:"recent_posts"`
	Stats            company.Stats     `json:"stats"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// Service assembles the home page from the content services, cached
// in Redis for a short TTL.
type Service struct {
	companies *company.Service
	reviews   *review.Service
	posts     *blog.Service
	cache     *redis.Client
	ttl       time.Duration
	logger    zerolog.Logger
}

// NewService creates a new home page service. cache may be nil, in
// which case every request rebuilds the page.
func NewService(companies *company.Service, reviews *review.Service, posts *blog.Service, cache *redis.Client, ttl time.Duration) *Service {
	return &Service{
		companies: companies,
		reviews:   reviews,
		posts:     posts,
		cache:     cache,
		ttl:       ttl,
		logger:    logging.NewLogger("home"),
	}
}

// Get returns the home page, from cache when fresh
func (s *Service) Get(ctx context.Context) (*Page, error) {
	if page := s.fromCache(ctx); page != nil {
		return page, nil
	}

	page, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	s.store(ctx, page)
	return page, nil
}

// Invalidate drops the cached home page so the next request rebuilds it
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to invalidate home cache")
	}
}

func (s *Service) build(ctx context.Context) (*Page, error) {
	partners, err := s.companies.Partners(ctx, partnerLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load partner companies: %w", err)
	}

	featured, err := s.reviews.FeaturedVerified(ctx, reviewLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load featured reviews: %w", err)
	}

	posts, err := s.posts.Recent(ctx, postLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent posts: %w", err)
	}

	stats, err := s.companies.DirectoryStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load directory stats: %w", err)
	}

	return &Page{
		PartnerCompanies: partners,
		FeaturedReviews:  featured,
		RecentPosts:      posts,
		Stats:            *stats,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func (s *Service) fromCache(ctx context.Context) *Page {
	if s.cache == nil {
		return nil
	}

	data, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("Failed to read home cache")
		}
		monitoring.RecordCacheMiss("home")
		return nil
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to decode home cache")
		monitoring.RecordCacheMiss("home")
		return nil
	}

	monitoring.RecordCacheHit("home")
	return &page
}

func (s *Service) store(ctx context.Context, page *Page) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to encode home cache")
		return
	}
	if err := s.cache.Set(ctx, cacheKey, data, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write home cache")
	}
}
