package server

import (
	"net/http"

	"github.com/finnrudolph/firmlens/internal/auth"
	"github.com/finnrudolph/firmlens/internal/blog"
	"github.com/finnrudolph/firmlens/internal/company"
	"github.com/finnrudolph/firmlens/internal/config"
	apierrors "github.com/finnrudolph/firmlens/internal/errors"
	"github.com/finnrudolph/firmlens/internal/faq"
	"github.com/finnrudolph/firmlens/internal/home"
	"github.com/finnrudolph/firmlens/internal/logging"
	"github.com/finnrudolph/firmlens/internal/middleware"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/finnrudolph/firmlens/internal/monitoring"
	"github.com/finnrudolph/firmlens/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// APIServer represents the main API server
type APIServer struct {
	config           *config.Config
	router           *gin.Engine
	db               *pgxpool.Pool
	authService      *auth.Service
	companyService   *company.Service
	reviewService    *review.Service
	blogService      *blog.Service
	faqService       *faq.Service
	homeService      *home.Service
	jwtAuthenticator *middleware.JWTAuthenticator
}

// NewAPIServer creates a new API server instance. cache may be nil
// when Redis is unavailable.
func NewAPIServer(cfg *config.Config, db *pgxpool.Pool, cache *redis.Client) *APIServer {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	router.Use(monitoring.MetricsMiddleware())
	router.Use(logging.RequestLogger())

	companyService := company.NewService(db)
	reviewService := review.NewService(db)
	blogService := blog.NewService(db)

	srv := &APIServer{
		config:           cfg,
		router:           router,
		db:               db,
		authService:      auth.NewService(db, &cfg.JWT),
		companyService:   companyService,
		reviewService:    reviewService,
		blogService:      blogService,
		faqService:       faq.NewService(db),
		homeService:      home.NewService(companyService, reviewService, blogService, cache, cfg.Content.HomeCacheTTL),
		jwtAuthenticator: middleware.NewJWTAuthenticator(&cfg.JWT),
	}

	srv.setupRoutes()
	return srv
}

// Router returns the gin router
func (s *APIServer) Router() http.Handler {
	return s.router
}

// setupRoutes configures all API routes
func (s *APIServer) setupRoutes() {
	// Health check
	s.router.GET("/health", s.healthCheck)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		// Auth routes (public)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
			authGroup.POST("/logout", s.handleLogout)
			authGroup.POST("/refresh", s.handleRefresh)
		}

		// Company directory (public reads, authenticated review submission)
		companies := v1.Group("/companies")
		{
			companies.GET("", s.handleListCompanies)
			companies.GET("/industries", s.handleCompanyIndustries)
			companies.GET("/locations", s.handleCompanyLocations)
			companies.GET("/:slug", s.handleGetCompany)
			companies.GET("/:slug/reviews", s.handleListCompanyReviews)
			companies.POST("/:slug/reviews", s.jwtAuthenticator.JWTAuth(), s.handleCreateReview)
		}

		v1.GET("/partners", s.handlePartners)

		// Review routes (public reads, author/admin writes)
		reviews := v1.Group("/reviews")
		{
			reviews.GET("", s.handleListReviews)
			reviews.GET("/:id", s.handleGetReview)
			reviews.PATCH("/:id", s.jwtAuthenticator.JWTAuth(), s.handleUpdateReview)
			reviews.DELETE("/:id", s.jwtAuthenticator.JWTAuth(), s.handleDeleteReview)
		}

		// Blog routes (public)
		blogGroup := v1.Group("/blog")
		{
			blogGroup.GET("", s.handleListPosts)
			blogGroup.GET("/categories", s.handlePostCategories)
			blogGroup.GET("/:slug", s.handleGetPost)
		}

		// FAQ routes (public)
		v1.GET("/faq", s.handleListFAQs)

		// Home page (public, cached)
		v1.GET("/home", s.handleHome)

		// Admin routes (content management)
		admin := v1.Group("/admin")
		admin.Use(s.jwtAuthenticator.JWTAuth())
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/stats", s.handleAdminStats)

			admin.POST("/companies", s.handleCreateCompany)
			admin.PATCH("/companies/:id", s.handleUpdateCompany)
			admin.DELETE("/companies/:id", s.handleDeleteCompany)
			admin.POST("/companies/:id/recompute", s.handleRecomputeCompany)

			admin.POST("/blog", s.handleCreatePost)
			admin.PATCH("/blog/:id", s.handleUpdatePost)
			admin.DELETE("/blog/:id", s.handleDeletePost)

			admin.POST("/faq", s.handleCreateFAQ)
			admin.PATCH("/faq/:id", s.handleUpdateFAQ)
			admin.DELETE("/faq/:id", s.handleDeleteFAQ)
		}
	}
}

// Health check handler
func (s *APIServer) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "api",
	})
}

// handleRegister handles user registration
func (s *APIServer) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch err {
		case auth.ErrEmailAlreadyExists:
			respondError(c, apierrors.NewInvalidRequestError("Email already registered"))
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// handleLogin handles user login
func (s *APIServer) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	resp, err := s.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if err == auth.ErrInvalidCredentials {
			respondError(c, apierrors.ErrInvalidCredentialsError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleLogout handles user logout
func (s *APIServer) handleLogout(c *gin.Context) {
	// Stateless JWT, the client discards the token
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// handleRefresh handles token refresh
func (s *APIServer) handleRefresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	tokens, err := s.authService.RefreshTokens(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch err {
		case auth.ErrInvalidToken:
			respondError(c, apierrors.ErrInvalidCredentialsError)
		case auth.ErrTokenExpired:
			respondError(c, apierrors.ErrTokenExpiredError)
		case auth.ErrUserNotFound:
			respondError(c, apierrors.ErrUserNotFoundError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// respondError sends a standardized error response
func respondError(c *gin.Context, err *apierrors.APIError) {
	requestID := c.GetString("request_id")
	c.JSON(err.HTTPStatus, apierrors.NewErrorResponse(err, requestID))
}

// actorFromContext returns the authenticated user's ID and whether
// they hold the admin role. Must run after JWTAuth.
func actorFromContext(c *gin.Context) (uuid.UUID, bool, bool) {
	userID, err := uuid.Parse(middleware.GetUserIDFromContext(c))
	if err != nil {
		return uuid.Nil, false, false
	}
	return userID, middleware.GetRoleFromContext(c) == models.UserRoleAdmin, true
}
