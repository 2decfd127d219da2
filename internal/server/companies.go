package server

import (
	"net/http"
	"strconv"

	"github.com/finnrudolph/firmlens/internal/company"
	apierrors "github.com/finnrudolph/firmlens/internal/errors"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/finnrudolph/firmlens/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const companyPageReviews = 10
const relatedCompanyLimit = 4

// CompanyPageResponse is the company detail payload: the company with
// its latest reviews and a handful of related companies.
type CompanyPageResponse struct {
	Company          models.Company   `json:"company"`
	Reviews          []models.Review  `json:"reviews"`
	ReviewTotal      int64            `json:"review_total"`
	RelatedCompanies []models.Company `json:"related_companies"`
}

func (s *APIServer) pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(s.config.Content.PageSize)))
	return page, pageSize
}

// handleListCompanies lists active companies with optional filters
func (s *APIServer) handleListCompanies(c *gin.Context) {
	page, pageSize := s.pagination(c)
	filters := company.ListFilters{
		Search:   c.Query("search"),
		Industry: c.Query("industry"),
		Location: c.Query("location"),
	}

	resp, err := s.companyService.List(c.Request.Context(), filters, page, pageSize)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleGetCompany returns a company detail page by slug
func (s *APIServer) handleGetCompany(c *gin.Context) {
	ctx := c.Request.Context()

	comp, err := s.companyService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == company.ErrCompanyNotFound {
			respondError(c, apierrors.ErrCompanyNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	reviews, err := s.reviewService.ListForCompany(ctx, comp.ID, 1, companyPageReviews)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	related, err := s.companyService.Related(ctx, comp.ID, comp.Industry, relatedCompanyLimit)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, CompanyPageResponse{
		Company:          *comp,
		Reviews:          reviews.Reviews,
		ReviewTotal:      reviews.Total,
		RelatedCompanies: related,
	})
}

// handleListCompanyReviews lists a company's reviews, newest first
func (s *APIServer) handleListCompanyReviews(c *gin.Context) {
	ctx := c.Request.Context()

	comp, err := s.companyService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == company.ErrCompanyNotFound {
			respondError(c, apierrors.ErrCompanyNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	page, pageSize := s.pagination(c)
	resp, err := s.reviewService.ListForCompany(ctx, comp.ID, page, pageSize)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handlePartners lists partner companies
func (s *APIServer) handlePartners(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	if limit < 1 || limit > 100 {
		limit = 12
	}

	partners, err := s.companyService.Partners(c.Request.Context(), limit)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"companies": partners})
}

// handleCompanyIndustries lists distinct industries for filter dropdowns
func (s *APIServer) handleCompanyIndustries(c *gin.Context) {
	industries, err := s.companyService.Industries(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"industries": industries})
}

// handleCompanyLocations lists distinct locations for filter dropdowns
func (s *APIServer) handleCompanyLocations(c *gin.Context) {
	locations, err := s.companyService.Locations(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"locations": locations})
}

// handleCreateCompany registers a new company
func (s *APIServer) handleCreateCompany(c *gin.Context) {
	var req company.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	comp, err := s.companyService.Create(c.Request.Context(), &req)
	if err != nil {
		switch err {
		case company.ErrDuplicateSlug:
			respondError(c, apierrors.ErrDuplicateSlugError)
		case company.ErrNameRequired:
			respondError(c, apierrors.NewValidationError("Company name is required"))
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, comp)
}

// handleUpdateCompany updates a company
func (s *APIServer) handleUpdateCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid company ID"))
		return
	}

	var req company.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	comp, err := s.companyService.Update(c.Request.Context(), companyID, &req)
	if err != nil {
		switch err {
		case company.ErrCompanyNotFound:
			respondError(c, apierrors.ErrCompanyNotFoundError)
		case company.ErrDuplicateSlug:
			respondError(c, apierrors.ErrDuplicateSlugError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, comp)
}

// handleDeleteCompany removes a company and, via cascade, its reviews
func (s *APIServer) handleDeleteCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid company ID"))
		return
	}

	if err := s.companyService.Delete(c.Request.Context(), companyID); err != nil {
		if err == company.ErrCompanyNotFound {
			respondError(c, apierrors.ErrCompanyNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// handleRecomputeCompany re-derives a company's rating aggregates
func (s *APIServer) handleRecomputeCompany(c *gin.Context) {
	companyID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid company ID"))
		return
	}

	if err := s.reviewService.Recompute(c.Request.Context(), companyID); err != nil {
		if err == review.ErrCompanyNotFound {
			respondError(c, apierrors.ErrCompanyNotFoundError)
		} else {
			respondError(c, apierrors.ErrAggregationFailedError)
		}
		return
	}

	comp, err := s.companyService.GetByID(c.Request.Context(), companyID)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, comp)
}

// handleAdminStats returns directory-wide totals
func (s *APIServer) handleAdminStats(c *gin.Context) {
	stats, err := s.companyService.DirectoryStats(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, stats)
}
