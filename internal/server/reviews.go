package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/finnrudolph/firmlens/internal/company"
	apierrors "github.com/finnrudolph/firmlens/internal/errors"
	"github.com/finnrudolph/firmlens/internal/logging"
	"github.com/finnrudolph/firmlens/internal/review"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// handleCreateReview submits a review for the company named by slug.
// One review per author and company; a duplicate is rejected whole.
func (s *APIServer) handleCreateReview(c *gin.Context) {
	actorID, _, ok := actorFromContext(c)
	if !ok {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	var req review.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	comp, err := s.companyService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if err == company.ErrCompanyNotFound {
			respondError(c, apierrors.ErrCompanyNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	rev, err := s.reviewService.Create(c.Request.Context(), comp.ID, actorID, &req)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, rev)
}

// handleGetReview returns a single review
func (s *APIServer) handleGetReview(c *gin.Context) {
	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid review ID"))
		return
	}

	rev, err := s.reviewService.GetByID(c.Request.Context(), reviewID)
	if err != nil {
		if err == review.ErrReviewNotFound {
			respondError(c, apierrors.ErrReviewNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, rev)
}

// handleListReviews lists reviews across companies with optional
// company-name search and exact-rating filters
func (s *APIServer) handleListReviews(c *gin.Context) {
	page, pageSize := s.pagination(c)
	rating, _ := strconv.Atoi(c.Query("rating"))

	resp, err := s.reviewService.List(c.Request.Context(), c.Query("search"), rating, page, pageSize)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleUpdateReview modifies a review owned by the caller
func (s *APIServer) handleUpdateReview(c *gin.Context) {
	actorID, isAdmin, ok := actorFromContext(c)
	if !ok {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid review ID"))
		return
	}

	var req review.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	rev, err := s.reviewService.Update(c.Request.Context(), reviewID, actorID, isAdmin, &req)
	if err != nil {
		respondReviewError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, rev)
}

// handleDeleteReview removes a review owned by the caller
func (s *APIServer) handleDeleteReview(c *gin.Context) {
	actorID, isAdmin, ok := actorFromContext(c)
	if !ok {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	reviewID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid review ID"))
		return
	}

	if err := s.reviewService.Delete(c.Request.Context(), reviewID, actorID, isAdmin); err != nil {
		respondReviewError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// respondReviewError maps review service errors to API errors
func respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, review.ErrReviewNotFound):
		respondError(c, apierrors.ErrReviewNotFoundError)
	case errors.Is(err, review.ErrCompanyNotFound):
		respondError(c, apierrors.ErrCompanyNotFoundError)
	case errors.Is(err, review.ErrDuplicateReview):
		respondError(c, apierrors.ErrDuplicateReviewError)
	case errors.Is(err, review.ErrNotReviewAuthor):
		respondError(c, apierrors.ErrNotReviewAuthorError)
	case errors.Is(err, review.ErrTitleRequired),
		errors.Is(err, review.ErrContentTooShort),
		errors.Is(err, review.ErrInvalidRating):
		respondError(c, apierrors.NewValidationError(err.Error()))
	case errors.Is(err, review.ErrAggregationFailed):
		logging.LogError(err, c.GetString("request_id"), "review", c.FullPath())
		respondError(c, apierrors.ErrAggregationFailedError)
	default:
		logging.LogError(err, c.GetString("request_id"), "review", c.FullPath())
		respondError(c, apierrors.ErrInternalServerError)
	}
}
