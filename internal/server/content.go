package server

import (
	"net/http"

	"github.com/finnrudolph/firmlens/internal/blog"
	apierrors "github.com/finnrudolph/firmlens/internal/errors"
	"github.com/finnrudolph/firmlens/internal/faq"
	"github.com/finnrudolph/firmlens/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const relatedPostLimit = 3

// PostPageResponse is the blog post detail payload
type PostPageResponse struct {
	Post    models.BlogPost   `json:"post"`
	Related []models.BlogPost `json:"related"`
}

// handleListPosts lists published blog posts
func (s *APIServer) handleListPosts(c *gin.Context) {
	page, pageSize := s.pagination(c)

	resp, err := s.blogService.List(c.Request.Context(), c.Query("search"), c.Query("category"), page, pageSize)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleGetPost returns a published post by slug, counting the view
func (s *APIServer) handleGetPost(c *gin.Context) {
	ctx := c.Request.Context()

	post, err := s.blogService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		if err == blog.ErrPostNotFound {
			respondError(c, apierrors.ErrPostNotFoundError)
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	related, err := s.blogService.Related(ctx, post.ID, post.Category, relatedPostLimit)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, PostPageResponse{Post: *post, Related: related})
}

// handlePostCategories lists distinct categories of published posts
func (s *APIServer) handlePostCategories(c *gin.Context) {
	categories, err := s.blogService.Categories(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// handleCreatePost creates a blog post authored by the caller
func (s *APIServer) handleCreatePost(c *gin.Context) {
	authorID, _, ok := actorFromContext(c)
	if !ok {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	var req blog.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	post, err := s.blogService.Create(c.Request.Context(), authorID, &req)
	if err != nil {
		respondPostError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, post)
}

// handleUpdatePost updates a blog post
func (s *APIServer) handleUpdatePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid post ID"))
		return
	}

	var req blog.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	post, err := s.blogService.Update(c.Request.Context(), postID, &req)
	if err != nil {
		respondPostError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, post)
}

// handleDeletePost removes a blog post
func (s *APIServer) handleDeletePost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid post ID"))
		return
	}

	if err := s.blogService.Delete(c.Request.Context(), postID); err != nil {
		respondPostError(c, err)
		return
	}

	s.homeService.Invalidate(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func respondPostError(c *gin.Context, err error) {
	switch err {
	case blog.ErrPostNotFound:
		respondError(c, apierrors.ErrPostNotFoundError)
	case blog.ErrDuplicateSlug:
		respondError(c, apierrors.ErrDuplicateSlugError)
	case blog.ErrInvalidStatus:
		respondError(c, apierrors.NewValidationError(err.Error()))
	default:
		respondError(c, apierrors.ErrInternalServerError)
	}
}

// handleListFAQs returns active FAQs grouped by category
func (s *APIServer) handleListFAQs(c *gin.Context) {
	groups, err := s.faqService.ListGrouped(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// handleCreateFAQ creates an FAQ entry
func (s *APIServer) handleCreateFAQ(c *gin.Context) {
	var req faq.CreateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	entry, err := s.faqService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// handleUpdateFAQ updates an FAQ entry
func (s *APIServer) handleUpdateFAQ(c *gin.Context) {
	faqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid FAQ ID"))
		return
	}

	var req faq.UpdateFAQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	entry, err := s.faqService.Update(c.Request.Context(), faqID, &req)
	if err != nil {
		if err == faq.ErrFAQNotFound {
			respondError(c, apierrors.NewInvalidRequestError("FAQ not found"))
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, entry)
}

// handleDeleteFAQ removes an FAQ entry
func (s *APIServer) handleDeleteFAQ(c *gin.Context) {
	faqID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid FAQ ID"))
		return
	}

	if err := s.faqService.Delete(c.Request.Context(), faqID); err != nil {
		if err == faq.ErrFAQNotFound {
			respondError(c, apierrors.NewInvalidRequestError("FAQ not found"))
		} else {
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// handleHome returns the cached home page payload
func (s *APIServer) handleHome(c *gin.Context) {
	page, err := s.homeService.Get(c.Request.Context())
	if err != nil {
		respondError(c, apierrors.ErrInternalServerError)
		return
	}

	c.JSON(http.StatusOK, page)
}
