package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/internal/service"
)

// ReviewService is the slice of the review service the handlers need.
type ReviewService interface {
	AddReview(ctx context.Context, user *domain.User, productID uuid.UUID, req service.AddReviewRequest) (*domain.Review, error)
	DeleteReview(ctx context.Context, caller *domain.User, reviewID uuid.UUID) error
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error)
}

func HandleListReviews(store repository.Store, reviews ReviewService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := store.Repos().Products.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		list, err := reviews.ListByProduct(c.Request.Context(), product.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := make([]reviewResponse, 0, len(list))
		for i := range list {
			resp = append(resp, toReviewResponse(&list[i]))
		}
		c.JSON(http.StatusOK, gin.H{"reviews": resp})
	}
}

func HandleAddReview(store repository.Store, reviews ReviewService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		product, err := store.Repos().Products.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}

		var req service.AddReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		review, err := reviews.AddReview(c.Request.Context(), user, product.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toReviewResponse(review))
	}
}

func HandleDeleteReview(reviews ReviewService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		reviewID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if err := reviews.DeleteReview(c.Request.Context(), user, reviewID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
