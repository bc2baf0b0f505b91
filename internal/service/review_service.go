package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type reviewService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewReviewService creates a new review service
func NewReviewService(store repository.Store, logger *zap.Logger) *reviewService {
	return &reviewService{
		store:  store,
		logger: logger,
	}
}

// AddReview attaches a one-per-user review to a product and folds it into
// the product's aggregate rating in the same unit of work.
func (s *reviewService) AddReview(ctx context.Context, user *domain.User, productID uuid.UUID, req AddReviewRequest) (*domain.Review, error) {
	var review *domain.Review
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Products.GetByID(ctx, productID); err != nil {
			return err
		}

		reviewed, err := repos.Reviews.HasUserReviewed(ctx, productID, user.ID)
		if err != nil {
			return err
		}
		if reviewed {
			return &errors.ErrValidation{Message: "you have already reviewed this product"}
		}

		review = &domain.Review{
			ProductID: productID,
			UserID:    user.ID,
			UserName:  user.FullName,
			Rating:    req.Rating,
			Comment:   req.Comment,
		}
		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}
		return s.recomputeRating(ctx, repos, productID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview removes a review the caller owns (admins can remove any) and
// recomputes the product rating.
func (s *reviewService) DeleteReview(ctx context.Context, caller *domain.User, reviewID uuid.UUID) error {
	return s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		review, err := repos.Reviews.GetByID(ctx, reviewID)
		if err != nil {
			return err
		}
		if review.UserID != caller.ID && !caller.IsAdmin() {
			return &errors.ErrForbidden{Message: "not your review"}
		}
		if err := repos.Reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		return s.recomputeRating(ctx, repos, review.ProductID)
	})
}

// ListByProduct returns a product's reviews, newest first.
func (s *reviewService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	return s.store.Repos().Reviews.ListByProduct(ctx, productID)
}

func (s *reviewService) recomputeRating(ctx context.Context, repos *repository.Repositories, productID uuid.UUID) error {
	reviews, err := repos.Reviews.ListByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if len(reviews) == 0 {
		return repos.Products.SetRating(ctx, productID, 0, 0)
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return repos.Products.SetRating(ctx, productID, avg, len(reviews))
}
