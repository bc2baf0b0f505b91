package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type reviewRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db dbtx, logger *zap.Logger) *reviewRepository {
	return &reviewRepository{
		db:     db,
		logger: logger,
	}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		review.ID, review.ProductID, review.UserID, review.UserName,
		review.Rating, review.Comment, review.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create review", zap.Error(err))
	}
	return err
}

func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	var review domain.Review
	err := r.db.QueryRowContext(ctx, `
		SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews
		WHERE id = $1
	`, id).Scan(
		&review.ID, &review.ProductID, &review.UserID, &review.UserName,
		&review.Rating, &review.Comment, &review.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "review", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get review", zap.Error(err))
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews
		WHERE product_id = $1
		ORDER BY created_at DESC
	`, productID)
	if err != nil {
		r.logger.Error("Failed to list reviews", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID, &review.ProductID, &review.UserID, &review.UserName,
			&review.Rating, &review.Comment, &review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (r *reviewRepository) HasUserReviewed(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM reviews WHERE product_id = $1 AND user_id = $2)
	`, productID, userID).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check existing review", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete review", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "review", ID: id.String()}
	}
	return nil
}
