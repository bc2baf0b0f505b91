package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
)

type couponRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewCouponRepository creates a new coupon repository
func NewCouponRepository(db dbtx, logger *zap.Logger) *couponRepository {
	return &couponRepository{
		db:     db,
		logger: logger,
	}
}

func (r *couponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	coupon.Code = strings.ToUpper(coupon.Code)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO coupons (id, code, discount_percentage, is_active)
		VALUES ($1, $2, $3, $4)
	`, coupon.ID, coupon.Code, coupon.DiscountPercentage, coupon.IsActive)
	if err != nil {
		r.logger.Error("Failed to create coupon", zap.Error(err))
	}
	return err
}

// FindActive returns nil without error when the code is unknown or inactive;
// the pricing engine treats that as a zero discount.
func (r *couponRepository) FindActive(ctx context.Context, code string) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, discount_percentage, is_active
		FROM coupons
		WHERE code = $1 AND is_active = true
	`, strings.ToUpper(code)).Scan(
		&coupon.ID, &coupon.Code, &coupon.DiscountPercentage, &coupon.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to find coupon", zap.Error(err))
		return nil, err
	}
	return &coupon, nil
}
