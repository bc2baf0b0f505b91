package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type productRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db dbtx, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	now := time.Now()
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if product.MinOrderQty < 1 {
		product.MinOrderQty = 1
	}

	query := `
		INSERT INTO products (
			id, name, slug, description, kind, price, sale_price, stock,
			min_order_qty, images, weight_kg, length_cm, breadth_cm, height_cm,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Kind,
		product.Price,
		nullDecimal(product.SalePrice),
		product.Stock,
		product.MinOrderQty,
		pq.Array(product.Images),
		product.WeightKg,
		product.LengthCm,
		product.BreadthCm,
		product.HeightCm,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create product", zap.Error(err))
		return err
	}

	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		if v.Position == 0 {
			v.Position = i
		}
		if err := r.insertVariant(ctx, v); err != nil {
			return err
		}
	}

	return nil
}

func (r *productRepository) insertVariant(ctx context.Context, v *domain.Variant) error {
	query := `
		INSERT INTO product_variants (
			sku, product_id, size, color, price, sale_price, stock,
			weight_kg, length_cm, breadth_cm, height_cm, position
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		v.SKU, v.ProductID, v.Size, v.Color, v.Price, nullDecimal(v.SalePrice),
		v.Stock, v.WeightKg, v.LengthCm, v.BreadthCm, v.HeightCm, v.Position,
	)
	if err != nil {
		r.logger.Error("Failed to create product variant", zap.String("sku", v.SKU), zap.Error(err))
	}
	return err
}

func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

func (r *productRepository) getOne(ctx context.Context, where string, arg interface{}) (*domain.Product, error) {
	query := `
		SELECT id, name, slug, description, kind, price, sale_price, stock,
		       min_order_qty, images, weight_kg, length_cm, breadth_cm, height_cm,
		       avg_rating, num_ratings, created_at, updated_at
		FROM products
		WHERE ` + where

	var product domain.Product
	var salePrice decimal.NullDecimal

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Kind,
		&product.Price,
		&salePrice,
		&product.Stock,
		&product.MinOrderQty,
		pq.Array(&product.Images),
		&product.WeightKg,
		&product.LengthCm,
		&product.BreadthCm,
		&product.HeightCm,
		&product.AvgRating,
		&product.NumRatings,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: toString(arg)}
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.Error(err))
		return nil, err
	}
	if salePrice.Valid {
		product.SalePrice = &salePrice.Decimal
	}

	variants, err := r.listVariants(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	product.Variants = variants

	return &product, nil
}

// List returns the whole catalog, newest first.
func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT id, name, slug, description, kind, price, sale_price, stock,
		       min_order_qty, images, weight_kg, length_cm, breadth_cm, height_cm,
		       avg_rating, num_ratings, created_at, updated_at
		FROM products
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var product domain.Product
		var salePrice decimal.NullDecimal
		if err := rows.Scan(
			&product.ID,
			&product.Name,
			&product.Slug,
			&product.Description,
			&product.Kind,
			&product.Price,
			&salePrice,
			&product.Stock,
			&product.MinOrderQty,
			pq.Array(&product.Images),
			&product.WeightKg,
			&product.LengthCm,
			&product.BreadthCm,
			&product.HeightCm,
			&product.AvgRating,
			&product.NumRatings,
			&product.CreatedAt,
			&product.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if salePrice.Valid {
			product.SalePrice = &salePrice.Decimal
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range products {
		variants, err := r.listVariants(ctx, products[i].ID)
		if err != nil {
			return nil, err
		}
		products[i].Variants = variants
	}
	return products, nil
}

func (r *productRepository) listVariants(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	query := `
		SELECT sku, product_id, size, color, price, sale_price, stock,
		       weight_kg, length_cm, breadth_cm, height_cm, position
		FROM product_variants
		WHERE product_id = $1
		ORDER BY position
	`

	rows, err := r.db.QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to list variants", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		var salePrice decimal.NullDecimal
		if err := rows.Scan(
			&v.SKU, &v.ProductID, &v.Size, &v.Color, &v.Price, &salePrice,
			&v.Stock, &v.WeightKg, &v.LengthCm, &v.BreadthCm, &v.HeightCm, &v.Position,
		); err != nil {
			return nil, err
		}
		if salePrice.Valid {
			v.SalePrice = &salePrice.Decimal
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// ReserveStock decrements stock with a conditional UPDATE so the check and
// the write are one atomic statement. Zero rows affected means the stock
// could not cover the quantity (or the target does not exist).
func (r *productRepository) ReserveStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error {
	var res sql.Result
	var err error

	if variantSKU != nil {
		res, err = r.db.ExecContext(ctx, `
			UPDATE product_variants
			SET stock = stock - $3
			WHERE product_id = $1 AND sku = $2 AND stock >= $3
		`, productID, *variantSKU, quantity)
	} else {
		res, err = r.db.ExecContext(ctx, `
			UPDATE products
			SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
		`, productID, quantity)
	}
	if err != nil {
		r.logger.Error("Failed to reserve stock", zap.String("product_id", productID.String()), zap.Error(err))
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		stockErr := &errors.ErrInsufficientStock{ProductName: productID.String()}
		// The error message names the product; fall back to the id if the
		// lookup fails.
		var name string
		if err := r.db.QueryRowContext(ctx, `SELECT name FROM products WHERE id = $1`, productID).Scan(&name); err == nil {
			stockErr.ProductName = name
		}
		if variantSKU != nil {
			stockErr.SKU = *variantSKU
		}
		return stockErr
	}
	return nil
}

// RestoreStock is the inverse of ReserveStock
func (r *productRepository) RestoreStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error {
	var err error
	if variantSKU != nil {
		_, err = r.db.ExecContext(ctx, `
			UPDATE product_variants
			SET stock = stock + $3
			WHERE product_id = $1 AND sku = $2
		`, productID, *variantSKU, quantity)
	} else {
		_, err = r.db.ExecContext(ctx, `
			UPDATE products
			SET stock = stock + $2, updated_at = NOW()
			WHERE id = $1
		`, productID, quantity)
	}
	if err != nil {
		r.logger.Error("Failed to restore stock", zap.String("product_id", productID.String()), zap.Error(err))
	}
	return err
}

func (r *productRepository) SetRating(ctx context.Context, productID uuid.UUID, avg float64, count int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET avg_rating = $2, num_ratings = $3, updated_at = NOW()
		WHERE id = $1
	`, productID, avg, count)
	if err != nil {
		r.logger.Error("Failed to update product rating", zap.Error(err))
	}
	return err
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case uuid.UUID:
		return s.String()
	default:
		return ""
	}
}
