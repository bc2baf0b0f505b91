package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type userRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db dbtx, logger *zap.Logger) *userRepository {
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	query := `
		INSERT INTO users (id, email, full_name, phone, role, api_token_hash,
		                   wallet_points, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.Phone,
		user.Role,
		user.APITokenHash,
		user.WalletPoints,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.Error(err))
		return err
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT id, email, full_name, phone, role, api_token_hash,
		       wallet_points, is_active, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Phone,
		&user.Role,
		&user.APITokenHash,
		&user.WalletPoints,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "user", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get user by ID", zap.Error(err))
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByAPIToken(ctx context.Context, token string) (*domain.User, error) {
	// Bcrypt hashes are salted, so there is no direct lookup; iterate active
	// users and compare. For production scale, add a SHA256 lookup_hash
	// column.
	query := `
		SELECT id, email, full_name, phone, role, api_token_hash,
		       wallet_points, is_active, created_at, updated_at
		FROM users
		WHERE is_active = true
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.FullName,
			&user.Phone,
			&user.Role,
			&user.APITokenHash,
			&user.WalletPoints,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			continue
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.APITokenHash), []byte(token)); err == nil {
			return &user, nil
		}
	}

	return nil, &errors.ErrUnauthorized{Message: "invalid API token"}
}

func (r *userRepository) AddAddress(ctx context.Context, addr *domain.Address) error {
	if addr.ID == uuid.Nil {
		addr.ID = uuid.New()
	}
	if addr.Type == "" {
		addr.Type = "Home"
	}

	// First saved address becomes the default
	var count int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, addr.UserID,
	).Scan(&count); err != nil {
		return err
	}
	addr.IsDefault = count == 0

	query := `
		INSERT INTO addresses (id, user_id, full_name, phone, street, city,
		                       state, postal_code, country, type, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		addr.ID, addr.UserID, addr.FullName, addr.Phone, addr.Street,
		addr.City, addr.State, addr.PostalCode, addr.Country, addr.Type, addr.IsDefault,
	)
	if err != nil {
		r.logger.Error("Failed to add address", zap.Error(err))
	}
	return err
}

func (r *userRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, phone, street, city, state,
		       postal_code, country, type, is_default
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list addresses", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var addrs []domain.Address
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.City,
			&a.State, &a.PostalCode, &a.Country, &a.Type, &a.IsDefault,
		); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

func (r *userRepository) GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error) {
	query := `
		SELECT id, user_id, full_name, phone, street, city, state,
		       postal_code, country, type, is_default
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var a domain.Address
	err := r.db.QueryRowContext(ctx, query, addressID, userID).Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Street, &a.City,
		&a.State, &a.PostalCode, &a.Country, &a.Type, &a.IsDefault,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "address", ID: addressID.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get address", zap.Error(err))
		return nil, err
	}
	return &a, nil
}

func (r *userRepository) GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	query := `
		SELECT id, user_id, product_id, variant_sku, quantity, price_snapshot,
		       image, created_at
		FROM cart_items
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to get cart", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		var sku sql.NullString
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.ProductID, &sku, &item.Quantity,
			&item.PriceSnapshot, &item.Image, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		if sku.Valid {
			item.VariantSKU = &sku.String
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *userRepository) UpsertCartItem(ctx context.Context, item *domain.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO cart_items (id, user_id, product_id, variant_sku, quantity,
		                        price_snapshot, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, product_id, COALESCE(variant_sku, ''))
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.UserID, item.ProductID, item.VariantSKU,
		item.Quantity, item.PriceSnapshot, item.Image, item.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert cart item", zap.Error(err))
	}
	return err
}

func (r *userRepository) UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $3 WHERE id = $2 AND user_id = $1
	`, userID, itemID, quantity)
	if err != nil {
		r.logger.Error("Failed to update cart quantity", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "cart item", ID: itemID.String()}
	}
	return nil
}

func (r *userRepository) RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE id = $2 AND user_id = $1
	`, userID, itemID)
	if err != nil {
		r.logger.Error("Failed to remove cart item", zap.Error(err))
	}
	return err
}

func (r *userRepository) ClearCart(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		r.logger.Error("Failed to clear cart", zap.Error(err))
	}
	return err
}

// AdjustWalletPoints applies the delta only when the balance stays
// non-negative, mirroring the conditional stock decrement.
func (r *userRepository) AdjustWalletPoints(ctx context.Context, userID uuid.UUID, delta int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET wallet_points = wallet_points + $2, updated_at = NOW()
		WHERE id = $1 AND wallet_points + $2 >= 0
	`, userID, delta)
	if err != nil {
		r.logger.Error("Failed to adjust wallet points", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrInsufficientWalletBalance{Requested: -delta}
	}
	return nil
}
