// Package repository defines the storage contracts the services depend on.
// The postgres package implements them against lib/pq; the memory package
// provides in-process fakes for tests.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anvika-shop/storefront/internal/domain"
)

// Repositories bundles every repository bound to one database handle. Inside
// Store.WithinTx all of them share the same transaction.
type Repositories struct {
	Users    UserRepository
	Products ProductRepository
	Orders   OrderRepository
	Coupons  CouponRepository
	Configs  ConfigRepository
	Reviews  ReviewRepository
}

// Store hands out repositories and runs functions inside a single database
// transaction. Reads issued through the transactional Repositories see the
// transaction's consistency guarantees; an error from fn rolls everything
// back.
type Store interface {
	Repos() *Repositories
	WithinTx(ctx context.Context, fn func(*Repositories) error) error
}

// UserRepository covers users, their address book, cart and wallet.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByAPIToken resolves the bearer token presented by a client against
	// the stored bcrypt hashes of active users.
	GetByAPIToken(ctx context.Context, token string) (*domain.User, error)

	AddAddress(ctx context.Context, addr *domain.Address) error
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]domain.Address, error)
	GetAddress(ctx context.Context, userID, addressID uuid.UUID) (*domain.Address, error)

	GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error)
	UpsertCartItem(ctx context.Context, item *domain.CartItem) error
	UpdateCartQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveCartItem(ctx context.Context, userID, itemID uuid.UUID) error
	ClearCart(ctx context.Context, userID uuid.UUID) error

	// AdjustWalletPoints applies a signed delta to the wallet balance. The
	// update is conditional: a delta that would drive the balance negative
	// fails with ErrInsufficientWalletBalance.
	AdjustWalletPoints(ctx context.Context, userID uuid.UUID, delta int) error
}

// ProductRepository is the catalog store plus the inventory reservation
// primitives.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)

	// ReserveStock conditionally decrements stock for a product (variantSKU
	// nil) or one of its variants. The decrement only applies when the
	// current stock covers the quantity; otherwise ErrInsufficientStock is
	// returned and nothing changes. This conditional write is the sole
	// concurrency-correctness mechanism for inventory.
	ReserveStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error
	// RestoreStock is the structural inverse of ReserveStock.
	RestoreStock(ctx context.Context, productID uuid.UUID, variantSKU *string, quantity int) error

	SetRating(ctx context.Context, productID uuid.UUID, avg float64, count int) error
}

// OrderRepository is the order ledger.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	ListAll(ctx context.Context, limit int) ([]domain.Order, error)

	// UpdateStatus flips the status only while the row still holds from, so
	// a writer acting on a stale read fails instead of clobbering a
	// concurrent transition.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error
	// UpdateShipment persists whatever carrier identifiers the fulfillment
	// bridge has obtained so far.
	UpdateShipment(ctx context.Context, id uuid.UUID, shipment domain.ShipmentDetails) error
	// MarkCancelled records the cancellation metadata, the optional refund
	// and the status flip in one statement.
	MarkCancelled(ctx context.Context, id uuid.UUID, cancellation domain.CancellationDetails, refund *domain.RefundDetails) error
}

// CouponRepository looks up coupons by code.
type CouponRepository interface {
	Create(ctx context.Context, coupon *domain.Coupon) error
	// FindActive returns nil (and no error) when the code does not resolve
	// to an active coupon.
	FindActive(ctx context.Context, code string) (*domain.Coupon, error)
}

// ConfigRepository reads and writes the shared wallet and tax configuration.
type ConfigRepository interface {
	GetWalletConfig(ctx context.Context) (*domain.WalletConfig, error)
	SaveWalletConfig(ctx context.Context, cfg *domain.WalletConfig) error
	GetTaxRate(ctx context.Context) (decimal.Decimal, error)
	SetTaxRate(ctx context.Context, rate decimal.Decimal) error
}

// ReviewRepository stores product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Review, error)
	HasUserReviewed(ctx context.Context, productID, userID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
