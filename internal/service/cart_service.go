package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type cartService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(store repository.Store, logger *zap.Logger) *cartService {
	return &cartService{
		store:  store,
		logger: logger,
	}
}

// AddItem puts a product in the cart. The stored price is a display
// snapshot; checkout reprices from the live catalog regardless.
func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req AddToCartRequest) (*domain.CartItem, error) {
	repos := s.store.Repos()

	product, err := repos.Products.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	var variant *domain.Variant
	if product.HasVariants() {
		if req.VariantSKU == nil {
			return nil, &errors.ErrValidation{Message: fmt.Sprintf("product %s requires a variant selection", product.Name)}
		}
		variant = product.FindVariant(*req.VariantSKU)
		if variant == nil {
			return nil, &errors.ErrNotFound{Resource: "variant", ID: *req.VariantSKU}
		}
	} else if req.VariantSKU != nil {
		return nil, &errors.ErrValidation{Message: fmt.Sprintf("product %s has no variants", product.Name)}
	}

	if product.Kind == domain.ProductKindPhysical {
		available := product.Stock
		if variant != nil {
			available = variant.Stock
		}
		// The new quantity merges into any existing line for the same
		// selection, so the check covers the combined total.
		cart, err := repos.Users.GetCart(ctx, userID)
		if err != nil {
			return nil, err
		}
		inCart := 0
		for _, line := range cart {
			if line.ProductID == product.ID && sameSKU(line.VariantSKU, req.VariantSKU) {
				inCart = line.Quantity
				break
			}
		}
		if req.Quantity+inCart > available {
			stockErr := &errors.ErrInsufficientStock{ProductName: product.Name}
			if req.VariantSKU != nil {
				stockErr.SKU = *req.VariantSKU
			}
			return nil, stockErr
		}
	}

	item := &domain.CartItem{
		UserID:        userID,
		ProductID:     product.ID,
		VariantSKU:    req.VariantSKU,
		Quantity:      req.Quantity,
		PriceSnapshot: product.UnitPrice(variant),
	}
	if len(product.Images) > 0 {
		item.Image = product.Images[0]
	}

	if err := repos.Users.UpsertCartItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetCart returns the caller's cart lines.
func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error) {
	return s.store.Repos().Users.GetCart(ctx, userID)
}

// UpdateQuantity changes the quantity of one cart line.
func (s *cartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return &errors.ErrValidation{Message: "quantity must be at least 1"}
	}
	return s.store.Repos().Users.UpdateCartQuantity(ctx, userID, itemID, quantity)
}

// RemoveItem deletes one cart line. Removing an absent line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.store.Repos().Users.RemoveCartItem(ctx, userID, itemID)
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Repos().Users.ClearCart(ctx, userID)
}

func sameSKU(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
