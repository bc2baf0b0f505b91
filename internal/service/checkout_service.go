package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/gateway"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/internal/notify"
	"github.com/anvika-shop/storefront/internal/pricing"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// Fulfiller hands a committed order to the carrier pipeline. Checkout fires
// it after commit and never waits on it.
type Fulfiller interface {
	Fulfill(ctx context.Context, orderID uuid.UUID)
}

type checkoutService struct {
	store      repository.Store
	gateway    gateway.Gateway
	fulfiller  Fulfiller
	sender     notify.Sender
	metrics    *metrics.Metrics
	shipping   pricing.ShippingConfig
	currency   string
	adminEmail string
	logger     *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store repository.Store,
	gw gateway.Gateway,
	fulfiller Fulfiller,
	sender notify.Sender,
	m *metrics.Metrics,
	shipping pricing.ShippingConfig,
	currency string,
	adminEmail string,
	logger *zap.Logger,
) *checkoutService {
	return &checkoutService{
		store:      store,
		gateway:    gw,
		fulfiller:  fulfiller,
		sender:     sender,
		metrics:    m,
		shipping:   shipping,
		currency:   currency,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

// reservation is one conditional stock decrement to apply inside the
// checkout transaction.
type reservation struct {
	productID  uuid.UUID
	variantSKU *string
	quantity   int
}

// resolvedCart is the cart re-read against the live catalog: authoritative
// prices, frozen order lines and the stock reservations they require.
type resolvedCart struct {
	user         *domain.User
	lines        []pricing.Line
	items        []domain.OrderItem
	reservations []reservation
	physical     bool
}

func (s *checkoutService) resolveCart(ctx context.Context, repos *repository.Repositories, userID uuid.UUID) (*resolvedCart, error) {
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart, err := repos.Users.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, &errors.ErrValidation{Message: "cart is empty"}
	}

	resolved := &resolvedCart{user: user}
	for _, cartItem := range cart {
		product, err := repos.Products.GetByID(ctx, cartItem.ProductID)
		if err != nil {
			return nil, err
		}

		var variant *domain.Variant
		if product.HasVariants() {
			if cartItem.VariantSKU == nil {
				return nil, &errors.ErrValidation{Message: fmt.Sprintf("product %s requires a variant selection", product.Name)}
			}
			variant = product.FindVariant(*cartItem.VariantSKU)
			if variant == nil {
				return nil, &errors.ErrNotFound{Resource: "variant", ID: *cartItem.VariantSKU}
			}
		}

		if cartItem.Quantity < product.MinOrderQty {
			return nil, &errors.ErrValidation{
				Message: fmt.Sprintf("product %s requires a minimum quantity of %d", product.Name, product.MinOrderQty),
			}
		}

		// Cart price snapshots are display-only; the live catalog price is
		// the one that counts.
		unitPrice := product.UnitPrice(variant)

		item := domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			VariantSKU:  cartItem.VariantSKU,
			Kind:        product.Kind,
			Quantity:    cartItem.Quantity,
			UnitPrice:   unitPrice,
			Image:       cartItem.Image,
		}
		if variant != nil {
			item.Size = variant.Size
			item.Color = variant.Color
		}
		resolved.items = append(resolved.items, item)

		resolved.lines = append(resolved.lines, pricing.Line{
			Name:      product.Name,
			Quantity:  cartItem.Quantity,
			UnitPrice: unitPrice,
			Physical:  product.Kind == domain.ProductKindPhysical,
		})

		if product.Kind == domain.ProductKindPhysical {
			// Optimistic check against the stock just read; the conditional
			// decrement at reservation time is still the arbiter.
			available := product.Stock
			if variant != nil {
				available = variant.Stock
			}
			if cartItem.Quantity > available {
				stockErr := &errors.ErrInsufficientStock{ProductName: product.Name}
				if cartItem.VariantSKU != nil {
					stockErr.SKU = *cartItem.VariantSKU
				}
				return nil, stockErr
			}

			resolved.physical = true
			resolved.reservations = append(resolved.reservations, reservation{
				productID:  product.ID,
				variantSKU: cartItem.VariantSKU,
				quantity:   cartItem.Quantity,
			})
		}
	}
	return resolved, nil
}

func (s *checkoutService) computeQuote(
	ctx context.Context,
	repos *repository.Repositories,
	resolved *resolvedCart,
	couponCode *string,
	pointsToRedeem int,
) (*pricing.Quote, *domain.WalletConfig, error) {
	var coupon *domain.Coupon
	if couponCode != nil && *couponCode != "" {
		var err error
		coupon, err = repos.Coupons.FindActive(ctx, *couponCode)
		if err != nil {
			return nil, nil, err
		}
	}

	walletCfg, err := repos.Configs.GetWalletConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	taxRate, err := repos.Configs.GetTaxRate(ctx)
	if err != nil {
		return nil, nil, err
	}

	quote, err := pricing.Compute(pricing.Input{
		Lines:          resolved.lines,
		Coupon:         coupon,
		PointsToRedeem: pointsToRedeem,
		WalletBalance:  resolved.user.WalletPoints,
		Wallet:         *walletCfg,
		TaxRate:        taxRate,
		Shipping:       s.shipping,
	})
	if err != nil {
		return nil, nil, err
	}
	return &quote, walletCfg, nil
}

// Quote prices the caller's cart without placing an order.
func (s *checkoutService) Quote(ctx context.Context, userID uuid.UUID, req QuoteRequest) (*pricing.Quote, error) {
	repos := s.store.Repos()
	resolved, err := s.resolveCart(ctx, repos, userID)
	if err != nil {
		return nil, err
	}
	quote, _, err := s.computeQuote(ctx, repos, resolved, req.CouponCode, req.PointsToRedeem)
	return quote, err
}

// CreatePaymentIntent prices the cart and opens a gateway order for the
// grand total. The client pays against the returned intent and then calls
// PlaceOrder with the proof.
func (s *checkoutService) CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req QuoteRequest) (*PaymentIntentResponse, error) {
	quote, err := s.Quote(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, quote.AmountMinor(), s.currency)
	if err != nil {
		return nil, err
	}
	return &PaymentIntentResponse{
		IntentID:    intent.ID,
		AmountMinor: intent.Amount,
		Currency:    intent.Currency,
		GrandTotal:  quote.GrandTotal,
	}, nil
}

// PlaceOrder turns the caller's cart into an order. Everything between
// re-reading the cart and clearing it happens in one transaction: stock
// reservations, the order row, wallet movements. A failure anywhere leaves
// no trace.
func (s *checkoutService) PlaceOrder(ctx context.Context, userID uuid.UUID, req CheckoutRequest) (*domain.Order, error) {
	if !req.PaymentMethod.IsValid() {
		return nil, &errors.ErrValidation{Message: "unknown payment method"}
	}

	// Payment proof is verified before touching the database at all.
	if req.PaymentMethod == domain.PaymentMethodPrepaid {
		if req.Payment == nil {
			return nil, &errors.ErrValidation{Message: "payment proof is required for prepaid orders"}
		}
		if !s.gateway.VerifySignature(req.Payment.GatewayOrderID, req.Payment.PaymentID, req.Payment.Signature) {
			s.metrics.CheckoutRejected.WithLabelValues("payment_verification").Inc()
			return nil, &errors.ErrPaymentVerificationFailed{}
		}
	}

	var order *domain.Order
	var user *domain.User
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		resolved, err := s.resolveCart(ctx, repos, userID)
		if err != nil {
			return err
		}
		user = resolved.user

		var shippingAddr *domain.Address
		if resolved.physical {
			if req.AddressID == nil {
				return &errors.ErrValidation{Message: "shipping address is required for physical items"}
			}
			shippingAddr, err = repos.Users.GetAddress(ctx, userID, *req.AddressID)
			if err != nil {
				return err
			}
		}

		quote, walletCfg, err := s.computeQuote(ctx, repos, resolved, req.CouponCode, req.PointsToRedeem)
		if err != nil {
			return err
		}

		for _, res := range resolved.reservations {
			if err := repos.Products.ReserveStock(ctx, res.productID, res.variantSKU, res.quantity); err != nil {
				return err
			}
		}

		order = &domain.Order{
			UserID:          userID,
			Items:           resolved.items,
			ShippingAddress: shippingAddr,
			ItemsPrice:      quote.Subtotal,
			ShippingPrice:   quote.ShippingAmount,
			TaxPrice:        quote.TaxAmount,
			DiscountAmount:  quote.TotalDiscount,
			PointsRedeemed:  req.PointsToRedeem,
			TotalPrice:      quote.GrandTotal,
			PaymentMethod:   req.PaymentMethod,
		}
		if req.CouponCode != nil && quote.CouponDiscount.IsPositive() {
			order.CouponCode = req.CouponCode
		}
		if req.PaymentMethod == domain.PaymentMethodPrepaid {
			order.Status = domain.OrderStatusPaid
			order.PaymentID = &req.Payment.PaymentID
			order.GatewayOrderID = &req.Payment.GatewayOrderID
		} else {
			// Cash on delivery skips the paid state entirely.
			order.Status = domain.OrderStatusProcessing
		}

		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}

		if req.PointsToRedeem > 0 {
			if err := repos.Users.AdjustWalletPoints(ctx, userID, -req.PointsToRedeem); err != nil {
				return err
			}
		}
		if award := pricing.RewardPoints(quote.GrandTotal, *walletCfg); award > 0 {
			if err := repos.Users.AdjustWalletPoints(ctx, userID, award); err != nil {
				return err
			}
		}

		return repos.Users.ClearCart(ctx, userID)
	})
	if err != nil {
		s.metrics.CheckoutRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, err
	}

	s.metrics.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
		zap.String("total", order.TotalPrice.StringFixed(2)),
	)

	// Everything after commit is best effort.
	if err := s.sender.SendOrderConfirmation(ctx, user, order); err != nil {
		s.logger.Warn("Failed to send order confirmation", zap.Error(err))
	}
	if order.HasServiceItems() && s.adminEmail != "" {
		if err := s.sender.SendAdminServiceNotice(ctx, s.adminEmail, order); err != nil {
			s.logger.Warn("Failed to send service notice", zap.Error(err))
		}
	}
	if order.HasPhysicalItems() && s.fulfiller != nil {
		go s.fulfiller.Fulfill(context.Background(), order.ID)
	}

	return order, nil
}

func rejectReason(err error) string {
	switch err.(type) {
	case *errors.ErrInsufficientStock:
		return "insufficient_stock"
	case *errors.ErrInsufficientWalletBalance:
		return "insufficient_wallet"
	case *errors.ErrValidation:
		return "validation"
	default:
		return "other"
	}
}
