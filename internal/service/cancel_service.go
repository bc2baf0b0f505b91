package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/gateway"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type cancelService struct {
	store   repository.Store
	gateway gateway.Gateway
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCancelService creates a new cancellation service
func NewCancelService(store repository.Store, gw gateway.Gateway, m *metrics.Metrics, logger *zap.Logger) *cancelService {
	return &cancelService{
		store:   store,
		gateway: gw,
		metrics: m,
		logger:  logger,
	}
}

// CancelOrder cancels an order the caller owns (or any order, for admins),
// refunds captured payments and returns reserved stock. The refund happens
// inside the unit of work: if the gateway refuses, nothing about the order
// changes.
func (s *cancelService) CancelOrder(ctx context.Context, caller *domain.User, orderID uuid.UUID, reason string) (*domain.Order, error) {
	var refunded bool
	err := s.store.WithinTx(ctx, func(repos *repository.Repositories) error {
		// Status is re-read inside the transaction; a concurrent ship or
		// cancel is caught here.
		order, err := repos.Orders.GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != caller.ID && !caller.IsAdmin() {
			return &errors.ErrForbidden{Message: "not your order"}
		}
		if !order.Status.IsCancellable() {
			return &errors.ErrOrderNotCancellable{Status: string(order.Status)}
		}

		var refund *domain.RefundDetails
		if order.PaymentMethod == domain.PaymentMethodPrepaid && order.PaymentID != nil {
			gwRefund, err := s.gateway.Refund(ctx, *order.PaymentID, amountMinor(order.TotalPrice))
			if err != nil {
				return err
			}
			refund = &domain.RefundDetails{
				RefundID:  gwRefund.ID,
				Amount:    order.TotalPrice,
				Status:    gwRefund.Status,
				CreatedAt: time.Now(),
			}
			refunded = true
		}

		for _, item := range order.Items {
			if item.Kind != domain.ProductKindPhysical {
				continue
			}
			if err := repos.Products.RestoreStock(ctx, item.ProductID, item.VariantSKU, item.Quantity); err != nil {
				return err
			}
		}

		cancellation := domain.CancellationDetails{
			CancelledBy: cancelledBy(caller, order),
			Reason:      reason,
			CancelledAt: time.Now(),
		}
		return repos.Orders.MarkCancelled(ctx, orderID, cancellation, refund)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCancelled.Inc()
	if refunded {
		s.metrics.RefundsIssued.Inc()
	}
	s.logger.Info("Order cancelled",
		zap.String("order_id", orderID.String()),
		zap.Bool("refunded", refunded),
	)

	return s.store.Repos().Orders.GetByID(ctx, orderID)
}

func cancelledBy(caller *domain.User, order *domain.Order) string {
	if caller.ID == order.UserID {
		return "user"
	}
	return "admin"
}

func amountMinor(total decimal.Decimal) int64 {
	return total.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}
