// Package notify delivers post-checkout notifications. Delivery is
// best-effort: callers fire these after the order is committed and only log
// failures.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
)

// Sender sends transactional notifications.
type Sender interface {
	// SendOrderConfirmation notifies the customer their order was placed.
	SendOrderConfirmation(ctx context.Context, user *domain.User, order *domain.Order) error
	// SendAdminServiceNotice alerts the admin inbox that an order contains
	// service items that need manual scheduling.
	SendAdminServiceNotice(ctx context.Context, adminEmail string, order *domain.Order) error
}

// LogSender writes notifications to the log instead of an email provider.
// It keeps the notification path exercised in environments without SMTP
// credentials.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-backed Sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendOrderConfirmation(ctx context.Context, user *domain.User, order *domain.Order) error {
	s.logger.Info("Order confirmation",
		zap.String("order_id", order.ID.String()),
		zap.String("email", user.Email),
		zap.String("total", order.TotalPrice.StringFixed(2)),
		zap.String("payment_method", string(order.PaymentMethod)),
	)
	return nil
}

func (s *LogSender) SendAdminServiceNotice(ctx context.Context, adminEmail string, order *domain.Order) error {
	s.logger.Info("Service order notice",
		zap.String("order_id", order.ID.String()),
		zap.String("admin_email", adminEmail),
	)
	return nil
}
