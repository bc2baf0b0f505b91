package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func placeTestOrder(t *testing.T, env *testEnv, method domain.PaymentMethod) (*domain.User, *domain.Order, *domain.Product) {
	t.Helper()
	ctx := context.Background()
	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 2)

	req := CheckoutRequest{PaymentMethod: method, AddressID: &addr.ID}
	if method == domain.PaymentMethodPrepaid {
		req.Payment = prepaidProof()
	}
	order, err := env.checkout.PlaceOrder(ctx, user.ID, req)
	require.NoError(t, err)
	return user, order, product
}

func TestCancelPrepaidRefundsAndRestocks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, order, product := placeTestOrder(t, env, domain.PaymentMethodPrepaid)

	cancelled, err := env.cancel.CancelOrder(ctx, user, order.ID, "changed my mind")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.Refund)
	assert.Equal(t, "rfnd_stub", cancelled.Refund.RefundID)
	assert.True(t, cancelled.Refund.Amount.Equal(order.TotalPrice))
	require.NotNil(t, cancelled.Cancellation)
	assert.Equal(t, "user", cancelled.Cancellation.CancelledBy)
	assert.Equal(t, "changed my mind", cancelled.Cancellation.Reason)

	assert.Equal(t, []string{"pay_stub_1"}, env.gateway.refundCalls)

	stored, _ := env.store.Repos().Products.GetByID(ctx, product.ID)
	assert.Equal(t, 10, stored.Stock)
}

func TestCancelCODNoRefund(t *testing.T) {
	env := newTestEnv(t)
	user, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	cancelled, err := env.cancel.CancelOrder(context.Background(), user, order.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.Refund)
	assert.Empty(t, env.gateway.refundCalls)
}

func TestCancelAbortsWhenRefundFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, order, product := placeTestOrder(t, env, domain.PaymentMethodPrepaid)

	env.gateway.refundErr = &errors.ErrExternalService{Service: "payment gateway", Err: assert.AnError}

	_, err := env.cancel.CancelOrder(ctx, user, order.ID, "")
	var extErr *errors.ErrExternalService
	require.ErrorAs(t, err, &extErr)

	// Order and stock are untouched.
	fresh, _ := env.store.Repos().Orders.GetByID(ctx, order.ID)
	assert.Equal(t, domain.OrderStatusPaid, fresh.Status)
	assert.Nil(t, fresh.Cancellation)
	stored, _ := env.store.Repos().Products.GetByID(ctx, product.ID)
	assert.Equal(t, 8, stored.Stock)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	require.NoError(t, env.store.Repos().Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped))

	_, err := env.cancel.CancelOrder(ctx, user, order.ID, "")
	var notCancellable *errors.ErrOrderNotCancellable
	require.ErrorAs(t, err, &notCancellable)
	assert.Equal(t, string(domain.OrderStatusShipped), notCancellable.Status)
}

func TestCancelSecondAttemptRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, order, product := placeTestOrder(t, env, domain.PaymentMethodPrepaid)

	_, err := env.cancel.CancelOrder(ctx, user, order.ID, "")
	require.NoError(t, err)

	_, err = env.cancel.CancelOrder(ctx, user, order.ID, "")
	var notCancellable *errors.ErrOrderNotCancellable
	require.ErrorAs(t, err, &notCancellable)

	// Stock restored exactly once.
	stored, _ := env.store.Repos().Products.GetByID(ctx, product.ID)
	assert.Equal(t, 10, stored.Stock)
	assert.Len(t, env.gateway.refundCalls, 1)
}

func TestCancelForbiddenForOtherUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)
	stranger := env.seedUser(t, 0)

	_, err := env.cancel.CancelOrder(ctx, stranger, order.ID, "")
	var forbidden *errors.ErrForbidden
	require.ErrorAs(t, err, &forbidden)
}

func TestCancelAllowedForAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	admin := env.seedUser(t, 0)
	admin.Role = domain.RoleAdmin
	require.NoError(t, env.store.Repos().Users.Create(ctx, admin))

	cancelled, err := env.cancel.CancelOrder(ctx, admin, order.ID, "fraud review")
	require.NoError(t, err)
	assert.Equal(t, "admin", cancelled.Cancellation.CancelledBy)
}
