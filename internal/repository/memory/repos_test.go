package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func seedOrder(t *testing.T, store *Store, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{
		UserID:        uuid.New(),
		Status:        status,
		PaymentMethod: domain.PaymentMethodCOD,
	}
	require.NoError(t, store.Repos().Orders.Create(context.Background(), order))
	return order
}

func TestUpdateStatusIsCheckAndSet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	order := seedOrder(t, store, domain.OrderStatusProcessing)

	// A writer holding a stale status loses.
	err := store.Repos().Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid, domain.OrderStatusShipped)
	var transition *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transition)
	assert.Equal(t, string(domain.OrderStatusProcessing), transition.From)

	fresh, err := store.Repos().Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, fresh.Status)

	// The writer that read the current status wins.
	require.NoError(t, store.Repos().Orders.UpdateStatus(ctx, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped))
	fresh, err = store.Repos().Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, fresh.Status)
}

func TestMarkCancelledRejectsShippedOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	order := seedOrder(t, store, domain.OrderStatusShipped)

	err := store.Repos().Orders.MarkCancelled(ctx, order.ID, domain.CancellationDetails{CancelledBy: "user"}, nil)
	var notCancellable *errors.ErrOrderNotCancellable
	require.ErrorAs(t, err, &notCancellable)
	assert.Equal(t, string(domain.OrderStatusShipped), notCancellable.Status)
}

func TestMarkCancelledIsSingleShot(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	order := seedOrder(t, store, domain.OrderStatusProcessing)

	cancellation := domain.CancellationDetails{CancelledBy: "user", Reason: "changed my mind"}
	require.NoError(t, store.Repos().Orders.MarkCancelled(ctx, order.ID, cancellation, nil))

	// A second cancellation racing the first must not restate the order;
	// callers restore stock on success, so a repeat write would double it.
	err := store.Repos().Orders.MarkCancelled(ctx, order.ID, cancellation, nil)
	var notCancellable *errors.ErrOrderNotCancellable
	require.ErrorAs(t, err, &notCancellable)
	assert.Equal(t, string(domain.OrderStatusCancelled), notCancellable.Status)
}
