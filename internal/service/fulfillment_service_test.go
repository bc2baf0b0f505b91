package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func newFulfillment(env *testEnv) *fulfillmentService {
	return NewFulfillmentService(env.store, env.carrier, metrics.NewUnregistered(), zap.NewNop())
}

func TestResumeRunsAllStages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	fulfillment := newFulfillment(env)
	require.NoError(t, fulfillment.Resume(ctx, order.ID))

	fresh, err := env.store.Repos().Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, fresh.Status)
	assert.Equal(t, domain.FulfillmentStagePickupScheduled, fresh.Shipment.Stage)
	require.NotNil(t, fresh.Shipment.TrackingNumber)
	assert.Equal(t, "AWB123", *fresh.Shipment.TrackingNumber)
	require.NotNil(t, fresh.Shipment.CourierName)
	assert.Equal(t, "Delhivery", *fresh.Shipment.CourierName)

	assert.Equal(t, 1, env.carrier.createCalls)
	assert.Equal(t, 1, env.carrier.assignCalls)
	assert.Equal(t, 1, env.carrier.pickupCalls)

	// Shipment weight aggregates the two 0.5kg units.
	assert.InDelta(t, 1.0, env.carrier.lastShipmentReq.WeightKg, 0.001)
}

func TestResumeContinuesFromPersistedStage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	env.carrier.assignErr = &errors.ErrExternalService{Service: "carrier", Err: assert.AnError}
	fulfillment := newFulfillment(env)

	err := fulfillment.Resume(ctx, order.ID)
	require.Error(t, err)

	// The first stage survived the failure.
	fresh, _ := env.store.Repos().Orders.GetByID(ctx, order.ID)
	assert.Equal(t, domain.FulfillmentStageShipmentRequested, fresh.Shipment.Stage)
	require.NotNil(t, fresh.Shipment.ShipmentID)
	assert.Equal(t, "ship_1", *fresh.Shipment.ShipmentID)
	assert.Equal(t, domain.OrderStatusProcessing, fresh.Status)

	// A retry picks up where it stopped, without re-booking the shipment.
	env.carrier.assignErr = nil
	require.NoError(t, fulfillment.Resume(ctx, order.ID))

	fresh, _ = env.store.Repos().Orders.GetByID(ctx, order.ID)
	assert.Equal(t, domain.FulfillmentStagePickupScheduled, fresh.Shipment.Stage)
	assert.Equal(t, domain.OrderStatusShipped, fresh.Status)
	assert.Equal(t, 1, env.carrier.createCalls)
	assert.Equal(t, 2, env.carrier.assignCalls)
}

func TestResumeRejectsServiceOnlyOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	svc := env.seedService(t, "styling-session", 1500)
	env.addToCart(t, user.ID, svc, nil, 1)
	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{PaymentMethod: domain.PaymentMethodCOD})
	require.NoError(t, err)

	fulfillment := newFulfillment(env)
	err = fulfillment.Resume(ctx, order.ID)
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, 0, env.carrier.createCalls)
}

func TestMarkDelivered(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	fulfillment := newFulfillment(env)

	// Not shipped yet.
	err := fulfillment.MarkDelivered(ctx, order.ID)
	var transitionErr *errors.ErrInvalidStateTransition
	require.ErrorAs(t, err, &transitionErr)

	require.NoError(t, fulfillment.Resume(ctx, order.ID))
	require.NoError(t, fulfillment.MarkDelivered(ctx, order.ID))

	fresh, _ := env.store.Repos().Orders.GetByID(ctx, order.ID)
	assert.Equal(t, domain.OrderStatusDelivered, fresh.Status)
}

func TestTrackOwnershipAndReadiness(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, order, _ := placeTestOrder(t, env, domain.PaymentMethodCOD)

	fulfillment := newFulfillment(env)

	// Before an AWB exists the customer sees a wait state, not an error.
	info, err := fulfillment.Track(ctx, user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Awaiting shipment", info.CurrentStatus)
	assert.Empty(t, info.Events)

	require.NoError(t, fulfillment.Resume(ctx, order.ID))

	stranger := env.seedUser(t, 0)
	_, err = fulfillment.Track(ctx, stranger, order.ID)
	var forbidden *errors.ErrForbidden
	require.ErrorAs(t, err, &forbidden)

	info, err = fulfillment.Track(ctx, user, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "In Transit", info.CurrentStatus)
}
