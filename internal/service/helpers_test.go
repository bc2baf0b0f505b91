package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/carrier"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/gateway"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/internal/pricing"
	"github.com/anvika-shop/storefront/internal/repository/memory"
)

type stubGateway struct {
	mu          sync.Mutex
	verifyOK    bool
	refundErr   error
	intentCalls int
	refundCalls []string
}

func (g *stubGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string) (*gateway.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intentCalls++
	return &gateway.PaymentIntent{
		ID:       fmt.Sprintf("order_stub_%d", g.intentCalls),
		Amount:   amountMinor,
		Currency: currency,
	}, nil
}

func (g *stubGateway) VerifySignature(intentID, paymentID, signature string) bool {
	return g.verifyOK
}

func (g *stubGateway) Refund(ctx context.Context, paymentID string, amountMinor int64) (*gateway.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refundCalls = append(g.refundCalls, paymentID)
	return &gateway.Refund{ID: "rfnd_stub", Status: "processed"}, nil
}

type stubCarrier struct {
	mu              sync.Mutex
	createCalls     int
	assignCalls     int
	pickupCalls     int
	createErr       error
	assignErr       error
	pickupErr       error
	lastShipmentReq carrier.ShipmentRequest
}

func (c *stubCarrier) CreateShipment(ctx context.Context, req carrier.ShipmentRequest) (*carrier.Shipment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createCalls++
	c.lastShipmentReq = req
	if c.createErr != nil {
		return nil, c.createErr
	}
	return &carrier.Shipment{CarrierOrderID: "co_1", ShipmentID: "ship_1"}, nil
}

func (c *stubCarrier) AssignWaybill(ctx context.Context, shipmentID string) (*carrier.Waybill, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.assignCalls++
	if c.assignErr != nil {
		return nil, c.assignErr
	}
	return &carrier.Waybill{AWB: "AWB123", CourierName: "Delhivery", TrackingURL: "https://track/AWB123"}, nil
}

func (c *stubCarrier) SchedulePickup(ctx context.Context, shipmentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pickupCalls++
	return c.pickupErr
}

func (c *stubCarrier) Track(ctx context.Context, awb string) (*carrier.TrackingInfo, error) {
	return &carrier.TrackingInfo{CurrentStatus: "In Transit"}, nil
}

func (c *stubCarrier) Serviceability(ctx context.Context, postcode string, weightKg float64, cod bool) ([]carrier.CourierOption, error) {
	return []carrier.CourierOption{{Name: "Delhivery", Rate: decimal.NewFromInt(80)}}, nil
}

type recordingFulfiller struct {
	mu     sync.Mutex
	orders []uuid.UUID
}

func (f *recordingFulfiller) Fulfill(ctx context.Context, orderID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, orderID)
}

func (f *recordingFulfiller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

type countingSender struct {
	mu            sync.Mutex
	confirmations int
	notices       int
}

func (s *countingSender) SendOrderConfirmation(ctx context.Context, user *domain.User, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmations++
	return nil
}

func (s *countingSender) SendAdminServiceNotice(ctx context.Context, adminEmail string, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices++
	return nil
}

type testEnv struct {
	store     *memory.Store
	gateway   *stubGateway
	carrier   *stubCarrier
	fulfiller *recordingFulfiller
	sender    *countingSender
	checkout  *checkoutService
	cancel    *cancelService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:     memory.NewStore(),
		gateway:   &stubGateway{verifyOK: true},
		carrier:   &stubCarrier{},
		fulfiller: &recordingFulfiller{},
		sender:    &countingSender{},
	}
	shipping := pricing.ShippingConfig{
		FlatRate:              decimal.NewFromInt(99),
		FreeShippingThreshold: decimal.NewFromInt(2000),
	}
	env.checkout = NewCheckoutService(
		env.store, env.gateway, env.fulfiller, env.sender,
		metrics.NewUnregistered(), shipping, "INR", "admin@example.com", zap.NewNop(),
	)
	env.cancel = NewCancelService(env.store, env.gateway, metrics.NewUnregistered(), zap.NewNop())
	return env
}

func (e *testEnv) seedUser(t *testing.T, points int) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]),
		FullName:     "Test User",
		Phone:        "9999999999",
		Role:         domain.RoleUser,
		WalletPoints: points,
		IsActive:     true,
	}
	require.NoError(t, e.store.Repos().Users.Create(context.Background(), user))
	return user
}

func (e *testEnv) seedProduct(t *testing.T, name string, price int64, stock int) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:        name,
		Slug:        name,
		Kind:        domain.ProductKindPhysical,
		Price:       decimal.NewFromInt(price),
		Stock:       stock,
		MinOrderQty: 1,
		WeightKg:    0.5,
	}
	require.NoError(t, e.store.Repos().Products.Create(context.Background(), product))
	return product
}

func (e *testEnv) seedService(t *testing.T, name string, price int64) *domain.Product {
	t.Helper()
	product := &domain.Product{
		Name:        name,
		Slug:        name,
		Kind:        domain.ProductKindService,
		Price:       decimal.NewFromInt(price),
		MinOrderQty: 1,
	}
	require.NoError(t, e.store.Repos().Products.Create(context.Background(), product))
	return product
}

func (e *testEnv) seedAddress(t *testing.T, userID uuid.UUID) *domain.Address {
	t.Helper()
	addr := &domain.Address{
		UserID:     userID,
		FullName:   "Test User",
		Phone:      "9999999999",
		Street:     "1 Test Lane",
		City:       "Jaipur",
		State:      "Rajasthan",
		PostalCode: "302001",
		Country:    "India",
	}
	require.NoError(t, e.store.Repos().Users.AddAddress(context.Background(), addr))
	return addr
}

func (e *testEnv) addToCart(t *testing.T, userID uuid.UUID, product *domain.Product, variantSKU *string, qty int) {
	t.Helper()
	item := &domain.CartItem{
		UserID:        userID,
		ProductID:     product.ID,
		VariantSKU:    variantSKU,
		Quantity:      qty,
		PriceSnapshot: product.Price,
	}
	require.NoError(t, e.store.Repos().Users.UpsertCartItem(context.Background(), item))
}

func (e *testEnv) seedCoupon(t *testing.T, code string, percent int64, active bool) {
	t.Helper()
	require.NoError(t, e.store.Repos().Coupons.Create(context.Background(), &domain.Coupon{
		Code:               code,
		DiscountPercentage: decimal.NewFromInt(percent),
		IsActive:           active,
	}))
}

func prepaidProof() *PaymentProof {
	return &PaymentProof{
		GatewayOrderID: "order_stub_1",
		PaymentID:      "pay_stub_1",
		Signature:      "sig",
	}
}
