package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func TestPlaceOrderPrepaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 2)
	env.seedCoupon(t, "SAVE10", 10, true)

	coupon := "SAVE10"
	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodPrepaid,
		AddressID:     &addr.ID,
		CouponCode:    &coupon,
		Payment:       prepaidProof(),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPaid, order.Status)
	assert.True(t, order.ItemsPrice.Equal(decimal.NewFromInt(1000)), "subtotal %s", order.ItemsPrice)
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(100)), "discount %s", order.DiscountAmount)
	assert.True(t, order.TaxPrice.Equal(decimal.NewFromInt(27)), "tax %s", order.TaxPrice)
	assert.True(t, order.ShippingPrice.Equal(decimal.NewFromInt(99)), "shipping %s", order.ShippingPrice)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromInt(1026)), "total %s", order.TotalPrice)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)
	require.NotNil(t, order.PaymentID)
	assert.Equal(t, "pay_stub_1", *order.PaymentID)

	// Stock reserved, cart cleared.
	stored, err := env.store.Repos().Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, stored.Stock)
	cart, err := env.store.Repos().Users.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	// Totals invariant holds on the stored order.
	recomputed := order.ItemsPrice.Sub(order.DiscountAmount).Add(order.TaxPrice).Add(order.ShippingPrice)
	assert.True(t, recomputed.Equal(order.TotalPrice))

	assert.Eventually(t, func() bool { return env.fulfiller.count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, env.sender.confirmations)
}

func TestPlaceOrderCODStartsProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "mug", 300, 5)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 1)

	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
		AddressID:     &addr.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, order.Status)
	assert.Nil(t, order.PaymentID)
}

func TestPlaceOrderBadSignatureRejected(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.verifyOK = false
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 1)

	_, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodPrepaid,
		AddressID:     &addr.ID,
		Payment:       prepaidProof(),
	})
	var verifyErr *errors.ErrPaymentVerificationFailed
	require.ErrorAs(t, err, &verifyErr)

	// Nothing was created or reserved.
	orders, err := env.store.Repos().Orders.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	stored, _ := env.store.Repos().Products.GetByID(ctx, product.ID)
	assert.Equal(t, 10, stored.Stock)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, 0)

	_, err := env.checkout.PlaceOrder(context.Background(), user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
	})
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "cart is empty")
}

func TestPlaceOrderAddressRequiredForPhysical(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	env.addToCart(t, user.ID, product, nil, 1)

	_, err := env.checkout.PlaceOrder(context.Background(), user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
	})
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "shipping address")
}

func TestPlaceOrderAtomicOnStockFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 100)
	plenty := env.seedProduct(t, "plenty", 200, 10)
	scarce := env.seedProduct(t, "scarce", 400, 1)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, plenty, nil, 2)
	env.addToCart(t, user.ID, scarce, nil, 5)

	_, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod:  domain.PaymentMethodCOD,
		AddressID:      &addr.ID,
		PointsToRedeem: 50,
	})
	var stockErr *errors.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "scarce", stockErr.ProductName)

	// The earlier reservation rolled back with everything else.
	stored, _ := env.store.Repos().Products.GetByID(ctx, plenty.ID)
	assert.Equal(t, 10, stored.Stock)
	cart, _ := env.store.Repos().Users.GetCart(ctx, user.ID)
	assert.Len(t, cart, 2)
	freshUser, _ := env.store.Repos().Users.GetByID(ctx, user.ID)
	assert.Equal(t, 100, freshUser.WalletPoints)
	orders, _ := env.store.Repos().Orders.ListByUser(ctx, user.ID)
	assert.Empty(t, orders)
}

func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := env.seedProduct(t, "last-one", 500, 1)

	userA := env.seedUser(t, 0)
	userB := env.seedUser(t, 0)
	addrA := env.seedAddress(t, userA.ID)
	addrB := env.seedAddress(t, userB.ID)
	env.addToCart(t, userA.ID, product, nil, 1)
	env.addToCart(t, userB.ID, product, nil, 1)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for _, attempt := range []struct {
		user *domain.User
		addr *domain.Address
	}{{userA, addrA}, {userB, addrB}} {
		wg.Add(1)
		go func(user *domain.User, addr *domain.Address) {
			defer wg.Done()
			_, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
				PaymentMethod: domain.PaymentMethodCOD,
				AddressID:     &addr.ID,
			})
			results <- err
		}(attempt.user, attempt.addr)
	}
	wg.Wait()
	close(results)

	var failures, successes int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *errors.ErrInsufficientStock
		require.ErrorAs(t, err, &stockErr)
		failures++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, failures)

	stored, _ := env.store.Repos().Products.GetByID(ctx, product.ID)
	assert.Equal(t, 0, stored.Stock)
}

func TestPlaceOrderServiceOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	svc := env.seedService(t, "styling-session", 1500)
	env.addToCart(t, user.ID, svc, nil, 1)

	// No address needed, no shipping charged, no carrier hand-off.
	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.True(t, order.ShippingPrice.IsZero())
	assert.Nil(t, order.ShippingAddress)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, env.fulfiller.count())
	assert.Equal(t, 1, env.sender.notices)
}

func TestPlaceOrderWalletRedemption(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 200)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 2)

	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod:  domain.PaymentMethodCOD,
		AddressID:      &addr.ID,
		PointsToRedeem: 150,
	})
	require.NoError(t, err)

	// 1000 - 150 = 850 taxable, 25.5 tax, 99 shipping.
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(974.5)), "total %s", order.TotalPrice)
	assert.Equal(t, 150, order.PointsRedeemed)

	freshUser, _ := env.store.Repos().Users.GetByID(ctx, user.ID)
	assert.Equal(t, 50, freshUser.WalletPoints)
}

func TestPlaceOrderRedeemBeyondBalance(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, 10)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 1)

	_, err := env.checkout.PlaceOrder(context.Background(), user.ID, CheckoutRequest{
		PaymentMethod:  domain.PaymentMethodCOD,
		AddressID:      &addr.ID,
		PointsToRedeem: 50,
	})
	var walletErr *errors.ErrInsufficientWalletBalance
	require.ErrorAs(t, err, &walletErr)
}

func TestPlaceOrderAwardsRewardPoints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg, err := env.store.Repos().Configs.GetWalletConfig(ctx)
	require.NoError(t, err)
	cfg.RewardRules = []domain.RewardRule{
		{MinSpend: decimal.NewFromInt(1000), PointsAwarded: 50},
	}
	require.NoError(t, env.store.Repos().Configs.SaveWalletConfig(ctx, cfg))

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 2)

	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
		AddressID:     &addr.ID,
	})
	require.NoError(t, err)
	// 1129 total clears the 1000 tier.
	assert.True(t, order.TotalPrice.GreaterThan(decimal.NewFromInt(1000)))

	freshUser, _ := env.store.Repos().Users.GetByID(ctx, user.ID)
	assert.Equal(t, 50, freshUser.WalletPoints)
}

func TestPlaceOrderIgnoresInactiveCoupon(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 1)
	env.seedCoupon(t, "EXPIRED", 50, false)

	code := "EXPIRED"
	order, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
		AddressID:     &addr.ID,
		CouponCode:    &code,
	})
	require.NoError(t, err)
	assert.True(t, order.DiscountAmount.IsZero())
	assert.Nil(t, order.CouponCode)
}

func TestPlaceOrderEnforcesMinOrderQty(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "bulk-pack", 100, 50)
	product.MinOrderQty = 5

	ctx := context.Background()
	// Recreate with the min quantity set.
	require.NoError(t, env.store.Repos().Products.Create(ctx, product))
	addr := env.seedAddress(t, user.ID)
	env.addToCart(t, user.ID, product, nil, 2)

	_, err := env.checkout.PlaceOrder(ctx, user.ID, CheckoutRequest{
		PaymentMethod: domain.PaymentMethodCOD,
		AddressID:     &addr.ID,
	})
	var valErr *errors.ErrValidation
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "minimum quantity")
}

func TestCreatePaymentIntent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	env.addToCart(t, user.ID, product, nil, 2)

	resp, err := env.checkout.CreatePaymentIntent(ctx, user.ID, QuoteRequest{})
	require.NoError(t, err)
	// 1000 + 30 tax + 99 shipping = 1129.00 -> 112900 paise.
	assert.Equal(t, int64(112900), resp.AmountMinor)
	assert.Equal(t, "INR", resp.Currency)
	assert.NotEmpty(t, resp.IntentID)
}

func TestQuoteUsesLivePriceNotSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 10)
	env.addToCart(t, user.ID, product, nil, 1)

	// Reprice the product after it is in the cart.
	product.Price = decimal.NewFromInt(700)
	require.NoError(t, env.store.Repos().Products.Create(ctx, product))

	quote, err := env.checkout.Quote(ctx, user.ID, QuoteRequest{})
	require.NoError(t, err)
	assert.True(t, quote.Subtotal.Equal(decimal.NewFromInt(700)), "subtotal %s", quote.Subtotal)
}

func TestQuoteRejectsOverstockedCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := env.seedUser(t, 0)
	product := env.seedProduct(t, "kurta", 500, 1)
	// Stock dropped after the line was carted.
	env.addToCart(t, user.ID, product, nil, 5)

	_, err := env.checkout.Quote(ctx, user.ID, QuoteRequest{})
	var stockErr *errors.ErrInsufficientStock
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "kurta", stockErr.ProductName)
}
