package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func baseInput() Input {
	return Input{
		Lines: []Line{
			{Name: "Pendant", Quantity: 2, UnitPrice: dec("500"), Physical: true},
		},
		TaxRate: dec("0.03"),
		Shipping: ShippingConfig{
			FlatRate:              dec("90"),
			FreeShippingThreshold: dec("2000"),
		},
		Wallet: domain.WalletConfig{RupeesPerPoint: dec("1")},
	}
}

func TestComputePlainCart(t *testing.T) {
	q, err := Compute(baseInput())
	require.NoError(t, err)

	assert.True(t, q.Subtotal.Equal(dec("1000")), "subtotal = %s", q.Subtotal)
	assert.True(t, q.TaxAmount.Equal(dec("30")), "tax = %s", q.TaxAmount)
	assert.True(t, q.ShippingAmount.Equal(dec("90")), "shipping = %s", q.ShippingAmount)
	assert.True(t, q.GrandTotal.Equal(dec("1120")), "total = %s", q.GrandTotal)
}

func TestComputeWithCoupon(t *testing.T) {
	in := baseInput()
	in.Coupon = &domain.Coupon{Code: "FESTIVE10", DiscountPercentage: dec("10"), IsActive: true}

	q, err := Compute(in)
	require.NoError(t, err)

	assert.True(t, q.CouponDiscount.Equal(dec("100")), "discount = %s", q.CouponDiscount)
	assert.True(t, q.TaxableAmount.Equal(dec("900")), "taxable = %s", q.TaxableAmount)
	assert.True(t, q.TaxAmount.Equal(dec("27")), "tax = %s", q.TaxAmount)
	assert.True(t, q.GrandTotal.Equal(dec("1017")), "total = %s", q.GrandTotal)
}

func TestComputeInactiveCouponIsSilentlyIgnored(t *testing.T) {
	in := baseInput()
	in.Coupon = &domain.Coupon{Code: "EXPIRED", DiscountPercentage: dec("50"), IsActive: false}

	q, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, q.CouponDiscount.IsZero())
	assert.True(t, q.GrandTotal.Equal(dec("1120")))
}

func TestComputeWalletRedemption(t *testing.T) {
	in := baseInput()
	in.PointsToRedeem = 50
	in.WalletBalance = 50

	q, err := Compute(in)
	require.NoError(t, err)

	assert.True(t, q.WalletDiscount.Equal(dec("50")), "wallet discount = %s", q.WalletDiscount)
	assert.True(t, q.TaxableAmount.Equal(dec("950")))
	// total = 950 + tax(28.5) + shipping(90)
	assert.True(t, q.GrandTotal.Equal(dec("1068.5")), "total = %s", q.GrandTotal)
}

func TestComputeWalletExceedsBalance(t *testing.T) {
	in := baseInput()
	in.PointsToRedeem = 51
	in.WalletBalance = 50

	_, err := Compute(in)
	require.Error(t, err)
	var want *errors.ErrInsufficientWalletBalance
	require.ErrorAs(t, err, &want)
	assert.Equal(t, 50, want.Balance)
	assert.Equal(t, 51, want.Requested)
}

func TestComputeWalletDiscountCappedAtRemainder(t *testing.T) {
	in := baseInput()
	in.Coupon = &domain.Coupon{Code: "MEGA", DiscountPercentage: dec("95"), IsActive: true}
	in.PointsToRedeem = 200
	in.WalletBalance = 200

	q, err := Compute(in)
	require.NoError(t, err)

	// subtotal 1000, coupon leaves 50; redemption worth 200 is capped there
	assert.True(t, q.WalletDiscount.Equal(dec("50")), "wallet discount = %s", q.WalletDiscount)
	assert.True(t, q.TaxableAmount.IsZero())
}

func TestComputeServiceOnlyCartShipsFree(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{
		{Name: "Gift wrapping", Quantity: 1, UnitPrice: dec("150"), Physical: false},
	}

	q, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, q.ShippingAmount.IsZero())
}

func TestComputeFreeShippingAboveThreshold(t *testing.T) {
	in := baseInput()
	in.Lines[0].Quantity = 5 // subtotal 2500

	q, err := Compute(in)
	require.NoError(t, err)
	assert.True(t, q.ShippingAmount.IsZero())
}

func TestAmountMinorRoundsOnlyAtBoundary(t *testing.T) {
	in := baseInput()
	in.Lines = []Line{
		{Name: "Charm", Quantity: 3, UnitPrice: dec("33.33"), Physical: true},
	}
	in.TaxRate = dec("0.03")

	q, err := Compute(in)
	require.NoError(t, err)

	// 99.99 + 2.9997 + 90 = 192.9897 -> 192.99 -> 19299 paise
	assert.True(t, q.TaxAmount.Equal(dec("2.9997")), "tax kept unrounded, got %s", q.TaxAmount)
	assert.Equal(t, int64(19299), q.AmountMinor())
}

func TestRewardPoints(t *testing.T) {
	cfg := domain.WalletConfig{
		RupeesPerPoint: dec("1"),
		RewardRules: []domain.RewardRule{
			{MinSpend: dec("5000"), PointsAwarded: 120},
			{MinSpend: dec("1000"), PointsAwarded: 20},
		},
		RewardTierTolerance: dec("5"),
	}

	assert.Equal(t, 120, RewardPoints(dec("5100"), cfg))
	assert.Equal(t, 20, RewardPoints(dec("1500"), cfg))
	assert.Equal(t, 0, RewardPoints(dec("200"), cfg))

	// near-miss: within tolerance below a tier still qualifies
	assert.Equal(t, 120, RewardPoints(dec("4996"), cfg))
	assert.Equal(t, 20, RewardPoints(dec("4994"), cfg))
	assert.Equal(t, 20, RewardPoints(dec("995"), cfg))
	assert.Equal(t, 0, RewardPoints(dec("994"), cfg))
}
