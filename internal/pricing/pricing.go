// Package pricing computes order totals from a materialized cart. It is a
// pure calculation layer: all configuration (tax rate, shipping rates, wallet
// rules) is injected by the caller, and nothing here touches storage.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// Line is one cart line resolved against current product/variant state. The
// unit price must come from the live catalog record, never from the cart's
// stored snapshot.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Physical  bool
}

// ShippingConfig controls the flat shipping charge. A cart with no physical
// lines always ships free. FreeShippingThreshold of zero disables the
// threshold.
type ShippingConfig struct {
	FlatRate              decimal.Decimal
	FreeShippingThreshold decimal.Decimal
}

// Input is everything the engine needs for one quote.
type Input struct {
	Lines          []Line
	Coupon         *domain.Coupon
	PointsToRedeem int
	WalletBalance  int
	Wallet         domain.WalletConfig
	TaxRate        decimal.Decimal
	Shipping       ShippingConfig
}

// Quote is the priced breakdown of a cart. Intermediate values are kept at
// full precision; rounding happens only at the gateway boundary via
// AmountMinor.
type Quote struct {
	Subtotal       decimal.Decimal
	CouponDiscount decimal.Decimal
	WalletDiscount decimal.Decimal
	TotalDiscount  decimal.Decimal
	TaxableAmount  decimal.Decimal
	TaxAmount      decimal.Decimal
	ShippingAmount decimal.Decimal
	GrandTotal     decimal.Decimal
}

// AmountMinor returns the grand total in minor currency units (paise),
// rounded to two decimal places first. This is the only place a quote is
// rounded.
func (q Quote) AmountMinor() int64 {
	return q.GrandTotal.Round(2).Mul(hundred).IntPart()
}

// Compute prices a cart. The coupon discount is silently zero when the coupon
// is nil or inactive. Wallet redemption fails if it exceeds the user's
// balance; the resulting discount is capped so it never exceeds what remains
// of the subtotal after the coupon.
func Compute(in Input) (Quote, error) {
	var q Quote

	q.Subtotal = zero
	for _, line := range in.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		q.Subtotal = q.Subtotal.Add(lineTotal)
	}

	if in.Coupon != nil && in.Coupon.IsActive {
		q.CouponDiscount = q.Subtotal.Mul(in.Coupon.DiscountPercentage).Div(hundred)
	} else {
		q.CouponDiscount = zero
	}

	q.WalletDiscount = zero
	if in.PointsToRedeem > 0 {
		if in.PointsToRedeem > in.WalletBalance {
			return Quote{}, &errors.ErrInsufficientWalletBalance{
				Balance:   in.WalletBalance,
				Requested: in.PointsToRedeem,
			}
		}
		redeemValue := in.Wallet.RupeesPerPoint.Mul(decimal.NewFromInt(int64(in.PointsToRedeem)))
		remaining := q.Subtotal.Sub(q.CouponDiscount)
		if redeemValue.GreaterThan(remaining) {
			redeemValue = remaining
		}
		q.WalletDiscount = redeemValue
	}

	q.TotalDiscount = q.CouponDiscount.Add(q.WalletDiscount)

	q.TaxableAmount = q.Subtotal.Sub(q.TotalDiscount)
	if q.TaxableAmount.IsNegative() {
		q.TaxableAmount = zero
	}
	q.TaxAmount = q.TaxableAmount.Mul(in.TaxRate)

	q.ShippingAmount = shippingFor(in.Lines, q.Subtotal, in.Shipping)

	q.GrandTotal = q.TaxableAmount.Add(q.ShippingAmount).Add(q.TaxAmount)
	return q, nil
}

// shippingFor returns zero for carts with no physically shipped lines;
// services and digital items ship free.
func shippingFor(lines []Line, subtotal decimal.Decimal, cfg ShippingConfig) decimal.Decimal {
	physical := false
	for _, line := range lines {
		if line.Physical {
			physical = true
			break
		}
	}
	if !physical {
		return zero
	}
	if cfg.FreeShippingThreshold.IsPositive() && subtotal.GreaterThan(cfg.FreeShippingThreshold) {
		return zero
	}
	return cfg.FlatRate
}

// RewardPoints returns the points awarded for an order total: the highest
// reward tier whose minimum spend the total meets, or falls short of by no
// more than the configured tolerance. Rules are expected sorted by MinSpend
// descending.
func RewardPoints(total decimal.Decimal, cfg domain.WalletConfig) int {
	for _, rule := range cfg.RewardRules {
		threshold := rule.MinSpend.Sub(cfg.RewardTierTolerance)
		if total.GreaterThanOrEqual(threshold) {
			return rule.PointsAwarded
		}
	}
	return 0
}
