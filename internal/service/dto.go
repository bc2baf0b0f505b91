package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anvika-shop/storefront/internal/domain"
)

// AddToCartRequest adds a product (optionally a specific variant) to the
// caller's cart.
type AddToCartRequest struct {
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	VariantSKU *string   `json:"variant_sku"`
	Quantity   int       `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest changes the quantity of one cart line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// PaymentProof is what the gateway's checkout page hands back to the client
// after a successful payment.
type PaymentProof struct {
	GatewayOrderID string `json:"gateway_order_id" binding:"required"`
	PaymentID      string `json:"payment_id" binding:"required"`
	Signature      string `json:"signature" binding:"required"`
}

// CheckoutRequest places an order from the caller's cart. Client-side
// amounts are never part of the request: every total is recomputed from the
// live catalog.
type CheckoutRequest struct {
	PaymentMethod  domain.PaymentMethod `json:"payment_method" binding:"required"`
	AddressID      *uuid.UUID           `json:"address_id"`
	CouponCode     *string              `json:"coupon_code"`
	PointsToRedeem int                  `json:"points_to_redeem" binding:"min=0"`
	Payment        *PaymentProof        `json:"payment"`
}

// QuoteRequest previews checkout pricing for the caller's cart.
type QuoteRequest struct {
	CouponCode     *string `json:"coupon_code"`
	PointsToRedeem int     `json:"points_to_redeem" binding:"min=0"`
}

// PaymentIntentResponse tells the client what to pay on the gateway surface.
type PaymentIntentResponse struct {
	IntentID    string          `json:"intent_id"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	GrandTotal  decimal.Decimal `json:"grand_total"`
}

// CancelOrderRequest cancels an order with an optional reason.
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// AddReviewRequest attaches a rating and comment to a product.
type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required"`
}

// RewardRuleRequest is one reward tier in a wallet config update.
type RewardRuleRequest struct {
	MinSpend      decimal.Decimal `json:"min_spend" binding:"required"`
	PointsAwarded int             `json:"points_awarded" binding:"required,min=1"`
}

// UpdateWalletConfigRequest replaces the wallet configuration.
type UpdateWalletConfigRequest struct {
	RupeesPerPoint      decimal.Decimal     `json:"rupees_per_point" binding:"required"`
	RewardTierTolerance decimal.Decimal     `json:"reward_tier_tolerance"`
	RewardRules         []RewardRuleRequest `json:"reward_rules"`
}

// UpdateTaxRateRequest sets the checkout tax rate as a fraction (0.03 = 3%).
type UpdateTaxRateRequest struct {
	Rate decimal.Decimal `json:"rate" binding:"required"`
}

// AddAddressRequest adds a shipping address to the caller's address book.
type AddAddressRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Type       string `json:"type"`
}
