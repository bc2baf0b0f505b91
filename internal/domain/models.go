package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entity. Stock is tracked either on the product itself
// (simple product, no variants) or per variant, never both.
type Product struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	Kind        ProductKind
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Stock       int
	MinOrderQty int
	Images      []string
	// Packaging attributes used for shipment weight/dimension aggregation
	WeightKg   float64
	LengthCm   float64
	BreadthCm  float64
	HeightCm   float64
	Variants   []Variant
	AvgRating  float64
	NumRatings int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasVariants reports whether stock and price are tracked per variant.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// FindVariant returns the variant with the given SKU, or nil.
func (p *Product) FindVariant(sku string) *Variant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}

// UnitPrice resolves the authoritative selling price for a product or one of
// its variants: sale price when present, base price otherwise. Cart snapshots
// are never consulted for this.
func (p *Product) UnitPrice(variant *Variant) decimal.Decimal {
	if variant != nil {
		if variant.SalePrice != nil {
			return *variant.SalePrice
		}
		return variant.Price
	}
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// Variant is a purchasable configuration of a product with its own SKU,
// price and stock.
type Variant struct {
	ProductID uuid.UUID
	SKU       string
	Size      string
	Color     string
	Price     decimal.Decimal
	SalePrice *decimal.Decimal
	Stock     int
	WeightKg  float64
	LengthCm  float64
	BreadthCm float64
	HeightCm  float64
	Position  int
}

// User owns a cart, an address book and a wallet point balance.
type User struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	Phone        string
	Role         Role
	APITokenHash string
	WalletPoints int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds administrative privilege.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Address is a saved shipping destination belonging to one user.
type Address struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	FullName   string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
	Type       string
	IsDefault  bool
}

// CartItem is one line in a user's cart. PriceSnapshot is the price seen at
// add-time; it is advisory only and never used for money calculations.
type CartItem struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ProductID     uuid.UUID
	VariantSKU    *string
	Quantity      int
	PriceSnapshot decimal.Decimal
	Image         string
	CreatedAt     time.Time
}

// Order is an immutable-once-created financial record. Mutations after
// creation are limited to status transitions and shipment/refund/cancellation
// details.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           []OrderItem
	ShippingAddress *Address
	ItemsPrice      decimal.Decimal
	ShippingPrice   decimal.Decimal
	TaxPrice        decimal.Decimal
	DiscountAmount  decimal.Decimal
	CouponCode      *string
	PointsRedeemed  int
	TotalPrice      decimal.Decimal
	PaymentMethod   PaymentMethod
	PaymentID       *string
	GatewayOrderID  *string
	Status          OrderStatus
	Shipment        ShipmentDetails
	Refund          *RefundDetails
	Cancellation    *CancellationDetails
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPhysicalItems reports whether any line requires carrier shipment.
func (o *Order) HasPhysicalItems() bool {
	for _, item := range o.Items {
		if item.Kind == ProductKindPhysical {
			return true
		}
	}
	return false
}

// HasServiceItems reports whether any line is a service/digital item.
func (o *Order) HasServiceItems() bool {
	for _, item := range o.Items {
		if item.Kind == ProductKindService {
			return true
		}
	}
	return false
}

// OrderItem is a frozen copy of the purchased product state, not a live
// reference.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	VariantSKU  *string
	Size        string
	Color       string
	Kind        ProductKind
	Quantity    int
	UnitPrice   decimal.Decimal
	Image       string
}

// ShipmentDetails accumulates carrier identifiers as the fulfillment stage
// machine advances. Partial data after a mid-sequence failure is expected.
type ShipmentDetails struct {
	Stage          FulfillmentStage
	CarrierOrderID *string
	ShipmentID     *string
	TrackingNumber *string
	CourierName    *string
	TrackingURL    *string
}

// RefundDetails records the gateway refund issued on cancellation.
type RefundDetails struct {
	RefundID  string
	Amount    decimal.Decimal
	Status    string
	CreatedAt time.Time
}

// CancellationDetails records who cancelled an order, when and why.
type CancellationDetails struct {
	CancelledBy string
	Reason      string
	CancelledAt time.Time
}

// Coupon is a read-only reference entity looked up at checkout.
type Coupon struct {
	ID                 uuid.UUID
	Code               string
	DiscountPercentage decimal.Decimal
	IsActive           bool
}

// RewardRule awards points when an order total meets a minimum spend.
type RewardRule struct {
	MinSpend      decimal.Decimal
	PointsAwarded int
}

// WalletConfig holds the externally managed loyalty configuration. It is
// read-only from the core's perspective and injected into the pricing engine
// at call time.
type WalletConfig struct {
	RupeesPerPoint decimal.Decimal
	// RewardRules are kept sorted by MinSpend descending.
	RewardRules []RewardRule
	// RewardTierTolerance awards a tier when the total falls short of its
	// MinSpend by no more than this amount.
	RewardTierTolerance decimal.Decimal
}

// Review is a single user's rating of a product.
type Review struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
