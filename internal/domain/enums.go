package domain

// OrderStatus represents the lifecycle state of an order
type OrderStatus string

const (
	// OrderStatusPending is used only before payment confirmation.
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusPaid       OrderStatus = "Paid"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending,
		OrderStatusPaid,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return newStatus == OrderStatusPaid ||
			newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusCancelled
	case OrderStatusPaid:
		return newStatus == OrderStatusProcessing ||
			newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusProcessing:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusCancelled
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusCancelled:
		return false // Terminal states
	default:
		return false
	}
}

// IsCancellable reports whether a cancellation request is allowed from this
// state. Shipped and Delivered orders are past the point of no return.
func (s OrderStatus) IsCancellable() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing:
		return true
	default:
		return false
	}
}

// PaymentMethod distinguishes gateway-captured payments from pay-on-delivery
type PaymentMethod string

const (
	PaymentMethodPrepaid PaymentMethod = "PREPAID"
	PaymentMethodCOD     PaymentMethod = "COD"
)

// IsValid checks if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodPrepaid || m == PaymentMethodCOD
}

// ProductKind separates physically shipped goods from services/digital items,
// which ship free and need no carrier handling.
type ProductKind string

const (
	ProductKindPhysical ProductKind = "physical"
	ProductKindService  ProductKind = "service"
)

// Role is the user's privilege level
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// FulfillmentStage tracks how far the carrier hand-off has progressed. Each
// stage is persisted independently so a retry resumes from the last
// successful step.
type FulfillmentStage string

const (
	FulfillmentStageNone              FulfillmentStage = ""
	FulfillmentStageShipmentRequested FulfillmentStage = "shipment_requested"
	FulfillmentStageAWBAssigned       FulfillmentStage = "awb_assigned"
	FulfillmentStagePickupScheduled   FulfillmentStage = "pickup_scheduled"
)
