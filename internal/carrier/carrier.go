// Package carrier talks to the shipping aggregator that books couriers for
// physical orders.
package carrier

import (
	"context"

	"github.com/shopspring/decimal"
)

// ShipmentItem is one order line in the carrier's format.
type ShipmentItem struct {
	Name      string
	SKU       string
	Units     int
	UnitPrice decimal.Decimal
}

// ShipmentRequest describes a paid order ready for pickup.
type ShipmentRequest struct {
	OrderRef        string
	Items           []ShipmentItem
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	AddressLine     string
	City            string
	State           string
	Postcode        string
	Country         string
	PaymentMethod   string
	SubtotalRupees  decimal.Decimal
	WeightKg        float64
	LengthCm        float64
	BreadthCm       float64
	HeightCm        float64
}

// Shipment identifies a booked shipment on the carrier side.
type Shipment struct {
	CarrierOrderID string
	ShipmentID     string
}

// Waybill is the courier assignment for a shipment.
type Waybill struct {
	AWB         string
	CourierName string
	TrackingURL string
}

// TrackingEvent is one scan in a shipment's tracking history.
type TrackingEvent struct {
	Status   string `json:"status"`
	Location string `json:"location,omitempty"`
	Date     string `json:"date,omitempty"`
}

// TrackingInfo is the current state of a shipment in transit.
type TrackingInfo struct {
	CurrentStatus string          `json:"current_status"`
	Events        []TrackingEvent `json:"events,omitempty"`
}

// CourierOption is one courier able to serve a lane, with its quoted rate.
type CourierOption struct {
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	EstimatedDays string          `json:"estimated_days,omitempty"`
}

// Carrier is the shipping aggregator contract. The three booking calls map
// to the fulfillment stages recorded on the order.
type Carrier interface {
	CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error)
	AssignWaybill(ctx context.Context, shipmentID string) (*Waybill, error)
	SchedulePickup(ctx context.Context, shipmentID string) error
	Track(ctx context.Context, awb string) (*TrackingInfo, error)
	Serviceability(ctx context.Context, deliveryPostcode string, weightKg float64, cod bool) ([]CourierOption, error)
}
