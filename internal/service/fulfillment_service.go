package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/carrier"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/metrics"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// Fallbacks for products created without packaging attributes.
const (
	defaultItemWeightKg = 0.1
	defaultDimensionCm  = 10
)

type fulfillmentService struct {
	store   repository.Store
	carrier carrier.Carrier
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(store repository.Store, c carrier.Carrier, m *metrics.Metrics, logger *zap.Logger) *fulfillmentService {
	return &fulfillmentService{
		store:   store,
		carrier: c,
		metrics: m,
		logger:  logger,
	}
}

// Fulfill drives the carrier hand-off for a committed order. It is fired
// after checkout commits; failures are recorded and retried later via
// Resume, never surfaced to the customer.
func (s *fulfillmentService) Fulfill(ctx context.Context, orderID uuid.UUID) {
	if err := s.Resume(ctx, orderID); err != nil {
		s.metrics.FulfillmentFailures.Inc()
		s.logger.Warn("Fulfillment incomplete",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
}

// Resume advances the fulfillment stage machine from wherever the last
// attempt stopped. Each completed stage is persisted before the next starts,
// so a failure mid-sequence loses nothing.
func (s *fulfillmentService) Resume(ctx context.Context, orderID uuid.UUID) error {
	repos := s.store.Repos()

	order, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.HasPhysicalItems() {
		return &errors.ErrValidation{Message: "order has no physical items to ship"}
	}
	if order.Status != domain.OrderStatusPaid && order.Status != domain.OrderStatusProcessing {
		return &errors.ErrValidation{Message: fmt.Sprintf("order in status %s cannot be fulfilled", order.Status)}
	}

	user, err := repos.Users.GetByID(ctx, order.UserID)
	if err != nil {
		return err
	}

	shipment := order.Shipment

	if shipment.Stage == domain.FulfillmentStageNone {
		req, err := s.buildShipmentRequest(ctx, repos, order, user)
		if err != nil {
			return err
		}
		booked, err := s.carrier.CreateShipment(ctx, *req)
		if err != nil {
			return err
		}
		shipment.Stage = domain.FulfillmentStageShipmentRequested
		shipment.CarrierOrderID = &booked.CarrierOrderID
		shipment.ShipmentID = &booked.ShipmentID
		if err := repos.Orders.UpdateShipment(ctx, orderID, shipment); err != nil {
			return err
		}
	}

	if shipment.Stage == domain.FulfillmentStageShipmentRequested {
		waybill, err := s.carrier.AssignWaybill(ctx, *shipment.ShipmentID)
		if err != nil {
			return err
		}
		shipment.Stage = domain.FulfillmentStageAWBAssigned
		shipment.TrackingNumber = &waybill.AWB
		shipment.CourierName = &waybill.CourierName
		shipment.TrackingURL = &waybill.TrackingURL
		if err := repos.Orders.UpdateShipment(ctx, orderID, shipment); err != nil {
			return err
		}
	}

	if shipment.Stage == domain.FulfillmentStageAWBAssigned {
		if err := s.carrier.SchedulePickup(ctx, *shipment.ShipmentID); err != nil {
			return err
		}
		shipment.Stage = domain.FulfillmentStagePickupScheduled
		if err := repos.Orders.UpdateShipment(ctx, orderID, shipment); err != nil {
			return err
		}
	}

	// The order is only Shipped once the courier pickup is actually booked.
	// The status read above is the check-and-set predicate: if a cancel
	// landed in the meantime, the write fails instead of reviving the order.
	if order.Status.CanTransitionTo(domain.OrderStatusShipped) {
		if err := repos.Orders.UpdateStatus(ctx, orderID, order.Status, domain.OrderStatusShipped); err != nil {
			return err
		}
		s.logger.Info("Order shipped",
			zap.String("order_id", orderID.String()),
			zap.Stringp("awb", shipment.TrackingNumber),
		)
	}
	return nil
}

func (s *fulfillmentService) buildShipmentRequest(
	ctx context.Context,
	repos *repository.Repositories,
	order *domain.Order,
	user *domain.User,
) (*carrier.ShipmentRequest, error) {
	if order.ShippingAddress == nil {
		return nil, &errors.ErrValidation{Message: "order has no shipping address"}
	}

	req := &carrier.ShipmentRequest{
		OrderRef:       order.ID.String(),
		CustomerName:   order.ShippingAddress.FullName,
		CustomerEmail:  user.Email,
		CustomerPhone:  order.ShippingAddress.Phone,
		AddressLine:    order.ShippingAddress.Street,
		City:           order.ShippingAddress.City,
		State:          order.ShippingAddress.State,
		Postcode:       order.ShippingAddress.PostalCode,
		Country:        order.ShippingAddress.Country,
		PaymentMethod:  carrierPaymentMethod(order.PaymentMethod),
		SubtotalRupees: order.ItemsPrice,
	}

	var weight float64
	var length, breadth, height float64
	for _, item := range order.Items {
		if item.Kind != domain.ProductKindPhysical {
			continue
		}
		product, err := repos.Products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}

		itemWeight := product.WeightKg
		itemLength, itemBreadth, itemHeight := product.LengthCm, product.BreadthCm, product.HeightCm
		if item.VariantSKU != nil {
			if variant := product.FindVariant(*item.VariantSKU); variant != nil && variant.WeightKg > 0 {
				itemWeight = variant.WeightKg
				itemLength, itemBreadth, itemHeight = variant.LengthCm, variant.BreadthCm, variant.HeightCm
			}
		}
		if itemWeight <= 0 {
			itemWeight = defaultItemWeightKg
		}

		weight += itemWeight * float64(item.Quantity)
		length = maxDim(length, itemLength)
		breadth = maxDim(breadth, itemBreadth)
		height = maxDim(height, itemHeight)

		sku := item.ProductID.String()
		if item.VariantSKU != nil {
			sku = *item.VariantSKU
		}
		req.Items = append(req.Items, carrier.ShipmentItem{
			Name:      item.ProductName,
			SKU:       sku,
			Units:     item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	req.WeightKg = weight
	req.LengthCm = maxDim(length, 0)
	req.BreadthCm = maxDim(breadth, 0)
	req.HeightCm = maxDim(height, 0)
	if req.LengthCm == 0 {
		req.LengthCm = defaultDimensionCm
	}
	if req.BreadthCm == 0 {
		req.BreadthCm = defaultDimensionCm
	}
	if req.HeightCm == 0 {
		req.HeightCm = defaultDimensionCm
	}
	return req, nil
}

// Track proxies the carrier's tracking feed for an order the caller owns.
func (s *fulfillmentService) Track(ctx context.Context, caller *domain.User, orderID uuid.UUID) (*carrier.TrackingInfo, error) {
	repos := s.store.Repos()
	order, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != caller.ID && !caller.IsAdmin() {
		return nil, &errors.ErrForbidden{Message: "not your order"}
	}
	if order.Shipment.TrackingNumber == nil {
		// No AWB yet: report the wait state rather than erroring, the
		// order is real even before the courier picks it up.
		return &carrier.TrackingInfo{CurrentStatus: "Awaiting shipment"}, nil
	}
	return s.carrier.Track(ctx, *order.Shipment.TrackingNumber)
}

// Serviceability quotes couriers for a destination postcode.
func (s *fulfillmentService) Serviceability(ctx context.Context, postcode string, weightKg float64, cod bool) ([]carrier.CourierOption, error) {
	if postcode == "" {
		return nil, &errors.ErrValidation{Message: "delivery postcode is required"}
	}
	if weightKg <= 0 {
		weightKg = defaultItemWeightKg
	}
	return s.carrier.Serviceability(ctx, postcode, weightKg, cod)
}

// MarkDelivered records courier delivery confirmation.
func (s *fulfillmentService) MarkDelivered(ctx context.Context, orderID uuid.UUID) error {
	repos := s.store.Repos()
	order, err := repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusDelivered) {
		return &errors.ErrInvalidStateTransition{From: string(order.Status), To: string(domain.OrderStatusDelivered)}
	}
	return repos.Orders.UpdateStatus(ctx, orderID, order.Status, domain.OrderStatusDelivered)
}

func carrierPaymentMethod(m domain.PaymentMethod) string {
	if m == domain.PaymentMethodCOD {
		return "COD"
	}
	return "Prepaid"
}

func maxDim(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
