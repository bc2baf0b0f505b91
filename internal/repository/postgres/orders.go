package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/pkg/errors"
)

type orderRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db dbtx, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, user_id, shipping_address, items_price, shipping_price, tax_price,
	discount_amount, coupon_code, points_redeemed, total_price, payment_method,
	payment_id, gateway_order_id, status, fulfillment_stage, carrier_order_id,
	shipment_id, tracking_number, courier_name, tracking_url, refund_id,
	refund_amount, refund_status, refund_created_at, cancelled_by,
	cancellation_reason, cancelled_at, created_at, updated_at
`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	var addressJSON []byte
	if order.ShippingAddress != nil {
		var err error
		addressJSON, err = json.Marshal(order.ShippingAddress)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO orders (
			id, user_id, shipping_address, items_price, shipping_price,
			tax_price, discount_amount, coupon_code, points_redeemed,
			total_price, payment_method, payment_id, gateway_order_id, status,
			fulfillment_stage, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		addressJSON,
		order.ItemsPrice,
		order.ShippingPrice,
		order.TaxPrice,
		order.DiscountAmount,
		order.CouponCode,
		order.PointsRedeemed,
		order.TotalPrice,
		order.PaymentMethod,
		order.PaymentID,
		order.GatewayOrderID,
		order.Status,
		order.Shipment.Stage,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID

		_, err := r.db.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, product_name,
			                         variant_sku, size, color, kind, quantity,
			                         unit_price, image)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`,
			item.ID, item.OrderID, item.ProductID, item.ProductName,
			item.VariantSKU, item.Size, item.Color, item.Kind,
			item.Quantity, item.UnitPrice, item.Image,
		)
		if err != nil {
			r.logger.Error("Failed to create order item", zap.Error(err))
			return err
		}
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	order, err := r.scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order", zap.Error(err))
		return nil, err
	}

	items, err := r.listItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *orderRepository) ListAll(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC LIMIT $1`, limit)
}

func (r *orderRepository) list(ctx context.Context, query string, arg interface{}) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.listItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var addressJSON []byte
	var couponCode, paymentID, gatewayOrderID sql.NullString
	var carrierOrderID, shipmentID, trackingNumber, courierName, trackingURL sql.NullString
	var refundID, refundStatus, cancelledBy, cancellationReason sql.NullString
	var refundAmount decimal.NullDecimal
	var refundCreatedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&order.ID,
		&order.UserID,
		&addressJSON,
		&order.ItemsPrice,
		&order.ShippingPrice,
		&order.TaxPrice,
		&order.DiscountAmount,
		&couponCode,
		&order.PointsRedeemed,
		&order.TotalPrice,
		&order.PaymentMethod,
		&paymentID,
		&gatewayOrderID,
		&order.Status,
		&order.Shipment.Stage,
		&carrierOrderID,
		&shipmentID,
		&trackingNumber,
		&courierName,
		&trackingURL,
		&refundID,
		&refundAmount,
		&refundStatus,
		&refundCreatedAt,
		&cancelledBy,
		&cancellationReason,
		&cancelledAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(addressJSON) > 0 {
		var addr domain.Address
		if err := json.Unmarshal(addressJSON, &addr); err != nil {
			return nil, err
		}
		order.ShippingAddress = &addr
	}
	order.CouponCode = fromNullString(couponCode)
	order.PaymentID = fromNullString(paymentID)
	order.GatewayOrderID = fromNullString(gatewayOrderID)
	order.Shipment.CarrierOrderID = fromNullString(carrierOrderID)
	order.Shipment.ShipmentID = fromNullString(shipmentID)
	order.Shipment.TrackingNumber = fromNullString(trackingNumber)
	order.Shipment.CourierName = fromNullString(courierName)
	order.Shipment.TrackingURL = fromNullString(trackingURL)

	if refundID.Valid {
		order.Refund = &domain.RefundDetails{
			RefundID:  refundID.String,
			Amount:    refundAmount.Decimal,
			Status:    refundStatus.String,
			CreatedAt: refundCreatedAt.Time,
		}
	}
	if cancelledBy.Valid {
		order.Cancellation = &domain.CancellationDetails{
			CancelledBy: cancelledBy.String,
			Reason:      cancellationReason.String,
			CancelledAt: cancelledAt.Time,
		}
	}
	return &order, nil
}

func (r *orderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_name, variant_sku, size,
		       color, kind, quantity, unit_price, image
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	if err != nil {
		r.logger.Error("Failed to list order items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		var sku sql.NullString
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&sku, &item.Size, &item.Color, &item.Kind,
			&item.Quantity, &item.UnitPrice, &item.Image,
		); err != nil {
			return nil, err
		}
		item.VariantSKU = fromNullString(sku)
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateStatus is a check-and-set: the write only lands while the row still
// holds the status the caller read. Zero rows means another transaction got
// there first (or the order is gone), never a silent overwrite.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		current, err := r.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &errors.ErrInvalidStateTransition{From: string(current), To: string(to)}
	}
	return nil
}

func (r *orderRepository) currentStatus(ctx context.Context, id uuid.UUID) (domain.OrderStatus, error) {
	var current domain.OrderStatus
	err := r.db.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return "", &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to read order status", zap.Error(err))
		return "", err
	}
	return current, nil
}

func (r *orderRepository) UpdateShipment(ctx context.Context, id uuid.UUID, shipment domain.ShipmentDetails) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET fulfillment_stage = $2,
		    carrier_order_id = $3,
		    shipment_id = $4,
		    tracking_number = $5,
		    courier_name = $6,
		    tracking_url = $7,
		    updated_at = NOW()
		WHERE id = $1
	`,
		id, shipment.Stage, shipment.CarrierOrderID, shipment.ShipmentID,
		shipment.TrackingNumber, shipment.CourierName, shipment.TrackingURL,
	)
	if err != nil {
		r.logger.Error("Failed to update shipment details", zap.Error(err))
	}
	return err
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id uuid.UUID, cancellation domain.CancellationDetails, refund *domain.RefundDetails) error {
	var refundID, refundStatus *string
	var refundAmount decimal.NullDecimal
	var refundCreatedAt *time.Time
	if refund != nil {
		refundID = &refund.RefundID
		refundStatus = &refund.Status
		refundAmount = decimal.NullDecimal{Decimal: refund.Amount, Valid: true}
		refundCreatedAt = &refund.CreatedAt
	}

	// The status predicate mirrors OrderStatus.IsCancellable: a concurrent
	// ship or cancel makes this a zero-row update instead of a double write.
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $2,
		    cancelled_by = $3,
		    cancellation_reason = $4,
		    cancelled_at = $5,
		    refund_id = $6,
		    refund_amount = $7,
		    refund_status = $8,
		    refund_created_at = $9,
		    updated_at = NOW()
		WHERE id = $1 AND status IN ('Pending', 'Paid', 'Processing')
	`,
		id, domain.OrderStatusCancelled, cancellation.CancelledBy,
		cancellation.Reason, cancellation.CancelledAt,
		refundID, refundAmount, refundStatus, refundCreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to mark order cancelled", zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		current, err := r.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &errors.ErrOrderNotCancellable{Status: string(current)}
	}
	return nil
}

func fromNullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
