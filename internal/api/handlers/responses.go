package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/anvika-shop/storefront/internal/domain"
)

type variantResponse struct {
	SKU       string           `json:"sku"`
	Size      string           `json:"size,omitempty"`
	Color     string           `json:"color,omitempty"`
	Price     decimal.Decimal  `json:"price"`
	SalePrice *decimal.Decimal `json:"sale_price,omitempty"`
	Stock     int              `json:"stock"`
}

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Kind        string            `json:"kind"`
	Price       decimal.Decimal   `json:"price"`
	SalePrice   *decimal.Decimal  `json:"sale_price,omitempty"`
	Stock       int               `json:"stock"`
	MinOrderQty int               `json:"min_order_qty"`
	Images      []string          `json:"images,omitempty"`
	Variants    []variantResponse `json:"variants,omitempty"`
	AvgRating   float64           `json:"avg_rating"`
	NumRatings  int               `json:"num_ratings"`
}

func toProductResponse(p *domain.Product) productResponse {
	resp := productResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Kind:        string(p.Kind),
		Price:       p.Price,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		MinOrderQty: p.MinOrderQty,
		Images:      p.Images,
		AvgRating:   p.AvgRating,
		NumRatings:  p.NumRatings,
	}
	for _, v := range p.Variants {
		resp.Variants = append(resp.Variants, variantResponse{
			SKU:       v.SKU,
			Size:      v.Size,
			Color:     v.Color,
			Price:     v.Price,
			SalePrice: v.SalePrice,
			Stock:     v.Stock,
		})
	}
	return resp
}

type cartItemResponse struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id"`
	VariantSKU    *string         `json:"variant_sku,omitempty"`
	Quantity      int             `json:"quantity"`
	PriceSnapshot decimal.Decimal `json:"price_snapshot"`
	Image         string          `json:"image,omitempty"`
}

func toCartResponse(items []domain.CartItem) []cartItemResponse {
	resp := make([]cartItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, cartItemResponse{
			ID:            item.ID.String(),
			ProductID:     item.ProductID.String(),
			VariantSKU:    item.VariantSKU,
			Quantity:      item.Quantity,
			PriceSnapshot: item.PriceSnapshot,
			Image:         item.Image,
		})
	}
	return resp
}

type addressResponse struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Type       string `json:"type,omitempty"`
	IsDefault  bool   `json:"is_default"`
}

func toAddressResponse(a *domain.Address) addressResponse {
	return addressResponse{
		ID:         a.ID.String(),
		FullName:   a.FullName,
		Phone:      a.Phone,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Type:       a.Type,
		IsDefault:  a.IsDefault,
	}
}

type orderItemResponse struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantSKU  *string         `json:"variant_sku,omitempty"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Kind        string          `json:"kind"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Image       string          `json:"image,omitempty"`
}

type shipmentResponse struct {
	Stage          string  `json:"stage,omitempty"`
	CarrierOrderID *string `json:"carrier_order_id,omitempty"`
	ShipmentID     *string `json:"shipment_id,omitempty"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	CourierName    *string `json:"courier_name,omitempty"`
	TrackingURL    *string `json:"tracking_url,omitempty"`
}

type refundResponse struct {
	RefundID  string          `json:"refund_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

type cancellationResponse struct {
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type orderResponse struct {
	ID              string                `json:"id"`
	Status          string                `json:"status"`
	PaymentMethod   string                `json:"payment_method"`
	Items           []orderItemResponse   `json:"items"`
	ShippingAddress *addressResponse      `json:"shipping_address,omitempty"`
	ItemsPrice      decimal.Decimal       `json:"items_price"`
	ShippingPrice   decimal.Decimal       `json:"shipping_price"`
	TaxPrice        decimal.Decimal       `json:"tax_price"`
	DiscountAmount  decimal.Decimal       `json:"discount_amount"`
	CouponCode      *string               `json:"coupon_code,omitempty"`
	PointsRedeemed  int                   `json:"points_redeemed,omitempty"`
	TotalPrice      decimal.Decimal       `json:"total_price"`
	Shipment        *shipmentResponse     `json:"shipment,omitempty"`
	Refund          *refundResponse       `json:"refund,omitempty"`
	Cancellation    *cancellationResponse `json:"cancellation,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:             o.ID.String(),
		Status:         string(o.Status),
		PaymentMethod:  string(o.PaymentMethod),
		ItemsPrice:     o.ItemsPrice,
		ShippingPrice:  o.ShippingPrice,
		TaxPrice:       o.TaxPrice,
		DiscountAmount: o.DiscountAmount,
		CouponCode:     o.CouponCode,
		PointsRedeemed: o.PointsRedeemed,
		TotalPrice:     o.TotalPrice,
		CreatedAt:      o.CreatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			VariantSKU:  item.VariantSKU,
			Size:        item.Size,
			Color:       item.Color,
			Kind:        string(item.Kind),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Image:       item.Image,
		})
	}
	if o.ShippingAddress != nil {
		addr := toAddressResponse(o.ShippingAddress)
		resp.ShippingAddress = &addr
	}
	if o.Shipment.Stage != domain.FulfillmentStageNone {
		resp.Shipment = &shipmentResponse{
			Stage:          string(o.Shipment.Stage),
			CarrierOrderID: o.Shipment.CarrierOrderID,
			ShipmentID:     o.Shipment.ShipmentID,
			TrackingNumber: o.Shipment.TrackingNumber,
			CourierName:    o.Shipment.CourierName,
			TrackingURL:    o.Shipment.TrackingURL,
		}
	}
	if o.Refund != nil {
		resp.Refund = &refundResponse{
			RefundID:  o.Refund.RefundID,
			Amount:    o.Refund.Amount,
			Status:    o.Refund.Status,
			CreatedAt: o.Refund.CreatedAt,
		}
	}
	if o.Cancellation != nil {
		resp.Cancellation = &cancellationResponse{
			CancelledBy: o.Cancellation.CancelledBy,
			Reason:      o.Cancellation.Reason,
			CancelledAt: o.Cancellation.CancelledAt,
		}
	}
	return resp
}

type reviewResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func toReviewResponse(r *domain.Review) reviewResponse {
	return reviewResponse{
		ID:        r.ID.String(),
		ProductID: r.ProductID.String(),
		UserName:  r.UserName,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

type quoteResponse struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	CouponDiscount decimal.Decimal `json:"coupon_discount"`
	WalletDiscount decimal.Decimal `json:"wallet_discount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
}
