package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/internal/service"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// CreateProductRequest is the admin payload for adding a catalog entry.
type CreateProductRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Slug        string                 `json:"slug" binding:"required"`
	Description string                 `json:"description"`
	Kind        string                 `json:"kind" binding:"required,oneof=physical service"`
	Price       decimal.Decimal        `json:"price" binding:"required"`
	SalePrice   *decimal.Decimal       `json:"sale_price"`
	Stock       int                    `json:"stock" binding:"min=0"`
	MinOrderQty int                    `json:"min_order_qty"`
	Images      []string               `json:"images"`
	WeightKg    float64                `json:"weight_kg"`
	LengthCm    float64                `json:"length_cm"`
	BreadthCm   float64                `json:"breadth_cm"`
	HeightCm    float64                `json:"height_cm"`
	Variants    []CreateVariantRequest `json:"variants"`
}

type CreateVariantRequest struct {
	SKU       string           `json:"sku" binding:"required"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Price     decimal.Decimal  `json:"price" binding:"required"`
	SalePrice *decimal.Decimal `json:"sale_price"`
	Stock     int              `json:"stock" binding:"min=0"`
	WeightKg  float64          `json:"weight_kg"`
	LengthCm  float64          `json:"length_cm"`
	BreadthCm float64          `json:"breadth_cm"`
	HeightCm  float64          `json:"height_cm"`
}

type CreateCouponRequest struct {
	Code               string          `json:"code" binding:"required"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage" binding:"required"`
	IsActive           bool            `json:"is_active"`
}

func HandleAdminListOrders(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

		orders, err := store.Repos().Orders.ListAll(c.Request.Context(), limit)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := make([]orderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResponse(&orders[i]))
		}
		c.JSON(http.StatusOK, gin.H{"orders": resp})
	}
}

// HandleRetryFulfillment re-runs the carrier hand-off for an order whose
// fulfillment stopped partway.
func HandleRetryFulfillment(fulfillment FulfillmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if err := fulfillment.Resume(c.Request.Context(), orderID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "fulfillment complete"})
	}
}

func HandleMarkDelivered(fulfillment FulfillmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if err := fulfillment.MarkDelivered(c.Request.Context(), orderID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": string(domain.OrderStatusDelivered)})
	}
}

func HandleCreateProduct(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateProductRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if len(req.Variants) > 0 && req.Stock > 0 {
			respondError(c, logger, &errors.ErrValidation{Message: "stock is tracked per variant when variants are present"})
			return
		}

		product := &domain.Product{
			Name:        req.Name,
			Slug:        req.Slug,
			Description: req.Description,
			Kind:        domain.ProductKind(req.Kind),
			Price:       req.Price,
			SalePrice:   req.SalePrice,
			Stock:       req.Stock,
			MinOrderQty: req.MinOrderQty,
			Images:      req.Images,
			WeightKg:    req.WeightKg,
			LengthCm:    req.LengthCm,
			BreadthCm:   req.BreadthCm,
			HeightCm:    req.HeightCm,
		}
		for _, v := range req.Variants {
			product.Variants = append(product.Variants, domain.Variant{
				SKU:       v.SKU,
				Size:      v.Size,
				Color:     v.Color,
				Price:     v.Price,
				SalePrice: v.SalePrice,
				Stock:     v.Stock,
				WeightKg:  v.WeightKg,
				LengthCm:  v.LengthCm,
				BreadthCm: v.BreadthCm,
				HeightCm:  v.HeightCm,
			})
		}

		if err := store.Repos().Products.Create(c.Request.Context(), product); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toProductResponse(product))
	}
}

func HandleCreateCoupon(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if req.DiscountPercentage.IsNegative() || req.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
			respondError(c, logger, &errors.ErrValidation{Message: "discount percentage must be between 0 and 100"})
			return
		}

		coupon := &domain.Coupon{
			Code:               req.Code,
			DiscountPercentage: req.DiscountPercentage,
			IsActive:           req.IsActive,
		}
		if err := store.Repos().Coupons.Create(c.Request.Context(), coupon); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"code": coupon.Code})
	}
}

func HandleGetWalletConfig(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := store.Repos().Configs.GetWalletConfig(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}

		rules := make([]gin.H, 0, len(cfg.RewardRules))
		for _, rule := range cfg.RewardRules {
			rules = append(rules, gin.H{
				"min_spend":      rule.MinSpend,
				"points_awarded": rule.PointsAwarded,
			})
		}
		c.JSON(http.StatusOK, gin.H{
			"rupees_per_point":      cfg.RupeesPerPoint,
			"reward_tier_tolerance": cfg.RewardTierTolerance,
			"reward_rules":          rules,
		})
	}
}

func HandleUpdateWalletConfig(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateWalletConfigRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if !req.RupeesPerPoint.IsPositive() {
			respondError(c, logger, &errors.ErrValidation{Message: "rupees_per_point must be positive"})
			return
		}

		cfg := &domain.WalletConfig{
			RupeesPerPoint:      req.RupeesPerPoint,
			RewardTierTolerance: req.RewardTierTolerance,
		}
		seen := make(map[string]bool, len(req.RewardRules))
		for _, rule := range req.RewardRules {
			key := rule.MinSpend.String()
			if seen[key] {
				respondError(c, logger, &errors.ErrValidation{Message: "duplicate reward rule min_spend " + key})
				return
			}
			seen[key] = true
			cfg.RewardRules = append(cfg.RewardRules, domain.RewardRule{
				MinSpend:      rule.MinSpend,
				PointsAwarded: rule.PointsAwarded,
			})
		}

		if err := store.Repos().Configs.SaveWalletConfig(c.Request.Context(), cfg); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func HandleGetTaxRate(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rate, err := store.Repos().Configs.GetTaxRate(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"rate": rate})
	}
}

func HandleSetTaxRate(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateTaxRateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}
		if req.Rate.IsNegative() || req.Rate.GreaterThan(decimal.NewFromInt(1)) {
			respondError(c, logger, &errors.ErrValidation{Message: "rate must be a fraction between 0 and 1"})
			return
		}

		if err := store.Repos().Configs.SetTaxRate(c.Request.Context(), req.Rate); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
