package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/pricing"
	"github.com/anvika-shop/storefront/internal/service"
)

// CheckoutService is the slice of the checkout service the handlers need.
type CheckoutService interface {
	Quote(ctx context.Context, userID uuid.UUID, req service.QuoteRequest) (*pricing.Quote, error)
	CreatePaymentIntent(ctx context.Context, userID uuid.UUID, req service.QuoteRequest) (*service.PaymentIntentResponse, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, req service.CheckoutRequest) (*domain.Order, error)
}

func HandleQuote(checkout CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req service.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		quote, err := checkout.Quote(c.Request.Context(), user.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, quoteResponse{
			Subtotal:       quote.Subtotal,
			CouponDiscount: quote.CouponDiscount,
			WalletDiscount: quote.WalletDiscount,
			TaxAmount:      quote.TaxAmount,
			ShippingAmount: quote.ShippingAmount,
			GrandTotal:     quote.GrandTotal,
		})
	}
}

func HandleCreatePaymentIntent(checkout CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req service.QuoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		intent, err := checkout.CreatePaymentIntent(c.Request.Context(), user.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, intent)
	}
}

func HandleCheckout(checkout CheckoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req service.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		order, err := checkout.PlaceOrder(c.Request.Context(), user.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}
