package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/service"
)

// CartService is the slice of the cart service the handlers need.
type CartService interface {
	AddItem(ctx context.Context, userID uuid.UUID, req service.AddToCartRequest) (*domain.CartItem, error)
	GetCart(ctx context.Context, userID uuid.UUID) ([]domain.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

func HandleGetCart(cart CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		items, err := cart.GetCart(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": toCartResponse(items)})
	}
}

func HandleAddToCart(cart CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req service.AddToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		item, err := cart.AddItem(c.Request.Context(), user.ID, req)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"item_id": item.ID.String()})
	}
}

func HandleUpdateCartItem(cart CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		itemID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		var req service.UpdateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		if err := cart.UpdateQuantity(c.Request.Context(), user.ID, itemID, req.Quantity); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func HandleRemoveCartItem(cart CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		itemID, ok := uuidParam(c, "id")
		if !ok {
			return
		}
		if err := cart.RemoveItem(c.Request.Context(), user.ID, itemID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func HandleClearCart(cart CartService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		if err := cart.Clear(c.Request.Context(), user.ID); err != nil {
			respondError(c, logger, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
