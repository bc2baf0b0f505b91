package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/internal/service"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// CancelService is the slice of the cancellation service the handlers need.
type CancelService interface {
	CancelOrder(ctx context.Context, caller *domain.User, orderID uuid.UUID, reason string) (*domain.Order, error)
}

func HandleListMyOrders(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		orders, err := store.Repos().Orders.ListByUser(c.Request.Context(), user.ID)
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

func HandleGetOrder(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		orderID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		order, err := store.Repos().Orders.GetByID(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		if order.UserID != user.ID && !user.IsAdmin() {
			respondError(c, logger, &errors.ErrForbidden{Message: "not your order"})
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

func HandleCancelOrder(cancel CancelService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		orderID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		var req service.CancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			bindError(c, err)
			return
		}

		order, err := cancel.CancelOrder(c.Request.Context(), user, orderID, req.Reason)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}
