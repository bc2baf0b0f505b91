package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/carrier"
	"github.com/anvika-shop/storefront/internal/domain"
)

// FulfillmentService is the slice of the fulfillment service the handlers
// need.
type FulfillmentService interface {
	Resume(ctx context.Context, orderID uuid.UUID) error
	Track(ctx context.Context, caller *domain.User, orderID uuid.UUID) (*carrier.TrackingInfo, error)
	Serviceability(ctx context.Context, postcode string, weightKg float64, cod bool) ([]carrier.CourierOption, error)
	MarkDelivered(ctx context.Context, orderID uuid.UUID) error
}

func HandleTrackOrder(fulfillment FulfillmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		orderID, ok := uuidParam(c, "id")
		if !ok {
			return
		}

		info, err := fulfillment.Track(c.Request.Context(), user, orderID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}

func HandleServiceability(fulfillment FulfillmentService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		postcode := c.Query("postcode")
		weight, _ := strconv.ParseFloat(c.Query("weight"), 64)
		cod := c.Query("cod") == "true" || c.Query("cod") == "1"

		options, err := fulfillment.Serviceability(c.Request.Context(), postcode, weight, cod)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"couriers": options})
	}
}
