package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/pkg/errors"
)

// respondError maps typed domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; internals never leak.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch e := err.(type) {
	case *errors.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": e.Message})
	case *errors.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": e.Error()})
	case *errors.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": e.Message})
	case *errors.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": e.Message})
	case *errors.ErrInsufficientStock:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrInsufficientWalletBalance:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrPaymentVerificationFailed:
		c.JSON(http.StatusBadRequest, gin.H{"error": e.Error()})
	case *errors.ErrOrderNotCancellable:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrInvalidStateTransition:
		c.JSON(http.StatusConflict, gin.H{"error": e.Error()})
	case *errors.ErrExternalService:
		logger.Error("External service failure", zap.String("service", e.Service), zap.Error(e.Err))
		c.JSON(http.StatusBadGateway, gin.H{"error": e.Service + " is unavailable"})
	default:
		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error":   "validation failed",
		"details": err.Error(),
	})
}

func uuidParam(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return uuid.Nil, false
	}
	return id, true
}
