package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/repository"
)

func HandleListProducts(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := store.Repos().Products.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := make([]productResponse, 0, len(products))
		for i := range products {
			resp = append(resp, toProductResponse(&products[i]))
		}
		c.JSON(http.StatusOK, gin.H{"products": resp})
	}
}

func HandleGetProduct(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		product, err := store.Repos().Products.GetBySlug(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, toProductResponse(product))
	}
}
