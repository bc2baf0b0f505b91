package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/api/middleware"
	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository"
	"github.com/anvika-shop/storefront/internal/service"
)

func HandleListAddresses(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)
		addrs, err := store.Repos().Users.ListAddresses(c.Request.Context(), user.ID)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := make([]addressResponse, 0, len(addrs))
		for i := range addrs {
			resp = append(resp, toAddressResponse(&addrs[i]))
		}
		c.JSON(http.StatusOK, gin.H{"addresses": resp})
	}
}

func HandleAddAddress(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

		var req service.AddAddressRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			bindError(c, err)
			return
		}

		addr := &domain.Address{
			UserID:     user.ID,
			FullName:   req.FullName,
			Phone:      req.Phone,
			Street:     req.Street,
			City:       req.City,
			State:      req.State,
			PostalCode: req.PostalCode,
			Country:    req.Country,
			Type:       req.Type,
		}
		if err := store.Repos().Users.AddAddress(c.Request.Context(), addr); err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusCreated, toAddressResponse(addr))
	}
}

// HandleGetWallet returns the caller's point balance alongside the active
// redemption and reward configuration.
func HandleGetWallet(store repository.Store, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := middleware.GetUserFromContext(c)

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
			"balance":          user.WalletPoints,
			"rupees_per_point": cfg.RupeesPerPoint,
			"reward_rules":     rules,
		})
	}
}
