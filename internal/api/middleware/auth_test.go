package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anvika-shop/storefront/internal/domain"
	"github.com/anvika-shop/storefront/internal/repository/memory"
)

func newAuthRouter(t *testing.T, store *memory.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthMiddleware(store, zap.NewNop()))
	router.GET("/me", func(c *gin.Context) {
		user, ok := GetUserFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"email": user.Email})
	})
	router.GET("/admin", AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func seedAuthUser(t *testing.T, store *memory.Store, token string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{
		Email:        string(role) + "@example.com",
		FullName:     "Auth Test",
		Role:         role,
		APITokenHash: string(hash),
		IsActive:     true,
	}
	require.NoError(t, store.Repos().Users.Create(context.Background(), user))
	return user
}

func TestAuthMiddleware(t *testing.T) {
	store := memory.NewStore()
	seedAuthUser(t, store, "secret-token", domain.RoleUser)
	router := newAuthRouter(t, store)

	// No header.
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Wrong token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer nope")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Valid token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user@example.com")
}

func TestAdminOnly(t *testing.T) {
	store := memory.NewStore()
	seedAuthUser(t, store, "user-token", domain.RoleUser)
	seedAuthUser(t, store, "admin-token", domain.RoleAdmin)
	router := newAuthRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInactiveUserRejected(t *testing.T) {
	store := memory.NewStore()
	user := seedAuthUser(t, store, "secret-token", domain.RoleUser)
	user.IsActive = false
	require.NoError(t, store.Repos().Users.Create(context.Background(), user))
	router := newAuthRouter(t, store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
