package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GatewayConfig{
		BaseURL:   srv.URL,
		KeyID:     "key_test",
		KeySecret: "secret_test",
		Currency:  "INR",
	}, zap.NewNop())
}

func TestCreatePaymentIntent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, float64(112000), req["amount"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "order_abc123", "amount": 112000, "currency": "INR",
		})
	}))

	intent, err := client.CreatePaymentIntent(context.Background(), 112000, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_abc123", intent.ID)
	assert.Equal(t, int64(112000), intent.Amount)
}

func TestCreatePaymentIntentGatewayError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "BAD_REQUEST_ERROR", "description": "amount too small"},
		})
	}))

	_, err := client.CreatePaymentIntent(context.Background(), 1, "INR")
	var extErr *errors.ErrExternalService
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "payment gateway", extErr.Service)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestVerifySignature(t *testing.T) {
	client := NewClient(config.GatewayConfig{KeySecret: "secret_test"}, zap.NewNop())

	mac := hmac.New(sha256.New, []byte("secret_test"))
	mac.Write([]byte("order_abc|pay_xyz"))
	good := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifySignature("order_abc", "pay_xyz", good))
	assert.False(t, client.VerifySignature("order_abc", "pay_xyz", "deadbeef"))
	assert.False(t, client.VerifySignature("order_other", "pay_xyz", good))
}

func TestRefund(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_xyz/refund", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"id": "rfnd_1", "status": "processed"})
	}))

	refund, err := client.Refund(context.Background(), "pay_xyz", 112000)
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", refund.ID)
	assert.Equal(t, "processed", refund.Status)
}

func TestRefundAlreadyRefunded(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{
				"code":        "BAD_REQUEST_ERROR",
				"description": "The payment has been fully refunded already",
			},
		})
	}))

	refund, err := client.Refund(context.Background(), "pay_xyz", 112000)
	require.NoError(t, err)
	assert.Equal(t, "processed", refund.Status)
}
