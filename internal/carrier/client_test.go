package carrier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
)

func TestTokenCachedAcrossCalls(t *testing.T) {
	logins := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		logins++
		json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
	})
	mux.HandleFunc("/courier/generate/pickup", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]int{"pickup_status": 1})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(config.CarrierConfig{BaseURL: srv.URL, Email: "x", Password: "y"}, zap.NewNop())

	require.NoError(t, client.SchedulePickup(context.Background(), "101"))
	require.NoError(t, client.SchedulePickup(context.Background(), "102"))
	assert.Equal(t, 1, logins)
}

func TestAssignWaybill(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
	})
	mux.HandleFunc("/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "555", req["shipment_id"])
		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": map[string]interface{}{
				"data": map[string]string{"awb_code": "AWB001", "courier_name": "Delhivery"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(config.CarrierConfig{BaseURL: srv.URL}, zap.NewNop())

	waybill, err := client.AssignWaybill(context.Background(), "555")
	require.NoError(t, err)
	assert.Equal(t, "AWB001", waybill.AWB)
	assert.Equal(t, "Delhivery", waybill.CourierName)
	assert.Contains(t, waybill.TrackingURL, "AWB001")
}

func TestAssignWaybillNoCourier(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok123"})
	})
	mux.HandleFunc("/courier/assign/awb", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"response": map[string]interface{}{}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(config.CarrierConfig{BaseURL: srv.URL}, zap.NewNop())

	_, err := client.AssignWaybill(context.Background(), "555")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no courier assigned")
}
