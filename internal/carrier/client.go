package carrier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// The aggregator issues bearer tokens valid for ten days; refresh a little
// early so in-flight requests never carry an expired one.
const tokenTTL = 9 * 24 * time.Hour

// Client is the HTTP implementation of Carrier. Auth tokens are fetched
// lazily on first use and cached until close to expiry.
type Client struct {
	baseURL        string
	email          string
	password       string
	pickupLocation string
	pickupPostcode string
	httpClient     *http.Client
	logger         *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a new carrier client
func NewClient(cfg config.CarrierConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		email:          cfg.Email,
		password:       cfg.Password,
		pickupLocation: cfg.PickupLocation,
		pickupPostcode: cfg.PickupPostcode,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	payload, _ := json.Marshal(map[string]string{
		"email":    c.email,
		"password": c.password,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/auth/login", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &errors.ErrExternalService{Service: "carrier", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errors.ErrExternalService{Service: "carrier", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &errors.ErrExternalService{
			Service: "carrier",
			Err:     fmt.Errorf("login failed: status %d, body: %s", resp.StatusCode, string(body)),
		}
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &loginResp); err != nil || loginResp.Token == "" {
		return "", &errors.ErrExternalService{Service: "carrier", Err: fmt.Errorf("login response missing token")}
	}

	c.token = loginResp.Token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	c.logger.Info("Carrier token refreshed", zap.Time("expires_at", c.tokenExpiry))
	return c.token, nil
}

func (c *Client) CreateShipment(ctx context.Context, shipReq ShipmentRequest) (*Shipment, error) {
	items := make([]map[string]interface{}, 0, len(shipReq.Items))
	for _, item := range shipReq.Items {
		items = append(items, map[string]interface{}{
			"name":          item.Name,
			"sku":           item.SKU,
			"units":         item.Units,
			"selling_price": item.UnitPrice,
		})
	}

	payload := map[string]interface{}{
		"order_id":          shipReq.OrderRef,
		"order_date":        time.Now().Format("2006-01-02 15:04"),
		"pickup_location":   c.pickupLocation,
		"billing_customer_name": shipReq.CustomerName,
		"billing_address":   shipReq.AddressLine,
		"billing_city":      shipReq.City,
		"billing_state":     shipReq.State,
		"billing_pincode":   shipReq.Postcode,
		"billing_country":   shipReq.Country,
		"billing_email":     shipReq.CustomerEmail,
		"billing_phone":     shipReq.CustomerPhone,
		"shipping_is_billing": true,
		"order_items":       items,
		"payment_method":    shipReq.PaymentMethod,
		"sub_total":         shipReq.SubtotalRupees,
		"weight":            shipReq.WeightKg,
		"length":            shipReq.LengthCm,
		"breadth":           shipReq.BreadthCm,
		"height":            shipReq.HeightCm,
	}

	var resp struct {
		OrderID    json.Number `json:"order_id"`
		ShipmentID json.Number `json:"shipment_id"`
	}
	if err := c.do(ctx, "POST", "/orders/create/adhoc", payload, &resp); err != nil {
		return nil, err
	}
	if resp.ShipmentID.String() == "" {
		return nil, &errors.ErrExternalService{Service: "carrier", Err: fmt.Errorf("shipment not created for order %s", shipReq.OrderRef)}
	}
	return &Shipment{
		CarrierOrderID: resp.OrderID.String(),
		ShipmentID:     resp.ShipmentID.String(),
	}, nil
}

func (c *Client) AssignWaybill(ctx context.Context, shipmentID string) (*Waybill, error) {
	var resp struct {
		Response struct {
			Data struct {
				AWBCode     string `json:"awb_code"`
				CourierName string `json:"courier_name"`
			} `json:"data"`
		} `json:"response"`
	}
	payload := map[string]string{"shipment_id": shipmentID}
	if err := c.do(ctx, "POST", "/courier/assign/awb", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Response.Data.AWBCode == "" {
		return nil, &errors.ErrExternalService{Service: "carrier", Err: fmt.Errorf("no courier assigned for shipment %s", shipmentID)}
	}
	return &Waybill{
		AWB:         resp.Response.Data.AWBCode,
		CourierName: resp.Response.Data.CourierName,
		TrackingURL: "https://shiprocket.co/tracking/" + resp.Response.Data.AWBCode,
	}, nil
}

func (c *Client) SchedulePickup(ctx context.Context, shipmentID string) error {
	payload := map[string]interface{}{"shipment_id": []string{shipmentID}}
	var resp struct {
		PickupStatus int `json:"pickup_status"`
	}
	return c.do(ctx, "POST", "/courier/generate/pickup", payload, &resp)
}

func (c *Client) Track(ctx context.Context, awb string) (*TrackingInfo, error) {
	var resp struct {
		TrackingData struct {
			ShipmentTrack []struct {
				CurrentStatus string `json:"current_status"`
			} `json:"shipment_track"`
			ShipmentTrackActivities []struct {
				Status   string `json:"sr-status-label"`
				Location string `json:"location"`
				Date     string `json:"date"`
			} `json:"shipment_track_activities"`
		} `json:"tracking_data"`
	}
	if err := c.do(ctx, "GET", "/courier/track/awb/"+awb, nil, &resp); err != nil {
		return nil, err
	}

	info := &TrackingInfo{}
	if len(resp.TrackingData.ShipmentTrack) > 0 {
		info.CurrentStatus = resp.TrackingData.ShipmentTrack[0].CurrentStatus
	}
	for _, act := range resp.TrackingData.ShipmentTrackActivities {
		info.Events = append(info.Events, TrackingEvent{
			Status:   act.Status,
			Location: act.Location,
			Date:     act.Date,
		})
	}
	return info, nil
}

func (c *Client) Serviceability(ctx context.Context, deliveryPostcode string, weightKg float64, cod bool) ([]CourierOption, error) {
	codFlag := "0"
	if cod {
		codFlag = "1"
	}
	query := url.Values{
		"pickup_postcode":   {c.pickupPostcode},
		"delivery_postcode": {deliveryPostcode},
		"weight":            {fmt.Sprintf("%g", weightKg)},
		"cod":               {codFlag},
	}

	var resp struct {
		Data struct {
			AvailableCourierCompanies []struct {
				CourierName  string      `json:"courier_name"`
				Rate         json.Number `json:"rate"`
				EstimatedDays string     `json:"estimated_delivery_days"`
			} `json:"available_courier_companies"`
		} `json:"data"`
	}
	if err := c.do(ctx, "GET", "/courier/serviceability?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	options := make([]CourierOption, 0, len(resp.Data.AvailableCourierCompanies))
	for _, company := range resp.Data.AvailableCourierCompanies {
		rate, err := decimalFromNumber(company.Rate)
		if err != nil {
			continue
		}
		options = append(options, CourierOption{
			Name:          company.CourierName,
			Rate:          rate,
			EstimatedDays: company.EstimatedDays,
		})
	}
	return options, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	token, err := c.getToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.ErrExternalService{Service: "carrier", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.ErrExternalService{Service: "carrier", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &errors.ErrExternalService{
			Service: "carrier",
			Err:     fmt.Errorf("status %d, body: %s", resp.StatusCode, string(respBody)),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &errors.ErrExternalService{Service: "carrier", Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	return nil
}

func decimalFromNumber(n json.Number) (decimal.Decimal, error) {
	return decimal.NewFromString(n.String())
}
