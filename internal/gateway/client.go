package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/config"
	"github.com/anvika-shop/storefront/pkg/errors"
)

// Client is the HTTP implementation of Gateway, authenticated with basic
// auth over the key pair.
type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new payment gateway client
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type orderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type refundResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string) (*PaymentIntent, error) {
	var resp orderResponse
	if err := c.post(ctx, "/orders", orderRequest{Amount: amountMinor, Currency: currency}, &resp); err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: resp.ID, Amount: resp.Amount, Currency: resp.Currency}, nil
}

// VerifySignature recomputes the HMAC-SHA256 of "intentID|paymentID" under
// the key secret and compares it to the client-supplied hex signature in
// constant time.
func (c *Client) VerifySignature(intentID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	fmt.Fprintf(mac, "%s|%s", intentID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) Refund(ctx context.Context, paymentID string, amountMinor int64) (*Refund, error) {
	var resp refundResponse
	err := c.post(ctx, fmt.Sprintf("/payments/%s/refund", paymentID), orderRequest{Amount: amountMinor}, &resp)
	if err != nil {
		// A payment that was already fully refunded is a success for the
		// caller: the money is back either way.
		if strings.Contains(err.Error(), "fully refunded") {
			c.logger.Info("Payment already refunded", zap.String("payment_id", paymentID))
			return &Refund{ID: "", Status: "processed"}, nil
		}
		return nil, err
	}
	return &Refund{ID: resp.ID, Status: resp.Status}, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &errors.ErrExternalService{Service: "payment gateway", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errors.ErrExternalService{Service: "payment gateway", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var gwErr errorResponse
		if json.Unmarshal(body, &gwErr) == nil && gwErr.Error.Description != "" {
			return &errors.ErrExternalService{
				Service: "payment gateway",
				Err:     fmt.Errorf("status %d: %s", resp.StatusCode, gwErr.Error.Description),
			}
		}
		return &errors.ErrExternalService{
			Service: "payment gateway",
			Err:     fmt.Errorf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &errors.ErrExternalService{Service: "payment gateway", Err: fmt.Errorf("failed to unmarshal response: %w", err)}
	}
	return nil
}
