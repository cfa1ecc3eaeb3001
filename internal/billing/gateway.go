package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Order is the payment-gateway order handle returned to the client verbatim.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Gateway creates orders with an external card processor. Signature
// verification of the resulting payment happens locally with the shared
// secret and does not go through this interface.
type Gateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)
}

// HTTPGateway talks to a Razorpay-compatible orders API using basic auth.
type HTTPGateway struct {
	keyID     string
	keySecret string
	baseURL   string
	client    *http.Client
}

// NewHTTPGateway builds the production gateway connector.
func NewHTTPGateway(keyID, keySecret string) *HTTPGateway {
	return &HTTPGateway{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   "https://api.razorpay.com/v1",
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order for the amount in minor units and returns
// the gateway's handle.
func (g *HTTPGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error) {
	payload, err := json.Marshal(createOrderRequest{Amount: amount, Currency: currency, Receipt: receipt})
	if err != nil {
		return Order{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return Order{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return Order{}, fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Order{}, fmt.Errorf("create order: gateway returned %d", resp.StatusCode)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, fmt.Errorf("decode order: %w", err)
	}
	return order, nil
}

// StaticGateway simulates a successful gateway integration for tests and
// local development.
type StaticGateway struct{}

// CreateOrder approves the order with a synthetic handle.
func (StaticGateway) CreateOrder(_ context.Context, amount int64, currency, receipt string) (Order, error) {
	return Order{ID: "order_" + uuid.NewString(), Amount: amount, Currency: currency, Receipt: receipt}, nil
}
