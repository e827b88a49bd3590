package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"event-checkout-platform/internal/models"
)

// ProviderConfig represents the payment provider configuration
type ProviderConfig struct {
	BaseURL     string
	APIKey      string
	Environment string // "test" or "live"
}

// ProviderService talks to the opaque payment provider over HTTP. Card
// charges settle synchronously; PIX intents come back pending and are
// confirmed later through the provider webhook.
type ProviderService struct {
	config ProviderConfig
	client *http.Client
}

// NewProviderService creates a new payment provider client
func NewProviderService(config ProviderConfig) *ProviderService {
	return &ProviderService{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// cardChargeRequest is the provider payload for a synchronous card charge
type cardChargeRequest struct {
	Reference string `json:"reference"`
	Amount    int    `json:"amount"` // in cents
	Email     string `json:"email"`
	Currency  string `json:"currency"`
}

// cardChargeResponse is the provider's answer to a card charge
type cardChargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "approved" or "declined"
	Reason string `json:"reason"`
}

// pixIntentRequest is the provider payload for issuing a PIX code
type pixIntentRequest struct {
	Reference        string `json:"reference"`
	Amount           int    `json:"amount"`
	Email            string `json:"email"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

// pixIntentResponse carries the provider-issued PIX artifact
type pixIntentResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"` // opaque copy-paste payload, also QR-encoded
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// providerError represents an error response from the provider
type providerError struct {
	Message string `json:"message"`
}

// ChargeCard performs a synchronous card charge for the order
func (s *ProviderService) ChargeCard(ctx context.Context, order *models.Order) (*CardChargeResult, error) {
	reqBody := cardChargeRequest{
		Reference: order.Code,
		Amount:    order.TotalAmount,
		Email:     order.BuyerEmail,
		Currency:  "BRL",
	}

	var resp cardChargeResponse
	if err := s.post(ctx, "/v1/charges", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("card charge failed: %w", err)
	}

	return &CardChargeResult{
		Approved:  resp.Status == "approved",
		Reference: resp.ID,
		Reason:    resp.Reason,
	}, nil
}

// CreatePixIntent asks the provider for a PIX payment channel tied to the
// order
func (s *ProviderService) CreatePixIntent(ctx context.Context, order *models.Order) (*models.PaymentIntent, error) {
	expiresIn := 0
	if order.ReservationExpiresAt != nil {
		expiresIn = int(time.Until(*order.ReservationExpiresAt).Seconds())
	}

	reqBody := pixIntentRequest{
		Reference:        order.Code,
		Amount:           order.TotalAmount,
		Email:            order.BuyerEmail,
		ExpiresInSeconds: expiresIn,
	}

	var resp pixIntentResponse
	if err := s.post(ctx, "/v1/pix/intents", reqBody, &resp); err != nil {
		return nil, fmt.Errorf("pix intent creation failed: %w", err)
	}

	return &models.PaymentIntent{
		ID:        resp.ID,
		OrderID:   order.ID,
		Provider:  "pix",
		Code:      resp.Code,
		Status:    resp.Status,
		ExpiresAt: resp.ExpiresAt,
		CreatedAt: time.Now(),
	}, nil
}

func (s *ProviderService) post(ctx context.Context, path string, body, out any) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var provErr providerError
		if err := json.Unmarshal(respBody, &provErr); err == nil && provErr.Message != "" {
			return fmt.Errorf("provider returned %d: %s", resp.StatusCode, provErr.Message)
		}
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}

	return nil
}
