package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"event-checkout-platform/internal/models"
)

// AccountServiceConfig represents the account-profile service configuration
type AccountServiceConfig struct {
	BaseURL string
	APIKey  string
}

// AccountService is the HTTP client for the external account-profile
// service
type AccountService struct {
	config AccountServiceConfig
	client *http.Client
}

// NewAccountService creates a new account service client
func NewAccountService(config AccountServiceConfig) *AccountService {
	return &AccountService{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// GetSettings fetches the stored profile fields for an account
func (s *AccountService) GetSettings(ctx context.Context, email string) (map[string]string, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts/settings?email=%s", s.config.BaseURL, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("account service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read account response: %w", err)
	}

	var settings map[string]string
	if err := json.Unmarshal(body, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode account response: %w", err)
	}

	return settings, nil
}

// UpdateSettings patches the given profile fields for an account
func (s *AccountService) UpdateSettings(ctx context.Context, email string, fields map[string]string) error {
	endpoint := fmt.Sprintf("%s/v1/accounts/settings?email=%s", s.config.BaseURL, url.QueryEscape(email))

	jsonData, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("account service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("account service returned status %d", resp.StatusCode)
	}

	return nil
}

// ProfileAutosaver persists the buyer's contact fields back to the account
// service after a successful submission. It runs on a best-effort basis:
// failures are logged and never surfaced to the checkout flow.
type ProfileAutosaver struct {
	accounts AccountClient
	timeout  time.Duration
}

// NewProfileAutosaver creates a new profile autosaver
func NewProfileAutosaver(accounts AccountClient) *ProfileAutosaver {
	return &ProfileAutosaver{
		accounts: accounts,
		timeout:  10 * time.Second,
	}
}

// profileFields maps buyer form fields to their account-service keys
func profileFields(buyer *models.Buyer) map[string]string {
	return map[string]string{
		"name":        buyer.Name,
		"surname":     buyer.Surname,
		"tax_id":      buyer.TaxID,
		"phone":       buyer.Phone,
		"postal_code": buyer.PostalCode,
	}
}

// SaveInBackground fills in the profile fields the stored account is
// missing, on a detached goroutine with its own deadline. Fields already
// present on the profile are left alone, even when the buyer typed
// something different at checkout. The caller never waits on or learns
// about the result.
func (p *ProfileAutosaver) SaveInBackground(buyer models.Buyer) {
	if p.accounts == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		if err := p.save(ctx, &buyer); err != nil {
			log.Printf("Warning: profile autosave failed for %s: %v", buyer.Email, err)
		}
	}()
}

func (p *ProfileAutosaver) save(ctx context.Context, buyer *models.Buyer) error {
	current, err := p.accounts.GetSettings(ctx, buyer.Email)
	if err != nil {
		return fmt.Errorf("failed to load current profile: %w", err)
	}

	missing := make(map[string]string)
	for key, value := range profileFields(buyer) {
		if value != "" && current[key] == "" {
			missing[key] = value
		}
	}

	if len(missing) == 0 {
		return nil
	}

	if err := p.accounts.UpdateSettings(ctx, buyer.Email, missing); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
