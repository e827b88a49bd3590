package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-checkout-platform/internal/models"
)

type fakeAccountClient struct {
	mu       sync.Mutex
	settings map[string]string
	updates  []map[string]string
	getErr   error
}

func (f *fakeAccountClient) GetSettings(ctx context.Context, email string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make(map[string]string, len(f.settings))
	for k, v := range f.settings {
		out[k] = v
	}
	return out, nil
}

func (f *fakeAccountClient) UpdateSettings(ctx context.Context, email string, fields map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, fields)
	if f.settings == nil {
		f.settings = make(map[string]string)
	}
	for k, v := range fields {
		f.settings[k] = v
	}
	return nil
}

func testBuyer() models.Buyer {
	return models.Buyer{
		Name:       "Maria",
		Surname:    "Silva",
		Email:      "maria@example.com",
		TaxID:      "123.456.789-00",
		Phone:      "+55 11 99999-0000",
		PostalCode: "01310-100",
	}
}

func TestAutosaverFillsOnlyMissingFields(t *testing.T) {
	// The stored phone differs from what the buyer typed at checkout; it
	// is already on the profile and must not be touched
	client := &fakeAccountClient{settings: map[string]string{
		"name":    "Maria",
		"surname": "Silva",
		"phone":   "+55 11 88888-0000",
	}}
	saver := NewProfileAutosaver(client)

	buyer := testBuyer()
	require.NoError(t, saver.save(context.Background(), &buyer))

	require.Len(t, client.updates, 1)
	patch := client.updates[0]
	assert.Equal(t, "123.456.789-00", patch["tax_id"])
	assert.Equal(t, "01310-100", patch["postal_code"])
	assert.NotContains(t, patch, "phone", "present fields keep their stored value")
	assert.NotContains(t, patch, "name")
	assert.NotContains(t, patch, "surname")

	assert.Equal(t, "+55 11 88888-0000", client.settings["phone"])
}

func TestAutosaverSkipsEmptyFields(t *testing.T) {
	client := &fakeAccountClient{settings: map[string]string{}}
	saver := NewProfileAutosaver(client)

	buyer := models.Buyer{Name: "Maria", Email: "maria@example.com"}
	require.NoError(t, saver.save(context.Background(), &buyer))

	require.Len(t, client.updates, 1)
	assert.NotContains(t, client.updates[0], "phone")
	assert.NotContains(t, client.updates[0], "tax_id")
}

func TestAutosaverNoUpdateWhenProfileComplete(t *testing.T) {
	// Every field is already on file, some with other values; a complete
	// profile means no write at all
	buyer := testBuyer()
	client := &fakeAccountClient{settings: map[string]string{
		"name":        "Maria Eduarda",
		"surname":     buyer.Surname,
		"tax_id":      buyer.TaxID,
		"phone":       "+55 11 77777-0000",
		"postal_code": buyer.PostalCode,
	}}
	saver := NewProfileAutosaver(client)

	require.NoError(t, saver.save(context.Background(), &buyer))
	assert.Empty(t, client.updates)
}

func TestAutosaverSurfacesNothingToCaller(t *testing.T) {
	client := &fakeAccountClient{getErr: errors.New("account service down")}
	saver := NewProfileAutosaver(client)

	// Fire and forget: the call never blocks or panics on failure
	saver.SaveInBackground(testBuyer())
	time.Sleep(20 * time.Millisecond)
}

func TestAutosaverNilClientIsNoop(t *testing.T) {
	saver := NewProfileAutosaver(nil)
	saver.SaveInBackground(testBuyer())
}
