package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"event-checkout-platform/internal/models"
	"event-checkout-platform/internal/services"
)

// OrderHandler handles order submission, retrieval and the confirmation
// session lifecycle
type OrderHandler struct {
	checkout *services.CheckoutService
	intents  *services.PaymentIntentService
	registry *services.SessionRegistry

	window        time.Duration
	sessionConfig services.SessionConfig
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(
	checkout *services.CheckoutService,
	intents *services.PaymentIntentService,
	registry *services.SessionRegistry,
	window time.Duration,
	sessionConfig services.SessionConfig,
) *OrderHandler {
	return &OrderHandler{
		checkout:      checkout,
		intents:       intents,
		registry:      registry,
		window:        window,
		sessionConfig: sessionConfig,
	}
}

// SubmitOrder handles POST /api/orders
func (h *OrderHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed request body", models.ErrInvalidInput))
		return
	}

	order, err := h.checkout.SubmitOrder(r.Context(), &req)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	detail, err := h.checkout.GetOrderDetail(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

// EnsureIntent handles POST /api/orders/{id}/pix-intent. Safe to call
// repeatedly: the first call issues the intent, later ones return it.
func (h *OrderHandler) EnsureIntent(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	intent, err := h.intents.EnsureIntent(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, intent)
}

// IntentQR handles GET /api/orders/{id}/pix-intent/qr and responds with a
// PNG of the intent's payment code
func (h *OrderHandler) IntentQR(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	intent, err := h.intents.GetIntentForOrder(id)
	if err != nil {
		respondError(w, err)
		return
	}

	size := 256
	if s := r.URL.Query().Get("size"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= 1024 {
			size = parsed
		}
	}

	png, err := h.intents.RenderQR(intent, size)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// sessionResponse is the confirmation session state shown to the buyer
type sessionResponse struct {
	OrderID          int    `json:"order_id"`
	PaymentStatus    string `json:"payment_status"`
	ExpirySource     string `json:"expiry_source"`
	ExpiresAt        string `json:"expires_at,omitempty"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// StartSession handles POST /api/orders/{id}/session. It begins the
// countdown and the confirmation polling for a pending order. Starting a
// second session for the same order replaces the first.
func (h *OrderHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	order, err := h.checkout.GetOrder(id)
	if err != nil {
		respondError(w, err)
		return
	}

	if order.PaymentStatus.IsTerminal() {
		respondError(w, fmt.Errorf("%w: order %s", models.ErrOrderTerminal, order.Code))
		return
	}

	// The intent's expiry participates in deadline resolution when one
	// exists; a missing intent is fine
	intent, err := h.intents.GetIntentForOrder(id)
	if err != nil {
		intent = nil
	}

	// A replaced session hands its already-resolved deadline to the new
	// one, so the countdown never restarts from a weaker source
	var prior []services.ExpiryCandidate
	if existing, ok := h.registry.Get(id); ok {
		if e := existing.Expiry(); e.Source != services.SourceNone {
			prior = append(prior, e)
		}
	}

	session := services.NewCheckoutSession(h.checkout, order, intent, h.window, h.sessionConfig, nil, prior...)
	h.registry.Put(session)
	// The session outlives this request, so it runs on the background
	// context and ends via its own finalization
	session.Start(context.Background())

	respondJSON(w, http.StatusCreated, h.sessionState(order, session))
}

// GetSession handles GET /api/orders/{id}/session
func (h *OrderHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	session, ok := h.registry.Get(id)
	if !ok {
		respondJSON(w, http.StatusNotFound, errorResponse{Error: "no active session for order"})
		return
	}

	order, err := h.checkout.GetOrder(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, h.sessionState(order, session))
}

// EndSession handles DELETE /api/orders/{id}/session, tearing the session
// down without touching the order
func (h *OrderHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		respondError(w, err)
		return
	}

	if session, ok := h.registry.Get(id); ok {
		session.Teardown()
	}

	respondJSON(w, http.StatusNoContent, nil)
}

func (h *OrderHandler) sessionState(order *models.Order, session *services.CheckoutSession) sessionResponse {
	resp := sessionResponse{
		OrderID:          order.ID,
		PaymentStatus:    string(order.PaymentStatus),
		ExpirySource:     session.Expiry().Source.String(),
		RemainingSeconds: int(session.Remaining().Seconds()),
	}
	if !session.Expiry().At.IsZero() {
		resp.ExpiresAt = session.Expiry().At.Format(time.RFC3339)
	}
	return resp
}

// webhookRequest is the provider's payment notification payload
type webhookRequest struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
}

// PaymentWebhook handles POST /api/webhooks/payment. Retries from the
// provider are safe: a notification for an already settled order is
// acknowledged without effect.
func (h *OrderHandler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%w: malformed webhook body", models.ErrInvalidInput))
		return
	}
	if req.IntentID == "" {
		respondError(w, fmt.Errorf("%w: intent_id is required", models.ErrInvalidInput))
		return
	}

	order, err := h.checkout.ConfirmPayment(r.Context(), req.IntentID, req.Status)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

// ListEventOrders handles GET /api/manage/events/{eventID}/orders
func (h *OrderHandler) ListEventOrders(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "eventID"))
	if err != nil || eventID <= 0 {
		respondError(w, fmt.Errorf("%w: invalid event id", models.ErrInvalidInput))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	orders, err := h.checkout.ListEventOrders(eventID, limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, orders)
}

func orderID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid order id", models.ErrInvalidInput)
	}
	return id, nil
}
