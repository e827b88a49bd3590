package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"event-checkout-platform/internal/config"
	"event-checkout-platform/internal/database"
	"event-checkout-platform/internal/handlers"
	"event-checkout-platform/internal/middleware"
	"event-checkout-platform/internal/services"
)

// Dependencies carries everything the router needs
type Dependencies struct {
	Config   *config.Config
	DB       *database.DB
	Checkout *services.CheckoutService
	Intents  *services.PaymentIntentService
	Coupons  *services.CouponService
	Registry *services.SessionRegistry
	Holds    *services.InventoryHolds // nil when Redis is not configured
}

// NewRouter builds the HTTP routing tree
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.ErrorHandlingMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	sessionConfig := services.SessionConfig{
		TickInterval: deps.Config.Reservation.TickInterval,
		PollInterval: deps.Config.Reservation.PollInterval,
	}

	orderHandler := handlers.NewOrderHandler(deps.Checkout, deps.Intents, deps.Registry, deps.Config.Reservation.Window, sessionConfig)
	couponHandler := handlers.NewCouponHandler(deps.Checkout, deps.Coupons)
	inventoryHandler := handlers.NewInventoryHandler(deps.Holds)
	healthHandler := handlers.NewHealthHandler(deps.DB)

	webhookLimiter := middleware.NewRateLimiter(120, time.Minute)
	submitLimiter := middleware.NewRateLimiter(30, time.Minute)

	r.Get("/health", healthHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(submitLimiter.Middleware).Post("/", orderHandler.SubmitOrder)
			r.Get("/{id}", orderHandler.GetOrder)
			r.Post("/{id}/pix-intent", orderHandler.EnsureIntent)
			r.Get("/{id}/pix-intent/qr", orderHandler.IntentQR)
			r.Post("/{id}/session", orderHandler.StartSession)
			r.Get("/{id}/session", orderHandler.GetSession)
			r.Delete("/{id}/session", orderHandler.EndSession)
		})

		r.Post("/coupons/preview", couponHandler.Preview)

		r.With(webhookLimiter.Middleware).Post("/webhooks/payment", orderHandler.PaymentWebhook)

		// Management routes require a bearer token
		r.Route("/manage", func(r chi.Router) {
			auth := middleware.NewJWTAuth(deps.Config.Auth.JWTSecret)
			r.Use(auth.Middleware)

			r.Post("/coupons", couponHandler.Create)
			r.Put("/coupons/{id}", couponHandler.Update)
			r.Patch("/coupons/{id}/active", couponHandler.SetActive)
			r.Get("/events/{eventID}/coupons", couponHandler.ListByEvent)
			r.Get("/events/{eventID}/orders", orderHandler.ListEventOrders)

			r.Put("/inventory", inventoryHandler.Seed)
			r.Get("/inventory", inventoryHandler.Availability)
		})
	})

	return r
}
