package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CodTeteu/luma-registry/internal/repository"
	"github.com/CodTeteu/luma-registry/internal/service"
	"github.com/CodTeteu/luma-registry/pkg/health"
	"github.com/CodTeteu/luma-registry/pkg/middleware"
)

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Gifts         repository.GiftRepository
	CartService   *service.CartService
	Checkout      *service.CheckoutService
	Orders        *service.OrderService
	Stats         *service.StatsService
	HealthHandler *health.Handler
	Logger        *slog.Logger
	CORS          middleware.CORSConfig
	PprofCIDRs    []string
}

// NewRouter creates a chi router with all registry routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("registry"))
	r.Use(middleware.Tracing("registry"))
	r.Use(middleware.RequestLogger(deps.Logger))

	// Health check endpoints
	r.Get("/health/live", deps.HealthHandler.LivenessHandler())
	r.Get("/health/ready", deps.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)

	giftHandler := NewGiftHandler(deps.Gifts, deps.Logger)
	cartHandler := NewCartHandler(deps.CartService, deps.Logger)
	checkoutHandler := NewCheckoutHandler(deps.Checkout, deps.CartService, deps.Logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Stats, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/events/{eventID}", func(r chi.Router) {
			r.Get("/gifts", giftHandler.ListGifts)

			r.Group(func(r chi.Router) {
				r.Use(SessionID)

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartHandler.GetCart)
					r.Delete("/", cartHandler.ClearCart)
					r.Post("/items", cartHandler.AddGift)
					r.Put("/items/{giftID}", cartHandler.UpdateQuantity)
					r.Delete("/items/{giftID}", cartHandler.RemoveGift)
				})

				r.Post("/checkout", checkoutHandler.Checkout)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.ListOrders)
				r.Get("/stats", orderHandler.GetStats)
				r.Get("/reference/{code}", orderHandler.GetOrderByReference)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/{id}", orderHandler.GetOrder)
			r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
		})
	})

	return r
}
