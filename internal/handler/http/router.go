package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mahbub2001/morgan-backend/pkg/health"
	"github.com/Mahbub2001/morgan-backend/pkg/middleware"
)

// Banner is the body of GET /.
const Banner = "Ny Morgen server is running"

// RouterDeps holds everything the router mounts. Metrics and Gatherer may
// be nil in tests.
type RouterDeps struct {
	Orders         OrderService
	Reviews        ReviewService
	Users          UserService
	Products       ProductService
	Health         *health.Handler
	TokenValidator middleware.TokenValidator
	Metrics        *middleware.HTTPMetrics
	Gatherer       prometheus.Gatherer
	CORS           middleware.CORSConfig
	// RateLimiter, when set, guards the unauthenticated routes.
	RateLimiter    *middleware.RateLimiter
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter creates a chi router with all routes registered.
func NewRouter(d RouterDeps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.CORS(d.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(timeout))
	r.Use(middleware.RequestLogging(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Tracing("morgan"))
	r.Use(middleware.RequestLogger(d.Logger))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Banner))
	})

	// Health check endpoints
	if d.Health != nil {
		r.Get("/health/live", d.Health.LivenessHandler())
		r.Get("/health/ready", d.Health.ReadinessHandler())
	}
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	orders := NewOrderHandler(d.Orders, d.Logger)
	reviews := NewReviewHandler(d.Reviews, d.Logger)
	users := NewUserHandler(d.Users, d.Logger)
	products := NewProductHandler(d.Products, d.Logger)
	auth := middleware.Auth(d.TokenValidator)

	// Public
	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(d.RateLimiter.Middleware)
		}

		r.Put("/users/{email}", users.Upsert)
		r.Put("/user/{email}", users.Upsert)
		r.Post("/eligible_reviews", reviews.Eligible)
		r.Get("/products/{id}", products.GetProduct)
		r.Get("/products/{id}/reviews", reviews.ListReviews)
	})

	// Signed-in shoppers
	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Post("/orders", orders.PlaceOrder)
		// {id} is a user id on GET and an order id on PUT.
		r.Get("/orders/{id}", orders.ListUserOrders)
		r.Get("/orders/{id}/{orderId}", orders.GetOrder)
		r.Put("/orders/{id}", orders.CancelOrder)
		r.Post("/reviews", reviews.CreateReview)
	})

	// Administration
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth)
		r.Use(middleware.RequireRole(middleware.RoleAdmin))

		r.Get("/orders", orders.ListOrders)
		r.Put("/orders/bulk-update", orders.BulkUpdateStatus)
		r.Post("/products", products.CreateProduct)
		r.Put("/products/{id}/stock", products.AdjustStock)
	})

	return r
}
