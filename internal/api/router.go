package api

import (
	"net/http"

	"github.com/aaravmahajanofficial/cart-service/internal/api/handlers"
	"github.com/aaravmahajanofficial/cart-service/internal/api/middleware"
	"github.com/aaravmahajanofficial/cart-service/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	JWTKey         []byte
}

type Handlers struct {
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Health   http.Handler
}

// NewRouter wires the public routes. Everything under /api/v1 requires a bearer token.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	auth := middleware.NewAuthMiddleware(cfg.JWTKey)

	r := chi.NewRouter()
	r.Use(chimw.Recoverer, metrics.Middleware, middleware.Logging)

	if h.Health != nil {
		r.Method(http.MethodGet, "/health", h.Health)
	}

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Authenticate)

		r.Get("/cart", h.Cart.GetCart())
		r.Delete("/cart", h.Cart.ClearCart())
		r.Post("/cart/items", h.Cart.AddItem())
		r.Delete("/cart/items/{id}", h.Cart.RemoveItem())
		r.Patch("/cart/items/{id}/increment", h.Cart.IncrementQuantity())
		r.Patch("/cart/items/{id}/decrement", h.Cart.DecrementQuantity())

		r.Post("/checkout", h.Checkout.Checkout())
	})

	traced := otelhttp.NewHandler(r, cfg.ServiceName)

	return cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	}).Handler(traced)
}
