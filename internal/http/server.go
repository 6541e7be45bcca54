// Package http exposes the point of sale service as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/unrolled/secure"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/middleware/security"
	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/services"
)

type Server struct {
	http.Server
	svc      *services.POSService
	validate *validator.Validate
	logger   *log.Logger
	backend  string
}

// Options tune the HTTP surface. Zero values pick defaults.
type Options struct {
	Backend        string
	RateLimit      int // requests per minute per client IP
	RequestTimeout time.Duration
	SSLRedirect    bool
	Logger         *log.Logger
}

func NewServer(addr string, svc *services.POSService, opts Options) *Server {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}

	s := &Server{
		svc:      svc,
		validate: newValidator(),
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		backend:  opts.Backend,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(log.Middleware(opts.Logger))
	r.Use(security.NewDetector().Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(securityHeaders(opts.SSLRedirect).Handler)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimiter(opts.RateLimit))

		r.Post("/cash-movements", s.handleAddCashMovement)

		r.Post("/registers", s.handleOpenRegister)
		r.Get("/registers/{id}", s.handleGetRegister)
		r.Post("/registers/{id}/close", s.handleCloseRegister)

		r.Post("/sales", s.handleAddSale)
		r.Post("/expenses", s.handleAddExpense)
		r.Post("/purchases", s.handleAddPurchase)

		r.Post("/layaways", s.handleAddLayaway)
		r.Get("/layaways/{id}", s.handleGetLayaway)
		r.Patch("/layaways/{id}", s.handleUpdateLayaway)
		r.Post("/layaways/{id}/cancel", s.handleCancelLayaway)
		r.Post("/layaways/{id}/payments", s.handleAddLayawayPayment)

		r.Post("/products", s.handleAddProduct)
		r.Put("/products/{id}", s.handleUpdateProduct)

		r.Post("/customers", s.handleAddCustomer)
		r.Put("/customers/{id}", s.handleUpdateCustomer)

		r.Get("/expense-categories", s.handleListCategories)
		r.Post("/expense-categories", s.handleAddCategory)
		r.Delete("/expense-categories/{name}", s.handleDeleteCategory)
		r.Get("/payment-methods", s.handlePaymentMethods)
		r.Post("/payment-methods", s.handleAddPaymentMethod)
		r.Put("/payment-methods/{id}", s.handleUpdatePaymentMethod)
		r.Delete("/payment-methods/{id}", s.handleDeletePaymentMethod)

		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Get("/registers", s.handleListRegisters)
			r.Get("/movements", s.handleListMovements)
			r.Get("/products", s.handleListProducts)
			r.Get("/dashboard", s.handleDashboard)
		})
	})

	s.Addr = addr
	s.Handler = r
	s.ReadHeaderTimeout = 10 * time.Second
	s.ReadTimeout = 15 * time.Second
	s.WriteTimeout = opts.RequestTimeout + 5*time.Second
	s.IdleTimeout = 60 * time.Second
	return s
}

func securityHeaders(sslRedirect bool) *secure.Secure {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		SSLRedirect:           sslRedirect,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
}

func rateLimiter(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeProblem(w, ProblemDetail{
				Title:  "Too Many Requests",
				Status: http.StatusTooManyRequests,
				Detail: "rate limit exceeded, retry later",
			})
		}),
	)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": s.backend})
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.InfoContext(ctx, "HTTP server shutting down")
	return s.Server.Shutdown(ctx)
}
