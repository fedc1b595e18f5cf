package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"storefront/internal/auth"
	redisrepo "storefront/internal/repository/redis"
	"storefront/internal/util"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	User      *UserHandler
	Product   *ProductHandler
	Order     *OrderHandler
	Payment   *PaymentHandler
	Review    *ReviewHandler
	Contact   *ContactHandler
	Dashboard *DashboardHandler
}

// NewRouter configures the chi router with the middleware stack and all
// routes.
func NewRouter(h *Handlers, tokens *auth.TokenManager, limiter redisrepo.RateLimiter, logger *zap.Logger) chi.Router {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggerMiddleware(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"storefront"}`))
	})

	requireAuth := RequireAuth(tokens)

	router.Route("/api", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				// Login and code endpoints are brute-force targets
				r.Use(RateLimit(limiter, "user", 20, time.Minute))
				h.User.RegisterPublicRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				h.User.RegisterProtectedRoutes(r)
			})
		})

		r.Route("/product", func(r chi.Router) {
			h.Product.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, RequireAdmin)
				h.Product.RegisterAdminRoutes(r)
			})
		})

		r.Route("/order", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				h.Order.RegisterProtectedRoutes(r)
			})
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAuth, RequireAdmin)
				h.Order.RegisterAdminRoutes(r)
			})
		})

		r.Route("/payment", func(r chi.Router) {
			h.Payment.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				h.Payment.RegisterProtectedRoutes(r)
			})
		})

		r.Route("/review", func(r chi.Router) {
			h.Review.RegisterPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				h.Review.RegisterProtectedRoutes(r)
			})
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAuth, RequireAdmin)
				h.Review.RegisterAdminRoutes(r)
			})
		})

		r.Route("/contact", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(RateLimit(limiter, "contact", 10, time.Minute))
				h.Contact.RegisterPublicRoutes(r)
			})
			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAuth, RequireAdmin)
				h.Contact.RegisterAdminRoutes(r)
			})
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(requireAuth, RequireAdmin)
			h.Dashboard.RegisterAdminRoutes(r)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":"endpoint not found"}`))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMethodNotAllowed)
		w.Write([]byte(`{"success":false,"error":"method not allowed"}`))
	})

	return router
}

// LoggerMiddleware logs every request with status and duration.
func LoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			defer func() {
				logger.Info("HTTP request",
					util.String("method", r.Method),
					util.String("path", r.URL.Path),
					util.String("remote_addr", r.RemoteAddr),
					util.Int("status", ww.Status()),
					util.Duration("duration", time.Since(start)),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
