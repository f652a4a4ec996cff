package router

import (
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/handler"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/adapter/http/middleware"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Config carries the handlers and policies the router mounts.
type Config struct {
	Listings  *handler.ListingHandler
	Accounts  *handler.AccountHandler
	Media     *handler.MediaHandler
	JWTSecret string

	// UploadLimiter and UpdateLimiter may be nil to disable limiting.
	UploadLimiter *middleware.RateLimiter
	UpdateLimiter *middleware.RateLimiter

	Metrics *metrics.MetricsManager
	Logger  *logger.Logger

	// ServiceName labels server spans. TracerProvider and Propagator
	// default to the otel globals.
	ServiceName    string
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

func tracing(cfg Config) func(http.Handler) http.Handler {
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.Propagator != nil {
		opts = append(opts, otelhttp.WithPropagators(cfg.Propagator))
	}
	name := cfg.ServiceName
	if name == "" {
		name = "http"
	}
	return middleware.Tracing(name, opts...)
}

func limit(l *middleware.RateLimiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return l.Handler
}

// New builds the service's HTTP routes.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(tracing(cfg))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	r.Use(chimw.Timeout(60 * time.Second))

	auth := middleware.JWTAuth(cfg.JWTSecret, cfg.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/media", func(r chi.Router) {
		r.With(auth, middleware.RequireAdmin).Delete("/admin/cleanup", cfg.Media.HandleCleanup)
		r.Get("/{proxyId}", cfg.Media.HandleServe)
	})

	r.Route("/houses", func(r chi.Router) {
		r.Get("/search/result", cfg.Listings.HandleSearch)
		r.Get("/homeTypes/enumValues", cfg.Listings.HandleHomeTypes)
		r.Get("/enumValues/features", cfg.Listings.HandleFeatures)
		r.Get("/{handle}", cfg.Listings.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(auth)
			r.With(limit(cfg.UploadLimiter)).Post("/new", cfg.Listings.HandleCreate)
			r.With(limit(cfg.UpdateLimiter)).Put("/{handle}/update", cfg.Listings.HandleUpdate)
			r.Delete("/{handle}/delete", cfg.Listings.HandleDelete)
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(auth)
		r.Get("/profile", cfg.Accounts.HandleProfile)
		r.With(limit(cfg.UpdateLimiter)).Put("/profile", cfg.Accounts.HandleUpdateProfile)
		r.With(limit(cfg.UploadLimiter)).Put("/profile/picture", cfg.Accounts.HandleUploadPicture)
		r.Delete("/profile/picture", cfg.Accounts.HandleResetPicture)
		r.Post("/favorites/{handle}", cfg.Accounts.HandleAddFavorite)
		r.Delete("/favorites/{handle}", cfg.Accounts.HandleRemoveFavorite)
		r.Delete("/delete", cfg.Accounts.HandleDeleteSelf)
		r.With(middleware.RequireAdmin).Delete("/users/{handle}", cfg.Accounts.HandleDeleteUser)
	})

	return r
}
