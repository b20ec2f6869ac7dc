package routes

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"questhub/gateway/middleware"
)

// ServiceRoute mounts a path prefix proxied to the RPC node.
type ServiceRoute struct {
	Name           string
	Prefix         string
	Target         *url.URL
	RequireAuth    bool
	RequiredScopes []string
	RateLimitKey   string
}

type Config struct {
	Routes        []ServiceRoute
	Authenticator *middleware.Authenticator
	RateLimiter   *middleware.RateLimiter
}

// New builds the gateway handler: health and metrics endpoints plus the
// authenticated, rate-limited proxy routes in front of the RPC node.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	for _, route := range cfg.Routes {
		proxy := NewProxy(route.Target, route.Prefix)
		route := route
		r.Route(route.Prefix, func(sr chi.Router) {
			if cfg.RateLimiter != nil && route.RateLimitKey != "" {
				sr.Use(cfg.RateLimiter.Middleware(route.RateLimitKey))
			}
			if cfg.Authenticator != nil && route.RequireAuth {
				sr.Use(cfg.Authenticator.Middleware(route.RequiredScopes...))
			}
			sr.Handle("/*", proxy)
			sr.Handle("/", proxy)
		})
	}
	return r
}
