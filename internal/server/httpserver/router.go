package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/mdkeep-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Deps handler.Deps

	// Logger for request logging.
	Logger *slog.Logger

	// Observer receives per-request metrics. Nil disables request metrics.
	Observer RequestObserver

	// CORSAllowedOrigins lists origins allowed to call the API ("*" for any).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit. Zero RequestsPerSecond disables it.
	RateLimit RateLimitConfig

	// EnableAudit enables audit logging for API requests.
	EnableAudit bool
}

// probeRoutes bypass rate limiting, CORS and audit logging.
var probeRoutes = map[string]bool{
	"GET /health":  true,
	"GET /ready":   true,
	"GET /metrics": true,
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Deps.Logger == nil {
		cfg.Deps.Logger = cfg.Logger
	}

	h := handler.New(cfg.Deps)

	// Order: Recover -> RequestID -> CORS -> RateLimit -> Metrics -> Audit -> Handler
	probe := Chain(h, Recover(), RequestID(cfg.Logger))

	api := []Middleware{Recover(), RequestID(cfg.Logger)}
	if len(cfg.CORSAllowedOrigins) > 0 {
		api = append(api, CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		api = append(api, RateLimit(cfg.RateLimit))
	}
	if cfg.Observer != nil {
		api = append(api, Metrics(cfg.Observer))
	}
	if cfg.EnableAudit {
		api = append(api, Audit())
	}
	business := Chain(h, api...)

	mux := http.NewServeMux()
	for _, route := range handler.Routes() {
		if probeRoutes[route] {
			mux.Handle(route, probe)
			continue
		}
		mux.Handle(route, business)
	}

	// Preflight requests never match a method-qualified route.
	if len(cfg.CORSAllowedOrigins) > 0 {
		mux.Handle("OPTIONS /", Chain(http.NotFoundHandler(), Recover(), CORS(cfg.CORSAllowedOrigins)))
	}

	return mux
}
