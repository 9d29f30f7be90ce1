package httpapi

import (
	"net/http"

	"github.com/riskibarqy/typer-league/internal/platform/logging"
)

type RouterConfig struct {
	Logger             *logging.Logger
	CORSAllowedOrigins []string
	InternalJobToken   string
	// MetricsHandler is served on GET /metrics when set.
	MetricsHandler http.Handler
	Observer       HTTPObserver
}

func NewRouter(handler *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	routes := &routeRegistrar{mux: http.NewServeMux(), observer: cfg.Observer}
	registerSystemRoutes(routes, handler, cfg.MetricsHandler)
	registerPublicRoutes(routes, handler)
	registerInternalRoutes(routes, handler, cfg.InternalJobToken)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, routes.mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
