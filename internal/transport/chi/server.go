package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/stylesearch/internal/domain"
	logpkg "github.com/kailas-cloud/stylesearch/internal/logger"
	"github.com/kailas-cloud/stylesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the style catalog and search API.
type Server struct {
	styles        StyleStore
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(styles StyleStore, search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		styles: styles,
		search: search,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrInvalidStyle, http.StatusBadRequest),
		sentinelHandler(domain.ErrStyleNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusInternalServerError),
	}
	return s
}

// Router builds the chi router with the middleware chain. Empty apiKeys disables auth.
func (s *Server) Router(apiKeys []string) http.Handler {
	r := chirouter.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api/v1", func(r chirouter.Router) {
		r.Post("/search", s.Search)

		r.Route("/styles", func(r chirouter.Router) {
			r.Post("/", s.CreateStyle)
			r.Get("/", s.ListStyles)
			r.Route("/{id}", func(r chirouter.Router) {
				r.Get("/", s.GetStyle)
				r.Put("/", s.UpdateStyle)
				r.Delete("/", s.DeleteStyle)
				r.Put("/tags", s.SetTags)
				r.Post("/tags", s.AddTags)
				r.Delete("/tags", s.RemoveTags)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]healthCheckJSON, len(report.Checks))
	for name, c := range report.Checks {
		item := healthCheckJSON{Status: string(c.Result), Detail: c.Detail, LatencyMS: c.Duration.Milliseconds()}
		if c.Err != nil {
			item.Error = c.Err.Error()
		}
		checks[name] = item
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthJSON{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorJSON{Error: message})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry their full text since it only describes caller input.
func safeDomainMessage(err error) string {
	for _, s := range []error{domain.ErrInvalidQuery, domain.ErrInvalidStyle} {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, s := range []error{domain.ErrStyleNotFound, domain.ErrStoreUnavailable} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
