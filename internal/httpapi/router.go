// Package httpapi implements the HTTP transport named in spec.md §6 and
// promoted to a real (not illustrative) component by SPEC_FULL.md §4.9:
// route dispatch, request validation, and response mapping over
// internal/registry, using github.com/go-chi/chi/v5.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cerplabs/quiver/internal/registry"
	"github.com/cerplabs/quiver/pkg/version"
)

// Server wires the registry to a chi router.
type Server struct {
	registry  *registry.Registry
	logger    *slog.Logger
	startedAt time.Time
}

// NewServer constructs a Server over reg.
func NewServer(reg *registry.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{registry: reg, logger: logger, startedAt: time.Now()}
}

// Handler builds the complete route table of spec.md §6.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/stats", s.handleStats)

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", s.handleListCollections)
		r.Post("/", s.handleCreateCollection)

		r.Route("/{name}", func(r chi.Router) {
			r.Delete("/", s.handleDropCollection)
			r.Post("/search", s.handleSearch)

			r.Route("/docs", func(r chi.Router) {
				r.Post("/", s.handleAddDocument)
				r.Get("/{id}", s.handleGetDocument)
				r.Put("/{id}", s.handleUpdateDocument)
				r.Delete("/{id}", s.handleDeleteDocument)
			})
		})
	})

	return r
}

// requestLogger emits one structured log record per request, the way
// the teacher's server loop logs every MCP call (SPEC_FULL.md §9).
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

var buildVersion = version.Version
