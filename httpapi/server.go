package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/stigctl/engine/savefile"
	"github.com/stigctl/engine/store"
)

// Server holds the dependencies every handler needs: the storage
// beginner, the savefile journal, and a base logger.
type Server struct {
	Store   store.Beginner
	Journal *savefile.Manager
	Logger  zerolog.Logger
}

// Router builds the full chi router: recovery, request-id and
// structured-logging middleware, then one route group per resource.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(s.Logger))
	r.Use(accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Post("/apply", s.handleApply)

	r.Route("/entities", func(r chi.Router) {
		r.Get("/{entity}", s.handleGetEntity)
		r.Get("/{entity}/components", s.handleListComponents)
		r.Get("/{entity}/components/{component}", s.handleGetComponent)
	})

	r.Route("/components", func(r chi.Router) {
		r.Get("/", s.handleListComponentDefinitions)
		r.Get("/{component}", s.handleGetComponentDefinition)
		r.Put("/{component}", s.handlePutComponentDefinition)
	})

	r.Route("/systems", func(r chi.Router) {
		r.Get("/{name}", s.handleGetSystem)
		r.Put("/{name}", s.handlePutSystem)
	})

	r.Route("/invariants", func(r chi.Router) {
		r.Get("/{id}", s.handleGetInvariant)
	})

	r.Get("/graph/edges", s.handleQueryEdges)

	r.Post("/bid/evaluate", s.handleEvaluateBid)

	r.Get("/healthz", s.handleHealthz)

	return r
}

// accessLog emits one structured log line per request via the
// hlog-attached logger, keyed to the request-scoped zerolog context
// hlog.NewHandler installs above it.
func accessLog(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Dur("duration", duration).
			Msg("request")
	})(next)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
