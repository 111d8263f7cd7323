package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Server struct{ mux *chi.Mux }

// New builds the router. timeout bounds every request and must exceed the
// recommender timeout, since a send waits for the upstream reply.
func New(timeout time.Duration) *Server {
	m := chi.NewRouter()

	// all middlewares go here, before any routes are added
	m.Use(chimw.RealIP)
	m.Use(chimw.RequestID)
	m.Use(Access(log.Logger)) // outside Recoverer and Timeout so it sees their 500/503
	m.Use(chimw.Recoverer)
	m.Use(Timeout(timeout))

	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches any extra handler (e.g., /metrics) to the router.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
