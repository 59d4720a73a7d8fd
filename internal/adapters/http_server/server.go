package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestTimeout caps every API request, geocoding retries included.
const RequestTimeout = 15 * time.Second

type Server struct{ mux *chi.Mux }

// New builds the router; RealIP runs first so access logs carry the client address.
func New(l zerolog.Logger) *Server {
	m := chi.NewRouter()
	m.Use(chimw.RealIP, chimw.RequestID, Access(l), chimw.Recoverer, Timeout(RequestTimeout))

	m.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusNotFound, "Not Found", "no route for "+r.URL.Path)
	})
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", r.Method+" is not supported here")
	})
	return &Server{mux: m}
}

func (s *Server) Mux() http.Handler { return s.mux }

// Mount attaches an extra handler such as /metrics.
func (s *Server) Mount(path string, h http.Handler) {
	s.mux.Handle(path, h)
}
