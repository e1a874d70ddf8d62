package server

import (
	"context"
	"net/http"
	"time"

	"github.com/sw33tLie/dasha/internal/utils"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/engine"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
	"github.com/sw33tLie/dasha/pkg/storage"
)

// Ephemeris resolves positions for charts submitted without them and for
// transit queries without explicit longitudes.
type Ephemeris interface {
	Natal(ctx context.Context, t time.Time, lat, lon float64) (*ephemeris.Positions, error)
	Transits(ctx context.Context, t time.Time) (*ephemeris.Positions, error)
}

type Server struct {
	DB        *storage.DB
	Engine    *engine.Engine
	Ephemeris Ephemeris // optional
	Username  string
	Password  string

	SandhiFraction float64
	YearBasis      dasha.YearBasis

	now func() time.Time
}

func New(db *storage.DB, eng *engine.Engine, user, pass string) *Server {
	return &Server{
		DB:             db,
		Engine:         eng,
		Username:       user,
		Password:       pass,
		SandhiFraction: dasha.DefaultSandhiFraction,
		YearBasis:      dasha.Gregorian,
		now:            time.Now,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/changes", s.basicAuth(s.handleChanges))
	mux.HandleFunc("GET /api/charts", s.basicAuth(s.handleListCharts))
	mux.HandleFunc("POST /api/charts", s.basicAuth(s.handleCreateChart))
	mux.HandleFunc("GET /api/charts/{id}", s.basicAuth(s.handleGetChart))
	mux.HandleFunc("DELETE /api/charts/{id}", s.basicAuth(s.handleDeleteChart))
	mux.HandleFunc("GET /api/charts/{id}/dasha/{system}", s.basicAuth(s.handleDasha))
	mux.HandleFunc("GET /api/charts/{id}/active", s.basicAuth(s.handleActive))
	mux.HandleFunc("GET /api/charts/{id}/applicability", s.basicAuth(s.handleApplicability))
	mux.HandleFunc("GET /api/charts/{id}/sudarshana", s.basicAuth(s.handleSudarshana))
	mux.HandleFunc("POST /api/charts/{id}/transit", s.basicAuth(s.handleTransit))

	return mux
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
