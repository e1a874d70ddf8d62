package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/sw33tLie/dasha/internal/utils"
	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
	"github.com/sw33tLie/dasha/pkg/storage"
	"github.com/sw33tLie/dasha/pkg/transit"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// loadChart resolves the {id} path value by profile name or chart id.
func (s *Server) loadChart(w http.ResponseWriter, r *http.Request) (*storage.ChartRecord, bool) {
	rec, err := s.DB.GetChart(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	return rec, true
}

// instant parses the "at" query value, defaulting to now. Instants before
// birth are rejected.
func (s *Server) instant(r *http.Request, c *astro.Chart) (time.Time, error) {
	at := s.now()
	if v := r.URL.Query().Get("at"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return at, fmt.Errorf("invalid at %q: %w", v, err)
		}
		at = t
	}
	if at.Before(c.Birth.Time) {
		return at, fmt.Errorf("%w: %s precedes birth", dasha.ErrInstantOutOfRange, at.Format(time.RFC3339))
	}
	return at, nil
}

func depthParam(r *http.Request, def int) (int, error) {
	v := r.URL.Query().Get("depth")
	if v == "" {
		return def, nil
	}
	d, err := strconv.Atoi(v)
	if err != nil || d < 1 || d > 5 {
		return 0, fmt.Errorf("depth must be between 1 and 5")
	}
	return d, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DB.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleChanges(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	changes, err := s.DB.ListRecentChanges(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, changes)
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	recs, err := s.DB.ListCharts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]chartView, 0, len(recs))
	for i := range recs {
		out = append(out, newChartView(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// errUpstream marks failures of the ephemeris service.
var errUpstream = errors.New("ephemeris service failed")

// ChartRequest is the body of POST /api/charts. Positions are sidereal
// longitudes keyed by planet name; when they are omitted the configured
// ephemeris service is asked for them.
type ChartRequest struct {
	Name      string             `json:"name"`
	Time      time.Time          `json:"time"`
	Latitude  float64            `json:"latitude"`
	Longitude float64            `json:"longitude"`
	Ayanamsa  float64            `json:"ayanamsa"`
	Ascendant *float64           `json:"ascendant"`
	Positions map[string]float64 `json:"positions"`
	Sunrise   *time.Time         `json:"sunrise"`
	Sunset    *time.Time         `json:"sunset"`
}

func (s *Server) chartFromRequest(r *http.Request, req ChartRequest) (*astro.Chart, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", astro.ErrInvalidChart)
	}
	var ps *ephemeris.Positions
	if len(req.Positions) == 0 {
		if s.Ephemeris == nil {
			return nil, fmt.Errorf("%w: positions are required", astro.ErrInvalidChart)
		}
		fetched, err := s.Ephemeris.Natal(r.Context(), req.Time, req.Latitude, req.Longitude)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errUpstream, err)
		}
		ps = fetched
	} else {
		ps = &ephemeris.Positions{Ayanamsa: req.Ayanamsa, Longitudes: make(map[astro.Planet]float64)}
		for name, lon := range req.Positions {
			p, err := astro.ParsePlanet(name)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", astro.ErrInvalidChart, err)
			}
			ps.Longitudes[p] = lon
		}
	}
	if req.Ascendant != nil {
		ps.Ascendant, ps.HasAscendant = *req.Ascendant, true
	}
	c, err := ps.Chart(req.Name, req.Time, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}
	if req.Sunrise != nil {
		c.Birth.Sunrise = *req.Sunrise
	}
	if req.Sunset != nil {
		c.Birth.Sunset = *req.Sunset
	}
	return c, nil
}

func (s *Server) handleCreateChart(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	c, err := s.chartFromRequest(r, req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errUpstream) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err)
		return
	}

	res, err := s.Engine.BuildAll(r.Context(), c)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(res.Trees) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":    "no system could be built for this chart",
			"failures": failures(res),
		})
		return
	}

	saved, err := s.DB.SaveChart(r.Context(), c, res.Trees)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if saved.PreviousID != "" && saved.PreviousID != c.ID() {
		s.Engine.Invalidate(saved.PreviousID)
	}
	utils.ChartLog(c.Name, c.ID()).Infof("Chart %s (%d periods, %d systems failed)", saved.Change.ChangeType, saved.Periods, len(res.Errors))

	rec, err := s.DB.GetChart(r.Context(), c.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	status := http.StatusOK
	if saved.Change.ChangeType == "added" {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]interface{}{
		"chart":         newChartView(rec),
		"change":        saved.Change,
		"periods":       saved.Periods,
		"systems":       saved.Systems,
		"applicability": applicability(res),
		"failures":      failures(res),
	})
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	res, err := s.Engine.BuildAll(r.Context(), rec.Chart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chart":         newChartView(rec),
		"applicability": applicability(res),
		"failures":      failures(res),
	})
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	if err := s.DB.DeleteChart(r.Context(), rec.Name); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.Engine.Invalidate(rec.ChartID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDasha(w http.ResponseWriter, r *http.Request) {
	id, err := dasha.ParseSystem(r.PathValue("system"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	tree, err := s.Engine.Tree(r.Context(), rec.Chart, id)
	if err != nil {
		if errors.Is(err, astro.ErrInvalidChart) {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, treeView{System: id, Failure: failure(id, err)})
		return
	}
	depth, err := depthParam(r, tree.Depth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, newTreeView(tree, depth))
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	at, err := s.instant(r, rec.Chart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	depth, err := depthParam(r, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out := make([]activeView, 0, len(dasha.Systems()))
	for _, id := range dasha.Systems() {
		v := activeView{System: id}
		path, err := s.Engine.Active(r.Context(), rec.Chart, id, at, depth)
		if err != nil {
			v.Failure = failure(id, err)
			out = append(out, v)
			continue
		}
		v.Path = renderPath(path)

		// Active has extended the cached tree past at if it had to.
		if tree, err := s.Engine.Tree(r.Context(), rec.Chart, id); err == nil {
			if len(tree.Tracks) > 1 {
				if tracks, err := tree.ActiveTracks(at); err == nil {
					v.Tracks = make(map[string][]periodView, len(tracks))
					for name, p := range tracks {
						v.Tracks[name] = renderPath(p)
					}
				}
			}
			if sd, ok := tree.Sandhi(at, s.SandhiFraction); ok {
				v.Sandhi = &sandhiView{Outgoing: sd.Outgoing.Ruler, Incoming: sd.Incoming.Ruler, Boundary: sd.Boundary}
			}
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chart_id": rec.ChartID,
		"at":       at,
		"systems":  out,
	})
}

func (s *Server) handleApplicability(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	res, err := s.Engine.BuildAll(r.Context(), rec.Chart)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, applicability(res))
}

func (s *Server) handleSudarshana(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	at, err := s.instant(r, rec.Chart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	positions, err := dasha.SudarshanaAt(rec.Chart, at, s.YearBasis)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"failure": failure(dasha.Sudarshana, err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"at": at, "tracks": positions})
}

// TransitRequest is the body of POST /api/charts/{id}/transit. Without
// positions the ephemeris service is asked for the transits at At.
type TransitRequest struct {
	At        *time.Time         `json:"at"`
	Positions map[string]float64 `json:"positions"`
	Depth     int                `json:"depth"`
}

type transitView struct {
	System      dasha.SystemID       `json:"system"`
	Annotations []transit.Annotation `json:"annotations,omitempty"`
	Failure     *Failure             `json:"failure,omitempty"`
}

func (s *Server) handleTransit(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.loadChart(w, r)
	if !ok {
		return
	}
	var req TransitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	at := s.now()
	if req.At != nil {
		at = *req.At
	}
	if at.Before(rec.Chart.Birth.Time) {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %s precedes birth", dasha.ErrInstantOutOfRange, at.Format(time.RFC3339)))
		return
	}
	if req.Depth < 0 || req.Depth > 5 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("depth must be between 1 and 5"))
		return
	}

	positions := make(transit.Positions)
	switch {
	case len(req.Positions) > 0:
		for name, lon := range req.Positions {
			p, err := astro.ParsePlanet(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			positions[p] = astro.Normalize(lon)
		}
	case s.Ephemeris != nil:
		ps, err := s.Ephemeris.Transits(r.Context(), at)
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		positions = transit.Positions(ps.Transits())
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("positions are required"))
		return
	}

	out := make([]transitView, 0, len(dasha.Systems()))
	for _, id := range dasha.Systems() {
		v := transitView{System: id}
		path, err := s.Engine.Active(r.Context(), rec.Chart, id, at, req.Depth)
		if err != nil {
			v.Failure = failure(id, err)
		} else {
			v.Annotations = transit.Overlay(path, rec.Chart, positions)
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"chart_id": rec.ChartID,
		"at":       at,
		"gochara":  transit.GocharaAll(rec.Chart, positions),
		"systems":  out,
	})
}
