package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sw33tLie/dasha/pkg/astro"
	"github.com/sw33tLie/dasha/pkg/dasha"
	"github.com/sw33tLie/dasha/pkg/engine"
	"github.com/sw33tLie/dasha/pkg/ephemeris"
	"github.com/sw33tLie/dasha/pkg/storage"
)

var birth = time.Date(1990, 5, 14, 1, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, user, pass string) (*Server, *httptest.Server) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "dasha.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	eng, err := engine.New(engine.Config{Options: dasha.Options{Depth: 2}})
	require.NoError(t, err)

	s := New(db, eng, user, pass)
	s.now = func() time.Time { return birth.AddDate(30, 0, 0) }
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func chartRequest(name string, moon float64, withAscendant bool) ChartRequest {
	req := ChartRequest{
		Name:      name,
		Time:      birth,
		Latitude:  27.7172,
		Longitude: 85.324,
		Positions: map[string]float64{
			"Sun": 29.8, "Moon": moon, "Mars": 310.2, "Mercury": 15, "Jupiter": 75,
			"Venus": 50, "Saturn": 294.1, "Rahu": 292.4,
		},
	}
	if withAscendant {
		asc := 45.3
		req.Ascendant = &asc
	}
	return req
}

func do(t *testing.T, method, url string, body interface{}, out interface{}) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type createResponse struct {
	Chart struct {
		Name      string `json:"name"`
		ChartID   string `json:"chart_id"`
		Nakshatra string `json:"nakshatra"`
		Lagna     string `json:"lagna"`
	} `json:"chart"`
	Change struct {
		ChangeType string `json:"change_type"`
	} `json:"change"`
	Periods       int                   `json:"periods"`
	Applicability []dasha.Applicability `json:"applicability"`
}

func addChart(t *testing.T, ts *httptest.Server, name string) createResponse {
	t.Helper()
	var out createResponse
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/api/charts", chartRequest(name, 5.48, true), &out))
	return out
}

func TestBasicAuth(t *testing.T) {
	_, ts := newTestServer(t, "admin", "secret")

	resp, err := http.Get(ts.URL + "/api/charts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/charts", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateAndUpdateChart(t *testing.T) {
	_, ts := newTestServer(t, "", "")

	created := addChart(t, ts, "ravi")
	assert.Equal(t, "added", created.Change.ChangeType)
	assert.Equal(t, "Ashwini", created.Chart.Nakshatra)
	assert.Equal(t, "Taurus", created.Chart.Lagna)
	assert.Len(t, created.Applicability, 6)
	assert.Greater(t, created.Periods, 0)

	var updated createResponse
	status := do(t, http.MethodPost, ts.URL+"/api/charts", chartRequest("ravi", 100, true), &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "updated", updated.Change.ChangeType)
	assert.NotEqual(t, created.Chart.ChartID, updated.Chart.ChartID)

	var list []map[string]interface{}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts", nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, updated.Chart.ChartID, list[0]["chart_id"])

	var byID map[string]interface{}
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/"+updated.Chart.ChartID, nil, &byID))
	assert.Nil(t, byID["failures"])
}

func TestCreateChartStoresBuiltSystems(t *testing.T) {
	_, ts := newTestServer(t, "", "")

	// Sun, Moon, time and place only: no Ascendant for Chara or Sudarshana.
	req := chartRequest("minimal", 5.48, false)
	req.Positions = map[string]float64{"Sun": 29.8, "Moon": 5.48}

	var out struct {
		Periods  int       `json:"periods"`
		Systems  []string  `json:"systems"`
		Failures []Failure `json:"failures"`
	}
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, ts.URL+"/api/charts", req, &out))
	assert.Greater(t, out.Periods, 0)
	assert.Equal(t, []string{"vimshottari", "yogini", "ashtottari", "kalachakra"}, out.Systems)
	var failed []dasha.SystemID
	for _, f := range out.Failures {
		assert.Equal(t, dasha.ReasonCalculationFailure, f.Reason)
		failed = append(failed, f.System)
	}
	assert.ElementsMatch(t, []dasha.SystemID{dasha.Chara, dasha.Sudarshana}, failed)

	var vim treeResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/minimal/dasha/vimshottari", nil, &vim))
	assert.Nil(t, vim.Failure)
	require.Len(t, vim.Tracks, 1)
	assert.Equal(t, dasha.Ruler("Ketu"), vim.Tracks[0].Periods[0].Ruler)

	var chara treeResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/minimal/dasha/chara", nil, &chara))
	require.NotNil(t, chara.Failure)
	assert.Equal(t, dasha.ReasonCalculationFailure, chara.Failure.Reason)

	delete(req.Positions, "Moon")
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, ts.URL+"/api/charts", req, nil))
}

func TestCreateChartEphemerisFailure(t *testing.T) {
	s, ts := newTestServer(t, "", "")
	s.Ephemeris = &fakeEphemeris{natalErr: errors.New("dial tcp: connection refused")}

	req := chartRequest("ravi", 5.48, true)
	req.Positions = nil
	assert.Equal(t, http.StatusBadGateway, do(t, http.MethodPost, ts.URL+"/api/charts", req, nil))

	s.Ephemeris = nil
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, ts.URL+"/api/charts", req, nil))
}

type treeResponse struct {
	System  string `json:"system"`
	Horizon string `json:"horizon"`
	Tracks  []struct {
		Name    string       `json:"name"`
		Periods []periodView `json:"periods"`
	} `json:"tracks"`
	Failure *Failure `json:"failure"`
}

func TestDashaEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", "")
	addChart(t, ts, "ravi")

	var shallow treeResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/dasha/vimshottari?depth=1", nil, &shallow))
	require.Len(t, shallow.Tracks, 1)
	first := shallow.Tracks[0].Periods[0]
	assert.Equal(t, dasha.Ruler("Ketu"), first.Ruler)
	assert.True(t, first.Start.Equal(birth))
	assert.Empty(t, first.Children)

	// Depth 3 goes past the two built levels.
	var deep treeResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/dasha/vimshottari?depth=3", nil, &deep))
	md := deep.Tracks[0].Periods[1]
	require.Len(t, md.Children, 9)
	require.Len(t, md.Children[0].Children, 9)
	assert.Equal(t, md.Ruler, md.Children[0].Ruler)
	assert.True(t, md.Children[0].Children[8].End.Equal(md.Children[0].End))

	var sud treeResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/dasha/sudarshana", nil, &sud))
	assert.Len(t, sud.Tracks, 3)

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/dasha/tajaka", nil, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/dasha/yogini?depth=9", nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+"/api/charts/nobody/dasha/yogini", nil, nil))
}

type activeResponse struct {
	Systems []struct {
		System  dasha.SystemID          `json:"system"`
		Path    []periodView            `json:"path"`
		Tracks  map[string][]periodView `json:"tracks"`
		Failure *Failure                `json:"failure"`
	} `json:"systems"`
}

func TestActiveEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", "")
	addChart(t, ts, "ravi")

	var out activeResponse
	at := birth.AddDate(10, 0, 0).Format(time.RFC3339)
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/active?at="+at, nil, &out))
	require.Len(t, out.Systems, 6)
	for _, s := range out.Systems {
		assert.Nil(t, s.Failure, "%s", s.System)
		require.NotEmpty(t, s.Path, "%s", s.System)
	}
	vim := out.Systems[0]
	assert.Equal(t, dasha.Vimshottari, vim.System)
	require.Len(t, vim.Path, 2)
	// Ketu's balance is about 4.1 years, Venus runs 20.
	assert.Equal(t, dasha.Ruler("Venus"), vim.Path[0].Ruler)
	assert.Len(t, out.Systems[5].Tracks, 3)

	// Far past the built horizon the tree is extended.
	far := birth.AddDate(400, 0, 0).Format(time.RFC3339)
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/active?at="+far+"&depth=3", nil, &out))
	for _, s := range out.Systems {
		assert.Nil(t, s.Failure, "%s", s.System)
	}
	assert.Len(t, out.Systems[0].Path, 3)

	early := birth.AddDate(-1, 0, 0).Format(time.RFC3339)
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/active?at="+early, nil, nil))
	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/active?at=yesterday", nil, nil))
}

func TestSudarshanaEndpoint(t *testing.T) {
	_, ts := newTestServer(t, "", "")
	addChart(t, ts, "ravi")

	var out struct {
		Tracks []struct {
			Track     string `json:"track"`
			NatalSign string `json:"natal_sign"`
			Age       int    `json:"age"`
			YearSign  string `json:"year_sign"`
			House     int    `json:"house"`
		} `json:"tracks"`
	}
	at := birth.AddDate(5, 0, 2).Format(time.RFC3339)
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/charts/ravi/sudarshana?at="+at, nil, &out))
	require.Len(t, out.Tracks, 3)
	lagna := out.Tracks[0]
	assert.Equal(t, "lagna", lagna.Track)
	assert.Equal(t, "Taurus", lagna.NatalSign)
	assert.Equal(t, 5, lagna.Age)
	assert.Equal(t, "Libra", lagna.YearSign)
	assert.Equal(t, 6, lagna.House)
}

type fakeEphemeris struct {
	calls    int
	natalErr error
}

func (f *fakeEphemeris) Natal(ctx context.Context, t time.Time, lat, lon float64) (*ephemeris.Positions, error) {
	if f.natalErr != nil {
		return nil, f.natalErr
	}
	return nil, errors.New("not used")
}

func (f *fakeEphemeris) Transits(ctx context.Context, t time.Time) (*ephemeris.Positions, error) {
	f.calls++
	return &ephemeris.Positions{Time: t, Longitudes: map[astro.Planet]float64{
		astro.Sun: 200, astro.Moon: 10, astro.Mars: 40, astro.Mercury: 190,
		astro.Jupiter: 95, astro.Venus: 220, astro.Saturn: 300, astro.Rahu: 20,
	}}, nil
}

func TestTransitEndpoint(t *testing.T) {
	s, ts := newTestServer(t, "", "")
	addChart(t, ts, "ravi")

	type transitResponse struct {
		Gochara []struct {
			Planet string `json:"planet"`
		} `json:"gochara"`
		Systems []struct {
			System      dasha.SystemID    `json:"system"`
			Annotations []json.RawMessage `json:"annotations"`
			Failure     *Failure          `json:"failure"`
		} `json:"systems"`
	}

	at := birth.AddDate(20, 0, 0)
	body := TransitRequest{At: &at, Positions: map[string]float64{"Saturn": 300, "Jupiter": 95, "Venus": 220}}
	var out transitResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, ts.URL+"/api/charts/ravi/transit", body, &out))
	require.Len(t, out.Systems, 6)
	for _, sys := range out.Systems {
		assert.Nil(t, sys.Failure)
		assert.NotEmpty(t, sys.Annotations, "%s", sys.System)
	}
	assert.Len(t, out.Systems[0].Annotations, 2)
	assert.Len(t, out.Gochara, 3)

	assert.Equal(t, http.StatusBadRequest, do(t, http.MethodPost, ts.URL+"/api/charts/ravi/transit", TransitRequest{At: &at}, nil))

	fake := &fakeEphemeris{}
	s.Ephemeris = fake
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, ts.URL+"/api/charts/ravi/transit", TransitRequest{Depth: 3}, &out))
	assert.Equal(t, 1, fake.calls)
	assert.Len(t, out.Gochara, 9, "Ketu is derived from Rahu")
}

func TestDeleteChartEndpoint(t *testing.T) {
	s, ts := newTestServer(t, "", "")
	created := addChart(t, ts, "ravi")
	_, cached := s.Engine.Cached(created.Chart.ChartID)
	assert.True(t, cached)

	assert.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, ts.URL+"/api/charts/ravi", nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, ts.URL+"/api/charts/ravi", nil, nil))
	_, cached = s.Engine.Cached(created.Chart.ChartID)
	assert.False(t, cached)

	var stats []storage.SystemStats
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/stats", nil, &stats))
	assert.Empty(t, stats)

	var changes []storage.Change
	require.Equal(t, http.StatusOK, do(t, http.MethodGet, ts.URL+"/api/changes?limit=1", nil, &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "removed", changes[0].ChangeType)
}

func TestApplicabilityMarksFailures(t *testing.T) {
	res := &engine.Result{
		Applicability: []dasha.Applicability{
			{System: dasha.Vimshottari, Applicable: true, Primary: true, Reasons: []dasha.Reason{dasha.ReasonUniversal}},
			{System: dasha.Chara, Applicable: true, Reasons: []dasha.Reason{dasha.ReasonSupplementary}},
		},
		Errors: map[dasha.SystemID]error{dasha.Chara: astro.ErrMissingPosition},
	}
	got := applicability(res)
	assert.True(t, got[0].Applicable)
	assert.False(t, got[1].Applicable)
	assert.Equal(t, []dasha.Reason{dasha.ReasonSupplementary, dasha.ReasonCalculationFailure}, got[1].Reasons)
	assert.Len(t, res.Applicability[1].Reasons, 1, "cached verdicts are not modified")

	fs := failures(res)
	require.Len(t, fs, 1)
	assert.Equal(t, dasha.Chara, fs[0].System)
}
