package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat/internal/classify"
	"floatchat/internal/gazetteer"
	"floatchat/internal/narrate"
	"floatchat/internal/retrieve"
	"floatchat/internal/store"
)

type fakeStore struct {
	bbox         []store.FloatPosition
	radius       []store.FloatPosition
	all          []store.FloatPosition
	trajectories []store.TrajectoryPoint
	detail       store.FloatDetail
	detailFound  bool
	err          error
	bboxArgs     [4]float64
}

func (f *fakeStore) ProfilesInBBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]store.FloatPosition, error) {
	f.bboxArgs = [4]float64{minLat, maxLat, minLon, maxLon}
	return f.bbox, f.err
}

func (f *fakeStore) ProfilesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]store.FloatPosition, error) {
	return f.radius, f.err
}

func (f *fakeStore) AllFloatPositions(ctx context.Context, limit int) ([]store.FloatPosition, error) {
	return f.all, f.err
}

func (f *fakeStore) TrajectoriesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]store.TrajectoryPoint, error) {
	return f.trajectories, f.err
}

func (f *fakeStore) FloatByID(ctx context.Context, floatID string, minDepth, maxDepth *float64) (store.FloatDetail, bool, error) {
	return f.detail, f.detailFound, f.err
}

type fakeExecutor struct {
	result retrieve.Result
	err    error
}

func (f *fakeExecutor) Run(ctx context.Context, intent classify.Intent, ent classify.Entities) (retrieve.Result, error) {
	return f.result, f.err
}

func newTestServer(st *fakeStore, ex *fakeExecutor) *Server {
	now := func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }
	return NewServer(st, classify.New(gazetteer.Default(), now), ex, narrate.NewTemplate(), zerolog.Nop())
}

func TestHandleLiveness(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleQuery_Informational_NeverCallsExecutor(t *testing.T) {
	ex := &fakeExecutor{err: assert.AnError}
	s := newTestServer(&fakeStore{}, ex)
	body, _ := json.Marshal(queryRequest{Query: "What is an Argo float?"})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "informational", resp.QueryType)
	assert.False(t, resp.HasData)
}

func TestHandleQuery_DataIntent_ReturnsTableAndMap(t *testing.T) {
	ex := &fakeExecutor{result: retrieve.Result{
		Columns: []string{"float_id", "latitude", "longitude"},
		Rows: []map[string]any{
			{"float_id": "29027460", "latitude": 12.5, "longitude": 65.0},
		},
	}}
	s := newTestServer(&fakeStore{}, ex)
	body, _ := json.Marshal(queryRequest{Query: "Show floats near the Arabian Sea"})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp queryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.HasData)
	require.NotNil(t, resp.TableData)
	assert.Equal(t, 1, resp.TableData.TotalRows)
	assert.True(t, resp.ShowMap)
	require.NotNil(t, resp.MapData)
	assert.Len(t, resp.MapData.Points, 1)
}

func TestHandleQuery_EmptyBodyRejected(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"query":""}`)))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleFloatsRadius_RejectsOutOfBoundLatitude(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/radius?lat=95&lon=65&radius=100", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleFloatsRadius_ReturnsPositions(t *testing.T) {
	st := &fakeStore{radius: []store.FloatPosition{{FloatID: "2902746", Latitude: 12.5, Longitude: 65.0}}}
	s := newTestServer(st, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/radius?lat=12&lon=65&radius=100", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	floats, ok := payload["floats"].([]any)
	require.True(t, ok)
	assert.Len(t, floats, 1)
}

func TestHandleFloatsIndianOcean_UsesHardcodedBBox(t *testing.T) {
	st := &fakeStore{bbox: []store.FloatPosition{{FloatID: "1"}, {FloatID: "2"}}}
	s := newTestServer(st, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/indian-ocean", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [4]float64{-40, 30, 20, 120}, st.bboxArgs)
}

func TestHandleFloatByID_NotFound(t *testing.T) {
	s := newTestServer(&fakeStore{detailFound: false}, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/2902746", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleFloatByID_RejectsInvertedDepthWindow(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/2902746?min_depth=500&max_depth=10", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestHandleFloatByID_Found(t *testing.T) {
	st := &fakeStore{
		detailFound: true,
		detail: store.FloatDetail{
			Profile:      store.Profile{FloatID: "2902746", CycleNumber: 1},
			Measurements: []store.Measurement{{Level: 0}},
		},
	}
	s := newTestServer(st, &fakeExecutor{})
	req := httptest.NewRequest(http.MethodGet, "/floats/2902746", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
