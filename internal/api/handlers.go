package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"floatchat/internal/answer"
	"floatchat/internal/classify"
	"floatchat/internal/retrieve"
	"floatchat/internal/version"
)

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": version.Version})
}

type queryRequest struct {
	Query string `json:"query"`
}

type tableData struct {
	Columns   []string         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	TotalRows int              `json:"total_rows"`
}

type mapPoint struct {
	FloatID string  `json:"float_id"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

type mapData struct {
	Points    []mapPoint `json:"points"`
	Parameter string     `json:"parameter,omitempty"`
	Region    string     `json:"region,omitempty"`
}

type queryResponse struct {
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	QueryType string     `json:"query_type"`
	HasData   bool       `json:"has_data"`
	ShowMap   bool       `json:"show_map"`
	TableData *tableData `json:"table_data,omitempty"`
	MapData   *mapData   `json:"map_data,omitempty"`
}

// handleQuery is the natural-language query endpoint: classify -> retrieve
// -> synthesize, returning a structured envelope the frontend renders as
// prose plus an optional table/map.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		respondError(w, http.StatusBadRequest, errors.New("query must not be empty"))
		return
	}

	ctx := r.Context()
	intent, ent := s.classifier.Classify(req.Query)

	var result answer.Answer
	var err error
	if intent == classify.IntentInformational {
		result, err = answer.Synthesize(ctx, s.narrator, intent, ent, retrieve.Result{})
	} else {
		var rr retrieve.Result
		rr, err = s.executor.Run(ctx, intent, ent)
		if err == nil {
			result, err = answer.Synthesize(ctx, s.narrator, intent, ent, rr)
		}
	}
	if err != nil {
		s.log.Error().Err(err).Str("intent", string(intent)).Msg("query_pipeline_failed")
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	resp := queryResponse{
		Status:    "ok",
		Message:   result.Text,
		QueryType: string(intent),
		HasData:   len(result.Rows) > 0,
	}
	if resp.HasData {
		resp.TableData = &tableData{Columns: result.Columns, Rows: result.Rows, TotalRows: len(result.Rows)}
		if points := mapPointsFromRows(result.Rows); len(points) > 0 {
			resp.ShowMap = true
			region := ""
			if len(ent.Regions) > 0 {
				region = ent.Regions[0].Name
			}
			param := ""
			if len(ent.Parameters) > 0 {
				param = ent.Parameters[0]
			}
			resp.MapData = &mapData{Points: points, Parameter: param, Region: region}
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// mapPointsFromRows extracts float positions from rows that carry
// latitude/longitude columns, for the optional map overlay.
func mapPointsFromRows(rows []map[string]any) []mapPoint {
	var points []mapPoint
	for _, row := range rows {
		lat, latOK := asFloat(row["latitude"])
		lon, lonOK := asFloat(row["longitude"])
		if !latOK || !lonOK {
			continue
		}
		floatID, _ := row["float_id"].(string)
		points = append(points, mapPoint{FloatID: floatID, Lat: lat, Lng: lon})
	}
	return points
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func (s *Server) handleFloatsRadius(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, ok := parseLatLonRadius(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r)
	positions, err := s.store.ProfilesWithinRadius(r.Context(), lat, lon, radius, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("floats_radius_query_failed")
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "floats": positions})
}

func (s *Server) handleFloatsIndianOcean(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	positions, err := s.store.ProfilesInBBox(r.Context(), indianOceanMinLat, indianOceanMaxLat, indianOceanMinLon, indianOceanMaxLon, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "floats": positions})
}

func (s *Server) handleFloatsAll(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r)
	positions, err := s.store.AllFloatPositions(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "floats": positions})
}

func (s *Server) handleTrajectoriesRadius(w http.ResponseWriter, r *http.Request) {
	lat, lon, radius, ok := parseLatLonRadius(w, r)
	if !ok {
		return
	}
	limit := parseLimit(r)
	points, err := s.store.TrajectoriesWithinRadius(r.Context(), lat, lon, radius, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "trajectories": points})
}

func (s *Server) handleFloatByID(w http.ResponseWriter, r *http.Request) {
	floatID := r.PathValue("float_id")
	minDepth, maxDepth, ok := parseDepthWindow(w, r)
	if !ok {
		return
	}
	detail, found, err := s.store.FloatByID(r.Context(), floatID, minDepth, maxDepth)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, errors.New("float not found"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "profile": detail.Profile, "measurements": detail.Measurements})
}

func parseLatLonRadius(w http.ResponseWriter, r *http.Request) (lat, lon, radius float64, ok bool) {
	var err error
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondError(w, http.StatusUnprocessableEntity, errors.New("lat must be a number in [-90, 90]"))
		return 0, 0, 0, false
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		respondError(w, http.StatusUnprocessableEntity, errors.New("lon must be a number in [-180, 180]"))
		return 0, 0, 0, false
	}
	radius, err = strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	if err != nil || radius <= 0 {
		respondError(w, http.StatusUnprocessableEntity, errors.New("radius must be a positive number"))
		return 0, 0, 0, false
	}
	return lat, lon, radius, true
}

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func parseDepthWindow(w http.ResponseWriter, r *http.Request) (min, max *float64, ok bool) {
	if raw := r.URL.Query().Get("min_depth"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			respondError(w, http.StatusUnprocessableEntity, errors.New("min_depth must be a non-negative number"))
			return nil, nil, false
		}
		min = &v
	}
	if raw := r.URL.Query().Get("max_depth"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			respondError(w, http.StatusUnprocessableEntity, errors.New("max_depth must be a non-negative number"))
			return nil, nil, false
		}
		max = &v
	}
	if min != nil && max != nil && *min > *max {
		respondError(w, http.StatusUnprocessableEntity, errors.New("min_depth must not exceed max_depth"))
		return nil, nil, false
	}
	return min, max, true
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, map[string]any{"status": "error", "error": err.Error()})
}
