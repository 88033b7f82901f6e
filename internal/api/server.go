// Package api implements the read-only HTTP surface (C10): a liveness
// check, a natural-language query endpoint wiring the classify -> sqlgen /
// retrieve -> answer pipeline, and a handful of spatial/profile wrapper
// endpoints over the relational store.
package api

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"floatchat/internal/classify"
	"floatchat/internal/narrate"
	"floatchat/internal/retrieve"
	"floatchat/internal/store"
)

// SpatialStore is the subset of *store.Store the spatial/profile endpoints
// need; satisfied by *store.Store and by test fakes.
type SpatialStore interface {
	ProfilesInBBox(ctx context.Context, minLat, maxLat, minLon, maxLon float64, limit int) ([]store.FloatPosition, error)
	ProfilesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]store.FloatPosition, error)
	AllFloatPositions(ctx context.Context, limit int) ([]store.FloatPosition, error)
	TrajectoriesWithinRadius(ctx context.Context, centerLat, centerLon, radiusKM float64, limit int) ([]store.TrajectoryPoint, error)
	FloatByID(ctx context.Context, floatID string, minDepth, maxDepth *float64) (store.FloatDetail, bool, error)
}

// RetrievalExecutor is the subset of *retrieve.Executor the query endpoint
// needs; satisfied by *retrieve.Executor and by test fakes.
type RetrievalExecutor interface {
	Run(ctx context.Context, intent classify.Intent, ent classify.Entities) (retrieve.Result, error)
}

// indianOceanBBox is the hardcoded bounding box behind GET /floats/indian-ocean.
const (
	indianOceanMinLat = -40.0
	indianOceanMaxLat = 30.0
	indianOceanMinLon = 20.0
	indianOceanMaxLon = 120.0

	defaultLimit = 100
	maxLimit     = 2000
)

// Server exposes FloatChat's read API.
type Server struct {
	store      SpatialStore
	classifier *classify.Classifier
	executor   RetrievalExecutor
	narrator   narrate.Narrator
	log        zerolog.Logger
	mux        *http.ServeMux
}

// NewServer wires a Server over its dependencies and registers routes.
func NewServer(st SpatialStore, classifier *classify.Classifier, executor RetrievalExecutor, narrator narrate.Narrator, log zerolog.Logger) *Server {
	s := &Server{
		store:      st,
		classifier: classifier,
		executor:   executor,
		narrator:   narrator,
		log:        log,
		mux:        http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /", s.handleLiveness)
	s.mux.HandleFunc("POST /", s.handleQuery)
	s.mux.HandleFunc("GET /floats/radius", s.handleFloatsRadius)
	s.mux.HandleFunc("GET /floats/indian-ocean", s.handleFloatsIndianOcean)
	s.mux.HandleFunc("GET /floats/all", s.handleFloatsAll)
	s.mux.HandleFunc("GET /floats/trajectories/radius", s.handleTrajectoriesRadius)
	s.mux.HandleFunc("GET /floats/{float_id}", s.handleFloatByID)
}
