// Package vectorindex implements the semantic vector index (C4): a single
// Qdrant collection shared by the dev and live stores, each point tagged
// with a "store" payload field so a query can scope retrieval to one store
// without needing two collections (spec §3 reconciliation policy, SPEC_FULL
// §3(a)).
package vectorindex

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// payloadOriginalIDField preserves the human-readable point key since
// Qdrant only accepts UUIDs or positive integers as point IDs.
const payloadOriginalIDField = "_original_id"

// Result is one similarity match, with the original (non-UUID) point key
// recovered from its payload.
type Result struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Index is the Qdrant-backed vector store.
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  int
	metric     string
}

// Open connects to Qdrant at dsn (e.g. "http://localhost:6334") and ensures
// the collection exists with the configured vector size and distance
// metric.
func Open(dsn, collection string, dimensions int, metric string) (*Index, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := parsed.Port()
	if port == "" {
		port = "6334"
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: portNum}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	idx := &Index{
		client:     client,
		collection: collection,
		dimension:  dimensions,
		metric:     strings.ToLower(strings.TrimSpace(metric)),
	}
	if err := idx.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	exists, err := idx.client.CollectionExists(ctx, idx.collection)
	if err != nil {
		return fmt.Errorf("check collection exists: %w", err)
	}
	if exists {
		return nil
	}
	if idx.dimension <= 0 {
		return fmt.Errorf("vector dimensions must be > 0")
	}
	var distance qdrant.Distance
	switch idx.metric {
	case "l2", "euclidean":
		distance = qdrant.Distance_Euclid
	case "ip", "dot":
		distance = qdrant.Distance_Dot
	case "manhattan":
		distance = qdrant.Distance_Manhattan
	default:
		distance = qdrant.Distance_Cosine
	}
	return idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: idx.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimension),
			Distance: distance,
		}),
	})
}

// PointKey derives the stable external key for a profile's vector point:
// "<store>/<global_profile_id>". The UUID point ID is derived from this
// key deterministically so re-embedding the same profile overwrites the
// same point rather than creating a duplicate (spec §8 ingestion
// idempotence, extended to the vector index).
func PointKey(store string, globalProfileID int64) string {
	return fmt.Sprintf("%s/%d", store, globalProfileID)
}

func pointUUID(key string) string {
	if _, err := uuid.Parse(key); err == nil {
		return key
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Upsert writes or overwrites the embedding for key, attaching metadata
// (the "store" tag plus any caller-supplied fields) as the point's payload.
func (idx *Index) Upsert(ctx context.Context, key string, vector []float32, metadata map[string]string) error {
	uuidStr := pointUUID(key)
	payloadFields := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payloadFields[k] = v
	}
	if uuidStr != key {
		payloadFields[payloadOriginalIDField] = key
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)
	points := []*qdrant.PointStruct{
		{
			Id:      qdrant.NewIDUUID(uuidStr),
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: qdrant.NewValueMap(payloadFields),
		},
	}
	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.collection,
		Points:         points,
	})
	return err
}

// Delete removes the point for key, if present.
func (idx *Index) Delete(ctx context.Context, key string) error {
	_, err := idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: idx.collection,
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(pointUUID(key))),
	})
	return err
}

// Search returns the k nearest points to vector, optionally restricted to
// an exact-match filter (used to scope a query to one store's "store" tag).
func (idx *Index) Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]Result, error) {
	if k <= 0 {
		k = 10
	}
	vec := make([]float32, len(vector))
	copy(vec, vector)

	var qf *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for k, v := range filter {
			must = append(must, qdrant.NewMatch(k, v))
		}
		qf = &qdrant.Filter{Must: must}
	}

	limit := uint64(k)
	hits, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: idx.collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &limit,
		Filter:         qf,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		uuidStr := hit.Id.GetUuid()
		if uuidStr == "" {
			uuidStr = hit.Id.String()
		}
		metadata := make(map[string]string)
		var originalID string
		if hit.Payload != nil {
			for k, v := range hit.Payload {
				if k == payloadOriginalIDField {
					originalID = v.GetStringValue()
					continue
				}
				metadata[k] = v.GetStringValue()
			}
		}
		id := originalID
		if id == "" {
			id = uuidStr
		}
		results = append(results, Result{ID: id, Score: float64(hit.Score), Metadata: metadata})
	}
	return results, nil
}

// Dimension reports the configured embedding dimensionality.
func (idx *Index) Dimension() int { return idx.dimension }

// Close releases the underlying gRPC connection.
func (idx *Index) Close() error { return idx.client.Close() }
