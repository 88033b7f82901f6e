package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// PendingVectorRecord is a profile that was upserted into the relational
// store but never made it into the vector index, because the embed/upsert
// call failed. It carries everything indexProfile needs to retry without
// re-parsing the source file.
type PendingVectorRecord struct {
	GlobalProfileID int64      `json:"global_profile_id"`
	FloatID         string     `json:"float_id"`
	CycleNumber     int        `json:"cycle_number"`
	Latitude        *float64   `json:"latitude,omitempty"`
	Longitude       *float64   `json:"longitude,omitempty"`
	Datetime        *time.Time `json:"datetime,omitempty"`
}

// PendingVectorStore is a local JSON file recording VectorRecord orphans —
// profiles that exist in the relational store but not yet in the vector
// index — so a later tick can repair them (spec §3 "A VectorRecord exists
// if and only if its referenced Profile exists ...; orphans are repaired on
// the next ingestion tick"). Same atomic write-temp-then-rename idiom as
// FingerprintStore; no embedded KV library appears anywhere in the example
// pack, so a small process-local JSON file is the idiomatic choice here too.
type PendingVectorStore struct {
	path string
	mu   sync.Mutex
	data map[string]PendingVectorRecord
}

// OpenPendingVectorStore loads path if it exists, or starts empty.
func OpenPendingVectorStore(path string) (*PendingVectorStore, error) {
	s := &PendingVectorStore{path: path, data: make(map[string]PendingVectorRecord)}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read pending vector store: %w", err)
	}
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.data); err != nil {
		return nil, fmt.Errorf("parse pending vector store: %w", err)
	}
	return s, nil
}

// Add records rec as not-yet-indexed. Calling Add again for the same
// GlobalProfileID overwrites the earlier record.
func (s *PendingVectorStore) Add(rec PendingVectorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[strconv.FormatInt(rec.GlobalProfileID, 10)] = rec
}

// Remove drops globalProfileID once it has been successfully indexed.
func (s *PendingVectorStore) Remove(globalProfileID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, strconv.FormatInt(globalProfileID, 10))
}

// All returns every currently-pending record, in no particular order.
func (s *PendingVectorStore) All() []PendingVectorRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingVectorRecord, 0, len(s.data))
	for _, rec := range s.data {
		out = append(out, rec)
	}
	return out
}

// Flush atomically writes the current set to disk.
func (s *PendingVectorStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".pending-vectors-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp pending vector file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp pending vector file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp pending vector file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp pending vector file: %w", err)
	}
	return nil
}
