// Package crawler implements the remote mirror crawler (C1): it lists an
// HTTP autoindex directory tree, diffs it against a local fingerprint map,
// downloads files new since the last tick (bounded by a per-tick file
// budget), and archives the raw bytes to the object store.
package crawler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FingerprintRecord is what the fingerprint map remembers about one remote
// file as of its last successful ingestion: the listing metadata it was
// discovered with (spec "(remote path, size, last-modified)") plus the
// content fingerprint (etag or content hash) computed once it was actually
// downloaded.
type FingerprintRecord struct {
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified"`
	Hash         string `json:"hash"`
}

// FingerprintStore is a small local key-value file mapping a remote file's
// path to the FingerprintRecord seen at last ingestion, so a tick can tell
// "new," "changed," and "already ingested" apart. When a listing carries
// size/last-modified metadata, Tick consults this map on that tuple alone
// and skips the download entirely for files unchanged since last time (spec
// §3 "Re-ingesting the same file is a no-op"; spec §4.1's
// download-vs-skip decision). No embedded KV library appears anywhere in
// the example pack, so this is a plain JSON file with atomic replace
// semantics (see DESIGN.md).
type FingerprintStore struct {
	path string
	mu   sync.Mutex
	data map[string]FingerprintRecord
}

// OpenFingerprintStore loads path if it exists, or starts empty.
func OpenFingerprintStore(path string) (*FingerprintStore, error) {
	fs := &FingerprintStore{path: path, data: make(map[string]FingerprintRecord)}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("read fingerprint store: %w", err)
	}
	if len(b) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(b, &fs.data); err != nil {
		return nil, fmt.Errorf("parse fingerprint store: %w", err)
	}
	return fs, nil
}

// Get returns the last-seen record for remotePath, if any.
func (fs *FingerprintStore) Get(remotePath string) (FingerprintRecord, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[remotePath]
	return v, ok
}

// Set records remotePath's fingerprint without persisting; call Flush to
// write the whole map to disk.
func (fs *FingerprintStore) Set(remotePath string, rec FingerprintRecord) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data[remotePath] = rec
}

// Flush atomically writes the current map to disk: write to a temp file in
// the same directory, then rename, so a crash mid-write never corrupts the
// store an in-progress tick depends on.
func (fs *FingerprintStore) Flush() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	b, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".fingerprint-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp fingerprint file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp fingerprint file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp fingerprint file: %w", err)
	}
	if err := os.Rename(tmpName, fs.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp fingerprint file: %w", err)
	}
	return nil
}
