package crawler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"floatchat/internal/objectstore"
)

// Config controls one crawler instance (spec §4.1, SPEC_FULL §6).
type Config struct {
	RemoteRootURL     string
	AcceptGlobs       []string
	FileBudgetPerTick int
	PerFileTimeoutS   int
	RetryMax          int
	BackoffBaseS      float64
}

// DiscoveredFile is one remote file selected for download this tick, along
// with the fingerprint computed from its response.
type DiscoveredFile struct {
	RemoteFile
	Fingerprint string
	Bytes       []byte
}

// Crawler lists a remote autoindex mirror, downloads files new or changed
// since the last tick (tracked via FingerprintStore), and archives the raw
// bytes through an objectstore.ObjectStore.
type Crawler struct {
	cfg          Config
	client       *http.Client
	fingerprints *FingerprintStore
	archive      objectstore.ObjectStore
}

// New constructs a Crawler. archive may be nil to skip raw-file archival
// (e.g. in unit tests exercising discovery logic only).
func New(cfg Config, fingerprints *FingerprintStore, archive objectstore.ObjectStore) *Crawler {
	return &Crawler{
		cfg:          cfg,
		client:       &http.Client{Timeout: time.Duration(cfg.PerFileTimeoutS) * time.Second},
		fingerprints: fingerprints,
		archive:      archive,
	}
}

// Discover walks the remote root recursively, returning every leaf file
// whose name matches one of the configured accept globs, regardless of
// whether it has changed. Tick narrows this down using the fingerprint
// store.
func (c *Crawler) Discover(ctx context.Context) ([]RemoteFile, error) {
	var out []RemoteFile
	if err := c.discoverDir(ctx, c.cfg.RemoteRootURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Crawler) discoverDir(ctx context.Context, dirURL string, out *[]RemoteFile) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dirURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("list %s: %w", dirURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("list %s: unexpected status %d", dirURL, resp.StatusCode)
	}

	links, err := parseAutoindex(resp.Body, dirURL)
	if err != nil {
		return fmt.Errorf("parse listing %s: %w", dirURL, err)
	}
	for _, link := range links {
		if isDirectoryLink(link) {
			if err := c.discoverDir(ctx, link.URL, out); err != nil {
				return err
			}
			continue
		}
		if matchesAnyGlob(link.Name, c.cfg.AcceptGlobs) {
			*out = append(*out, link)
		}
	}
	return nil
}

// Tick discovers files, fetches every one whose fingerprint differs from
// what's on record (or that has never been seen), up to FileBudgetPerTick,
// archives the raw bytes, and updates the fingerprint store. The fingerprint
// store is flushed only after all fetched files are archived successfully,
// so a crash mid-tick is safely retried next time rather than silently
// skipping a file (spec §5 "crash mid-tick must not lose or duplicate
// files").
//
// When a candidate's listing carries size/last-modified metadata, that
// tuple alone decides download-vs-skip against the fingerprint map, before
// any bytes are fetched (spec §4.1). Listings without that metadata fall
// back to the post-fetch content/ETag comparison, which still prevents a
// changed file from being skipped.
func (c *Crawler) Tick(ctx context.Context) ([]DiscoveredFile, error) {
	candidates, err := c.Discover(ctx)
	if err != nil {
		return nil, err
	}

	var fetched []DiscoveredFile
	for _, cand := range candidates {
		if len(fetched) >= c.cfg.FileBudgetPerTick {
			break
		}
		existing, hasExisting := c.fingerprints.Get(cand.URL)
		if hasExisting && cand.LastModified != "" && existing.LastModified == cand.LastModified && existing.Size == cand.Size {
			continue // unchanged per listing metadata; no need to fetch
		}

		body, etag, err := c.fetchWithRetry(ctx, cand.URL)
		if err != nil {
			continue // per-file error isolation; caller's AutomationRun records the miss
		}
		hash := etag
		if hash == "" {
			hash = contentFingerprint(body)
		}
		if hasExisting && existing.Hash == hash {
			continue // unchanged since last tick
		}
		if c.archive != nil {
			key := archiveKey(hash, cand.URL)
			if _, err := c.archive.Put(ctx, key, strings.NewReader(string(body)), objectstore.PutOptions{}); err != nil {
				continue
			}
		}
		c.fingerprints.Set(cand.URL, FingerprintRecord{Size: cand.Size, LastModified: cand.LastModified, Hash: hash})
		fetched = append(fetched, DiscoveredFile{RemoteFile: cand, Fingerprint: hash, Bytes: body})
	}
	if err := c.fingerprints.Flush(); err != nil {
		return fetched, fmt.Errorf("flush fingerprint store: %w", err)
	}
	return fetched, nil
}

func (c *Crawler) fetchWithRetry(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(Backoff(c.cfg.BackoffBaseS, attempt-1, 30)):
			case <-ctx.Done():
				return nil, "", ctx.Err()
			}
		}
		body, etag, err := c.fetchOnce(ctx, url)
		if err == nil {
			return body, etag, nil
		}
		lastErr = err
	}
	return nil, "", lastErr
}

func (c *Crawler) fetchOnce(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("ETag"), nil
}

func contentFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// archiveKey addresses the raw-file archive by content fingerprint, not
// remote path, so re-mirrored or renamed copies of the same file collapse
// onto the same archive entry (source_file_fingerprint is also what
// store.Profile carries as its provenance column).
func archiveKey(fingerprint, remoteURL string) string {
	prefix := fingerprint
	if len(prefix) > 16 {
		prefix = prefix[:16]
	}
	return "argo-raw/" + prefix + "/" + lastPathSegment(remoteURL)
}

func lastPathSegment(remoteURL string) string {
	idx := strings.LastIndex(remoteURL, "/")
	if idx < 0 {
		return remoteURL
	}
	return remoteURL[idx+1:]
}
