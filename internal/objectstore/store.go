// Package objectstore is the durable archive for raw Argo files the
// crawler (C1) downloads. Every object is addressed by a key derived from
// its source_file_fingerprint (see crawler.archiveKey) so the archive
// holds exactly one copy of a given file's content regardless of how many
// times a mirror re-lists it under the same or a different path.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Common errors returned by ObjectStore implementations.
var (
	ErrNotFound      = errors.New("object not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrInvalidKey    = errors.New("invalid object key")
	ErrBucketMissing = errors.New("bucket does not exist")
)

// ObjectAttrs describes one archived raw file.
type ObjectAttrs struct {
	// Key is the fingerprint-derived archive key, e.g.
	// "argo-raw/<fingerprint>/profile_001.bin".
	Key string
	// Size is the file size in bytes.
	Size int64
	// ETag is the entity tag the backend assigned on write (an MD5 hash
	// for S3; a key-derived placeholder for MemoryStore). Distinct from
	// the source_file_fingerprint the crawler computes — ETag identifies
	// the stored bytes to the backend, fingerprint identifies the Argo
	// file to the rest of FloatChat.
	ETag string
	// LastModified is when the archive last wrote this key.
	LastModified time.Time
	// ContentType is the MIME type if set (crawler archival writes leave
	// this empty; raw Argo files aren't served directly).
	ContentType string
	// IsPrefix indicates this is a "directory" prefix, not a real object.
	IsPrefix bool
}

// ListOptions configures List operation behavior.
type ListOptions struct {
	// Prefix filters objects to those starting with this string, e.g.
	// "argo-raw/" to enumerate the whole archive.
	Prefix string
	// Delimiter groups keys by this character (typically "/").
	// When set, common prefixes are returned as pseudo-directories.
	Delimiter string
	// MaxKeys limits the number of objects returned per call.
	MaxKeys int
	// ContinuationToken resumes listing from a previous truncated response.
	ContinuationToken string
}

// ListResult contains the result of a List operation.
type ListResult struct {
	// Objects contains the object metadata.
	Objects []ObjectAttrs
	// CommonPrefixes contains "directory" prefixes when Delimiter is set.
	CommonPrefixes []string
	// IsTruncated indicates more results are available.
	IsTruncated bool
	// NextContinuationToken is used to continue a truncated listing.
	NextContinuationToken string
}

// PutOptions configures Put operation behavior.
type PutOptions struct {
	// ContentType sets the MIME type of the object. The crawler leaves
	// this unset; raw Argo files are not served.
	ContentType string
	// Metadata holds auxiliary key-value pairs alongside the object. The
	// crawler does not currently set any; the source_file_fingerprint
	// already lives in the archive key itself, not as sidecar metadata.
	Metadata map[string]string
}

// ObjectStore is the archive the crawler writes every newly-fetched raw
// file to. The crawler and the ingestion orchestrator only write to it;
// nothing in FloatChat reads archived files back. Implementations must be
// safe for concurrent use.
type ObjectStore interface {
	// Get retrieves a raw file by its archive key. The caller must close
	// the returned reader. Returns ErrNotFound if the key is unarchived.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectAttrs, error)

	// Put archives a raw file's bytes under key, fully consuming r.
	// Returns the backend's ETag for the stored bytes.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (etag string, err error)

	// Delete removes an archived file. Does not error if the key is absent.
	Delete(ctx context.Context, key string) error

	// List enumerates archived files matching the given options, e.g. to
	// audit everything archived under one float's fingerprint prefix.
	List(ctx context.Context, opts ListOptions) (ListResult, error)

	// Head returns archive metadata for key without downloading its bytes.
	// Returns ErrNotFound if the key is unarchived.
	Head(ctx context.Context, key string) (ObjectAttrs, error)

	// Copy duplicates an archived file to a new key within the same store.
	Copy(ctx context.Context, srcKey, dstKey string) error

	// Exists reports whether key is currently archived.
	Exists(ctx context.Context, key string) (bool, error)
}
