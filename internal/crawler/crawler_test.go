package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat/internal/objectstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/argo/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<a href="../">Parent</a>
<a href="2902746/">2902746/</a>
</body></html>`))
	})
	mux.HandleFunc("/argo/2902746/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
<a href="profile_001.bin">profile_001.bin</a>
<a href="readme.txt">readme.txt</a>
</body></html>`))
	})
	mux.HandleFunc("/argo/2902746/profile_001.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "etag-1")
		w.Write([]byte("binary-profile-data"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestCrawler(t *testing.T, rootSuffix string) (*Crawler, *objectstore.MemoryStore) {
	srv := newTestServer(t)
	cfg := Config{
		RemoteRootURL:     srv.URL + rootSuffix,
		AcceptGlobs:       []string{"*.bin"},
		FileBudgetPerTick: 10,
		PerFileTimeoutS:   5,
		RetryMax:          1,
		BackoffBaseS:      0.01,
	}
	fp, err := OpenFingerprintStore(filepath.Join(t.TempDir(), "fp.json"))
	require.NoError(t, err)
	archive := objectstore.NewMemoryStore()
	return New(cfg, fp, archive), archive
}

func TestDiscover_FindsOnlyMatchingGlob(t *testing.T) {
	c, _ := newTestCrawler(t, "/argo/")
	files, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "profile_001.bin", files[0].Name)
}

func TestTick_ArchivesNewFileAndRecordsFingerprint(t *testing.T) {
	c, archive := newTestCrawler(t, "/argo/")
	fetched, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "etag-1", fetched[0].Fingerprint)

	exists, err := archive.Exists(context.Background(), archiveKey(fetched[0].Fingerprint, fetched[0].URL))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTick_SecondTickSkipsUnchangedFile(t *testing.T) {
	c, _ := newTestCrawler(t, "/argo/")
	first, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := c.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second, "unchanged file must not be re-fetched as new on the next tick")
}

// newMeteredTestServer serves an autoindex listing carrying mod_autoindex-style
// size/last-modified metadata, so Tick can make its download-vs-skip decision
// from the listing alone, without ever fetching the file body.
func newMeteredTestServer(t *testing.T, fetches *int) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/argo/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><pre>
<a href="profile_001.bin">profile_001.bin</a>          03-Jan-2024 10:15    19
</pre></body></html>`))
	})
	mux.HandleFunc("/argo/profile_001.bin", func(w http.ResponseWriter, r *http.Request) {
		*fetches++
		w.Write([]byte("binary-profile-data"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTick_SkipsUnchangedFileWithoutFetchingWhenListingCarriesMetadata(t *testing.T) {
	fetches := 0
	srv := newMeteredTestServer(t, &fetches)
	cfg := Config{
		RemoteRootURL:     srv.URL + "/argo/",
		AcceptGlobs:       []string{"*.bin"},
		FileBudgetPerTick: 10,
		PerFileTimeoutS:   5,
		RetryMax:          1,
		BackoffBaseS:      0.01,
	}
	fp, err := OpenFingerprintStore(filepath.Join(t.TempDir(), "fp.json"))
	require.NoError(t, err)
	c := New(cfg, fp, objectstore.NewMemoryStore())

	first, err := c.Tick(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, fetches)

	second, err := c.Tick(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 1, fetches, "unchanged listing metadata must skip the fetch entirely on the second tick")
}
