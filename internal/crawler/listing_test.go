package crawler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleAutoindex = `<html><body>
<a href="../">Parent Directory</a>
<a href="2902746/">2902746/</a>
<a href="profile_001.bin">profile_001.bin</a>
<a href="profile_002.bin">profile_002.bin</a>
<a href="?C=N;O=D">Name</a>
<a href="https://other-host.example/x.bin">off-site</a>
</body></html>`

func TestParseAutoindex_ExtractsLinksAndFiltersParentAndQuery(t *testing.T) {
	files, err := parseAutoindex(strings.NewReader(sampleAutoindex), "http://mirror.example/argo/")
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "2902746")
	assert.Contains(t, names, "profile_001.bin")
	assert.Contains(t, names, "profile_002.bin")
	assert.NotContains(t, names, "x.bin") // off-site link must be excluded
}

func TestParseAutoindex_ExtractsSizeAndLastModified(t *testing.T) {
	const page = `<html><body><pre>
<a href="profile_001.bin">profile_001.bin</a>          03-Jan-2024 10:15    22204
</pre></body></html>`
	files, err := parseAutoindex(strings.NewReader(page), "http://mirror.example/argo/")
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "03-Jan-2024 10:15", files[0].LastModified)
	assert.Equal(t, int64(22204), files[0].Size)
}

func TestIsDirectoryLink(t *testing.T) {
	assert.True(t, isDirectoryLink(RemoteFile{URL: "http://mirror.example/argo/2902746/"}))
	assert.False(t, isDirectoryLink(RemoteFile{URL: "http://mirror.example/argo/profile_001.bin"}))
}

func TestMatchesAnyGlob(t *testing.T) {
	assert.True(t, matchesAnyGlob("profile_001.bin", []string{"*.bin"}))
	assert.False(t, matchesAnyGlob("readme.txt", []string{"*.bin", "*.nc"}))
}
