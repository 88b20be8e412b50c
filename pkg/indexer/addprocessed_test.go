package indexer

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/parsers"
	"github.com/kbaer/opendirindex/pkg/session"
)

func newTestEngine(t *testing.T, rootURL string) (*Engine, *models.Directory) {
	t.Helper()
	root := models.NewDirectory(rootURL, "", nil)
	e := &Engine{
		Config:    DefaultConfig(),
		Logger:    zerolog.Nop(),
		Session:   session.New(root, 1),
		Root:      root,
		dirQueue:  newQueue[*models.Directory](),
		fileQueue: newQueue[*models.File](),
	}
	return e, root
}

func TestAddProcessedEnqueuesInScopeSubdirectory(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		ParserLabel: "GenericHTMLListing",
		Directories: []parsers.DiscoveredDir{{URL: "http://example.com/files/sub/", Name: "sub"}},
	}
	e.addProcessed(dir, root, result)

	require.Len(t, dir.Directories, 1)
	assert.Equal(t, 1, e.dirQueue.len())
}

func TestAddProcessedDropsOutOfScopeSubdirectory(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Directories: []parsers.DiscoveredDir{{URL: "http://other.com/elsewhere/", Name: "elsewhere"}},
	}
	e.addProcessed(dir, root, result)

	assert.Empty(t, dir.Directories)
	assert.EqualValues(t, 1, e.Session.Skipped())
}

func TestAddProcessedFlatListingSkipsDirectories(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		ParserLabel: parsers.FlatListingLabel,
		Directories: []parsers.DiscoveredDir{{URL: "http://example.com/files/sub/", Name: "sub"}},
	}
	e.addProcessed(dir, root, result)

	assert.Empty(t, dir.Directories)
	assert.Equal(t, 0, e.dirQueue.len())
}

func TestAddProcessedFileWithUnknownSizeGoesToSizeQueue(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "http://example.com/files/a.zip", Name: "a.zip", Size: -1}},
	}
	e.addProcessed(dir, root, result)

	require.Len(t, dir.Files, 1)
	assert.False(t, dir.Files[0].HasKnownSize())
	assert.Equal(t, 1, e.fileQueue.len())
}

func TestAddProcessedFileWithKnownSizeSkipsSizeQueue(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "http://example.com/files/a.zip", Name: "a.zip", Size: 100}},
	}
	e.addProcessed(dir, root, result)

	require.Len(t, dir.Files, 1)
	assert.Equal(t, 0, e.fileQueue.len())
}

func TestAddProcessedDropsDisallowedScheme(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "mailto:test@example.com", Name: "mail"}},
	}
	e.addProcessed(dir, root, result)

	assert.Empty(t, dir.Files)
	assert.EqualValues(t, 1, e.Session.Skipped())
}

func TestAddProcessedCrossHostFileDropped(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "http://other.com/files/a.zip", Name: "a.zip"}},
	}
	e.addProcessed(dir, root, result)

	assert.Empty(t, dir.Files)
	assert.EqualValues(t, 1, e.Session.Skipped())
}

func TestAddProcessedExemptHostFileKept(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "https://drive.google.com/uc?id=abc", Name: "abc", Size: 10}},
	}
	e.addProcessed(dir, root, result)

	require.Len(t, dir.Files, 1)
}

func TestAddProcessedMarksSessionErrorWhenDirErrored(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	dir := models.NewDirectory(root.URL, "", nil)
	dir.Error = true

	e.addProcessed(dir, root, &parsers.Result{})

	assert.EqualValues(t, 1, e.Session.Errors())
	assert.Contains(t, e.Session.URLsWithErrors(), root.URL)
}

func TestAddProcessedExactFileSizesForcesResolve(t *testing.T) {
	e, root := newTestEngine(t, "http://example.com/files/")
	e.Config.ExactFileSizes = true
	dir := models.NewDirectory(root.URL, "", nil)

	result := &parsers.Result{
		Files: []parsers.DiscoveredFile{{URL: "http://example.com/files/a.zip", Name: "a.zip", Size: 500}},
	}
	e.addProcessed(dir, root, result)

	assert.Equal(t, 1, e.fileQueue.len())
}
