package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/fetch"
	"github.com/kbaer/opendirindex/pkg/session"
)

func newSizeTestEngine(t *testing.T, download bool) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DetermineSizeByDownload = download
	root := models.NewDirectory("http://example.com/", "", nil)
	return &Engine{
		Config:      cfg,
		Logger:      zerolog.Nop(),
		HTTPFetcher: fetch.NewHTTPFetcher(cfg.RequestTimeout, "fixed-agent/1.0", false, zerolog.Nop()),
		Session:     session.New(root, 1),
	}
}

func TestResolveSizeViaHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "77")
	}))
	defer server.Close()

	e := newSizeTestEngine(t, false)
	file := &models.File{URL: server.URL, Size: models.UnknownSize}
	e.resolveSize(context.Background(), file)

	require.True(t, file.HasKnownSize())
	assert.EqualValues(t, 77, file.Size)
}

func TestResolveSizeViaDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 33))
	}))
	defer server.Close()

	e := newSizeTestEngine(t, true)
	file := &models.File{URL: server.URL, Size: models.UnknownSize}
	e.resolveSize(context.Background(), file)

	require.True(t, file.HasKnownSize())
	assert.EqualValues(t, 33, file.Size)
}

func TestResolveSizeFailureIncrementsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := newSizeTestEngine(t, false)
	file := &models.File{URL: server.URL, Size: models.UnknownSize}
	e.resolveSize(context.Background(), file)

	assert.False(t, file.HasKnownSize())
	assert.EqualValues(t, 1, e.Session.Skipped())
}
