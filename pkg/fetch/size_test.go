package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := NewHTTPFetcher(5*time.Second, "fixed-agent/1.0", false, zerolog.Nop())
	size, err := f.HeadSize(context.Background(), server.URL)
	require.NoError(t, err)
	assert.EqualValues(t, 4096, size)
}

func TestHeadSizeErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewHTTPFetcher(5*time.Second, "fixed-agent/1.0", false, zerolog.Nop())
	_, err := f.HeadSize(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestStreamedSize(t *testing.T) {
	payload := strings.Repeat("x", 8192)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer server.Close()

	f := NewHTTPFetcher(5*time.Second, "fixed-agent/1.0", false, zerolog.Nop())
	size, err := f.StreamedSize(context.Background(), server.URL)
	require.NoError(t, err)
	assert.EqualValues(t, len(payload), size)
}
