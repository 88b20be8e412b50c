package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRunEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Write([]byte(`<html><body>
				<a href="sub/">sub/</a>
				<a href="root.txt">root.txt</a>
			</body></html>`))
		case "/sub/":
			w.Header().Set("Content-Length", "0")
			w.Write([]byte(`<html><body><a href="leaf.txt">leaf.txt</a></body></html>`))
		default:
			w.Header().Set("Content-Length", "12")
			w.Write([]byte("hello world!"))
		}
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.Threads = 2
	cfg.UserAgent = "fixed-agent/1.0"
	cfg.RespectRobotsTxt = false

	e := New(cfg, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	snapshot, err := e.Run(ctx, server.URL+"/")
	require.NoError(t, err)

	assert.Equal(t, 2, snapshot.TotalDirectories)
	assert.Equal(t, 2, snapshot.TotalFiles)
	assert.Zero(t, snapshot.Errors)
	assert.False(t, snapshot.FinishedAt.IsZero())
}

func TestEngineActiveDirectoryWork(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, zerolog.Nop())
	e.Session = nil
	assert.False(t, e.activeDirectoryWork())

	e.dirQueue.push(nil)
	assert.True(t, e.activeDirectoryWork())
}
