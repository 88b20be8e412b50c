// Package speedtest implements the throughput probe behind `-s/--speedtest`:
// download the largest known file for a bounded duration and report
// bytes/sec, discarding the body.
package speedtest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kbaer/opendirindex/internal/models"
)

// DefaultDuration bounds how long the probe reads before it stops,
// regardless of whether the file finished downloading.
const DefaultDuration = 10 * time.Second

// Result is the measured throughput of one probe.
type Result struct {
	URL         string
	BytesRead   int64
	Elapsed     time.Duration
	BytesPerSec float64
}

// LargestFile walks the session's tree and returns the file with the
// largest known size, or nil if none has a resolved size.
func LargestFile(root *models.Directory) *models.File {
	var largest *models.File
	var walk func(*models.Directory)
	walk = func(d *models.Directory) {
		for _, f := range d.Files {
			if !f.HasKnownSize() {
				continue
			}
			if largest == nil || f.Size > largest.Size {
				largest = f
			}
		}
		for _, c := range d.Directories {
			walk(c)
		}
	}
	walk(root)
	return largest
}

// Run downloads target for up to duration, discarding the body, and
// reports the observed throughput.
func Run(ctx context.Context, client *http.Client, target string, duration time.Duration) (*Result, error) {
	if duration <= 0 {
		duration = DefaultDuration
	}
	probeCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(io.Discard, resp.Body)
	elapsed := time.Since(start)
	// A deadline-triggered abort is the expected outcome, not a failure:
	// the probe is intentionally bounded by duration.
	if copyErr != nil && probeCtx.Err() == nil {
		return nil, fmt.Errorf("read body: %w", copyErr)
	}

	result := &Result{URL: target, BytesRead: n, Elapsed: elapsed}
	if elapsed > 0 {
		result.BytesPerSec = float64(n) / elapsed.Seconds()
	}
	return result, nil
}
