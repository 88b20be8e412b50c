package fetch

import (
	"context"
	"io"
	"net/http"
)

// HeadSize issues a HEAD request and reads Content-Length, the default,
// cheap way of resolving a listed file's size.
func (f *HTTPFetcher) HeadSize(ctx context.Context, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.currentUA())
	if f.Username != "" {
		req.SetBasicAuth(f.Username, f.Password)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &statusError{code: resp.StatusCode}
	}
	return resp.ContentLength, nil
}

// StreamedSize issues a GET and counts bytes as they arrive, for servers
// whose listings or HEAD responses omit Content-Length; the body is
// discarded, never buffered.
func (f *HTTPFetcher) StreamedSize(ctx context.Context, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", f.currentUA())
	if f.Username != "" {
		req.SetBasicAuth(f.Username, f.Password)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &statusError{code: resp.StatusCode}
	}
	n, err := io.Copy(io.Discard, resp.Body)
	return n, err
}

type statusError struct{ code int }

func (e *statusError) Error() string { return http.StatusText(e.code) }
