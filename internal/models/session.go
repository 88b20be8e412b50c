package models

import "time"

// Session is the persisted, JSON-serializable snapshot of a completed (or
// in-progress) crawl: the tree plus the counters and error bookkeeping. It
// is what gets written to <sanitized-root-url>.json and what the `resume`
// subcommand reloads.
type Session struct {
	Root              *Directory     `json:"root"`
	ProcessedURLs     []string       `json:"processed_urls"`
	URLsWithErrors    []string       `json:"urls_with_errors"`
	HTTPStatusCodes   map[int]int    `json:"http_status_codes"`
	TotalHTTPRequests int64          `json:"total_http_requests"`
	TotalHTTPTraffic  int64          `json:"total_http_traffic"`
	Errors            int64          `json:"errors"`
	Skipped           int64          `json:"skipped"`
	MaxThreads        int            `json:"max_threads"`
	TotalFiles        int            `json:"total_files"`
	TotalDirectories  int            `json:"total_directories"`
	Parameters        map[string]string `json:"parameters,omitempty"`
	StartedAt         time.Time      `json:"started_at"`
	FinishedAt        time.Time      `json:"finished_at,omitempty"`
}

// Duration returns the wall-clock time the crawl took. If the crawl has
// not finished, it measures against the zero value of FinishedAt, i.e.
// callers should only trust this once FinishedAt is set.
func (s *Session) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
