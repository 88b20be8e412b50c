// Package session holds the mutable record threaded through both worker
// pools during a crawl: atomic counters, sync.Map-backed dedup sets, and
// a mutex-guarded status histogram.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbaer/opendirindex/internal/models"
)

// State is the live, thread-safe session record. Session.ToModel()
// produces the JSON-serializable snapshot (models.Session) at report
// time.
type State struct {
	Root *models.Directory

	processedURLs  sync.Map // string -> struct{}
	urlsWithErrors sync.Map // string -> struct{}

	statusMu    sync.Mutex
	statusCodes map[int]int

	totalHTTPRequests int64
	totalHTTPTraffic  int64
	errors            int64
	skipped           int64

	paramsMu   sync.Mutex
	parameters map[string]string

	MaxThreads int
	StartedAt  time.Time
	FinishedAt time.Time
}

// New builds a Session rooted at root with the given worker-pool size.
func New(root *models.Directory, maxThreads int) *State {
	return &State{
		Root:        root,
		statusCodes: make(map[int]int),
		parameters:  make(map[string]string),
		MaxThreads:  maxThreads,
		StartedAt:   time.Now(),
	}
}

// MarkProcessed records url as processed if it isn't already, returning
// true iff this call was the one that added it. A URL is recorded in
// the processed set at most once.
func (s *State) MarkProcessed(url string) bool {
	_, loaded := s.processedURLs.LoadOrStore(url, struct{}{})
	return !loaded
}

// IsProcessed reports whether url has already been recorded.
func (s *State) IsProcessed(url string) bool {
	_, ok := s.processedURLs.Load(url)
	return ok
}

// UnmarkProcessed removes url from the processed set. Used only by the
// FTP-max-connections requeue path, which must clear the entry before
// re-enqueueing the URL.
func (s *State) UnmarkProcessed(url string) {
	s.processedURLs.Delete(url)
}

// ProcessedURLs returns a snapshot slice of every processed URL.
func (s *State) ProcessedURLs() []string {
	var out []string
	s.processedURLs.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// AddError records url as having failed and increments the error
// counter.
func (s *State) AddError(url string) {
	s.urlsWithErrors.Store(url, struct{}{})
	atomic.AddInt64(&s.errors, 1)
}

// URLsWithErrors returns a snapshot slice of every errored URL.
func (s *State) URLsWithErrors() []string {
	var out []string
	s.urlsWithErrors.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}

// RecordStatus increments the histogram bucket for code and the total
// request counter.
func (s *State) RecordStatus(code int, bytes int64) {
	atomic.AddInt64(&s.totalHTTPRequests, 1)
	atomic.AddInt64(&s.totalHTTPTraffic, bytes)
	s.statusMu.Lock()
	s.statusCodes[code]++
	s.statusMu.Unlock()
}

// StatusCodes returns a copy of the status histogram.
func (s *State) StatusCodes() map[int]int {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	out := make(map[int]int, len(s.statusCodes))
	for k, v := range s.statusCodes {
		out[k] = v
	}
	return out
}

// IncSkipped increments the skipped counter (e.g. scope violations,
// dedup drops the caller wants to count).
func (s *State) IncSkipped() { atomic.AddInt64(&s.skipped, 1) }

// TotalHTTPRequests returns the running request count.
func (s *State) TotalHTTPRequests() int64 { return atomic.LoadInt64(&s.totalHTTPRequests) }

// TotalHTTPTraffic returns the running byte count.
func (s *State) TotalHTTPTraffic() int64 { return atomic.LoadInt64(&s.totalHTTPTraffic) }

// Errors returns the running error count.
func (s *State) Errors() int64 { return atomic.LoadInt64(&s.errors) }

// Skipped returns the running skipped count.
func (s *State) Skipped() int64 { return atomic.LoadInt64(&s.skipped) }

// SetParameter stores a server-specific session parameter, e.g.
// GdIndex_RootId.
func (s *State) SetParameter(key, value string) {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	s.parameters[key] = value
}

// Parameter reads a session parameter.
func (s *State) Parameter(key string) string {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	return s.parameters[key]
}

// Parameters returns a copy of the full parameter map, used to build
// the parser dispatch input.
func (s *State) Parameters() map[string]string {
	s.paramsMu.Lock()
	defer s.paramsMu.Unlock()
	out := make(map[string]string, len(s.parameters))
	for k, v := range s.parameters {
		out[k] = v
	}
	return out
}

// Finish stamps FinishedAt. Called once, by the coordinator, at
// quiescence.
func (s *State) Finish() {
	s.FinishedAt = time.Now()
}

// ToModel snapshots the live state into the JSON-serializable shape
// persisted by the reporter.
func (s *State) ToModel() *models.Session {
	return &models.Session{
		Root:              s.Root,
		ProcessedURLs:     s.ProcessedURLs(),
		URLsWithErrors:    s.URLsWithErrors(),
		HTTPStatusCodes:   s.StatusCodes(),
		TotalHTTPRequests: s.TotalHTTPRequests(),
		TotalHTTPTraffic:  s.TotalHTTPTraffic(),
		Errors:            s.Errors(),
		Skipped:           s.Skipped(),
		MaxThreads:        s.MaxThreads,
		TotalFiles:        s.Root.TotalFiles(),
		TotalDirectories:  s.Root.TotalDirectories(),
		Parameters:        s.Parameters(),
		StartedAt:         s.StartedAt,
		FinishedAt:        s.FinishedAt,
	}
}
