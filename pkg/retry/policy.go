package retry

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// MaxAttempts bounds a single directory's retry loop.
const MaxAttempts = 100

// Policy wraps a directory fetch with bounded exponential backoff and a
// failure classifier. Attempts for one directory are strictly serial.
type Policy struct {
	Logger zerolog.Logger
	// Now lets tests observe/replace the clock; defaults to time.Now.
	Sleep func(context.Context, time.Duration) error
}

// NewPolicy builds a Policy with the default real-time sleeper.
func NewPolicy(logger zerolog.Logger) *Policy {
	return &Policy{Logger: logger, Sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Backoff returns the delay before the k-th retry: min(16, 2^k) seconds
// plus uniform jitter in [0, 200)ms.
func Backoff(attempt int) time.Duration {
	secs := math.Min(16, math.Pow(2, float64(attempt)))
	jitter := time.Duration(rand.Intn(200)) * time.Millisecond
	return time.Duration(secs*float64(time.Second)) + jitter
}

// Do runs fn, retrying per the classifier table until it succeeds, the
// directory is cancelled, or MaxAttempts is exhausted.
// lastSegment is the seed URL's trailing path segment, used by the
// cgi-bin rule.
func (p *Policy) Do(ctx context.Context, directoryURL, lastSegment string, fn func(ctx context.Context, attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return Classify(KindCancelled, 0, lastSegment, ctx.Err())
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if IsFTPMaxConnections(err) {
			// Not an error: caller (the directory worker) handles the
			// requeue itself, this policy has nothing further to do.
			return err
		}
		lastErr = err

		if strings.EqualFold(lastSegment, "cgi-bin/") || strings.EqualFold(lastSegment, "cgi-bin") {
			p.Logger.Debug().Str("url", directoryURL).Msg("cgi-bin path, cancelling")
			return Classify(KindCancelled, 0, lastSegment, err)
		}

		if !p.shouldRetry(err, attempt) {
			return err
		}

		p.Logger.Warn().Str("url", directoryURL).Int("attempt", attempt).Err(err).Msg("retrying directory fetch")

		delay := Backoff(attempt)
		if serr := p.Sleep(ctx, delay); serr != nil {
			return Classify(KindCancelled, 0, lastSegment, serr)
		}
	}
	return Classify(KindCancelled, 0, lastSegment, lastErr)
}

// shouldRetry decides whether err warrants another attempt.
func (p *Policy) shouldRetry(err error, attempt int) bool {
	ce := Classify(KindTransport, 0, "", err)

	switch {
	case ce.Kind == KindStatus && (ce.StatusCode == http.StatusServiceUnavailable || ce.StatusCode == http.StatusTooManyRequests):
		return true
	case isConnectionRefused(err):
		return true
	case ce.Kind == KindStatus && ce.StatusCode == http.StatusNotFound:
		return false
	case isNoSuchHost(err):
		return false
	case ce.Kind == KindStatus && (ce.StatusCode == http.StatusUnauthorized || ce.StatusCode == http.StatusForbidden):
		return attempt < 3
	default:
		return attempt <= 4
	}
}

func isConnectionRefused(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

func isNoSuchHost(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such host")
}
