package indexer

import (
	"context"
	"time"
)

// statsInterval is the reporting cadence before the directory pool has
// drained; statsIntervalDraining is the tighter cadence used once it has,
// so the tail of a crawl (file sizes trickling in) still gets visible
// progress output.
const (
	statsInterval         = 30 * time.Second
	statsIntervalDraining = 5 * time.Second
)

// runStatsTimer is a purely observational ticker that logs queue depths
// and running-worker counts until done is closed. It never mutates
// engine state.
func (e *Engine) runStatsTimer(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			e.logStats()
			if !e.activeDirectoryWork() {
				ticker.Reset(statsIntervalDraining)
			}
		}
	}
}

func (e *Engine) logStats() {
	e.Logger.Info().
		Int("dir_queue", e.dirQueue.len()).
		Int32("dir_workers", e.runningDirWorkers.Load()).
		Int("file_queue", e.fileQueue.len()).
		Int32("size_workers", e.runningSizeWorkers.Load()).
		Int64("total_requests", e.Session.TotalHTTPRequests()).
		Int64("errors", e.Session.Errors()).
		Msg("crawl progress")
}
