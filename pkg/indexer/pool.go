package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/fetch"
	"github.com/kbaer/opendirindex/pkg/retry"
)

// pollIdleDelay and pollBusyDelay are the sleep durations between poll
// attempts: 1000ms when the queue is empty, 10ms otherwise, so a worker
// never busy-spins on the non-blocking queue.
const (
	pollIdleDelay = 1000 * time.Millisecond
	pollBusyDelay = 10 * time.Millisecond
)

// runDirectoryWorker is one goroutine in the directory worker pool.
// workerIndex only feeds the worker's name; the FTP connection registry
// and the "active work" map are keyed by that name, not by index, so it
// survives across the goroutine's lifetime even if the pool is resized
// between runs.
func (e *Engine) runDirectoryWorker(ctx context.Context, workerIndex int) {
	workerName := fmt.Sprintf("dir-%d-%s", workerIndex, uuid.NewString()[:8])
	maxConnectionsHit := false

	for {
		e.runningDirWorkers.Add(1)
		dir, ok := e.dirQueue.tryPop()
		if ok {
			e.activeWork.Store(workerName, dir)
			e.processDirectory(ctx, workerName, dir, &maxConnectionsHit)
			e.activeWork.Delete(workerName)
		}
		e.runningDirWorkers.Add(-1)

		if e.dirQueue.len() == 0 {
			time.Sleep(pollIdleDelay)
		} else {
			time.Sleep(pollBusyDelay)
		}

		if ctx.Err() != nil {
			return
		}
		if maxConnectionsHit {
			return
		}
		if e.dirQueue.len() == 0 && e.runningDirWorkers.Load() == 0 {
			return
		}
	}
}

// processDirectory runs a dedup check, fetch and parse dispatch,
// addProcessed on success, and error bookkeeping on failure.
func (e *Engine) processDirectory(ctx context.Context, workerName string, dir *models.Directory, maxConnectionsHit *bool) {
	if !e.Session.MarkProcessed(dir.URL) {
		return
	}
	dir.Started = true
	dir.StartedAt = time.Now()

	dirCtx, cancel := context.WithTimeout(ctx, fetch.DirectoryDeadline)
	defer cancel()

	result, finalURL, err := e.dispatchAndParse(dirCtx, workerName, dir.URL)

	if err != nil {
		if retry.IsFTPMaxConnections(err) {
			// Not an error. Requeue, drop the cached connection, and let
			// this worker exit its loop after this iteration; other
			// workers are unaffected.
			e.Session.UnmarkProcessed(dir.URL)
			e.FTPFetcher.Close(workerName)
			*maxConnectionsHit = true
			dir.Started = false
			e.dirQueue.push(dir)
			return
		}

		dir.Error = true
		dir.CancellationReason = err.Error()
		e.Session.AddError(dir.URL)
		if dir.IsRoot() {
			e.Root.Error = true
		}
		dir.FinishedAt = time.Now()
		return
	}

	if finalURL != dir.URL {
		dir.URL = finalURL
	}
	e.addProcessed(dir, e.Root, result)

	if dir.CancellationReason == "" {
		dir.Finished = true
	}
	dir.FinishedAt = time.Now()
}
