package indexer

import (
	"context"
	"time"

	"github.com/kbaer/opendirindex/internal/models"
)

// runSizeWorker is one goroutine in the file-size worker pool: it drains
// files missing a size (or, under --exact-file-sizes/DetermineSizeByDownload,
// every file) using the same non-blocking poll/sleep shape as the
// directory pool, and only exits once neither pool has anything left to
// feed it.
func (e *Engine) runSizeWorker(ctx context.Context, workerIndex int) {
	for {
		e.runningSizeWorkers.Add(1)
		file, ok := e.fileQueue.tryPop()
		if ok {
			e.resolveSize(ctx, file)
		}
		e.runningSizeWorkers.Add(-1)

		if e.fileQueue.len() == 0 {
			time.Sleep(pollIdleDelay)
		} else {
			time.Sleep(pollBusyDelay)
		}

		if ctx.Err() != nil {
			return
		}
		if e.fileQueue.len() == 0 && e.runningSizeWorkers.Load() == 0 && !e.activeDirectoryWork() {
			return
		}
	}
}

// resolveSize fills in file.Size with a HEAD request by default, or a
// streamed GET aborted once the byte count is known when
// DetermineSizeByDownload is set (servers that omit or lie about
// Content-Length on HEAD).
func (e *Engine) resolveSize(ctx context.Context, file *models.File) {
	sizeCtx, cancel := context.WithTimeout(ctx, e.Config.RequestTimeout)
	defer cancel()

	var size int64
	var err error
	if e.Config.DetermineSizeByDownload {
		size, err = e.HTTPFetcher.StreamedSize(sizeCtx, file.URL)
	} else {
		size, err = e.HTTPFetcher.HeadSize(sizeCtx, file.URL)
	}
	if err != nil || size <= 0 {
		e.Session.IncSkipped()
		return
	}
	file.Size = size
}
