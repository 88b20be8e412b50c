package indexer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/fetch"
	"github.com/kbaer/opendirindex/pkg/parsers"
	"github.com/kbaer/opendirindex/pkg/retry"
	"github.com/kbaer/opendirindex/pkg/session"
)

// Engine coordinates the directory worker pool, the file-size worker
// pool, and the statistics timer against one Session: the single object
// every worker goroutine closes over, holding the shared fetchers, the
// parser registry, and the queues.
type Engine struct {
	Config Config
	Logger zerolog.Logger

	Registry    *parsers.Registry
	HTTPFetcher *fetch.HTTPFetcher
	FTPFetcher  *fetch.FTPFetcher
	RetryPolicy *retry.Policy
	Session     *session.State
	Root        *models.Directory

	dirQueue  *queue[*models.Directory]
	fileQueue *queue[*models.File]

	runningDirWorkers  atomic.Int32
	runningSizeWorkers atomic.Int32
	activeWork         sync.Map // worker name -> *models.Directory
}

// New builds an Engine ready to index rootURL.
func New(cfg Config, logger zerolog.Logger) *Engine {
	return &Engine{
		Config:      cfg,
		Logger:      logger,
		Registry:    parsers.NewRegistry(),
		HTTPFetcher: fetch.NewHTTPFetcher(cfg.RequestTimeout, cfg.UserAgent, cfg.RespectRobotsTxt, logger),
		FTPFetcher:  fetch.NewFTPFetcher(cfg.RequestTimeout, cfg.MaxFTPConnections, logger),
		RetryPolicy: retry.NewPolicy(logger),
		dirQueue:    newQueue[*models.Directory](),
		fileQueue:   newQueue[*models.File](),
	}
}

// Run indexes rootURL from an empty tree and blocks until both worker
// pools drain, returning the finished session snapshot.
func (e *Engine) Run(ctx context.Context, rootURL string) (*models.Session, error) {
	e.Root = models.NewDirectory(rootURL, fetch.LastPathSegment(rootURL), nil)
	e.Session = session.New(e.Root, e.Config.Threads)
	if e.Config.GdIndexRootID != "" {
		e.Session.SetParameter("GdIndex_RootId", e.Config.GdIndexRootID)
	}
	e.HTTPFetcher.Username, e.HTTPFetcher.Password = e.Config.Username, e.Config.Password
	e.dirQueue.push(e.Root)
	return e.run(ctx)
}

func (e *Engine) run(ctx context.Context) (*models.Session, error) {
	var wg sync.WaitGroup
	statsDone := make(chan struct{})

	for i := 0; i < e.Config.Threads; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			e.runDirectoryWorker(ctx, idx)
		}(i)
	}

	sizeThreads := e.Config.Threads
	for i := 0; i < sizeThreads; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			e.runSizeWorker(ctx, idx)
		}(i)
	}

	go e.runStatsTimer(ctx, statsDone)

	wg.Wait()
	close(statsDone)
	e.Session.Finish()

	if ctx.Err() != nil {
		return e.Session.ToModel(), ctx.Err()
	}
	return e.Session.ToModel(), nil
}

// activeDirectoryWork reports whether any goroutine still holds a
// directory URL in flight, used by the size pool's termination check: a
// size worker must not exit while more files might still be discovered.
func (e *Engine) activeDirectoryWork() bool {
	return e.dirQueue.len() > 0 || e.runningDirWorkers.Load() > 0
}
