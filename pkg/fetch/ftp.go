package fetch

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/kbaer/opendirindex/pkg/retry"
)

var ipPattern = regexp.MustCompile(`\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`)

// DefaultFTPSPort is substituted when an ftps:// URL carries no explicit
// port.
const DefaultFTPSPort = 990

// Entry is one line of an FTP LIST response, already protocol-neutral so
// the FTP parser (pkg/parsers) can build Directory/File nodes from it the
// same way the HTML parser does from anchor tags.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

// FTPFetcher retrieves directory listings over FTP/FTPS, caching one
// connection per worker name; each cached connection is used only by
// its owning worker.
type FTPFetcher struct {
	Logger  zerolog.Logger
	Timeout time.Duration

	mu       sync.Mutex
	registry map[string]*ftp.ServerConn

	// dialSem bounds simultaneous new connections independently of the
	// directory worker count: many open-directory FTP servers cap total
	// concurrent sessions well below a typical --threads value, so this
	// is a second, tighter knob rather than a duplicate of the worker
	// pool's own concurrency.
	dialSem *semaphore.Weighted
}

// NewFTPFetcher builds an empty registry allowing at most maxConns
// simultaneous FTP sessions to be dialed.
func NewFTPFetcher(timeout time.Duration, maxConns int64, logger zerolog.Logger) *FTPFetcher {
	if maxConns <= 0 {
		maxConns = 1
	}
	return &FTPFetcher{
		Logger:   logger,
		Timeout:  timeout,
		registry: make(map[string]*ftp.ServerConn),
		dialSem:  semaphore.NewWeighted(maxConns),
	}
}

// Close closes and removes the connection owned by workerName. Called on
// the FTP-max-connections path and at pool shutdown.
func (f *FTPFetcher) Close(workerName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conn, ok := f.registry[workerName]; ok {
		_ = conn.Quit()
		delete(f.registry, workerName)
	}
}

// List fetches the directory listing at target for the given worker,
// reusing a cached connection when one already exists for that worker
// name.
func (f *FTPFetcher) List(ctx context.Context, workerName, target, username, password string) ([]Entry, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, retry.Classify(retry.KindTransport, 0, "", fmt.Errorf("parse ftp url: %w", err))
	}

	conn, err := f.connFor(ctx, workerName, u, username, password)
	if err != nil {
		return nil, err
	}

	entries, err := conn.List(u.Path)
	if err != nil {
		if isMaxConnections(err) {
			f.Close(workerName)
			return nil, retry.Classify(retry.KindFTPMaxConnections, 0, "", err)
		}
		return nil, retry.Classify(retry.KindTransport, 0, "", err)
	}

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		out = append(out, Entry{
			Name:    e.Name,
			IsDir:   e.Type == ftp.EntryTypeFolder,
			Size:    int64(e.Size),
			ModTime: e.Time,
		})
	}
	return out, nil
}

func (f *FTPFetcher) connFor(ctx context.Context, workerName string, u *url.URL, username, password string) (*ftp.ServerConn, error) {
	f.mu.Lock()
	conn, ok := f.registry[workerName]
	f.mu.Unlock()
	if ok {
		return conn, nil
	}

	if err := f.dialSem.Acquire(ctx, 1); err != nil {
		return nil, retry.Classify(retry.KindCancelled, 0, "", err)
	}
	defer f.dialSem.Release(1)

	addr := u.Host
	if u.Port() == "" {
		port := 21
		if u.Scheme == "ftps" {
			port = DefaultFTPSPort
		}
		addr = fmt.Sprintf("%s:%d", u.Hostname(), port)
	}

	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.Timeout))
	if err != nil {
		if isMaxConnections(err) {
			return nil, retry.Classify(retry.KindFTPMaxConnections, 0, "", err)
		}
		return nil, retry.Classify(retry.KindTransport, 0, "", fmt.Errorf("dial %s: %w", addr, err))
	}

	if username == "" {
		username = "anonymous"
		password = "anonymous@"
	}
	if err := conn.Login(username, password); err != nil {
		_ = conn.Quit()
		if isMaxConnections(err) {
			return nil, retry.Classify(retry.KindFTPMaxConnections, 0, "", err)
		}
		return nil, retry.Classify(retry.KindTransport, 0, "", fmt.Errorf("login: %w", err))
	}

	f.mu.Lock()
	f.registry[workerName] = conn
	f.mu.Unlock()
	return conn, nil
}

// isMaxConnections recognizes the handful of FTP response codes/messages
// servers use to reject a connection for being over their concurrent
// connection limit (421/530 with a connections-related message).
func isMaxConnections(err error) bool {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "too many connections") || strings.Contains(msg, "maximum") && strings.Contains(msg, "connections") {
		return true
	}
	code := extractFTPCode(msg)
	return code == 421 || code == 530 && strings.Contains(msg, "connection")
}

func extractFTPCode(msg string) int {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return 0
	}
	code, err := strconv.Atoi(strings.TrimSuffix(fields[0], "-"))
	if err != nil {
		return 0
	}
	return code
}

// RedactIPs scrubs dotted IPv4 addresses from an FTP server description
// string before it is stored in Session parameters.
func RedactIPs(description string) string {
	return ipPattern.ReplaceAllString(description, "[redacted]")
}
