// Package fetch performs HTTP and FTP directory-listing retrieval, with a
// user-agent fallback ladder, negotiated compression, charset repair, and
// TLS verification disabled by default since open-directory servers in
// this domain frequently misconfigure certificates.
package fetch

import (
	"net/http"
	"time"
)

// Result is what one directory fetch produces, regardless of protocol:
// enough for the parser dispatch to pick and run a parser.
type Result struct {
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// DefaultRequestTimeout is the per-request timeout used when `-o,
// --timeout` isn't set.
const DefaultRequestTimeout = 100 * time.Second

// DirectoryDeadline is the overall ceiling on processing a single
// directory, regardless of how many retries the request goes through.
const DirectoryDeadline = 5 * time.Minute
