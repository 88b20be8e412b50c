// Package parsers implements a registry of (detector, parser) pairs
// consulted in declared order, so new server flavors can be added by
// appending to the registry instead of editing the worker pool.
package parsers

import (
	"net/http"
	"time"
)

// DiscoveredDir is a subdirectory link found inside a listing, not yet a
// models.Directory (the worker pool owns creation of those).
type DiscoveredDir struct {
	URL  string
	Name string
}

// DiscoveredFile is a file link found inside a listing.
type DiscoveredFile struct {
	URL       string
	Name      string
	Size      int64 // models.UnknownSize if not present in the listing
	Timestamp *time.Time
}

// Result is what a parser returns: a label plus the subdirectories and
// files it found.
type Result struct {
	ParserLabel string
	Directories []DiscoveredDir
	Files       []DiscoveredFile
}

// FlatListingLabel disables subdirectory enqueueing downstream: the
// parser producing it has already enumerated the full flat tree.
const FlatListingLabel = "DirectoryListingModel01"

// Input is everything a parser needs: the fetched payload, response
// headers, the URL it was fetched from, and session-wide parameters that
// influence detection (e.g. GdIndex_RootId).
type Input struct {
	URL        string
	Headers    http.Header
	Body       []byte
	Parameters map[string]string
}

// Detector decides whether its paired Parser should handle in.
type Detector func(in Input) bool

// Parser extracts subdirectories and files from in.
type ParseFunc func(in Input) (*Result, error)

// registryEntry pairs a detector with the parser it guards.
type registryEntry struct {
	name   string
	detect Detector
	parse  ParseFunc
}

// Registry holds detector/parser pairs consulted in order; the first
// matching detector wins.
type Registry struct {
	entries []registryEntry
}

// NewRegistry builds the default dispatch table: GdIndex, Google Drive,
// FTP, Calibre, then the generic HTML fallback (which always matches).
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register("gdindex", DetectGdIndex, ParseGdIndex)
	r.Register("google_drive", DetectGoogleDrive, ParseGoogleDrive)
	r.Register("calibre", DetectCalibre, ParseCalibre)
	r.Register("generic_html", func(Input) bool { return true }, ParseGenericHTML)
	return r
}

// Register appends a new (detector, parser) pair to the end of the
// dispatch order.
func (r *Registry) Register(name string, detect Detector, parse ParseFunc) {
	r.entries = append(r.entries, registryEntry{name: name, detect: detect, parse: parse})
}

// Dispatch runs the first matching parser for in.
func (r *Registry) Dispatch(in Input) (*Result, error) {
	for _, e := range r.entries {
		if e.detect(in) {
			return e.parse(in)
		}
	}
	// Unreachable while the generic HTML entry stays registered as a
	// catch-all, kept as a defensive fallback if a caller builds a
	// registry without it.
	return ParseGenericHTML(in)
}
