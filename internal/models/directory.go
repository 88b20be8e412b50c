// Package models holds the data types shared across the indexing engine:
// the crawl tree (Directory/File), the process-wide Session record, and
// the JSON snapshot shape persisted to disk.
package models

import "time"

// UnknownSize is the sentinel value for a File whose size has not yet
// been determined by the file-size worker pool.
const UnknownSize int64 = -1

// File is a single entry discovered inside a Directory listing.
// Identity is its URL; size may be filled in later by the file-size pool.
type File struct {
	URL       string     `json:"url"`
	Name      string     `json:"name"`
	Size      int64      `json:"size"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// HasKnownSize reports whether Size has been resolved.
func (f *File) HasKnownSize() bool {
	return f.Size != UnknownSize
}

// Directory is a node in the crawl tree. Identity is its canonical URL.
// It is created once by the worker that first dequeues its URL, mutated
// exactly once by that worker, and treated as read-only afterwards.
type Directory struct {
	URL                string       `json:"url"`
	Name               string       `json:"name"`
	Parent             *Directory   `json:"-"`
	Directories        []*Directory `json:"directories,omitempty"`
	Files              []*File      `json:"files,omitempty"`
	ParserLabel        string       `json:"parser_label,omitempty"`
	Started            bool         `json:"started"`
	Finished           bool         `json:"finished"`
	Error              bool         `json:"error"`
	CancellationReason string       `json:"cancellation_reason,omitempty"`
	StartedAt          time.Time    `json:"started_at,omitempty"`
	FinishedAt         time.Time    `json:"finished_at,omitempty"`
}

// NewDirectory constructs a Directory with the given URL and parent.
// The root Directory is created with a nil parent.
func NewDirectory(url, name string, parent *Directory) *Directory {
	return &Directory{
		URL:    url,
		Name:   name,
		Parent: parent,
	}
}

// IsRoot reports whether d has no parent.
func (d *Directory) IsRoot() bool {
	return d.Parent == nil
}

// TotalFiles counts distinct file URLs in the subtree rooted at d.
func (d *Directory) TotalFiles() int {
	seen := make(map[string]struct{})
	var walk func(*Directory)
	walk = func(n *Directory) {
		for _, f := range n.Files {
			seen[f.URL] = struct{}{}
		}
		for _, c := range n.Directories {
			walk(c)
		}
	}
	walk(d)
	return len(seen)
}

// TotalDirectories counts the directories in the subtree rooted at d,
// d included.
func (d *Directory) TotalDirectories() int {
	count := 1
	for _, c := range d.Directories {
		count += c.TotalDirectories()
	}
	return count
}
