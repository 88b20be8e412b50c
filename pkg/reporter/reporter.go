// Package reporter renders a finished (or resumed) crawl session as
// JSON, a plain URL list, or a markdown stats block on stdout.
package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/kbaer/opendirindex/internal/models"
)

// Reporter renders models.Session snapshots.
type Reporter struct{}

// New returns a Reporter.
func New() *Reporter {
	return &Reporter{}
}

// JSON marshals the session snapshot for the `--json` artifact.
func (r *Reporter) JSON(session *models.Session) (string, error) {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	return string(data), nil
}

// URLList renders the `<sanitized-root-url>.txt` artifact: one
// distinct file URL per line, in encounter order.
func (r *Reporter) URLList(session *models.Session) string {
	var buf bytes.Buffer
	seen := make(map[string]struct{})
	var walk func(*models.Directory)
	walk = func(d *models.Directory) {
		for _, f := range d.Files {
			if _, ok := seen[f.URL]; ok {
				continue
			}
			seen[f.URL] = struct{}{}
			fmt.Fprintln(&buf, f.URL)
		}
		for _, c := range d.Directories {
			walk(c)
		}
	}
	walk(session.Root)
	return buf.String()
}

// Markdown renders the `-r/--no-reddit` stats block: a human-readable
// summary of the finished crawl, with byte counts and totals formatted
// via go-humanize.
func (r *Reporter) Markdown(session *models.Session) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "## Crawl summary for %s\n\n", session.Root.URL)
	fmt.Fprintf(&buf, "- **Duration:** %s\n", session.Duration().Round(time.Second))
	fmt.Fprintf(&buf, "- **Directories:** %s\n", humanize.Comma(int64(session.TotalDirectories)))
	fmt.Fprintf(&buf, "- **Files:** %s\n", humanize.Comma(int64(session.TotalFiles)))
	fmt.Fprintf(&buf, "- **Total traffic:** %s\n", humanize.Bytes(uint64(session.TotalHTTPTraffic)))
	fmt.Fprintf(&buf, "- **HTTP requests:** %s\n", humanize.Comma(session.TotalHTTPRequests))
	fmt.Fprintf(&buf, "- **Errors:** %s\n", humanize.Comma(session.Errors))
	fmt.Fprintf(&buf, "- **Skipped:** %s\n\n", humanize.Comma(session.Skipped))

	if len(session.HTTPStatusCodes) > 0 {
		fmt.Fprintf(&buf, "### Status codes\n\n")
		codes := make([]int, 0, len(session.HTTPStatusCodes))
		for code := range session.HTTPStatusCodes {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			fmt.Fprintf(&buf, "- `%d`: %s\n", code, humanize.Comma(int64(session.HTTPStatusCodes[code])))
		}
		fmt.Fprintf(&buf, "\n")
	}

	if len(session.URLsWithErrors) > 0 {
		fmt.Fprintf(&buf, "### URLs with errors\n\n")
		for _, u := range session.URLsWithErrors {
			fmt.Fprintf(&buf, "- %s\n", u)
		}
	}

	return buf.String()
}
