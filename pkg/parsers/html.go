package parsers

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// dateLayouts covers the handful of timestamp formats Apache/nginx
// autoindex modules emit next to file listings.
var dateLayouts = []string{
	"02-Jan-2006 15:04",
	"2006-01-02 15:04",
	"Mon Jan 2 15:04:05 2006",
}

// ParseGenericHTML extracts subdirectories and files from an Apache- or
// nginx-style autoindex page by walking its anchor tags and classifying
// each link as a directory or a file.
func ParseGenericHTML(in Input) (*Result, error) {
	doc, err := html.Parse(bytes.NewReader(in.Body))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(in.URL)
	if err != nil {
		return nil, err
	}

	result := &Result{ParserLabel: "GenericHTMLListing"}
	seen := make(map[string]bool)

	var rows []htmlRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attr(n, "href")
			if href != "" && !seen[href] {
				seen[href] = true
				rows = append(rows, htmlRow{href: href, text: strings.TrimSpace(textOf(n))})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	sizeByHref, timeByHref := extractSiblingMetadata(doc)

	for _, row := range rows {
		if shouldSkipLink(row.href) {
			continue
		}
		ref, err := url.Parse(row.href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref).String()
		name := row.text
		if name == "" {
			name = strings.TrimSuffix(row.href, "/")
		}

		if strings.HasSuffix(row.href, "/") {
			result.Directories = append(result.Directories, DiscoveredDir{URL: abs, Name: name})
			continue
		}

		file := DiscoveredFile{URL: abs, Name: name, Size: -1}
		if size, ok := sizeByHref[row.href]; ok {
			file.Size = size
		}
		if ts, ok := timeByHref[row.href]; ok {
			t := ts
			file.Timestamp = &t
		}
		result.Files = append(result.Files, file)
	}

	return result, nil
}

type htmlRow struct {
	href string
	text string
}

// shouldSkipLink drops the parent-directory link, query-string sort
// links, fragment-only anchors, and anything with a non-relative scheme
// pointing off the page (cross-origin links are filtered later by the
// scope predicate too, but there's no point creating candidates for
// mailto:/javascript: hrefs).
func shouldSkipLink(href string) bool {
	if href == "" || href == "../" || href == ".." || strings.HasPrefix(href, "?") || strings.HasPrefix(href, "#") {
		return true
	}
	lower := strings.ToLower(href)
	return strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "javascript:")
}

// extractSiblingMetadata handles the common autoindex table layout where
// size and last-modified date sit in table cells next to the anchor,
// rather than in the anchor itself.
func extractSiblingMetadata(doc *html.Node) (map[string]int64, map[string]time.Time) {
	sizes := make(map[string]int64)
	times := make(map[string]time.Time)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "tr" || n.Data == "li") {
			var href string
			var cells []string
			var collectAnchor func(*html.Node)
			collectAnchor = func(nn *html.Node) {
				if nn.Type == html.ElementNode && nn.Data == "a" && href == "" {
					href = attr(nn, "href")
				}
				for c := nn.FirstChild; c != nil; c = c.NextSibling {
					collectAnchor(c)
				}
			}
			var collectText func(*html.Node)
			collectText = func(nn *html.Node) {
				if nn.Type == html.ElementNode && nn.Data == "td" {
					cells = append(cells, strings.TrimSpace(textOf(nn)))
				}
				for c := nn.FirstChild; c != nil; c = c.NextSibling {
					collectText(c)
				}
			}
			collectAnchor(n)
			collectText(n)
			if href != "" {
				for _, cell := range cells {
					if size, ok := parseSize(cell); ok {
						sizes[href] = size
					}
					if ts, ok := parseTimestamp(cell); ok {
						times[href] = ts
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sizes, times
}

func parseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	return parseHumanSize(s)
}

func parseHumanSize(s string) (int64, bool) {
	units := map[string]float64{"K": 1 << 10, "M": 1 << 20, "G": 1 << 30, "T": 1 << 40}
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 2 {
		return 0, false
	}
	unit := s[len(s)-1:]
	mult, ok := units[unit]
	if !ok {
		return 0, false
	}
	numPart := strings.TrimSpace(s[:len(s)-1])
	f, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return 0, false
	}
	return int64(f * mult), true
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
