package parsers

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// calibreVersionPattern extracts the quoted value following
// CALIBRE_VERSION = ".
var calibreVersionPattern = regexp.MustCompile(`CALIBRE_VERSION\s*=\s*"([^"]*)"`)

// calibreBookLimiter caps book listing throughput at 100 books per 30s
// across every call to ParseCalibre for the process lifetime.
var calibreBookLimiter = rate.NewLimiter(rate.Every(30*time.Second/100), 100)

// DetectCalibre matches a Calibre content server: its Server header
// names calibre, or its HTML embeds the CALIBRE_VERSION global.
func DetectCalibre(in Input) bool {
	if server := in.Headers.Get("Server"); strings.Contains(strings.ToLower(server), "calibre") {
		return true
	}
	return calibreVersionPattern.Match(in.Body)
}

// CalibreVersion extracts the version string embedded in a Calibre
// content server page, or "" if absent.
func CalibreVersion(body []byte) string {
	m := calibreVersionPattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return string(m[1])
}

// ParseCalibre extracts the book list from a Calibre content server's
// mobile/HTML catalog page. Each book becomes a File entry (Calibre's
// listing carries no byte size, so size stays models.UnknownSize); a
// "next page" pagination link becomes a subdirectory so the crawl
// continues through the catalog.
func ParseCalibre(in Input) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(in.Body)))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(in.URL)
	if err != nil {
		return nil, err
	}

	result := &Result{ParserLabel: "Calibre"}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.Contains(href, "javascript:") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)

		if isCalibreBookLink(abs.Path) {
			_ = calibreBookLimiter.Wait(context.Background())
			result.Files = append(result.Files, DiscoveredFile{
				URL:  abs.String(),
				Name: strings.TrimSpace(s.Text()),
				Size: -1,
			})
			return
		}
		if isCalibreNextPage(s) {
			result.Directories = append(result.Directories, DiscoveredDir{URL: abs.String(), Name: "next"})
		}
	})

	return result, nil
}

func isCalibreBookLink(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "/get/") || strings.Contains(lower, "/book/") || strings.Contains(lower, "/download/")
}

func isCalibreNextPage(s *goquery.Selection) bool {
	rel, _ := s.Attr("rel")
	if strings.EqualFold(rel, "next") {
		return true
	}
	text := strings.ToLower(strings.TrimSpace(s.Text()))
	return text == "next" || text == "»" || text == ">"
}
