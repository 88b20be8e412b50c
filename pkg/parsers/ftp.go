package parsers

import (
	"net/url"
	"strings"

	"github.com/kbaer/opendirindex/pkg/fetch"
)

// FTPParserLabel identifies listings produced from an FTP LIST response.
const FTPParserLabel = "FTP"

// FromFTPEntries converts an already-structured FTP directory listing
// into the same {parserLabel, subdirectories, files} shape every other
// parser produces. FTP dispatch happens ahead of the registry in the
// indexer: an FTP LIST response arrives pre-parsed by the client
// library, so there is no byte payload for a (detector, parser) pair to
// sniff — the scheme check is made once, by the caller, instead of by a
// registered Detector.
func FromFTPEntries(baseURL string, entries []fetch.Entry) (*Result, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	base.Path = ensureDirSlash(base.Path)

	result := &Result{ParserLabel: FTPParserLabel}
	for _, e := range entries {
		child := *base
		child.Path = base.Path + e.Name
		if e.IsDir {
			child.Path += "/"
			result.Directories = append(result.Directories, DiscoveredDir{URL: child.String(), Name: e.Name})
			continue
		}
		ts := e.ModTime
		result.Files = append(result.Files, DiscoveredFile{
			URL:       child.String(),
			Name:      e.Name,
			Size:      e.Size,
			Timestamp: &ts,
		})
	}
	return result, nil
}

func ensureDirSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasSuffix(path, "/") {
		return path + "/"
	}
	return path
}
