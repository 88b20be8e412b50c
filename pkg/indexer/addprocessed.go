package indexer

import (
	"net/url"
	"strings"

	"github.com/kbaer/opendirindex/internal/models"
	"github.com/kbaer/opendirindex/pkg/parsers"
	"github.com/kbaer/opendirindex/pkg/scope"
)

// allowedFileSchemes are the schemes addProcessed keeps; anything else is
// dropped.
var allowedFileSchemes = map[string]bool{"http": true, "https": true, "ftp": true, "ftps": true}

// addProcessed copies parsed attributes into dir, filters and enqueues
// subdirectories and files, and enqueues files missing a size onto the
// file-size queue.
func (e *Engine) addProcessed(dir *models.Directory, root *models.Directory, result *parsers.Result) {
	dir.ParserLabel = result.ParserLabel

	rootURL, err := url.Parse(root.URL)
	if err != nil {
		return
	}

	if result.ParserLabel != parsers.FlatListingLabel {
		for _, d := range result.Directories {
			candURL, err := url.Parse(d.URL)
			if err != nil {
				continue
			}
			if e.Session.IsProcessed(d.URL) {
				continue
			}
			if !scope.InScope(rootURL, candURL) && !scope.IsSpecialHost(candURL.Hostname()) {
				e.Logger.Debug().Str("url", d.URL).Msg("dropping out-of-scope subdirectory")
				e.Session.IncSkipped()
				continue
			}
			child := models.NewDirectory(d.URL, d.Name, dir)
			dir.Directories = append(dir.Directories, child)
			e.dirQueue.push(child)
		}
	}

	for _, f := range result.Files {
		fileURL, err := url.Parse(f.URL)
		if err != nil {
			continue
		}
		scheme := strings.ToLower(fileURL.Scheme)
		if !allowedFileSchemes[scheme] {
			e.Session.IncSkipped()
			continue
		}
		exempt := scope.IsSpecialHost(fileURL.Hostname())
		if !exempt && !strings.EqualFold(fileURL.Hostname(), rootURL.Hostname()) {
			e.Session.IncSkipped()
			continue
		}
		if !exempt && !scope.InScope(rootURL, fileURL) {
			e.Session.IncSkipped()
			continue
		}

		size := f.Size
		if size < 0 {
			size = models.UnknownSize
		}
		file := &models.File{URL: f.URL, Name: f.Name, Size: size, Timestamp: f.Timestamp}
		dir.Files = append(dir.Files, file)

		if !file.HasKnownSize() || e.Config.ExactFileSizes {
			e.fileQueue.push(file)
		}
	}

	if dir.Error {
		e.Session.AddError(dir.URL)
	}
}
