package indexer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbaer/opendirindex/pkg/fetch"
	"github.com/kbaer/opendirindex/pkg/parsers"
	"github.com/kbaer/opendirindex/pkg/retry"
)

// dispatchAndParse fetches directoryURL and hands the result to the
// parser registry. GdIndex and Google Drive listings are ordinary
// HTTP(S) fetches against an API endpoint, not the web UI, so they flow
// through the same retry-wrapped HTTP path as the generic/Calibre
// parsers. FTP/FTPS is the one branch that needs a structurally
// different fetch (a pre-parsed listing, not bytes), so it is
// special-cased here rather than in the parser registry (see
// pkg/parsers/ftp.go's doc comment).
func (e *Engine) dispatchAndParse(ctx context.Context, workerName string, directoryURL string) (*parsers.Result, string, error) {
	u, err := url.Parse(directoryURL)
	if err != nil {
		return nil, directoryURL, retry.Classify(retry.KindTransport, 0, "", fmt.Errorf("parse url: %w", err))
	}

	if u.Scheme == "ftp" || u.Scheme == "ftps" {
		return e.dispatchFTP(ctx, workerName, directoryURL)
	}
	return e.dispatchHTTP(ctx, directoryURL)
}

func (e *Engine) dispatchHTTP(ctx context.Context, directoryURL string) (*parsers.Result, string, error) {
	lastSeg := fetch.LastPathSegment(directoryURL)
	var fetched *fetch.Result

	err := e.RetryPolicy.Do(ctx, directoryURL, lastSeg, func(ctx context.Context, attempt int) error {
		r, ferr := e.HTTPFetcher.Fetch(ctx, directoryURL)
		if r != nil {
			e.Session.RecordStatus(r.StatusCode, int64(len(r.Body)))
		}
		if ferr != nil {
			return ferr
		}
		fetched = r
		return nil
	})
	if err != nil {
		return nil, directoryURL, err
	}

	params := e.Session.Parameters()
	result, perr := e.Registry.Dispatch(parsers.Input{
		URL:        fetched.FinalURL,
		Headers:    fetched.Headers,
		Body:       fetched.Body,
		Parameters: params,
	})
	if perr != nil {
		return nil, fetched.FinalURL, retry.Classify(retry.KindParseFailure, 0, lastSeg, perr)
	}
	return result, fetched.FinalURL, nil
}

func (e *Engine) dispatchFTP(ctx context.Context, workerName, directoryURL string) (*parsers.Result, string, error) {
	entries, err := e.FTPFetcher.List(ctx, workerName, directoryURL, e.Config.Username, e.Config.Password)
	if err != nil {
		return nil, directoryURL, err
	}
	result, perr := parsers.FromFTPEntries(directoryURL, entries)
	if perr != nil {
		return nil, directoryURL, retry.Classify(retry.KindParseFailure, 0, "", perr)
	}
	description := fmt.Sprintf("ftp listing at %s", directoryURL)
	e.Session.SetParameter("ftp_server_info:"+workerHost(directoryURL), fetch.RedactIPs(description))
	return result, directoryURL, nil
}

func workerHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}
