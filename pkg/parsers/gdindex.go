package parsers

import (
	"encoding/json"
	"strconv"
)

// GdIndexRootIDParam is the Session.Parameters key that selects the
// GdIndex parser regardless of host, checked before the Google Drive
// host check.
const GdIndexRootIDParam = "GdIndex_RootId"

// DetectGdIndex matches whenever the session carries a GdIndex root id.
func DetectGdIndex(in Input) bool {
	return in.Parameters[GdIndexRootIDParam] != ""
}

// gdIndexResponse mirrors the JSON shape GdIndex-style self-hosted Drive
// proxies return for a folder listing: a data envelope with a files
// array and an optional pagination token.
type gdIndexResponse struct {
	Data struct {
		Files         []driveItem `json:"files"`
		NextPageToken string      `json:"nextPageToken"`
	} `json:"data"`
}

// ParseGdIndex extracts subdirectories and files from a GdIndex proxy
// response. Pagination is represented as a synthetic subdirectory whose
// URL carries the next page token as a query parameter, keeping GdIndex
// pagination inside the ordinary directory queue instead of a bespoke
// loop.
func ParseGdIndex(in Input) (*Result, error) {
	var resp gdIndexResponse
	if err := json.Unmarshal(in.Body, &resp); err != nil {
		return nil, err
	}

	result := &Result{ParserLabel: "GdIndex"}
	for _, item := range resp.Data.Files {
		if item.MimeType == driveFolderMimeType {
			result.Directories = append(result.Directories, DiscoveredDir{
				URL:  driveFolderURL(item.ID),
				Name: item.Name,
			})
			continue
		}
		size := int64(-1)
		if n, err := strconv.ParseInt(item.Size, 10, 64); err == nil {
			size = n
		}
		result.Files = append(result.Files, DiscoveredFile{
			URL:  driveFileURL(item.ID),
			Name: item.Name,
			Size: size,
		})
	}

	if resp.Data.NextPageToken != "" {
		result.Directories = append(result.Directories, DiscoveredDir{
			URL:  in.URL + "&pageToken=" + resp.Data.NextPageToken,
			Name: "next page",
		})
	}

	return result, nil
}
