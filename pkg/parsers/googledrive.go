package parsers

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// googleDriveHosts are the storage/listing hosts exempt from the scope
// predicate's same-host requirement.
var googleDriveHosts = []string{"drive.google.com", "docs.google.com"}

// DetectGoogleDrive matches a Google Drive-hosted folder listing.
func DetectGoogleDrive(in Input) bool {
	u, err := url.Parse(in.URL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range googleDriveHosts {
		if host == h {
			return true
		}
	}
	return false
}

// driveItem mirrors the small subset of the Drive API v3 files.list
// response shape this parser needs: id, name, mimeType, size, modifiedTime.
type driveItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MimeType     string `json:"mimeType"`
	Size         string `json:"size"`
	ModifiedTime string `json:"modifiedTime"`
}

type driveListing struct {
	Files []driveItem `json:"files"`
}

const driveFolderMimeType = "application/vnd.google-apps.folder"

// ParseGoogleDrive extracts subdirectories and files from a Drive API
// files.list JSON payload for one folder. It expects the fetcher to have
// already resolved the folder listing via the Drive API rather than
// scraping the JS-rendered web UI.
func ParseGoogleDrive(in Input) (*Result, error) {
	var listing driveListing
	if err := json.Unmarshal(in.Body, &listing); err != nil {
		return nil, err
	}

	result := &Result{ParserLabel: "GoogleDrive"}
	for _, item := range listing.Files {
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
	return result, nil
}

func driveFolderURL(id string) string {
	return "https://drive.google.com/drive/folders/" + id
}

func driveFileURL(id string) string {
	return "https://drive.google.com/uc?id=" + id + "&export=download"
}
