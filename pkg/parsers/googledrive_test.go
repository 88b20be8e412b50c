package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectGoogleDrive(t *testing.T) {
	assert.True(t, DetectGoogleDrive(Input{URL: "https://drive.google.com/drive/folders/abc"}))
	assert.True(t, DetectGoogleDrive(Input{URL: "https://docs.google.com/x"}))
	assert.False(t, DetectGoogleDrive(Input{URL: "https://example.com/files/"}))
	assert.False(t, DetectGoogleDrive(Input{URL: "http://bad host/path"}))
}

func TestParseGoogleDrive(t *testing.T) {
	body := `{
		"files": [
			{"id": "f1", "name": "Subfolder", "mimeType": "application/vnd.google-apps.folder"},
			{"id": "f2", "name": "photo.jpg", "mimeType": "image/jpeg", "size": "1024"}
		]
	}`
	result, err := ParseGoogleDrive(Input{Body: []byte(body)})
	require.NoError(t, err)

	require.Len(t, result.Directories, 1)
	assert.Equal(t, "https://drive.google.com/drive/folders/f1", result.Directories[0].URL)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "https://drive.google.com/uc?id=f2&export=download", result.Files[0].URL)
	assert.EqualValues(t, 1024, result.Files[0].Size)
}

func TestParseGoogleDriveInvalidJSON(t *testing.T) {
	_, err := ParseGoogleDrive(Input{Body: []byte("not json")})
	assert.Error(t, err)
}
