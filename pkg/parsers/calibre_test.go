package parsers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectCalibreByHeader(t *testing.T) {
	in := Input{Headers: http.Header{"Server": []string{"calibre (x.y.z)"}}}
	assert.True(t, DetectCalibre(in))
}

func TestDetectCalibreByBody(t *testing.T) {
	in := Input{
		Headers: http.Header{},
		Body:    []byte(`var CALIBRE_VERSION = "6.10.0";`),
	}
	assert.True(t, DetectCalibre(in))
}

func TestDetectCalibreNoMatch(t *testing.T) {
	in := Input{Headers: http.Header{"Server": []string{"nginx"}}, Body: []byte("<html></html>")}
	assert.False(t, DetectCalibre(in))
}

func TestCalibreVersion(t *testing.T) {
	assert.Equal(t, "6.10.0", CalibreVersion([]byte(`CALIBRE_VERSION = "6.10.0"`)))
	assert.Equal(t, "", CalibreVersion([]byte(`nothing here`)))
}

func TestParseCalibre(t *testing.T) {
	body := `
	<html><body>
	<a href="/get/1/book.epub">The Great Book</a>
	<a href="/book/2">Another Book</a>
	<a rel="next" href="/browse?page=2">Next</a>
	</body></html>
	`
	in := Input{URL: "http://calibre.example.com/browse", Body: []byte(body)}

	result, err := ParseCalibre(in)
	require.NoError(t, err)

	require.Len(t, result.Files, 2)
	assert.Equal(t, "http://calibre.example.com/get/1/book.epub", result.Files[0].URL)
	assert.EqualValues(t, -1, result.Files[0].Size)

	require.Len(t, result.Directories, 1)
	assert.Equal(t, "http://calibre.example.com/browse?page=2", result.Directories[0].URL)
}
