package parsers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const apacheAutoindex = `
<html>
<body>
<h1>Index of /files</h1>
<table>
<tr><td valign="top"><img src="/icons/back.gif" alt="[PARENTDIR]"></td><td><a href="../">Parent Directory</a></td><td>&nbsp;</td><td align="right">  - </td></tr>
<tr><td><a href="sub/">sub/</a></td><td align="right">02-Jan-2024 15:04  </td><td align="right">  - </td></tr>
<tr><td><a href="report.pdf">report.pdf</a></td><td align="right">02-Jan-2024 15:04  </td><td align="right">2.3M</td></tr>
<tr><td><a href="?C=N;O=D">Name</a></td><td></td><td></td></tr>
</table>
</body>
</html>
`

func TestParseGenericHTML(t *testing.T) {
	in := Input{
		URL:     "http://example.com/files/",
		Headers: http.Header{},
		Body:    []byte(apacheAutoindex),
	}

	result, err := ParseGenericHTML(in)
	require.NoError(t, err)

	require.Len(t, result.Directories, 1)
	assert.Equal(t, "http://example.com/files/sub/", result.Directories[0].URL)

	require.Len(t, result.Files, 1)
	file := result.Files[0]
	assert.Equal(t, "http://example.com/files/report.pdf", file.URL)
	assert.Equal(t, "report.pdf", file.Name)
	mib := 1 << 20
	wantSize := 2.3 * float64(mib)
	assert.EqualValues(t, int64(wantSize), file.Size)
	require.NotNil(t, file.Timestamp)
}

func TestShouldSkipLink(t *testing.T) {
	assert.True(t, shouldSkipLink(""))
	assert.True(t, shouldSkipLink("../"))
	assert.True(t, shouldSkipLink("?C=N;O=D"))
	assert.True(t, shouldSkipLink("#top"))
	assert.True(t, shouldSkipLink("mailto:a@b.com"))
	assert.False(t, shouldSkipLink("sub/"))
	assert.False(t, shouldSkipLink("report.pdf"))
}

func TestParseHumanSize(t *testing.T) {
	mib := 1 << 20
	want23M := int64(2.3 * float64(mib))
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"2.3M", want23M, true},
		{"1K", 1 << 10, true},
		{"1G", 1 << 30, true},
		{"-", 0, false},
		{"garbage", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSize(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
