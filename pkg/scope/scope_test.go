package scope

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestInScope(t *testing.T) {
	tests := []struct {
		name      string
		base      string
		candidate string
		want      bool
	}{
		{
			name:      "identical URL",
			base:      "http://example.com/files/",
			candidate: "http://example.com/files/",
			want:      true,
		},
		{
			name:      "subdirectory of base",
			base:      "http://example.com/files/",
			candidate: "http://example.com/files/sub/",
			want:      true,
		},
		{
			name:      "parent of base",
			base:      "http://example.com/files/sub/",
			candidate: "http://example.com/files/",
			want:      true,
		},
		{
			name:      "sibling path",
			base:      "http://example.com/files/a/",
			candidate: "http://example.com/files/b/",
			want:      false,
		},
		{
			name:      "different host",
			base:      "http://example.com/files/",
			candidate: "http://other.com/files/",
			want:      false,
		},
		{
			name:      "file link under base",
			base:      "http://example.com/files/",
			candidate: "http://example.com/files/archive.zip",
			want:      true,
		},
		{
			name:      "different host but special-cased",
			base:      "http://example.com/files/",
			candidate: "https://drive.google.com/uc?id=abc",
			want:      true,
		},
		{
			name:      "case-insensitive host match",
			base:      "http://EXAMPLE.com/files/",
			candidate: "http://example.COM/files/sub/",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := mustParse(t, tt.base)
			candidate := mustParse(t, tt.candidate)
			assert.Equal(t, tt.want, InScope(base, candidate))
		})
	}
}

func TestIsSpecialHost(t *testing.T) {
	assert.True(t, IsSpecialHost("drive.google.com"))
	assert.True(t, IsSpecialHost("sub.googleusercontent.com"))
	assert.True(t, IsSpecialHost("DRIVE.GOOGLE.COM"))
	assert.False(t, IsSpecialHost("example.com"))
}

func TestStripFilename(t *testing.T) {
	assert.Equal(t, "/files/", stripFilename("/files/"))
	assert.Equal(t, "/files/", stripFilename("/files/archive.zip"))
	assert.Equal(t, "/files/sub/", stripFilename("/files/sub"))
	assert.Equal(t, "/", stripFilename(""))
}

func TestEffectiveDomain(t *testing.T) {
	domain, err := EffectiveDomain("mirror.example.co.uk")
	require.NoError(t, err)
	assert.Equal(t, "example.co.uk", domain)

	_, err = EffectiveDomain("com")
	assert.Error(t, err)
}
