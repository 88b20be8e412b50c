package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// AcceptEncoding is pinned on every outbound request; the transport has
// automatic gzip handling disabled (see http.go) so decompression is done
// explicitly here for all three negotiated schemes.
const AcceptEncoding = "gzip, deflate, br"

// decodeBody decompresses body according to the response's
// Content-Encoding header. Unknown or absent encodings pass through
// unchanged.
func decodeBody(body []byte, contentEncoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		r := brotli.NewReader(bytes.NewReader(body))
		return io.ReadAll(r)
	default:
		return body, nil
	}
}

// repairCharset normalizes a handful of charset labels servers get wrong:
// a bare "utf8" or the common misspelling "gb1212" both mean UTF-8 here.
func repairCharset(contentType string) string {
	lower := strings.ToLower(contentType)
	if strings.Contains(lower, "charset=utf8") {
		return strings.Replace(contentType, "utf8", "UTF-8", 1)
	}
	if strings.Contains(lower, "charset=gb1212") {
		idx := strings.Index(lower, "charset=gb1212")
		return contentType[:idx] + "charset=UTF-8"
	}
	return contentType
}
