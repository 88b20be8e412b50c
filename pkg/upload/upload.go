// Package upload implements the paste-host client behind `-l/--upload-urls`:
// a primary host and one fallback, tried in order.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Host is one paste-host backend.
type Host struct {
	Name     string
	Endpoint string
	FormKey  string
}

// Default hosts: 0x0.st as primary (plain multipart-form upload,
// response body is the resulting URL), termbin as fallback (raw TCP
// text paste, reached here over its HTTP mirror endpoint).
var (
	Primary  = Host{Name: "0x0.st", Endpoint: "https://0x0.st", FormKey: "file"}
	Fallback = Host{Name: "termbin", Endpoint: "https://termbin.com", FormKey: "file"}
)

// Client uploads a URL list to a paste host, falling back to a second
// host if the first fails.
type Client struct {
	HTTPClient *http.Client
	Primary    Host
	Fallback   Host
}

// New builds a Client with a bounded timeout, independent of the
// crawl's own HTTP client.
func New() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Primary:    Primary,
		Fallback:   Fallback,
	}
}

// Upload posts content (the `<sanitized-root-url>.txt` URL list) to
// the primary host, retrying against the fallback on any error, and
// returns the resulting paste URL.
func (c *Client) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	pasteURL, err := c.uploadTo(ctx, c.Primary, filename, content)
	if err == nil {
		return pasteURL, nil
	}
	pasteURL, fallbackErr := c.uploadTo(ctx, c.Fallback, filename, content)
	if fallbackErr != nil {
		return "", fmt.Errorf("upload to %s: %w (fallback %s also failed: %v)", c.Primary.Name, err, c.Fallback.Name, fallbackErr)
	}
	return pasteURL, nil
}

func (c *Client) uploadTo(ctx context.Context, host Host, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(host.FormKey, filename)
	if err != nil {
		return "", fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return "", fmt.Errorf("write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host.Endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post to %s: %w", host.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s returned status %d", host.Name, resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", host.Name, err)
	}
	return string(bytes.TrimSpace(respBody)), nil
}
