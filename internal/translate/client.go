// Package translate wraps the external translation service (spec §4.3):
// POST a URL to the service, receive a JSON array of zotero-shaped item
// objects, fold note-only entries into their preceding item, and apply
// the journal/global-configured suppress/override filters to every leaf
// string. The exclude and rewrite helpers are provided here but are
// applied by the conversion engine. The teacher has no direct analogue for an
// external black-box JSON service; filter application is modeled on the
// generic field-transform shape used by utils/html_parser.
package translate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Client POSTs a URL to the translation service and returns its raw JSON
// response body, satisfying internal/download.TranslationPoster.
type Client struct {
	httpClient  *http.Client
	endpointURL string
}

func NewClient(httpClient *http.Client, endpointURL string) *Client {
	return &Client{httpClient: httpClient, endpointURL: endpointURL}
}

// PostURL implements internal/download.TranslationPoster.
func (c *Client) PostURL(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewBufferString(url))
	if err != nil {
		return nil, 0, fmt.Errorf("building translation request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("calling translation service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading translation response: %w", err)
	}
	return body, resp.StatusCode, nil
}
