package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// GNDLookup is the concrete AuthorLookup: a GET against a group's
// author-lookup URL (author_lookup_url_, spec §3/§4.4 stage 5) with
// lastName/firstName query parameters, expecting a small JSON object
// back. Modeled on translate.Client's plain net/http usage since the
// teacher has no analogous outbound lookup call to generalize from.
type GNDLookup struct {
	httpClient  *http.Client
	endpointURL string
}

func NewGNDLookup(httpClient *http.Client, endpointURL string) *GNDLookup {
	return &GNDLookup{httpClient: httpClient, endpointURL: endpointURL}
}

type gndLookupResponse struct {
	PPN string `json:"ppn"`
	GND string `json:"gnd"`
}

// LookupGND implements AuthorLookup. A disabled lookup (empty
// endpointURL, e.g. a group with no author_lookup_url_ configured)
// returns an error so callers leave PPN/GND blank rather than failing.
func (g *GNDLookup) LookupGND(ctx context.Context, lastName, firstName string) (ppn, gnd string, err error) {
	if g.endpointURL == "" {
		return "", "", fmt.Errorf("convert: no author lookup url configured")
	}

	target, err := url.Parse(g.endpointURL)
	if err != nil {
		return "", "", fmt.Errorf("convert: invalid author lookup url: %w", err)
	}
	q := target.Query()
	q.Set("lastName", lastName)
	q.Set("firstName", firstName)
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", "", fmt.Errorf("convert: building author lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("convert: calling author lookup service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("convert: author lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", "", fmt.Errorf("convert: reading author lookup response: %w", err)
	}

	var parsed gndLookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("convert: decoding author lookup response: %w", err)
	}
	return parsed.PPN, parsed.GND, nil
}
