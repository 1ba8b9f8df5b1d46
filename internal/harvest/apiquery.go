package harvest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"zoterharvest/internal/domain"
	"zoterharvest/internal/download"
	"zoterharvest/internal/harvesterrors"
)

// apiQueryResult is the minimal shape of an external bibliographic API's
// response: a list of identifiers, each either a ready-to-fetch URL or a
// bare record id to be resolved against the journal's entry_url_.
type apiQueryResult struct {
	Identifiers []string `json:"identifiers"`
}

// APIQueryOperator services journals whose harvester_operation_ is
// APIQUERY (spec §4.1 "apiQuery(item): use the online ISSN to query an
// external bibliographic API; emit direct-download items for each
// returned identifier"). entry_url_ is the API endpoint; the online ISSN
// is appended as an "issn" query parameter.
type APIQueryOperator struct {
	mgr       *download.Manager
	userAgent func(*domain.JournalParams) string
}

func NewAPIQueryOperator(mgr *download.Manager, userAgent func(*domain.JournalParams) string) *APIQueryOperator {
	return &APIQueryOperator{mgr: mgr, userAgent: userAgent}
}

func (o *APIQueryOperator) Harvest(ctx context.Context, item domain.HarvestableItem, group *domain.GroupParams, counter *domain.ItemCounter) (Outcome, error) {
	journal := item.JournalRef
	if journal.Online.ISSN == "" {
		return Outcome{}, harvesterrors.NewConfig("apiquery_operator", "harvest", "journal has no online ISSN to query with", domain.ErrIncompleteIssnPpn)
	}

	target, err := url.Parse(item.URL)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("apiquery_operator", "harvest", "invalid entry url", err)
	}
	q := target.Query()
	q.Set("issn", journal.Online.ISSN)
	target.RawQuery = q.Encode()

	userAgent := o.userAgent(journal)
	if err := o.mgr.Guard().ValidateURL(target); err != nil {
		return Outcome{}, harvesterrors.NewNetwork("apiquery_operator", "harvest", "ssrf validation failed", err)
	}
	if err := o.mgr.Limiter().WaitForHost(ctx, target.String()); err != nil {
		return Outcome{}, harvesterrors.NewTimeout("apiquery_operator", "harvest", "rate limit wait cancelled", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("apiquery_operator", "harvest", "failed to build request", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := o.mgr.HTTPClient().Do(req)
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("apiquery_operator", "harvest", "api request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		o.mgr.Limiter().RecordRateLimitHit(target.Host, 0)
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, harvesterrors.NewHTTP("apiquery", "apiquery_operator", "harvest", "api returned non-200", resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return Outcome{}, harvesterrors.NewNetwork("apiquery_operator", "harvest", "failed reading api response", err)
	}

	var parsed apiQueryResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Outcome{}, harvesterrors.NewConversion("apiquery_operator", "harvest", "malformed api response", err)
	}

	var children []domain.HarvestableItem
	for _, id := range parsed.Identifiers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		resolved, err := resolveIdentifier(target, id)
		if err != nil {
			continue
		}
		children = append(children, domain.NewItem(counter, resolved, journal))
	}

	return Outcome{Children: children}, nil
}

// resolveIdentifier turns a bare record id into an absolute URL relative
// to base, or passes through an already-absolute identifier unchanged.
func resolveIdentifier(base *url.URL, id string) (string, error) {
	ref, err := url.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid identifier %q: %w", id, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	return base.ResolveReference(ref).String(), nil
}
