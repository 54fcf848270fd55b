// Package scrape fetches evaluated publications from the evidence portal's
// GraphQL API and appends them to the source records file.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/model"
	"github.com/sells-group/evidence-cli/internal/resilience"
)

const serviceName = "graphql"

var (
	// ErrGraphQL is returned when the endpoint answers with GraphQL errors.
	ErrGraphQL = eris.New("scrape: graphql error")
	// ErrNoRecord is returned when the endpoint has no record for an id.
	ErrNoRecord = eris.New("scrape: record not found")
)

// Client fetches one record at a time.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the request pacer.
func WithLimiter(l *Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// NewClient creates a Client for the GraphQL endpoint.
func NewClient(endpoint string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		limiter:  NewLimiter(500 * time.Millisecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type graphQLResponse struct {
	Data struct {
		RecordDetail map[string]any `json:"recordDetail"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchRecord retrieves the record with the given portal id.
func (c *Client) FetchRecord(ctx context.Context, id int) (*model.SourceRecord, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "scrape: rate limiter wait")
	}

	body, err := json.Marshal(graphQLRequest{
		OperationName: "recordDetail",
		Variables:     map[string]any{"id": id},
		Query:         recordDetailQuery,
	})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrapf(err, "scrape: fetch %d", id), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "scrape: read response %d", id)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.limiter.OnRateLimit()
	}
	if resp.StatusCode >= 400 {
		return nil, resilience.StatusError(serviceName, resp.StatusCode, string(raw))
	}
	c.limiter.OnSuccess()

	var out graphQLResponse
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&out); err != nil {
		return nil, eris.Wrapf(err, "scrape: decode response %d", id)
	}
	if len(out.Errors) > 0 {
		return nil, eris.Wrapf(ErrGraphQL, "record %d: %s", id, out.Errors[0].Message)
	}
	if out.Data.RecordDetail == nil {
		return nil, eris.Wrapf(ErrNoRecord, "record %d", id)
	}
	return toSourceRecord(out.Data.RecordDetail), nil
}
