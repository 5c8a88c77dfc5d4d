// Package statsapi fetches donor statistics from the Folding@home stats API.
package statsapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/fahstats/internal/domain/model"
)

const (
	defaultBaseURL   = "https://statsclassic.foldingathome.org"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "fahstats"
	donorPath        = "/api/donor/"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 4 << 20
)

// Fetcher retrieves the current stats of one donor.
type Fetcher interface {
	Fetch(ctx context.Context, donor string) (model.DonorStats, error)
}

// Client is an HTTP Fetcher.
type Client struct {
	http      *http.Client
	baseURL   string
	timeout   time.Duration
	userAgent string
}

// New constructs a Client with default configuration.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{},
		baseURL:   defaultBaseURL,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	hc := *c.http
	hc.Timeout = c.timeout
	c.http = &hc
	return c
}

// donorDocument mirrors the fields of /api/donor/<name> the collector reads.
type donorDocument struct {
	Name       string       `json:"name"`
	WorkUnits  *json.Number `json:"wus"`
	Rank       *json.Number `json:"rank"`
	TotalUsers *json.Number `json:"total_users"`
	Credit     *json.Number `json:"credit"`
}

// DonorURL returns the endpoint queried for donor.
func (c *Client) DonorURL(donor string) string {
	return c.baseURL + donorPath + url.PathEscape(donor)
}

// Fetch performs a single GET and decodes the donor document.
// Missing keys are not an error here; model.NewSnapshot reports them.
func (c *Client) Fetch(ctx context.Context, donor string) (model.DonorStats, error) {
	if donor == "" {
		return model.DonorStats{}, fmt.Errorf("%w: empty donor", ErrTransport)
	}
	u := c.DonorURL(donor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.DonorStats{}, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.DonorStats{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return model.DonorStats{}, &StatusError{Code: resp.StatusCode, URL: u}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.DonorStats{}, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	var doc donorDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return model.DonorStats{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return model.DonorStats{
		Name:       doc.Name,
		WorkUnits:  numberString(doc.WorkUnits),
		Rank:       numberString(doc.Rank),
		TotalUsers: numberString(doc.TotalUsers),
		Credit:     numberString(doc.Credit),
	}, nil
}

func numberString(n *json.Number) *string {
	if n == nil {
		return nil
	}
	s := n.String()
	return &s
}
