package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/jolly-agents/server/internal/search"
	logx "github.com/jolly-agents/server/pkg/logger"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Client queries the SerpAPI Google engine.
type Client struct {
	apiKey   string
	language string
	country  string
	baseURL  string
	client   *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithLocale sets the hl (interface language) and gl (country) parameters.
func WithLocale(language, country string) Option {
	return func(c *Client) {
		c.language = language
		c.country = country
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:   apiKey,
		language: "en",
		country:  "in",
		baseURL:  defaultBaseURL,
		client:   &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search runs "<query> in <location>".
func (c *Client) Search(ctx context.Context, query, location string) (*search.Response, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s in %s", query, location))
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("hl", c.language)
	}
	if c.country != "" {
		params.Set("gl", c.country)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call serpapi: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logx.Warn().Err(err).Msg("failed to close serpapi response body")
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi returned status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Error   string            `json:"error"`
		Local   json.RawMessage   `json:"local_results"`
		Organic []json.RawMessage `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode serpapi response: %w", err)
	}
	if payload.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", payload.Error)
	}

	out := &search.Response{}
	for _, raw := range localEntries(payload.Local) {
		var r search.LocalResult
		// entries that are not objects are skipped
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		out.Local = append(out.Local, r)
	}
	for _, raw := range payload.Organic {
		var r search.OrganicResult
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		out.Organic = append(out.Organic, r)
	}
	return out, nil
}

// localEntries accepts local_results either as a list or as an object
// holding a "places" list. Any other shape yields no entries.
func localEntries(raw json.RawMessage) []json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var wrapped struct {
		Places []json.RawMessage `json:"places"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Places
	}
	return nil
}

var _ search.Searcher = (*Client)(nil)
