// Package googlemaps searches places with the Google Places Text Search API.
// It only fills local results; Places has no web results.
package googlemaps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/jolly-agents/server/internal/search"
)

type Client struct {
	client   *maps.Client
	language string
}

// NewClient creates a Places client. Extra maps.ClientOption values are
// appended after the API key (e.g. maps.WithBaseURL in tests).
func NewClient(apiKey, language string, opts ...maps.ClientOption) (*Client, error) {
	opts = append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)
	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Client{client: client, language: language}, nil
}

func (c *Client) Search(ctx context.Context, query, location string) (*search.Response, error) {
	resp, err := c.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    fmt.Sprintf("%s in %s", query, location),
		Language: c.language,
	})
	if err != nil {
		return nil, fmt.Errorf("places api error: %w", err)
	}

	out := &search.Response{}
	for _, r := range resp.Results {
		out.Local = append(out.Local, search.LocalResult{Title: r.Name})
	}
	return out, nil
}

var _ search.Searcher = (*Client)(nil)
