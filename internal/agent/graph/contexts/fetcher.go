// Package contexts gathers the per-category search context for an itinerary.
package contexts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jolly-agents/server/internal/agent/model"
	"github.com/jolly-agents/server/internal/search"
	logx "github.com/jolly-agents/server/pkg/logger"
)

const (
	// NoResults is the block text when a category yields nothing.
	NoResults = "No results found"
	// maxOrganic caps the web results kept per category.
	maxOrganic = 3
)

// Queries maps each category to the search phrase sent for it.
var Queries = map[model.Category]string{
	model.CategorySpots:  "top tourist attractions",
	model.CategoryFood:   "best street food",
	model.CategoryEvents: "local events",
}

// Fetcher runs one search per category.
type Fetcher struct {
	searcher search.Searcher
	timeout  time.Duration
}

// NewFetcher returns a Fetcher; timeout <= 0 disables the per-call bound.
func NewFetcher(searcher search.Searcher, timeout time.Duration) *Fetcher {
	return &Fetcher{searcher: searcher, timeout: timeout}
}

// Fetch returns one block per category in model.Categories order. Search
// failures are written into the affected block; Fetch itself never fails.
func (f *Fetcher) Fetch(ctx context.Context, location string) model.ContextData {
	blocks := make(model.ContextData, len(model.Categories))

	var g errgroup.Group
	for i, cat := range model.Categories {
		g.Go(func() error {
			blocks[i] = model.CategoryBlock{Category: cat, Text: f.fetchCategory(ctx, cat, location)}
			return nil
		})
	}
	_ = g.Wait()

	return blocks
}

func (f *Fetcher) fetchCategory(ctx context.Context, cat model.Category, location string) string {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	resp, err := f.searcher.Search(ctx, Queries[cat], location)
	if err != nil {
		logx.Warn().
			Err(err).
			Str("category", string(cat)).
			Str("location", location).
			Msg("Search failed; embedding error in context block")
		return fmt.Sprintf("Error from search: %v", err)
	}

	block := RenderBlock(resp, location)
	logx.Debug().
		Str("category", string(cat)).
		Str("location", location).
		Int("lines", strings.Count(block, "\n")+1).
		Msg("Context block ready")
	return block
}

// RenderBlock turns a search response into newline-joined lines: every local
// result with a maps link, then at most three web results.
func RenderBlock(resp *search.Response, location string) string {
	if resp == nil {
		return NoResults
	}

	var lines []string
	for _, r := range resp.Local {
		name := strings.TrimSpace(r.Title)
		if name == "" {
			name = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("%s [Maps](%s)", name, search.MapsLink(name, location)))
	}

	organic := resp.Organic
	if len(organic) > maxOrganic {
		organic = organic[:maxOrganic]
	}
	for _, r := range organic {
		lines = append(lines, fmt.Sprintf("%s - %s", r.Title, r.Link))
	}

	if len(lines) == 0 {
		return NoResults
	}
	return strings.Join(lines, "\n")
}
