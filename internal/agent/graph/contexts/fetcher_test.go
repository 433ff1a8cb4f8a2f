package contexts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jolly-agents/server/internal/agent/model"
	"github.com/jolly-agents/server/internal/search"
)

// stubSearcher answers by query; a query listed in errs fails.
type stubSearcher struct {
	mu        sync.Mutex
	responses map[string]*search.Response
	errs      map[string]error
	block     map[string]bool
	calls     []string
}

func (s *stubSearcher) Search(ctx context.Context, query, location string) (*search.Response, error) {
	s.mu.Lock()
	s.calls = append(s.calls, query+"@"+location)
	s.mu.Unlock()

	if s.block[query] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := s.errs[query]; err != nil {
		return nil, err
	}
	return s.responses[query], nil
}

func TestFetchAllCategories(t *testing.T) {
	s := &stubSearcher{responses: map[string]*search.Response{
		"top tourist attractions": {
			Local:   []search.LocalResult{{Title: "Lingaraj Temple"}},
			Organic: []search.OrganicResult{{Title: "Guide", Link: "https://g.example"}},
		},
		"best street food": {Local: []search.LocalResult{{Title: ""}}},
		"local events":     {},
	}}

	data := NewFetcher(s, time.Second).Fetch(context.Background(), "Bhubaneswar")

	require.True(t, data.Complete())
	assert.Equal(t,
		"Lingaraj Temple [Maps](https://www.google.com/maps/search/?api=1&query=Lingaraj%20Temple%20Bhubaneswar)\nGuide - https://g.example",
		data.Block(model.CategorySpots))
	assert.Equal(t,
		"Unknown [Maps](https://www.google.com/maps/search/?api=1&query=Unknown%20Bhubaneswar)",
		data.Block(model.CategoryFood))
	assert.Equal(t, NoResults, data.Block(model.CategoryEvents))
	assert.ElementsMatch(t, []string{
		"top tourist attractions@Bhubaneswar",
		"best street food@Bhubaneswar",
		"local events@Bhubaneswar",
	}, s.calls)
}

func TestFetchFailuresStayPerCategory(t *testing.T) {
	s := &stubSearcher{
		responses: map[string]*search.Response{
			"best street food": {Local: []search.LocalResult{{Title: "Chhena Poda"}}},
		},
		errs: map[string]error{
			"top tourist attractions": errors.New("connection refused"),
			"local events":            errors.New("bad gateway"),
		},
	}

	data := NewFetcher(s, time.Second).Fetch(context.Background(), "Puri")

	require.Len(t, data, 3)
	assert.Equal(t, []model.Category{model.CategorySpots, model.CategoryFood, model.CategoryEvents},
		[]model.Category{data[0].Category, data[1].Category, data[2].Category})
	assert.Equal(t, "Error from search: connection refused", data.Block(model.CategorySpots))
	assert.True(t, strings.HasPrefix(data.Block(model.CategoryFood), "Chhena Poda [Maps]"))
	assert.Equal(t, "Error from search: bad gateway", data.Block(model.CategoryEvents))
}

func TestFetchAllFail(t *testing.T) {
	s := &stubSearcher{errs: map[string]error{
		"top tourist attractions": errors.New("a"),
		"best street food":        errors.New("b"),
		"local events":            errors.New("c"),
	}}

	data := NewFetcher(s, time.Second).Fetch(context.Background(), "Puri")
	assert.True(t, data.Complete())
	for _, b := range data {
		assert.True(t, strings.HasPrefix(b.Text, "Error from search: "))
	}
}

func TestFetchTimeoutIsPerCategory(t *testing.T) {
	s := &stubSearcher{
		responses: map[string]*search.Response{"local events": {Organic: []search.OrganicResult{{Title: "Fest", Link: "https://f.example"}}}},
		block:     map[string]bool{"top tourist attractions": true},
	}

	data := NewFetcher(s, 20*time.Millisecond).Fetch(context.Background(), "Puri")

	assert.Contains(t, data.Block(model.CategorySpots), context.DeadlineExceeded.Error())
	assert.Equal(t, NoResults, data.Block(model.CategoryFood))
	assert.Equal(t, "Fest - https://f.example", data.Block(model.CategoryEvents))
}

func TestRenderBlockCapsOrganic(t *testing.T) {
	resp := &search.Response{Organic: []search.OrganicResult{
		{Title: "1", Link: "a"}, {Title: "2", Link: "b"}, {Title: "3", Link: "c"}, {Title: "4", Link: "d"},
	}}
	assert.Equal(t, "1 - a\n2 - b\n3 - c", RenderBlock(resp, "x"))
	assert.Equal(t, NoResults, RenderBlock(nil, "x"))
}
