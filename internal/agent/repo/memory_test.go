package repo

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func entry(role model.Role, text string) model.ChatEntry {
	return model.ChatEntry{Role: role, Text: text, CreatedAt: t0}
}

func TestMemorySaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(0)

	require.NoError(t, r.Save(ctx, model.NewChatSession("s1", t0)))

	got, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	require.NoError(t, r.Delete(ctx, "s1"))
	_, err = r.Load(ctx, "s1")
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)
	assert.Equal(t, http.StatusNotFound, errx.StatusOf(err))
}

func TestMemoryUpdateCommitsWholeValue(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(0)
	require.NoError(t, r.Save(ctx, model.NewChatSession("s1", t0)))

	n := model.Nutrition{Calories: 150, Protein: 8, Sugar: 3}
	got, err := r.Update(ctx, "s1", func(s model.ChatSession) (model.ChatSession, error) {
		return s.Commit(entry(model.RoleUser, "dosa"), entry(model.RoleAssistant, "Calories: 150 kcal"), n), nil
	})
	require.NoError(t, err)
	assert.Equal(t, model.Totals{Calories: 150, Protein: 8, Sugar: 3}, got.Totals)

	loaded, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, got, loaded)
	assert.Len(t, loaded.History, 2)
}

func TestMemoryUpdateFailureLeavesSession(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(0)
	require.NoError(t, r.Save(ctx, model.NewChatSession("s1", t0)))

	boom := errors.New("boom")
	_, err := r.Update(ctx, "s1", func(s model.ChatSession) (model.ChatSession, error) {
		return s.Commit(entry(model.RoleUser, "x"), entry(model.RoleAssistant, "y"), model.Nutrition{Calories: 10}), boom
	})
	assert.ErrorIs(t, err, boom)

	loaded, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, model.Totals{}, loaded.Totals)
	assert.Empty(t, loaded.History)

	_, err = r.Update(ctx, "missing", func(s model.ChatSession) (model.ChatSession, error) { return s, nil })
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)
}

func TestMemoryConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(0)
	require.NoError(t, r.Save(ctx, model.NewChatSession("s1", t0)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Update(ctx, "s1", func(s model.ChatSession) (model.ChatSession, error) {
				return s.Commit(entry(model.RoleUser, "u"), entry(model.RoleAssistant, "a"), model.Nutrition{Calories: 2, Protein: 1}), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	loaded, err := r.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 100, loaded.Totals.Calories)
	assert.Equal(t, 50.0, loaded.Totals.Protein)
	assert.Len(t, loaded.History, 100)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	r := NewMemorySessionRepository(time.Minute)
	clock := t0
	r.now = func() time.Time { return clock }

	require.NoError(t, r.Save(ctx, model.NewChatSession("s1", t0)))

	clock = t0.Add(30 * time.Second)
	_, err := r.Load(ctx, "s1")
	require.NoError(t, err)

	clock = t0.Add(2 * time.Minute)
	_, err = r.Load(ctx, "s1")
	assert.ErrorIs(t, err, errx.ErrSessionNotFound)
}
