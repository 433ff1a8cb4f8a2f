package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jolly-agents/server/internal/agent/graph/conversations"
	"github.com/jolly-agents/server/internal/agent/model"
	"github.com/jolly-agents/server/internal/agent/repo"
	"github.com/jolly-agents/server/internal/core"
)

type noopTrips struct{}

func (noopTrips) Plan(context.Context, string) (model.TripState, error) {
	return model.TripState{}, nil
}

type noopNutrition struct{}

func (noopNutrition) Send(context.Context, model.ChatTurn) (model.TurnResult, error) {
	return model.TurnResult{}, nil
}

func TestRouterRoutes(t *testing.T) {
	r := NewRouter(RouterDeps{
		Environment: core.Testing,
		Config:      Config{RequestTimeout: time.Second, MaxImageBytes: 1024},
		Trips:       noopTrips{},
		Nutrition:   noopNutrition{},
		Sessions:    conversations.NewSessionManager(repo.NewMemorySessionRepository(0)),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/nutrition/sessions", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/trips/plan", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
