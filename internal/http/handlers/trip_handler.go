package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jolly-agents/server/internal/agent/graph"
	"github.com/jolly-agents/server/internal/agent/model"
)

type TripHandler struct {
	runner  graph.TripRunner
	timeout time.Duration
}

func NewTripHandler(runner graph.TripRunner, timeout time.Duration) *TripHandler {
	return &TripHandler{runner: runner, timeout: timeout}
}

type planReq struct {
	Message string `json:"message"`
}

type planResp struct {
	Location     string             `json:"location"`
	Days         int                `json:"days"`
	ParseOutcome model.ParseOutcome `json:"parse_outcome"`
	Context      model.ContextData  `json:"context"`
	Itinerary    string             `json:"itinerary"`
}

// Plan handles POST /api/trips/plan.
func (h *TripHandler) Plan(c *gin.Context) {
	var req planReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing message")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	state, err := h.runner.Plan(ctx, req.Message)
	if err != nil {
		writeAppError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, planResp{
		Location:     state.Location,
		Days:         state.Days,
		ParseOutcome: state.ParseOutcome,
		Context:      state.Context,
		Itinerary:    state.FinalPlan,
	})
}
