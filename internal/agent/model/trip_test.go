package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/jolly-agents/server/internal/core/error"
)

func fullContext() ContextData {
	return ContextData{
		{Category: CategorySpots, Text: "Lingaraj Temple"},
		{Category: CategoryFood, Text: "Dahibara Aloodum"},
		{Category: CategoryEvents, Text: "No results found"},
	}
}

func TestTripStateStagesInOrder(t *testing.T) {
	s0 := NewTripState("Plan a 3 day trip to Bhubaneswar")
	assert.Equal(t, "Plan a 3 day trip to Bhubaneswar", s0.LatestUtterance())

	s1, err := s0.WithRequest("Bhubaneswar", 3, ParseOutcomeParsed)
	require.NoError(t, err)
	s2, err := s1.WithContext(fullContext())
	require.NoError(t, err)
	s3, err := s2.WithFinalPlan("Day 1: ...")
	require.NoError(t, err)

	assert.Equal(t, StagePlanned, s3.Stage)
	assert.Equal(t, "Bhubaneswar", s3.Location)
	assert.Equal(t, 3, s3.Days)
	assert.Equal(t, "Dahibara Aloodum", s3.Context.Block(CategoryFood))
	assert.Len(t, s3.Conversation, 2)
	assert.Equal(t, schema.Assistant, s3.Conversation[1].Role)

	// earlier snapshots are untouched
	assert.Equal(t, StageNew, s0.Stage)
	assert.Empty(t, s0.Location)
	assert.Len(t, s2.Conversation, 1)
	assert.Empty(t, s2.FinalPlan)
}

func TestTripStateRejectsOutOfOrder(t *testing.T) {
	s0 := NewTripState("hello")

	_, err := s0.WithContext(fullContext())
	assert.ErrorIs(t, err, errx.ErrStageOrder)

	_, err = s0.WithFinalPlan("plan")
	assert.ErrorIs(t, err, errx.ErrStageOrder)

	s1, err := s0.WithRequest("Puri", 2, ParseOutcomeParsed)
	require.NoError(t, err)
	_, err = s1.WithRequest("Puri", 2, ParseOutcomeParsed)
	assert.ErrorIs(t, err, errx.ErrStageOrder)
}

func TestTripStateValidatesInputs(t *testing.T) {
	s0 := NewTripState("hello")
	_, err := s0.WithRequest("", 2, ParseOutcomeParsed)
	assert.Error(t, err)
	_, err = s0.WithRequest("Puri", 0, ParseOutcomeParsed)
	assert.Error(t, err)

	s1, err := s0.WithRequest("Puri", 2, ParseOutcomeParsed)
	require.NoError(t, err)
	_, err = s1.WithContext(fullContext()[:2])
	assert.Error(t, err)
}

func TestContextDataMap(t *testing.T) {
	m := fullContext().Map()
	assert.Len(t, m, 3)
	assert.Equal(t, "Lingaraj Temple", m["spots"])
	assert.Equal(t, "", ContextData{}.Block(CategorySpots))
}
