package model

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	errx "github.com/jolly-agents/server/internal/core/error"
)

// Category names one of the three context blocks gathered for a trip.
type Category string

const (
	CategorySpots  Category = "spots"
	CategoryFood   Category = "food"
	CategoryEvents Category = "events"
)

// Categories lists every category in the order blocks are assembled.
var Categories = []Category{CategorySpots, CategoryFood, CategoryEvents}

// CategoryBlock is the rendered result list for one category.
type CategoryBlock struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
}

// ContextData holds one block per category, always in Categories order.
type ContextData []CategoryBlock

// Block returns the text for c, or "" when absent.
func (d ContextData) Block(c Category) string {
	for _, b := range d {
		if b.Category == c {
			return b.Text
		}
	}
	return ""
}

// Complete reports whether d has exactly the known categories in order.
func (d ContextData) Complete() bool {
	if len(d) != len(Categories) {
		return false
	}
	for i, c := range Categories {
		if d[i].Category != c {
			return false
		}
	}
	return true
}

// Map returns the blocks keyed by category name.
func (d ContextData) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, b := range d {
		m[string(b.Category)] = b.Text
	}
	return m
}

// Stage records how far a TripState has progressed.
type Stage int

const (
	StageNew Stage = iota
	StageParsed
	StageFetched
	StagePlanned
)

func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageParsed:
		return "parsed"
	case StageFetched:
		return "fetched"
	case StagePlanned:
		return "planned"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// ParseOutcome tells whether the destination came from the model reply or the default pair.
type ParseOutcome string

const (
	ParseOutcomeParsed    ParseOutcome = "parsed"
	ParseOutcomeDefaulted ParseOutcome = "defaulted"
)

// TripRequest is the input of the itinerary pipeline.
type TripRequest struct {
	Message string `json:"message"`
}

// TripState is the snapshot passed between itinerary stages. Every With*
// method returns a new value; the receiver is never modified.
type TripState struct {
	Conversation []*schema.Message
	Location     string
	Days         int
	Context      ContextData
	FinalPlan    string
	Stage        Stage
	ParseOutcome ParseOutcome
}

// NewTripState starts a trip from the user's message.
func NewTripState(message string) TripState {
	return TripState{
		Conversation: []*schema.Message{schema.UserMessage(message)},
		Stage:        StageNew,
	}
}

// LatestUtterance returns the content of the last user message.
func (s TripState) LatestUtterance() string {
	for i := len(s.Conversation) - 1; i >= 0; i-- {
		if m := s.Conversation[i]; m != nil && m.Role == schema.User {
			return m.Content
		}
	}
	return ""
}

func (s TripState) clone() TripState {
	out := s
	out.Conversation = append([]*schema.Message(nil), s.Conversation...)
	out.Context = append(ContextData(nil), s.Context...)
	return out
}

func (s TripState) require(stage Stage, next string) error {
	if s.Stage != stage {
		return fmt.Errorf("%w: %s requires stage %s, have %s", errx.ErrStageOrder, next, stage, s.Stage)
	}
	return nil
}

// WithRequest sets the destination and trip length.
func (s TripState) WithRequest(location string, days int, outcome ParseOutcome) (TripState, error) {
	if err := s.require(StageNew, "request"); err != nil {
		return s, err
	}
	if strings.TrimSpace(location) == "" || days < 1 {
		return s, fmt.Errorf("invalid trip request: location=%q days=%d", location, days)
	}
	out := s.clone()
	out.Location = location
	out.Days = days
	out.ParseOutcome = outcome
	out.Stage = StageParsed
	return out, nil
}

// WithContext sets the per-category search blocks.
func (s TripState) WithContext(data ContextData) (TripState, error) {
	if err := s.require(StageParsed, "context"); err != nil {
		return s, err
	}
	if !data.Complete() {
		return s, fmt.Errorf("context data must hold %v in order", Categories)
	}
	out := s.clone()
	out.Context = append(ContextData(nil), data...)
	out.Stage = StageFetched
	return out, nil
}

// WithFinalPlan stores the generated itinerary and records it in the conversation.
func (s TripState) WithFinalPlan(plan string) (TripState, error) {
	if err := s.require(StageFetched, "plan"); err != nil {
		return s, err
	}
	out := s.clone()
	out.FinalPlan = plan
	out.Conversation = append(out.Conversation, schema.AssistantMessage(plan, nil))
	out.Stage = StagePlanned
	return out, nil
}
