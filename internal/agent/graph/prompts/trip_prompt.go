package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/jolly-agents/server/internal/agent/model"
)

// ClosingPhrase is the sign-off every itinerary is asked to end with.
const ClosingPhrase = "aur chahiye toh message kardena! 😁"

//go:embed template/trip_request_prompt.txt
var tripRequestPrompt string

//go:embed template/itinerary_prompt.txt
var itineraryPrompt string

// RenderTripRequest builds the messages asking the model for a city and a day count.
func RenderTripRequest(ctx context.Context, message string) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(tripRequestPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"message": message,
	})
	if err != nil {
		return nil, fmt.Errorf("trip request prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("trip request prompt render: empty result")
	}
	return msgs, nil
}

// RenderItinerary builds the single prompt that turns a fetched TripState into a plan.
func RenderItinerary(ctx context.Context, state model.TripState) ([]*schema.Message, error) {
	if state.Stage != model.StageFetched {
		return nil, fmt.Errorf("itinerary prompt needs a fetched state, have %s", state.Stage)
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(itineraryPrompt),
	)
	vars := map[string]any{
		"Days":          state.Days,
		"City":          state.Location,
		"Spots":         state.Context.Block(model.CategorySpots),
		"Food":          state.Context.Block(model.CategoryFood),
		"Events":        state.Context.Block(model.CategoryEvents),
		"ClosingPhrase": ClosingPhrase,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("itinerary prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("itinerary prompt render: empty result")
	}
	return msgs, nil
}
