package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/jolly-agents/server/internal/agent/graph/contexts"
	"github.com/jolly-agents/server/internal/agent/graph/parsers"
	"github.com/jolly-agents/server/internal/agent/graph/prompts"
	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// NewRequestPromptPreHandler seeds the run snapshot from the incoming message.
func NewRequestPromptPreHandler() func(context.Context, model.TripRequest, *model.TripGraphState) (model.TripRequest, error) {
	return func(ctx context.Context, in model.TripRequest, s *model.TripGraphState) (model.TripRequest, error) {
		if strings.TrimSpace(in.Message) == "" {
			return in, errx.BadRequest(errors.New("trip message is empty"))
		}
		s.Snapshot = model.NewTripState(in.Message)
		s.ParseReason = ""
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewRequestPromptNode renders the city/days extraction prompt.
func NewRequestPromptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TripRequest) ([]*schema.Message, error) {
		return prompts.RenderTripRequest(ctx, in.Message)
	})
}

// NewTripChatModelPostHandler computes and logs usage cost for a model node of the itinerary graph.
func NewTripChatModelPostHandler(modelName, node string) func(context.Context, *schema.Message, *model.TripGraphState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, s *model.TripGraphState) (*schema.Message, error) {
		s.TotalCostUSD += recordUsage(out, modelName, node, "run_id", s.RunID, s.TotalCostUSD)
		return out, nil
	}
}

// NewRequestParserNode turns the parser reply into a parsed TripState. It
// never fails on the reply content; malformed or missing replies fall back to
// defaults.
func NewRequestParserNode(defaults parsers.TripDefaults) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (model.TripState, error) {
		var text, callErr string
		if reply != nil {
			text = reply.Content
			callErr, _ = reply.Extra[ExtraFallbackError].(string)
		}

		res := parsers.ParseTripRequest(text, defaults)
		if callErr != "" {
			res.Reason = "model call failed: " + callErr
		}

		var next model.TripState
		var runID string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TripGraphState) error {
			var err error
			next, err = s.Snapshot.WithRequest(res.Location, res.Days, res.Outcome)
			if err != nil {
				return err
			}
			s.ParseReason = res.Reason
			runID = s.RunID
			return nil
		})
		if err != nil {
			return model.TripState{}, fmt.Errorf("apply trip request: %w", err)
		}

		if res.Outcome == model.ParseOutcomeDefaulted {
			logx.Warn().
				Str("run_id", runID).
				Str("reason", res.Reason).
				Str("location", res.Location).
				Int("days", res.Days).
				Msg("Trip request not understood, using defaults")
		} else {
			logx.Debug().
				Str("run_id", runID).
				Str("location", res.Location).
				Int("days", res.Days).
				Msg("Trip request parsed")
		}
		return next, nil
	})
}

// NewSnapshotPostHandler commits a stage's output as the run snapshot.
func NewSnapshotPostHandler(node string) func(context.Context, model.TripState, *model.TripGraphState) (model.TripState, error) {
	return func(ctx context.Context, out model.TripState, s *model.TripGraphState) (model.TripState, error) {
		s.Snapshot = out
		logx.Debug().Str("run_id", s.RunID).Str("node", node).Stringer("stage", out.Stage).Msg("Trip state committed")
		return out, nil
	}
}

// NewContextFetcherNode gathers search context for the parsed location.
func NewContextFetcherNode(fetcher *contexts.Fetcher) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TripState) (model.TripState, error) {
		data := fetcher.Fetch(ctx, in.Location)
		return in.WithContext(data)
	})
}

// NewItineraryPromptNode renders the itinerary prompt from a fetched TripState.
func NewItineraryPromptNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TripState) ([]*schema.Message, error) {
		return prompts.RenderItinerary(ctx, in)
	})
}

// NewItineraryFinalizeNode stores the planner reply, unmodified, as the final plan.
func NewItineraryFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, reply *schema.Message) (model.TripState, error) {
		if reply == nil {
			return model.TripState{}, errx.WrapModel(errors.New("planner returned no message"))
		}
		var snapshot model.TripState
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TripGraphState) error {
			snapshot = s.Snapshot
			return nil
		})
		if err != nil {
			return model.TripState{}, fmt.Errorf("failed to access state: %w", err)
		}
		return snapshot.WithFinalPlan(reply.Content)
	})
}
