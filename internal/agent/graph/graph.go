package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/jolly-agents/server/internal/agent/graph/contexts"
	"github.com/jolly-agents/server/internal/agent/graph/nodes"
	"github.com/jolly-agents/server/internal/agent/graph/observers"
	"github.com/jolly-agents/server/internal/agent/graph/parsers"
	"github.com/jolly-agents/server/internal/agent/model"
	"github.com/jolly-agents/server/internal/search"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// maxRunSteps bounds both graphs; neither has loops or branches.
const maxRunSteps = 20

// TripRunner plans an itinerary from one free-text message.
type TripRunner interface {
	Plan(ctx context.Context, message string) (model.TripState, error)
}

// NutritionRunner handles one chat turn and commits it to the session ledger.
type NutritionRunner interface {
	Send(ctx context.Context, turn model.ChatTurn) (model.TurnResult, error)
}

// Config holds everything needed to compose both graphs end-to-end.
// This is a convenience layer over the per-graph configs that also constructs ChatModels.
type Config struct {
	LLM       model.LLMConfig
	Parser    model.ParserModelConfig
	Planner   model.PlannerModelConfig
	Vision    model.VisionModelConfig
	Trip      model.TripConfig
	Nutrition model.NutritionLimits

	Searcher      search.Searcher
	SearchTimeout time.Duration
	Sessions      model.SessionRepository
}

// TripGraphConfig holds all configuration needed to build the itinerary graph.
type TripGraphConfig struct {
	ChatModels   *nodes.ChatModels
	Fetcher      *contexts.Fetcher
	Defaults     parsers.TripDefaults
	ModelTimeout time.Duration
}

// NutritionGraphConfig holds all configuration needed to build the nutrition graph.
type NutritionGraphConfig struct {
	ChatModels   *nodes.ChatModels
	Sessions     model.SessionRepository
	Extractor    *parsers.Extractor
	ModelTimeout time.Duration
	Now          func() time.Time
}

type tripRunner struct {
	runnable compose.Runnable[model.TripRequest, model.TripState]
}

func (r *tripRunner) Plan(ctx context.Context, message string) (model.TripState, error) {
	out, err := r.runnable.Invoke(ctx, model.TripRequest{Message: message},
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Msg("Itinerary run failed")
		return model.TripState{}, err
	}
	return out, nil
}

type nutritionRunner struct {
	runnable compose.Runnable[model.ChatTurn, model.TurnResult]
}

func (r *nutritionRunner) Send(ctx context.Context, turn model.ChatTurn) (model.TurnResult, error) {
	out, err := r.runnable.Invoke(ctx, turn, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		logx.Error().Err(err).Str("session_id", turn.SessionID).Msg("Nutrition turn failed")
		return model.TurnResult{}, err
	}
	return out, nil
}

// BuildRunners creates the chat models and compiles both graphs.
func BuildRunners(ctx context.Context, cfg Config) (TripRunner, NutritionRunner, error) {
	if cfg.Searcher == nil {
		return nil, nil, fmt.Errorf("searcher is nil")
	}
	if cfg.Sessions == nil {
		return nil, nil, fmt.Errorf("session repository is nil")
	}

	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		LLM:     cfg.LLM,
		Parser:  cfg.Parser,
		Planner: cfg.Planner,
		Vision:  cfg.Vision,
	})
	if err != nil {
		return nil, nil, err
	}

	trip, err := BuildTripGraph(ctx, &TripGraphConfig{
		ChatModels:   cms,
		Fetcher:      contexts.NewFetcher(cfg.Searcher, cfg.SearchTimeout),
		Defaults:     parsers.TripDefaults{City: cfg.Trip.DefaultCity, Days: cfg.Trip.DefaultDays},
		ModelTimeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	nutrition, err := BuildNutritionGraph(ctx, &NutritionGraphConfig{
		ChatModels:   cms,
		Sessions:     cfg.Sessions,
		Extractor:    parsers.NewExtractor(cfg.Nutrition),
		ModelTimeout: cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	logx.Debug().Msg("Graphs built successfully")
	return trip, nutrition, nil
}

// BuildTripGraph compiles RequestPrompt -> ParserChatModel -> RequestParser ->
// ContextFetcher -> ItineraryPrompt -> PlannerChatModel -> ItineraryFinalize.
func BuildTripGraph(ctx context.Context, config *TripGraphConfig) (TripRunner, error) {
	if config == nil {
		return nil, fmt.Errorf("trip graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Parser == nil || config.ChatModels.Planner == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Fetcher == nil {
		return nil, fmt.Errorf("context fetcher is nil")
	}
	if config.Defaults.City == "" || config.Defaults.Days < 1 {
		return nil, fmt.Errorf("invalid trip defaults %+v", config.Defaults)
	}

	cms := config.ChatModels
	g := compose.NewGraph[model.TripRequest, model.TripState](
		compose.WithGenLocalState(func(ctx context.Context) *model.TripGraphState {
			return &model.TripGraphState{RunID: uuid.NewString()}
		}),
	)

	g.AddLambdaNode(nodes.NodeRequestPrompt,
		nodes.NewRequestPromptNode(),
		compose.WithStatePreHandler(nodes.NewRequestPromptPreHandler()),
	)
	g.AddChatModelNode(nodes.NodeParserChatModel,
		nodes.WithFallback(cms.Parser, config.ModelTimeout, cms.ParserModelName),
		compose.WithStatePostHandler(nodes.NewTripChatModelPostHandler(cms.ParserModelName, nodes.NodeParserChatModel)),
	)
	g.AddLambdaNode(nodes.NodeRequestParser,
		nodes.NewRequestParserNode(config.Defaults),
		compose.WithStatePostHandler(nodes.NewSnapshotPostHandler(nodes.NodeRequestParser)),
	)
	g.AddLambdaNode(nodes.NodeContextFetcher,
		nodes.NewContextFetcherNode(config.Fetcher),
		compose.WithStatePostHandler(nodes.NewSnapshotPostHandler(nodes.NodeContextFetcher)),
	)
	g.AddLambdaNode(nodes.NodeItineraryPrompt,
		nodes.NewItineraryPromptNode(),
	)
	g.AddChatModelNode(nodes.NodePlannerChatModel,
		nodes.WithTimeout(cms.Planner, config.ModelTimeout),
		compose.WithStatePostHandler(nodes.NewTripChatModelPostHandler(cms.PlannerModelName, nodes.NodePlannerChatModel)),
	)
	g.AddLambdaNode(nodes.NodeItineraryFinalize,
		nodes.NewItineraryFinalizeNode(),
		compose.WithStatePostHandler(nodes.NewSnapshotPostHandler(nodes.NodeItineraryFinalize)),
	)

	if err := addChain(g.AddEdge,
		compose.START,
		nodes.NodeRequestPrompt,
		nodes.NodeParserChatModel,
		nodes.NodeRequestParser,
		nodes.NodeContextFetcher,
		nodes.NodeItineraryPrompt,
		nodes.NodePlannerChatModel,
		nodes.NodeItineraryFinalize,
		compose.END,
	); err != nil {
		return nil, err
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps), compose.WithGraphName("TripPlanner"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling trip graph")
		return nil, fmt.Errorf("error compiling trip graph: %w", err)
	}
	logx.Debug().Msg("Trip graph compiled successfully")
	return &tripRunner{runnable: runnable}, nil
}

// BuildNutritionGraph compiles MessageBuilder -> VisionChatModel ->
// NutritionExtractor -> Ledger.
func BuildNutritionGraph(ctx context.Context, config *NutritionGraphConfig) (NutritionRunner, error) {
	if config == nil {
		return nil, fmt.Errorf("nutrition graph config is nil")
	}
	if config.ChatModels == nil || config.ChatModels.Vision == nil {
		return nil, fmt.Errorf("chat models are not properly initialized")
	}
	if config.Sessions == nil {
		return nil, fmt.Errorf("session repository is nil")
	}
	extractor := config.Extractor
	if extractor == nil {
		extractor = parsers.NewExtractor(model.DefaultNutritionLimits)
	}

	cms := config.ChatModels
	g := compose.NewGraph[model.ChatTurn, model.TurnResult](
		compose.WithGenLocalState(func(ctx context.Context) *model.NutritionGraphState {
			return &model.NutritionGraphState{}
		}),
	)

	g.AddLambdaNode(nodes.NodeMessageBuilder,
		nodes.NewMessageBuilderNode(),
		compose.WithStatePreHandler(nodes.NewMessageBuilderPreHandler(config.Sessions)),
	)
	g.AddChatModelNode(nodes.NodeVisionChatModel,
		nodes.WithTimeout(cms.Vision, config.ModelTimeout),
		compose.WithStatePostHandler(nodes.NewVisionChatModelPostHandler(cms.VisionModelName)),
	)
	g.AddLambdaNode(nodes.NodeNutritionExtractor,
		nodes.NewNutritionExtractorNode(extractor),
	)
	g.AddLambdaNode(nodes.NodeLedger,
		nodes.NewLedgerNode(config.Sessions, config.Now),
	)

	if err := addChain(g.AddEdge,
		compose.START,
		nodes.NodeMessageBuilder,
		nodes.NodeVisionChatModel,
		nodes.NodeNutritionExtractor,
		nodes.NodeLedger,
		compose.END,
	); err != nil {
		return nil, err
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps), compose.WithGraphName("NutritionChat"))
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling nutrition graph")
		return nil, fmt.Errorf("error compiling nutrition graph: %w", err)
	}
	logx.Debug().Msg("Nutrition graph compiled successfully")
	return &nutritionRunner{runnable: runnable}, nil
}

// addChain connects consecutive node keys with edges.
func addChain(addEdge func(from, to string) error, keys ...string) error {
	for i := 0; i+1 < len(keys); i++ {
		if err := addEdge(keys[i], keys[i+1]); err != nil {
			logx.Error().Err(err).Str("from", keys[i]).Str("to", keys[i+1]).Msg("Error adding edge")
			return fmt.Errorf("error adding edge %s -> %s: %w", keys[i], keys[i+1], err)
		}
	}
	return nil
}
