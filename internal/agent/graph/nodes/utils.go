package nodes

import (
	"github.com/cloudwego/eino/schema"

	"github.com/jolly-agents/server/internal/agent/model"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// Itinerary graph nodes.
const (
	NodeRequestPrompt     = "RequestPrompt"
	NodeParserChatModel   = "ParserChatModel"
	NodeRequestParser     = "RequestParser"
	NodeContextFetcher    = "ContextFetcher"
	NodeItineraryPrompt   = "ItineraryPrompt"
	NodePlannerChatModel  = "PlannerChatModel"
	NodeItineraryFinalize = "ItineraryFinalize"
)

// Nutrition graph nodes.
const (
	NodeMessageBuilder     = "MessageBuilder"
	NodeVisionChatModel    = "VisionChatModel"
	NodeNutritionExtractor = "NutritionExtractor"
	NodeLedger             = "Ledger"
)

// recordUsage attaches the usage cost of out to its Extra, logs it and
// returns the cost so the caller can add it to the run total.
func recordUsage(out *schema.Message, modelName, node, key, id string, runningTotal float64) float64 {
	cost, ok := model.UsageCostOf(out, modelName)
	if !ok {
		return 0
	}
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             cost.Model,
		"prompt_tokens":     cost.PromptTokens,
		"completion_tokens": cost.CompletionTokens,
		"total_tokens":      cost.TotalTokens,
		"input_cost":        cost.InputCost,
		"output_cost":       cost.OutputCost,
		"total_cost":        cost.TotalCost,
	}
	out.Extra["usage_cost_total_usd"] = runningTotal + cost.TotalCost

	logx.Debug().
		Str(key, id).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", cost.PromptTokens).
		Int("completion_tokens", cost.CompletionTokens).
		Int("total_tokens", cost.TotalTokens).
		Float64("input_cost_usd", cost.InputCost).
		Float64("output_cost_usd", cost.OutputCost).
		Float64("total_cost_usd", cost.TotalCost).
		Msg("LLM usage")

	return cost.TotalCost
}
