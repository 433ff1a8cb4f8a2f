package model

// TripGraphState is the graph-local state of one itinerary run.
// It is only read or written inside eino state handlers and compose.ProcessState.
//   - Snapshot is the last committed TripState; stages replace it, never mutate it.
//   - ParseReason records why the parse stage fell back to defaults.
type TripGraphState struct {
	RunID       string
	Snapshot    TripState
	ParseReason string

	// Accumulated total LLM cost (USD) across model invocations for this run
	TotalCostUSD float64
}

// NutritionGraphState is the graph-local state of one chat turn.
type NutritionGraphState struct {
	Turn    ChatTurn
	Session ChatSession
	Reply   string

	TotalCostUSD float64
}
