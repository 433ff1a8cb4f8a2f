package model

import "time"

// ================ Config ================
type LLMConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string        `envconfig:"GEMINI_BASE_URL"`
	Timeout time.Duration `envconfig:"MODEL_TIMEOUT" default:"60s"`
}

// ParserModelConfig configures the model that extracts city and days from a trip request.
type ParserModelConfig struct {
	Model       string  `envconfig:"PARSER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"PARSER_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"PARSER_TEMPERATURE" default:"0.1"`
}

// PlannerModelConfig configures the itinerary writer.
type PlannerModelConfig struct {
	Model       string  `envconfig:"PLANNER_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"PLANNER_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"PLANNER_TEMPERATURE" default:"0.7"`
}

// VisionModelConfig configures the multimodal nutrition assistant.
type VisionModelConfig struct {
	Model       string  `envconfig:"VISION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"VISION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"VISION_TEMPERATURE" default:"0.4"`
}

type TripConfig struct {
	DefaultCity string `envconfig:"TRIP_DEFAULT_CITY" default:"Bhubaneswar"`
	DefaultDays int    `envconfig:"TRIP_DEFAULT_DAYS" default:"3"`
}

type SearchConfig struct {
	Backend          string        `envconfig:"SEARCH_BACKEND" default:"serpapi"`
	Timeout          time.Duration `envconfig:"SEARCH_TIMEOUT" default:"10s"`
	SerpAPIKey       string        `envconfig:"SERPAPI_API_KEY"`
	SerpAPIBaseURL   string        `envconfig:"SERPAPI_BASE_URL" default:"https://serpapi.com/search.json"`
	Language         string        `envconfig:"SERPAPI_HL" default:"en"`
	Country          string        `envconfig:"SERPAPI_GL" default:"in"`
	GoogleMapsAPIKey string        `envconfig:"GOOGLE_MAPS_API_KEY"`
}

type SessionConfig struct {
	Backend string        `envconfig:"SESSION_BACKEND" default:"memory"`
	TTL     time.Duration `envconfig:"SESSION_TTL" default:"30m"`
}

// NutritionLimits bounds the values accepted from model output; anything
// larger is treated as not found.
type NutritionLimits struct {
	MaxCalories int     `envconfig:"NUTRITION_MAX_CALORIES" default:"10000"`
	MaxProtein  float64 `envconfig:"NUTRITION_MAX_PROTEIN" default:"1000"`
	MaxSugar    float64 `envconfig:"NUTRITION_MAX_SUGAR" default:"1000"`
}

// DefaultNutritionLimits mirrors the envconfig defaults.
var DefaultNutritionLimits = NutritionLimits{
	MaxCalories: 10000,
	MaxProtein:  1000,
	MaxSugar:    1000,
}
