package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/jolly-agents/server/internal/agent/model"
	errx "github.com/jolly-agents/server/internal/core/error"
	logx "github.com/jolly-agents/server/pkg/logger"
)

// ExtraFallbackError marks an assistant message substituted for a failed call.
const ExtraFallbackError = "fallback_error"

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	LLM     model.LLMConfig
	Parser  model.ParserModelConfig
	Planner model.PlannerModelConfig
	Vision  model.VisionModelConfig
}

// ChatModels holds one chat model per pipeline stage that talks to an LLM.
type ChatModels struct {
	Parser  einomodel.BaseChatModel
	Planner einomodel.BaseChatModel
	Vision  einomodel.BaseChatModel

	ParserModelName  string
	PlannerModelName string
	VisionModelName  string
}

// NewChatModels creates the Gemini chat models sharing one genai client.
// The vision model sends images inline; see visionChatModel.
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.LLM.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.LLM.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.LLM.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	parser, err := newGemini(ctx, client, config.Parser.Model, config.Parser.Temperature, config.Parser.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating parser model: %w", err)
	}
	planner, err := newGemini(ctx, client, config.Planner.Model, config.Planner.Temperature, config.Planner.MaxTokens)
	if err != nil {
		return nil, fmt.Errorf("error creating planner model: %w", err)
	}
	vision := newVisionChatModel(client, config.Vision.Model, config.Vision.Temperature, config.Vision.MaxTokens)

	return &ChatModels{
		Parser:           parser,
		Planner:          planner,
		Vision:           vision,
		ParserModelName:  config.Parser.Model,
		PlannerModelName: config.Planner.Model,
		VisionModelName:  config.Vision.Model,
	}, nil
}

func newGemini(ctx context.Context, client *genai.Client, name string, temperature float32, maxTokens int) (*gemini.ChatModel, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       name,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", name).Msg("Error creating chat model")
		return nil, err
	}
	return cm, nil
}

// boundedChatModel limits every Generate call to timeout and tags failures as model errors.
type boundedChatModel struct {
	inner   einomodel.BaseChatModel
	timeout time.Duration
}

// WithTimeout bounds Generate calls on cm. A zero timeout only tags errors.
func WithTimeout(cm einomodel.BaseChatModel, timeout time.Duration) einomodel.BaseChatModel {
	return &boundedChatModel{inner: cm, timeout: timeout}
}

func (m *boundedChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	out, err := m.inner.Generate(ctx, input, opts...)
	if err != nil {
		return nil, errx.WrapModel(err)
	}
	return out, nil
}

// Stream is not bounded: the reader outlives this call.
func (m *boundedChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	sr, err := m.inner.Stream(ctx, input, opts...)
	if err != nil {
		return nil, errx.WrapModel(err)
	}
	return sr, nil
}

// IsCallbacksEnabled defers to the wrapped model so callbacks fire exactly once.
func (m *boundedChatModel) IsCallbacksEnabled() bool {
	c, ok := m.inner.(components.Checker)
	return ok && c.IsCallbacksEnabled()
}

func (m *boundedChatModel) GetType() string {
	if t, ok := m.inner.(components.Typer); ok {
		return t.GetType()
	}
	return "BoundedChatModel"
}

// fallbackChatModel never fails Generate: errors become an empty assistant
// message carrying the error text in Extra[ExtraFallbackError].
type fallbackChatModel struct {
	*boundedChatModel
	name string
}

// WithFallback wraps cm so a failed call degrades to an empty reply.
func WithFallback(cm einomodel.BaseChatModel, timeout time.Duration, name string) einomodel.BaseChatModel {
	return &fallbackChatModel{boundedChatModel: &boundedChatModel{inner: cm, timeout: timeout}, name: name}
}

func (m *fallbackChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out, err := m.boundedChatModel.Generate(ctx, input, opts...)
	if err == nil && out != nil {
		return out, nil
	}
	if err == nil {
		err = fmt.Errorf("model returned no message")
	}
	logx.Warn().Err(err).Str("model", m.name).Msg("Model call failed, continuing with empty reply")
	msg := schema.AssistantMessage("", nil)
	msg.Extra = map[string]any{ExtraFallbackError: err.Error()}
	return msg, nil
}

var (
	_ einomodel.BaseChatModel = (*boundedChatModel)(nil)
	_ einomodel.BaseChatModel = (*fallbackChatModel)(nil)
)
