package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/jolly-agents/server/internal/agent/graph/prompts"
)

const visionModelType = "GeminiVision"

// visionChatModel talks to Gemini through genai directly so that image parts
// given as data URIs are sent inline as bytes rather than as file references.
type visionChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

func newVisionChatModel(client *genai.Client, name string, temperature float32, maxTokens int) *visionChatModel {
	return &visionChatModel{client: client, model: name, temperature: temperature, maxTokens: maxTokens}
}

func (m *visionChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (out *schema.Message, err error) {
	ctx = callbacks.EnsureRunInfo(ctx, m.GetType(), components.ComponentOfChatModel)

	common := einomodel.GetCommonOptions(&einomodel.Options{
		Temperature: &m.temperature,
		MaxTokens:   &m.maxTokens,
		Model:       &m.model,
	}, opts...)
	conf := &einomodel.Config{Model: *common.Model, MaxTokens: *common.MaxTokens, Temperature: *common.Temperature}

	ctx = callbacks.OnStart(ctx, &einomodel.CallbackInput{Messages: input, Config: conf})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
		}
	}()

	if len(input) == 0 {
		return nil, fmt.Errorf("vision input is empty")
	}

	genConf := &genai.GenerateContentConfig{
		Temperature:     common.Temperature,
		MaxOutputTokens: int32(*common.MaxTokens),
	}
	var contents []*genai.Content
	for _, msg := range input {
		if msg == nil {
			continue
		}
		content, err := toGenaiContent(msg)
		if err != nil {
			return nil, err
		}
		if msg.Role == schema.System {
			genConf.SystemInstruction = content
			continue
		}
		contents = append(contents, content)
	}

	resp, err := m.client.Models.GenerateContent(ctx, conf.Model, contents, genConf)
	if err != nil {
		return nil, fmt.Errorf("send message fail: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("gemini result is empty")
	}

	out = schema.AssistantMessage(resp.Text(), nil)
	out.ResponseMeta = &schema.ResponseMeta{FinishReason: string(resp.Candidates[0].FinishReason)}
	cbOut := &einomodel.CallbackOutput{Message: out, Config: conf}
	if u := resp.UsageMetadata; u != nil {
		out.ResponseMeta.Usage = &schema.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
		cbOut.TokenUsage = &einomodel.TokenUsage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	callbacks.OnEnd(ctx, cbOut)
	return out, nil
}

// Stream yields the full Generate reply as a single chunk.
func (m *visionChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	out, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{out}), nil
}

func (m *visionChatModel) IsCallbacksEnabled() bool {
	return true
}

func (m *visionChatModel) GetType() string {
	return visionModelType
}

func toGenaiContent(msg *schema.Message) (*genai.Content, error) {
	role := genai.Role(genai.RoleUser)
	if msg.Role == schema.Assistant {
		role = genai.RoleModel
	}

	var parts []*genai.Part
	if msg.Content != "" {
		parts = append(parts, genai.NewPartFromText(msg.Content))
	}
	for _, part := range msg.MultiContent {
		switch part.Type {
		case schema.ChatMessagePartTypeText:
			parts = append(parts, genai.NewPartFromText(part.Text))
		case schema.ChatMessagePartTypeImageURL:
			if part.ImageURL == nil {
				continue
			}
			p, err := imagePart(part.ImageURL)
			if err != nil {
				return nil, err
			}
			parts = append(parts, p)
		}
	}
	return genai.NewContentFromParts(parts, role), nil
}

// imagePart inlines data URIs and passes any other reference through as a file URI.
func imagePart(img *schema.ChatMessageImageURL) (*genai.Part, error) {
	if prompts.IsDataURI(img.URL) {
		data, mime, err := prompts.DecodeDataURI(img.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid image data: %w", err)
		}
		if img.MIMEType != "" {
			mime = img.MIMEType
		}
		return genai.NewPartFromBytes(data, mime), nil
	}
	uri := img.URI
	if uri == "" {
		uri = img.URL
	}
	if uri == "" {
		return nil, fmt.Errorf("image part has no data")
	}
	return genai.NewPartFromURI(uri, img.MIMEType), nil
}

var _ einomodel.BaseChatModel = (*visionChatModel)(nil)
