package prompts

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/jolly-agents/server/internal/agent/model"
)

//go:embed template/nutrition_system_prompt.txt
var nutritionSystemPrompt string

// DefaultImageQuestion is sent alongside an image that came without text.
const DefaultImageQuestion = "What is the nutrition breakdown of this food?"

// DataURI encodes data as a base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", NormaliseMIME(mimeType), base64.StdEncoding.EncodeToString(data))
}

// IsDataURI reports whether s is a "data:" URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// DecodeDataURI reverses DataURI. Only base64 payloads are accepted.
func DecodeDataURI(s string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !IsDataURI(s) || !ok {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	mime, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return nil, "", fmt.Errorf("data URI is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", err
	}
	return data, mime, nil
}

// NormaliseMIME maps upload MIME types onto the image types vision models accept.
// Unknown types fall back to jpeg.
func NormaliseMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "image/png", "image/gif", "image/webp", "image/heic":
		return mimeType
	default:
		return "image/jpeg"
	}
}

// BuildUserMessage combines the turn's text and optional image into one user message.
func BuildUserMessage(turn model.ChatTurn) (*schema.Message, error) {
	text := strings.TrimSpace(turn.Text)
	if !turn.HasImage() {
		if text == "" {
			return nil, fmt.Errorf("turn has neither text nor image")
		}
		return schema.UserMessage(text), nil
	}

	if text == "" {
		text = DefaultImageQuestion
	}
	mime := NormaliseMIME(turn.MIMEType)
	return &schema.Message{
		Role: schema.User,
		MultiContent: []schema.ChatMessagePart{
			{Type: schema.ChatMessagePartTypeText, Text: text},
			{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      DataURI(mime, turn.Image),
					MIMEType: mime,
				},
			},
		},
	}, nil
}

// RenderNutrition returns the system instruction followed by the user message.
func RenderNutrition(ctx context.Context, turn model.ChatTurn) ([]*schema.Message, error) {
	user, err := BuildUserMessage(turn)
	if err != nil {
		return nil, err
	}

	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
		schema.MessagesPlaceholder("user_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(nutritionSystemPrompt)},
		"user_messages":   []*schema.Message{user},
	})
	if err != nil {
		return nil, fmt.Errorf("nutrition prompt render: %w", err)
	}
	if len(msgs) != 2 {
		return nil, fmt.Errorf("nutrition prompt render: got %d messages", len(msgs))
	}
	return msgs, nil
}
