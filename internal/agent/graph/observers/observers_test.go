package observers

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("first"),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: "data:image/png;base64,AA=="}},
				{Type: schema.ChatMessagePartTypeText, Text: " how many calories? "},
			},
		},
		schema.AssistantMessage("ok", nil),
	}

	assert.Equal(t, "how many calories?", lastUserContent(msgs))
	assert.Equal(t, 1, countImages(msgs))
	assert.Equal(t, "", lastUserContent([]*schema.Message{nil, schema.SystemMessage("x")}))
}

func TestTruncate(t *testing.T) {
	short := "namaste"
	assert.Equal(t, short, truncate(short))

	long := strings.Repeat("é", maxLoggedContent+10)
	got := truncate(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, maxLoggedContent+3, len([]rune(got)))
}

func TestNewAllCallbacks(t *testing.T) {
	assert.NotNil(t, NewAllCallbacks())
}
