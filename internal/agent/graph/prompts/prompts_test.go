package prompts

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jolly-agents/server/internal/agent/model"
)

func TestRenderTripRequest(t *testing.T) {
	msgs, err := RenderTripRequest(context.Background(), "Plan a 3 day trip to {Puri}")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "'Plan a 3 day trip to {Puri}'")
	assert.Contains(t, msgs[0].Content, "City: <city>")
	assert.Contains(t, msgs[0].Content, "Days: <number>")
}

func fetchedState(t *testing.T) model.TripState {
	t.Helper()
	s, err := model.NewTripState("trip").WithRequest("Bhubaneswar", 2, model.ParseOutcomeParsed)
	require.NoError(t, err)
	s, err = s.WithContext(model.ContextData{
		{Category: model.CategorySpots, Text: "Lingaraj Temple"},
		{Category: model.CategoryFood, Text: "Dahibara"},
		{Category: model.CategoryEvents, Text: "Rath Yatra"},
	})
	require.NoError(t, err)
	return s
}

func TestRenderItinerary(t *testing.T) {
	msgs, err := RenderItinerary(context.Background(), fetchedState(t))
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	content := msgs[0].Content
	assert.Contains(t, content, "Plan a fun 2-day trip to Bhubaneswar")
	assert.Contains(t, content, "Tourist Spots:\nLingaraj Temple")
	assert.Contains(t, content, "Street Food:\nDahibara")
	assert.Contains(t, content, "Events:\nRath Yatra")
	assert.Contains(t, content, "Morning (7–10am)")
	assert.Contains(t, content, "Night (8–12am)")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(content), "'"+ClosingPhrase+"'"))
}

func TestRenderItineraryNeedsFetchedState(t *testing.T) {
	_, err := RenderItinerary(context.Background(), model.NewTripState("x"))
	assert.Error(t, err)
}

func TestBuildUserMessageTextOnly(t *testing.T) {
	msg, err := BuildUserMessage(model.ChatTurn{Text: "  2 rotis and dal "})
	require.NoError(t, err)
	assert.Equal(t, "2 rotis and dal", msg.Content)
	assert.Empty(t, msg.MultiContent)
}

func TestBuildUserMessageWithImage(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF}
	msg, err := BuildUserMessage(model.ChatTurn{Image: img, MIMEType: "image/png"})
	require.NoError(t, err)
	require.Len(t, msg.MultiContent, 2)

	assert.Equal(t, schema.ChatMessagePartTypeText, msg.MultiContent[0].Type)
	assert.Equal(t, DefaultImageQuestion, msg.MultiContent[0].Text)

	part := msg.MultiContent[1]
	assert.Equal(t, schema.ChatMessagePartTypeImageURL, part.Type)
	require.NotNil(t, part.ImageURL)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(img), part.ImageURL.URL)
	assert.Equal(t, "image/png", part.ImageURL.MIMEType)
}

func TestBuildUserMessageEmpty(t *testing.T) {
	_, err := BuildUserMessage(model.ChatTurn{Text: "   "})
	assert.Error(t, err)
}

func TestRenderNutrition(t *testing.T) {
	msgs, err := RenderNutrition(context.Background(), model.ChatTurn{Text: "a bowl of poha"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Total Calories: <integer> kcal")
	assert.Equal(t, "a bowl of poha", msgs[1].Content)
}

func TestNormaliseMIME(t *testing.T) {
	assert.Equal(t, "image/png", NormaliseMIME("IMAGE/PNG"))
	assert.Equal(t, "image/webp", NormaliseMIME("image/webp; charset=binary"))
	assert.Equal(t, "image/jpeg", NormaliseMIME("image/jpg"))
	assert.Equal(t, "image/jpeg", NormaliseMIME(""))
}

func TestDecodeDataURI(t *testing.T) {
	img := []byte{0x89, 'P', 'N', 'G', 0x00, 0xFF}
	data, mime, err := DecodeDataURI(DataURI("image/png", img))
	require.NoError(t, err)
	assert.Equal(t, img, data)
	assert.Equal(t, "image/png", mime)

	assert.True(t, IsDataURI("data:image/png;base64,AA=="))
	assert.False(t, IsDataURI("https://example.com/a.png"))

	for _, bad := range []string{"https://example.com/a.png", "data:image/png;base64", "data:text/plain,hello", "data:image/png;base64,%%%"} {
		_, _, err := DecodeDataURI(bad)
		assert.Error(t, err, bad)
	}
}
