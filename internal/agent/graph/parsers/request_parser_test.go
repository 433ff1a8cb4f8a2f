package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jolly-agents/server/internal/agent/model"
)

var defaults = TripDefaults{City: "Bhubaneswar", Days: 3}

func TestParseTripRequestWellFormed(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantCity string
		wantDays int
	}{
		{name: "plain", reply: "City: Bhubaneswar\nDays: 3", wantCity: "Bhubaneswar", wantDays: 3},
		{name: "extra whitespace", reply: "  City:   Puri  \n Days:  5 \n", wantCity: "Puri", wantDays: 5},
		{name: "crlf", reply: "City: Cuttack\r\nDays: 2\r\n", wantCity: "Cuttack", wantDays: 2},
		{name: "colon in value", reply: "City: Washington: DC\nDays: 1", wantCity: "Washington: DC", wantDays: 1},
		{name: "trailing lines ignored", reply: "City: Goa\nDays: 7\nEnjoy!", wantCity: "Goa", wantDays: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTripRequest(tt.reply, defaults)
			assert.Equal(t, tt.wantCity, got.Location)
			assert.Equal(t, tt.wantDays, got.Days)
			assert.Equal(t, model.ParseOutcomeParsed, got.Outcome)
			assert.Empty(t, got.Reason)
		})
	}
}

func TestParseTripRequestFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "empty", reply: ""},
		{name: "single line", reply: "City: Puri"},
		{name: "missing colon", reply: "Puri\nDays: 2"},
		{name: "days missing colon", reply: "City: Puri\n2 days"},
		{name: "non integer days", reply: "City: Puri\nDays: three"},
		{name: "fractional days", reply: "City: Puri\nDays: 2.5"},
		{name: "zero days", reply: "City: Puri\nDays: 0"},
		{name: "negative days", reply: "City: Puri\nDays: -1"},
		{name: "empty city", reply: "City:\nDays: 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTripRequest(tt.reply, defaults)
			assert.Equal(t, "Bhubaneswar", got.Location)
			assert.Equal(t, 3, got.Days)
			assert.Equal(t, model.ParseOutcomeDefaulted, got.Outcome)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestParseTripRequestCRLFValue(t *testing.T) {
	// the \r left by splitting on \n must not break Atoi
	got := ParseTripRequest("City: Puri\r\nDays: 4\r", defaults)
	assert.Equal(t, model.ParseOutcomeParsed, got.Outcome)
	assert.Equal(t, 4, got.Days)
}
