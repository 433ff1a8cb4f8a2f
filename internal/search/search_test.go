package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapsLink(t *testing.T) {
	tests := []struct {
		name     string
		place    string
		location string
		want     string
	}{
		{
			name:     "spaces",
			place:    "Lingaraj Temple",
			location: "Bhubaneswar",
			want:     "https://www.google.com/maps/search/?api=1&query=Lingaraj%20Temple%20Bhubaneswar",
		},
		{
			name:     "reserved characters",
			place:    "Tea & Toast+",
			location: "Puri",
			want:     "https://www.google.com/maps/search/?api=1&query=Tea%20%26%20Toast%2B%20Puri",
		},
		{
			name:     "slash kept",
			place:    "Khandagiri/Udayagiri Caves",
			location: "Bhubaneswar",
			want:     "https://www.google.com/maps/search/?api=1&query=Khandagiri/Udayagiri%20Caves%20Bhubaneswar",
		},
		{
			name:     "unicode",
			place:    "Café",
			location: "Goa",
			want:     "https://www.google.com/maps/search/?api=1&query=Caf%C3%A9%20Goa",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapsLink(tt.place, tt.location))
		})
	}
}
