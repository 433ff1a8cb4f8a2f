// Package search defines the place-search collaborator used to gather trip context.
package search

import (
	"context"
	"net/url"
	"strings"
)

// Searcher runs a free-text query scoped to a location.
type Searcher interface {
	Search(ctx context.Context, query, location string) (*Response, error)
}

// Response carries the two independent result lists a search returns.
type Response struct {
	Local   []LocalResult   `json:"local_results"`
	Organic []OrganicResult `json:"organic_results"`
}

// LocalResult is a place listing.
type LocalResult struct {
	Title string `json:"title"`
}

// OrganicResult is a web result.
type OrganicResult struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

const mapsSearchURL = "https://www.google.com/maps/search/?api=1&query="

// MapsLink builds a Google Maps search deep-link for name in location.
// Spaces are encoded as %20 and slashes are left as is.
func MapsLink(name, location string) string {
	q := mapsQueryReplacer.Replace(url.QueryEscape(name + " " + location))
	return mapsSearchURL + q
}

var mapsQueryReplacer = strings.NewReplacer("+", "%20", "%2F", "/")
