package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jolly-agents/server/internal/agent/model"
)

// maxReplyLen caps how much of a model reply the parsers look at.
const maxReplyLen = 64 * 1024

// TripDefaults is the pair used whenever a reply cannot be parsed.
type TripDefaults struct {
	City string
	Days int
}

// TripRequestResult is the outcome of parsing the request model reply.
type TripRequestResult struct {
	Location string
	Days     int
	Outcome  model.ParseOutcome
	// Reason is set when Outcome is defaulted.
	Reason string
}

// ParseTripRequest reads a reply of the form
//
//	City: <city>
//	Days: <n>
//
// Any deviation yields the defaults with Outcome defaulted; it never fails.
func ParseTripRequest(reply string, defaults TripDefaults) TripRequestResult {
	city, days, err := parseCityDays(reply)
	if err != nil {
		return TripRequestResult{
			Location: defaults.City,
			Days:     defaults.Days,
			Outcome:  model.ParseOutcomeDefaulted,
			Reason:   err.Error(),
		}
	}
	return TripRequestResult{Location: city, Days: days, Outcome: model.ParseOutcomeParsed}
}

func parseCityDays(reply string) (string, int, error) {
	if len(reply) > maxReplyLen {
		reply = reply[:maxReplyLen]
	}
	lines := strings.Split(strings.TrimSpace(reply), "\n")
	if len(lines) < 2 {
		return "", 0, fmt.Errorf("expected 2 lines, got %d", len(lines))
	}

	city, err := labeledValue(lines[0])
	if err != nil {
		return "", 0, fmt.Errorf("city line: %w", err)
	}
	if city == "" {
		return "", 0, fmt.Errorf("city line: empty value")
	}

	rawDays, err := labeledValue(lines[1])
	if err != nil {
		return "", 0, fmt.Errorf("days line: %w", err)
	}
	days, err := strconv.Atoi(rawDays)
	if err != nil {
		return "", 0, fmt.Errorf("days line: %w", err)
	}
	if days < 1 {
		return "", 0, fmt.Errorf("days line: %d is not positive", days)
	}
	return city, days, nil
}

// labeledValue returns the trimmed text after the first colon.
func labeledValue(line string) (string, error) {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", fmt.Errorf("missing colon in %q", safeSnippet(line))
	}
	return strings.TrimSpace(value), nil
}

const maxErrSnippet = 80

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
