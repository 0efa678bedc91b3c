// Package query turns natural-language questions about past activity into
// store lookups.
package query

import (
	"strings"
	"time"
)

// Timeframe is a resolved time window plus a label for responses.
type Timeframe struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description"`
}

// ParseTimeframe picks the first recognized time phrase in query and
// resolves it relative to now. Calendar boundaries use now's location.
// Queries without a recognized phrase cover the last 24 hours.
func ParseTimeframe(query string, now time.Time) Timeframe {
	q := strings.ToLower(query)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monday := midnight.AddDate(0, 0, -daysSinceMonday(now.Weekday()))

	switch {
	case strings.Contains(q, "today"):
		return Timeframe{Start: midnight, End: now, Description: "today"}
	case strings.Contains(q, "yesterday"):
		return Timeframe{Start: midnight.AddDate(0, 0, -1), End: midnight, Description: "yesterday"}
	case strings.Contains(q, "this week"):
		return Timeframe{Start: monday, End: now, Description: "this week"}
	case strings.Contains(q, "last week"):
		return Timeframe{Start: monday.AddDate(0, 0, -7), End: monday, Description: "last week"}
	case strings.Contains(q, "this month"):
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return Timeframe{Start: first, End: now, Description: "this month"}
	case strings.Contains(q, "last hour"), strings.Contains(q, "past hour"):
		return Timeframe{Start: now.Add(-time.Hour), End: now, Description: "the last hour"}
	case strings.Contains(q, "30 min"), strings.Contains(q, "half hour"), strings.Contains(q, "half an hour"):
		return Timeframe{Start: now.Add(-30 * time.Minute), End: now, Description: "the last 30 minutes"}
	default:
		return Timeframe{Start: now.Add(-24 * time.Hour), End: now, Description: "the last 24 hours"}
	}
}

func daysSinceMonday(d time.Weekday) int {
	return (int(d) + 6) % 7
}
