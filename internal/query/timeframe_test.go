package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Wednesday afternoon.
var testNow = time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)

func TestParseTimeframe_Today(t *testing.T) {
	tf := ParseTimeframe("What did I do TODAY?", testNow)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), tf.Start)
	assert.Equal(t, testNow, tf.End)
	assert.Equal(t, "today", tf.Description)
	assert.LessOrEqual(t, tf.End.Sub(tf.Start), 24*time.Hour)
}

func TestParseTimeframe_Yesterday(t *testing.T) {
	tf := ParseTimeframe("yesterday", testNow)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), tf.Start)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), tf.End)
	assert.Equal(t, 24*time.Hour, tf.End.Sub(tf.Start))
}

func TestParseTimeframe_Weeks(t *testing.T) {
	tf := ParseTimeframe("this week", testNow)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), tf.Start)
	assert.Equal(t, testNow, tf.End)

	tf = ParseTimeframe("last week", testNow)
	assert.Equal(t, time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), tf.Start)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), tf.End)
	assert.Equal(t, "last week", tf.Description)
}

func TestParseTimeframe_WeekStartsOnMondayFromSunday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	tf := ParseTimeframe("this week", sunday)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), tf.Start)
}

func TestParseTimeframe_RelativeWindows(t *testing.T) {
	tests := []struct {
		query string
		span  time.Duration
		desc  string
	}{
		{"this month", 3*24*time.Hour + 15*time.Hour + 30*time.Minute, "this month"},
		{"in the last hour", time.Hour, "the last hour"},
		{"over the past hour", time.Hour, "the last hour"},
		{"last 30 minutes", 30 * time.Minute, "the last 30 minutes"},
		{"the last half hour", 30 * time.Minute, "the last 30 minutes"},
		{"in half an hour", 30 * time.Minute, "the last 30 minutes"},
		{"banana", 24 * time.Hour, "the last 24 hours"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			tf := ParseTimeframe(tt.query, testNow)
			assert.Equal(t, testNow, tf.End)
			assert.Equal(t, tt.span, tf.End.Sub(tf.Start))
			assert.Equal(t, tt.desc, tf.Description)
		})
	}
}

func TestParseTimeframe_Precedence(t *testing.T) {
	tf := ParseTimeframe("today or yesterday", testNow)
	assert.Equal(t, "today", tf.Description)

	tf = ParseTimeframe("last week or this week", testNow)
	assert.Equal(t, "this week", tf.Description)
}

func TestParseTimeframe_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	now := time.Date(2026, 3, 4, 2, 0, 0, 0, loc)
	tf := ParseTimeframe("today", now)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, loc), tf.Start)
	assert.Equal(t, 2*time.Hour, tf.End.Sub(tf.Start))
}
