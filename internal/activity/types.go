// Package activity holds the records produced by capture and consumed by
// storage and querying.
package activity

import (
	"encoding/json"
	"time"
)

// KindKeystroke is the only event kind the capture pipeline emits today.
const KindKeystroke = "keystroke"

// Unknown is the sentinel used when the foreground app cannot be determined.
const Unknown = "unknown"

// Modifier names, in the order they appear in a keystroke payload.
const (
	ModShift = "Shift"
	ModCtrl  = "Ctrl"
	ModAlt   = "Alt"
	ModMeta  = "Meta"
)

// AppContext describes the foreground application at a point in time.
type AppContext struct {
	AppName     string `json:"app_name"`
	WindowTitle string `json:"window_title"`
	URL         string `json:"url,omitempty"`
}

// UnknownContext returns the sentinel context used when the probe fails.
func UnknownContext() AppContext {
	return AppContext{AppName: Unknown, WindowTitle: Unknown}
}

// IsUnknown reports whether c is the sentinel context.
func (c AppContext) IsUnknown() bool {
	return c.AppName == Unknown && c.WindowTitle == Unknown && c.URL == ""
}

// Event is one captured activity record.
type Event struct {
	ID        string          `json:"id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Context   AppContext      `json:"context"`
}

// Keystroke is the payload of a keystroke event.
type Keystroke struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"`
}

// NewKeystrokeEvent builds a keystroke event. Modifiers are stored as given;
// callers pass them in Shift, Ctrl, Alt, Meta order.
func NewKeystrokeEvent(ts time.Time, key string, modifiers []string, ctx AppContext) (Event, error) {
	if modifiers == nil {
		modifiers = []string{}
	}
	payload, err := json.Marshal(Keystroke{Key: key, Modifiers: modifiers})
	if err != nil {
		return Event{}, err
	}
	return Event{
		Timestamp: ts,
		Kind:      KindKeystroke,
		Payload:   payload,
		Context:   ctx,
	}, nil
}

// Keystroke decodes the payload of a keystroke event.
func (e Event) Keystroke() (Keystroke, bool) {
	if e.Kind != KindKeystroke {
		return Keystroke{}, false
	}
	var k Keystroke
	if err := json.Unmarshal(e.Payload, &k); err != nil || k.Key == "" {
		return Keystroke{}, false
	}
	return k, true
}

// Summary is a rolled-up description of activity over a time window.
type Summary struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Events      []Event   `json:"events,omitempty"`
}
