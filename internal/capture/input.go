// Package capture turns raw keyboard input into activity events.
package capture

import (
	"context"

	"github.com/runnerr0/secondbrain/internal/activity"
)

// InputKind classifies a raw input event.
type InputKind int

const (
	KeyDown InputKind = iota
	KeyUp
	Other
)

// Key is a canonical key name such as "KeyA", "Return" or "ShiftLeft".
type Key string

// InputEvent is one observation from an input source.
type InputEvent struct {
	Kind InputKind
	Key  Key
}

// InputSource delivers raw input events. Listen calls handle from a single
// goroutine and blocks until ctx is done (returning nil) or the source
// fails (returning the error).
type InputSource interface {
	Listen(ctx context.Context, handle func(InputEvent)) error
}

// modifierOf maps modifier keys to the modifier name recorded in payloads.
func modifierOf(k Key) (string, bool) {
	switch k {
	case "ShiftLeft", "ShiftRight":
		return activity.ModShift, true
	case "ControlLeft", "ControlRight":
		return activity.ModCtrl, true
	case "Alt", "AltGr":
		return activity.ModAlt, true
	case "MetaLeft", "MetaRight":
		return activity.ModMeta, true
	}
	return "", false
}

// ScriptSource replays a fixed list of events, then waits for ctx.
type ScriptSource struct {
	Events []InputEvent
	// Done, if set, is closed after the last event has been handled.
	Done chan struct{}
}

func (s *ScriptSource) Listen(ctx context.Context, handle func(InputEvent)) error {
	for _, ev := range s.Events {
		if ctx.Err() != nil {
			return nil
		}
		handle(ev)
	}
	if s.Done != nil {
		close(s.Done)
	}
	<-ctx.Done()
	return nil
}

// Typed returns the key presses that type text, for scripted sessions.
// Letters, digits and spaces are supported; anything else is skipped.
// Upper-case letters are wrapped in a ShiftLeft press.
func Typed(text string) []InputEvent {
	var out []InputEvent
	for _, r := range text {
		var key Key
		shift := false
		switch {
		case r >= 'a' && r <= 'z':
			key = Key("Key" + string(r-'a'+'A'))
		case r >= 'A' && r <= 'Z':
			key = Key("Key" + string(r))
			shift = true
		case r >= '0' && r <= '9':
			key = Key("Num" + string(r))
		case r == ' ':
			key = "Space"
		case r == '\n':
			key = "Return"
		default:
			continue
		}
		if shift {
			out = append(out, InputEvent{Kind: KeyDown, Key: "ShiftLeft"})
		}
		out = append(out, InputEvent{Kind: KeyDown, Key: key}, InputEvent{Kind: KeyUp, Key: key})
		if shift {
			out = append(out, InputEvent{Kind: KeyUp, Key: "ShiftLeft"})
		}
	}
	return out
}
