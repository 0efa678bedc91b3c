package capture

import "strconv"

// evdevKeys maps Linux input-event-codes KEY_* values to canonical names.
var evdevKeys = map[uint16]Key{
	1: "Escape", 2: "Num1", 3: "Num2", 4: "Num3", 5: "Num4", 6: "Num5",
	7: "Num6", 8: "Num7", 9: "Num8", 10: "Num9", 11: "Num0",
	12: "Minus", 13: "Equal", 14: "Backspace", 15: "Tab",
	16: "KeyQ", 17: "KeyW", 18: "KeyE", 19: "KeyR", 20: "KeyT",
	21: "KeyY", 22: "KeyU", 23: "KeyI", 24: "KeyO", 25: "KeyP",
	26: "LeftBracket", 27: "RightBracket", 28: "Return", 29: "ControlLeft",
	30: "KeyA", 31: "KeyS", 32: "KeyD", 33: "KeyF", 34: "KeyG",
	35: "KeyH", 36: "KeyJ", 37: "KeyK", 38: "KeyL",
	39: "SemiColon", 40: "Quote", 41: "BackQuote", 42: "ShiftLeft", 43: "BackSlash",
	44: "KeyZ", 45: "KeyX", 46: "KeyC", 47: "KeyV", 48: "KeyB",
	49: "KeyN", 50: "KeyM",
	51: "Comma", 52: "Dot", 53: "Slash", 54: "ShiftRight", 55: "KpMultiply",
	56: "Alt", 57: "Space", 58: "CapsLock",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5",
	64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	69: "NumLock", 70: "ScrollLock", 87: "F11", 88: "F12",
	96: "KpReturn", 97: "ControlRight", 100: "AltGr",
	102: "Home", 103: "UpArrow", 104: "PageUp", 105: "LeftArrow",
	106: "RightArrow", 107: "End", 108: "DownArrow", 109: "PageDown",
	110: "Insert", 111: "Delete", 125: "MetaLeft", 126: "MetaRight",
}

// KeyFromEvdev returns the canonical name for an evdev key code.
func KeyFromEvdev(code uint16) Key {
	if k, ok := evdevKeys[code]; ok {
		return k
	}
	return Key("Unknown(" + strconv.Itoa(int(code)) + ")")
}
