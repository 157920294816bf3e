package hal

import "strings"

// ParsePull accepts "up", "down", "pullup", "pulldown"; anything else is
// PullNone.
func ParsePull(s string) Pull {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "pullup":
		return PullUp
	case "down", "pulldown":
		return PullDown
	default:
		return PullNone
	}
}

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}

// ParseEdge converts "rising", "falling", "both" (case-insensitive); other
// strings are EdgeNone.
func ParseEdge(s string) Edge {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rising":
		return EdgeRising
	case "falling":
		return EdgeFalling
	case "both":
		return EdgeBoth
	default:
		return EdgeNone
	}
}
