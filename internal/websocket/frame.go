package websocket

import (
	"github.com/goccy/go-json"

	"github.com/SARVESHVARADKAR123/RealChat/internal/domain"
)

type FrameKind int

const (
	FrameIgnored FrameKind = iota
	FrameTyping
	FrameMessage
)

func (k FrameKind) String() string {
	switch k {
	case FrameTyping:
		return "typing"
	case FrameMessage:
		return "message"
	default:
		return "ignored"
	}
}

type Frame struct {
	Kind   FrameKind
	Typing bool
	Text   string
}

// ParseFrame decodes an inbound text frame. A "typing" key wins over
// "message"; typing values outside the token vocabulary read as false.
func ParseFrame(data []byte) Frame {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Frame{Kind: FrameIgnored}
	}

	if v, ok := raw["typing"]; ok {
		typing, _ := domain.ParseBoolValue(v)
		return Frame{Kind: FrameTyping, Typing: typing}
	}

	text, ok := raw["message"].(string)
	if !ok {
		return Frame{Kind: FrameIgnored}
	}
	return Frame{Kind: FrameMessage, Text: text}
}
