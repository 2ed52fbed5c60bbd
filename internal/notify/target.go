package notify

import (
	"regexp"
	"strings"
)

type TargetType string

const (
	TargetNone   TargetType = "none"
	TargetID     TargetType = "id"
	TargetHandle TargetType = "handle"
)

// Target is where a bot message can be sent. Value is empty for TargetNone.
type Target struct {
	Type  TargetType
	Value string
}

func (t Target) String() string {
	if t.Value == "" {
		return string(t.Type) + ":null"
	}
	return string(t.Type) + ":" + t.Value
}

var (
	deepLinkRe   = regexp.MustCompile(`(?i)^tg://user\?id=(-?\d+)$`)
	profileURLRe = regexp.MustCompile(`(?i)^(?:https?://)?t\.me/(.+)$`)
	numericRe    = regexp.MustCompile(`^-?\d+$`)
)

// ParseChatTarget normalizes what a buyer typed as their contact into a
// chat id or an @handle.
func ParseChatTarget(input string) Target {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Target{Type: TargetNone}
	}

	if m := deepLinkRe.FindStringSubmatch(raw); m != nil {
		return Target{Type: TargetID, Value: m[1]}
	}

	if m := profileURLRe.FindStringSubmatch(raw); m != nil {
		segment := m[1]
		if i := strings.IndexAny(segment, "?#/"); i >= 0 {
			segment = segment[:i]
		}
		segment = strings.TrimPrefix(segment, "@")
		if segment == "" {
			return Target{Type: TargetNone}
		}
		if numericRe.MatchString(segment) {
			return Target{Type: TargetID, Value: segment}
		}
		return Target{Type: TargetHandle, Value: "@" + segment}
	}

	if numericRe.MatchString(raw) {
		return Target{Type: TargetID, Value: raw}
	}
	if strings.HasPrefix(raw, "@") {
		return Target{Type: TargetHandle, Value: raw}
	}
	return Target{Type: TargetHandle, Value: "@" + raw}
}

// Mention renders a handle for message text, empty if there is none.
func Mention(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "@") {
		return s
	}
	return "@" + s
}
