package domain

import (
	"strconv"
	"strings"
)

var (
	truthyTokens = map[string]bool{"1": true, "true": true, "yes": true, "on": true}
	falsyTokens  = map[string]bool{"0": true, "false": true, "no": true, "off": true}
)

// ParseBoolToken reads the boolean vocabulary shared by typing and presence
// signals. ok is false when the token is in neither set.
func ParseBoolToken(raw string) (value bool, ok bool) {
	tok := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case truthyTokens[tok]:
		return true, true
	case falsyTokens[tok]:
		return false, true
	default:
		return false, false
	}
}

// ParseBoolValue accepts a decoded JSON value: a real bool, a number, or a token.
func ParseBoolValue(v any) (value bool, ok bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		return ParseBoolToken(t)
	case float64:
		return ParseBoolToken(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return ParseBoolToken(strconv.Itoa(t))
	case nil:
		return false, false
	default:
		return false, false
	}
}
