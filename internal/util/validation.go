package util

import (
	"regexp"
)

var (
	uuidRegex      = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	return uuidRegex.MatchString(s)
}

// IsValidSessionID accepts generated UUIDs and short client-chosen ids made
// of letters, digits, '-' and '_'.
func IsValidSessionID(s string) bool {
	return IsValidUUID(s) || sessionIDRegex.MatchString(s)
}
