package model

import (
	"regexp"
	"strings"
)

var (
	ipPattern         = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	userIDPattern     = regexp.MustCompile(`(?i)^(\S+?)@(?:steam|northwood|discord|patreon)$`)
	platformIDPattern = regexp.MustCompile(`^\d{17}$`)
)

// IsUserID reports whether s is a compound "account@provider" identifier.
func IsUserID(s string) bool {
	return userIDPattern.MatchString(s)
}

// IsIP reports whether s is a four-octet dotted address.
func IsIP(s string) bool {
	return ipPattern.MatchString(s)
}

// IsPlatformID reports whether s is a bare 17-digit platform account id.
func IsPlatformID(s string) bool {
	return platformIDPattern.MatchString(s)
}

// ExtractUserID returns the account part of "account@provider", or the trimmed
// input when it is not in compound form.
func ExtractUserID(s string) string {
	s = strings.TrimSpace(s)
	if m := userIDPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}
