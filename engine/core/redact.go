package core

import (
	"regexp"
	"strings"
)

var (
	kvSecretRe = regexp.MustCompile(
		`(?i)(api[_-]?key|token|secret|password|pwd|credential|access_token|refresh_token)\s*[:=]\s*["']?[^"'\s]+["']?`,
	)
	uriUserInfoRe = regexp.MustCompile(`(?i)(\b[a-z][a-z0-9+]*://)[^/@\s]+@`)
)

// RedactString trims, truncates, and scrubs credential-shaped substrings.
// It is applied to every message that may echo configuration values.
func RedactString(s string) string {
	const maxLen = 256
	s = strings.TrimSpace(s)
	s = jwtRe.ReplaceAllString(s, "[JWT_REDACTED]")
	s = awsKeyRe.ReplaceAllString(s, "[AWS_KEY_REDACTED]")
	s = githubTokenRe.ReplaceAllString(s, "[GITHUB_TOKEN_REDACTED]")
	s = slackTokenRe.ReplaceAllString(s, "[SLACK_TOKEN_REDACTED]")
	s = uriUserInfoRe.ReplaceAllString(s, "$1[REDACTED]@")
	s = bearerRe.ReplaceAllStringFunc(s, func(m string) string {
		return m[:len("bearer ")] + "[REDACTED]"
	})
	s = kvSecretRe.ReplaceAllString(s, "$1=[REDACTED]")
	s = genericKeyRe.ReplaceAllString(s, "[REDACTED]")
	if len(s) > maxLen {
		s = s[:maxLen] + "…"
	}
	return s
}

// RedactError applies RedactString to an error, returning an empty string when nil.
func RedactError(err error) string {
	if err == nil {
		return ""
	}
	return RedactString(err.Error())
}

// MaskValue keeps at most the first four characters of a secret for display.
func MaskValue(s string) string {
	const visible = 4
	if len(s) <= visible*2 {
		return "****"
	}
	return s[:visible] + "****"
}
