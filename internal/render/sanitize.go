package render

import (
	"regexp"
	"strings"
)

// SanitizeFallback is returned when there is no usable message text.
const SanitizeFallback = "An unexpected error occurred"

var (
	// Absolute filesystem path, optionally drive-letter prefixed. The
	// extension is optional so bare binary paths are scrubbed too.
	absPathPattern = regexp.MustCompile(`(?:[A-Za-z]:)?(?:[\\/][\w.-]+)+(?:\.\w+)?`)

	// Stack-frame fragment: whitespace, "at", a symbol, a parenthesized
	// location. The symbol class excludes brackets so an already-scrubbed
	// "[file]" token is never mistaken for a frame.
	stackFramePattern = regexp.MustCompile(`\s+at\s+[\w.<>$]+\s+\([^)]*\)`)
)

// Sanitize strips filesystem paths and stack frames from a human-readable
// error message so responses never leak server layout or call sites.
// It is idempotent and never returns an empty string.
func Sanitize(message string) string {
	if message == "" {
		return SanitizeFallback
	}

	cleaned := absPathPattern.ReplaceAllString(message, "[file]")
	cleaned = stackFramePattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return SanitizeFallback
	}
	return cleaned
}

// SanitizeError sanitizes err's message, with the constant fallback for nil.
func SanitizeError(err error) string {
	if err == nil {
		return SanitizeFallback
	}
	return Sanitize(err.Error())
}
