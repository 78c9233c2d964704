package natstransport

import (
	"strings"
	"unicode"
)

// Prefix is the first token of every subject used by this package.
const Prefix = "draco"

// namespace joins values under Prefix into a NATS subject. Empty values are
// skipped.
func namespace(values ...string) string {
	parts := make([]string, 0, len(values)+1)
	parts = append(parts, Prefix)
	for _, v := range values {
		if v == "" {
			continue
		}
		parts = append(parts, formatForNamespace(v))
	}
	return strings.Join(parts, ".")
}

// formatForNamespace makes a name safe for use as subject tokens. A capital
// that follows a lower case letter starts a new kebab-cased word,
// underscores become dashes, and characters other than letters, digits,
// dashes, dots and wildcards are dropped.
func formatForNamespace(value string) string {
	var sb strings.Builder
	sb.Grow(len(value) + 4)

	var prev rune
	for _, r := range value {
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			sb.WriteByte('-')
			sb.WriteRune(unicode.ToLower(r))
		case r == '_':
			sb.WriteByte('-')
		case unicode.IsLetter(r) || unicode.IsDigit(r), r == '-', r == '.', r == '*', r == '>':
			sb.WriteRune(r)
		default:
			continue
		}
		prev = r
	}
	return sb.String()
}
