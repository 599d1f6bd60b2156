// Package textclean trims raw model output down to its first non-repeating run of sentences.
package textclean

import (
	"strings"
	"unicode/utf8"
)

// MinLength is the length a cleaned result must exceed to be used instead of the original text.
const MinLength = 10

// Dedup splits raw on '.' and keeps sentences in order until the first empty
// segment or the first segment already seen (case-insensitive, trimmed).
// Text without any '.' is only trimmed.
func Dedup(raw string) string {
	s := strings.TrimSpace(raw)
	parts := strings.Split(s, ".")
	if len(parts) <= 1 {
		return s
	}
	kept := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		key := strings.ToLower(strings.TrimSpace(p))
		if key == "" {
			break
		}
		if _, dup := seen[key]; dup {
			break
		}
		seen[key] = struct{}{}
		kept = append(kept, strings.TrimSpace(p))
	}
	out := strings.Join(kept, ". ")
	if out != "" && !strings.HasSuffix(out, ".") {
		out += "."
	}
	return strings.TrimSpace(out)
}

// Clean runs Dedup on raw and falls back to original when the result is
// empty or no longer than MinLength characters.
func Clean(raw, original string) string {
	out := Dedup(raw)
	if out == "" || utf8.RuneCountInString(out) <= MinLength {
		return original
	}
	return out
}
