// Package extract recovers named fields from the loosely-structured text
// language models return. Replies may wrap a JSON-like object in
// commentary or code fences, omit fields, or mangle value syntax; every
// accessor degrades to a type-appropriate default instead of failing the
// whole parse.
package extract

import (
	"strconv"
	"strings"
)

// Object isolates the outermost {...} object from a raw reply, stripping
// code fences and surrounding commentary. When no object is found the
// trimmed input is returned so key lookups still get a chance.
func Object(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return cleaned
	}
	return cleaned[start : end+1]
}

// String returns the quoted string value for key, or "" when the key is
// missing or unquoted.
func String(object, key string) string {
	valueStart, ok := valueOffset(object, key)
	if !ok {
		return ""
	}
	quoteStart := strings.Index(object[valueStart:], `"`)
	if quoteStart == -1 {
		return ""
	}
	quoteStart += valueStart
	quoteEnd := strings.Index(object[quoteStart+1:], `"`)
	if quoteEnd == -1 {
		return ""
	}
	return object[quoteStart+1 : quoteStart+1+quoteEnd]
}

// Float returns the numeric value for key, or 0 when missing or
// unparsable.
func Float(object, key string) float64 {
	value := strings.Trim(Raw(object, key), `"`)
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// Bool returns the boolean value for key, or false when missing.
func Bool(object, key string) bool {
	return strings.EqualFold(strings.Trim(Raw(object, key), `"`), "true")
}

// Raw returns the unparsed value for key: array values are copied
// verbatim by bracket depth, everything else runs until the next comma,
// closing brace, or closing bracket. Missing keys yield "".
func Raw(object, key string) string {
	valueStart, ok := valueOffset(object, key)
	if !ok {
		return ""
	}

	if valueStart >= len(object) {
		return ""
	}
	if object[valueStart] == '[' {
		depth := 0
		for i := valueStart; i < len(object); i++ {
			switch object[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return object[valueStart : i+1]
				}
			}
		}
		return ""
	}

	end := valueStart
	for end < len(object) && object[end] != ',' && object[end] != '}' && object[end] != ']' {
		end++
	}
	return strings.TrimSpace(object[valueStart:end])
}

// valueOffset locates the first non-space byte after the colon that
// follows `"key"`.
func valueOffset(object, key string) (int, bool) {
	pattern := `"` + key + `"`
	keyIdx := strings.Index(object, pattern)
	if keyIdx == -1 {
		return 0, false
	}
	colonIdx := strings.Index(object[keyIdx+len(pattern):], ":")
	if colonIdx == -1 {
		return 0, false
	}
	start := keyIdx + len(pattern) + colonIdx + 1
	for start < len(object) && (object[start] == ' ' || object[start] == '\t' || object[start] == '\n' || object[start] == '\r') {
		start++
	}
	if start >= len(object) {
		return 0, false
	}
	return start, true
}
