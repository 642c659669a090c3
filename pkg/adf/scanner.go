package adf

import (
	"encoding/json"
	"html"
)

// Fragment is one segment of scanned text: either a literal text span or a
// successfully parsed embedded JSON value.
type Fragment struct {
	Text string          // literal span; meaningful when Raw is nil
	Raw  json.RawMessage // balanced JSON object/array, nil for text spans
}

// IsJSON reports whether the fragment holds a parsed JSON value.
func (f Fragment) IsJSON() bool { return f.Raw != nil }

// ScanText splits text into literal spans and embedded JSON fragments.
// Macro processors splice node JSON into plain paragraph text during
// parsing; this scan recovers those payloads.
//
// The input is HTML-entity-unescaped first. A fragment starts at an
// unquoted '{' or '[' and ends when the brace/bracket depth returns to
// zero, ignoring delimiters inside JSON strings. Fragments that fail a
// strict JSON parse, or parse to an empty object/array, are folded back
// into the surrounding text (stray braces in prose are not payloads).
// An unterminated fragment at end of input is kept as literal text.
// Each call is independent; the scanner holds no cross-call state.
func ScanText(text string) []Fragment {
	text = html.UnescapeString(text)

	var out []Fragment
	var buf []byte // pending literal text

	i := 0
	for i < len(text) {
		c := text[i]
		if c != '{' && c != '[' {
			buf = append(buf, c)
			i++
			continue
		}

		end, ok := scanBalanced(text, i)
		if !ok {
			// Unbalanced to end of input: keep the rest as text.
			buf = append(buf, text[i:]...)
			break
		}

		candidate := text[i:end]
		if raw, ok := parseFragment(candidate); ok {
			if len(buf) > 0 {
				out = append(out, Fragment{Text: string(buf)})
				buf = buf[:0]
			}
			out = append(out, Fragment{Raw: raw})
		} else {
			buf = append(buf, candidate...)
		}
		i = end
	}

	if len(buf) > 0 {
		out = append(out, Fragment{Text: string(buf)})
	}
	return out
}

// scanBalanced finds the end (exclusive) of a balanced brace/bracket run
// starting at start. Delimiters inside double-quoted strings are ignored.
func scanBalanced(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// parseFragment strictly parses a candidate fragment, rejecting anything
// that is not valid JSON or that decodes to an empty object/array.
func parseFragment(candidate string) (json.RawMessage, bool) {
	var value any
	if err := json.Unmarshal([]byte(candidate), &value); err != nil {
		return nil, false
	}
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 {
			return nil, false
		}
	case []any:
		if len(v) == 0 {
			return nil, false
		}
	default:
		return nil, false
	}
	return json.RawMessage(candidate), true
}
