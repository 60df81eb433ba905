package interp

import "strings"

// Sentinels stand in for escaped braces while the interpolation pipeline
// scans for real interpolation groups. Any two strings unique enough not
// to clash with program text work; these use control characters that
// never appear in ordinary authored text.
const (
	sentinelOpen  = "\x00\x01OPEN\x01\x00"
	sentinelClose = "\x00\x01CLOSE\x01\x00"
)

// sentinelize replaces every `\{` with sentinelOpen and `\}` with
// sentinelClose, honoring the rule that a backslash also escapes itself
// when followed by a brace (so `\\{` is a literal backslash followed by
// an unescaped, live `{`).
func sentinelize(s string) string {
	var b strings.Builder
	n := len(s)
	for i := 0; i < n; i++ {
		if s[i] == '\\' && i+1 < n {
			switch {
			case s[i+1] == '{':
				b.WriteString(sentinelOpen)
				i++
				continue
			case s[i+1] == '}':
				b.WriteString(sentinelClose)
				i++
				continue
			case s[i+1] == '\\' && i+2 < n && (s[i+2] == '{' || s[i+2] == '}'):
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// sentinelizeLiteral protects every brace in s (no backslash involved) so
// a value spliced into an in-progress interpolation pass is never
// re-scanned as a new interpolation group.
func sentinelizeLiteral(s string) string {
	return strings.NewReplacer("{", sentinelOpen, "}", sentinelClose).Replace(s)
}

var desentinelizer = strings.NewReplacer(sentinelOpen, "{", sentinelClose, "}")

// desentinelize reverts sentinels to literal brace characters; this is
// the final step of Interpolate and also finishes GetSimpleInsertKey /
// FindTopLevelGroups, which both operate on sentinelized text internally.
func desentinelize(s string) string {
	return desentinelizer.Replace(s)
}

// GetSimpleInsertKey reports whether s is a "simple interpolation": it
// begins with `{`, ends with `}`, and brace depth (ignoring escaped
// braces) is positive everywhere strictly inside and exactly zero only
// at the start and end. On success it returns the inner text with
// escapes resolved.
func GetSimpleInsertKey(s string) (string, bool) {
	sv := sentinelize(s)
	key, ok := simpleKeyOnSentinelized(sv)
	if !ok {
		return "", false
	}
	return desentinelize(key), true
}

func simpleKeyOnSentinelized(s string) (string, bool) {
	n := len(s)
	if n < 2 || s[0] != '{' || s[n-1] != '}' {
		return "", false
	}
	depth := 0
	for i := 0; i < n; i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return "", false
			}
			if depth == 0 && i != n-1 {
				return "", false
			}
		}
	}
	if depth != 0 {
		return "", false
	}
	return s[1 : n-1], true
}

// FindTopLevelGroups returns the content of every top-level, unescaped
// `{...}` group in s, in left-to-right order. Nested groups (the
// `{{alias}}` pattern) contribute only the outermost key: for
// "{{A}}" the single returned group is "{A}".
func FindTopLevelGroups(s string) []string {
	sv := sentinelize(s)
	var groups []string
	depth := 0
	start := -1
	for i := 0; i < len(sv); i++ {
		switch sv[i] {
		case '{':
			if depth == 0 {
				start = i + 1
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					groups = append(groups, desentinelize(sv[start:i]))
					start = -1
				}
			}
		}
	}
	return groups
}

// bracesBalanced reports whether sentinelized text sv has an equal count
// of unescaped `{` and `}`.
func bracesBalanced(sv string) bool {
	return strings.Count(sv, "{") == strings.Count(sv, "}")
}
