// Package wildcard implements the anchored `*`-wildcard pattern algebra
// used by goto_map target_maps and replace_map wildcard_maps: `*` matches
// any (possibly empty) run of characters and binds positional captures
// `1`..`n` in match order. No other regex metacharacter is interpreted.
package wildcard

import "strings"

// Match reports whether pattern matches text under anchored `*` semantics
// and, on success, returns the captured substrings in left-to-right order.
func Match(pattern, text string) (captures []string, ok bool) {
	return matchAt(pattern, text, nil)
}

// matchAt does a straightforward recursive-descent anchored match: a `*`
// greedily tries the longest remaining suffix first and backtracks.
func matchAt(pattern, text string, caps []string) ([]string, bool) {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		if pattern == text {
			return caps, true
		}
		return nil, false
	}
	prefix := pattern[:star]
	if !strings.HasPrefix(text, prefix) {
		return nil, false
	}
	rest := pattern[star+1:]
	remaining := text[len(prefix):]

	for cut := len(remaining); cut >= 0; cut-- {
		captured := remaining[:cut]
		tail := remaining[cut:]
		if out, ok := matchAt(rest, tail, append(append([]string(nil), caps...), captured)); ok {
			return out, true
		}
	}
	return nil, false
}

// ExpandToRegexSource renders pattern as the source of an equivalent
// regexp (escaping every metacharacter except `*`, which becomes `.*`),
// used by the analyzer to test a pattern against a set of known keys
// without fully matching captures.
func ExpandToRegexSource(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '*' {
			b.WriteString(".*")
			continue
		}
		if strings.ContainsRune(`\.+*?()|[]{}^$`, rune(c)) {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('$')
	return b.String()
}
