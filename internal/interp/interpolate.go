package interp

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	"github.com/tillfalko/interpolation-engine/internal/value"
)

// Interpolate resolves every `{key}` reference in text against inserts,
// falling back to ctx's inserts directory. A string that is exactly one
// simple interpolation `{K}` returns the raw looked-up value unchanged
// (may be non-string); everything else returns a spliced string.
func Interpolate(inserts *value.Map, text string, ctx *loadctx.Context) (value.Value, error) {
	sv := sentinelize(text)

	if key, ok := simpleKeyOnSentinelized(sv); ok {
		aliasResolved, err := Interpolate(inserts, desentinelize(key), ctx)
		if err != nil {
			return value.Value{}, err
		}
		keyStr, ok := aliasResolved.Stringify()
		if !ok {
			return value.Value{}, newError(ErrUnsupportedType, "", "interpolation key resolved to a non-stringifiable value")
		}
		return GetInterpData(inserts, keyStr, ctx)
	}

	cur := sv
	for strings.IndexByte(cur, '{') >= 0 || strings.IndexByte(cur, '}') >= 0 {
		if !bracesBalanced(cur) {
			return value.Value{}, newError(ErrUnevenBraces, "", "uneven interpolation braces")
		}
		lastOpen := strings.LastIndexByte(cur, '{')
		if lastOpen < 0 {
			break
		}
		closeRel := strings.IndexByte(cur[lastOpen:], '}')
		if closeRel < 0 {
			return value.Value{}, newError(ErrUnevenBraces, "", "unmatched interpolation brace")
		}
		closeIdx := lastOpen + closeRel
		keyText := desentinelize(cur[lastOpen+1 : closeIdx])

		resolved, err := GetInterpData(inserts, keyText, ctx)
		if err != nil {
			return value.Value{}, err
		}
		s, ok := resolved.Stringify()
		if !ok {
			return value.Value{}, newError(ErrUnsupportedType, keyText, "key %q resolved to a non-stringifiable value", keyText)
		}
		cur = cur[:lastOpen] + sentinelizeLiteral(s) + cur[closeIdx+1:]
	}
	return value.Str(desentinelize(cur)), nil
}

// GetInterpData resolves a single key name: the synthetic HH:MM/HH:MM:SS
// clock keys, reserved ARG<digits> arguments, the inserts map itself, and
// finally the inserts directory (json5 then plain text).
func GetInterpData(inserts *value.Map, key string, ctx *loadctx.Context) (value.Value, error) {
	switch key {
	case "HH:MM":
		return value.Str(time.Now().Format("15:04")), nil
	case "HH:MM:SS":
		return value.Str(time.Now().Format("15:04:05")), nil
	}
	if key == "" {
		return value.Value{}, newError(ErrEmptyKey, "", "empty interpolation key")
	}
	if isArgKey(key) {
		if v, ok := inserts.Get(key); ok {
			return v, nil
		}
		return value.Value{}, newError(ErrUnknownKey, key, "unknown argument key %q", key)
	}
	if v, ok := inserts.Get(key); ok {
		return v, nil
	}
	if ctx != nil && ctx.InsertsDir != "" {
		v, ok, err := loadFromInsertsDir(ctx, key)
		if err != nil {
			return value.Value{}, err
		}
		if ok {
			return v, nil
		}
	}
	return value.Value{}, newError(ErrUnknownKey, key, "unknown key %q", key)
}

func isArgKey(key string) bool {
	if !strings.HasPrefix(key, "ARG") {
		return false
	}
	rest := key[len("ARG"):]
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func loadFromInsertsDir(ctx *loadctx.Context, key string) (value.Value, bool, error) {
	json5Path, plainPath := ctx.FilePath(key)
	if data, err := os.ReadFile(json5Path); err == nil {
		var generic any
		if err := yaml.Unmarshal(data, &generic); err != nil {
			return value.Value{}, false, newError(ErrUnsupportedType, key, "parse %s: %v", json5Path, err)
		}
		return RecursiveEscape(value.FromAny(generic)), true, nil
	}
	if data, err := os.ReadFile(plainPath); err == nil {
		s := strings.TrimRight(string(data), " \t\r\n")
		return RecursiveEscape(value.Str(s)), true, nil
	}
	return value.Value{}, false, nil
}

// RecursiveInterpolate walks a value, applying Interpolate to every
// string and swallowing interpolation errors (the original string is
// returned unchanged on failure — callers that need strict evaluation
// call Interpolate directly). Object keys interpolate too. goto_map and
// replace_map tasks are returned unchanged: their arms are evaluated
// later with wildcard semantics. for/serial/parallel_wait/parallel_race
// resolve only a `tasks` field that is itself a simple interpolation and
// otherwise do not descend into their children.
func RecursiveInterpolate(inserts *value.Map, v value.Value, ctx *loadctx.Context) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.String()
		resolved, err := Interpolate(inserts, s, ctx)
		if err != nil {
			return v
		}
		return resolved
	case value.KindSeq:
		items, _ := v.Seq()
		out := make([]value.Value, len(items))
		for i, it := range items {
			out[i] = RecursiveInterpolate(inserts, it, ctx)
		}
		return value.Seq(out)
	case value.KindMap:
		m, _ := v.Map()
		cmd := cmdOf(m)
		if cmd == "goto_map" || cmd == "replace_map" {
			return v
		}
		skipDescend := cmd == "for" || cmd == "serial" || cmd == "parallel_wait" || cmd == "parallel_race"
		out := value.NewMap()
		for _, k := range m.Keys() {
			val, _ := m.Get(k)
			newKey, _ := RecursiveInterpolate(inserts, value.Str(k), ctx).Stringify()

			if skipDescend {
				if k == "tasks" {
					if s, ok := val.String(); ok {
						if _, simple := GetSimpleInsertKey(s); simple {
							out.Set(newKey, RecursiveInterpolate(inserts, val, ctx))
							continue
						}
					}
				}
				out.Set(newKey, val)
				continue
			}
			out.Set(newKey, RecursiveInterpolate(inserts, val, ctx))
		}
		return value.MapV(out)
	default:
		return v
	}
}

func cmdOf(m *value.Map) string {
	if v, ok := m.Get("cmd"); ok {
		if s, ok := v.String(); ok {
			return s
		}
	}
	return ""
}
