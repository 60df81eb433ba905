package program

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tillfalko/interpolation-engine/internal/value"
)

// JSON5Splicer rewrites a single top-level key's object value in place in
// a program file's raw text, leaving every comment and all unrelated
// formatting untouched. It finds the key, brace-matches its object span,
// and replaces only that span with a freshly indented rendering of the
// replacement value.
type JSON5Splicer struct{}

var _ Splicer = JSON5Splicer{}

// SpliceSaveStates reads path, splices saveStates in as the value of its
// top-level "save_states" key, and writes the result back.
func (JSON5Splicer) SpliceSaveStates(path string, saveStates *value.Map) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := spliceKeyIntoJSON5(string(raw), "save_states", value.MapV(saveStates), 4)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

const keyObjectPattern = `(['"]?%s['"]?)\s*:\s*\{`

// spliceKeyIntoJSON5 finds `key: {` in content, brace-matches the object
// that follows, and replaces its contents with a re-indented rendering of
// newValue, indented by indent spaces beyond the line the key starts on.
func spliceKeyIntoJSON5(content, key string, newValue value.Value, indent int) (string, error) {
	re := regexp.MustCompile(fmt.Sprintf(keyObjectPattern, regexp.QuoteMeta(key)))
	loc := re.FindStringIndex(content)
	if loc == nil {
		return "", fmt.Errorf("key %q not found or not an object", key)
	}
	startPos := loc[1] - 1 // index of the opening '{'

	braceLevel := 1
	endPos := -1
	for i := startPos + 1; i < len(content); i++ {
		switch content[i] {
		case '{':
			braceLevel++
		case '}':
			braceLevel--
		}
		if braceLevel == 0 {
			endPos = i
			break
		}
	}
	if endPos < 0 {
		return "", fmt.Errorf("could not find matching closing brace for key %q", key)
	}

	lineStart := strings.LastIndexByte(content[:loc[0]], '\n') + 1
	keyIndent := content[lineStart:loc[0]]

	dumped := indentJSON(newValue, strings.Repeat(" ", indent))
	lines := strings.Split(dumped, "\n")
	if len(lines) > 2 {
		lines = lines[1 : len(lines)-1]
	} else {
		lines = nil
	}
	var formatted strings.Builder
	for _, line := range lines {
		formatted.WriteString(keyIndent)
		formatted.WriteString(line)
		formatted.WriteString("\n")
	}

	var out strings.Builder
	out.WriteString(content[:startPos+1])
	out.WriteString("\n")
	out.WriteString(formatted.String())
	out.WriteString(keyIndent)
	out.WriteString(content[endPos:])
	return out.String(), nil
}

// indentJSON renders v as pretty-printed JSON text, preserving Map
// insertion order (encoding/json would alphabetize map keys instead).
func indentJSON(v value.Value, indent string) string {
	var b strings.Builder
	writeIndentedJSON(&b, v, indent, "")
	return b.String()
}

func writeIndentedJSON(b *strings.Builder, v value.Value, indent, cur string) {
	switch v.Kind() {
	case value.KindNull:
		b.WriteString("null")
	case value.KindBool:
		bb, _ := v.Bool()
		if bb {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case value.KindNumber:
		s, _ := v.Stringify()
		b.WriteString(s)
	case value.KindString:
		s, _ := v.String()
		data, _ := json.Marshal(s)
		b.Write(data)
	case value.KindSeq:
		items, _ := v.Seq()
		if len(items) == 0 {
			b.WriteString("[]")
			return
		}
		next := cur + indent
		b.WriteString("[\n")
		for i, item := range items {
			b.WriteString(next)
			writeIndentedJSON(b, item, indent, next)
			if i < len(items)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(cur)
		b.WriteByte(']')
	case value.KindMap:
		m, _ := v.Map()
		keys := m.Keys()
		if len(keys) == 0 {
			b.WriteString("{}")
			return
		}
		next := cur + indent
		b.WriteString("{\n")
		for i, k := range keys {
			val, _ := m.Get(k)
			b.WriteString(next)
			kd, _ := json.Marshal(k)
			b.Write(kd)
			b.WriteString(": ")
			writeIndentedJSON(b, val, indent, next)
			if i < len(keys)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(cur)
		b.WriteByte('}')
	}
}
