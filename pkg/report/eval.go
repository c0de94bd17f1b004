package report

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/wisenergy/go-report/pkg/report/ooxml"
	"github.com/wisenergy/go-report/pkg/report/render"
)

// lineBreak ends the current text element, inserts a break and opens a new
// text element in the same run.
const lineBreak = `</w:t><w:br/><w:t xml:space="preserve">`

// emptyParagraph keeps a table cell valid when a loop removed all of its
// paragraphs.
const emptyParagraph = `<w:p/>`

// scope is one level of the binding context. Names not found in data are
// looked up in the parent.
type scope struct {
	data   any
	parent *scope
}

func (s *scope) push(data any) *scope {
	return &scope{data: data, parent: s}
}

// lookup resolves ".", a plain name or a dotted path. The first segment is
// searched outward through the scopes, the rest inside the value found.
func (s *scope) lookup(name string) (any, bool) {
	if name == "." {
		return s.data, true
	}

	segments := strings.Split(name, ".")
	for sc := s; sc != nil; sc = sc.parent {
		v, ok := field(sc.data, segments[0])
		if !ok {
			continue
		}
		for _, seg := range segments[1:] {
			if v, ok = field(v, seg); !ok {
				return nil, false
			}
		}
		return v, true
	}
	return nil, false
}

func field(data any, key string) (any, bool) {
	switch m := data.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[string]string:
		v, ok := m[key]
		return v, ok
	}

	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		v := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if v.IsValid() {
			return v.Interface(), true
		}
	}
	return nil, false
}

// items returns the values a section is rendered with: every element of a
// list, the value itself when it is truthy, or nothing.
func items(v any) []any {
	if v == nil {
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}

	if truthy(v) {
		return []any{v}
	}
	return nil
}

// truthy follows template truthiness: nil, false, zero numbers, empty
// strings and empty lists or maps are false.
func truthy(v any) bool {
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// formatValue renders a placeholder value. Missing values render empty;
// lists and maps cannot be placed in text.
func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case Field:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return "", fmt.Errorf("a list cannot be rendered as text")
	case reflect.Map, reflect.Struct:
		return "", fmt.Errorf("an object cannot be rendered as text")
	}
	return fmt.Sprint(v), nil
}

// writeText writes escaped text, turning newlines into run breaks.
func writeText(buf *bytes.Buffer, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			buf.WriteString(lineBreak)
		}
		ooxml.EscapeText(buf, line)
	}
}

func (cp *compiledPart) render(buf *bytes.Buffer, root *scope) error {
	return cp.renderRange(buf, 0, len(cp.parts), root, nil)
}

// renderRange writes parts [a, b). A loop starting inside the range is
// expanded in place, except self, whose body starts where the loop does.
func (cp *compiledPart) renderRange(buf *bytes.Buffer, a, b int, sc *scope, self *loop) error {
	var pending []xml.Token
	flush := func() {
		if len(pending) > 0 {
			ooxml.Encode(buf, pending)
			pending = pending[:0]
		}
	}

	for i := a; i < b; {
		if l, ok := cp.loopAt[i]; ok && l != self {
			flush()
			if err := cp.renderLoop(buf, l, sc); err != nil {
				return err
			}
			i = l.end
			continue
		}

		part := cp.parts[i]
		switch part.Kind {
		case render.PartXML:
			pending = append(pending, part.Token)
		case render.PartText:
			flush()
			ooxml.EscapeText(buf, part.Value)
		case render.PartTag:
			flush()
			tag := cp.tags[i]
			if tag.Kind != render.TagValue {
				break
			}
			v, _ := sc.lookup(tag.Name)
			text, err := formatValue(v)
			if err != nil {
				return &TemplateError{Message: err.Error(), Tag: tag.String(), Part: cp.name}
			}
			writeText(buf, text)
		}
		i++
	}
	flush()
	return nil
}

func (cp *compiledPart) renderLoop(buf *bytes.Buffer, l *loop, sc *scope) error {
	if l.fillsCell {
		n := buf.Len()
		defer func() {
			if buf.Len() == n {
				buf.WriteString(emptyParagraph)
			}
		}()
	}

	v, _ := sc.lookup(l.tag.Name)

	if l.tag.Kind == render.TagInverted {
		if truthy(v) {
			return nil
		}
		return cp.renderRange(buf, l.bodyStart, l.bodyEnd, sc, l)
	}

	for _, item := range items(v) {
		if err := cp.renderRange(buf, l.bodyStart, l.bodyEnd, sc.push(item), l); err != nil {
			return err
		}
	}
	return nil
}
