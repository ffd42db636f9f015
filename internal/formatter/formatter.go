package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mcncl/evosave/internal/hxser"
	"github.com/mcncl/evosave/internal/models"
	"github.com/tidwall/pretty"
)

// Formatter renders documents as indented JSON for editing
type Formatter struct {
	Indent string
	Width  int
}

// NewFormatter creates a new Formatter. An empty indent and a
// non-positive width select two spaces and 80 columns.
func NewFormatter(indent string, width int) *Formatter {
	if indent == "" {
		indent = "  "
	}
	if width <= 0 {
		width = 80
	}
	return &Formatter{Indent: indent, Width: width}
}

// Format returns v as indented JSON ending with a newline. Short arrays
// are kept on one line.
func (f *Formatter) Format(v models.Value) ([]byte, error) {
	compact, err := Compact(v)
	if err != nil {
		return nil, err
	}
	return pretty.PrettyOptions(compact, &pretty.Options{
		Width:    f.Width,
		Indent:   f.Indent,
		SortKeys: false,
	}), nil
}

// Compact returns v as JSON without insignificant whitespace.
//
// Integral floats are written with a trailing ".0" so they read back as
// floats, and NaN and the infinities become {"__float": "NaN"},
// {"__float": "+Inf"} and {"__float": "-Inf"}.
func Compact(v models.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v models.Value) error {
	switch v := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case int:
		buf.WriteString(strconv.Itoa(v))
	case float64:
		writeFloat(buf, v)
	case string:
		return writeString(buf, v)
	case models.Array:
		buf.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *models.Object:
		if v == nil {
			buf.WriteString("null")
			return nil
		}
		buf.WriteByte('{')
		for i, m := range v.Members() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Key); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := writeValue(buf, m.Value); err != nil {
				return fmt.Errorf("%s: %w", m.Key, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot format value of type %T as JSON", v)
	}
	return nil
}

func writeFloat(buf *bytes.Buffer, f float64) {
	var hint string
	switch {
	case math.IsNaN(f):
		hint = "NaN"
	case math.IsInf(f, 1):
		hint = "+Inf"
	case math.IsInf(f, -1):
		hint = "-Inf"
	}
	if hint != "" {
		buf.WriteString(`{"` + models.FloatHintKey + `":"` + hint + `"}`)
		return
	}

	s := hxser.FormatFloat(f)
	buf.WriteString(s)
	if !strings.ContainsAny(s, ".e") {
		buf.WriteString(".0")
	}
}

func writeString(buf *bytes.Buffer, s string) error {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.WriteString(strings.TrimSuffix(sb.String(), "\n"))
	return nil
}
