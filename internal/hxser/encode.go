package hxser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Encoder writes values in Haxe serialized text.
//
// Strings are always written through the string cache, like the Haxe
// serializer. Containers are never deduplicated through the object cache;
// only explicit *Ref values produce r<n> tokens.
type Encoder struct {
	sb     strings.Builder
	scache map[string]int

	// cached mirrors the decoder's object cache: one entry per cacheable
	// value written so far, true while that value is still open.
	cached []bool
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{scache: make(map[string]int)}
}

// Encode serializes v.
func Encode(v Value) (string, error) {
	e := NewEncoder()
	if err := e.Encode(v); err != nil {
		return "", err
	}
	return e.String(), nil
}

// Encode appends v to the output.
func (e *Encoder) Encode(v Value) error {
	return e.value(v)
}

// String returns the text written so far.
func (e *Encoder) String() string {
	return e.sb.String()
}

func (e *Encoder) open() int {
	e.cached = append(e.cached, true)
	return len(e.cached) - 1
}

func (e *Encoder) close(slot int) {
	e.cached[slot] = false
}

func (e *Encoder) value(v Value) error {
	switch v := v.(type) {
	case nil, Null:
		e.sb.WriteByte('n')
	case Bool:
		if v {
			e.sb.WriteByte('t')
		} else {
			e.sb.WriteByte('f')
		}
	case Int:
		e.writeInt(int64(v))
	case Float:
		e.writeFloat(float64(v))
	case String:
		e.writeString(string(v))
	case Bytes:
		enc := bytesEncoding.EncodeToString(v)
		e.sb.WriteByte('s')
		e.sb.WriteString(strconv.Itoa(len(enc)))
		e.sb.WriteByte(':')
		e.sb.WriteString(enc)
		e.cached = append(e.cached, false)
	case *Array:
		return e.writeArray(v)
	case *Object:
		slot := e.open()
		e.sb.WriteByte('o')
		if err := e.writeFields(v.Fields); err != nil {
			return err
		}
		e.sb.WriteByte('g')
		e.close(slot)
	case *Class:
		e.sb.WriteByte('c')
		e.writeString(v.Name)
		slot := e.open()
		if err := e.writeFields(v.Fields); err != nil {
			return err
		}
		e.sb.WriteByte('g')
		e.close(slot)
	case *Enum:
		e.sb.WriteByte('w')
		e.writeString(v.Name)
		e.writeString(v.Tag)
		e.sb.WriteByte(':')
		e.sb.WriteString(strconv.Itoa(len(v.Args)))
		for _, arg := range v.Args {
			if err := e.value(arg); err != nil {
				return err
			}
		}
		e.cached = append(e.cached, false)
	case *Ref:
		if v.Index < 0 || v.Index >= len(e.cached) {
			return fmt.Errorf("hxser: reference %d out of range (%d values written)", v.Index, len(e.cached))
		}
		if e.cached[v.Index] {
			return fmt.Errorf("hxser: reference %d points to a value still being written", v.Index)
		}
		e.sb.WriteByte('r')
		e.sb.WriteString(strconv.Itoa(v.Index))
	case *List:
		slot := e.open()
		e.sb.WriteByte('l')
		if err := e.writeItems(v.Items); err != nil {
			return err
		}
		e.sb.WriteByte('h')
		e.close(slot)
	case *StringMap:
		slot := e.open()
		e.sb.WriteByte('b')
		if err := e.writeFields(v.Entries); err != nil {
			return err
		}
		e.sb.WriteByte('h')
		e.close(slot)
	case *IntMap:
		slot := e.open()
		e.sb.WriteByte('q')
		for _, entry := range v.Entries {
			e.sb.WriteByte(':')
			e.sb.WriteString(strconv.FormatInt(entry.Key, 10))
			if err := e.value(entry.Value); err != nil {
				return err
			}
		}
		e.sb.WriteByte('h')
		e.close(slot)
	case *ObjectMap:
		slot := e.open()
		e.sb.WriteByte('M')
		for _, entry := range v.Entries {
			if err := e.value(entry.Key); err != nil {
				return err
			}
			if err := e.value(entry.Value); err != nil {
				return err
			}
		}
		e.sb.WriteByte('h')
		e.close(slot)
	case *Date:
		if !validDateText(v.Text) {
			return fmt.Errorf("hxser: invalid date %q", v.Text)
		}
		e.sb.WriteByte('v')
		e.sb.WriteString(v.Text)
		e.cached = append(e.cached, false)
	case *Exception:
		e.sb.WriteByte('x')
		return e.value(v.Value)
	case *TypeRef:
		if v.Enum {
			e.sb.WriteByte('B')
		} else {
			e.sb.WriteByte('A')
		}
		e.writeString(v.Name)
	default:
		return fmt.Errorf("hxser: cannot encode %T", v)
	}
	return nil
}

// writeInt writes a Haxe Int. Values outside the 32-bit range do not fit
// an Int and are written as floats.
func (e *Encoder) writeInt(v int64) {
	switch {
	case v == 0:
		e.sb.WriteByte('z')
	case fitsInt32(v):
		e.sb.WriteByte('i')
		e.sb.WriteString(strconv.FormatInt(v, 10))
	default:
		e.sb.WriteByte('d')
		e.sb.WriteString(FormatFloat(float64(v)))
	}
}

func (e *Encoder) writeFloat(f float64) {
	switch {
	case math.IsNaN(f):
		e.sb.WriteByte('k')
	case math.IsInf(f, 1):
		e.sb.WriteByte('p')
	case math.IsInf(f, -1):
		e.sb.WriteByte('m')
	default:
		e.sb.WriteByte('d')
		e.sb.WriteString(FormatFloat(f))
	}
}

func (e *Encoder) writeString(s string) {
	if n, ok := e.scache[s]; ok {
		e.sb.WriteByte('R')
		e.sb.WriteString(strconv.Itoa(n))
		return
	}
	e.scache[s] = len(e.scache)
	enc := urlEncode(s)
	e.sb.WriteByte('y')
	e.sb.WriteString(strconv.Itoa(len(enc)))
	e.sb.WriteByte(':')
	e.sb.WriteString(enc)
}

func (e *Encoder) writeFields(fields []Field) error {
	for _, f := range fields {
		e.writeString(f.Key)
		if err := e.value(f.Value); err != nil {
			return fmt.Errorf("%s: %w", f.Key, err)
		}
	}
	return nil
}

func (e *Encoder) writeItems(items []Value) error {
	for _, item := range items {
		if err := e.value(item); err != nil {
			return err
		}
	}
	return nil
}

// writeArray writes an array, folding consecutive nulls into u<n> runs.
func (e *Encoder) writeArray(a *Array) error {
	if a.Length < len(a.Items) {
		return fmt.Errorf("hxser: array length %d is shorter than its %d items", a.Length, len(a.Items))
	}
	slot := e.open()
	e.sb.WriteByte('a')
	nulls := 0
	for i := 0; i < a.Length; i++ {
		item := a.At(i)
		if _, ok := item.(Null); ok {
			nulls++
			continue
		}
		e.writeNulls(nulls)
		nulls = 0
		if err := e.value(item); err != nil {
			return fmt.Errorf("[%d]: %w", i, err)
		}
	}
	e.writeNulls(nulls)
	e.sb.WriteByte('h')
	e.close(slot)
	return nil
}

func (e *Encoder) writeNulls(n int) {
	switch {
	case n == 1:
		e.sb.WriteByte('n')
	case n > 1:
		e.sb.WriteByte('u')
		e.sb.WriteString(strconv.Itoa(n))
	}
}

func validDateText(s string) bool {
	if len(s) == 19 && s[4] == '-' {
		for i := 0; i < 4; i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && c != '.' && c != '+' && c != '-' && c != 'e' && c != 'E' {
			return false
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
