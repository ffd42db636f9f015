package hxser

import (
	"fmt"
	"math"
	"strconv"
)

// DecodeError reports malformed serialized text.
type DecodeError struct {
	Offset   int    // byte offset into the input
	Expected string // what the decoder was looking for
	Msg      string // optional detail
}

func (e *DecodeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("hxser: %s at offset %d (expected %s)", e.Msg, e.Offset, e.Expected)
	}
	return fmt.Sprintf("hxser: expected %s at offset %d", e.Expected, e.Offset)
}

// maxNullRun bounds the holes a single u<n> token may add to an array.
const maxNullRun = 1 << 20

// MaxDepth limits how deeply values may nest.
const MaxDepth = 512

// Decoder reads one value from Haxe serialized text.
//
// The string cache and the object cache live in the Decoder and are never
// shared, so a Decoder must not be reused across inputs.
type Decoder struct {
	buf   string
	pos   int
	depth int

	// scache holds every string read so far, addressed by R<n>.
	scache []string
	// cache holds every cacheable value, addressed by r<n>. A nil entry is
	// a container that is still being decoded.
	cache []Value
}

// NewDecoder returns a Decoder over text.
func NewDecoder(text string) *Decoder {
	return &Decoder{buf: text}
}

// Decode parses text, which must hold exactly one serialized value.
func Decode(text string) (Value, error) {
	return NewDecoder(text).Decode()
}

// Decode reads the value and checks that no input is left over.
func (d *Decoder) Decode() (Value, error) {
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.buf) {
		return nil, d.errorf("end of input", "trailing data")
	}
	return v, nil
}

// Offset returns the current read position.
func (d *Decoder) Offset() int {
	return d.pos
}

func (d *Decoder) errorf(expected, format string, args ...any) *DecodeError {
	return &DecodeError{Offset: d.pos, Expected: expected, Msg: fmt.Sprintf(format, args...)}
}

func (d *Decoder) expect(c byte) error {
	if d.pos >= len(d.buf) {
		return d.errorf(strconv.QuoteRune(rune(c)), "unexpected end of input")
	}
	if d.buf[d.pos] != c {
		return d.errorf(strconv.QuoteRune(rune(c)), "unexpected %q", d.buf[d.pos])
	}
	d.pos++
	return nil
}

// peek returns the next byte, or 0 at end of input.
func (d *Decoder) peek() byte {
	if d.pos < len(d.buf) {
		return d.buf[d.pos]
	}
	return 0
}

// reserve claims an object cache slot for a container about to be decoded.
func (d *Decoder) reserve() int {
	d.cache = append(d.cache, nil)
	return len(d.cache) - 1
}

func (d *Decoder) value() (Value, error) {
	if d.depth >= MaxDepth {
		return nil, d.errorf("value", "nesting deeper than %d", MaxDepth)
	}
	d.depth++
	v, err := d.read()
	d.depth--
	return v, err
}

func (d *Decoder) read() (Value, error) {
	if d.pos >= len(d.buf) {
		return nil, d.errorf("value", "unexpected end of input")
	}
	start := d.pos
	tag := d.buf[d.pos]
	d.pos++

	switch tag {
	case 'n':
		return Null{}, nil
	case 't':
		return Bool(true), nil
	case 'f':
		return Bool(false), nil
	case 'z':
		return Int(0), nil
	case 'i':
		n, err := d.readInt()
		if err != nil {
			return nil, err
		}
		return Int(n), nil
	case 'd':
		f, err := d.readFloat()
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case 'k':
		return Float(math.NaN()), nil
	case 'm':
		return Float(math.Inf(-1)), nil
	case 'p':
		return Float(math.Inf(1)), nil
	case 'y':
		s, err := d.readString()
		if err != nil {
			return nil, err
		}
		return String(s), nil
	case 'R':
		n, err := d.readIndex()
		if err != nil {
			return nil, err
		}
		if n >= len(d.scache) {
			d.pos = start
			return nil, d.errorf("string reference", "string reference %d out of range (%d strings)", n, len(d.scache))
		}
		return String(d.scache[n]), nil
	case 'r':
		n, err := d.readIndex()
		if err != nil {
			return nil, err
		}
		if n >= len(d.cache) {
			d.pos = start
			return nil, d.errorf("reference", "forward reference %d (%d values decoded)", n, len(d.cache))
		}
		if d.cache[n] == nil {
			d.pos = start
			return nil, d.errorf("reference", "reference %d points to a value still being decoded", n)
		}
		return &Ref{Index: n, Target: d.cache[n]}, nil
	case 'a':
		return d.readArray()
	case 'o':
		slot := d.reserve()
		fields, err := d.readFields('g')
		if err != nil {
			return nil, err
		}
		o := &Object{Fields: fields}
		d.cache[slot] = o
		return o, nil
	case 'c':
		name, err := d.readName("class name")
		if err != nil {
			return nil, err
		}
		slot := d.reserve()
		fields, err := d.readFields('g')
		if err != nil {
			return nil, err
		}
		c := &Class{Name: name, Fields: fields}
		d.cache[slot] = c
		return c, nil
	case 'w':
		return d.readEnum()
	case 'j':
		d.pos = start
		return nil, d.errorf("enum by name", "enum index encoding is not supported")
	case 'C':
		d.pos = start
		return nil, d.errorf("value", "custom serialized classes are not supported")
	case 'l':
		slot := d.reserve()
		items, err := d.readItems()
		if err != nil {
			return nil, err
		}
		l := &List{Items: items}
		d.cache[slot] = l
		return l, nil
	case 'b':
		slot := d.reserve()
		entries, err := d.readFields('h')
		if err != nil {
			return nil, err
		}
		m := &StringMap{Entries: entries}
		d.cache[slot] = m
		return m, nil
	case 'q':
		return d.readIntMap()
	case 'M':
		return d.readObjectMap()
	case 'v':
		return d.readDate()
	case 's':
		return d.readBytes()
	case 'x':
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		return &Exception{Value: v}, nil
	case 'A', 'B':
		name, err := d.readName("type name")
		if err != nil {
			return nil, err
		}
		return &TypeRef{Enum: tag == 'B', Name: name}, nil
	default:
		d.pos = start
		return nil, d.errorf("value", "unknown type tag %q", tag)
	}
}

// readDigits consumes a run of decimal digits with an optional minus sign.
func (d *Decoder) readDigits() (string, error) {
	start := d.pos
	if d.peek() == '-' {
		d.pos++
	}
	digits := d.pos
	for d.pos < len(d.buf) && d.buf[d.pos] >= '0' && d.buf[d.pos] <= '9' {
		d.pos++
	}
	if d.pos == digits {
		d.pos = start
		if start >= len(d.buf) {
			return "", d.errorf("digits", "unexpected end of input")
		}
		return "", d.errorf("digits", "unexpected %q", d.buf[start])
	}
	return d.buf[start:d.pos], nil
}

func (d *Decoder) readInt() (int64, error) {
	start := d.pos
	s, err := d.readDigits()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d.pos = start
		return 0, d.errorf("integer", "integer %s out of range", s)
	}
	return n, nil
}

// readIndex reads a non-negative cache index, count or length.
func (d *Decoder) readIndex() (int, error) {
	start := d.pos
	n, err := d.readInt()
	if err != nil {
		return 0, err
	}
	if n < 0 || n > math.MaxInt32 {
		d.pos = start
		return 0, d.errorf("length", "invalid length or index %d", n)
	}
	return int(n), nil
}

func (d *Decoder) readFloat() (float64, error) {
	start := d.pos
	for d.pos < len(d.buf) {
		c := d.buf[d.pos]
		if (c >= '0' && c <= '9') || c == '.' || c == '+' || c == '-' || c == 'e' || c == 'E' {
			d.pos++
			continue
		}
		break
	}
	text := d.buf[start:d.pos]
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		d.pos = start
		return 0, d.errorf("float", "malformed float %q", text)
	}
	return f, nil
}

// readString reads the body of a y<len>:<chars> token.
func (d *Decoder) readString() (string, error) {
	n, err := d.readIndex()
	if err != nil {
		return "", err
	}
	if err := d.expect(':'); err != nil {
		return "", err
	}
	if len(d.buf)-d.pos < n {
		return "", d.errorf(fmt.Sprintf("%d string characters", n), "unexpected end of input")
	}
	raw := d.buf[d.pos : d.pos+n]
	s, err := urlDecode(raw)
	if err != nil {
		return "", d.errorf("url-encoded string", "%v", err)
	}
	d.pos += n
	d.scache = append(d.scache, s)
	return s, nil
}

// readName reads a string value used as a class, enum or constructor name.
func (d *Decoder) readName(what string) (string, error) {
	start := d.pos
	v, err := d.value()
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		d.pos = start
		return "", d.errorf(what, "got %s", v.Kind())
	}
	return string(s), nil
}

// readFields reads key/value pairs with string keys up to the end marker.
func (d *Decoder) readFields(end byte) ([]Field, error) {
	var fields []Field
	for {
		if d.pos >= len(d.buf) {
			return nil, d.errorf(strconv.QuoteRune(rune(end)), "unexpected end of input")
		}
		if d.buf[d.pos] == end {
			d.pos++
			return fields, nil
		}
		key, err := d.readName("field name")
		if err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: key, Value: v})
	}
}

// readItems reads values up to 'h'.
func (d *Decoder) readItems() ([]Value, error) {
	var items []Value
	for {
		if d.pos >= len(d.buf) {
			return nil, d.errorf("'h'", "unexpected end of input")
		}
		if d.buf[d.pos] == 'h' {
			d.pos++
			return items, nil
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
}

func (d *Decoder) readArray() (Value, error) {
	slot := d.reserve()
	var items []Value
	for {
		if d.pos >= len(d.buf) {
			return nil, d.errorf("'h'", "unexpected end of input")
		}
		switch d.buf[d.pos] {
		case 'h':
			d.pos++
			a := &Array{Length: len(items), Items: items}
			d.cache[slot] = a
			return a, nil
		case 'u':
			d.pos++
			n, err := d.readIndex()
			if err != nil {
				return nil, err
			}
			if n > maxNullRun {
				return nil, d.errorf("null run length", "null run of %d exceeds %d", n, maxNullRun)
			}
			for ; n > 0; n-- {
				items = append(items, nil)
			}
		default:
			v, err := d.value()
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
}

func (d *Decoder) readEnum() (Value, error) {
	name, err := d.readName("enum name")
	if err != nil {
		return nil, err
	}
	tag, err := d.readName("enum constructor")
	if err != nil {
		return nil, err
	}
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	n, err := d.readIndex()
	if err != nil {
		return nil, err
	}
	e := &Enum{Name: name, Tag: tag}
	if n > 0 {
		e.Args = make([]Value, 0, n)
	}
	for ; n > 0; n-- {
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, v)
	}
	// enum values enter the cache after their arguments
	d.cache = append(d.cache, e)
	return e, nil
}

func (d *Decoder) readIntMap() (Value, error) {
	slot := d.reserve()
	m := &IntMap{}
	for {
		if d.pos >= len(d.buf) {
			return nil, d.errorf("'h'", "unexpected end of input")
		}
		c := d.buf[d.pos]
		d.pos++
		if c == 'h' {
			d.cache[slot] = m
			return m, nil
		}
		if c != ':' {
			d.pos--
			return nil, d.errorf("':' or 'h'", "invalid IntMap entry")
		}
		key, err := d.readInt()
		if err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, IntEntry{Key: key, Value: v})
	}
}

func (d *Decoder) readObjectMap() (Value, error) {
	slot := d.reserve()
	m := &ObjectMap{}
	for {
		if d.pos >= len(d.buf) {
			return nil, d.errorf("'h'", "unexpected end of input")
		}
		if d.buf[d.pos] == 'h' {
			d.pos++
			d.cache[slot] = m
			return m, nil
		}
		k, err := d.value()
		if err != nil {
			return nil, err
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		m.Entries = append(m.Entries, MapEntry{Key: k, Value: v})
	}
}

// readDate reads either a 19 character local date string or a timestamp.
func (d *Decoder) readDate() (Value, error) {
	var text string
	if d.isDateString() {
		text = d.buf[d.pos : d.pos+19]
		d.pos += 19
	} else {
		start := d.pos
		if _, err := d.readFloat(); err != nil {
			return nil, err
		}
		text = d.buf[start:d.pos]
	}
	v := &Date{Text: text}
	d.cache = append(d.cache, v)
	return v, nil
}

func (d *Decoder) isDateString() bool {
	if len(d.buf)-d.pos < 19 {
		return false
	}
	for i := 0; i < 4; i++ {
		if c := d.buf[d.pos+i]; c < '0' || c > '9' {
			return false
		}
	}
	return d.buf[d.pos+4] == '-'
}

func (d *Decoder) readBytes() (Value, error) {
	n, err := d.readIndex()
	if err != nil {
		return nil, err
	}
	if err := d.expect(':'); err != nil {
		return nil, err
	}
	if len(d.buf)-d.pos < n {
		return nil, d.errorf(fmt.Sprintf("%d base64 characters", n), "unexpected end of input")
	}
	raw := d.buf[d.pos : d.pos+n]
	b, err := bytesEncoding.DecodeString(raw)
	if err != nil {
		return nil, d.errorf("base64 bytes", "%v", err)
	}
	d.pos += n
	v := Bytes(b)
	d.cache = append(d.cache, v)
	return v, nil
}
