// Package hxser reads and writes the Haxe serialization text format.
//
// Decoding is open: class instances and enum values of any type name are
// returned as generic *Class and *Enum values, so no type registry is
// needed. Enum constructors are always written and read by name.
package hxser

import "fmt"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindClass
	KindEnum
	KindRef
	KindList
	KindStringMap
	KindIntMap
	KindObjectMap
	KindDate
	KindBytes
	KindException
	KindTypeRef
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindArray:     "array",
	KindObject:    "object",
	KindClass:     "class",
	KindEnum:      "enum",
	KindRef:       "ref",
	KindList:      "list",
	KindStringMap: "stringmap",
	KindIntMap:    "intmap",
	KindObjectMap: "objectmap",
	KindDate:      "date",
	KindBytes:     "bytes",
	KindException: "exception",
	KindTypeRef:   "typeref",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is a node of a decoded serialization graph.
type Value interface {
	Kind() Kind
}

type (
	// Null is the serialized null.
	Null struct{}
	// Bool is a serialized boolean.
	Bool bool
	// Int is a serialized integer.
	Int int64
	// Float is a serialized float, including NaN and the infinities.
	Float float64
	// String is a serialized string, already URL-decoded.
	String string
	// Bytes is a haxe.io.Bytes value.
	Bytes []byte
)

// Field is a named member of an object, a class instance or a StringMap.
type Field struct {
	Key   string
	Value Value
}

// Array is a Haxe Array. Length is the array length; a nil entry in
// Items is a hole left by a null run and reads as null.
type Array struct {
	Length int
	Items  []Value
}

// NewArray returns a dense array holding items.
func NewArray(items ...Value) *Array {
	return &Array{Length: len(items), Items: items}
}

// At returns the element at i, or Null for holes and indexes past Items.
func (a *Array) At(i int) Value {
	if i < len(a.Items) && a.Items[i] != nil {
		return a.Items[i]
	}
	return Null{}
}

// Object is an anonymous structure.
type Object struct {
	Fields []Field
}

// Get returns the value of the last field named key.
func (o *Object) Get(key string) (Value, bool) {
	for i := len(o.Fields) - 1; i >= 0; i-- {
		if o.Fields[i].Key == key {
			return o.Fields[i].Value, true
		}
	}
	return nil, false
}

// Class is an instance of a named class, decoded without knowing its schema.
type Class struct {
	Name   string
	Fields []Field
}

// Enum is an enum value identified by type name and constructor name.
type Enum struct {
	Name string
	Tag  string
	Args []Value
}

// Ref is a back-reference to the Index-th entry of the object cache.
// Target is the referenced value when the Ref came out of the decoder.
type Ref struct {
	Index  int
	Target Value
}

// List is a haxe.ds.List.
type List struct {
	Items []Value
}

// StringMap is a haxe.ds.StringMap in insertion order.
type StringMap struct {
	Entries []Field
}

// IntEntry is a key/value pair of an IntMap.
type IntEntry struct {
	Key   int64
	Value Value
}

// IntMap is a haxe.ds.IntMap in insertion order.
type IntMap struct {
	Entries []IntEntry
}

// MapEntry is a key/value pair of an ObjectMap.
type MapEntry struct {
	Key   Value
	Value Value
}

// ObjectMap is a haxe.ds.ObjectMap in insertion order.
type ObjectMap struct {
	Entries []MapEntry
}

// Date keeps the serialized text of a Date: either "YYYY-MM-DD HH:MM:SS"
// or a millisecond timestamp.
type Date struct {
	Text string
}

// Exception is a thrown value.
type Exception struct {
	Value Value
}

// TypeRef names a class (Enum false) or an enum type (Enum true).
type TypeRef struct {
	Enum bool
	Name string
}

func (Null) Kind() Kind       { return KindNull }
func (Bool) Kind() Kind       { return KindBool }
func (Int) Kind() Kind        { return KindInt }
func (Float) Kind() Kind      { return KindFloat }
func (String) Kind() Kind     { return KindString }
func (Bytes) Kind() Kind      { return KindBytes }
func (*Array) Kind() Kind     { return KindArray }
func (*Object) Kind() Kind    { return KindObject }
func (*Class) Kind() Kind     { return KindClass }
func (*Enum) Kind() Kind      { return KindEnum }
func (*Ref) Kind() Kind       { return KindRef }
func (*List) Kind() Kind      { return KindList }
func (*StringMap) Kind() Kind { return KindStringMap }
func (*IntMap) Kind() Kind    { return KindIntMap }
func (*ObjectMap) Kind() Kind { return KindObjectMap }
func (*Date) Kind() Kind      { return KindDate }
func (*Exception) Kind() Kind { return KindException }
func (*TypeRef) Kind() Kind   { return KindTypeRef }
