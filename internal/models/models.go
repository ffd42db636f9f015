package models

import (
	"math"
	"reflect"
)

// Value is a node of a normalized savegame document: nil, bool, int64,
// float64, string, Array or *Object. A document is a tree; no node is
// shared between two parents.
type Value interface{}

// Array is an ordered sequence of Values.
type Array []Value

// Member is a key/value pair of an Object.
type Member struct {
	Key   string
	Value Value
}

// Reserved keys used to carry typed values through the plain tree.
const (
	EnumNameKey  = "__enum_name"
	EnumTagKey   = "__enum_tag"
	EnumArgsKey  = "args"
	ClassNameKey = "__class_name"
	TypeHintKey  = "__type"
	FloatHintKey = "__float"
)

// Object is a mapping from string keys to Values that remembers
// insertion order.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an Object holding members in order. A repeated key
// keeps its first position and its last value.
func NewObject(members ...Member) *Object {
	o := &Object{index: make(map[string]int, len(members))}
	for _, m := range members {
		o.Set(m.Key, m.Value)
	}
	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return nil, false
	}
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.members[i].Value, true
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores v under key, keeping the key's position if it already exists.
func (o *Object) Set(key string, v Value) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].Value = v
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, Member{Key: key, Value: v})
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if o == nil {
		return false
	}
	i, ok := o.index[key]
	if !ok {
		return false
	}
	o.members = append(o.members[:i], o.members[i+1:]...)
	delete(o.index, key)
	for j := i; j < len(o.members); j++ {
		o.index[o.members[j].Key] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for _, m := range o.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// Members returns the members in insertion order. The slice is shared
// with the Object and must not be modified.
func (o *Object) Members() []Member {
	if o == nil {
		return nil
	}
	return o.members
}

// Clone returns a deep copy of v.
func Clone(v Value) Value {
	switch v := v.(type) {
	case Array:
		out := make(Array, len(v))
		for i, item := range v {
			out[i] = Clone(item)
		}
		return out
	case *Object:
		if v == nil {
			return (*Object)(nil)
		}
		out := &Object{index: make(map[string]int, len(v.members))}
		for _, m := range v.members {
			out.index[m.Key] = len(out.members)
			out.members = append(out.members, Member{Key: m.Key, Value: Clone(m.Value)})
		}
		return out
	default:
		return v
	}
}

// Equal reports whether a and b are structurally equal, including key
// order. NaN equals NaN.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case *Object:
		b, ok := b.(*Object)
		if !ok || a.Len() != b.Len() {
			return false
		}
		bm := b.Members()
		for i, m := range a.Members() {
			if m.Key != bm[i].Key || !Equal(m.Value, bm[i].Value) {
				return false
			}
		}
		return true
	case float64:
		b, ok := b.(float64)
		if !ok {
			return false
		}
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	default:
		return reflect.DeepEqual(a, b)
	}
}
