// Package normalize converts decoded serialization graphs into the plain
// document tree handed to editors, and back.
//
// Enum values become objects carrying __enum_name, __enum_tag and args.
// Class instances carry __class_name next to their fields. Other typed
// containers are tagged with a __type hint:
//
//	List      {"__type": "List", "items": [...]}
//	StringMap {"__type": "StringMap", "entries": {...}}
//	IntMap    {"__type": "IntMap", "entries": {"1": ..., "-2": ...}}
//	ObjectMap {"__type": "ObjectMap", "entries": [{"key": ..., "value": ...}]}
//	Date      {"__type": "Date", "value": "2020-01-02 03:04:05"}
//	Bytes     {"__type": "Bytes", "base64": "aGVsbG8="}
//	Exception {"__type": "Exception", "value": ...}
//	Class     {"__type": "Class", "name": "Player"}
//	Enum      {"__type": "Enum", "name": "GameType"}
package normalize

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/mcncl/evosave/internal/hxser"
	"github.com/mcncl/evosave/internal/models"
)

// Values of the __type hint.
const (
	HintList      = "List"
	HintStringMap = "StringMap"
	HintIntMap    = "IntMap"
	HintObjectMap = "ObjectMap"
	HintDate      = "Date"
	HintBytes     = "Bytes"
	HintException = "Exception"
	HintClass     = "Class"
	HintEnum      = "Enum"
)

// Payload keys of hinted objects.
const (
	ItemsKey   = "items"
	EntriesKey = "entries"
	ValueKey   = "value"
	KeyKey     = "key"
	Base64Key  = "base64"
	NameKey    = "name"
)

// Normalize returns the plain tree for v. v may be a decoded hxser.Value,
// an already normalized tree (returned as an independent copy) or plain Go
// values such as int, []any and map[string]any, whose keys are sorted.
// Values of any other type are returned unchanged.
func Normalize(v any) models.Value {
	switch v := v.(type) {
	case nil:
		return nil
	case hxser.Value:
		n := &normalizer{}
		return n.value(v)
	case bool, string, int64, float64:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) <= math.MaxInt64 {
			return int64(v)
		}
		return float64(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int64(v)
		}
		return float64(v)
	case float32:
		return float64(v)
	case models.Array:
		return normalizeSlice(v)
	case []any:
		return normalizeSlice(v)
	case *models.Object:
		if v == nil {
			return nil
		}
		out := models.NewObject()
		for _, m := range v.Members() {
			out.Set(m.Key, Normalize(m.Value))
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := models.NewObject()
		for _, k := range keys {
			out.Set(k, Normalize(v[k]))
		}
		return out
	default:
		return v
	}
}

func normalizeSlice[S ~[]E, E any](items S) models.Array {
	out := make(models.Array, len(items))
	for i, item := range items {
		out[i] = Normalize(item)
	}
	return out
}

// ErrTooManyNodes is returned by NormalizeLimit when expanding references
// would produce more nodes than allowed.
var ErrTooManyNodes = errors.New("document has too many nodes")

// NormalizeLimit normalizes a decoded value like Normalize but fails with
// ErrTooManyNodes once the tree grows past maxNodes. Each reference is
// still expanded into its own copy, so chained references can grow the
// tree exponentially in the size of the input.
func NormalizeLimit(v hxser.Value, maxNodes int) (models.Value, error) {
	n := &normalizer{limit: maxNodes}
	out := n.value(v)
	if n.exceeded {
		return nil, fmt.Errorf("%w (limit %d)", ErrTooManyNodes, maxNodes)
	}
	return out, nil
}

// normalizer counts the nodes it produces. A zero limit means no limit.
type normalizer struct {
	limit    int
	count    int
	exceeded bool
}

// grow accounts for k more nodes and reports whether they fit.
func (n *normalizer) grow(k int) bool {
	if n.exceeded {
		return false
	}
	n.count += k
	if n.limit > 0 && n.count > n.limit {
		n.exceeded = true
	}
	return !n.exceeded
}

func (n *normalizer) value(v hxser.Value) models.Value {
	if !n.grow(1) {
		return nil
	}

	switch v := v.(type) {
	case hxser.Null:
		return nil
	case hxser.Bool:
		return bool(v)
	case hxser.Int:
		return int64(v)
	case hxser.Float:
		return float64(v)
	case hxser.String:
		return string(v)
	case *hxser.Array:
		// the length bookkeeping becomes the sequence length
		size := v.Length
		if len(v.Items) > size {
			size = len(v.Items)
		}
		// holes count too
		if !n.grow(size) {
			return nil
		}
		out := make(models.Array, size)
		for i, item := range v.Items {
			if item != nil {
				out[i] = n.value(item)
			}
		}
		return out
	case *hxser.Object:
		out := models.NewObject()
		for _, f := range v.Fields {
			out.Set(f.Key, n.value(f.Value))
		}
		return out
	case *hxser.Class:
		out := models.NewObject(models.Member{Key: models.ClassNameKey, Value: v.Name})
		for _, f := range v.Fields {
			out.Set(f.Key, n.value(f.Value))
		}
		return out
	case *hxser.Enum:
		return models.NewObject(
			models.Member{Key: models.EnumNameKey, Value: v.Name},
			models.Member{Key: models.EnumTagKey, Value: v.Tag},
			models.Member{Key: models.EnumArgsKey, Value: n.items(v.Args)},
		)
	case *hxser.Ref:
		if v.Target == nil {
			return nil
		}
		return n.value(v.Target)
	case *hxser.List:
		return hinted(HintList, ItemsKey, n.items(v.Items))
	case *hxser.StringMap:
		entries := models.NewObject()
		for _, f := range v.Entries {
			entries.Set(f.Key, n.value(f.Value))
		}
		return hinted(HintStringMap, EntriesKey, entries)
	case *hxser.IntMap:
		entries := models.NewObject()
		for _, e := range v.Entries {
			entries.Set(strconv.FormatInt(e.Key, 10), n.value(e.Value))
		}
		return hinted(HintIntMap, EntriesKey, entries)
	case *hxser.ObjectMap:
		entries := make(models.Array, len(v.Entries))
		for i, e := range v.Entries {
			entries[i] = models.NewObject(
				models.Member{Key: KeyKey, Value: n.value(e.Key)},
				models.Member{Key: ValueKey, Value: n.value(e.Value)},
			)
		}
		return hinted(HintObjectMap, EntriesKey, entries)
	case *hxser.Date:
		return hinted(HintDate, ValueKey, v.Text)
	case hxser.Bytes:
		return hinted(HintBytes, Base64Key, base64.StdEncoding.EncodeToString(v))
	case *hxser.Exception:
		return hinted(HintException, ValueKey, n.value(v.Value))
	case *hxser.TypeRef:
		if v.Enum {
			return hinted(HintEnum, NameKey, v.Name)
		}
		return hinted(HintClass, NameKey, v.Name)
	default:
		return nil
	}
}

func (n *normalizer) items(items []hxser.Value) models.Array {
	out := make(models.Array, len(items))
	for i, item := range items {
		out[i] = n.value(item)
	}
	return out
}

func hinted(hint, key string, payload models.Value) *models.Object {
	return models.NewObject(
		models.Member{Key: models.TypeHintKey, Value: hint},
		models.Member{Key: key, Value: payload},
	)
}

// Error reports a document node that cannot be turned back into a
// serialized value.
type Error struct {
	Path string
	Msg  string
}

func (e *Error) Error() string {
	if e.Path == "" {
		return "document root: " + e.Msg
	}
	return e.Path + ": " + e.Msg
}

func errorf(path, format string, args ...any) error {
	return &Error{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// Denormalize turns a plain tree back into a serialized value graph.
// Extra keys on enum objects are ignored.
func Denormalize(v models.Value) (hxser.Value, error) {
	return denormalize(v, "")
}

func denormalize(v models.Value, path string) (hxser.Value, error) {
	switch v := v.(type) {
	case nil:
		return hxser.Null{}, nil
	case bool:
		return hxser.Bool(v), nil
	case int64:
		return hxser.Int(v), nil
	case int:
		return hxser.Int(v), nil
	case float64:
		return hxser.Float(v), nil
	case string:
		return hxser.String(v), nil
	case models.Array:
		items, err := denormalizeItems(v, path)
		if err != nil {
			return nil, err
		}
		return hxser.NewArray(items...), nil
	case *models.Object:
		if v == nil {
			return hxser.Null{}, nil
		}
		return denormalizeObject(v, path)
	default:
		return nil, errorf(path, "unsupported value of type %T", v)
	}
}

func denormalizeItems(items models.Array, path string) ([]hxser.Value, error) {
	out := make([]hxser.Value, len(items))
	for i, item := range items {
		v, err := denormalize(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func denormalizeObject(o *models.Object, path string) (hxser.Value, error) {
	if o.Has(models.EnumNameKey) && o.Has(models.EnumTagKey) {
		return denormalizeEnum(o, path)
	}
	if name, ok := o.Get(models.ClassNameKey); ok {
		s, ok := name.(string)
		if !ok {
			return nil, errorf(join(path, models.ClassNameKey), "class name must be a string, got %T", name)
		}
		fields, err := denormalizeFields(o, path, models.ClassNameKey)
		if err != nil {
			return nil, err
		}
		return &hxser.Class{Name: s, Fields: fields}, nil
	}
	if hint, ok := o.Get(models.TypeHintKey); ok {
		if s, ok := hint.(string); ok {
			if v, handled, err := denormalizeHinted(s, o, path); handled {
				return v, err
			}
		}
	}
	fields, err := denormalizeFields(o, path, "")
	if err != nil {
		return nil, err
	}
	return &hxser.Object{Fields: fields}, nil
}

func denormalizeEnum(o *models.Object, path string) (hxser.Value, error) {
	name, err := stringMember(o, models.EnumNameKey, path)
	if err != nil {
		return nil, err
	}
	tag, err := stringMember(o, models.EnumTagKey, path)
	if err != nil {
		return nil, err
	}
	e := &hxser.Enum{Name: name, Tag: tag}
	switch args := member(o, models.EnumArgsKey).(type) {
	case nil:
	case models.Array:
		if len(args) > 0 {
			e.Args, err = denormalizeItems(args, join(path, models.EnumArgsKey))
			if err != nil {
				return nil, err
			}
		}
	default:
		return nil, errorf(join(path, models.EnumArgsKey), "enum arguments must be an array, got %T", args)
	}
	return e, nil
}

// denormalizeHinted handles objects tagged with a known __type hint.
// Unknown hints report handled false and are kept as plain objects.
func denormalizeHinted(hint string, o *models.Object, path string) (hxser.Value, bool, error) {
	switch hint {
	case HintList:
		items, ok := member(o, ItemsKey).(models.Array)
		if !ok {
			return nil, true, errorf(join(path, ItemsKey), "List items must be an array")
		}
		values, err := denormalizeItems(items, join(path, ItemsKey))
		if err != nil {
			return nil, true, err
		}
		return &hxser.List{Items: values}, true, nil

	case HintStringMap:
		entries, ok := member(o, EntriesKey).(*models.Object)
		if !ok {
			return nil, true, errorf(join(path, EntriesKey), "StringMap entries must be an object")
		}
		fields, err := denormalizeFields(entries, join(path, EntriesKey), "")
		if err != nil {
			return nil, true, err
		}
		return &hxser.StringMap{Entries: fields}, true, nil

	case HintIntMap:
		entries, ok := member(o, EntriesKey).(*models.Object)
		if !ok {
			return nil, true, errorf(join(path, EntriesKey), "IntMap entries must be an object")
		}
		m := &hxser.IntMap{}
		for _, member := range entries.Members() {
			p := join(join(path, EntriesKey), member.Key)
			key, err := strconv.ParseInt(member.Key, 10, 64)
			if err != nil {
				return nil, true, errorf(p, "IntMap key is not an integer")
			}
			v, err := denormalize(member.Value, p)
			if err != nil {
				return nil, true, err
			}
			m.Entries = append(m.Entries, hxser.IntEntry{Key: key, Value: v})
		}
		return m, true, nil

	case HintObjectMap:
		entries, ok := member(o, EntriesKey).(models.Array)
		if !ok {
			return nil, true, errorf(join(path, EntriesKey), "ObjectMap entries must be an array")
		}
		m := &hxser.ObjectMap{}
		for i, entry := range entries {
			p := fmt.Sprintf("%s[%d]", join(path, EntriesKey), i)
			pair, ok := entry.(*models.Object)
			if !ok {
				return nil, true, errorf(p, "ObjectMap entry must be an object with key and value")
			}
			k, err := denormalize(member(pair, KeyKey), join(p, KeyKey))
			if err != nil {
				return nil, true, err
			}
			v, err := denormalize(member(pair, ValueKey), join(p, ValueKey))
			if err != nil {
				return nil, true, err
			}
			m.Entries = append(m.Entries, hxser.MapEntry{Key: k, Value: v})
		}
		return m, true, nil

	case HintDate:
		switch t := member(o, ValueKey).(type) {
		case string:
			return &hxser.Date{Text: t}, true, nil
		case int64:
			return &hxser.Date{Text: strconv.FormatInt(t, 10)}, true, nil
		case float64:
			return &hxser.Date{Text: hxser.FormatFloat(t)}, true, nil
		default:
			return nil, true, errorf(join(path, ValueKey), "Date value must be a string or a timestamp")
		}

	case HintBytes:
		s, err := stringMember(o, Base64Key, path)
		if err != nil {
			return nil, true, err
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, true, errorf(join(path, Base64Key), "invalid base64: %v", err)
		}
		return hxser.Bytes(b), true, nil

	case HintException:
		v, err := denormalize(member(o, ValueKey), join(path, ValueKey))
		if err != nil {
			return nil, true, err
		}
		return &hxser.Exception{Value: v}, true, nil

	case HintClass, HintEnum:
		name, err := stringMember(o, NameKey, path)
		if err != nil {
			return nil, true, err
		}
		return &hxser.TypeRef{Enum: hint == HintEnum, Name: name}, true, nil
	}
	return nil, false, nil
}

func denormalizeFields(o *models.Object, path, skip string) ([]hxser.Field, error) {
	var fields []hxser.Field
	for _, m := range o.Members() {
		if skip != "" && m.Key == skip {
			continue
		}
		v, err := denormalize(m.Value, join(path, m.Key))
		if err != nil {
			return nil, err
		}
		fields = append(fields, hxser.Field{Key: m.Key, Value: v})
	}
	return fields, nil
}

func stringMember(o *models.Object, key, path string) (string, error) {
	v, _ := o.Get(key)
	s, ok := v.(string)
	if !ok {
		return "", errorf(join(path, key), "must be a string, got %T", v)
	}
	return s, nil
}

func member(o *models.Object, key string) models.Value {
	v, _ := o.Get(key)
	return v
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
