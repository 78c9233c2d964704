package wire

import (
	"bytes"
	"math"
	"reflect"
	"sort"
)

// MaxDepth bounds container nesting for both encoding and decoding.
const MaxDepth = 512

// Marshaler is implemented by host types that build their own Value.
type Marshaler interface {
	MarshalWire() (Value, error)
}

// Encoder turns host values into the wire format. It holds no per-call
// state and is safe for concurrent use.
type Encoder struct {
	registry *Registry
}

// NewEncoder returns an encoder that resolves records through r, or through
// DefaultRegistry when r is nil.
func NewEncoder(r *Registry) *Encoder {
	if r == nil {
		r = DefaultRegistry
	}
	return &Encoder{registry: r}
}

var defaultEncoder = NewEncoder(nil)

// Marshal encodes v using DefaultRegistry.
func Marshal(v any) ([]byte, error) {
	return defaultEncoder.Marshal(v)
}

// Marshal encodes v into a fresh buffer. On error no output is returned.
func (e *Encoder) Marshal(v any) ([]byte, error) {
	b, err := e.append(make([]byte, 0, 64), v, 0)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Append appends the encoding of v to dst. On error dst is returned
// unchanged.
func (e *Encoder) Append(dst []byte, v any) ([]byte, error) {
	n := len(dst)
	b, err := e.append(dst, v, 0)
	if err != nil {
		return b[:n], err
	}
	return b, nil
}

func (e *Encoder) append(b []byte, v any, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return b, ErrMaxDepth
	}

	switch x := v.(type) {
	case nil:
		return append(b, byte(TagNull)), nil
	case Value:
		return appendValue(b, x, depth)
	case *Value:
		if x == nil {
			return append(b, byte(TagNull)), nil
		}
		return appendValue(b, *x, depth)
	case bool:
		return appendBool(b, x), nil
	case int:
		return appendInt(b, int64(x)), nil
	case int8:
		return appendInt(b, int64(x)), nil
	case int16:
		return appendInt(b, int64(x)), nil
	case int32:
		return appendInt(b, int64(x)), nil
	case int64:
		return appendInt(b, x), nil
	case float32:
		return appendFloat(b, float64(x)), nil
	case float64:
		return appendFloat(b, x), nil
	case string:
		return appendText(b, x), nil
	case []byte:
		if x == nil {
			return append(b, byte(TagNull)), nil
		}
		return appendBytes(b, TagBytes, x), nil
	case []any:
		if x == nil {
			return append(b, byte(TagNull)), nil
		}
		b = appendCount(b, TagSequence, len(x))
		for _, item := range x {
			var err error
			if b, err = e.append(b, item, depth+1); err != nil {
				return b, err
			}
		}
		return b, nil
	}

	rv := reflect.ValueOf(v)
	if rt, ok := e.registry.lookup(rv.Type()); ok {
		return rt.appendRecord(e, b, rv, depth)
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return append(b, byte(TagNull)), nil
		}
		if rt, ok := e.registry.lookup(rv.Type().Elem()); ok {
			return rt.appendRecord(e, b, rv.Elem(), depth)
		}
	}
	if m, ok := v.(Marshaler); ok {
		val, err := m.MarshalWire()
		if err != nil {
			return b, err
		}
		return appendValue(b, val, depth)
	}
	return e.appendReflect(b, rv, depth)
}

func (e *Encoder) appendReflect(b []byte, rv reflect.Value, depth int) ([]byte, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return appendBool(b, rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(b, rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return b, ErrIntOverflow
		}
		return appendInt(b, int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return appendFloat(b, rv.Float()), nil
	case reflect.String:
		return appendText(b, rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return append(b, byte(TagNull)), nil
		}
		return e.append(b, rv.Elem().Interface(), depth+1)
	case reflect.Slice:
		if rv.IsNil() {
			return append(b, byte(TagNull)), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return appendBytes(b, TagBytes, rv.Bytes()), nil
		}
		return e.appendList(b, rv, depth)
	case reflect.Array:
		return e.appendList(b, rv, depth)
	case reflect.Map:
		if rv.IsNil() {
			return append(b, byte(TagNull)), nil
		}
		return e.appendMap(b, rv, depth)
	}
	return b, &UnsupportedValueKindError{Type: rv.Type()}
}

func (e *Encoder) appendList(b []byte, rv reflect.Value, depth int) ([]byte, error) {
	n := rv.Len()
	b = appendCount(b, TagSequence, n)
	for i := 0; i < n; i++ {
		var err error
		if b, err = e.append(b, rv.Index(i).Interface(), depth+1); err != nil {
			return b, err
		}
	}
	return b, nil
}

// appendMap writes a Go map with its entries sorted by encoded key, then by
// encoded value for keys that encode alike, so the output does not depend
// on map iteration order.
func (e *Encoder) appendMap(b []byte, rv reflect.Value, depth int) ([]byte, error) {
	type entry struct {
		key, val []byte
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k, err := e.append(nil, iter.Key().Interface(), depth+1)
		if err != nil {
			return b, err
		}
		val, err := e.append(nil, iter.Value().Interface(), depth+1)
		if err != nil {
			return b, err
		}
		entries = append(entries, entry{key: k, val: val})
	}
	sort.Slice(entries, func(i, j int) bool {
		if c := bytes.Compare(entries[i].key, entries[j].key); c != 0 {
			return c < 0
		}
		return bytes.Compare(entries[i].val, entries[j].val) < 0
	})

	b = appendCount(b, TagMapping, len(entries))
	for _, en := range entries {
		b = append(b, en.key...)
		b = append(b, en.val...)
	}
	return b, nil
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, byte(TagTrue))
	}
	return append(b, byte(TagFalse))
}

func appendValue(b []byte, v Value, depth int) ([]byte, error) {
	if depth > MaxDepth {
		return b, ErrMaxDepth
	}
	var err error
	switch v.kind {
	case KindNull:
		b = append(b, byte(TagNull))
	case KindBool:
		b = appendBool(b, v.num == 1)
	case KindInt:
		b = appendInt(b, int64(v.num))
	case KindFloat:
		b = appendFloat(b, math.Float64frombits(v.num))
	case KindBytes:
		tag := TagBytes
		if v.text {
			tag = TagString
		}
		b = appendBytes(b, tag, v.data)
	case KindSequence:
		b = appendCount(b, TagSequence, len(v.items))
		for _, item := range v.items {
			if b, err = appendValue(b, item, depth+1); err != nil {
				return b, err
			}
		}
	case KindMapping:
		b = appendCount(b, TagMapping, len(v.pairs))
		for _, p := range v.pairs {
			if b, err = appendValue(b, p.Key, depth+1); err != nil {
				return b, err
			}
			if b, err = appendValue(b, p.Value, depth+1); err != nil {
				return b, err
			}
		}
	case KindRecord:
		b = append(b, byte(TagRecord))
		b = appendText(b, v.typeID)
		b = appendUvarint(b, uint64(len(v.fields)))
		for _, f := range v.fields {
			b = appendText(b, f.Name)
			if b, err = appendValue(b, f.Value, depth+1); err != nil {
				return b, err
			}
		}
	default:
		return b, &UnsupportedValueKindError{Type: reflect.TypeOf(v)}
	}
	return b, nil
}
