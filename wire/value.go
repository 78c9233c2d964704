package wire

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindSequence
	KindMapping
	KindRecord
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBytes:
		return "bytes"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindRecord:
		return "record"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Pair is one entry of a Mapping.
type Pair struct {
	Key   Value
	Value Value
}

// Field is one named entry of a Record.
type Field struct {
	Name  string
	Value Value
}

// Value is the universal decoded form of the wire format and a valid input
// to the encoder. The zero Value is Null.
type Value struct {
	kind   Kind
	num    uint64
	data   []byte
	text   bool
	items  []Value
	pairs  []Pair
	typeID string
	fields []Field
}

func Null() Value {
	return Value{}
}

func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.num = 1
	}
	return v
}

func Int(i int64) Value {
	return Value{kind: KindInt, num: uint64(i)}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, num: math.Float64bits(f)}
}

// Bytes returns an opaque binary value.
func Bytes(b []byte) Value {
	return Value{kind: KindBytes, data: b}
}

// String returns a Bytes value flagged as UTF-8 text.
func String(s string) Value {
	return Value{kind: KindBytes, data: []byte(s), text: true}
}

func Sequence(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindSequence, items: items}
}

func Mapping(pairs ...Pair) Value {
	if pairs == nil {
		pairs = []Pair{}
	}
	return Value{kind: KindMapping, pairs: pairs}
}

func Record(typeID string, fields ...Field) Value {
	if fields == nil {
		fields = []Field{}
	}
	return Value{kind: KindRecord, typeID: typeID, fields: fields}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsText reports whether a Bytes value carries UTF-8 text.
func (v Value) IsText() bool {
	return v.kind == KindBytes && v.text
}

// Len returns the element count of a Sequence, Mapping or Record, the byte
// length of a Bytes value, and zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindBytes:
		return len(v.data)
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.pairs)
	case KindRecord:
		return len(v.fields)
	}
	return 0
}

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(KindBool, v.kind)
	}
	return v.num == 1, nil
}

func (v Value) AsInt() (int64, error) {
	if v.kind != KindInt {
		return 0, mismatch(KindInt, v.kind)
	}
	return int64(v.num), nil
}

func (v Value) AsFloat() (float64, error) {
	if v.kind != KindFloat {
		return 0, mismatch(KindFloat, v.kind)
	}
	return math.Float64frombits(v.num), nil
}

// AsBytes returns the payload of a Bytes value, text or binary.
func (v Value) AsBytes() ([]byte, error) {
	if v.kind != KindBytes {
		return nil, mismatch(KindBytes, v.kind)
	}
	return v.data, nil
}

// AsString returns the payload of a Bytes value as a string. Binary values
// are accepted as well since the server is not consistent about the flag.
func (v Value) AsString() (string, error) {
	if v.kind != KindBytes {
		return "", mismatch(KindBytes, v.kind)
	}
	return string(v.data), nil
}

func (v Value) AsSequence() ([]Value, error) {
	if v.kind != KindSequence {
		return nil, mismatch(KindSequence, v.kind)
	}
	return v.items, nil
}

func (v Value) AsMapping() ([]Pair, error) {
	if v.kind != KindMapping {
		return nil, mismatch(KindMapping, v.kind)
	}
	return v.pairs, nil
}

// AsRecord returns the type identifier and the ordered fields of a Record.
func (v Value) AsRecord() (string, []Field, error) {
	if v.kind != KindRecord {
		return "", nil, mismatch(KindRecord, v.kind)
	}
	return v.typeID, v.fields, nil
}

// TypeID returns the identifier of a Record, or "" for other kinds.
func (v Value) TypeID() string {
	return v.typeID
}

// Index returns the i-th element of a Sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Field returns the first field of a Record, or the first Mapping entry
// whose key is text equal to name.
func (v Value) Field(name string) (Value, bool) {
	switch v.kind {
	case KindRecord:
		for _, f := range v.fields {
			if f.Name == name {
				return f.Value, true
			}
		}
	case KindMapping:
		for _, p := range v.pairs {
			if p.Key.kind == KindBytes && string(p.Key.data) == name {
				return p.Value, true
			}
		}
	}
	return Value{}, false
}

// Lookup follows a path of field names through nested Records and
// Mappings.
func (v Value) Lookup(path ...string) (Value, error) {
	cur := v
	for i, name := range path {
		if cur.kind != KindRecord && cur.kind != KindMapping {
			return Value{}, &ProjectionError{Path: path[:i], Want: KindRecord, Got: cur.kind, Err: ErrTypeMismatch}
		}
		next, ok := cur.Field(name)
		if !ok {
			return Value{}, &ProjectionError{Path: path[:i+1], Err: ErrFieldNotFound}
		}
		cur = next
	}
	return cur, nil
}

// LookupString is Lookup followed by AsString.
func (v Value) LookupString(path ...string) (string, error) {
	f, err := v.Lookup(path...)
	if err != nil {
		return "", err
	}
	s, err := f.AsString()
	if err != nil {
		return "", withPath(err, path)
	}
	return s, nil
}

// LookupInt is Lookup followed by AsInt.
func (v Value) LookupInt(path ...string) (int64, error) {
	f, err := v.Lookup(path...)
	if err != nil {
		return 0, err
	}
	i, err := f.AsInt()
	if err != nil {
		return 0, withPath(err, path)
	}
	return i, nil
}

func withPath(err error, path []string) error {
	var pe *ProjectionError
	if errors.As(err, &pe) {
		pe.Path = path
	}
	return err
}

// Equal reports whether two values are the same. Mapping pairs are
// compared without regard to order; everything else is ordered.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool, KindInt, KindFloat:
		return v.num == o.num
	case KindBytes:
		return v.text == o.text && bytes.Equal(v.data, o.data)
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		return pairsEqual(v.pairs, o.pairs)
	case KindRecord:
		if v.typeID != o.typeID || len(v.fields) != len(o.fields) {
			return false
		}
		for i := range v.fields {
			if v.fields[i].Name != o.fields[i].Name || !v.fields[i].Value.Equal(o.fields[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

func pairsEqual(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
outer:
	for _, p := range a {
		for j, q := range b {
			if !used[j] && p.Key.Equal(q.Key) && p.Value.Equal(q.Value) {
				used[j] = true
				continue outer
			}
		}
		return false
	}
	return true
}

// String renders the value in a compact, human-readable form.
func (v Value) String() string {
	var sb strings.Builder
	v.format(&sb)
	return sb.String()
}

func (v Value) format(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.num == 1))
	case KindInt:
		sb.WriteString(strconv.FormatInt(int64(v.num), 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(math.Float64frombits(v.num), 'g', -1, 64))
	case KindBytes:
		if v.text {
			sb.WriteString(strconv.Quote(string(v.data)))
		} else {
			sb.WriteString("0x")
			sb.WriteString(hex.EncodeToString(v.data))
		}
	case KindSequence:
		sb.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				sb.WriteString(", ")
			}
			item.format(sb)
		}
		sb.WriteByte(']')
	case KindMapping:
		sb.WriteByte('{')
		for i, p := range v.pairs {
			if i > 0 {
				sb.WriteString(", ")
			}
			p.Key.format(sb)
			sb.WriteString(": ")
			p.Value.format(sb)
		}
		sb.WriteByte('}')
	case KindRecord:
		sb.WriteString(v.typeID)
		sb.WriteByte('{')
		for i, f := range v.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Value.format(sb)
		}
		sb.WriteByte('}')
	}
}
