package wire

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// FieldSpec declares one field of the record type T: its wire name, the
// kind it is encoded as, and how to read it from a T.
type FieldSpec[T any] struct {
	Name     string
	Kind     Kind
	Optional bool
	get      func(*T) (any, bool)
}

// FieldOf builds a FieldSpec. The getter's result is encoded with the
// normal encoder rules and must produce kind, or Null.
func FieldOf[T, V any](name string, kind Kind, get func(*T) V) FieldSpec[T] {
	return FieldSpec[T]{
		Name: name,
		Kind: kind,
		get:  func(t *T) (any, bool) { return get(t), true },
	}
}

// OptionalFieldOf builds a FieldSpec for a field that is left out of the
// record whenever get reports false.
func OptionalFieldOf[T, V any](name string, kind Kind, get func(*T) (V, bool)) FieldSpec[T] {
	return FieldSpec[T]{
		Name:     name,
		Kind:     kind,
		Optional: true,
		get: func(t *T) (any, bool) {
			v, ok := get(t)
			return v, ok
		},
	}
}

// Descriptor is the static layout of an outbound record type. Field order
// is wire order.
type Descriptor[T any] struct {
	TypeID string
	Fields []FieldSpec[T]
}

// Schema is the type-erased view of a registered Descriptor.
type Schema struct {
	TypeID string
	Type   reflect.Type
	Fields []SchemaField
}

type SchemaField struct {
	Name     string
	Kind     Kind
	Optional bool
}

type recordType interface {
	schema() Schema
	appendRecord(e *Encoder, b []byte, v reflect.Value, depth int) ([]byte, error)
}

type descriptorType[T any] struct {
	d Descriptor[T]
	s Schema
}

func (dt *descriptorType[T]) schema() Schema {
	return dt.s
}

func (dt *descriptorType[T]) appendRecord(e *Encoder, b []byte, v reflect.Value, depth int) ([]byte, error) {
	var p *T
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return append(b, byte(TagNull)), nil
		}
		p = v.Interface().(*T)
	default:
		t := v.Interface().(T)
		p = &t
	}

	type present struct {
		f   *FieldSpec[T]
		val any
	}
	fields := make([]present, 0, len(dt.d.Fields))
	for i := range dt.d.Fields {
		f := &dt.d.Fields[i]
		if val, ok := f.get(p); ok {
			fields = append(fields, present{f: f, val: val})
		}
	}

	b = append(b, byte(TagRecord))
	b = appendText(b, dt.d.TypeID)
	b = appendUvarint(b, uint64(len(fields)))
	for _, pf := range fields {
		f := pf.f
		b = appendText(b, f.Name)
		start := len(b)
		var err error
		b, err = e.append(b, pf.val, depth+1)
		if err != nil {
			return b, err
		}
		got := Tag(b[start]).kind()
		if got != f.Kind && got != KindNull {
			return b, &FieldKindError{TypeID: dt.d.TypeID, Field: f.Name, Want: f.Kind, Got: got}
		}
	}
	return b, nil
}

// Registry maps host types to their record descriptors.
type Registry struct {
	mu    sync.RWMutex
	types map[reflect.Type]recordType
	ids   map[string]reflect.Type
}

func NewRegistry() *Registry {
	return &Registry{
		types: make(map[reflect.Type]recordType),
		ids:   make(map[string]reflect.Type),
	}
}

// DefaultRegistry is used by Marshal and by encoders created with a nil
// registry.
var DefaultRegistry = NewRegistry()

// Register adds the descriptor for T. A type or type identifier may only be
// registered once.
func Register[T any](r *Registry, d Descriptor[T]) error {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
		return fmt.Errorf("wire: register %s: record type must not be a pointer or interface", typ)
	}
	if d.TypeID == "" {
		return fmt.Errorf("wire: register %s: empty type identifier", typ)
	}
	seen := make(map[string]bool, len(d.Fields))
	fields := make([]SchemaField, len(d.Fields))
	for i, f := range d.Fields {
		if f.get == nil {
			return fmt.Errorf("wire: register %s: field %q has no getter", d.TypeID, f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("wire: register %s: duplicate field %q", d.TypeID, f.Name)
		}
		seen[f.Name] = true
		fields[i] = SchemaField{Name: f.Name, Kind: f.Kind, Optional: f.Optional}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.types[typ]; ok {
		return fmt.Errorf("wire: register %s: type already registered", typ)
	}
	if other, ok := r.ids[d.TypeID]; ok {
		return fmt.Errorf("wire: register %s: type identifier %q already used by %s", typ, d.TypeID, other)
	}
	r.types[typ] = &descriptorType[T]{
		d: d,
		s: Schema{TypeID: d.TypeID, Type: typ, Fields: fields},
	}
	r.ids[d.TypeID] = typ
	return nil
}

// MustRegister is Register for package-level declarations.
func MustRegister[T any](r *Registry, d Descriptor[T]) {
	if err := Register(r, d); err != nil {
		panic(err)
	}
}

// Lookup returns the schema registered for typ.
func (r *Registry) Lookup(typ reflect.Type) (Schema, bool) {
	rt, ok := r.lookup(typ)
	if !ok {
		return Schema{}, false
	}
	return rt.schema(), true
}

// Schemas lists every registered schema ordered by type identifier.
func (r *Registry) Schemas() []Schema {
	r.mu.RLock()
	out := make([]Schema, 0, len(r.types))
	for _, rt := range r.types {
		out = append(out, rt.schema())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

func (r *Registry) lookup(typ reflect.Type) (recordType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rt, ok := r.types[typ]
	return rt, ok
}
