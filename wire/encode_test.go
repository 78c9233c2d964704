package wire

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestMarshalPrimitives(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []byte
	}{
		{name: "nil", input: nil, expected: []byte{0x00}},
		{name: "false", input: false, expected: []byte{0x01}},
		{name: "true", input: true, expected: []byte{0x02}},
		{name: "zero", input: 0, expected: []byte{0x03, 0x00}},
		{name: "one", input: int64(1), expected: []byte{0x03, 0x02}},
		{name: "minus one", input: int32(-1), expected: []byte{0x03, 0x01}},
		{name: "multi byte varint", input: 300, expected: []byte{0x03, 0xd8, 0x04}},
		{name: "unsigned", input: uint8(7), expected: []byte{0x03, 0x0e}},
		{name: "float", input: 1.5, expected: []byte{0x04, 0x3f, 0xf8, 0, 0, 0, 0, 0, 0}},
		{name: "string", input: "hi", expected: []byte{0x06, 0x02, 'h', 'i'}},
		{name: "empty string", input: "", expected: []byte{0x06, 0x00}},
		{name: "bytes", input: []byte{1, 2}, expected: []byte{0x05, 0x02, 1, 2}},
		{name: "nil bytes", input: []byte(nil), expected: []byte{0x00}},
		{name: "empty list", input: []any{}, expected: []byte{0x07, 0x00}},
		{name: "typed list", input: []string{"a"}, expected: []byte{0x07, 0x01, 0x06, 0x01, 'a'}},
		{name: "nil pointer", input: (*int)(nil), expected: []byte{0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.input)
			if err != nil {
				t.Fatalf("Marshal() failed: %v", err)
			}
			if !bytes.Equal(got, tt.expected) {
				t.Errorf("Expected % x, got % x", tt.expected, got)
			}
		})
	}
}

func TestMarshalRecordValue(t *testing.T) {
	got, err := Marshal(Record("T", Field{Name: "a", Value: Int(1)}))
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	expected := []byte{0x09, 0x06, 0x01, 'T', 0x01, 0x06, 0x01, 'a', 0x03, 0x02}
	if !bytes.Equal(got, expected) {
		t.Errorf("Expected % x, got % x", expected, got)
	}
}

func TestMarshalNamedTypes(t *testing.T) {
	type platform int
	type name string

	got, err := Marshal([]any{platform(2), name("x")})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	expected := []byte{0x07, 0x02, 0x03, 0x04, 0x06, 0x01, 'x'}
	if !bytes.Equal(got, expected) {
		t.Errorf("Expected % x, got % x", expected, got)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	input := []any{
		map[string]int{"b": 2, "a": 1, "c": 3, "d": 4, "e": 5},
		"event",
		math.Pi,
	}

	first, err := Marshal(input)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(input)
		if err != nil {
			t.Fatalf("Marshal() failed: %v", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatalf("Expected identical output on run %d", i)
		}
	}
}

func TestMarshalMapSortedByKey(t *testing.T) {
	encoded, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	v, err := Unmarshal(encoded)
	if err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	pairs, err := v.AsMapping()
	if err != nil {
		t.Fatalf("AsMapping() failed: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		got, _ := pairs[i].Key.AsString()
		if got != want {
			t.Errorf("Expected key %d to be '%s', got '%s'", i, want, got)
		}
	}
}

func TestMarshalMapEqualKeysDeterministic(t *testing.T) {
	nan := map[float64]int{}
	for i := 0; i < 8; i++ {
		nan[math.NaN()] = i
	}
	mixed := map[any]string{int(1): "int", int8(1): "int8", int64(1): "int64"}

	for name, m := range map[string]any{"nan keys": nan, "mixed int keys": mixed} {
		t.Run(name, func(t *testing.T) {
			first, err := Marshal(m)
			if err != nil {
				t.Fatalf("Marshal() failed: %v", err)
			}
			for i := 0; i < 100; i++ {
				again, _ := Marshal(m)
				if !bytes.Equal(first, again) {
					t.Fatalf("Encoding changed on run %d:\n% x\n% x", i, first, again)
				}
			}
		})
	}
}

func TestMarshalMappingKeepsInsertionOrder(t *testing.T) {
	m := Mapping(
		Pair{Key: String("z"), Value: Int(1)},
		Pair{Key: String("a"), Value: Int(2)},
	)
	encoded, err := Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	v, _ := Unmarshal(encoded)
	pairs, _ := v.AsMapping()
	if k, _ := pairs[0].Key.AsString(); k != "z" {
		t.Errorf("Expected first key 'z', got '%s'", k)
	}
}

func TestMarshalUnsupported(t *testing.T) {
	type unknown struct{ X int }

	_, err := Marshal(unknown{X: 1})
	if !errors.Is(err, ErrUnsupportedValueKind) {
		t.Fatalf("Expected ErrUnsupportedValueKind, got %v", err)
	}
	var kindErr *UnsupportedValueKindError
	if !errors.As(err, &kindErr) {
		t.Fatalf("Expected *UnsupportedValueKindError, got %T", err)
	}
	if kindErr.Type.Name() != "unknown" {
		t.Errorf("Expected offending type 'unknown', got '%s'", kindErr.Type)
	}
}

func TestMarshalUnsupportedNestedReturnsNoOutput(t *testing.T) {
	out, err := Marshal([]any{"ok", 1, make(chan int)})
	if !errors.Is(err, ErrUnsupportedValueKind) {
		t.Fatalf("Expected ErrUnsupportedValueKind, got %v", err)
	}
	if out != nil {
		t.Errorf("Expected no output, got % x", out)
	}
}

func TestAppendLeavesDestinationOnError(t *testing.T) {
	dst := []byte{0xaa, 0xbb}
	out, err := NewEncoder(nil).Append(dst, []any{"partial", func() {}})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !bytes.Equal(out, []byte{0xaa, 0xbb}) {
		t.Errorf("Expected destination unchanged, got % x", out)
	}
}

func TestMarshalUnsignedOverflow(t *testing.T) {
	_, err := Marshal(uint64(math.MaxUint64))
	if !errors.Is(err, ErrIntOverflow) {
		t.Errorf("Expected ErrIntOverflow, got %v", err)
	}
}

func TestMarshalCycleHitsDepthLimit(t *testing.T) {
	list := []any{nil}
	list[0] = list

	_, err := Marshal(list)
	if !errors.Is(err, ErrMaxDepth) {
		t.Errorf("Expected ErrMaxDepth, got %v", err)
	}
}

type versions []int64

func (v versions) MarshalWire() (Value, error) {
	pairs := make([]Pair, len(v))
	for i, n := range v {
		pairs[i] = Pair{Key: Int(int64(i)), Value: Int(n)}
	}
	return Mapping(pairs...), nil
}

func TestMarshalMarshaler(t *testing.T) {
	encoded, err := Marshal(versions{10, 20})
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	v, err := Unmarshal(encoded)
	if err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if v.Kind() != KindMapping || v.Len() != 2 {
		t.Errorf("Expected mapping of 2, got %s", v)
	}
}

func BenchmarkMarshal(b *testing.B) {
	input := []any{"LoadingScreenPercent", "user-1", map[string]any{"w": 750, "h": 1334}, "100", nil, nil, nil, nil}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Marshal(input)
	}
}
