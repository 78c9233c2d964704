package draco

import (
	"context"
	"errors"
	"testing"

	"github.com/RobertWHurst/draco/wire"
)

type mockEncoder struct {
	encodeFunc func(v any) ([]byte, error)
	decodeFunc func(data []byte, v any) error
}

func (m *mockEncoder) Encode(v any) ([]byte, error) {
	if m.encodeFunc != nil {
		return m.encodeFunc(v)
	}
	return []byte("encoded"), nil
}

func (m *mockEncoder) Decode(data []byte, v any) error {
	if m.decodeFunc != nil {
		return m.decodeFunc(data, v)
	}
	return nil
}

// wireEncoder is a mockEncoder that speaks the real wire format.
func wireEncoder() *mockEncoder {
	return &mockEncoder{
		encodeFunc: wire.Marshal,
		decodeFunc: func(data []byte, v any) error {
			val, err := wire.Unmarshal(data)
			if err != nil {
				return err
			}
			switch target := v.(type) {
			case *wire.Value:
				*target = val
				return nil
			case wire.Unmarshaler:
				return target.UnmarshalWire(val)
			}
			return errors.New("unsupported target")
		},
	}
}

type mockTransport struct {
	callFunc  func(ctx context.Context, call *Call) (*Response, error)
	pingFunc  func(ctx context.Context) error
	closeFunc func() error
}

func (m *mockTransport) Call(ctx context.Context, call *Call) (*Response, error) {
	if m.callFunc != nil {
		return m.callFunc(ctx, call)
	}
	return &Response{}, nil
}

func (m *mockTransport) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

func (m *mockTransport) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func TestReplyInto(t *testing.T) {
	encoder := &mockEncoder{
		decodeFunc: func(data []byte, v any) error {
			if ptr, ok := v.(*string); ok {
				*ptr = "decoded"
			}
			return nil
		},
	}

	reply := &Reply{
		service: "ItemService",
		method:  "getUserItems",
		data:    []byte("test data"),
		encoder: encoder,
	}

	var result string
	err := reply.Into(&result)
	if err != nil {
		t.Fatalf("Into() failed: %v", err)
	}

	if result != "decoded" {
		t.Errorf("Expected 'decoded', got '%s'", result)
	}
}

func TestReplyIntoWithError(t *testing.T) {
	expectedErr := errors.New("decode error")
	encoder := &mockEncoder{
		decodeFunc: func(data []byte, v any) error {
			return expectedErr
		},
	}

	reply := &Reply{service: "ItemService", method: "getUserItems", encoder: encoder}

	var result string
	err := reply.Into(&result)
	if !errors.Is(err, expectedErr) {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}

	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Service != "ItemService" || callErr.Method != "getUserItems" {
		t.Errorf("Expected CallError naming the call, got %v", err)
	}
}

func TestReplyIntoWithPriorError(t *testing.T) {
	expectedErr := errors.New("prior error")
	decodeCalled := false
	encoder := &mockEncoder{
		decodeFunc: func(data []byte, v any) error {
			decodeCalled = true
			return nil
		},
	}

	reply := &Reply{encoder: encoder, err: expectedErr}

	var result string
	err := reply.Into(&result)
	if err != expectedErr {
		t.Errorf("Expected prior error %v, got %v", expectedErr, err)
	}
	if decodeCalled {
		t.Error("Decode should not run after a prior error")
	}
}

func TestReplyBytes(t *testing.T) {
	reply := &Reply{data: []byte("raw")}

	data, err := reply.Bytes()
	if err != nil {
		t.Fatalf("Bytes() failed: %v", err)
	}
	if string(data) != "raw" {
		t.Errorf("Expected 'raw', got '%s'", string(data))
	}

	expectedErr := errors.New("prior error")
	if _, err := (&Reply{err: expectedErr}).Bytes(); err != expectedErr {
		t.Errorf("Expected error %v, got %v", expectedErr, err)
	}
}

func TestReplyValue(t *testing.T) {
	data, _ := wire.Marshal([]any{"a", 1})
	reply := &Reply{data: data, encoder: wireEncoder()}

	v, err := reply.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}
	if !v.Equal(wire.Sequence(wire.String("a"), wire.Int(1))) {
		t.Errorf("Unexpected value %s", v)
	}
}

func TestReplyValueTruncated(t *testing.T) {
	data, _ := wire.Marshal([]any{"a", 1})
	reply := &Reply{data: data[:len(data)-1], encoder: wireEncoder()}

	_, err := reply.Value()
	if !errors.Is(err, wire.ErrUnexpectedEndOfBuffer) {
		t.Errorf("Expected ErrUnexpectedEndOfBuffer, got %v", err)
	}
}

func TestMaxDecodeSize(t *testing.T) {
	oldMax := MaxDecodeSize
	defer func() { MaxDecodeSize = oldMax }()

	MaxDecodeSize = 10

	reply := &Reply{data: make([]byte, 20), encoder: &mockEncoder{}}

	var result string
	err := reply.Into(&result)
	if !errors.Is(err, ErrReplyTooLarge) {
		t.Errorf("Expected ErrReplyTooLarge, got %v", err)
	}
}

func BenchmarkReplyValue(b *testing.B) {
	data, _ := wire.Marshal([]any{"LoadingScreenPercent", 100, nil})
	encoder := wireEncoder()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reply := &Reply{data: data, encoder: encoder}
		reply.Value()
	}
}
