package wire

import (
	"encoding/binary"
	"errors"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decoder reads consecutive values from a buffer. The buffer is never
// retained by returned values.
type Decoder struct {
	buf []byte
	off int
}

func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Decode reads the next value and advances past it. On error the decoder
// position is left where it was.
func (d *Decoder) Decode() (Value, error) {
	start := d.off
	v, err := d.value(0)
	if err != nil {
		d.off = start
		return Value{}, err
	}
	return v, nil
}

// Offset is the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// More reports whether unread bytes remain.
func (d *Decoder) More() bool {
	return d.off < len(d.buf)
}

// Decode reads one value from the front of buf and reports how many bytes
// it consumed.
func Decode(buf []byte) (Value, int, error) {
	d := NewDecoder(buf)
	v, err := d.Decode()
	if err != nil {
		return Value{}, 0, err
	}
	return v, d.off, nil
}

// Unmarshal decodes buf as exactly one value.
func Unmarshal(buf []byte) (Value, error) {
	v, n, err := Decode(buf)
	if err != nil {
		return Value{}, err
	}
	if n != len(buf) {
		return Value{}, &DecodeError{Offset: n, Err: ErrTrailingBytes}
	}
	return v, nil
}

func (d *Decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *Decoder) errEnd() error {
	return &DecodeError{Offset: len(d.buf), Err: ErrUnexpectedEndOfBuffer}
}

func (d *Decoder) tag() (Tag, error) {
	if d.off >= len(d.buf) {
		return 0, d.errEnd()
	}
	t := Tag(d.buf[d.off])
	d.off++
	return t, nil
}

func (d *Decoder) uvarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(d.buf[d.off:])
	if n < 0 {
		if errors.Is(protowire.ParseError(n), io.ErrUnexpectedEOF) {
			return 0, d.errEnd()
		}
		return 0, &DecodeError{Offset: d.off, Err: ErrMalformedVarint}
	}
	d.off += n
	return v, nil
}

// count reads a length or element-count prefix where every unit needs at
// least minSize bytes, so impossible counts fail before allocation.
func (d *Decoder) count(minSize int) (int, error) {
	n, err := d.uvarint()
	if err != nil {
		return 0, err
	}
	if n > uint64(d.remaining()/minSize) {
		return 0, d.errEnd()
	}
	return int(n), nil
}

func (d *Decoder) payload() ([]byte, error) {
	n, err := d.count(1)
	if err != nil {
		return nil, err
	}
	p := make([]byte, n)
	copy(p, d.buf[d.off:d.off+n])
	d.off += n
	return p, nil
}

// ident reads a record or field identifier, which must be a Bytes value.
func (d *Decoder) ident() (string, error) {
	t, err := d.tag()
	if err != nil {
		return "", err
	}
	if t != TagString && t != TagBytes {
		return "", &DecodeError{Offset: d.off - 1, Tag: t, Err: ErrUnknownTag}
	}
	p, err := d.payload()
	if err != nil {
		return "", err
	}
	return string(p), nil
}

func (d *Decoder) value(depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, &DecodeError{Offset: d.off, Err: ErrMaxDepth}
	}
	t, err := d.tag()
	if err != nil {
		return Value{}, err
	}

	switch t {
	case TagNull:
		return Null(), nil
	case TagFalse:
		return Bool(false), nil
	case TagTrue:
		return Bool(true), nil
	case TagInt:
		u, err := d.uvarint()
		if err != nil {
			return Value{}, err
		}
		return Int(protowire.DecodeZigZag(u)), nil
	case TagFloat:
		if d.remaining() < floatSize {
			return Value{}, d.errEnd()
		}
		bits := binary.BigEndian.Uint64(d.buf[d.off:])
		d.off += floatSize
		return Value{kind: KindFloat, num: bits}, nil
	case TagBytes, TagString:
		p, err := d.payload()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindBytes, data: p, text: t == TagString}, nil
	case TagSequence:
		n, err := d.count(1)
		if err != nil {
			return Value{}, err
		}
		items := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			item, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, item)
		}
		return Value{kind: KindSequence, items: items}, nil
	case TagMapping:
		n, err := d.count(2)
		if err != nil {
			return Value{}, err
		}
		pairs := make([]Pair, 0, n)
		for i := 0; i < n; i++ {
			k, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
		return Value{kind: KindMapping, pairs: pairs}, nil
	case TagRecord:
		typeID, err := d.ident()
		if err != nil {
			return Value{}, err
		}
		// Each field is at least an identifier tag, its length and a value.
		n, err := d.count(3)
		if err != nil {
			return Value{}, err
		}
		fields := make([]Field, 0, n)
		for i := 0; i < n; i++ {
			name, err := d.ident()
			if err != nil {
				return Value{}, err
			}
			v, err := d.value(depth + 1)
			if err != nil {
				return Value{}, err
			}
			fields = append(fields, Field{Name: name, Value: v})
		}
		return Value{kind: KindRecord, typeID: typeID, fields: fields}, nil
	}
	return Value{}, &DecodeError{Offset: d.off - 1, Tag: t, Err: ErrUnknownTag}
}

// Unmarshaler is implemented by host types that project themselves out of a
// decoded Value.
type Unmarshaler interface {
	UnmarshalWire(Value) error
}
