package wire

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Tag is the leading byte of every encoded value.
type Tag byte

const (
	TagNull     Tag = 0x00
	TagFalse    Tag = 0x01
	TagTrue     Tag = 0x02
	TagInt      Tag = 0x03
	TagFloat    Tag = 0x04
	TagBytes    Tag = 0x05
	TagString   Tag = 0x06
	TagSequence Tag = 0x07
	TagMapping  Tag = 0x08
	TagRecord   Tag = 0x09
)

// Valid reports whether t is part of the vocabulary.
func (t Tag) Valid() bool {
	return t <= TagRecord
}

func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagFalse:
		return "false"
	case TagTrue:
		return "true"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagBytes:
		return "bytes"
	case TagString:
		return "string"
	case TagSequence:
		return "sequence"
	case TagMapping:
		return "mapping"
	case TagRecord:
		return "record"
	}
	return "unknown"
}

// kind maps a tag to the Value kind it decodes to.
func (t Tag) kind() Kind {
	switch t {
	case TagNull:
		return KindNull
	case TagFalse, TagTrue:
		return KindBool
	case TagInt:
		return KindInt
	case TagFloat:
		return KindFloat
	case TagBytes, TagString:
		return KindBytes
	case TagSequence:
		return KindSequence
	case TagMapping:
		return KindMapping
	case TagRecord:
		return KindRecord
	}
	return KindNull
}

const floatSize = 8

func appendUvarint(b []byte, n uint64) []byte {
	return protowire.AppendVarint(b, n)
}

func appendInt(b []byte, v int64) []byte {
	b = append(b, byte(TagInt))
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendFloat(b []byte, v float64) []byte {
	b = append(b, byte(TagFloat))
	return binary.BigEndian.AppendUint64(b, math.Float64bits(v))
}

func appendBytes(b []byte, tag Tag, p []byte) []byte {
	b = append(b, byte(tag))
	b = protowire.AppendVarint(b, uint64(len(p)))
	return append(b, p...)
}

func appendText(b []byte, s string) []byte {
	b = append(b, byte(TagString))
	b = protowire.AppendVarint(b, uint64(len(s)))
	return append(b, s...)
}

func appendCount(b []byte, tag Tag, n int) []byte {
	b = append(b, byte(tag))
	return appendUvarint(b, uint64(n))
}
