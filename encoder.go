package draco

// Encoder defines the interface for argument serialization and reply
// deserialization. The game server speaks the format implemented by
// encoders/wire.
type Encoder interface {
	// Encode serializes a call's argument list into bytes.
	Encode(v any) ([]byte, error)

	// Decode deserializes a reply body into v.
	Decode(data []byte, v any) error
}
