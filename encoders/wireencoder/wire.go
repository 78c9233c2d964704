// Package wireencoder provides the draco.Encoder for the game server's tagged
// binary format.
package wireencoder

import (
	"fmt"

	"github.com/RobertWHurst/draco"
	"github.com/RobertWHurst/draco/wire"
)

// Encoder implements draco.Encoder on top of package wire. Records are
// resolved through the registry given to NewWithRegistry, or through
// wire.DefaultRegistry where draco registers its request types.
type Encoder struct {
	enc *wire.Encoder
}

var _ draco.Encoder = &Encoder{}

// Encode serializes v to the wire format.
func (e *Encoder) Encode(v any) ([]byte, error) {
	return e.enc.Marshal(v)
}

// Decode deserializes data into v, which must be a *wire.Value or implement
// wire.Unmarshaler.
func (e *Encoder) Decode(data []byte, v any) error {
	switch target := v.(type) {
	case *wire.Value:
		val, err := wire.Unmarshal(data)
		if err != nil {
			return err
		}
		*target = val
		return nil
	case wire.Unmarshaler:
		val, err := wire.Unmarshal(data)
		if err != nil {
			return err
		}
		return target.UnmarshalWire(val)
	}
	return fmt.Errorf("wireencoder: cannot decode into %T", v)
}

// New creates an encoder using wire.DefaultRegistry.
func New() *Encoder {
	return NewWithRegistry(nil)
}

// NewWithRegistry creates an encoder resolving records through r.
func NewWithRegistry(r *wire.Registry) *Encoder {
	return &Encoder{enc: wire.NewEncoder(r)}
}
