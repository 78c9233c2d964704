package draco

import (
	"github.com/RobertWHurst/draco/wire"
)

// Reply is the outcome of a service call. Errors from encoding or delivery
// are carried inside and returned by every accessor.
type Reply struct {
	service string
	method  string
	data    []byte
	encoder Encoder
	err     error
}

// Err returns the call error, if any, without decoding the body.
func (r *Reply) Err() error {
	return r.err
}

// Bytes returns the undecoded reply body.
func (r *Reply) Bytes() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.data, nil
}

// Into decodes the reply body into v, which is usually a *wire.Value or a
// type implementing wire.Unmarshaler.
func (r *Reply) Into(v any) error {
	if r.err != nil {
		return r.err
	}
	if int64(len(r.data)) > MaxDecodeSize {
		return &CallError{Service: r.service, Method: r.method, Err: ErrReplyTooLarge}
	}
	if err := r.encoder.Decode(r.data, v); err != nil {
		return &CallError{Service: r.service, Method: r.method, Err: err}
	}
	return nil
}

// Value decodes the reply body as a generic value tree.
func (r *Reply) Value() (wire.Value, error) {
	var v wire.Value
	if err := r.Into(&v); err != nil {
		return wire.Value{}, err
	}
	return v, nil
}
