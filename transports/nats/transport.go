// Package natstransport carries draco calls over NATS request/reply.
//
// A NatsTransport publishes each call as a msgpack Request envelope on
// draco.<service>.<method> and waits for a Reply envelope. A Gateway on the
// other side of the bus answers those requests by forwarding them to an
// upstream draco.Transport, normally the HTTP transport, so that many
// processes can share one game session.
package natstransport

import (
	"context"
	"errors"

	"github.com/RobertWHurst/draco"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// Request is the envelope of a call sent over NATS.
type Request struct {
	ID      string `msgpack:"id"`
	Service string `msgpack:"service"`
	Method  string `msgpack:"method"`
	Args    []byte `msgpack:"args"`
	Portal  string `msgpack:"portal,omitempty"`
}

// Reply is the envelope of a gateway's answer.
type Reply struct {
	Body   []byte `msgpack:"body,omitempty"`
	Portal string `msgpack:"portal,omitempty"`
	Error  string `msgpack:"error,omitempty"`
}

// RemoteError is a failure reported by the gateway.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "natstransport: remote: " + e.Message
}

// ErrNoConnection is returned when the transport has no NATS connection.
var ErrNoConnection = errors.New("natstransport: no connection")

// NatsTransport implements draco.Transport using NATS as the message broker.
type NatsTransport struct {
	NatsConnection *nats.Conn
}

var _ draco.Transport = &NatsTransport{}

// NewNatsTransport creates a new NATS transport using the provided connection.
func NewNatsTransport(natsConnection *nats.Conn) *NatsTransport {
	return &NatsTransport{
		NatsConnection: natsConnection,
	}
}

func (t *NatsTransport) Call(ctx context.Context, call *draco.Call) (*draco.Response, error) {
	if t.NatsConnection == nil {
		return nil, ErrNoConnection
	}

	buf, err := encodeRequest(call)
	if err != nil {
		return nil, err
	}

	msg, err := t.NatsConnection.RequestWithContext(ctx, callSubject(call.Service, call.Method), buf)
	if err != nil {
		return nil, err
	}

	return decodeReply(msg.Data)
}

func (t *NatsTransport) Ping(ctx context.Context) error {
	if t.NatsConnection == nil {
		return ErrNoConnection
	}

	msg, err := t.NatsConnection.RequestWithContext(ctx, pingSubject(), nil)
	if err != nil {
		return err
	}

	_, err = decodeReply(msg.Data)
	return err
}

// Close flushes pending messages. The connection belongs to the caller and
// is left open.
func (t *NatsTransport) Close() error {
	if t.NatsConnection == nil || t.NatsConnection.IsClosed() {
		return nil
	}
	return t.NatsConnection.Flush()
}

func callSubject(service, method string) string {
	return namespace(service, method)
}

func pingSubject() string {
	return namespace("ping")
}

func encodeRequest(call *draco.Call) ([]byte, error) {
	return msgpack.Marshal(&Request{
		ID:      call.ID,
		Service: call.Service,
		Method:  call.Method,
		Args:    call.Args,
		Portal:  call.Portal,
	})
}

func decodeReply(data []byte) (*draco.Response, error) {
	var reply Reply
	if err := msgpack.Unmarshal(data, &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, &RemoteError{Message: reply.Error}
	}
	return &draco.Response{Body: reply.Body, Portal: reply.Portal}, nil
}
