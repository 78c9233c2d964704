package draco

import "context"

// Call is a single outbound service call after argument encoding.
type Call struct {
	ID      string
	Service string
	Method  string
	Args    []byte
	// Portal is the session token the server handed out on the previous
	// response, empty before the first call.
	Portal string
}

// Response is the raw reply to a Call.
type Response struct {
	Body   []byte
	Portal string
}

// Transport defines the interface for delivering calls to the game server.
// Implementations own endpoints, headers and cookies; the client only hands
// them encoded bytes.
type Transport interface {
	// Call delivers call and returns the unframed reply body.
	Call(ctx context.Context, call *Call) (*Response, error)

	// Ping checks that the server is reachable.
	Ping(ctx context.Context) error

	// Close cleans up resources and closes connections.
	Close() error
}
