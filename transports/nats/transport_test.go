package natstransport

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RobertWHurst/draco"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
)

func connect(t *testing.T) *nats.Conn {
	t.Helper()
	server := natsserver.RunRandClientPortServer()
	t.Cleanup(server.Shutdown)

	conn, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("nats.Connect() failed: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

func serveGateway(t *testing.T, conn *nats.Conn, upstream draco.Transport) {
	t.Helper()
	gateway := NewGateway(upstream, nil)
	if err := gateway.Serve(conn); err != nil {
		t.Fatalf("Serve() failed: %v", err)
	}
	t.Cleanup(func() { gateway.Close() })
	if err := conn.Flush(); err != nil {
		t.Fatalf("Flush() failed: %v", err)
	}
}

func TestNatsTransportCallThroughGateway(t *testing.T) {
	conn := connect(t)

	calls := make(chan *draco.Call, 1)
	serveGateway(t, conn, &mockUpstream{
		callFunc: func(ctx context.Context, call *draco.Call) (*draco.Response, error) {
			calls <- call
			return &draco.Response{Body: []byte{0x03, 0x02}, Portal: "portal-2"}, nil
		},
	})

	transport := NewNatsTransport(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := transport.Call(ctx, &draco.Call{
		ID:      "id-1",
		Service: "ItemService",
		Method:  "getUserItems",
		Args:    []byte{0x00},
		Portal:  "portal-1",
	})
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}

	if !bytes.Equal(resp.Body, []byte{0x03, 0x02}) || resp.Portal != "portal-2" {
		t.Errorf("Unexpected response %+v", resp)
	}
	forwarded := <-calls
	if forwarded.ID != "id-1" || forwarded.Method != "getUserItems" || forwarded.Portal != "portal-1" {
		t.Errorf("Unexpected forwarded call %+v", forwarded)
	}
}

func TestNatsTransportRemoteError(t *testing.T) {
	conn := connect(t)
	serveGateway(t, conn, &mockUpstream{
		callFunc: func(ctx context.Context, call *draco.Call) (*draco.Response, error) {
			return nil, &draco.StatusError{StatusCode: 502, Status: "502 Bad Gateway"}
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewNatsTransport(conn).Call(ctx, &draco.Call{Service: "MapService", Method: "getUpdate"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("Expected *RemoteError, got %v", err)
	}
}

func TestNatsTransportPing(t *testing.T) {
	conn := connect(t)
	pings := make(chan struct{}, 1)
	serveGateway(t, conn, &mockUpstream{
		pingFunc: func(ctx context.Context) error {
			pings <- struct{}{}
			return nil
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := NewNatsTransport(conn).Ping(ctx); err != nil {
		t.Fatalf("Ping() failed: %v", err)
	}
	select {
	case <-pings:
	default:
		t.Error("Expected upstream ping")
	}
}

func TestNatsTransportNoGateway(t *testing.T) {
	conn := connect(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewNatsTransport(conn).Call(ctx, &draco.Call{Service: "ItemService", Method: "getUserItems"})
	if !errors.Is(err, nats.ErrNoResponders) {
		t.Errorf("Expected nats.ErrNoResponders, got %v", err)
	}
}
