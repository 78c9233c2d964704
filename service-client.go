package draco

import (
	"context"
	"time"

	"github.com/nats-io/nuid"
)

// ServiceClient provides methods for calling a specific remote service.
// It is created by calling Client.Service() with the target service name.
type ServiceClient struct {
	client      *Client
	serviceName string
}

// Call invokes method with args using the client's default timeout.
// The returned Reply can be chained with Into() or Value() to decode the
// response.
func (s *ServiceClient) Call(method string, args any) *Reply {
	return s.CallWithTimeout(method, args, s.client.timeout)
}

// CallWithTimeout invokes method with args and a custom timeout.
func (s *ServiceClient) CallWithTimeout(method string, args any, timeout time.Duration) *Reply {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.CallWithCtx(ctx, method, args)
}

// CallWithCtx invokes method with args until the context is canceled.
// Encoding happens before anything is sent; a Reply carrying an error is
// returned if encoding, delivery or the context fails.
func (s *ServiceClient) CallWithCtx(ctx context.Context, method string, args any) *Reply {
	c := s.client
	reply := &Reply{
		service: s.serviceName,
		method:  method,
		encoder: c.encoder,
	}

	data, err := c.encoder.Encode(args)
	if err != nil {
		reply.err = &CallError{Service: s.serviceName, Method: method, Err: err}
		return reply
	}

	call := &Call{
		ID:      nuid.Next(),
		Service: s.serviceName,
		Method:  method,
		Args:    data,
		Portal:  c.session.Portal(),
	}

	start := time.Now()
	resp, err := c.transport.Call(ctx, call)
	if err != nil {
		c.logger.Debug("call failed",
			"call_id", call.ID,
			"service", call.Service,
			"method", call.Method,
			"error", err,
		)
		reply.err = &CallError{Service: s.serviceName, Method: method, Err: err}
		return reply
	}

	c.session.SetPortal(resp.Portal)
	c.logger.Debug("call",
		"call_id", call.ID,
		"service", call.Service,
		"method", call.Method,
		"args_size", len(data),
		"reply_size", len(resp.Body),
		"duration", time.Since(start),
	)

	reply.data = resp.Body
	return reply
}
