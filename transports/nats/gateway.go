package natstransport

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/RobertWHurst/draco"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// QueueGroup is the queue group gateways subscribe with, so that each
// request is answered by only one of them.
const QueueGroup = "draco-gateway"

// Gateway answers NATS requests by forwarding them to an upstream
// transport.
type Gateway struct {
	Upstream draco.Transport
	Logger   *slog.Logger
	// Timeout bounds each forwarded call.
	Timeout time.Duration

	subscription *nats.Subscription
}

// NewGateway creates a gateway forwarding to upstream.
func NewGateway(upstream draco.Transport, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}
	return &Gateway{
		Upstream: upstream,
		Logger:   logger,
		Timeout:  draco.DefaultTimeout,
	}
}

// Serve subscribes the gateway to every draco subject on conn. Requests are
// handled one at a time, in arrival order, so the upstream session token
// advances the same way it would for a single client.
func (g *Gateway) Serve(conn *nats.Conn) error {
	subject := namespace(">")
	subscription, err := conn.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), g.Timeout)
		defer cancel()

		if err := msg.Respond(g.Handle(ctx, msg.Subject, msg.Data)); err != nil {
			g.Logger.Warn("gateway reply failed", "subject", msg.Subject, "error", err)
		}
	})
	if err != nil {
		return err
	}
	g.subscription = subscription
	g.Logger.Info("gateway serving", "subject", subject, "queue", QueueGroup)
	return nil
}

// Handle answers one request envelope and returns the encoded reply.
func (g *Gateway) Handle(ctx context.Context, subject string, data []byte) []byte {
	if subject == pingSubject() {
		return g.reply(nil, g.Upstream.Ping(ctx))
	}

	var req Request
	if err := msgpack.Unmarshal(data, &req); err != nil {
		g.Logger.Warn("gateway received invalid request", "subject", subject, "error", err)
		return g.reply(nil, err)
	}

	start := time.Now()
	resp, err := g.Upstream.Call(ctx, &draco.Call{
		ID:      req.ID,
		Service: req.Service,
		Method:  req.Method,
		Args:    req.Args,
		Portal:  req.Portal,
	})
	g.Logger.Debug("gateway call",
		"call_id", req.ID,
		"service", req.Service,
		"method", req.Method,
		"duration", time.Since(start),
		"error", err,
	)
	return g.reply(resp, err)
}

func (g *Gateway) reply(resp *draco.Response, err error) []byte {
	var reply Reply
	if err != nil {
		reply.Error = err.Error()
	} else if resp != nil {
		reply.Body = resp.Body
		reply.Portal = resp.Portal
	}

	buf, err := msgpack.Marshal(&reply)
	if err != nil {
		buf, _ = msgpack.Marshal(&Reply{Error: err.Error()})
	}
	return buf
}

// Close unsubscribes the gateway. The upstream transport is left open.
func (g *Gateway) Close() error {
	if g.subscription == nil {
		return nil
	}
	return g.subscription.Unsubscribe()
}
