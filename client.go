package draco

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"
)

// MaxDecodeSize bounds reply bodies accepted by transports.
var MaxDecodeSize = int64(1024 * 1024 * 5) // 5 MB

// DefaultTimeout applies to calls made without an explicit context.
const DefaultTimeout = 30 * time.Second

type Client struct {
	transport  Transport
	encoder    Encoder
	session    *Session
	logger     *slog.Logger
	timeout    time.Duration
	bindingsMu sync.RWMutex
	bindings   map[string]map[*Binding]chan *Event
}

// Option configures a Client.
type Option func(c *Client)

// WithLogger sets the logger used for call tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSession replaces the client's session.
func WithSession(session *Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithClientInfo sets the client-info record reported with every event.
func WithClientInfo(info ClientInfo) Option {
	return func(c *Client) {
		c.session.UpdateClientInfo(func(ci *ClientInfo) { *ci = info })
	}
}

// WithDeviceID sets the device the client authenticates as.
func WithDeviceID(deviceID string) Option {
	return func(c *Client) {
		c.session.UpdateUser(func(u *User) { u.DeviceID = deviceID })
		c.session.UpdateClientInfo(func(ci *ClientInfo) { ci.IOSVendorIdentifier = deviceID })
	}
}

// WithUserID sets a known user id, skipping the need for Boot or Login.
func WithUserID(userID string) Option {
	return func(c *Client) {
		c.session.UpdateUser(func(u *User) { u.ID = userID })
	}
}

// WithTimeout sets the timeout of ServiceClient.Call.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func NewClient(transport Transport, encoder Encoder, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		encoder:   encoder,
		session:   NewSession(DefaultClientInfo()),
		logger:    slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
		timeout:   DefaultTimeout,
		bindings:  make(map[string]map[*Binding]chan *Event),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns a client for calls to the named remote service.
func (c *Client) Service(serviceName string) *ServiceClient {
	return &ServiceClient{
		client:      c,
		serviceName: serviceName,
	}
}

// Session returns the state shared by this client's calls.
func (c *Client) Session() *Session {
	return c.session
}

// Bind subscribes to lifecycle events reported by this client. Use "*" to
// receive every event.
func (c *Client) Bind(eventName string) *Binding {
	return newBinding(c, eventName)
}

// Ping checks that the server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.transport.Ping(ctx)
}

func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) publish(event *Event) {
	c.bindingsMu.RLock()
	defer c.bindingsMu.RUnlock()
	names := []string{event.Name, "*"}
	if event.Name == "*" {
		names = names[:1]
	}
	for _, name := range names {
		for _, ch := range c.bindings[name] {
			select {
			case ch <- event:
			default:
				c.logger.Debug("event dropped", "event", event.Name)
			}
		}
	}
}
