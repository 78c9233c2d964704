package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/RobertWHurst/draco"
	"github.com/RobertWHurst/draco/capture"
	"github.com/RobertWHurst/draco/encoders/wireencoder"
	httptransport "github.com/RobertWHurst/draco/transports/http"
	natstransport "github.com/RobertWHurst/draco/transports/nats"
	"github.com/RobertWHurst/draco/wire"
	"github.com/nats-io/nats.go"
)

type command struct {
	cfg    *Config
	opts   *options
	logger *slog.Logger
	stdout io.Writer
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "decode":
		if len(args) != 1 {
			return errors.New("usage: draco decode <file>")
		}
		return c.decode(args[0])
	case "bridge":
		return c.bridge(ctx)
	}

	client, closeClient, err := c.client()
	if err != nil {
		return err
	}
	defer closeClient()

	switch name {
	case "ping":
		if err := client.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "ok")
		return nil

	case "boot":
		err := client.Boot(ctx, draco.BootInfo{
			UserID:     c.cfg.User.ID,
			DeviceID:   c.cfg.User.DeviceID,
			ClientInfo: c.cfg.ClientInfo,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "ok")
		return nil

	case "login":
		result, err := client.Login(ctx)
		if err != nil {
			return err
		}
		return c.printAuth(result)

	case "register":
		if len(args) != 1 {
			return errors.New("usage: draco register <nickname>")
		}
		if err := client.AcceptTOS(ctx); err != nil {
			return err
		}
		if _, err := client.ValidateNickname(ctx, args[0]); err != nil {
			return err
		}
		result, err := client.Register(ctx, args[0])
		if err != nil {
			return err
		}
		return c.printAuth(result)

	case "avatar":
		if len(args) != 1 {
			return errors.New("usage: draco avatar <n>")
		}
		avatar, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("avatar: %w", err)
		}
		return c.print(client.SetAvatar(ctx, avatar))

	case "items":
		return c.print(client.GetUserItems(ctx))

	case "creadex":
		return c.print(client.GetCreadex(ctx))

	case "creatures":
		return c.print(client.GetUserCreatures(ctx))

	case "map":
		return c.print(client.GetMapUpdate(ctx, c.opts.lat, c.opts.lng, c.opts.accuracy))
	}

	return fmt.Errorf("unknown command %q", name)
}

// client builds a game client over the configured transport. The returned
// function closes the transport and any capture file.
func (c *command) client() (*draco.Client, func(), error) {
	transport, closeTransport, err := c.transport()
	if err != nil {
		return nil, nil, err
	}

	deviceID := c.cfg.User.DeviceID
	if deviceID == "" {
		deviceID = newDeviceID()
		c.cfg.User.DeviceID = deviceID
		c.logger.Info("generated device id; add it to your config to keep this identity", "device_id", deviceID)
	}

	opts := []draco.Option{
		draco.WithLogger(c.logger),
		draco.WithTimeout(c.cfg.TimeoutDuration()),
	}
	if c.cfg.ClientInfo != nil {
		opts = append(opts, draco.WithClientInfo(*c.cfg.ClientInfo))
	}
	opts = append(opts, draco.WithDeviceID(deviceID))
	if c.cfg.User.ID != "" {
		opts = append(opts, draco.WithUserID(c.cfg.User.ID))
	}

	client := draco.NewClient(transport, wireencoder.New(), opts...)
	return client, closeTransport, nil
}

// transport returns the transport calls are sent with: NATS when a server
// is configured, HTTP otherwise, wrapped in a recorder when capturing.
func (c *command) transport() (draco.Transport, func(), error) {
	var transport draco.Transport
	var closers []func()

	if c.cfg.NATS != "" {
		conn, err := nats.Connect(c.cfg.NATS, nats.Name("draco"))
		if err != nil {
			return nil, nil, fmt.Errorf("nats: %w", err)
		}
		closers = append(closers, conn.Close)
		transport = natstransport.NewNatsTransport(conn)
	} else {
		transport = c.httpTransport()
	}

	transport, closeCapture, err := c.withCapture(transport)
	if err != nil {
		for _, fn := range closers {
			fn()
		}
		return nil, nil, err
	}

	return transport, func() {
		if err := transport.Close(); err != nil {
			c.logger.Warn("close transport", "error", err)
		}
		closeCapture()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}, nil
}

func (c *command) httpTransport() *httptransport.HTTPTransport {
	opts := []httptransport.Option{httptransport.WithEndpoint(c.cfg.Endpoint)}
	if proxy := c.cfg.ProxyURL(); proxy != nil {
		opts = append(opts, httptransport.WithProxy(proxy))
	}
	return httptransport.New(opts...)
}

func (c *command) withCapture(transport draco.Transport) (draco.Transport, func(), error) {
	if c.cfg.Capture == "" {
		return transport, func() {}, nil
	}

	f, err := os.OpenFile(c.cfg.Capture, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("capture: %w", err)
	}
	c.logger.Debug("capturing calls", "file", c.cfg.Capture)
	return capture.NewRecorder(transport, f), func() { f.Close() }, nil
}

// bridge serves a NATS gateway in front of the game server until ctx is
// canceled.
func (c *command) bridge(ctx context.Context) error {
	if c.cfg.NATS == "" {
		return errors.New("bridge: --nats is required")
	}

	conn, err := nats.Connect(c.cfg.NATS, nats.Name("draco-bridge"))
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer conn.Close()

	upstream, closeCapture, err := c.withCapture(c.httpTransport())
	if err != nil {
		return err
	}
	defer closeCapture()
	defer upstream.Close()

	gateway := natstransport.NewGateway(upstream, c.logger)
	gateway.Timeout = c.cfg.TimeoutDuration()
	if err := gateway.Serve(conn); err != nil {
		return err
	}
	defer gateway.Close()

	<-ctx.Done()
	c.logger.Info("bridge stopping")
	return nil
}

// decode prints the values in a file holding either raw wire payloads or a
// capture stream.
func (c *command) decode(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return errors.New("decode: empty file")
	}

	if wire.Tag(data[0]).Valid() {
		return c.decodePayload(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries, err := capture.ReadAll(f)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(c.stdout, "# %s %s.%s %s\n", e.Time.Format(time.RFC3339), e.Service, e.Method, e.ID)
		c.printPayload("args", e.Args)
		if e.Error != "" {
			fmt.Fprintf(c.stdout, "error: %s\n", e.Error)
			continue
		}
		c.printPayload("reply", e.Response)
	}
	return nil
}

func (c *command) decodePayload(data []byte) error {
	dec := wire.NewDecoder(data)
	for dec.More() {
		v, err := dec.Decode()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, v)
	}
	return nil
}

func (c *command) printPayload(label string, data []byte) {
	v, err := wire.Unmarshal(data)
	if err != nil {
		fmt.Fprintf(c.stdout, "%s: <%v> % x\n", label, err, data)
		return
	}
	fmt.Fprintf(c.stdout, "%s: %s\n", label, v)
}

func (c *command) print(v wire.Value, err error) error {
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, v)
	return err
}

func (c *command) printAuth(result *draco.AuthResult) error {
	fmt.Fprintf(c.stdout, "user id: %s\n", result.UserID)
	fmt.Fprintf(c.stdout, "device id: %s\n", c.cfg.User.DeviceID)
	if result.HasAvatar {
		fmt.Fprintf(c.stdout, "avatar: %d\n", result.AvatarAppearanceDetails)
	}
	_, err := fmt.Fprintln(c.stdout, result.Raw)
	return err
}
