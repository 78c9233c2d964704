// draco talks to the Draconius GO game server from the command line.
//
// Usage:
//
//	draco [flags] <command> [args]
//
// Calls go straight to the game server over HTTPS, or through a gateway on
// a NATS bus when --nats is given. "draco bridge" runs such a gateway.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the command-line flags. Flags that are set override the
// config file.
type options struct {
	config   string
	endpoint string
	proxy    string
	nats     string
	capture  string
	logLevel string
	deviceID string
	userID   string

	lat      float64
	lng      float64
	accuracy float64
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("draco", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(true)

	flagSet.StringVarP(&opts.config, "config", "c", "", "path to YAML config file (default: $"+ConfigEnv+")")
	flagSet.StringVar(&opts.endpoint, "endpoint", "", "game server base URL")
	flagSet.StringVar(&opts.proxy, "proxy", "", "HTTP proxy URL")
	flagSet.StringVar(&opts.nats, "nats", "", "NATS server URL; calls go through a gateway on this bus")
	flagSet.StringVar(&opts.capture, "capture", "", "append every call to this capture file")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.StringVar(&opts.deviceID, "device-id", "", "device identifier to authenticate as")
	flagSet.StringVar(&opts.userID, "user-id", "", "known user id")
	flagSet.Float64Var(&opts.lat, "lat", 0, "latitude for the map command")
	flagSet.Float64Var(&opts.lng, "lng", 0, "longitude for the map command")
	flagSet.Float64Var(&opts.accuracy, "accuracy", 0, "horizontal accuracy in meters for the map command")

	flagSet.Usage = func() {
		fmt.Fprint(stderr, `Usage:
  draco [flags] <command> [args]

Commands:
  ping                 check the server is reachable
  boot                 report startup events for the configured user
  login                sign in with the device id
  register <nickname>  create an account for the device
  avatar <n>           choose and save the avatar appearance
  items                list the player's items
  creadex              show the creature index
  creatures            list the player's creatures
  map                  fetch the map around --lat/--lng
  decode <file>        print the values in a payload or capture file
  bridge               serve a NATS gateway to the game server

Flags:
`)
		flagSet.PrintDefaults()
	}
	return flagSet
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var opts options
	flagSet := newFlagSet(&opts, stderr)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		flagSet.Usage()
		return errors.New("no command given")
	}

	cfg, err := LoadConfig(opts.config)
	if err != nil {
		return err
	}
	applyFlags(cfg, flagSet, &opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cmd := &command{
		cfg:    cfg,
		opts:   &opts,
		logger: logger,
		stdout: stdout,
	}
	return cmd.dispatch(ctx, rest[0], rest[1:])
}

func applyFlags(cfg *Config, flagSet *pflag.FlagSet, opts *options) {
	set := func(name string, dst *string, value string) {
		if flagSet.Changed(name) {
			*dst = value
		}
	}
	set("endpoint", &cfg.Endpoint, opts.endpoint)
	set("proxy", &cfg.Proxy, opts.proxy)
	set("nats", &cfg.NATS, opts.nats)
	set("capture", &cfg.Capture, opts.capture)
	set("log-level", &cfg.LogLevel, opts.logLevel)
	set("device-id", &cfg.User.DeviceID, opts.deviceID)
	set("user-id", &cfg.User.ID, opts.userID)
}

// newDeviceID returns an identifier in the form iOS uses for
// identifierForVendor.
func newDeviceID() string {
	return strings.ToUpper(uuid.NewString())
}
