package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RobertWHurst/draco"
	"github.com/RobertWHurst/draco/capture"
	"github.com/RobertWHurst/draco/wire"
)

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(ConfigEnv, "")
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRunNoCommand(t *testing.T) {
	_, stderr, err := runCommand(t)
	if err == nil {
		t.Fatal("Expected error without a command")
	}
	if !strings.Contains(stderr, "Commands:") {
		t.Errorf("Expected usage on stderr, got %q", stderr)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, _, err := runCommand(t, "--endpoint", server.URL, "dance")
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("Expected unknown command error, got %v", err)
	}
}

func TestRunInvalidFlagValue(t *testing.T) {
	if _, _, err := runCommand(t, "--log-level", "loud", "ping"); err == nil {
		t.Error("Expected validation error")
	}
}

func TestRunPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	stdout, _, err := runCommand(t, "--endpoint", server.URL, "ping")
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "ok" {
		t.Errorf("Expected 'ok', got %q", stdout)
	}
}

func TestRunItemsWithCapture(t *testing.T) {
	reply, _ := wire.Marshal([]any{"potion"})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("dcportal", "p1")
		w.Write(reply)
	}))
	defer server.Close()

	capturePath := filepath.Join(t.TempDir(), "calls.cap")
	stdout, stderr, err := runCommand(t,
		"--endpoint", server.URL,
		"--capture", capturePath,
		"--user-id", "user-1",
		"items",
	)
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if strings.TrimSpace(stdout) != `["potion"]` {
		t.Errorf("Expected item list, got %q", stdout)
	}
	if !strings.Contains(stderr, "device_id=") {
		t.Errorf("Expected generated device id to be logged, got %q", stderr)
	}

	f, err := os.Open(capturePath)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer f.Close()
	entries, err := capture.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Method != "getUserItems" || entries[0].ResponsePortal != "p1" {
		t.Errorf("Unexpected capture %+v", entries)
	}
}

func TestRunDecodePayload(t *testing.T) {
	var payload []byte
	for _, v := range []any{[]any{"a", 1}, true} {
		b, _ := wire.Marshal(v)
		payload = append(payload, b...)
	}
	path := filepath.Join(t.TempDir(), "args.dat")
	os.WriteFile(path, payload, 0o600)

	stdout, _, err := runCommand(t, "decode", path)
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	if stdout != "[\"a\", 1]\ntrue\n" {
		t.Errorf("Unexpected output %q", stdout)
	}
}

func TestRunDecodeCapture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calls.cap")
	f, _ := os.Create(path)
	reply, _ := wire.Marshal(int64(5))
	recorder := capture.NewRecorder(&replyTransport{body: reply}, f)
	recorder.Call(context.Background(), &draco.Call{ID: "c1", Service: "ItemService", Method: "getUserItems", Args: []byte{0x00}})
	f.Close()

	stdout, _, err := runCommand(t, "decode", path)
	if err != nil {
		t.Fatalf("run() failed: %v", err)
	}
	for _, want := range []string{"ItemService.getUserItems c1", "args: null", "reply: 5"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("Expected output to contain %q, got %q", want, stdout)
		}
	}
}

func TestRunBridgeRequiresNats(t *testing.T) {
	_, _, err := runCommand(t, "bridge")
	if err == nil || !strings.Contains(err.Error(), "--nats") {
		t.Errorf("Expected missing --nats error, got %v", err)
	}
}

func TestNewDeviceID(t *testing.T) {
	id := newDeviceID()
	if len(id) != 36 || id != strings.ToUpper(id) {
		t.Errorf("Expected upper-case UUID, got %q", id)
	}
	if id == newDeviceID() {
		t.Error("Expected distinct device ids")
	}
}

type replyTransport struct {
	body []byte
}

func (r *replyTransport) Call(ctx context.Context, call *draco.Call) (*draco.Response, error) {
	return &draco.Response{Body: r.body}, nil
}

func (r *replyTransport) Ping(ctx context.Context) error {
	return nil
}

func (r *replyTransport) Close() error {
	return nil
}
