// Package capture records the calls a draco client makes and replays them.
//
// A capture stream is a sequence of msgpack-encoded Entry values. Recorder
// appends to one while passing calls through to a live transport; Replayer
// serves the recorded responses back without a server.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/RobertWHurst/draco"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNoRecording is returned by Replayer when no recorded call is left for
// the requested service and method.
var ErrNoRecording = errors.New("capture: no recorded call")

// Entry is one recorded call.
type Entry struct {
	ID             string    `msgpack:"id"`
	Time           time.Time `msgpack:"time"`
	Service        string    `msgpack:"service"`
	Method         string    `msgpack:"method"`
	Args           []byte    `msgpack:"args"`
	Portal         string    `msgpack:"portal,omitempty"`
	Response       []byte    `msgpack:"response,omitempty"`
	ResponsePortal string    `msgpack:"responsePortal,omitempty"`
	Error          string    `msgpack:"error,omitempty"`
}

// Recorder is a draco.Transport that forwards to another transport and
// records every call.
type Recorder struct {
	transport draco.Transport

	mu      sync.Mutex
	encoder *msgpack.Encoder
	err     error
	now     func() time.Time
}

var _ draco.Transport = &Recorder{}

// NewRecorder wraps transport and writes entries to w.
func NewRecorder(transport draco.Transport, w io.Writer) *Recorder {
	return &Recorder{
		transport: transport,
		encoder:   msgpack.NewEncoder(w),
		now:       time.Now,
	}
}

func (r *Recorder) Call(ctx context.Context, call *draco.Call) (*draco.Response, error) {
	entry := Entry{
		ID:      call.ID,
		Time:    r.now().UTC(),
		Service: call.Service,
		Method:  call.Method,
		Args:    call.Args,
		Portal:  call.Portal,
	}

	resp, err := r.transport.Call(ctx, call)
	if err != nil {
		entry.Error = err.Error()
	} else {
		entry.Response = resp.Body
		entry.ResponsePortal = resp.Portal
	}

	r.record(&entry)
	return resp, err
}

func (r *Recorder) Ping(ctx context.Context) error {
	return r.transport.Ping(ctx)
}

// Close closes the wrapped transport and reports the first write error, if
// any.
func (r *Recorder) Close() error {
	err := r.transport.Close()
	if werr := r.Err(); werr != nil {
		return werr
	}
	return err
}

// Err returns the first error met while writing entries. Recording stops
// after it.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(entry *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.encoder.Encode(entry); err != nil {
		r.err = fmt.Errorf("capture: write entry: %w", err)
	}
}

// ReadAll reads every entry of a capture stream.
func ReadAll(rd io.Reader) ([]Entry, error) {
	dec := msgpack.NewDecoder(rd)
	var entries []Entry
	for {
		var entry Entry
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, fmt.Errorf("capture: entry %d: %w", len(entries), err)
		}
		entries = append(entries, entry)
	}
}

// Replayer is a draco.Transport that answers calls from recorded entries.
// Entries are served in recorded order per service and method.
type Replayer struct {
	mu      sync.Mutex
	pending map[string][]Entry
}

var _ draco.Transport = &Replayer{}

func NewReplayer(entries []Entry) *Replayer {
	pending := make(map[string][]Entry)
	for _, e := range entries {
		key := e.Service + "." + e.Method
		pending[key] = append(pending[key], e)
	}
	return &Replayer{pending: pending}
}

func (r *Replayer) Call(ctx context.Context, call *draco.Call) (*draco.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := call.Service + "." + call.Method
	r.mu.Lock()
	queue := r.pending[key]
	if len(queue) == 0 {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w for %s", ErrNoRecording, key)
	}
	entry := queue[0]
	r.pending[key] = queue[1:]
	r.mu.Unlock()

	if entry.Error != "" {
		return nil, errors.New(entry.Error)
	}
	return &draco.Response{Body: entry.Response, Portal: entry.ResponsePortal}, nil
}

// Remaining returns the number of recorded calls not yet replayed.
func (r *Replayer) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, q := range r.pending {
		n += len(q)
	}
	return n
}

func (r *Replayer) Ping(ctx context.Context) error {
	return nil
}

func (r *Replayer) Close() error {
	return nil
}
