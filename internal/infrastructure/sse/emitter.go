package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// EventName is the single event name every frame carries; clients register
// one listener for it and switch on the payload.
const EventName = "sse"

// State tracks an emitter through its lifecycle. Transitions are one-way:
// Created -> Active -> one of the terminal states.
type State int32

const (
	StateCreated State = iota
	StateActive
	StateCompleted
	StateTimedOut
	StateErrored
)

var ErrEmitterClosed = fmt.Errorf("emitter is closed")

// Event is one framed server-sent event.
type Event struct {
	ID   string
	Data any
}

// KeepAlive is the synthetic payload pushed right after connect so
// intermediary proxies see traffic before any real event exists.
type KeepAlive struct {
	KeepAlive bool `json:"keepAlive"`
}

// Emitter is the live push handle for one open streaming connection. It is
// owned exclusively by the Registry; a failed write moves it to a terminal
// state and closes Done.
type Emitter struct {
	ID      string
	OwnerID int64
	Created time.Time
	Timeout time.Duration

	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
	state   State
	done    chan struct{}
}

// connSeq disambiguates connections opened within the same millisecond, so
// two tabs connecting back-to-back never share a registry key.
var connSeq atomic.Uint64

// NewEmitter builds an emitter over w. The id is ownerID plus a monotonic
// suffix so one owner can hold several (multi-tab).
func NewEmitter(ownerID int64, w io.Writer, timeout time.Duration) *Emitter {
	flusher, _ := w.(http.Flusher)

	return &Emitter{
		ID:      fmt.Sprintf("%d_%d_%d", ownerID, time.Now().UnixMilli(), connSeq.Add(1)),
		OwnerID: ownerID,
		Created: time.Now(),
		Timeout: timeout,
		w:       w,
		flusher: flusher,
		state:   StateCreated,
		done:    make(chan struct{}),
	}
}

// Send writes one frame and flushes it. The first successful send moves the
// emitter to Active; a failed write moves it to Errored and closes Done.
func (e *Emitter) Send(ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("marshal sse payload: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateCreated && e.state != StateActive {
		return ErrEmitterClosed
	}

	if _, err := fmt.Fprintf(e.w, "id: %s\nevent: %s\ndata: %s\n\n", ev.ID, EventName, data); err != nil {
		e.transition(StateErrored)
		return fmt.Errorf("write sse frame: %w", err)
	}

	if e.flusher != nil {
		e.flusher.Flush()
	}

	e.state = StateActive
	return nil
}

// Complete marks a clean client disconnect.
func (e *Emitter) Complete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(StateCompleted)
}

// Expire marks the idle-timeout cancellation.
func (e *Emitter) Expire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transition(StateTimedOut)
}

func (e *Emitter) transition(terminal State) {
	if e.state == StateCompleted || e.state == StateTimedOut || e.state == StateErrored {
		return
	}
	e.state = terminal
	close(e.done)
}

// Done is closed once the emitter reaches a terminal state.
func (e *Emitter) Done() <-chan struct{} {
	return e.done
}

func (e *Emitter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}
