package scanner

import (
	"context"
	"sync"
)

// EventBufferSize is the capacity of a task's event channel
const EventBufferSize = 256

// EventKind distinguishes scan events
type EventKind int

const (
	EventItem EventKind = iota
	EventProgress
	EventComplete
)

func (k EventKind) String() string {
	switch k {
	case EventItem:
		return "item"
	case EventProgress:
		return "progress"
	case EventComplete:
		return "complete"
	}
	return "unknown"
}

// Event is published by a running scan. Item events carry the new item,
// progress events the directory being entered, and the single complete
// event the sealed result.
type Event struct {
	Kind    EventKind
	Item    Item
	Path    string
	Scanned int
	Result  *Result
}

// Task is a scan running on its own goroutine
type Task struct {
	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	mu     sync.Mutex
	result *Result
}

// Start runs sc on a new goroutine. The caller must either consume Events
// until it is closed or call Wait.
func Start(ctx context.Context, sc *Scanner) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		events: make(chan Event, EventBufferSize),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go t.run(ctx, sc)
	return t
}

func (t *Task) run(ctx context.Context, sc *Scanner) {
	defer close(t.done)
	defer t.cancel()

	res := sc.Scan(ctx, func(ev Event) {
		switch ev.Kind {
		case EventItem:
			// items are never dropped while the consumer is listening
			select {
			case t.events <- ev:
			case <-ctx.Done():
			}
		default:
			select {
			case t.events <- ev:
			default:
			}
		}
	})

	t.mu.Lock()
	t.result = res
	t.mu.Unlock()

	t.events <- Event{Kind: EventComplete, Result: res, Scanned: res.Scanned}
	close(t.events)
}

// Events returns the event stream. It ends with exactly one EventComplete
// and is then closed.
func (t *Task) Events() <-chan Event { return t.events }

// Done is closed once the result is sealed and the event stream closed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Cancel asks the scan to stop at the next directory boundary. Calling it
// more than once, or after completion, is harmless.
func (t *Task) Cancel() { t.cancel() }

// Result returns the sealed result, or nil while the scan is running.
func (t *Task) Result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Wait drains any unread events and returns the sealed result.
func (t *Task) Wait() *Result {
	for range t.events {
	}
	<-t.done
	return t.Result()
}
