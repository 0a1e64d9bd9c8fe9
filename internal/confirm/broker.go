// ABOUTME: Process-wide confirmation broker backing a single mounted dialog view
// ABOUTME: Turns "ask the user to confirm" into an awaitable Pending outcome

package confirm

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrAlreadyMounted is returned when a second dialog view tries to mount.
var ErrAlreadyMounted = errors.New("confirmation dialog already mounted")

// Mode selects what happens when Open is called while a request is pending.
type Mode int

const (
	// ModeReplace keeps a single slot: the newest request overwrites the
	// pending one and the older Pending is abandoned without an outcome.
	ModeReplace Mode = iota
	// ModeQueue serves requests one at a time in arrival order; every
	// Pending eventually receives an outcome.
	ModeQueue
)

// Observer receives resolution events, typically for metrics.
type Observer interface {
	ConfirmationResolved(confirmed bool)
	ConfirmationAbandoned()
}

// Pending is the caller's handle on an unanswered confirmation.
type Pending struct {
	req  *Request
	done chan Outcome
}

// Done returns a channel that receives exactly one Outcome when the dialog
// is answered. It never receives if the request is abandoned.
func (p *Pending) Done() <-chan Outcome {
	return p.done
}

// Request returns the request exactly as it was passed to Open.
func (p *Pending) Request() *Request {
	return p.req
}

// Wait blocks until the user answers or ctx is done. Giving up does not
// withdraw the request from the dialog.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case out := <-p.done:
		return out, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (p *Pending) resolve(confirmed bool) Outcome {
	out := Outcome{Confirmed: confirmed, Data: p.req}
	p.done <- out
	close(p.done)
	return out
}

// Option configures a Broker.
type Option func(*Broker)

// WithLogger sets the broker's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Broker) {
		b.logger = logger
	}
}

// WithMode selects replace or queue semantics for overlapping requests.
func WithMode(mode Mode) Option {
	return func(b *Broker) {
		b.mode = mode
	}
}

// WithObserver registers an observer for resolutions and abandonments.
func WithObserver(obs Observer) Option {
	return func(b *Broker) {
		b.observer = obs
	}
}

// Broker holds at most one request in front of the user at a time.
// The slot's request and resolver always change together under mu.
type Broker struct {
	mu       sync.Mutex
	mode     Mode
	mounted  bool
	current  *Pending
	queue    []*Pending
	subs     map[int]func(State)
	nextSub  int
	logger   *slog.Logger
	observer Observer

	// outbox holds states not yet delivered to subscribers, in transition
	// order. At most one goroutine drains it at a time.
	outbox     []notification
	delivering bool
}

type notification struct {
	state State
	subs  []func(State)
}

// New creates a broker in ModeReplace unless configured otherwise.
func New(opts ...Option) *Broker {
	b := &Broker{
		mode:   ModeReplace,
		subs:   make(map[int]func(State)),
		logger: slog.Default().With("component", "confirm"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mount registers the one dialog view that answers this broker.
func (b *Broker) Mount() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.mounted {
		return ErrAlreadyMounted
	}
	b.mounted = true
	return nil
}

// Mounted reports whether a dialog view has been mounted.
func (b *Broker) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// Mode returns the overlap policy the broker was built with.
func (b *Broker) Mode() Mode {
	return b.mode
}

// Open puts req in front of the user and returns immediately. A nil req is
// allowed; the dialog falls back to its default wording.
func (b *Broker) Open(req *Request) *Pending {
	p := &Pending{req: req, done: make(chan Outcome, 1)}

	b.mu.Lock()
	if !b.mounted {
		b.logger.Error("confirmation requested before dialog was mounted", "title", req.Display().Title)
	}

	var abandoned *Pending
	switch {
	case b.current == nil:
		b.current = p
	case b.mode == ModeQueue:
		b.queue = append(b.queue, p)
		b.logger.Debug("confirmation queued", "depth", len(b.queue))
		b.mu.Unlock()
		return p
	default:
		abandoned = b.current
		b.current = p
	}
	deliver := b.publishLocked()
	b.mu.Unlock()

	if abandoned != nil {
		b.logger.Warn("pending confirmation replaced before it was answered",
			"abandoned", abandoned.req.Display().Title,
			"replacement", req.Display().Title,
		)
		if b.observer != nil {
			b.observer.ConfirmationAbandoned()
		}
	}
	if deliver {
		b.deliver()
	}
	return p
}

// Confirm answers the pending request with Confirmed=true.
// It returns false if nothing is pending.
func (b *Broker) Confirm() bool {
	return b.answer(true)
}

// Cancel answers the pending request with Confirmed=false.
// It returns false if nothing is pending.
func (b *Broker) Cancel() bool {
	return b.answer(false)
}

func (b *Broker) answer(confirmed bool) bool {
	b.mu.Lock()
	p := b.current
	if p == nil {
		b.mu.Unlock()
		return false
	}

	b.current = nil
	if len(b.queue) > 0 {
		b.current = b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
	}
	// Buffered channel: resolving under the lock cannot block.
	p.resolve(confirmed)
	deliver := b.publishLocked()
	b.mu.Unlock()

	b.logger.Debug("confirmation answered", "title", p.req.Display().Title, "confirmed", confirmed)
	if b.observer != nil {
		b.observer.ConfirmationResolved(confirmed)
	}
	if deliver {
		b.deliver()
	}
	return true
}

// State returns what the dialog should currently render.
func (b *Broker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Pending returns the number of requests waiting, including the one shown.
func (b *Broker) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return 0
	}
	return 1 + len(b.queue)
}

// Subscribe calls fn with the new State after every transition, in the
// order the transitions happened, even when they race. Callbacks run on a
// goroutine that caused a transition, one at a time, and must not block.
// They may call back into the broker.
func (b *Broker) Subscribe(fn func(State)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Broker) stateLocked() State {
	if b.current == nil {
		return State{}
	}
	return State{Open: true, Request: b.current.req}
}

func (b *Broker) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(b.subs))
	for i := 0; i < b.nextSub; i++ {
		if fn, ok := b.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return b.stateLocked(), subs
}

// publishLocked queues the current state for subscribers. It reports
// whether the caller has become the deliverer and must call deliver.
func (b *Broker) publishLocked() bool {
	state, subs := b.snapshotLocked()
	b.outbox = append(b.outbox, notification{state: state, subs: subs})
	if b.delivering {
		return false
	}
	b.delivering = true
	return true
}

// deliver drains the outbox, including anything queued by the callbacks
// it runs.
func (b *Broker) deliver() {
	for {
		b.mu.Lock()
		if len(b.outbox) == 0 {
			b.delivering = false
			b.mu.Unlock()
			return
		}
		n := b.outbox[0]
		b.outbox[0] = notification{}
		b.outbox = b.outbox[1:]
		b.mu.Unlock()

		for _, fn := range n.subs {
			fn(n.state)
		}
	}
}
