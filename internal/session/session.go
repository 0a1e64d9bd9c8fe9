// ABOUTME: Process-wide holder of the current bearer token
// ABOUTME: Rehydrates from durable storage and mirrors every change back, fire-and-forget

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Namespace is the durable storage key the token lives under.
const Namespace = "session.token"

// ErrClosed is returned by Flush after Close.
var ErrClosed = errors.New("session store closed")

// Persister is the durable storage the token is mirrored to.
type Persister interface {
	Read(ctx context.Context, namespace string) (value string, ok bool, err error)
	Write(ctx context.Context, namespace, value string) error
}

// Store is the single source of truth for the current credential.
// Token is safe to call from any goroutine.
type Store struct {
	token atomic.Pointer[string]

	// writeMu orders SetToken calls so subscribers and the writer see
	// updates in call order.
	writeMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(string)
	nextSub int

	persister Persister
	logger    *slog.Logger

	// pendMu guards the coalescing write slot. It is never held while the
	// persister runs, so SetToken cannot stall behind slow storage.
	pendMu  sync.Mutex
	pending *string
	acks    []chan struct{}
	closed  bool

	wake    chan struct{} // capacity 1
	quit    chan struct{}
	stopped chan struct{}
}

// New returns an empty, unpersisted store.
func New() *Store {
	return newStore(nil, nil)
}

// Open creates a store seeded from p. A read failure is logged and the
// store starts empty.
func Open(ctx context.Context, p Persister, logger *slog.Logger) *Store {
	s := newStore(p, logger)
	if p == nil {
		return s
	}

	value, ok, err := p.Read(ctx, Namespace)
	switch {
	case err != nil:
		s.logger.Warn("failed to rehydrate session token", "error", err)
	case ok:
		s.token.Store(&value)
		s.logger.Debug("session token rehydrated", "present", value != "")
	}
	return s
}

func newStore(p Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		subs:      make(map[int]func(string)),
		persister: p,
		logger:    logger.With("component", "session"),
	}
	empty := ""
	s.token.Store(&empty)

	if p != nil {
		s.wake = make(chan struct{}, 1)
		s.quit = make(chan struct{})
		s.stopped = make(chan struct{})
		go s.writeLoop()
	}
	return s
}

// Token returns the current token, or "" when unauthenticated.
func (s *Store) Token() string {
	return *s.token.Load()
}

// HasToken reports whether a non-empty token is held.
func (s *Store) HasToken() bool {
	return s.Token() != ""
}

// SetToken replaces the token, notifies subscribers, and hands the value
// to the background writer. It never waits on durable storage; persistence
// errors are logged, never returned. Subscribers must not call SetToken.
func (s *Store) SetToken(token string) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	v := token
	s.token.Store(&v)

	for _, fn := range s.subscribers() {
		fn(token)
	}
	s.queueWrite(token)
}

// Clear signs out by resetting the token to "".
func (s *Store) Clear() {
	s.SetToken("")
}

// Subscribe registers fn to be called with each new token, in the order
// updates were made.
func (s *Store) Subscribe(fn func(token string)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) subscribers() []func(string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	out := make([]func(string), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// queueWrite replaces any value still waiting for the writer.
func (s *Store) queueWrite(token string) {
	if s.persister == nil {
		return
	}

	s.pendMu.Lock()
	if s.closed {
		s.pendMu.Unlock()
		return
	}
	s.pending = &token
	s.pendMu.Unlock()
	s.signal()
}

func (s *Store) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// writeLoop persists the newest pending value each time it is woken, and
// once more on Close.
func (s *Store) writeLoop() {
	defer close(s.stopped)

	for {
		select {
		case <-s.wake:
			s.persistPending()
		case <-s.quit:
			s.persistPending()
			return
		}
	}
}

// persistPending writes the pending value, if any, then releases every
// Flush that was waiting when it started.
func (s *Store) persistPending() {
	s.pendMu.Lock()
	value := s.pending
	acks := s.acks
	s.pending = nil
	s.acks = nil
	s.pendMu.Unlock()

	if value != nil {
		if err := s.persister.Write(context.Background(), Namespace, *value); err != nil {
			s.logger.Warn("failed to persist session token", "error", err)
		}
	}
	for _, ack := range acks {
		close(ack)
	}
}

// Flush waits until every SetToken issued before the call has reached
// durable storage, or ctx is done.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	ack := make(chan struct{})
	s.pendMu.Lock()
	if s.closed {
		s.pendMu.Unlock()
		return ErrClosed
	}
	s.acks = append(s.acks, ack)
	s.pendMu.Unlock()
	s.signal()

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("flushing session token: %w", ctx.Err())
	}
}

// Close writes any pending value and stops the writer.
func (s *Store) Close(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	s.pendMu.Lock()
	if s.closed {
		s.pendMu.Unlock()
		return nil
	}
	s.closed = true
	s.pendMu.Unlock()
	close(s.quit)

	select {
	case <-s.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("closing session store: %w", ctx.Err())
	}
}
