// ABOUTME: Tests for the session token store and bearer transport
// ABOUTME: Covers overwrite semantics, rehydration, and fire-and-forget persistence

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPersister is an in-memory Persister with injectable failures.
type memPersister struct {
	mu       sync.Mutex
	values   map[string]string
	writes   int
	readErr  error
	writeErr error
}

func newMemPersister() *memPersister {
	return &memPersister{values: make(map[string]string)}
}

func (m *memPersister) Read(_ context.Context, namespace string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return "", false, m.readErr
	}
	v, ok := m.values[namespace]
	return v, ok, nil
}

func (m *memPersister) Write(_ context.Context, namespace, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.writeErr != nil {
		return m.writeErr
	}
	m.values[namespace] = value
	return nil
}

func (m *memPersister) get(namespace string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[namespace]
	return v, ok
}

func TestSetToken_ThenToken(t *testing.T) {
	for _, tok := range []string{"", "abc", "eyJhbGciOiJIUzI1NiJ9.e30.sig", "with spaces and ünïcode"} {
		s := New()
		s.SetToken(tok)
		assert.Equal(t, tok, s.Token())
		assert.Equal(t, tok != "", s.HasToken())
	}
}

func TestSetToken_LastWins(t *testing.T) {
	s := New()
	s.SetToken("a")
	s.SetToken("b")
	assert.Equal(t, "b", s.Token())

	s.Clear()
	assert.Equal(t, "", s.Token())
	assert.False(t, s.HasToken())
}

func TestNew_StartsEmpty(t *testing.T) {
	s := New()
	assert.Equal(t, "", s.Token())
	require.NoError(t, s.Flush(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}

func TestOpen_Rehydrates(t *testing.T) {
	p := newMemPersister()
	p.values[Namespace] = "persisted-token"

	s := Open(context.Background(), p, nil)
	defer s.Close(context.Background())

	assert.Equal(t, "persisted-token", s.Token())
}

func TestOpen_ReadFailureStartsEmpty(t *testing.T) {
	p := newMemPersister()
	p.readErr = errors.New("disk on fire")

	s := Open(context.Background(), p, nil)
	defer s.Close(context.Background())

	assert.Equal(t, "", s.Token())
}

func TestSetToken_Persists(t *testing.T) {
	p := newMemPersister()
	s := Open(context.Background(), p, nil)

	s.SetToken("first")
	s.SetToken("second")
	require.NoError(t, s.Flush(context.Background()))

	v, ok := p.get(Namespace)
	require.True(t, ok)
	assert.Equal(t, "second", v)

	s.Clear()
	require.NoError(t, s.Close(context.Background()))
	v, _ = p.get(Namespace)
	assert.Equal(t, "", v)

	// A fresh process sees the last value written.
	again := Open(context.Background(), p, nil)
	defer again.Close(context.Background())
	assert.Equal(t, "", again.Token())
}

func TestSetToken_WriteFailureIsSwallowed(t *testing.T) {
	p := newMemPersister()
	p.writeErr = errors.New("read-only filesystem")
	s := Open(context.Background(), p, nil)

	s.SetToken("still-works")
	require.NoError(t, s.Flush(context.Background()))

	assert.Equal(t, "still-works", s.Token())
	require.NoError(t, s.Close(context.Background()))
	assert.ErrorIs(t, s.Flush(context.Background()), ErrClosed)
}

// stalledPersister blocks every Write until release is closed.
type stalledPersister struct {
	release chan struct{}
	entered chan struct{}

	mu     sync.Mutex
	values []string
}

func (p *stalledPersister) Read(context.Context, string) (string, bool, error) {
	return "", false, nil
}

func (p *stalledPersister) Write(_ context.Context, _, value string) error {
	select {
	case p.entered <- struct{}{}:
	default:
	}
	<-p.release
	p.mu.Lock()
	p.values = append(p.values, value)
	p.mu.Unlock()
	return nil
}

func (p *stalledPersister) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.values) == 0 {
		return ""
	}
	return p.values[len(p.values)-1]
}

func TestSetToken_DoesNotWaitOnStalledStorage(t *testing.T) {
	p := &stalledPersister{release: make(chan struct{}), entered: make(chan struct{}, 1)}
	s := Open(context.Background(), p, nil)

	s.SetToken("tok-0")
	select {
	case <-p.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("writer never reached the persister")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i < 40; i++ {
			s.SetToken(fmt.Sprintf("tok-%d", i))
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("SetToken blocked behind a stalled persister")
	}
	assert.Equal(t, "tok-39", s.Token())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Flush(ctx), context.DeadlineExceeded)

	close(p.release)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "tok-39", p.last())

	p.mu.Lock()
	writes := len(p.values)
	p.mu.Unlock()
	assert.LessOrEqual(t, writes, 3, "queued values should coalesce to the newest")

	require.NoError(t, s.Close(context.Background()))
}

func TestSubscribe_OrderedUpdates(t *testing.T) {
	s := New()

	var seen []string
	unsubscribe := s.Subscribe(func(tok string) {
		seen = append(seen, tok)
	})

	s.SetToken("a")
	s.SetToken("b")
	s.Clear()
	unsubscribe()
	s.SetToken("c")

	assert.Equal(t, []string{"a", "b", ""}, seen)
}

func TestTransport_AttachesToken(t *testing.T) {
	var gotAuth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
	}))
	defer srv.Close()

	s := New()
	client := &http.Client{Transport: &Transport{Source: s}, Timeout: 5 * time.Second}

	get := func() {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}

	get()
	s.SetToken("abc")
	get()
	s.Clear()
	get()

	assert.Equal(t, []string{"", "Bearer abc", ""}, gotAuth)
}

func TestTransport_DoesNotMutateRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	s := New()
	s.SetToken("abc")
	client := &http.Client{Transport: &Transport{Source: s}}

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
