// Package session implements the per-bearer-token connection manager
// (spec.md §4.1, §5): ref-counted PlatformClient handles keyed by token,
// idle-TTL eviction, failure quarantine, and a background cleanup sweep.
//
// The concurrency shape — mutex-guarded per-entry state, a ticker-driven
// cleanup loop, and a fixed quarantine window before a failed token may
// dial again — is grounded on the
// teacher's internal/mcp/manager.go (serverState) and
// internal/mcp/manager_connect.go (healthLoop/tryReconnect), ported from
// "one long-lived client per configured MCP server" to "one client per
// active bearer token, acquired and released per request". The
// acquire/release/cleanup vocabulary itself comes from
// original_source/src/client/connection.py's TelegramConnectionPool,
// though its fixed-size anonymous pool structure is intentionally NOT
// reused — sessions are keyed per bearer token instead.
package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
)

// State is a session's lifecycle state (spec.md §4.1).
type State string

const (
	StateConnecting State = "connecting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
	StateClosed     State = "closed"
)

var tracer = otel.Tracer("telegram-mcp-go/session")

// ErrQuarantined is returned by Acquire when the token's session is in the
// Failed state and has not yet passed its quarantine window.
var ErrQuarantined = errors.New("session: token quarantined after prior connect failure")

// Config tunes manager behavior; normally sourced from config.SessionConfig.
type Config struct {
	IdleTTL         time.Duration
	CleanupInterval time.Duration
	MaxSessions     int
	ConnectTimeout  time.Duration
	// QuarantineWindow is how long a Failed session blocks new Acquire
	// calls for the same token before a retry is allowed.
	QuarantineWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.IdleTTL <= 0 {
		c.IdleTTL = 15 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = 256
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.QuarantineWindow <= 0 {
		c.QuarantineWindow = 30 * time.Second
	}
	return c
}

// entry is one token's session slot.
type entry struct {
	mu         sync.Mutex
	state      State
	client     platform.Client
	refCount   int
	lastUsed   time.Time
	failedAt   time.Time
	lastErr    error
	connecting chan struct{} // closed when a pending connect finishes
}

// Manager is the ref-counted, token-keyed session manager.
type Manager struct {
	cfg    Config
	dialer platform.Dialer

	mu       sync.Mutex // guards entries map only; never held across connects
	entries  map[string]*entry

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a Manager bound to dialer, and starts its background
// cleanup sweep. Call Close to stop the sweep and release all sessions.
func New(dialer platform.Dialer, cfg Config) *Manager {
	m := &Manager{
		cfg:     cfg.withDefaults(),
		dialer:  dialer,
		entries: make(map[string]*entry),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func fingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h[:4])
}

// Handle is a leased reference to a session's Client. Callers MUST call
// Release exactly once when done, mirroring
// TelegramConnectionPool's acquire/release contract.
type Handle struct {
	m     *Manager
	token string
	e     *entry
	Client platform.Client
}

// Release decrements the session's ref count and refreshes its idle timer.
func (h *Handle) Release() {
	h.e.mu.Lock()
	h.e.refCount--
	h.e.lastUsed = time.Now()
	h.e.mu.Unlock()
}

// MarkFailed quarantines this handle's session after the caller judges it
// unusable following a downstream platform-call failure (spec.md §4.1's
// "Failure semantics" — errors during a downstream call are the caller's
// responsibility, and it is the caller that invokes mark_failed). It only
// flips the entry's state; ref_count is still the caller's to release via
// the normal deferred Release, and the entry itself is only reaped once
// ref_count reaches zero and the quarantine window has elapsed (sweep).
func (h *Handle) MarkFailed(err error) {
	h.e.mu.Lock()
	h.e.state = StateFailed
	h.e.failedAt = time.Now()
	h.e.lastErr = err
	h.e.mu.Unlock()
	slog.Warn("session.marked_failed", "token_fp", fingerprint(h.token), "error", err)
}

// Acquire returns a leased Client for token, dialing a fresh connection on
// first use and reusing (ref-counting) it on subsequent calls. A token
// whose session is quarantined after a recent connect failure returns
// ErrQuarantined until the quarantine window elapses.
func (m *Manager) Acquire(ctx context.Context, token string) (*Handle, error) {
	ctx, span := tracer.Start(ctx, "session.acquire")
	defer span.End()
	fp := fingerprint(token)
	span.SetAttributes(attribute.String("token_fp", fp))

	m.mu.Lock()
	e, ok := m.entries[token]
	created := false
	if !ok {
		if len(m.entries) >= m.cfg.MaxSessions {
			m.mu.Unlock()
			span.SetAttributes(attribute.Bool("rejected_max_sessions", true))
			return nil, fmt.Errorf("session: at capacity (%d sessions)", m.cfg.MaxSessions)
		}
		e = &entry{state: StateConnecting, connecting: make(chan struct{})}
		m.entries[token] = e
		created = true
	}
	m.mu.Unlock()

	e.mu.Lock()
	switch {
	case created:
		// This call inserted the entry, so it is the one that dials.
		e.mu.Unlock()

	case e.state == StateReady:
		e.refCount++
		e.lastUsed = time.Now()
		e.mu.Unlock()
		span.SetAttributes(attribute.String("state", "hit"))
		return &Handle{m: m, token: token, e: e, Client: e.client}, nil

	case e.state == StateFailed:
		if time.Since(e.failedAt) < m.cfg.QuarantineWindow {
			err := e.lastErr
			e.mu.Unlock()
			span.SetAttributes(attribute.Bool("quarantined", true))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrQuarantined, err)
			}
			return nil, ErrQuarantined
		}
		// Quarantine window elapsed: retry the dial below.
		e.state = StateConnecting
		e.connecting = make(chan struct{})
		e.mu.Unlock()

	case e.state == StateConnecting:
		ch := e.connecting
		e.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return m.Acquire(ctx, token)

	default: // StateClosed — replace with a fresh connecting entry
		e.mu.Unlock()
		m.mu.Lock()
		e = &entry{state: StateConnecting, connecting: make(chan struct{})}
		m.entries[token] = e
		m.mu.Unlock()
	}

	// Dial outside any mutex: never hold the map lock or entry lock across
	// a network connect.
	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnectTimeout)
	defer cancel()
	client, err := m.dialer.Dial(dialCtx, token)

	e.mu.Lock()
	close(e.connecting)
	if err != nil {
		e.state = StateFailed
		e.failedAt = time.Now()
		e.lastErr = err
		e.mu.Unlock()
		slog.Warn("session.connect.failed", "token_fp", fp, "error", err)
		span.RecordError(err)
		return nil, fmt.Errorf("session: connect failed: %w", err)
	}
	e.state = StateReady
	e.client = client
	e.refCount = 1
	e.lastUsed = time.Now()
	e.mu.Unlock()

	slog.Info("session.connected", "token_fp", fp)
	span.SetAttributes(attribute.String("state", "miss"))
	return &Handle{m: m, token: token, e: e, Client: client}, nil
}

// cleanupLoop evicts idle sessions and quarantined entries whose window
// has long since elapsed, same sweep-loop idiom as the teacher's
// healthLoop but driven by idle time instead of ping failures.
func (m *Manager) cleanupLoop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	now := time.Now()
	m.mu.Lock()
	tokens := make([]string, 0, len(m.entries))
	for tok := range m.entries {
		tokens = append(tokens, tok)
	}
	m.mu.Unlock()

	for _, tok := range tokens {
		m.mu.Lock()
		e, ok := m.entries[tok]
		m.mu.Unlock()
		if !ok {
			continue
		}

		e.mu.Lock()
		shouldEvict := false
		var client platform.Client
		switch e.state {
		case StateReady:
			if e.refCount <= 0 && now.Sub(e.lastUsed) >= m.cfg.IdleTTL {
				shouldEvict = true
				client = e.client
				e.state = StateClosed
			}
		case StateFailed:
			if e.refCount <= 0 && now.Sub(e.failedAt) >= m.cfg.QuarantineWindow*4 {
				shouldEvict = true
				client = e.client
				e.state = StateClosed
			}
		}
		e.mu.Unlock()

		if shouldEvict {
			m.mu.Lock()
			delete(m.entries, tok)
			m.mu.Unlock()
			if client != nil {
				if err := client.Close(); err != nil {
					slog.Warn("session.close.failed", "token_fp", fingerprint(tok), "error", err)
				}
			}
			slog.Info("session.evicted", "token_fp", fingerprint(tok))
		}
	}
}

// Stats reports manager-wide counters, used by health endpoints and tests.
type Stats struct {
	Total     int
	Ready     int
	Failed    int
	Connecting int
}

// Stats returns a point-in-time snapshot of session states.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s Stats
	s.Total = len(m.entries)
	for _, e := range m.entries {
		e.mu.Lock()
		switch e.state {
		case StateReady:
			s.Ready++
		case StateFailed:
			s.Failed++
		case StateConnecting:
			s.Connecting++
		}
		e.mu.Unlock()
	}
	return s
}

// Close stops the cleanup loop and closes every session.
func (m *Manager) Close() error {
	close(m.stopCh)
	<-m.doneCh

	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	var firstErr error
	for tok, e := range entries {
		e.mu.Lock()
		client := e.client
		e.state = StateClosed
		e.mu.Unlock()
		if client != nil {
			if err := client.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		slog.Info("session.closed", "token_fp", fingerprint(tok))
	}
	return firstErr
}
