package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
)

func newTestManager(t *testing.T, dialer *platformtest.FakeDialer) *Manager {
	t.Helper()
	m := New(dialer, Config{
		IdleTTL:          50 * time.Millisecond,
		CleanupInterval:  10 * time.Millisecond,
		MaxSessions:      8,
		ConnectTimeout:   time.Second,
		QuarantineWindow: 30 * time.Millisecond,
	})
	t.Cleanup(func() { m.Close() })
	return m
}

func TestAcquire_ConcurrentSameTokenReusesOneConnection(t *testing.T) {
	dialer := &platformtest.FakeDialer{}
	m := newTestManager(t, dialer)

	const n = 10
	var wg sync.WaitGroup
	handles := make([]*Handle, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := m.Acquire(context.Background(), "tok-a")
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			handles[i] = h
		}(i)
	}
	wg.Wait()

	if dialer.Calls != 1 {
		t.Errorf("expected exactly 1 dial for the shared token, got %d", dialer.Calls)
	}

	stats := m.Stats()
	if stats.Ready != 1 {
		t.Errorf("expected 1 ready session, got %d", stats.Ready)
	}

	for _, h := range handles {
		if h != nil {
			h.Release()
		}
	}
}

func TestAcquire_DifferentTokensGetDifferentSessions(t *testing.T) {
	dialer := &platformtest.FakeDialer{}
	m := newTestManager(t, dialer)

	h1, err := m.Acquire(context.Background(), "tok-a")
	if err != nil {
		t.Fatal(err)
	}
	defer h1.Release()

	h2, err := m.Acquire(context.Background(), "tok-b")
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Release()

	if dialer.Calls != 2 {
		t.Errorf("expected 2 dials for 2 distinct tokens, got %d", dialer.Calls)
	}
	if m.Stats().Total != 2 {
		t.Errorf("expected 2 tracked sessions, got %d", m.Stats().Total)
	}
}

func TestAcquire_FailedConnectIsQuarantined(t *testing.T) {
	wantErr := errors.New("auth rejected")
	dialer := &platformtest.FakeDialer{
		New: func(ctx context.Context, token string) (platform.Client, error) {
			return nil, wantErr
		},
	}
	m := newTestManager(t, dialer)

	_, err := m.Acquire(context.Background(), "tok-bad")
	if err == nil {
		t.Fatal("expected the first Acquire to fail")
	}

	_, err = m.Acquire(context.Background(), "tok-bad")
	if !errors.Is(err, ErrQuarantined) {
		t.Fatalf("expected ErrQuarantined while inside the quarantine window, got %v", err)
	}

	if dialer.Calls != 1 {
		t.Errorf("expected only 1 dial attempt during quarantine, got %d", dialer.Calls)
	}
}

func TestAcquire_RetriesAfterQuarantineWindow(t *testing.T) {
	attempt := 0
	dialer := &platformtest.FakeDialer{
		New: func(ctx context.Context, token string) (platform.Client, error) {
			attempt++
			if attempt == 1 {
				return nil, errors.New("transient failure")
			}
			return &platformtest.FakeClient{}, nil
		},
	}
	m := newTestManager(t, dialer)

	if _, err := m.Acquire(context.Background(), "tok-retry"); err == nil {
		t.Fatal("expected first attempt to fail")
	}

	time.Sleep(40 * time.Millisecond) // > QuarantineWindow

	h, err := m.Acquire(context.Background(), "tok-retry")
	if err != nil {
		t.Fatalf("expected retry after quarantine window to succeed, got %v", err)
	}
	h.Release()

	if dialer.Calls != 2 {
		t.Errorf("expected 2 dial attempts, got %d", dialer.Calls)
	}
}

func TestMarkFailed_QuarantinesSubsequentAcquire(t *testing.T) {
	dialer := &platformtest.FakeDialer{}
	m := newTestManager(t, dialer)

	h, err := m.Acquire(context.Background(), "tok-mark")
	if err != nil {
		t.Fatal(err)
	}
	h.MarkFailed(errors.New("downstream call failed"))
	h.Release()

	if _, err := m.Acquire(context.Background(), "tok-mark"); !errors.Is(err, ErrQuarantined) {
		t.Fatalf("expected ErrQuarantined after MarkFailed, got %v", err)
	}
	if dialer.Calls != 1 {
		t.Errorf("expected no new dial while quarantined, got %d calls", dialer.Calls)
	}
}

func TestSweep_EvictsIdleSession(t *testing.T) {
	dialer := &platformtest.FakeDialer{}
	m := newTestManager(t, dialer)

	h, err := m.Acquire(context.Background(), "tok-idle")
	if err != nil {
		t.Fatal(err)
	}
	h.Release()

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		if m.Stats().Total == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the idle session to be evicted by the cleanup sweep")
}
