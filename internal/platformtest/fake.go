// Package platformtest provides a configurable fake platform.Client for use
// across internal package tests (search, messages, contacts, links, session
// all exercise the same interface). Each method delegates to an optional
// function field, defaulting to a zero-value/no-op response so tests only
// need to set the handful of methods their scenario actually calls.
package platformtest

import (
	"context"
	"time"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
)

// FakeClient implements platform.Client entirely via overridable fields.
type FakeClient struct {
	ResolveEntityFn     func(ctx context.Context, identifier string) (*platform.Entity, error)
	IterMessagesFn      func(ctx context.Context, chat *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error)
	SearchGlobalFn      func(ctx context.Context, query string, minDate, maxDate *time.Time, offsetID, limit int) ([]*platform.Message, error)
	EntityForMessageFn  func(ctx context.Context, m *platform.Message) (*platform.Entity, error)
	GetSearchCountersFn func(ctx context.Context, chat *platform.Entity) (*platform.SearchCounters, error)
	SendMessageFn       func(ctx context.Context, chat *platform.Entity, text, parseMode string, replyToID int) (*platform.Message, error)
	EditMessageFn       func(ctx context.Context, chat *platform.Entity, messageID int, text, parseMode string) (*platform.Message, error)
	GetMessagesByIDFn   func(ctx context.Context, chat *platform.Entity, ids []int) ([]*platform.Message, error)
	SearchContactsFn    func(ctx context.Context, query string) ([]*platform.Entity, error)
	GetContactFn        func(ctx context.Context, identifier string) (*platform.Entity, error)
	InvokeFn            func(ctx context.Context, request any) (any, error)
	CloseFn             func() error

	Closed bool
}

func (f *FakeClient) ResolveEntity(ctx context.Context, identifier string) (*platform.Entity, error) {
	if f.ResolveEntityFn != nil {
		return f.ResolveEntityFn(ctx, identifier)
	}
	return nil, nil
}

func (f *FakeClient) IterMessages(ctx context.Context, chat *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error) {
	if f.IterMessagesFn != nil {
		return f.IterMessagesFn(ctx, chat, query, offsetID, limit)
	}
	return nil, nil
}

func (f *FakeClient) SearchGlobal(ctx context.Context, query string, minDate, maxDate *time.Time, offsetID, limit int) ([]*platform.Message, error) {
	if f.SearchGlobalFn != nil {
		return f.SearchGlobalFn(ctx, query, minDate, maxDate, offsetID, limit)
	}
	return nil, nil
}

func (f *FakeClient) EntityForMessage(ctx context.Context, m *platform.Message) (*platform.Entity, error) {
	if f.EntityForMessageFn != nil {
		return f.EntityForMessageFn(ctx, m)
	}
	return nil, nil
}

func (f *FakeClient) GetSearchCounters(ctx context.Context, chat *platform.Entity) (*platform.SearchCounters, error) {
	if f.GetSearchCountersFn != nil {
		return f.GetSearchCountersFn(ctx, chat)
	}
	return nil, nil
}

func (f *FakeClient) SendMessage(ctx context.Context, chat *platform.Entity, text, parseMode string, replyToID int) (*platform.Message, error) {
	if f.SendMessageFn != nil {
		return f.SendMessageFn(ctx, chat, text, parseMode, replyToID)
	}
	return nil, nil
}

func (f *FakeClient) EditMessage(ctx context.Context, chat *platform.Entity, messageID int, text, parseMode string) (*platform.Message, error) {
	if f.EditMessageFn != nil {
		return f.EditMessageFn(ctx, chat, messageID, text, parseMode)
	}
	return nil, nil
}

func (f *FakeClient) GetMessagesByID(ctx context.Context, chat *platform.Entity, ids []int) ([]*platform.Message, error) {
	if f.GetMessagesByIDFn != nil {
		return f.GetMessagesByIDFn(ctx, chat, ids)
	}
	return nil, nil
}

func (f *FakeClient) SearchContacts(ctx context.Context, query string) ([]*platform.Entity, error) {
	if f.SearchContactsFn != nil {
		return f.SearchContactsFn(ctx, query)
	}
	return nil, nil
}

func (f *FakeClient) GetContact(ctx context.Context, identifier string) (*platform.Entity, error) {
	if f.GetContactFn != nil {
		return f.GetContactFn(ctx, identifier)
	}
	return nil, nil
}

func (f *FakeClient) Invoke(ctx context.Context, request any) (any, error) {
	if f.InvokeFn != nil {
		return f.InvokeFn(ctx, request)
	}
	return nil, nil
}

func (f *FakeClient) Close() error {
	f.Closed = true
	if f.CloseFn != nil {
		return f.CloseFn()
	}
	return nil
}

// FakeDialer hands out a fresh FakeClient per call (or whatever New
// returns, when set), for internal/session tests.
type FakeDialer struct {
	New   func(ctx context.Context, token string) (platform.Client, error)
	Calls int
}

func (d *FakeDialer) Dial(ctx context.Context, token string) (platform.Client, error) {
	d.Calls++
	if d.New != nil {
		return d.New(ctx, token)
	}
	return &FakeClient{}, nil
}
