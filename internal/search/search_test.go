package search

import (
	"context"
	"errors"
	"testing"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

func TestSearch_GlobalEmptyQueryIsValidationError(t *testing.T) {
	client := &platformtest.FakeClient{}

	_, err := Search(context.Background(), client, Request{Limit: 10})

	var te *toolerr.Error
	if !errors.As(err, &te) {
		t.Fatalf("expected *toolerr.Error, got %v", err)
	}
	if te.Kind != toolerr.KindValidation {
		t.Errorf("kind = %q, want ValidationError", te.Kind)
	}
}

func TestSearch_MultiTermDedup(t *testing.T) {
	chat := &platform.Entity{ID: 1, Kind: platform.EntityGroup}
	msgA := &platform.Message{ID: 1, ChatID: 1, Text: "hello world"}
	msgB := &platform.Message{ID: 2, ChatID: 1, Text: "hello again"}

	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return chat, nil
		},
		IterMessagesFn: func(ctx context.Context, c *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error) {
			if offsetID != 0 {
				return nil, nil
			}
			switch query {
			case "hello":
				return []*platform.Message{msgA, msgB}, nil
			case "world":
				return []*platform.Message{msgA}, nil
			}
			return nil, nil
		},
	}

	result, err := Search(context.Background(), client, Request{
		Query:  "hello, world",
		ChatID: "1",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("expected 2 deduped messages, got %d: %+v", len(result.Messages), result.Messages)
	}
}

func TestSearch_ChatTypeFilterExcludesNonMatching(t *testing.T) {
	privateChat := &platform.Entity{ID: 1, Kind: platform.EntityUser}
	msg := &platform.Message{ID: 1, ChatID: 1, Text: "hi"}

	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return privateChat, nil
		},
		IterMessagesFn: func(ctx context.Context, c *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error) {
			if offsetID != 0 {
				return nil, nil
			}
			return []*platform.Message{msg}, nil
		},
	}

	result, err := Search(context.Background(), client, Request{
		ChatID:   "1",
		Limit:    10,
		ChatType: ChatTypeChannel,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Messages) != 0 {
		t.Fatalf("expected 0 messages (user != channel), got %d", len(result.Messages))
	}
}

func TestSearch_TotalCount(t *testing.T) {
	chat := &platform.Entity{ID: 1, Kind: platform.EntityGroup}
	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return chat, nil
		},
		IterMessagesFn: func(ctx context.Context, c *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error) {
			return nil, nil
		},
		GetSearchCountersFn: func(ctx context.Context, c *platform.Entity) (*platform.SearchCounters, error) {
			return &platform.SearchCounters{Total: 42}, nil
		},
	}

	result, err := Search(context.Background(), client, Request{
		ChatID:            "1",
		Limit:             10,
		IncludeTotalCount: true,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.TotalCount == nil || *result.TotalCount != 42 {
		t.Fatalf("total_count = %v, want 42", result.TotalCount)
	}
}

func TestSearch_Pagination(t *testing.T) {
	chat := &platform.Entity{ID: 1, Kind: platform.EntityGroup}
	msgs := []*platform.Message{
		{ID: 1, ChatID: 1, Text: "a"},
		{ID: 2, ChatID: 1, Text: "b"},
		{ID: 3, ChatID: 1, Text: "c"},
	}
	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return chat, nil
		},
		IterMessagesFn: func(ctx context.Context, c *platform.Entity, query string, offsetID, limit int) ([]*platform.Message, error) {
			if offsetID != 0 {
				return nil, nil
			}
			return msgs, nil
		},
	}

	// Per-term fetches are capped at Limit (not Offset+Limit), matching
	// original_source/src/tools/search.py's _search_chat_messages — so an
	// offset can outrun what a single term's batch returns. Offset=1,
	// Limit=2 pulls only messages 1-2, leaving message 3 unseen this round.
	result, err := Search(context.Background(), client, Request{ChatID: "1", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Messages) != 1 || result.Messages[0].ID != 2 {
		t.Fatalf("unexpected window: %+v", result.Messages)
	}
	if result.HasMore {
		t.Error("expected has_more = false: collected has only 2 items total, offset+len(window) == 2")
	}
}

func TestSplitQueries(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b ,c", []string{"a", "b", "c"}},
		{"a,,b", []string{"a", "b"}},
	}
	for _, tt := range tests {
		got := splitQueries(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("splitQueries(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitQueries(%q)[%d] = %q, want %q", tt.in, i, got[i], tt.want[i])
			}
		}
	}
}

func TestHasContent(t *testing.T) {
	if !hasContent(&platform.Message{Text: "hi"}) {
		t.Error("expected text message to have content")
	}
	if !hasContent(&platform.Message{Media: platform.MediaPhoto}) {
		t.Error("expected media message to have content")
	}
	if hasContent(&platform.Message{}) {
		t.Error("expected empty message to have no content")
	}
}
