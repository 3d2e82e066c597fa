package contacts

import (
	"context"
	"testing"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
)

func TestSearch_NoMatchesReturnsErrorRecord(t *testing.T) {
	client := &platformtest.FakeClient{
		SearchContactsFn: func(ctx context.Context, query string) ([]*platform.Entity, error) {
			return nil, nil
		},
	}

	matches, rec := Search(context.Background(), client, "nobody", 20)
	if matches != nil {
		t.Errorf("expected nil matches, got %+v", matches)
	}
	if rec == nil || rec.OK {
		t.Fatal("expected a not-ok error record")
	}
}

func TestSearch_ReturnsMatches(t *testing.T) {
	client := &platformtest.FakeClient{
		SearchContactsFn: func(ctx context.Context, query string) ([]*platform.Entity, error) {
			return []*platform.Entity{
				{ID: 1, Title: "Alice", Username: "alice", Kind: platform.EntityUser},
			}, nil
		},
	}

	matches, rec := Search(context.Background(), client, "alice", 20)
	if rec != nil {
		t.Fatalf("expected no error record, got %+v", rec)
	}
	if len(matches) != 1 || matches[0].Title != "Alice" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestSearch_MultiTermDedup(t *testing.T) {
	client := &platformtest.FakeClient{
		SearchContactsFn: func(ctx context.Context, query string) ([]*platform.Entity, error) {
			switch query {
			case "alice":
				return []*platform.Entity{{ID: 1, Title: "Alice", Username: "alice", Kind: platform.EntityUser}}, nil
			case "bob":
				return []*platform.Entity{
					{ID: 1, Title: "Alice", Username: "alice", Kind: platform.EntityUser},
					{ID: 2, Title: "Bob", Username: "bob", Kind: platform.EntityUser},
				}, nil
			default:
				return nil, nil
			}
		},
	}

	matches, rec := Search(context.Background(), client, "alice, bob", 20)
	if rec != nil {
		t.Fatalf("expected no error record, got %+v", rec)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 deduped matches, got %d: %+v", len(matches), matches)
	}
}

func TestDetails_NotFound(t *testing.T) {
	client := &platformtest.FakeClient{}
	info, rec := Details(context.Background(), client, "999")
	if info != nil {
		t.Errorf("expected nil info, got %+v", info)
	}
	if rec == nil || rec.OK {
		t.Fatal("expected a not-ok error record")
	}
}
