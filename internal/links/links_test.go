package links

import (
	"context"
	"testing"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platformtest"
)

func TestGenerate_PublicChat(t *testing.T) {
	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return &platform.Entity{ID: 123, Username: "somechannel", Kind: platform.EntityChannel}, nil
		},
	}

	got := Generate(context.Background(), client, Params{ChatID: "123", MessageIDs: []int{42}})

	if got.PublicChatLink != "https://t.me/somechannel" {
		t.Errorf("public_chat_link = %q", got.PublicChatLink)
	}
	if got.PrivateChatLink != "" {
		t.Errorf("private_chat_link should be empty, got %q", got.PrivateChatLink)
	}
	if len(got.MessageLinks) != 1 || got.MessageLinks[0] != "https://t.me/somechannel/42" {
		t.Errorf("message_links = %v", got.MessageLinks)
	}
}

func TestGenerate_PrivateChat(t *testing.T) {
	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return &platform.Entity{ID: -1001234567890, Kind: platform.EntityChannel}, nil
		},
	}

	got := Generate(context.Background(), client, Params{ChatID: "-1001234567890", MessageIDs: []int{7}})

	if got.PrivateChatLink != "https://t.me/c/1234567890" {
		t.Errorf("private_chat_link = %q", got.PrivateChatLink)
	}
	if len(got.MessageLinks) != 1 || got.MessageLinks[0] != "https://t.me/c/1234567890/7" {
		t.Errorf("message_links = %v", got.MessageLinks)
	}
}

func TestGenerate_ThreadAndComment(t *testing.T) {
	client := &platformtest.FakeClient{
		ResolveEntityFn: func(ctx context.Context, identifier string) (*platform.Entity, error) {
			return &platform.Entity{ID: 1, Username: "grp", Kind: platform.EntityGroup}, nil
		},
	}

	got := Generate(context.Background(), client, Params{ChatID: "1", MessageIDs: []int{5}, ThreadID: 99, CommentID: 3})

	want := "https://t.me/grp/99/5?thread=99&comment=3"
	if len(got.MessageLinks) != 1 || got.MessageLinks[0] != want {
		t.Errorf("message_links = %v, want [%s]", got.MessageLinks, want)
	}
}

func TestGenerate_Unresolvable(t *testing.T) {
	client := &platformtest.FakeClient{}

	got := Generate(context.Background(), client, Params{ChatID: "nope"})

	if got.PublicChatLink != "" || got.PrivateChatLink != "" {
		t.Errorf("expected no links, got %+v", got)
	}
	if got.Note == "" {
		t.Error("expected a note explaining the unresolved entity")
	}
}

func TestFormatChatLink(t *testing.T) {
	tests := []struct {
		name      string
		chatID    string
		isPrivate bool
		want      string
	}{
		{"public", "@mychan", false, "https://t.me/mychan"},
		{"private", "-1009999999999", true, "https://t.me/c/9999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatChatLink(tt.chatID, tt.isPrivate); got != tt.want {
				t.Errorf("FormatChatLink() = %q, want %q", got, tt.want)
			}
		})
	}
}
