// Package links generates t.me deep links, ported from
// original_source/src/tools/links.py (generate_telegram_links,
// format_chat_link, format_message_link).
package links

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
)

// Result is the response shape of Generate, mirroring the original's dict
// keys exactly (public_chat_link / private_chat_link / message_links / note).
type Result struct {
	PublicChatLink  string   `json:"public_chat_link,omitempty"`
	PrivateChatLink string   `json:"private_chat_link,omitempty"`
	MessageLinks    []string `json:"message_links,omitempty"`
	Note            string   `json:"note,omitempty"`
}

// Params mirrors generate_telegram_links' keyword arguments.
type Params struct {
	ChatID         string
	MessageIDs     []int
	Username       string
	ThreadID       int
	CommentID      int
	MediaTimestamp int
}

func queryString(p Params) string {
	var parts []string
	if p.ThreadID != 0 {
		parts = append(parts, fmt.Sprintf("thread=%d", p.ThreadID))
	}
	if p.CommentID != 0 {
		parts = append(parts, fmt.Sprintf("comment=%d", p.CommentID))
	}
	if p.MediaTimestamp != 0 {
		parts = append(parts, fmt.Sprintf("t=%d", p.MediaTimestamp))
	}
	if len(parts) == 0 {
		return ""
	}
	return "?" + strings.Join(parts, "&")
}

// Generate resolves p.ChatID (falling back to p.Username) and builds
// public or private deep links depending on whether the resolved entity
// carries a public @username, exactly as the original branches on
// entity.username.
func Generate(ctx context.Context, client platform.Client, p Params) Result {
	slog.Debug("links.generate", "chat_id", p.ChatID, "username", p.Username)

	var ent *platform.Entity
	if e, err := client.ResolveEntity(ctx, p.ChatID); err == nil {
		ent = e
	} else {
		slog.Warn("links.resolve_by_chat_id.failed", "chat_id", p.ChatID, "error", err)
	}
	if ent == nil && p.Username != "" {
		if e, err := client.ResolveEntity(ctx, p.Username); err == nil {
			ent = e
		} else {
			slog.Warn("links.resolve_by_username.failed", "username", p.Username, "error", err)
		}
	}

	qs := queryString(p)
	var res Result

	switch {
	case ent != nil && ent.Username != "":
		clean := strings.TrimPrefix(ent.Username, "@")
		res.PublicChatLink = "https://t.me/" + clean
		if len(p.MessageIDs) > 0 {
			res.MessageLinks = make([]string, 0, len(p.MessageIDs))
			for _, id := range p.MessageIDs {
				if p.ThreadID != 0 {
					res.MessageLinks = append(res.MessageLinks, fmt.Sprintf("https://t.me/%s/%d/%d%s", clean, p.ThreadID, id, qs))
				} else {
					res.MessageLinks = append(res.MessageLinks, fmt.Sprintf("https://t.me/%s/%d%s", clean, id, qs))
				}
			}
		}
	case ent != nil:
		channelID := strconv.FormatInt(ent.ID, 10)
		channelID = strings.TrimPrefix(channelID, "-100")
		res.PrivateChatLink = "https://t.me/c/" + channelID
		if len(p.MessageIDs) > 0 {
			res.MessageLinks = make([]string, 0, len(p.MessageIDs))
			for _, id := range p.MessageIDs {
				if p.ThreadID != 0 {
					res.MessageLinks = append(res.MessageLinks, fmt.Sprintf("https://t.me/c/%s/%d/%d%s", channelID, p.ThreadID, id, qs))
				} else {
					res.MessageLinks = append(res.MessageLinks, fmt.Sprintf("https://t.me/c/%s/%d%s", channelID, id, qs))
				}
			}
		}
	default:
		res.Note = "Cannot resolve chat entity. Check chat_id or username."
	}

	if res.Note == "" {
		res.Note = "Private chat links only work for chat members. Public links work for anyone."
	}
	return res
}

// FormatChatLink builds a single chat link without resolving an entity,
// for callers that already know whether the chat is private (format_chat_link).
func FormatChatLink(chatID string, isPrivate bool) string {
	if isPrivate {
		channelID := strings.TrimPrefix(chatID, "-100")
		return "https://t.me/c/" + channelID
	}
	return "https://t.me/" + strings.TrimPrefix(chatID, "@")
}

// FormatMessageLink builds a single message link (format_message_link).
func FormatMessageLink(chatID string, messageID int, isPrivate bool, threadID, commentID, mediaTimestamp int) string {
	var parts []string
	if commentID != 0 {
		parts = append(parts, fmt.Sprintf("comment=%d", commentID))
	}
	if mediaTimestamp != 0 {
		parts = append(parts, fmt.Sprintf("t=%d", mediaTimestamp))
	}
	qs := ""
	if len(parts) > 0 {
		qs = "?" + strings.Join(parts, "&")
	}

	if isPrivate {
		channelID := strings.TrimPrefix(chatID, "-100")
		if threadID != 0 {
			return fmt.Sprintf("https://t.me/c/%s/%d/%d%s", channelID, threadID, messageID, qs)
		}
		return fmt.Sprintf("https://t.me/c/%s/%d%s", channelID, messageID, qs)
	}
	username := strings.TrimPrefix(chatID, "@")
	if threadID != 0 {
		return fmt.Sprintf("https://t.me/%s/%d/%d%s", username, threadID, messageID, qs)
	}
	return fmt.Sprintf("https://t.me/%s/%d%s", username, messageID, qs)
}
