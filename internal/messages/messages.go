// Package messages implements the message reader and sender/editor
// (spec.md §4.4/§4.5), ported from
// original_source/src/tools/messages.py (send_message, edit_message,
// read_messages_by_ids).
package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/leshchenko1979/telegram-mcp-go/internal/entity"
	"github.com/leshchenko1979/telegram-mcp-go/internal/links"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

// ValidParseMode reports whether mode is one of the accepted values
// (SPEC_FULL.md §5 — "", "markdown", "html", case-insensitive), Telethon's
// own accepted set in the original this server is modeled on.
func ValidParseMode(mode string) bool {
	switch strings.ToLower(mode) {
	case "", "markdown", "html":
		return true
	default:
		return false
	}
}

// SendEditResult is the response shape for send/edit, matching
// build_send_edit_result's keys.
type SendEditResult struct {
	ID     int          `json:"id"`
	ChatID int64        `json:"chat_id"`
	Text   string       `json:"text"`
	Action string       `json:"action"`
	Chat   *entity.Dict `json:"chat,omitempty"`
}

// Send posts a new message (send_message).
func Send(ctx context.Context, client platform.Client, chatID, text string, replyToMsgID int, parseMode string) (*SendEditResult, error) {
	requestID := uuid.NewString()
	if !ValidParseMode(parseMode) {
		return nil, toolerr.Validation("send_or_edit_message", requestID,
			fmt.Sprintf("unsupported parse_mode %q", parseMode), map[string]any{"chat_id": chatID})
	}

	chat := entity.Resolve(ctx, client, chatID)
	if chat == nil {
		return nil, toolerr.NotFound("send_or_edit_message", requestID,
			fmt.Sprintf("cannot find any entity corresponding to %q", chatID), map[string]any{"chat_id": chatID})
	}

	sent, err := client.SendMessage(ctx, chat, text, parseMode, replyToMsgID)
	if err != nil {
		return nil, toolerr.Internal("send_or_edit_message", requestID, err, map[string]any{"chat_id": chatID})
	}

	return &SendEditResult{ID: sent.ID, ChatID: sent.ChatID, Text: sent.Text, Action: "sent", Chat: entity.BuildDict(chat)}, nil
}

// Edit edits an existing message (edit_message).
func Edit(ctx context.Context, client platform.Client, chatID string, messageID int, newText string, parseMode string) (*SendEditResult, error) {
	requestID := uuid.NewString()
	if !ValidParseMode(parseMode) {
		return nil, toolerr.Validation("send_or_edit_message", requestID,
			fmt.Sprintf("unsupported parse_mode %q", parseMode), map[string]any{"chat_id": chatID, "message_id": messageID})
	}

	chat := entity.Resolve(ctx, client, chatID)
	if chat == nil {
		return nil, toolerr.NotFound("send_or_edit_message", requestID,
			fmt.Sprintf("cannot find any entity corresponding to %q", chatID), map[string]any{"chat_id": chatID})
	}

	edited, err := client.EditMessage(ctx, chat, messageID, newText, parseMode)
	if err != nil {
		return nil, toolerr.Internal("send_or_edit_message", requestID, err, map[string]any{"chat_id": chatID, "message_id": messageID})
	}

	return &SendEditResult{ID: edited.ID, ChatID: edited.ChatID, Text: edited.Text, Action: "edited", Chat: entity.BuildDict(chat)}, nil
}

// ReadResult is one entry of ReadByIDs' response: either a populated
// message or an in-band error record, matching read_messages_by_ids'
// per-id error shape {"id":..,"chat":..,"error":"Message not found or
// inaccessible"}.
type ReadResult struct {
	ID    int          `json:"id"`
	ChatID int64       `json:"chat_id,omitempty"`
	Text   string      `json:"text,omitempty"`
	Link   string      `json:"link,omitempty"`
	Chat   *entity.Dict `json:"chat,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ReadByIDs fetches specific messages by ID, preserving per-id alignment:
// a message that can't be read becomes its own error record rather than
// failing the whole call (read_messages_by_ids).
func ReadByIDs(ctx context.Context, client platform.Client, chatID string, messageIDs []int) ([]ReadResult, error) {
	requestID := uuid.NewString()
	if len(messageIDs) == 0 {
		return nil, toolerr.Validation("read_messages", requestID,
			"message_ids must be a non-empty list of integers", map[string]any{"chat_id": chatID})
	}

	chat := entity.Resolve(ctx, client, chatID)
	if chat == nil {
		return nil, toolerr.NotFound("read_messages", requestID,
			fmt.Sprintf("cannot find any entity corresponding to %q", chatID), map[string]any{"chat_id": chatID})
	}

	fetched, err := client.GetMessagesByID(ctx, chat, messageIDs)
	if err != nil {
		return nil, toolerr.Internal("read_messages", requestID, err, map[string]any{"chat_id": chatID})
	}

	linkRes := links.Generate(ctx, client, links.Params{ChatID: entity.Identifier(chat), MessageIDs: messageIDs})
	idToLink := make(map[int]string, len(messageIDs))
	for i, id := range messageIDs {
		if i < len(linkRes.MessageLinks) {
			idToLink[id] = linkRes.MessageLinks[i]
		}
	}

	chatDict := entity.BuildDict(chat)
	results := make([]ReadResult, 0, len(messageIDs))
	for i, requestedID := range messageIDs {
		var msg *platform.Message
		if i < len(fetched) && fetched[i] != nil && fetched[i].ID == requestedID {
			msg = fetched[i]
		} else {
			for _, m := range fetched {
				if m != nil && m.ID == requestedID {
					msg = m
					break
				}
			}
		}

		if msg == nil {
			results = append(results, ReadResult{ID: requestedID, Chat: chatDict, Error: "Message not found or inaccessible"})
			continue
		}

		results = append(results, ReadResult{
			ID:     msg.ID,
			ChatID: msg.ChatID,
			Text:   msg.Text,
			Link:   idToLink[msg.ID],
			Chat:   chatDict,
		})
	}

	return results, nil
}
