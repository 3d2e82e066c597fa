package mcpserver

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leshchenko1979/telegram-mcp-go/internal/contacts"
	"github.com/leshchenko1979/telegram-mcp-go/internal/links"
	"github.com/leshchenko1979/telegram-mcp-go/internal/messages"
	"github.com/leshchenko1979/telegram-mcp-go/internal/rpcbridge"
	"github.com/leshchenko1979/telegram-mcp-go/internal/search"
	"github.com/leshchenko1979/telegram-mcp-go/internal/session"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

// markFailedOnUpstreamError quarantines handle's session (spec.md §4.1's
// mark_failed) when err classifies as Unavailable or Unauthorized — the
// two platform-call failure kinds that mean the underlying connection,
// not just this one request, is no longer usable.
func markFailedOnUpstreamError(handle *session.Handle, err error) {
	var te *toolerr.Error
	if errors.As(err, &te) && (te.Kind == toolerr.KindUnavailable || te.Kind == toolerr.KindUnauthorized) {
		handle.MarkFailed(err)
	}
}

// markFailedOnRecordKind is markFailedOnUpstreamError's counterpart for
// contacts' in-band toolerr.Record convention, which carries Kind
// alongside the record instead of as a returned error.
func markFailedOnRecordKind(handle *session.Handle, rec *toolerr.Record) {
	if rec.Kind == toolerr.KindUnavailable || rec.Kind == toolerr.KindUnauthorized {
		handle.MarkFailed(errors.New(rec.Error))
	}
}

// registerTools adds the seven tools from spec.md §4 to the MCP server.
// Each handler acquires a session for the request's bearer token, performs
// its domain operation, and releases the session before returning — no
// handler retains a PlatformClient past its own call (spec.md §2 Ownership).
func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("search_messages",
			mcp.WithDescription("Search messages by comma-separated terms, in one chat or globally"),
			mcp.WithString("query", mcp.Description("Comma-separated search terms; may be empty only when chat_id is set")),
			mcp.WithString("chat_id", mcp.Description("Chat to search within; omit for a global search")),
			mcp.WithNumber("limit", mcp.Description("Max results to return"), mcp.DefaultNumber(20)),
			mcp.WithNumber("offset", mcp.Description("Pagination offset"), mcp.DefaultNumber(0)),
			mcp.WithString("chat_type", mcp.Description("Filter: private, group, or channel")),
			mcp.WithNumber("auto_expand_batches", mcp.Description("Extra batches to fetch when chat_type filters out most hits")),
			mcp.WithBoolean("include_total_count", mcp.Description("Also report the chat's total server-side message count")),
			mcp.WithString("min_date", mcp.Description("RFC3339 lower bound, global search only")),
			mcp.WithString("max_date", mcp.Description("RFC3339 upper bound, global search only")),
		),
		s.wrap("search_messages", s.handleSearchMessages),
	)

	s.mcp.AddTool(
		mcp.NewTool("send_or_edit_message",
			mcp.WithDescription("Send a new message, or edit an existing one when message_id is given"),
			mcp.WithString("chat_id", mcp.Required(), mcp.Description("Destination chat")),
			mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
			mcp.WithNumber("message_id", mcp.Description("Set to edit this message instead of sending a new one")),
			mcp.WithNumber("reply_to_message_id", mcp.Description("Reply target for a new message")),
			mcp.WithString("parse_mode", mcp.Description("\"\", \"markdown\", or \"html\"")),
		),
		s.wrap("send_or_edit_message", s.handleSendOrEditMessage),
	)

	s.mcp.AddTool(
		mcp.NewTool("read_messages",
			mcp.WithDescription("Fetch specific messages from a chat by ID"),
			mcp.WithString("chat_id", mcp.Required()),
			mcp.WithArray("message_ids", mcp.Required(), mcp.Description("Non-empty list of message IDs")),
		),
		s.wrap("read_messages", s.handleReadMessages),
	)

	s.mcp.AddTool(
		mcp.NewTool("generate_links",
			mcp.WithDescription("Build t.me deep links for a chat and, optionally, specific messages"),
			mcp.WithString("chat_id", mcp.Description("Resolvable chat identifier")),
			mcp.WithString("username", mcp.Description("Fallback when chat_id alone does not resolve")),
			mcp.WithArray("message_ids", mcp.Description("Messages to build per-message links for")),
			mcp.WithNumber("thread_id", mcp.Description("Forum topic / thread id")),
			mcp.WithNumber("comment_id", mcp.Description("Discussion comment id")),
			mcp.WithNumber("media_timestamp", mcp.Description("Seconds offset into a video/audio message")),
		),
		s.wrap("generate_links", s.handleGenerateLinks),
	)

	s.mcp.AddTool(
		mcp.NewTool("search_contacts",
			mcp.WithDescription("Search the account's contacts by name or username"),
			mcp.WithString("query", mcp.Required()),
			mcp.WithNumber("limit", mcp.DefaultNumber(20)),
		),
		s.wrap("search_contacts", s.handleSearchContacts),
	)

	s.mcp.AddTool(
		mcp.NewTool("get_contact_details",
			mcp.WithDescription("Fetch full profile details for one contact"),
			mcp.WithString("chat_id", mcp.Required()),
		),
		s.wrap("get_contact_details", s.handleGetContactDetails),
	)

	s.mcp.AddTool(
		mcp.NewTool("invoke_mtproto",
			mcp.WithDescription("Invoke a raw platform RPC method by registered name, e.g. \"messages.GetHistory\""),
			mcp.WithString("method_full_name", mcp.Required()),
			mcp.WithObject("params", mcp.Description("Named parameters for the method")),
		),
		s.wrap("invoke_mtproto", s.handleInvokeMTProto),
	)
}

func argString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func argBool(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func argIntSlice(args map[string]any, key string) []int {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(raw))
	for _, v := range raw {
		switch n := v.(type) {
		case float64:
			out = append(out, int(n))
		case int:
			out = append(out, n)
		}
	}
	return out
}

func argDate(args map[string]any, key string) *time.Time {
	s := argString(args, key)
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func (s *Server) handleSearchMessages(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "search_messages", "", err.Error(), nil)
	}
	defer handle.Release()

	limit := argInt(args, "limit", s.cfg.Search.DefaultLimit)
	autoExpand := argInt(args, "auto_expand_batches", s.cfg.Search.DefaultAutoExpandBatches)

	req := search.Request{
		Query:             argString(args, "query"),
		ChatID:            argString(args, "chat_id"),
		Limit:             limit,
		Offset:            argInt(args, "offset", 0),
		ChatType:          search.ChatType(argString(args, "chat_type")),
		AutoExpandBatches: autoExpand,
		IncludeTotalCount: argBool(args, "include_total_count"),
		MinDate:           argDate(args, "min_date"),
		MaxDate:           argDate(args, "max_date"),
	}
	result, err := search.Search(ctx, handle.Client, req)
	markFailedOnUpstreamError(handle, err)
	return result, err
}

func (s *Server) handleSendOrEditMessage(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "send_or_edit_message", "", err.Error(), nil)
	}
	defer handle.Release()

	chatID := argString(args, "chat_id")
	text := argString(args, "text")
	parseMode := argString(args, "parse_mode")

	if messageID := argInt(args, "message_id", 0); messageID != 0 {
		result, err := messages.Edit(ctx, handle.Client, chatID, messageID, text, parseMode)
		markFailedOnUpstreamError(handle, err)
		return result, err
	}
	replyTo := argInt(args, "reply_to_message_id", 0)
	result, err := messages.Send(ctx, handle.Client, chatID, text, replyTo, parseMode)
	markFailedOnUpstreamError(handle, err)
	return result, err
}

func (s *Server) handleReadMessages(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "read_messages", "", err.Error(), nil)
	}
	defer handle.Release()

	chatID := argString(args, "chat_id")
	ids := argIntSlice(args, "message_ids")
	result, err := messages.ReadByIDs(ctx, handle.Client, chatID, ids)
	markFailedOnUpstreamError(handle, err)
	return result, err
}

func (s *Server) handleGenerateLinks(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "generate_links", "", err.Error(), nil)
	}
	defer handle.Release()

	p := links.Params{
		ChatID:         argString(args, "chat_id"),
		Username:       argString(args, "username"),
		MessageIDs:     argIntSlice(args, "message_ids"),
		ThreadID:       argInt(args, "thread_id", 0),
		CommentID:      argInt(args, "comment_id", 0),
		MediaTimestamp: argInt(args, "media_timestamp", 0),
	}
	return links.Generate(ctx, handle.Client, p), nil
}

func (s *Server) handleSearchContacts(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "search_contacts", "", err.Error(), nil)
	}
	defer handle.Release()

	query := argString(args, "query")
	limit := argInt(args, "limit", 20)
	matches, rec := contacts.Search(ctx, handle.Client, query, limit)
	if rec != nil {
		markFailedOnRecordKind(handle, rec)
		return *rec, nil
	}
	return matches, nil
}

func (s *Server) handleGetContactDetails(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "get_contact_details", "", err.Error(), nil)
	}
	defer handle.Release()

	chatID := argString(args, "chat_id")
	info, rec := contacts.Details(ctx, handle.Client, chatID)
	if rec != nil {
		markFailedOnRecordKind(handle, rec)
		return *rec, nil
	}
	return info, nil
}

func (s *Server) handleInvokeMTProto(ctx context.Context, token string, args map[string]any) (any, error) {
	handle, err := s.sessions.Acquire(ctx, token)
	if err != nil {
		return nil, toolerr.New(toolerr.KindUnavailable, "invoke_mtproto", "", err.Error(), nil)
	}
	defer handle.Release()

	methodName := argString(args, "method_full_name")
	if methodName == "" {
		return nil, toolerr.Validation("invoke_mtproto", "", "method_full_name is required", nil)
	}
	params, _ := args["params"].(map[string]any)

	result, err := rpcbridge.Invoke(ctx, s.registry, handle.Client, methodName, params)
	if err != nil {
		return nil, err
	}
	return result, nil
}
