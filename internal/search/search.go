// Package search implements the multi-term search orchestrator (spec.md
// §4.3): comma-separated query fan-out, dedup/merge, chat-type filtering
// with auto-expanding batches, and pagination. Ported line-for-line in
// algorithm from original_source/src/tools/search.py
// (_append_dedup_until_limit, _matches_chat_type, _process_message_for_results,
// _execute_parallel_searches, _search_chat_messages, _search_global_messages).
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/leshchenko1979/telegram-mcp-go/internal/entity"
	"github.com/leshchenko1979/telegram-mcp-go/internal/links"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

var tracer = otel.Tracer("telegram-mcp-go/search")

// ChatType filters results by entity kind (spec.md §4.3).
type ChatType string

const (
	ChatTypeNone    ChatType = ""
	ChatTypePrivate ChatType = "private"
	ChatTypeGroup   ChatType = "group"
	ChatTypeChannel ChatType = "channel"
)

// Request mirrors search_messages' parameters in the original.
type Request struct {
	Query              string
	ChatID             string
	Limit              int
	MinDate            *time.Time
	MaxDate            *time.Time
	Offset             int
	ChatType           ChatType
	AutoExpandBatches  int
	IncludeTotalCount  bool
}

// Result is the response shape: messages / has_more / optional total_count.
type Result struct {
	Messages   []MessageResult `json:"messages"`
	HasMore    bool            `json:"has_more"`
	TotalCount *int            `json:"total_count,omitempty"`
}

// MessageResult is one search hit, built from build_message_result in the
// original — it carries the message plus its resolved chat and deep link.
type MessageResult struct {
	ID     int            `json:"id"`
	ChatID int64          `json:"chat_id"`
	Text   string         `json:"text"`
	Date   time.Time      `json:"date"`
	Link   string          `json:"link,omitempty"`
	Chat   *entity.Dict   `json:"chat,omitempty"`
}

func dedupKey(chatID int64, msgID int) string {
	return fmt.Sprintf("%d:%d", chatID, msgID)
}

func splitQueries(query string) []string {
	if query == "" {
		return nil
	}
	parts := strings.Split(query, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func hasContent(m *platform.Message) bool {
	return strings.TrimSpace(m.Text) != "" || m.Media != ""
}

func matchesChatType(ent *platform.Entity, ct ChatType) bool {
	if ct == ChatTypeNone {
		return true
	}
	if ent == nil {
		return false
	}
	switch ct {
	case ChatTypePrivate:
		return ent.Kind == platform.EntityUser
	case ChatTypeGroup:
		return ent.Kind == platform.EntityGroup
	case ChatTypeChannel:
		return ent.Kind == platform.EntityChannel
	}
	return false
}

func buildResult(ctx context.Context, client platform.Client, m *platform.Message, chat *platform.Entity) MessageResult {
	linkRes := links.Generate(ctx, client, links.Params{
		ChatID:     entity.Identifier(chat),
		MessageIDs: []int{m.ID},
	})
	link := ""
	if len(linkRes.MessageLinks) > 0 {
		link = linkRes.MessageLinks[0]
	}
	return MessageResult{
		ID:     m.ID,
		ChatID: m.ChatID,
		Text:   m.Text,
		Date:   m.Date,
		Link:   link,
		Chat:   entity.BuildDict(chat),
	}
}

// appendDedupUntilLimit appends msgs into collected (keyed on seen),
// stopping once targetTotal items have been collected — a direct port of
// _append_dedup_until_limit.
func appendDedupUntilLimit(collected []MessageResult, seen map[string]bool, msgs []MessageResult, targetTotal int) []MessageResult {
	for _, m := range msgs {
		k := dedupKey(m.ChatID, m.ID)
		if seen[k] {
			continue
		}
		seen[k] = true
		collected = append(collected, m)
		if len(collected) >= targetTotal {
			break
		}
	}
	return collected
}

// Search runs a multi-term search request and returns the paginated,
// deduplicated result set (search_messages).
func Search(ctx context.Context, client platform.Client, req Request) (*Result, error) {
	ctx, span := tracer.Start(ctx, "search.run")
	defer span.End()
	span.SetAttributes(attribute.String("chat_id", req.ChatID), attribute.Int("limit", req.Limit))

	queries := splitQueries(req.Query)
	if req.ChatID == "" && len(queries) == 0 {
		return nil, toolerr.Validation("search_messages", "", "search query must not be empty for global search", nil)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	collected := make([]MessageResult, 0, limit)
	seen := make(map[string]bool)
	var totalCount *int

	if req.ChatID != "" {
		chat := entity.Resolve(ctx, client, req.ChatID)
		if chat == nil {
			return nil, toolerr.NotFound("search_messages", "", fmt.Sprintf("could not find chat with ID %q", req.ChatID), nil)
		}

		perChatQueries := queries
		if len(perChatQueries) == 0 {
			perChatQueries = []string{""}
		}

		partials, err := fanOut(ctx, perChatQueries, func(ctx context.Context, q string) ([]MessageResult, error) {
			return searchChatMessages(ctx, client, chat, q, limit, req.ChatType, req.AutoExpandBatches)
		})
		if err != nil {
			return nil, err
		}
		for _, partial := range partials {
			collected = appendDedupUntilLimit(collected, seen, partial, req.Offset+limit)
			if len(collected) >= req.Offset+limit {
				break
			}
		}

		if req.IncludeTotalCount {
			if counters, err := client.GetSearchCounters(ctx, chat); err == nil {
				totalCount = &counters.Total
			} else {
				slog.Warn("search.total_count.failed", "chat_id", req.ChatID, "error", err)
			}
		}
	} else {
		nonEmpty := make([]string, 0, len(queries))
		for _, q := range queries {
			if strings.TrimSpace(q) != "" {
				nonEmpty = append(nonEmpty, q)
			}
		}
		partials, err := fanOut(ctx, nonEmpty, func(ctx context.Context, q string) ([]MessageResult, error) {
			return searchGlobalMessages(ctx, client, q, limit, req.MinDate, req.MaxDate, req.ChatType, req.AutoExpandBatches)
		})
		if err != nil {
			return nil, err
		}
		for _, partial := range partials {
			collected = appendDedupUntilLimit(collected, seen, partial, req.Offset+limit)
			if len(collected) >= req.Offset+limit {
				break
			}
		}
	}

	start := req.Offset
	if start > len(collected) {
		start = len(collected)
	}
	end := start + limit
	if end > len(collected) {
		end = len(collected)
	}
	window := collected[start:end]

	hasMore := len(collected) > req.Offset+len(window)

	return &Result{Messages: window, HasMore: hasMore, TotalCount: totalCount}, nil
}

// fanOut runs fn concurrently for each query term and collects the
// results in the same order as queries, grounded on
// _execute_parallel_searches (asyncio.gather) using errgroup for the Go
// equivalent of structured concurrent fan-out.
func fanOut(ctx context.Context, queries []string, fn func(context.Context, string) ([]MessageResult, error)) ([][]MessageResult, error) {
	results := make([][]MessageResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		g.Go(func() error {
			r, err := fn(gctx, q)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// searchChatMessages ports _search_chat_messages: batch size is 2*limit,
// max_batches is 1+auto_expand_batches when a chat_type filter is set
// else 1, and the offset_id cursor advances to the last message id of
// each batch.
func searchChatMessages(ctx context.Context, client platform.Client, chat *platform.Entity, query string, limit int, chatType ChatType, autoExpandBatches int) ([]MessageResult, error) {
	maxBatches := 1
	if chatType != ChatTypeNone {
		maxBatches = 1 + autoExpandBatches
	}

	var results []MessageResult
	offsetID := 0
	for batch := 0; batch < maxBatches && len(results) < limit; batch++ {
		msgs, err := client.IterMessages(ctx, chat, query, offsetID, limit*2)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			if !hasContent(m) {
				continue
			}
			if !matchesChatType(chat, chatType) {
				continue
			}
			results = append(results, buildResult(ctx, client, m, chat))
			if len(results) >= limit {
				break
			}
		}
		offsetID = msgs[len(msgs)-1].ID
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// searchGlobalMessages ports _search_global_messages.
func searchGlobalMessages(ctx context.Context, client platform.Client, query string, limit int, minDate, maxDate *time.Time, chatType ChatType, autoExpandBatches int) ([]MessageResult, error) {
	maxBatches := 1
	if chatType != ChatTypeNone {
		maxBatches = 1 + autoExpandBatches
	}

	var results []MessageResult
	offsetID := 0
	for batch := 0; batch < maxBatches && len(results) < limit; batch++ {
		msgs, err := client.SearchGlobal(ctx, query, minDate, maxDate, offsetID, limit*2)
		if err != nil {
			return nil, err
		}
		if len(msgs) == 0 {
			break
		}
		for _, m := range msgs {
			chat, err := client.EntityForMessage(ctx, m)
			if err != nil || chat == nil {
				slog.Warn("search.global.entity_resolve_failed", "error", err)
				continue
			}
			if !hasContent(m) {
				continue
			}
			if !matchesChatType(chat, chatType) {
				continue
			}
			results = append(results, buildResult(ctx, client, m, chat))
			if len(results) >= limit {
				break
			}
		}
		offsetID = msgs[len(msgs)-1].ID
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
