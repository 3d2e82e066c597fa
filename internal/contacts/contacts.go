// Package contacts implements the contact resolver (spec.md §4.6), ported
// from original_source/src/tools/contacts.py (search_contacts_telegram,
// get_contact_info). Both operations return an in-band error Record on
// failure rather than a Go error — matching the original's convention of
// returning a one-item error list / error dict instead of raising, since
// "no contacts found" is an expected, recoverable outcome for a caller
// iterating over query variants.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/leshchenko1979/telegram-mcp-go/internal/entity"
	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
	"github.com/leshchenko1979/telegram-mcp-go/internal/toolerr"
)

// splitQueries splits query on commas and trims each term, dropping empty
// ones, matching search.splitQueries' convention (spec.md §4.6: "split on
// commas; one platform contact-search RPC per term in parallel").
func splitQueries(query string) []string {
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

// Match is one search_contacts_telegram hit.
type Match struct {
	ChatID    int64        `json:"chat_id"`
	Title     string       `json:"title"`
	Type      string       `json:"type"`
	Username  string       `json:"username,omitempty"`
	MatchType string       `json:"match_type"`
	Info      *entity.Dict `json:"info,omitempty"`
}

// Search splits query on commas and fans out one SearchContacts RPC per
// term in parallel, merge-deduping hits by entity id and truncating to
// limit (spec.md §4.6). On zero matches or failure it returns a single
// toolerr.Record describing why, matching the original's "return an error
// list instead of an empty list" convention.
func Search(ctx context.Context, client platform.Client, query string, limit int) ([]Match, *toolerr.Record) {
	if limit <= 0 {
		limit = 20
	}

	terms := splitQueries(query)
	if len(terms) == 0 {
		terms = []string{query}
	}

	g, gctx := errgroup.WithContext(ctx)
	partials := make([][]*platform.Entity, len(terms))
	for i, term := range terms {
		i, term := i, term
		g.Go(func() error {
			ents, err := client.SearchContacts(gctx, term)
			if err != nil {
				return err
			}
			partials[i] = ents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		slog.Error("contacts.search.failed", "query", query, "error", err)
		rec := toolerr.New(toolerr.KindUnavailable, "search_contacts", "",
			fmt.Sprintf("failed to search contacts: %v", err),
			map[string]any{"query": query, "limit": limit}).ToRecord()
		return nil, &rec
	}

	seen := make(map[int64]bool)
	matches := make([]Match, 0, limit)
	for _, ents := range partials {
		for _, e := range ents {
			if len(matches) >= limit {
				break
			}
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			matches = append(matches, Match{
				ChatID:    e.ID,
				Title:     e.Title,
				Type:      string(e.Kind),
				Username:  e.Username,
				MatchType: "telegram_search",
				Info:      entity.BuildDict(e),
			})
		}
	}

	if len(matches) == 0 {
		rec := toolerr.New(toolerr.KindNotFound, "search_contacts", "",
			fmt.Sprintf("no contacts found matching query %q", query),
			map[string]any{"query": query, "limit": limit}).ToRecord()
		return nil, &rec
	}

	return matches, nil
}

// Details gets detailed information about a specific contact
// (get_contact_info).
func Details(ctx context.Context, client platform.Client, chatID string) (*entity.Dict, *toolerr.Record) {
	ent, err := client.GetContact(ctx, chatID)
	if err != nil || ent == nil {
		msg := fmt.Sprintf("contact with ID %q not found", chatID)
		if err != nil {
			msg = fmt.Sprintf("failed to get contact info for %q: %v", chatID, err)
		}
		rec := toolerr.New(toolerr.KindNotFound, "get_contact_details", "", msg,
			map[string]any{"chat_id": chatID}).ToRecord()
		return nil, &rec
	}
	return entity.BuildDict(ent), nil
}
