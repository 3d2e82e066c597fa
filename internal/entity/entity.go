// Package entity resolves and normalises Telegram-style entity
// identifiers, ported from original_source/src/utils/entity.py
// (get_entity_by_id, build_entity_dict).
package entity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leshchenko1979/telegram-mcp-go/internal/platform"
)

// Resolve looks up an entity by its string identifier (a numeric ID, an
// @username, or an invite-style reference), logging a warning and
// returning a nil entity rather than an error on failure — same
// swallow-and-log behavior as get_entity_by_id in the original.
func Resolve(ctx context.Context, client platform.Client, identifier string) *platform.Entity {
	if identifier == "" {
		slog.Warn("entity.resolve.empty_id")
		return nil
	}
	ent, err := client.ResolveEntity(ctx, identifier)
	if err != nil {
		slog.Warn("entity.resolve.failed", "identifier", identifier, "error", err)
		return nil
	}
	return ent
}

// Dict is the JSON-facing normalised form of an Entity (build_entity_dict).
type Dict struct {
	ID        int64  `json:"id"`
	Title     string `json:"title,omitempty"`
	Type      string `json:"type,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// BuildDict normalises a platform.Entity into its wire representation. A
// nil entity yields a nil *Dict, matching the original's None passthrough.
func BuildDict(e *platform.Entity) *Dict {
	if e == nil {
		return nil
	}
	return &Dict{
		ID:        e.ID,
		Title:     e.Title,
		Type:      string(e.Kind),
		Username:  e.Username,
		FirstName: e.FirstName,
		LastName:  e.LastName,
	}
}

// Identifier returns the canonical search/link identifier for an entity:
// its @username when the entity has a public one, else its numeric ID
// formatted as a decimal string — matching the original's
// compute_entity_identifier, which prefers username over ID ahead of
// generate_telegram_links calls.
func Identifier(e *platform.Entity) string {
	if e == nil {
		return ""
	}
	if e.Username != "" {
		return "@" + strings.TrimPrefix(e.Username, "@")
	}
	return fmt.Sprintf("%d", e.ID)
}
