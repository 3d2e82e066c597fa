// Package platform declares the capability this server is built against:
// an MTProto-style Telegram user-client connection. It is deliberately an
// interface only — spec.md §2 treats PlatformClient as an assumed external
// component, the same role Telethon plays for the Python original this
// server is modeled on (see original_source/). Nothing in this repo
// implements Client; production wiring supplies a concrete adapter.
package platform

import (
	"context"
	"time"
)

// MediaKind enumerates the content kinds the search orchestrator and
// message reader recognise, ported from the closed list in
// original_source/src/tools/search.py's _has_any_media.
type MediaKind string

const (
	MediaPhoto       MediaKind = "photo"
	MediaDocument    MediaKind = "document"
	MediaAudio       MediaKind = "audio"
	MediaVoice       MediaKind = "voice"
	MediaVideo       MediaKind = "video"
	MediaWebpage     MediaKind = "webpage"
	MediaGeo         MediaKind = "geo"
	MediaContact     MediaKind = "contact"
	MediaPoll        MediaKind = "poll"
	MediaDice        MediaKind = "dice"
	MediaVenue       MediaKind = "venue"
	MediaGame        MediaKind = "game"
	MediaInvoice     MediaKind = "invoice"
	MediaUnsupported MediaKind = "unsupported"
)

// EntityKind classifies a resolved chat/user entity (spec.md §3).
type EntityKind string

const (
	EntityUser    EntityKind = "user"
	EntityGroup   EntityKind = "group"
	EntityChannel EntityKind = "channel"
)

// Entity is a normalised chat/user/channel record (spec.md §3 Entity).
type Entity struct {
	ID         int64
	Kind       EntityKind
	Title      string
	Username   string
	FirstName  string
	LastName   string
	AccessHash int64
}

// Message is a normalised message record (spec.md §3 Message).
type Message struct {
	ID        int
	ChatID    int64
	Text      string
	Media     MediaKind
	Date      time.Time
	FromID    int64
	Link      string
	ReplyToID int
}

// SearchCounters reports server-side message totals for a chat, mirroring
// Telethon's GetSearchCountersRequest result used by
// original_source/src/tools/search.py's _get_chat_message_count.
type SearchCounters struct {
	Total int
}

// Client is the capability surface the tool handlers are written against.
// Every method is a single round trip to the platform; batching/pagination
// policy lives in the caller (internal/search, internal/messages), not here.
type Client interface {
	// ResolveEntity looks up a chat/user/channel by its opaque string
	// identifier (numeric ID, @username, or invite-style reference).
	ResolveEntity(ctx context.Context, identifier string) (*Entity, error)

	// IterMessages returns up to limit messages from a chat matching
	// query (may be empty), starting after offsetID, newest-first.
	IterMessages(ctx context.Context, chat *Entity, query string, offsetID, limit int) ([]*Message, error)

	// SearchGlobal performs a cross-chat search, Telethon's
	// SearchGlobalRequest equivalent (original_source/src/tools/search.py).
	SearchGlobal(ctx context.Context, query string, minDate, maxDate *time.Time, offsetID, limit int) ([]*Message, error)

	// EntityForMessage resolves the chat/user a global-search result
	// belongs to (Telethon exposes this as message.peer_id).
	EntityForMessage(ctx context.Context, m *Message) (*Entity, error)

	// GetSearchCounters returns the total message count for a chat.
	GetSearchCounters(ctx context.Context, chat *Entity) (*SearchCounters, error)

	// SendMessage posts a new message and returns it.
	SendMessage(ctx context.Context, chat *Entity, text, parseMode string, replyToID int) (*Message, error)

	// EditMessage edits an existing message and returns the updated copy.
	EditMessage(ctx context.Context, chat *Entity, messageID int, text, parseMode string) (*Message, error)

	// GetMessagesByID fetches messages by ID, preserving index alignment:
	// a nil entry at position i means the ID at that position could not be
	// read, mirroring original_source/src/tools/messages.py's
	// read_messages_by_ids index-then-id-fallback behavior.
	GetMessagesByID(ctx context.Context, chat *Entity, ids []int) ([]*Message, error)

	// SearchContacts looks up contacts by query string.
	SearchContacts(ctx context.Context, query string) ([]*Entity, error)

	// GetContact resolves a single contact's full details.
	GetContact(ctx context.Context, identifier string) (*Entity, error)

	// Invoke performs an arbitrary raw MTProto RPC call by constructing the
	// request object via the rpcbridge registry and returning the server's
	// response as an opaque value for the caller to re-marshal.
	Invoke(ctx context.Context, request any) (any, error)

	// Close releases the underlying connection.
	Close() error
}

// Dialer constructs a Client bound to one bearer token's credentials. The
// session manager (internal/session) is the only caller.
type Dialer interface {
	Dial(ctx context.Context, token string) (Client, error)
}
