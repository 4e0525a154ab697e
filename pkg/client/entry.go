package client

import "github.com/nebulachat/messaging/pkg/wire"

type EntryKind uint8

const (
	// EntryConfirmed carries an authoritative message from the server.
	EntryConfirmed = EntryKind(iota)
	// EntryPending is a client-only overlay: an optimistic message whose
	// identity is still the temporary client token.
	EntryPending
)

// Entry is one row of the visible message list. Merge logic dispatches on
// Kind only and never mutates a confirmed entry into a pending one.
type Entry struct {
	Kind    EntryKind
	TempID  string
	Message wire.Message
}
