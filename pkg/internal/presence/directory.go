// Package presence is the shared directory of which user is connected to
// which server process and socket. It is externalized (Redis) so that any
// process can answer online/offline questions, not only the one holding the
// socket; entries carry a TTL so connections lost to a crashed process are
// reclaimed without an explicit disconnect.
package presence

import (
	"context"
	"time"
)

// Record describes one live socket of a user.
type Record struct {
	UserID    uint      `json:"user_id"`
	SocketID  string    `json:"socket_id"`
	ProcessID string    `json:"process_id"`
	LastSeen  time.Time `json:"last_seen"`
}

type Directory interface {
	// Put registers (or refreshes) a socket for a user. Last writer wins
	// per key, so a reconnect racing a stale disconnect settles on the
	// newest record.
	Put(ctx context.Context, userId uint, socketId string) error
	// Remove drops one socket. Removing an absent key is a no-op.
	Remove(ctx context.Context, userId uint, socketId string) error
	// Get returns every live socket record for the user, empty when the
	// user is offline.
	Get(ctx context.Context, userId uint) ([]Record, error)
	ListOnline(ctx context.Context) ([]uint, error)
	// Touch refreshes the TTL of one socket.
	Touch(ctx context.Context, userId uint, socketId string) error
	// Sweep reclaims entries whose TTL lapsed without an explicit Remove.
	Sweep(ctx context.Context) error
	// ClearProcess bulk-drops every socket this process registered, for
	// graceful shutdown.
	ClearProcess(ctx context.Context) error
}
