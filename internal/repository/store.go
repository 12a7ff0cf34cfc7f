package repository

import (
	"context"
	"errors"

	"gate-access-service/internal/domain/access"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence boundary for the access log and the whitelist.
//
// Append must serialize concurrent writers: ids come out strictly increasing
// and gap-free, and no event is silently dropped. ListRecent returns events
// most-recent-first (descending id). Whitelist reads reflect the state at
// call time.
type Store interface {
	Append(ctx context.Context, event *access.AccessEvent) error
	ListRecent(ctx context.Context, limit, offset int) ([]access.AccessEvent, error)

	UpsertWhitelist(ctx context.Context, entry access.WhitelistEntry) error
	DeleteWhitelist(ctx context.Context, plate string) error
	ListWhitelist(ctx context.Context) ([]access.WhitelistEntry, error)
	GetWhitelistEntry(ctx context.Context, plate string) (*access.WhitelistEntry, error)
}
