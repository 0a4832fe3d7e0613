// Package tokenstore keeps the client's token pair and cached user between
// requests, in memory or in a local SQLite file.
package tokenstore

import (
	"context"

	"github.com/dmitrijs2005/usergate/internal/client/models"
)

// Store holds at most one session. Load returns nil when the store is
// empty. Save replaces the whole session at once; a concurrent Load sees
// either the old or the new value, never a mix.
type Store interface {
	Load(ctx context.Context) (*models.StoredSession, error)
	Save(ctx context.Context, s models.StoredSession) error
	Clear(ctx context.Context) error
	Close() error
}
