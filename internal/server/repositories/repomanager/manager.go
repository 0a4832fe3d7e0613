// Package repomanager owns the lifecycle of the credential store: it opens
// the configured backend, applies migrations and closes it at shutdown.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/usergate/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Open returns the in-memory manager when dsn is empty and a Postgres one
// otherwise. The Postgres connection is pinged before returning.
func Open(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewMemoryRepositoryManager(), nil
	}

	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgresRepositoryManager(db), nil
}

// MemoryRepositoryManager vends a process-local store. Migrations are a
// no-op and Close keeps the data.
type MemoryRepositoryManager struct {
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Ping(context.Context) error { return nil }

func (m *MemoryRepositoryManager) Close() error { return nil }
