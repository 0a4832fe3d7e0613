package tokenstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/usergate/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(n int) models.StoredSession {
	return models.StoredSession{
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		User:         models.User{ID: fmt.Sprintf("u-%d", n), Email: "a@example.com", Role: "user"},
	}
}

func runStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got, "fresh store is empty")

	require.NoError(t, s.Save(ctx, sample(1)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sample(1), *got)

	require.NoError(t, s.Save(ctx, sample(2)))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(2), *got, "save replaces")

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx), "clear is idempotent")
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// runConsistency checks that concurrent readers never observe an access
// token paired with another save's refresh token.
func runConsistency(t *testing.T, s Store) {
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				n := w*100 + i
				if i%5 == 4 {
					assert.NoError(t, s.Clear(ctx))
					continue
				}
				assert.NoError(t, s.Save(ctx, sample(n)))
			}
		}(w)
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				got, err := s.Load(ctx)
				if !assert.NoError(t, err) || got == nil {
					continue
				}
				var a, b int
				_, _ = fmt.Sscanf(got.AccessToken, "access-%d", &a)
				_, _ = fmt.Sscanf(got.RefreshToken, "refresh-%d", &b)
				assert.Equal(t, a, b)
			}
		}()
	}
	wg.Wait()
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
	runConsistency(t, NewMemoryStore())
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save(context.Background(), sample(1)))

	got, _ := s.Load(context.Background())
	got.AccessToken = "mutated"

	again, _ := s.Load(context.Background())
	assert.Equal(t, "access-1", again.AccessToken)
}

func openTemp(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestSQLiteStore(t *testing.T) {
	s, _ := openTemp(t)
	runStoreContract(t, s)
	runConsistency(t, s)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.Save(context.Background(), sample(7)))
	require.NoError(t, s.Close())

	again, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	defer again.Close()

	got, err := again.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sample(7), *got)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(context.Background(), db))
	require.NoError(t, RunMigrations(context.Background(), db))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='session'`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(context.Background(), filepath.Join(t.TempDir(), "nested", "dir", "x.db"))
	require.NoError(t, err)
	defer s.Close()
	assert.IsType(t, &SQLiteStore{}, s)
}
