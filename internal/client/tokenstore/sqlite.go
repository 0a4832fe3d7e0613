package tokenstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/usergate/internal/client/migrations"
	"github.com/dmitrijs2005/usergate/internal/client/models"
	"github.com/dmitrijs2005/usergate/internal/dbx"
	"github.com/dmitrijs2005/usergate/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session in a single-row table so it survives CLI
// restarts.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// OpenSQLite opens (creating if needed) the store at dsn and migrates it.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection keeps an in-memory DSN on a single database.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("token store migrations: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.StoredSession, error) {
	var (
		out      models.StoredSession
		userJSON []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token, user_json FROM session WHERE id = 1`,
	).Scan(&out.AccessToken, &out.RefreshToken, &userJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if err := json.Unmarshal(userJSON, &out.User); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &out, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess models.StoredSession) error {
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("failed to encode cached user: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM session`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO session (id, access_token, refresh_token, user_json, saved_at) VALUES (1, ?, ?, ?, ?)`,
			sess.AccessToken, sess.RefreshToken, userJSON, s.now().UTC(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM session`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Open returns a SQLite store for a non-empty path and a memory store
// otherwise.
func Open(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(), nil
	}
	if _, err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	return OpenSQLite(ctx, path)
}
