package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/dbx"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = `id, email, name, role, password_hash, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DB
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db dbx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return u, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return common.ErrorConflict
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) findOne(ctx context.Context, db dbx.DBTX, query string, arg any) (*models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	return r.findOne(ctx, r.db, query, models.NormalizeEmail(email))
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.findOne(ctx, r.db, query, id)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	u := user.Clone()
	u.Email = models.NormalizeEmail(u.Email)
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	query :=
		`INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, string(u.Role), u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return nil, mapWriteErr(err)
	}

	return u, nil
}

func (r *PostgresRepository) ListPage(ctx context.Context, page, pageSize int, search string) ([]*models.User, int, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, 0, err
	}

	where := ""
	args := []any{}
	if s := strings.TrimSpace(search); s != "" {
		where = ` WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, dbx.ContainsPattern(s))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}

	offset, ok := pageOffset(page, pageSize, total)
	if !ok {
		return []*models.User{}, total, nil
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at, id LIMIT $%d OFFSET $%d`,
		userColumns, where, n+1, n+2)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list, err := scanAll(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func scanAll(rows *sql.Rows) ([]*models.User, error) {
	out := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	var updated *models.User

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		cur, err := r.findOne(ctx, tx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}

		patch.Apply(cur, time.Now().UTC())

		query :=
			`UPDATE users SET email = $2, name = $3, role = $4, password_hash = $5, updated_at = $6
			 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query,
			cur.ID, cur.Email, cur.Name, string(cur.Role), cur.PasswordHash, cur.UpdatedAt); err != nil {
			return mapWriteErr(err)
		}

		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) All(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanAll(rows)
}
