package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

func cheapHasher() *auth.Argon2Hasher {
	return auth.NewArgon2Hasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})
}

func newTokens(t *testing.T) *auth.TokenManager {
	t.Helper()
	tm, err := auth.NewTokenManager("test-secret", "usergate", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return tm
}

type fixture struct {
	rm     repomanager.RepositoryManager
	tokens *auth.TokenManager
	auth   *AuthService
	users  *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rm := repomanager.NewMemoryRepositoryManager()
	tokens := newTokens(t)
	hasher := cheapHasher()

	as, err := NewAuthService(rm, tokens, hasher, logging.NewNop())
	require.NoError(t, err)

	return &fixture{
		rm:     rm,
		tokens: tokens,
		auth:   as,
		users:  NewUserService(rm, hasher, logging.NewNop()),
	}
}

var errDB = errors.New("db down")

// brokenRepo fails every call with errDB.
type brokenRepo struct{}

func (brokenRepo) FindByEmail(context.Context, string) (*models.User, error) { return nil, errDB }
func (brokenRepo) FindByID(context.Context, string) (*models.User, error) { return nil, errDB }
func (brokenRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, errDB
}
func (brokenRepo) ListPage(context.Context, int, int, string) ([]*models.User, int, error) {
	return nil, 0, errDB
}
func (brokenRepo) Update(context.Context, string, models.UserPatch) (*models.User, error) {
	return nil, errDB
}
func (brokenRepo) Delete(context.Context, string) error { return errDB }
func (brokenRepo) All(context.Context) ([]*models.User, error) { return nil, errDB }

type brokenManager struct{}

func (brokenManager) Users() users.Repository { return brokenRepo{} }
func (brokenManager) RunMigrations(context.Context) error { return nil }
func (brokenManager) Ping(context.Context) error { return errDB }
func (brokenManager) Close() error { return nil }
