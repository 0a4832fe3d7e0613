// Package services contains the server-side business logic: account
// authentication and the user directory.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/users"
)

// Session is what login and refresh return: a fresh token pair and the
// identity it was minted for.
type Session struct {
	auth.TokenPair
	User models.PublicUser `json:"user"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// AuthService covers registration, login, token refresh and password
// changes.
type AuthService struct {
	users     users.Repository
	tokens    *auth.TokenManager
	hasher    auth.PasswordHasher
	logger    logging.Logger
	dummyHash string
	now       func() time.Time
}

// NewAuthService needs the hasher up front: it precomputes the hash that is
// compared against on unknown emails so both login failure paths cost the
// same.
func NewAuthService(rm repomanager.RepositoryManager, tokens *auth.TokenManager, hasher auth.PasswordHasher, logger logging.Logger) (*AuthService, error) {
	seed, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	dummy, err := hasher.Hash(seed)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &AuthService{
		users:     rm.Users(),
		tokens:    tokens,
		hasher:    hasher,
		logger:    logger.With("module", "auth"),
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	v := common.NewValidationError()
	checkEmail(v, in.Email)
	checkPassword(v, "password", in.Password)
	checkName(v, in.Name)
	if err := v.OrNil(); err != nil {
		return models.PublicUser{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}

	now := s.now().UTC()
	u, err := s.users.Create(ctx, &models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		Role:         models.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("register: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u.Public(), nil
}

// Login verifies the credentials and mints a token pair. Unknown email and
// wrong password both return common.ErrorUnauthorized.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	v := common.NewValidationError()
	if strings.TrimSpace(email) == "" {
		v.Add("email", "is required")
	}
	if password == "" {
		v.Add("password", "is required")
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			s.logger.Warn(ctx, "login failed", "reason", "unknown_email")
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	ok, err := s.hasher.Verify(password, u.PasswordHash)
	if err != nil {
		s.logger.Error(ctx, "stored password hash unreadable", "user_id", u.ID, "error", err)
		return nil, common.ErrorUnauthorized
	}
	if !ok {
		s.logger.Warn(ctx, "login failed", "reason", "bad_password", "user_id", u.ID)
		return nil, common.ErrorUnauthorized
	}

	return s.session(u)
}

func (s *AuthService) session(u *models.User) (*Session, error) {
	pair, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, fmt.Errorf("%w: issue tokens: %v", common.ErrorInternal, err)
	}
	return &Session{TokenPair: pair, User: u.Public()}, nil
}

// Me returns the identity behind userID. A token whose subject no longer
// exists is reported as NotFound.
func (s *AuthService) Me(ctx context.Context, userID string) (models.PublicUser, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("me: %w", err)
	}
	return u.Public(), nil
}

// Refresh exchanges a valid refresh token for a new pair. The token must be
// a signed, unexpired refresh token and its subject must still exist; the
// new pair carries the subject's current role.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		v := common.NewValidationError()
		v.Add("refreshToken", "is required")
		return nil, v
	}

	claims, err := s.tokens.Verify(refreshToken, auth.KindRefresh)
	if err != nil {
		s.logger.Warn(ctx, "refresh rejected", "reason", auth.Reason(err))
		return nil, common.ErrorUnauthorized
	}

	u, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "refresh rejected", "reason", "unknown_subject")
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: find user: %v", common.ErrorInternal, err)
	}

	return s.session(u)
}

// Logout only acknowledges: tokens are stateless and stay valid until they
// expire. Clients drop them locally.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	v := common.NewValidationError()
	if current == "" {
		v.Add("currentPassword", "is required")
	}
	checkPassword(v, "newPassword", next)
	if err := v.OrNil(); err != nil {
		return err
	}

	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	ok, err := s.hasher.Verify(current, u.PasswordHash)
	if err != nil || !ok {
		v.Add("currentPassword", "is incorrect")
		return v
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
	}
	if _, err := s.users.Update(ctx, userID, models.UserPatch{PasswordHash: &hash}); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// SeedAccount is a bootstrap identity created at startup when absent.
type SeedAccount struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// DefaultSeedAccounts are the demo accounts every front end documents.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@example.com", Password: "admin123", Name: "Admin User", Role: models.RoleAdmin},
		{Email: "user@example.com", Password: "user123", Name: "Regular User", Role: models.RoleUser},
	}
}

// Seed creates every account in list whose email is not taken yet. It is
// safe to run on every start.
func (s *AuthService) Seed(ctx context.Context, list []SeedAccount) error {
	for _, a := range list {
		_, err := s.users.FindByEmail(ctx, a.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}

		hash, err := s.hasher.Hash(a.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		now := s.now().UTC()
		_, err = s.users.Create(ctx, &models.User{
			Email: a.Email, Name: a.Name, Role: a.Role, PasswordHash: hash, CreatedAt: now, UpdatedAt: now,
		})
		if err != nil && !errors.Is(err, common.ErrorConflict) {
			return fmt.Errorf("seed %s: %w", a.Email, err)
		}
		s.logger.Info(ctx, "seeded account", "email", a.Email, "role", a.Role)
	}
	return nil
}
