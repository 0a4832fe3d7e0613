package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/auth"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/users"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Page is one slice of the directory listing.
type Page struct {
	Items      []models.PublicUser
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

type CreateUserInput struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

// UpdateUserInput is a partial update; nil fields are left as they are.
type UpdateUserInput struct {
	Email    *string      `json:"email"`
	Password *string      `json:"password"`
	Name     *string      `json:"name"`
	Role     *models.Role `json:"role"`
}

// UserService is the user directory: listing, CRUD, self-service profile
// updates and aggregate statistics.
type UserService struct {
	users  users.Repository
	hasher auth.PasswordHasher
	logger logging.Logger
	now    func() time.Time
}

func NewUserService(rm repomanager.RepositoryManager, hasher auth.PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		users:  rm.Users(),
		hasher: hasher,
		logger: logger.With("module", "users"),
		now:    time.Now,
	}
}

func (s *UserService) List(ctx context.Context, page, limit int, search string) (*Page, error) {
	list, total, err := s.users.ListPage(ctx, page, limit, search)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &Page{
		Items:      models.PublicUsers(list),
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id string) (models.PublicUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("get user: %w", err)
	}
	return u.Public(), nil
}

// Create adds an identity. Role defaults to user.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (models.PublicUser, error) {
	if in.Role == "" {
		in.Role = models.RoleUser
	}

	v := common.NewValidationError()
	checkEmail(v, in.Email)
	checkName(v, in.Name)
	checkPassword(v, "password", in.Password)
	checkRole(v, in.Role)
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
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info(ctx, "user created", "user_id", u.ID, "role", u.Role)
	return u.Public(), nil
}

func (s *UserService) patch(in UpdateUserInput) (models.UserPatch, error) {
	v := common.NewValidationError()
	if in.Email != nil {
		checkEmail(v, *in.Email)
	}
	if in.Name != nil {
		checkName(v, *in.Name)
	}
	if in.Password != nil {
		checkPassword(v, "password", *in.Password)
	}
	if in.Role != nil {
		checkRole(v, *in.Role)
	}
	if err := v.OrNil(); err != nil {
		return models.UserPatch{}, err
	}

	p := models.UserPatch{Email: in.Email, Name: in.Name, Role: in.Role}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return models.UserPatch{}, fmt.Errorf("%w: hash password: %v", common.ErrorInternal, err)
		}
		p.PasswordHash = &hash
	}
	return p, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (models.PublicUser, error) {
	p, err := s.patch(in)
	if err != nil {
		return models.PublicUser{}, err
	}

	u, err := s.users.Update(ctx, id, p)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info(ctx, "user updated", "user_id", id)
	return u.Public(), nil
}

// UpdateProfile applies a self-service update for the caller. Changing
// one's own role is rejected.
func (s *UserService) UpdateProfile(ctx context.Context, callerID string, in UpdateUserInput) (models.PublicUser, error) {
	if in.Role != nil {
		cur, err := s.users.FindByID(ctx, callerID)
		if err != nil {
			return models.PublicUser{}, fmt.Errorf("update profile: %w", err)
		}
		if *in.Role != cur.Role {
			v := common.NewValidationError()
			v.Add("role", "cannot be changed from the profile")
			return models.PublicUser{}, v
		}
		in.Role = nil
	}

	p, err := s.patch(in)
	if err != nil {
		return models.PublicUser{}, err
	}

	u, err := s.users.Update(ctx, callerID, p)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("update profile: %w", err)
	}
	return u.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info(ctx, "user deleted", "user_id", id)
	return nil
}

// Stats aggregates the directory. New users are counted from the first day
// of the current UTC month; GrowthRate is their share of the users that
// existed before, in percent with one decimal.
func (s *UserService) Stats(ctx context.Context) (models.Stats, error) {
	all, err := s.users.All(ctx)
	if err != nil {
		return models.Stats{}, fmt.Errorf("stats: %w", err)
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var st models.Stats
	st.TotalUsers = len(all)
	for _, u := range all {
		switch u.Role {
		case models.RoleAdmin:
			st.AdminUsers++
		case models.RoleUser:
			st.ActiveUsers++
		}
		if !u.CreatedAt.Before(monthStart) {
			st.NewUsersThisMonth++
		}
	}

	if before := st.TotalUsers - st.NewUsersThisMonth; before > 0 {
		rate := float64(st.NewUsersThisMonth) / float64(before) * 100
		st.GrowthRate = math.Round(rate*10) / 10
	}
	return st, nil
}
