package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in a guarded map. Every returned record is a
// copy, so callers can never mutate stored state.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*models.User
	byEmail map[string]string
	order   []string
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    map[string]*models.User{},
		byEmail: map[string]string{},
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[models.NormalizeEmail(email)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.byID[id].Clone(), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u.Clone(), nil
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
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

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return nil, common.ErrorConflict
	}
	if _, ok := r.byID[u.ID]; ok {
		return nil, common.ErrorConflict
	}

	r.byID[u.ID] = u
	r.byEmail[u.Email] = u.ID
	r.order = append(r.order, u.ID)

	return u.Clone(), nil
}

func (r *MemoryRepository) ListPage(ctx context.Context, page, pageSize int, search string) ([]*models.User, int, error) {
	if err := validatePage(page, pageSize); err != nil {
		return nil, 0, err
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	r.mu.RLock()
	matched := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		u := r.byID[id]
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(u.Email, needle) {
			matched = append(matched, u.Clone())
		}
	}
	r.mu.RUnlock()

	sortByCreation(matched)

	total := len(matched)
	start, ok := pageOffset(page, pageSize, total)
	if !ok {
		return []*models.User{}, total, nil
	}
	end := min(start+pageSize, total)

	return matched[start:end], total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	next := cur.Clone()
	patch.Apply(next, time.Now().UTC())

	if next.Email != cur.Email {
		if _, taken := r.byEmail[next.Email]; taken {
			return nil, common.ErrorConflict
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[next.Email] = id
	}
	r.byID[id] = next

	return next.Clone(), nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	delete(r.byID, id)
	delete(r.byEmail, u.Email)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) All(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	out := make([]*models.User, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id].Clone())
	}
	r.mu.RUnlock()

	sortByCreation(out)
	return out, nil
}
