// Package users is the credential store: identity records keyed by id and
// by case-insensitive email.
package users

import (
	"context"
	"sort"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/server/models"
)

// Repository is implemented by the in-memory and the Postgres stores.
// Lookups return common.ErrorNotFound; email collisions return
// common.ErrorConflict.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	// ListPage returns the 1-indexed page of users matching search (name or
	// email substring, case-insensitive) and the size of the filtered set.
	ListPage(ctx context.Context, page, pageSize int, search string) ([]*models.User, int, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
	All(ctx context.Context) ([]*models.User, error)
}

func validatePage(page, pageSize int) error {
	v := common.NewValidationError()
	if page < 1 {
		v.Add("page", "must be at least 1")
	}
	if pageSize < 1 {
		v.Add("limit", "must be at least 1")
	}
	return v.OrNil()
}

// pageOffset returns the index of the first record of page within total
// records, or false when the page starts past the end. The check runs
// before the multiplication so a huge page cannot overflow it.
func pageOffset(page, pageSize, total int) (int, bool) {
	if total == 0 || page-1 > (total-1)/pageSize {
		return 0, false
	}
	return (page - 1) * pageSize, true
}

// sortByCreation orders users by creation time, ties broken by id.
func sortByCreation(list []*models.User) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
