package users

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runContract exercises behaviour every Repository implementation must share.
// newRepo must return an empty store.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mk := func(i int, email, name string) *models.User {
		return &models.User{
			ID:           fmt.Sprintf("id-%03d", i),
			Email:        email,
			Name:         name,
			Role:         models.RoleUser,
			PasswordHash: "hash",
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
	}

	t.Run("create and find", func(t *testing.T) {
		r := newRepo(t)
		created, err := r.Create(ctx, mk(1, "Alice@Example.com", "Alice"))
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", created.Email)

		byEmail, err := r.FindByEmail(ctx, "ALICE@example.COM")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)

		byID, err := r.FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", byID.Name)
		assert.Equal(t, "hash", byID.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.FindByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = r.FindByID(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		_, err = r.Update(ctx, "nope", models.UserPatch{})
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.ErrorIs(t, r.Delete(ctx, "nope"), common.ErrorNotFound)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, mk(1, "bob@example.com", "Bob"))
		require.NoError(t, err)
		_, err = r.Create(ctx, mk(2, "BOB@example.com", "Bobby"))
		assert.ErrorIs(t, err, common.ErrorConflict)
	})

	t.Run("pagination over 23", func(t *testing.T) {
		r := newRepo(t)
		for i := 1; i <= 23; i++ {
			_, err := r.Create(ctx, mk(i, fmt.Sprintf("u%02d@example.com", i), fmt.Sprintf("User %02d", i)))
			require.NoError(t, err)
		}

		page2, total, err := r.ListPage(ctx, 2, 10, "")
		require.NoError(t, err)
		assert.Equal(t, 23, total)
		require.Len(t, page2, 10)
		assert.Equal(t, "id-011", page2[0].ID)
		assert.Equal(t, "id-020", page2[9].ID)

		page3, total, err := r.ListPage(ctx, 3, 10, "")
		require.NoError(t, err)
		assert.Equal(t, 23, total)
		require.Len(t, page3, 3)
		assert.Equal(t, "id-021", page3[0].ID)
		assert.Equal(t, "id-023", page3[2].ID)

		page9, total, err := r.ListPage(ctx, 9, 10, "")
		require.NoError(t, err)
		assert.Equal(t, 23, total)
		assert.Empty(t, page9)

		huge, total, err := r.ListPage(ctx, math.MaxInt/2+2, 2, "")
		require.NoError(t, err)
		assert.Equal(t, 23, total)
		assert.Empty(t, huge)

		last, _, err := r.ListPage(ctx, math.MaxInt, math.MaxInt, "")
		require.NoError(t, err)
		assert.Empty(t, last)
	})

	t.Run("empty store", func(t *testing.T) {
		r := newRepo(t)
		list, total, err := r.ListPage(ctx, 1, 10, "")
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, list)
	})

	t.Run("invalid page", func(t *testing.T) {
		r := newRepo(t)
		_, _, err := r.ListPage(ctx, 0, 10, "")
		assert.ErrorIs(t, err, common.ErrorValidation)
		_, _, err = r.ListPage(ctx, 1, 0, "")
		assert.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("search by name or email", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, mk(1, "alice@example.com", "Alice Liddell"))
		require.NoError(t, err)
		_, err = r.Create(ctx, mk(2, "bob@corp.io", "Bob"))
		require.NoError(t, err)
		_, err = r.Create(ctx, mk(3, "carol@example.com", "Carol"))
		require.NoError(t, err)

		list, total, err := r.ListPage(ctx, 1, 10, "LIDD")
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "id-001", list[0].ID)

		list, total, err = r.ListPage(ctx, 1, 10, "example")
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Equal(t, "id-003", list[1].ID)

		_, total, err = r.ListPage(ctx, 1, 10, "100%")
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("update", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, mk(1, "a@example.com", "A"))
		require.NoError(t, err)
		_, err = r.Create(ctx, mk(2, "b@example.com", "B"))
		require.NoError(t, err)

		name := "Renamed"
		role := models.RoleAdmin
		got, err := r.Update(ctx, "id-001", models.UserPatch{Name: &name, Role: &role})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Name)
		assert.Equal(t, models.RoleAdmin, got.Role)
		assert.Equal(t, "a@example.com", got.Email)

		taken := "B@example.com"
		_, err = r.Update(ctx, "id-001", models.UserPatch{Email: &taken})
		assert.ErrorIs(t, err, common.ErrorConflict)

		fresh := "new@example.com"
		_, err = r.Update(ctx, "id-001", models.UserPatch{Email: &fresh})
		require.NoError(t, err)
		_, err = r.FindByEmail(ctx, "a@example.com")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		found, err := r.FindByEmail(ctx, "new@example.com")
		require.NoError(t, err)
		assert.Equal(t, "id-001", found.ID)
	})

	t.Run("delete", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, mk(1, "a@example.com", "A"))
		require.NoError(t, err)
		require.NoError(t, r.Delete(ctx, "id-001"))

		_, err = r.FindByID(ctx, "id-001")
		assert.ErrorIs(t, err, common.ErrorNotFound)

		_, err = r.Create(ctx, mk(2, "a@example.com", "A again"))
		assert.NoError(t, err, "email is free again after delete")
	})

	t.Run("all ordered by creation", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.Create(ctx, mk(3, "c@example.com", "C"))
		require.NoError(t, err)
		_, err = r.Create(ctx, mk(1, "a@example.com", "A"))
		require.NoError(t, err)

		all, err := r.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "id-001", all[0].ID)
		assert.Equal(t, "id-003", all[1].ID)
	})
}
