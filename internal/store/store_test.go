package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/01moynul/sweetshop-golang/internal/database"
	"github.com/01moynul/sweetshop-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.OpenDB(ctx, database.DriverSQLite, ":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := NewSQLStore(db, database.DriverSQLite)
	require.NoError(t, s.Migrate(ctx))
	return s
}

type storeFactory func(t *testing.T) interface {
	SweetStore
	UserStore
}

var factories = map[string]storeFactory{
	"memory": func(t *testing.T) interface {
		SweetStore
		UserStore
	} {
		return NewMemoryStore()
	},
	"sqlite": func(t *testing.T) interface {
		SweetStore
		UserStore
	} {
		return newSQLiteStore(t)
	},
}

func sweetFixture(name, category string, price float64, qty int, created time.Time) models.Sweet {
	return models.Sweet{
		ID:        models.NewID(),
		Name:      name,
		Category:  category,
		Price:     price,
		Quantity:  qty,
		Version:   1,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func assertSameSweet(t *testing.T, want, got models.Sweet) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Price, got.Price)
	assert.Equal(t, want.Quantity, got.Quantity)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.ImageRef, got.ImageRef)
	assert.Equal(t, want.Version, got.Version)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "createdAt %v != %v", want.CreatedAt, got.CreatedAt)
}

func TestSweetStore_PutGetDelete(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			now := time.Now().UTC().Truncate(time.Microsecond)

			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			sweet := sweetFixture("Dark Chocolate", models.CategoryChocolate, 2.5, 10, now)
			sweet.Description = "70% cocoa"
			sweet.ImageRef = "/uploads/dark.png"
			require.NoError(t, s.Put(ctx, sweet))

			got, err := s.Get(ctx, sweet.ID)
			require.NoError(t, err)
			assertSameSweet(t, sweet, got)

			// Put overwrites.
			sweet.Name = "Darker Chocolate"
			require.NoError(t, s.Put(ctx, sweet))
			got, err = s.Get(ctx, sweet.ID)
			require.NoError(t, err)
			assert.Equal(t, "Darker Chocolate", got.Name)

			require.NoError(t, s.Delete(ctx, sweet.ID))
			assert.ErrorIs(t, s.Delete(ctx, sweet.ID), ErrNotFound)
			_, err = s.Get(ctx, sweet.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSweetStore_CompareAndSwap(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			now := time.Now().UTC().Truncate(time.Microsecond)
			sweet := sweetFixture("Toffee", models.CategoryCandy, 1, 5, now)
			require.NoError(t, s.Put(ctx, sweet))

			decrement := func(cur models.Sweet) (models.Sweet, error) {
				cur.Quantity--
				return cur, nil
			}

			updated, err := s.CompareAndSwap(ctx, sweet.ID, 1, decrement)
			require.NoError(t, err)
			assert.Equal(t, 4, updated.Quantity)
			assert.Equal(t, int64(2), updated.Version)
			assert.True(t, updated.CreatedAt.Equal(now))

			// Stale version is rejected and nothing changes.
			_, err = s.CompareAndSwap(ctx, sweet.ID, 1, decrement)
			assert.ErrorIs(t, err, ErrVersionConflict)
			got, err := s.Get(ctx, sweet.ID)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Quantity)
			assert.Equal(t, int64(2), got.Version)

			// A mutate error aborts without writing.
			boom := errors.New("boom")
			_, err = s.CompareAndSwap(ctx, sweet.ID, 2, func(cur models.Sweet) (models.Sweet, error) {
				cur.Quantity = 0
				return cur, boom
			})
			assert.ErrorIs(t, err, boom)
			got, err = s.Get(ctx, sweet.ID)
			require.NoError(t, err)
			assert.Equal(t, 4, got.Quantity)
			assert.Equal(t, int64(2), got.Version)

			// The mutator cannot change identity.
			updated, err = s.CompareAndSwap(ctx, sweet.ID, 2, func(cur models.Sweet) (models.Sweet, error) {
				cur.ID = "other"
				cur.Name = "Butter Toffee"
				return cur, nil
			})
			require.NoError(t, err)
			assert.Equal(t, sweet.ID, updated.ID)
			assert.Equal(t, "Butter Toffee", updated.Name)

			_, err = s.CompareAndSwap(ctx, "missing", 1, decrement)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSweetStore_Query(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			base := time.Now().UTC().Truncate(time.Microsecond)

			fixtures := []models.Sweet{
				sweetFixture("Milk Chocolate", models.CategoryChocolate, 1.5, 10, base),
				sweetFixture("Dark chocolate bar", models.CategoryChocolate, 2.5, 10, base.Add(time.Second)),
				sweetFixture("Gummy Bears", models.CategoryCandy, 2.0, 10, base.Add(2*time.Second)),
				sweetFixture("Shortbread", models.CategoryBiscuit, 3.0, 10, base.Add(3*time.Second)),
				sweetFixture("100% Fudge_Cake", models.CategoryCake, 4.0, 10, base.Add(4*time.Second)),
				sweetFixture("ÉCLAIR AU CAFÉ", models.CategoryCake, 3.5, 10, base.Add(5*time.Second)),
			}
			for _, f := range fixtures {
				require.NoError(t, s.Put(ctx, f))
			}

			names := func(sweets []models.Sweet) []string {
				out := make([]string, 0, len(sweets))
				for _, sw := range sweets {
					out = append(out, sw.Name)
				}
				return out
			}
			price := func(v float64) *float64 { return &v }

			all, err := s.Query(ctx, Filter{})
			require.NoError(t, err)
			assert.Len(t, all, len(fixtures))

			got, err := s.Query(ctx, Filter{Name: "CHOCOLATE"})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"Milk Chocolate", "Dark chocolate bar"}, names(got))

			got, err = s.Query(ctx, Filter{Category: models.CategoryChocolate})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"Milk Chocolate", "Dark chocolate bar"}, names(got))

			got, err = s.Query(ctx, Filter{Category: "chocolate"})
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.Query(ctx, Filter{MinPrice: price(1.5), MaxPrice: price(2.5)})
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"Milk Chocolate", "Dark chocolate bar", "Gummy Bears"}, names(got))

			got, err = s.Query(ctx, Filter{Name: "a", Category: models.CategoryChocolate, MaxPrice: price(2)})
			require.NoError(t, err)
			assert.Equal(t, []string{"Milk Chocolate"}, names(got))

			// LIKE wildcards in the term are literal.
			got, err = s.Query(ctx, Filter{Name: "0%"})
			require.NoError(t, err)
			assert.Equal(t, []string{"100% Fudge_Cake"}, names(got))
			got, err = s.Query(ctx, Filter{Name: "e_c"})
			require.NoError(t, err)
			assert.Equal(t, []string{"100% Fudge_Cake"}, names(got))

			// Case folding is not limited to ASCII.
			got, err = s.Query(ctx, Filter{Name: "éclair"})
			require.NoError(t, err)
			assert.Equal(t, []string{"ÉCLAIR AU CAFÉ"}, names(got))
			got, err = s.Query(ctx, Filter{Name: "café", Category: models.CategoryCake})
			require.NoError(t, err)
			assert.Equal(t, []string{"ÉCLAIR AU CAFÉ"}, names(got))
		})
	}
}

func TestUserStore(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			now := time.Now().UTC().Truncate(time.Microsecond)

			user := models.User{
				ID:           models.NewID(),
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "hash",
				Role:         models.RoleUser,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			require.NoError(t, s.CreateUser(ctx, user))

			dup := user
			dup.ID = models.NewID()
			dup.Email = "other@example.com"
			assert.ErrorIs(t, s.CreateUser(ctx, dup), ErrDuplicate)

			got, err := s.GetUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, "alice", got.Username)

			byEmail, err := s.FindUserByLogin(ctx, "alice@example.com")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byEmail.ID)
			byName, err := s.FindUserByLogin(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, user.ID, byName.ID)

			_, err = s.FindUserByLogin(ctx, "bob")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SetRole(ctx, user.ID, models.RoleAdmin))
			got, err = s.GetUser(ctx, user.ID)
			require.NoError(t, err)
			assert.Equal(t, models.RoleAdmin, got.Role)

			assert.ErrorIs(t, s.SetRole(ctx, "missing", models.RoleAdmin), ErrNotFound)
		})
	}
}

func TestFilter_Match(t *testing.T) {
	lo, hi := 1.5, 2.5
	f := Filter{Name: "choc", Category: models.CategoryChocolate, MinPrice: &lo, MaxPrice: &hi}

	assert.True(t, f.Match(models.Sweet{Name: "Hot Chocolate", Category: models.CategoryChocolate, Price: 1.5}))
	assert.True(t, f.Match(models.Sweet{Name: "CHOC chip", Category: models.CategoryChocolate, Price: 2.5}))
	assert.False(t, f.Match(models.Sweet{Name: "Hot Chocolate", Category: models.CategoryChocolate, Price: 2.51}))
	assert.False(t, f.Match(models.Sweet{Name: "Hot Chocolate", Category: models.CategoryCandy, Price: 2}))
	assert.False(t, f.Match(models.Sweet{Name: "Fudge", Category: models.CategoryChocolate, Price: 2}))
	assert.True(t, Filter{}.Match(models.Sweet{}))
}
