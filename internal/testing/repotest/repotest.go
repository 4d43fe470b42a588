// Package repotest holds the behaviour every board repository backend must
// share. Backends call Run with a constructor for fresh, empty stores.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/internal/testing/fixtures"
)

// Users is the user repository contract
type Users interface {
	Upsert(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	List(ctx context.Context) ([]*model.User, error)
}

// Characters is the character repository contract
type Characters interface {
	Create(ctx context.Context, c *model.Character) error
	GetByID(ctx context.Context, id string) (*model.Character, error)
	Update(ctx context.Context, c *model.Character) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Character, error)
	ListAll(ctx context.Context) ([]model.Character, error)
}

// Posts is the post repository contract
type Posts interface {
	Create(ctx context.Context, p *model.Post) error
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, p *model.Post) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.Post, error)
	AddApplicant(ctx context.Context, postID, userID, characterID string, capacity int) error
	RemoveApplicant(ctx context.Context, postID, userID, characterID string) (bool, error)
}

// Backend is one freshly provisioned store
type Backend struct {
	Users      Users
	Characters Characters
	Posts      Posts
}

func (b Backend) factory() *fixtures.Factory {
	return &fixtures.Factory{Users: b.Users, Characters: b.Characters, Posts: b.Posts}
}

// Run exercises the repository contract against stores built by open.
func Run(t *testing.T, open func(t *testing.T) Backend) {
	t.Run("UserUpsertKeepsCreatedOn", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()

		u := fixtures.User(func(u *model.User) { u.DisplayName = "Aino" })
		require.NoError(t, b.Users.Upsert(ctx, u))
		created := u.CreatedOn

		u.DisplayName = "Aino K"
		u.Role = model.UserRoleAdmin
		require.NoError(t, b.Users.Upsert(ctx, u))

		got, err := b.Users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Aino K", got.DisplayName)
		assert.Equal(t, model.UserRoleAdmin, got.Role)
		assert.WithinDuration(t, created, got.CreatedOn, time.Millisecond)
	})

	t.Run("UserGetByIDMissing", func(t *testing.T) {
		b := open(t)
		got, err := b.Users.GetByID(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("UserListOrderedByName", func(t *testing.T) {
		b := open(t)
		f := b.factory()
		f.CreateUser(t, func(u *model.User) { u.DisplayName = "Ville" })
		f.CreateUser(t, func(u *model.User) { u.DisplayName = "Anna" })

		users, err := b.Users.List(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "Anna", users[0].DisplayName)
		assert.Equal(t, "Ville", users[1].DisplayName)
	})

	t.Run("CharacterRoundTrip", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner := f.CreateUser(t)

		gear := "Hallucination"
		c := f.CreateCharacter(t, owner, fixtures.WithGems(7, 9), func(c *model.Character) {
			c.Class = model.ClassSorceress
			c.Engravings = []model.Engraving{{Name: "Grudge", Level: 3}}
			c.GearSet = &gear
		})

		got, err := b.Characters.GetByID(ctx, c.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, c.Name, got.Name)
		assert.Equal(t, owner.ID, got.OwnerID)
		assert.Equal(t, model.ClassSorceress, got.Class)
		assert.Equal(t, 1600, got.ItemLevel)
		assert.Equal(t, c.Gems, got.Gems)
		assert.Equal(t, c.Engravings, got.Engravings)
		require.NotNil(t, got.GearSet)
		assert.Equal(t, gear, *got.GearSet)

		got.ItemLevel = 1620
		got.GearSet = nil
		require.NoError(t, b.Characters.Update(ctx, got))

		again, err := b.Characters.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, 1620, again.ItemLevel)
		assert.Nil(t, again.GearSet)
		assert.Equal(t, c.Gems, again.Gems)
	})

	t.Run("CharacterListings", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		a, z := f.CreateUser(t), f.CreateUser(t)
		f.CreateCharacter(t, a)
		f.CreateCharacter(t, a)
		f.CreateCharacter(t, z)

		mine, err := b.Characters.ListByOwner(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, mine, 2)

		all, err := b.Characters.ListAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		none, err := b.Characters.ListByOwner(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("PostRoundTripAndOrder", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner := f.CreateUser(t)

		base := time.Date(2026, 10, 21, 16, 0, 0, 0, time.UTC)
		late := f.CreatePost(t, owner, func(p *model.Post) { p.StartTime = base.Add(2 * time.Hour) })
		early := f.CreatePost(t, owner, func(p *model.Post) { p.StartTime = base })

		posts, err := b.Posts.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, early.ID, posts[0].ID)
		assert.Equal(t, late.ID, posts[1].ID)
		assert.True(t, posts[0].StartTime.Equal(base))
		assert.NotNil(t, posts[0].Applicants)

		late.Title = "Moved"
		late.StartTime = base.Add(-time.Hour)
		require.NoError(t, b.Posts.Update(ctx, late))

		got, err := b.Posts.GetByID(ctx, late.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "Moved", got.Title)
		assert.Equal(t, owner.ID, got.OwnerID)

		missing, err := b.Posts.GetByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("RosterOrderAndLeave", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner, a := f.CreateUser(t), f.CreateUser(t)
		post := f.CreatePost(t, owner)
		c1 := f.CreateCharacter(t, a)
		c2 := f.CreateCharacter(t, a)

		f.Join(t, post, c1)
		f.Join(t, post, c2)

		got, err := b.Posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got.Applicants, 2)
		assert.Equal(t, c1.ID, got.Applicants[0].Character.ID)
		assert.Equal(t, c1.Name, got.Applicants[0].Character.Name)
		assert.Equal(t, a.ID, got.Applicants[0].UserID)

		// Wrong user for c1 removes nothing.
		removed, err := b.Posts.RemoveApplicant(ctx, post.ID, owner.ID, c1.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		removed, err = b.Posts.RemoveApplicant(ctx, post.ID, a.ID, c1.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		got, err = b.Posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		require.Len(t, got.Applicants, 1)
		assert.Equal(t, c2.ID, got.Applicants[0].Character.ID)
	})

	t.Run("RosterRejectsDuplicateCharacter", func(t *testing.T) {
		b := open(t)
		f := b.factory()
		owner := f.CreateUser(t)
		post := f.CreatePost(t, owner)
		c := f.CreateCharacter(t, owner)
		f.Join(t, post, c)

		err := b.Posts.AddApplicant(context.Background(), post.ID, owner.ID, c.ID, model.RosterSize)
		assert.ErrorIs(t, err, database.ErrDuplicate)
	})

	t.Run("RosterRejectsMissingPostOrCharacter", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner := f.CreateUser(t)
		post := f.CreatePost(t, owner)
		c := f.CreateCharacter(t, owner)

		assert.ErrorIs(t, b.Posts.AddApplicant(ctx, "nope", owner.ID, c.ID, model.RosterSize), database.ErrNotFound)
		assert.ErrorIs(t, b.Posts.AddApplicant(ctx, post.ID, owner.ID, "nope", model.RosterSize), database.ErrNotFound)
	})

	t.Run("RosterCapHoldsUnderConcurrency", func(t *testing.T) {
		b := open(t)
		f := b.factory()
		owner := f.CreateUser(t)
		post := f.CreatePost(t, owner)

		const attempts = model.RosterSize + 4
		chars := make([]*model.Character, attempts)
		for i := range chars {
			chars[i] = f.CreateCharacter(t, owner)
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			full    int
			success int
		)
		for _, c := range chars {
			wg.Add(1)
			go func(c *model.Character) {
				defer wg.Done()
				err := b.Posts.AddApplicant(context.Background(), post.ID, owner.ID, c.ID, model.RosterSize)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					success++
				case assert.ErrorIs(t, err, database.ErrLimitExceeded):
					full++
				}
			}(c)
		}
		wg.Wait()

		assert.Equal(t, model.RosterSize, success)
		assert.Equal(t, attempts-model.RosterSize, full)

		got, err := b.Posts.GetByID(context.Background(), post.ID)
		require.NoError(t, err)
		assert.Len(t, got.Applicants, model.RosterSize)
	})

	t.Run("DeleteCharacterLeavesEveryRoster", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner := f.CreateUser(t)
		p1, p2 := f.CreatePost(t, owner), f.CreatePost(t, owner)
		c := f.CreateCharacter(t, owner)
		other := f.CreateCharacter(t, owner)
		f.Join(t, p1, c)
		f.Join(t, p2, c)
		f.Join(t, p2, other)

		require.NoError(t, b.Characters.Delete(ctx, c.ID))

		gone, err := b.Characters.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)

		posts, err := b.Posts.List(ctx)
		require.NoError(t, err)
		for _, p := range posts {
			assert.False(t, p.HasCharacter(c.ID), "post %s still lists deleted character", p.Title)
		}
	})

	t.Run("DeletePostDropsRoster", func(t *testing.T) {
		b := open(t)
		ctx := context.Background()
		f := b.factory()
		owner := f.CreateUser(t)
		post := f.CreatePost(t, owner)
		c := f.CreateCharacter(t, owner)
		f.Join(t, post, c)

		require.NoError(t, b.Posts.Delete(ctx, post.ID))

		got, err := b.Posts.GetByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		// The character can now join a new post without a stale entry in the way.
		next := f.CreatePost(t, owner)
		f.Join(t, next, c)
	})
}
