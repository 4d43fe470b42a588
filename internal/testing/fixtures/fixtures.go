package fixtures

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/lfg/internal/model"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// ============================================================================
// Builders
// ============================================================================

// User builds an unsaved user with a unique id and display name
func User(opts ...func(*model.User)) *model.User {
	n := next()
	u := &model.User{
		ID:          uuid.NewString(),
		DisplayName: fmt.Sprintf("Player %d", n),
		Role:        model.UserRoleUser,
	}
	for _, fn := range opts {
		fn(u)
	}
	return u
}

// Admin builds an unsaved administrator
func Admin(opts ...func(*model.User)) *model.User {
	return User(append([]func(*model.User){func(u *model.User) { u.Role = model.UserRoleAdmin }}, opts...)...)
}

// Character builds a valid unsaved character owned by ownerID
func Character(ownerID string, opts ...func(*model.Character)) *model.Character {
	n := next()
	c := &model.Character{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      fmt.Sprintf("Hero%d", n),
		Class:     model.ClassBard,
		ItemLevel: 1600,
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Post builds an unsaved post owned by ownerID, starting a day from now
func Post(ownerID string, opts ...func(*model.Post)) *model.Post {
	n := next()
	p := &model.Post{
		ID:         uuid.NewString(),
		Title:      fmt.Sprintf("Raid %d", n),
		StartTime:  time.Now().Add(24 * time.Hour).Truncate(time.Minute).UTC(),
		OwnerID:    ownerID,
		Applicants: []model.Applicant{},
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

// WithGems sets gem levels, alternating attack and cooldown
func WithGems(levels ...int) func(*model.Character) {
	return func(c *model.Character) {
		c.Gems = nil
		for i, lvl := range levels {
			t := model.GemTypeAttack
			if i%2 == 1 {
				t = model.GemTypeCooldown
			}
			c.Gems = append(c.Gems, model.Gem{Type: t, Level: lvl, Skill: fmt.Sprintf("Skill %d", i+1)})
		}
	}
}

// ============================================================================
// Persistence
// ============================================================================

// UserStore is satisfied by both repository backends
type UserStore interface {
	Upsert(ctx context.Context, user *model.User) error
}

// CharacterStore is satisfied by both repository backends
type CharacterStore interface {
	Create(ctx context.Context, c *model.Character) error
}

// PostStore is satisfied by both repository backends
type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	AddApplicant(ctx context.Context, postID, userID, characterID string, capacity int) error
}

// Factory saves built entities through a repository backend
type Factory struct {
	Users      UserStore
	Characters CharacterStore
	Posts      PostStore
}

// CreateUser saves a user
func (f *Factory) CreateUser(t *testing.T, opts ...func(*model.User)) *model.User {
	t.Helper()
	u := User(opts...)
	if err := f.Users.Upsert(context.Background(), u); err != nil {
		t.Fatalf("fixtures: create user: %v", err)
	}
	return u
}

// CreateCharacter saves a character for owner
func (f *Factory) CreateCharacter(t *testing.T, owner *model.User, opts ...func(*model.Character)) *model.Character {
	t.Helper()
	c := Character(owner.ID, opts...)
	if err := f.Characters.Create(context.Background(), c); err != nil {
		t.Fatalf("fixtures: create character: %v", err)
	}
	return c
}

// CreatePost saves a post for owner
func (f *Factory) CreatePost(t *testing.T, owner *model.User, opts ...func(*model.Post)) *model.Post {
	t.Helper()
	p := Post(owner.ID, opts...)
	if err := f.Posts.Create(context.Background(), p); err != nil {
		t.Fatalf("fixtures: create post: %v", err)
	}
	return p
}

// Join puts c on the roster of p under the character's owner
func (f *Factory) Join(t *testing.T, p *model.Post, c *model.Character) {
	t.Helper()
	if err := f.Posts.AddApplicant(context.Background(), p.ID, c.OwnerID, c.ID, model.RosterSize); err != nil {
		t.Fatalf("fixtures: join: %v", err)
	}
}
