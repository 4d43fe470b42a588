package model

import (
	"sort"
	"time"
)

// UserRole represents the role of a user in the system
type UserRole string

const (
	UserRoleUser  UserRole = "user"  // Default role
	UserRoleAdmin UserRole = "admin" // Bypasses ownership checks
)

// IsValid returns true if the role is one of the known roles
func (r UserRole) IsValid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

// DisplayNameFallback is shown when a user id has no directory entry.
const DisplayNameFallback = "No name found"

// MaxDisplayNameLength bounds the display name taken from tokens.
const MaxDisplayNameLength = 64

// User is a directory entry: a display name, a role and the owned characters.
type User struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Role        UserRole    `json:"role"`
	Characters  []Character `json:"characters,omitempty"`
	CreatedOn   time.Time   `json:"created_on"`
	UpdatedOn   time.Time   `json:"updated_on"`
}

// Directory maps user id to user.
type Directory map[string]*User

// DisplayName resolves a user id to a display name, falling back to
// DisplayNameFallback when the user is unknown or unnamed.
func (d Directory) DisplayName(userID string) string {
	if u, ok := d[userID]; ok && u != nil && u.DisplayName != "" {
		return u.DisplayName
	}
	return DisplayNameFallback
}

// Characters returns the characters owned by userID.
func (d Directory) Characters(userID string) []Character {
	if u, ok := d[userID]; ok && u != nil {
		return u.Characters
	}
	return nil
}

// AllCharacters returns every character of every user, grouped by owner.
// Owners are visited in display-name order so the listing is stable.
func (d Directory) AllCharacters() []Character {
	users := d.Sorted()
	var out []Character
	for _, u := range users {
		out = append(out, u.Characters...)
	}
	return out
}

// OwnerOf scans the directory for the user owning characterID.
func (d Directory) OwnerOf(characterID string) (string, bool) {
	for id, u := range d {
		if u == nil {
			continue
		}
		for _, c := range u.Characters {
			if c.ID == characterID {
				return id, true
			}
		}
	}
	return "", false
}

// FindCharacter looks a character up across all users.
func (d Directory) FindCharacter(characterID string) (*Character, bool) {
	for _, u := range d {
		if u == nil {
			continue
		}
		for i := range u.Characters {
			if u.Characters[i].ID == characterID {
				return &u.Characters[i], true
			}
		}
	}
	return nil, false
}

// Sorted returns the users ordered by display name, then id.
func (d Directory) Sorted() []*User {
	users := make([]*User, 0, len(d))
	for _, u := range d {
		if u != nil {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
	return users
}

// Snapshot is a point-in-time read of the whole board.
type Snapshot struct {
	Users Directory `json:"users"`
	Posts []Post    `json:"posts"`
}
