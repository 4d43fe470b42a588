package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
)

// UserRepository stores directory entries
type UserRepository struct {
	conn
}

// Upsert creates the user or refreshes its display name and role
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}
	now := toNanos(time.Now())

	query := `
		INSERT INTO users (id, display_name, role, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			role = excluded.role,
			updated_on = excluded.updated_on
		RETURNING created_on, updated_on
	`
	var created, updated int64
	err := r.db.QueryRowContext(ctx, r.q(query), user.ID, user.DisplayName, string(role), now, now).
		Scan(&created, &updated)
	if err != nil {
		return fmt.Errorf("%w: upsert user: %v", database.ErrQuery, err)
	}

	user.Role = role
	user.CreatedOn = fromNanos(created)
	user.UpdatedOn = fromNanos(updated)
	return nil
}

// GetByID retrieves a user by ID, nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, display_name, role, created_on, updated_on FROM users WHERE id = ?`

	u, err := scanUser(r.db.QueryRowContext(ctx, r.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", database.ErrQuery, err)
	}
	return u, nil
}

// List returns every user, without characters, ordered by display name
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT id, display_name, role, created_on, updated_on FROM users ORDER BY display_name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", database.ErrQuery, err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", database.ErrQuery, err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(s rowScanner) (*model.User, error) {
	var (
		u                model.User
		role             string
		created, updated int64
	)
	if err := s.Scan(&u.ID, &u.DisplayName, &role, &created, &updated); err != nil {
		return nil, err
	}
	u.Role = model.UserRole(role)
	u.CreatedOn = fromNanos(created)
	u.UpdatedOn = fromNanos(updated)
	return &u, nil
}
