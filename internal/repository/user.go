package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
)

// UserRepository handles directory entries in SurrealDB
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert creates the user or refreshes its display name and role.
// created_on is only set the first time.
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	role := user.Role
	if role == "" {
		role = model.UserRoleUser
	}

	query := `
		UPSERT type::thing($tb, $id) SET
			display_name = $display_name,
			role = $role,
			created_on = IF created_on IS NONE THEN time::now() ELSE created_on END,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"tb":           tableUser,
		"id":           user.ID,
		"display_name": user.DisplayName,
		"role":         string(role),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}
	if row, ok := asRow(result); ok {
		user.Role = role
		user.CreatedOn = getTime(row, "created_on")
		user.UpdatedOn = getTime(row, "updated_on")
	}
	return nil
}

// GetByID retrieves a user by ID, nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT * FROM type::thing($tb, $id)`
	vars := map[string]interface{}{"tb": tableUser, "id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	row, ok := asRow(result)
	if !ok {
		return nil, nil
	}
	return parseUserRow(row), nil
}

// List returns every user, without characters, ordered by display name
func (r *UserRepository) List(ctx context.Context) ([]*model.User, error) {
	result, err := r.db.Query(ctx, `SELECT * FROM type::table($tb)`, map[string]interface{}{"tb": tableUser})
	if err != nil {
		return nil, err
	}

	rows := resultRows(result, 0)
	users := make([]*model.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, parseUserRow(row))
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName != users[j].DisplayName {
			return users[i].DisplayName < users[j].DisplayName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func parseUserRow(row map[string]interface{}) *model.User {
	return &model.User{
		ID:          recordKey(row["id"]),
		DisplayName: getString(row, "display_name"),
		Role:        model.UserRole(getString(row, "role")),
		CreatedOn:   getTime(row, "created_on"),
		UpdatedOn:   getTime(row, "updated_on"),
	}
}
