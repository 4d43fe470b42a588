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

const characterColumns = `c.id, c.owner_id, c.name, c.class, c.item_level, c.gear_set, c.gems, c.engravings, c.created_on, c.updated_on`

// CharacterRepository stores characters
type CharacterRepository struct {
	conn
}

// Create inserts a character under the id already set on c
func (r *CharacterRepository) Create(ctx context.Context, c *model.Character) error {
	gems, engravings, err := encodeLoadout(c)
	if err != nil {
		return err
	}
	now := time.Now()

	query := `
		INSERT INTO characters (id, owner_id, name, class, item_level, gear_set, gems, engravings, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, r.q(query),
		c.ID, c.OwnerID, c.Name, string(c.Class), c.ItemLevel, nullString(c.GearSet),
		gems, engravings, toNanos(now), toNanos(now))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: character %s", database.ErrDuplicate, c.ID)
		}
		return fmt.Errorf("%w: create character: %v", database.ErrQuery, err)
	}

	c.CreatedOn = fromNanos(toNanos(now))
	c.UpdatedOn = c.CreatedOn
	return nil
}

// GetByID retrieves a character by ID, nil when absent
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters c WHERE c.id = ?`

	c, err := scanCharacter(r.db.QueryRowContext(ctx, r.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get character: %v", database.ErrQuery, err)
	}
	return c, nil
}

// Update overwrites the editable fields. Owner and id never change.
func (r *CharacterRepository) Update(ctx context.Context, c *model.Character) error {
	gems, engravings, err := encodeLoadout(c)
	if err != nil {
		return err
	}
	now := time.Now()

	query := `
		UPDATE characters SET
			name = ?, class = ?, item_level = ?, gear_set = ?, gems = ?, engravings = ?, updated_on = ?
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, r.q(query),
		c.Name, string(c.Class), c.ItemLevel, nullString(c.GearSet), gems, engravings, toNanos(now), c.ID)
	if err != nil {
		return fmt.Errorf("%w: update character: %v", database.ErrQuery, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	c.UpdatedOn = fromNanos(toNanos(now))
	return nil
}

// Delete removes the character and every roster entry that used it
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM applicants WHERE character_id = ?`), id); err != nil {
			return fmt.Errorf("%w: remove applications: %v", database.ErrQuery, err)
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM characters WHERE id = ?`), id); err != nil {
			return fmt.Errorf("%w: delete character: %v", database.ErrQuery, err)
		}
		return nil
	})
}

// ListByOwner returns one user's characters in creation order
func (r *CharacterRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters c WHERE c.owner_id = ? ORDER BY c.created_on, c.id`
	return r.list(ctx, r.q(query), ownerID)
}

// ListAll returns every character in creation order
func (r *CharacterRepository) ListAll(ctx context.Context) ([]model.Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters c ORDER BY c.created_on, c.id`
	return r.list(ctx, query)
}

func (r *CharacterRepository) list(ctx context.Context, query string, args ...any) ([]model.Character, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list characters: %v", database.ErrQuery, err)
	}
	defer rows.Close()

	out := []model.Character{}
	for rows.Next() {
		c, err := scanCharacter(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan character: %v", database.ErrQuery, err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func encodeLoadout(c *model.Character) (gems, engravings string, err error) {
	if gems, err = encodeJSON(c.Gems); err != nil {
		return "", "", fmt.Errorf("encode gems: %w", err)
	}
	if engravings, err = encodeJSON(c.Engravings); err != nil {
		return "", "", fmt.Errorf("encode engravings: %w", err)
	}
	return gems, engravings, nil
}

func scanCharacter(s rowScanner) (*model.Character, error) {
	var (
		c                model.Character
		class            string
		gearSet          sql.NullString
		gems, engravings string
		created, updated int64
	)
	if err := s.Scan(&c.ID, &c.OwnerID, &c.Name, &class, &c.ItemLevel, &gearSet,
		&gems, &engravings, &created, &updated); err != nil {
		return nil, err
	}

	c.Class = model.CharacterClass(class)
	if gearSet.Valid {
		c.GearSet = &gearSet.String
	}
	if err := decodeJSON(gems, &c.Gems); err != nil {
		return nil, fmt.Errorf("decode gems: %w", err)
	}
	if err := decodeJSON(engravings, &c.Engravings); err != nil {
		return nil, fmt.Errorf("decode engravings: %w", err)
	}
	c.CreatedOn = fromNanos(created)
	c.UpdatedOn = fromNanos(updated)
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
