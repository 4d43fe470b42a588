package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
)

// CharacterRepository handles character records in SurrealDB
type CharacterRepository struct {
	db database.Database
}

// NewCharacterRepository creates a new character repository
func NewCharacterRepository(db database.Database) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create inserts a character under the id already set on c
func (r *CharacterRepository) Create(ctx context.Context, c *model.Character) error {
	query := `
		CREATE type::thing($tb, $id) CONTENT {
			owner_id: $owner_id,
			name: $name,
			class: $class,
			item_level: $item_level,
			gems: $gems,
			engravings: $engravings,
			gear_set: IF $gear_set IS NOT NULL THEN $gear_set ELSE NONE END,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := characterVars(c)
	vars["owner_id"] = c.OwnerID

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return fmt.Errorf("%w: character %s", database.ErrDuplicate, c.ID)
		}
		return err
	}
	if row, ok := asRow(result); ok {
		c.CreatedOn = getTime(row, "created_on")
		c.UpdatedOn = getTime(row, "updated_on")
	}
	return nil
}

// GetByID retrieves a character by ID, nil when absent
func (r *CharacterRepository) GetByID(ctx context.Context, id string) (*model.Character, error) {
	query := `SELECT * FROM type::thing($tb, $id)`
	vars := map[string]interface{}{"tb": tableCharacter, "id": id}

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
	return parseCharacterRow(row)
}

// Update overwrites the editable fields. Owner and id never change.
func (r *CharacterRepository) Update(ctx context.Context, c *model.Character) error {
	query := `
		UPDATE type::thing($tb, $id) SET
			name = $name,
			class = $class,
			item_level = $item_level,
			gems = $gems,
			engravings = $engravings,
			gear_set = IF $gear_set IS NOT NULL THEN $gear_set ELSE NONE END,
			updated_on = time::now()
	`
	result, err := r.db.QueryOne(ctx, query, characterVars(c))
	if err != nil {
		return err
	}
	if row, ok := asRow(result); ok {
		c.UpdatedOn = getTime(row, "updated_on")
	}
	return nil
}

// Delete removes the character and every roster entry that used it
func (r *CharacterRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"tb": tableCharacter, "id": id}
	return database.NewAtomicBatch().
		Add(`DELETE applicant WHERE character_id = $id`, vars).
		Add(`DELETE type::thing($tb, $id)`, vars).
		Execute(ctx, r.db)
}

// ListByOwner returns one user's characters in creation order
func (r *CharacterRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Character, error) {
	query := `SELECT * FROM type::table($tb) WHERE owner_id = $owner_id ORDER BY created_on ASC`
	vars := map[string]interface{}{"tb": tableCharacter, "owner_id": ownerID}
	return r.list(ctx, query, vars)
}

// ListAll returns every character in creation order
func (r *CharacterRepository) ListAll(ctx context.Context) ([]model.Character, error) {
	query := `SELECT * FROM type::table($tb) ORDER BY created_on ASC`
	return r.list(ctx, query, map[string]interface{}{"tb": tableCharacter})
}

func (r *CharacterRepository) list(ctx context.Context, query string, vars map[string]interface{}) ([]model.Character, error) {
	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	rows := resultRows(result, 0)
	out := make([]model.Character, 0, len(rows))
	for _, row := range rows {
		c, err := parseCharacterRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func characterVars(c *model.Character) map[string]interface{} {
	gems := make([]map[string]interface{}, 0, len(c.Gems))
	for _, g := range c.Gems {
		gems = append(gems, map[string]interface{}{
			"type":  string(g.Type),
			"level": g.Level,
			"skill": g.Skill,
		})
	}
	engravings := make([]map[string]interface{}, 0, len(c.Engravings))
	for _, e := range c.Engravings {
		engravings = append(engravings, map[string]interface{}{
			"name":  e.Name,
			"level": e.Level,
		})
	}

	vars := map[string]interface{}{
		"tb":         tableCharacter,
		"id":         c.ID,
		"name":       c.Name,
		"class":      string(c.Class),
		"item_level": c.ItemLevel,
		"gems":       gems,
		"engravings": engravings,
		"gear_set":   nil,
	}
	if c.GearSet != nil {
		vars["gear_set"] = *c.GearSet
	}
	return vars
}

func parseCharacterRow(row map[string]interface{}) (*model.Character, error) {
	c := &model.Character{
		ID:        recordKey(row["id"]),
		OwnerID:   getString(row, "owner_id"),
		Name:      getString(row, "name"),
		Class:     model.CharacterClass(getString(row, "class")),
		ItemLevel: getInt(row, "item_level"),
		GearSet:   getStringPtr(row, "gear_set"),
		CreatedOn: getTime(row, "created_on"),
		UpdatedOn: getTime(row, "updated_on"),
	}
	if err := decodeInto(row["gems"], &c.Gems); err != nil {
		return nil, fmt.Errorf("decode gems: %w", err)
	}
	if err := decodeInto(row["engravings"], &c.Engravings); err != nil {
		return nil, fmt.Errorf("decode engravings: %w", err)
	}
	return c, nil
}
