package repository

import (
	"context"
	"fmt"

	"github.com/forgo/lfg/internal/database"
)

// schema holds the SurrealDB indexes the repositories rely on.
// Every statement is idempotent.
const schema = `
	DEFINE INDEX IF NOT EXISTS character_owner ON TABLE character FIELDS owner_id;
	DEFINE INDEX IF NOT EXISTS post_start_time ON TABLE lfg_post FIELDS start_time;
	DEFINE INDEX IF NOT EXISTS applicant_post ON TABLE applicant FIELDS post_id;
	DEFINE INDEX IF NOT EXISTS applicant_character ON TABLE applicant FIELDS character_id;
	DEFINE INDEX IF NOT EXISTS applicant_unique ON TABLE applicant FIELDS post_id, character_id UNIQUE;
`

// DefineSchema creates the indexes used by the board repositories
func DefineSchema(ctx context.Context, db database.Database) error {
	if err := db.Execute(ctx, schema, nil); err != nil {
		return fmt.Errorf("define schema: %w", err)
	}
	return nil
}
