package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/lfg/internal/database"
	"github.com/forgo/lfg/internal/model"
)

// maxConflictRetries bounds retries of roster writes that lost a race.
const maxConflictRetries = 5

// PostRepository handles posts and their rosters in SurrealDB.
// Applicants live in their own table linked to the character record.
type PostRepository struct {
	db database.Database
}

// NewPostRepository creates a new post repository
func NewPostRepository(db database.Database) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a post under the id already set on p
func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `
		CREATE type::thing($tb, $id) CONTENT {
			title: $title,
			start_time: <datetime> $start_time,
			owner_id: $owner_id,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"tb":         tablePost,
		"id":         p.ID,
		"title":      p.Title,
		"start_time": formatTime(p.StartTime),
		"owner_id":   p.OwnerID,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}
	if row, ok := asRow(result); ok {
		p.CreatedOn = getTime(row, "created_on")
		p.UpdatedOn = getTime(row, "updated_on")
	}
	if p.Applicants == nil {
		p.Applicants = []model.Applicant{}
	}
	return nil
}

// GetByID retrieves a post with its roster, nil when absent
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	query := `
		SELECT * FROM type::thing($tb, $id);
		SELECT * FROM applicant WHERE post_id = $id ORDER BY joined_on ASC FETCH character;
	`
	vars := map[string]interface{}{"tb": tablePost, "id": id}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	posts := resultRows(result, 0)
	if len(posts) == 0 {
		return nil, nil
	}
	post := parsePostRow(posts[0])
	applicants, err := parseApplicantRows(resultRows(result, 1))
	if err != nil {
		return nil, err
	}
	post.Applicants = applicants[post.ID]
	if post.Applicants == nil {
		post.Applicants = []model.Applicant{}
	}
	return post, nil
}

// Update writes title and start time
func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	query := `
		UPDATE type::thing($tb, $id) SET
			title = $title,
			start_time = <datetime> $start_time,
			updated_on = time::now()
	`
	vars := map[string]interface{}{
		"tb":         tablePost,
		"id":         p.ID,
		"title":      p.Title,
		"start_time": formatTime(p.StartTime),
	}
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		return err
	}
	if row, ok := asRow(result); ok {
		p.UpdatedOn = getTime(row, "updated_on")
	}
	return nil
}

// Delete removes the post and its roster
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	vars := map[string]interface{}{"tb": tablePost, "id": id}
	return database.NewAtomicBatch().
		Add(`DELETE applicant WHERE post_id = $id`, vars).
		Add(`DELETE type::thing($tb, $id)`, vars).
		Execute(ctx, r.db)
}

// List returns every post with its roster, ordered by start time
func (r *PostRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `
		SELECT * FROM type::table($tb) ORDER BY start_time ASC;
		SELECT * FROM applicant ORDER BY joined_on ASC FETCH character;
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"tb": tablePost})
	if err != nil {
		return nil, err
	}

	applicants, err := parseApplicantRows(resultRows(result, 1))
	if err != nil {
		return nil, err
	}

	rows := resultRows(result, 0)
	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		p := parsePostRow(row)
		p.Applicants = applicants[p.ID]
		if p.Applicants == nil {
			p.Applicants = []model.Applicant{}
		}
		posts = append(posts, *p)
	}
	return posts, nil
}

// AddApplicant appends a roster entry. The capacity and uniqueness guards
// run in the same transaction as the insert.
func (r *PostRepository) AddApplicant(ctx context.Context, postID, userID, characterID string, capacity int) error {
	query := `
		LET $post = type::thing($post_tb, $post_id);
		IF array::len((SELECT id FROM $post)) = 0 { THROW "not_found: post" };
		IF array::len((SELECT id FROM type::thing($char_tb, $character_id))) = 0 { THROW "not_found: character" };
		IF array::len((SELECT id FROM applicant WHERE post_id = $post_id)) >= $capacity { THROW "roster_full" };
		IF array::len((SELECT id FROM applicant WHERE post_id = $post_id AND character_id = $character_id)) > 0 {
			THROW "duplicate: character already on roster"
		};
		CREATE applicant CONTENT {
			post_id: $post_id,
			user_id: $user_id,
			character_id: $character_id,
			character: type::thing($char_tb, $character_id),
			joined_on: time::now()
		}
	`
	vars := map[string]interface{}{
		"post_tb":      tablePost,
		"char_tb":      tableCharacter,
		"post_id":      postID,
		"user_id":      userID,
		"character_id": characterID,
		"capacity":     capacity,
	}

	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		err = database.NewAtomicBatch().Add(query, vars).Execute(ctx, r.db)
		if !errors.Is(err, database.ErrConflict) {
			return err
		}
	}
	return err
}

// RemoveApplicant deletes the entry matching both user and character.
// It reports whether anything was removed.
func (r *PostRepository) RemoveApplicant(ctx context.Context, postID, userID, characterID string) (bool, error) {
	query := `
		DELETE applicant
		WHERE post_id = $post_id AND user_id = $user_id AND character_id = $character_id
		RETURN BEFORE
	`
	vars := map[string]interface{}{
		"post_id":      postID,
		"user_id":      userID,
		"character_id": characterID,
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(resultRows(result, 0)) > 0, nil
}

func parsePostRow(row map[string]interface{}) *model.Post {
	return &model.Post{
		ID:        recordKey(row["id"]),
		Title:     getString(row, "title"),
		StartTime: getTime(row, "start_time"),
		OwnerID:   getString(row, "owner_id"),
		CreatedOn: getTime(row, "created_on"),
		UpdatedOn: getTime(row, "updated_on"),
	}
}

// parseApplicantRows groups fetched applicant rows by post id.
// Rows whose character was deleted concurrently are skipped.
func parseApplicantRows(rows []map[string]interface{}) (map[string][]model.Applicant, error) {
	out := make(map[string][]model.Applicant)
	for _, row := range rows {
		charRow, ok := row["character"].(map[string]interface{})
		if !ok {
			continue
		}
		c, err := parseCharacterRow(charRow)
		if err != nil {
			return nil, fmt.Errorf("applicant character: %w", err)
		}
		postID := getString(row, "post_id")
		out[postID] = append(out[postID], model.Applicant{
			UserID:    getString(row, "user_id"),
			Character: *c,
			JoinedOn:  getTime(row, "joined_on"),
		})
	}
	return out, nil
}
