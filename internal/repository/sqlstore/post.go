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

// PostRepository stores posts and their rosters
type PostRepository struct {
	conn
}

// Create inserts a post under the id already set on p
func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	now := toNanos(time.Now())
	query := `
		INSERT INTO posts (id, title, start_time, owner_id, created_on, updated_on)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := r.db.ExecContext(ctx, r.q(query), p.ID, p.Title, toNanos(p.StartTime), p.OwnerID, now, now); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: post %s", database.ErrDuplicate, p.ID)
		}
		return fmt.Errorf("%w: create post: %v", database.ErrQuery, err)
	}

	p.CreatedOn = fromNanos(now)
	p.UpdatedOn = p.CreatedOn
	if p.Applicants == nil {
		p.Applicants = []model.Applicant{}
	}
	return nil
}

// GetByID retrieves a post with its roster, nil when absent
func (r *PostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	query := `SELECT id, title, start_time, owner_id, created_on, updated_on FROM posts WHERE id = ?`

	p, err := scanPost(r.db.QueryRowContext(ctx, r.q(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get post: %v", database.ErrQuery, err)
	}

	rosters, err := r.applicants(ctx, r.db, &id)
	if err != nil {
		return nil, err
	}
	p.Applicants = rosterOf(rosters, p.ID)
	return p, nil
}

// Update writes title and start time
func (r *PostRepository) Update(ctx context.Context, p *model.Post) error {
	now := toNanos(time.Now())
	query := `UPDATE posts SET title = ?, start_time = ?, updated_on = ? WHERE id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), p.Title, toNanos(p.StartTime), now, p.ID)
	if err != nil {
		return fmt.Errorf("%w: update post: %v", database.ErrQuery, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return database.ErrNotFound
	}
	p.UpdatedOn = fromNanos(now)
	return nil
}

// Delete removes the post and its roster
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM applicants WHERE post_id = ?`), id); err != nil {
			return fmt.Errorf("%w: delete roster: %v", database.ErrQuery, err)
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM posts WHERE id = ?`), id); err != nil {
			return fmt.Errorf("%w: delete post: %v", database.ErrQuery, err)
		}
		return nil
	})
}

// List returns every post with its roster, ordered by start time
func (r *PostRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `SELECT id, title, start_time, owner_id, created_on, updated_on FROM posts ORDER BY start_time, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", database.ErrQuery, err)
	}
	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("%w: scan post: %v", database.ErrQuery, err)
		}
		posts = append(posts, *p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list posts: %v", database.ErrQuery, err)
	}

	rosters, err := r.applicants(ctx, r.db, nil)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Applicants = rosterOf(rosters, posts[i].ID)
	}
	return posts, nil
}

// AddApplicant appends a roster entry. The post row is locked while the
// capacity and uniqueness guards run.
func (r *PostRepository) AddApplicant(ctx context.Context, postID, userID, characterID string, capacity int) error {
	return database.WithTx(ctx, r.db, func(ctx context.Context, tx database.DBTX) error {
		var id string
		err := tx.QueryRowContext(ctx, r.q(`SELECT id FROM posts WHERE id = ?`+r.dialect.LockSuffix()), postID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: post %s", database.ErrNotFound, postID)
		}
		if err != nil {
			return fmt.Errorf("%w: lock post: %v", database.ErrQuery, err)
		}

		err = tx.QueryRowContext(ctx, r.q(`SELECT id FROM characters WHERE id = ?`), characterID).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: character %s", database.ErrNotFound, characterID)
		}
		if err != nil {
			return fmt.Errorf("%w: find character: %v", database.ErrQuery, err)
		}

		var taken, mine int
		err = tx.QueryRowContext(ctx, r.q(`
			SELECT COUNT(*), COALESCE(SUM(CASE WHEN character_id = ? THEN 1 ELSE 0 END), 0)
			FROM applicants WHERE post_id = ?
		`), characterID, postID).Scan(&taken, &mine)
		if err != nil {
			return fmt.Errorf("%w: count roster: %v", database.ErrQuery, err)
		}
		if mine > 0 {
			return fmt.Errorf("%w: character already on roster", database.ErrDuplicate)
		}
		if taken >= capacity {
			return fmt.Errorf("%w: roster holds %d", database.ErrLimitExceeded, capacity)
		}

		_, err = tx.ExecContext(ctx, r.q(`
			INSERT INTO applicants (post_id, user_id, character_id, joined_on) VALUES (?, ?, ?, ?)
		`), postID, userID, characterID, toNanos(time.Now()))
		if err != nil {
			if database.IsUniqueViolation(err) {
				return fmt.Errorf("%w: character already on roster", database.ErrDuplicate)
			}
			return fmt.Errorf("%w: add applicant: %v", database.ErrQuery, err)
		}
		return nil
	})
}

// RemoveApplicant deletes the entry matching both user and character.
// It reports whether anything was removed.
func (r *PostRepository) RemoveApplicant(ctx context.Context, postID, userID, characterID string) (bool, error) {
	query := `DELETE FROM applicants WHERE post_id = ? AND user_id = ? AND character_id = ?`

	res, err := r.db.ExecContext(ctx, r.q(query), postID, userID, characterID)
	if err != nil {
		return false, fmt.Errorf("%w: remove applicant: %v", database.ErrQuery, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: remove applicant: %v", database.ErrQuery, err)
	}
	return n > 0, nil
}

// applicants loads rosters with the current character data, grouped by
// post id. A nil postID loads every roster.
func (r *PostRepository) applicants(ctx context.Context, q database.DBTX, postID *string) (map[string][]model.Applicant, error) {
	query := `
		SELECT a.post_id, a.user_id, a.joined_on, ` + characterColumns + `
		FROM applicants a
		JOIN characters c ON c.id = a.character_id`
	var args []any
	if postID != nil {
		query += ` WHERE a.post_id = ?`
		args = append(args, *postID)
	}
	query += ` ORDER BY a.joined_on, a.character_id`

	rows, err := q.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: load rosters: %v", database.ErrQuery, err)
	}
	defer rows.Close()

	out := make(map[string][]model.Applicant)
	for rows.Next() {
		var (
			postID, userID string
			joined         int64
		)
		c, err := scanCharacter(prefixScanner{rows: rows, prefix: []any{&postID, &userID, &joined}})
		if err != nil {
			return nil, fmt.Errorf("%w: scan applicant: %v", database.ErrQuery, err)
		}
		out[postID] = append(out[postID], model.Applicant{
			UserID:    userID,
			Character: *c,
			JoinedOn:  fromNanos(joined),
		})
	}
	return out, rows.Err()
}

// prefixScanner scans leading columns into prefix before the caller's dest.
type prefixScanner struct {
	rows   *sql.Rows
	prefix []any
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.rows.Scan(append(p.prefix, dest...)...)
}

func rosterOf(rosters map[string][]model.Applicant, postID string) []model.Applicant {
	if r := rosters[postID]; r != nil {
		return r
	}
	return []model.Applicant{}
}

func scanPost(s rowScanner) (*model.Post, error) {
	var (
		p                       model.Post
		start, created, updated int64
	)
	if err := s.Scan(&p.ID, &p.Title, &start, &p.OwnerID, &created, &updated); err != nil {
		return nil, err
	}
	p.StartTime = fromNanos(start)
	p.CreatedOn = fromNanos(created)
	p.UpdatedOn = fromNanos(updated)
	return &p, nil
}
