package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

// Feed ordering: newest creation time first. Two posts created in the
// same instant fall back to descending id, which is descending creation
// order — rowids are strictly increasing.
const postOrder = ` ORDER BY date DESC, id DESC`

const postColumns = `id, author, date, title, content, edit`

// Create inserts a new post, assigning its id and stamping both
// timestamps with the same instant, so CreatedAt == LastEditedAt until
// the first edit. Timestamps are stored in UTC so their stored form
// sorts chronologically.
func (db *DB) Create(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.LastEditedAt = now

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO blogs (author, date, title, content, edit) VALUES (?, ?, ?, ?, ?)`,
		post.Author,
		post.CreatedAt,
		post.Title,
		post.Content,
		post.LastEditedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetByID retrieves a single post.
// Returns apperror.ErrNotFound if no row matches.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM blogs WHERE id = ?`, id,
	).Scan(&p.ID, &p.Author, &p.CreatedAt, &p.Title, &p.Content, &p.LastEditedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	return &p, nil
}

// ListAll returns every post, newest first.
func (db *DB) ListAll(ctx context.Context) ([]model.Post, error) {
	return db.queryPosts(ctx, `SELECT `+postColumns+` FROM blogs`+postOrder)
}

// ListByAuthor returns the author's posts, newest first. An unknown
// author simply yields an empty slice.
func (db *DB) ListByAuthor(ctx context.Context, username string) ([]model.Post, error) {
	return db.queryPosts(ctx,
		`SELECT `+postColumns+` FROM blogs WHERE author = ?`+postOrder, username)
}

// Search returns posts whose title or author contains the query as a
// case-insensitive substring (SQLite's LIKE is case-insensitive for
// ASCII). The query is escaped so % and _ match themselves instead of
// acting as wildcards; an empty query therefore matches every post.
func (db *DB) Search(ctx context.Context, query string) ([]model.Post, error) {
	pattern := "%" + escapeLike(query) + "%"
	return db.queryPosts(ctx,
		`SELECT `+postColumns+` FROM blogs
		 WHERE title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\'`+postOrder,
		pattern, pattern)
}

// Update rewrites title and content and advances the edit timestamp —
// but only for the post's author.
//
// The existence lookup, ownership check, and UPDATE run inside a single
// transaction, so there is no window between "requester owns the post"
// and the mutation in which a concurrent delete or edit could interleave.
func (db *DB) Update(ctx context.Context, id int64, title, content, requester string) error {
	return db.withOwnedPost(ctx, id, requester, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE blogs SET title = ?, content = ?, edit = ? WHERE id = ?`,
			title, content, time.Now().UTC(), id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating post %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the post under the same transactional ownership rules
// as Update.
func (db *DB) Delete(ctx context.Context, id int64, requester string) error {
	return db.withOwnedPost(ctx, id, requester, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
		}
		return nil
	})
}

// withOwnedPost looks up the post's author inside a transaction, verifies
// the requester owns it, runs fn, and commits. NotFound and Forbidden
// leave the database untouched (the deferred Rollback is a no-op after a
// successful Commit).
func (db *DB) withOwnedPost(ctx context.Context, id int64, requester string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning post transaction: %w", err)
	}
	defer tx.Rollback()

	var author string
	err = tx.QueryRowContext(ctx, `SELECT author FROM blogs WHERE id = ?`, id).Scan(&author)
	if err != nil {
		if err == sql.ErrNoRows {
			return apperror.NotFound("post", strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("sqlite: looking up post %d: %w", id, err)
	}

	if author != requester {
		return apperror.Forbidden("only the author may modify this post")
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing post transaction: %w", err)
	}
	return nil
}

// queryPosts runs a multi-row post query and scans the results.
func (db *DB) queryPosts(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying posts: %w", err)
	}
	defer rows.Close()

	posts := make([]model.Post, 0, 16)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Author, &p.CreatedAt, &p.Title, &p.Content, &p.LastEditedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	// rows.Err catches failures that happened during iteration, e.g. the
	// connection dropping mid-scan.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}

	return posts, nil
}

// escapeLike makes a user-supplied string safe inside a LIKE pattern by
// escaping the wildcard characters and the escape character itself.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
