package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// Create inserts a new user and fills in the generated id.
//
// The duplicate check and the insert run in one transaction. Checking
// first (instead of decoding the driver's UNIQUE-violation error) gives a
// clean apperror.ErrConflict without string-matching on driver messages;
// the transaction closes the window where two concurrent registrations of
// the same username could both pass the check. The UNIQUE constraint on
// username remains as the backstop.
func (db *UserStore) Create(ctx context.Context, user *model.User) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning user insert: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM users WHERE username = ?`, user.Username,
	).Scan(&existing)
	if err == nil {
		return apperror.Conflict("user", user.Username)
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: checking username %q: %w", user.Username, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, displayName, password) VALUES (?, ?, ?)`,
		user.Username,
		user.DisplayName,
		user.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new user id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing user insert: %w", err)
	}

	user.ID = id
	return nil
}

// GetByUsername retrieves a user by username.
// Returns apperror.ErrNotFound if no such user exists.
func (db *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, displayName, password FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash)
	if err != nil {
		// sql.ErrNoRows is a sentinel, not a database fault — translate
		// it to the domain's NotFound.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user %q: %w", username, err)
	}

	return &u, nil
}

// GetByID retrieves a user by internal id.
func (db *UserStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, username, displayName, password FROM users WHERE id = ?`,
		id,
	).Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting user %d: %w", id, err)
	}

	return &u, nil
}
