// Package repository defines the storage interfaces the services depend
// on. Services receive these interfaces, never a concrete *sqlite.DB —
// tests inject in-memory mocks, and the storage backend can change without
// touching business logic.
package repository

import (
	"context"

	"github.com/sakif/miniblog/internal/model"
)

type UserRepository interface {
	// Create inserts a new user and fills in its ID.
	// Returns apperror.ErrConflict if the username is already taken.
	Create(ctx context.Context, user *model.User) error

	// GetByUsername returns apperror.ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type PostRepository interface {
	// Create inserts a new post, assigning its ID and stamping
	// CreatedAt == LastEditedAt.
	Create(ctx context.Context, post *model.Post) error

	GetByID(ctx context.Context, id int64) (*model.Post, error)

	// ListAll returns every post, newest first (creation time descending,
	// ties broken by descending id).
	ListAll(ctx context.Context) ([]model.Post, error)

	// ListByAuthor returns the author's posts in the same order. An
	// author with no posts yields an empty slice, not an error.
	ListByAuthor(ctx context.Context, username string) ([]model.Post, error)

	// Search returns posts whose title or author contains the query as a
	// case-insensitive substring, newest first.
	Search(ctx context.Context, query string) ([]model.Post, error)

	// Update rewrites title and content and advances LastEditedAt, but
	// only if requester owns the post. The lookup, ownership check, and
	// mutation happen in one transaction: a non-owner gets
	// apperror.ErrForbidden and the row is guaranteed untouched.
	Update(ctx context.Context, id int64, title, content, requester string) error

	// Delete removes the post under the same transactional ownership
	// rules as Update.
	Delete(ctx context.Context, id int64, requester string) error
}
