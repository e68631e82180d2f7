package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 100000 // ~100KB of text
)

// PostService handles business logic for blog posts: validation,
// author-scoped views, and delegation of the ownership-checked mutations
// to the repository.
type PostService struct {
	repo   repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService. The caller decides which
// repository implementation to inject (sqlite in production, a mock in
// tests).
func NewPostService(repo repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates and saves a new post for the given author. The
// returned post has its id and timestamps filled in, with
// CreatedAt == LastEditedAt.
func (s *PostService) Create(ctx context.Context, title, content, author string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}
	if author == "" {
		return nil, apperror.ValidationFailed("author", "author is required")
	}

	post := &model.Post{
		Author:  author,
		Title:   title,
		Content: content,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("author", author),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("id", post.ID),
		slog.String("author", post.Author),
	)
	return post, nil
}

// GetByID retrieves a post. Returns apperror.ErrNotFound if it doesn't exist.
func (s *PostService) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	return s.repo.GetByID(ctx, id)
}

// ListAll returns the full feed, newest first.
func (s *PostService) ListAll(ctx context.Context) ([]model.Post, error) {
	posts, err := s.repo.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns one author's posts, newest first. An author with
// no posts gets an empty slice, not an error.
func (s *PostService) ListByAuthor(ctx context.Context, username string) ([]model.Post, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperror.ValidationFailed("author", "author is required")
	}

	posts, err := s.repo.ListByAuthor(ctx, username)
	if err != nil {
		s.logger.Error("failed to list posts by author",
			slog.String("author", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing posts by author: %w", err)
	}
	return posts, nil
}

// Search returns posts whose title or author contains the query as a
// case-insensitive substring. No matches is success with an empty slice.
// An empty query matches everything.
func (s *PostService) Search(ctx context.Context, query string) ([]model.Post, error) {
	posts, err := s.repo.Search(ctx, query)
	if err != nil {
		s.logger.Error("search failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching posts: %w", err)
	}
	return posts, nil
}

// Update rewrites a post's title and content and advances LastEditedAt.
//
// Only the author may edit: anyone else gets apperror.ErrForbidden and
// the post is left untouched. The check happens atomically with the
// mutation inside the repository.
func (s *PostService) Update(ctx context.Context, id int64, title, content, requester string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	if len(content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}
	if requester == "" {
		return apperror.Forbidden("only the author may modify this post")
	}

	if err := s.repo.Update(ctx, id, title, content, requester); err != nil {
		return err
	}

	s.logger.Info("post updated",
		slog.Int64("id", id),
		slog.String("requester", requester),
	)
	return nil
}

// Delete removes a post under the same ownership rules as Update.
func (s *PostService) Delete(ctx context.Context, id int64, requester string) error {
	if requester == "" {
		return apperror.Forbidden("only the author may modify this post")
	}

	if err := s.repo.Delete(ctx, id, requester); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.Int64("id", id),
		slog.String("requester", requester),
	)
	return nil
}
