package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/metrics"
	"github.com/sakif/miniblog/internal/service"
	"github.com/sakif/miniblog/internal/session"
)

// PostHandler exposes the feed, single-post view, search, the caller's
// own posts, and the authenticated create/edit/delete operations.
type PostHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewPostHandler(posts *service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		posts:  posts,
		logger: logger,
	}
}

type postRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"max=100000"`
}

// HandleList returns the whole feed, newest first.
//
// HTTP: GET /api/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleGetByID returns a single post.
//
// HTTP: GET /api/posts/{id}
func (h *PostHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleSearch returns posts matching ?q= against title or author.
//
// HTTP: GET /api/posts/search?q=alice
// No matches is 200 with an empty array. An empty query matches
// everything, same as the feed.
func (h *PostHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleMyPosts returns the logged-in caller's posts.
//
// HTTP: GET /api/me/posts (auth required)
func (h *PostHandler) HandleMyPosts(w http.ResponseWriter, r *http.Request) {
	username, ok := session.UsernameFromContext(r.Context())
	if !ok {
		// RequireAuth guarantees a username on this route; guard anyway.
		writeError(w, apperror.Forbidden("login required"))
		return
	}

	posts, err := h.posts.ListByAuthor(r.Context(), username)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreate publishes a new post authored by the logged-in caller.
//
// HTTP: POST /api/posts (auth required)
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	username, ok := session.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("login required"))
		return
	}

	var req postRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.Create(r.Context(), req.Title, req.Content, username)
	if err != nil {
		writeError(w, err)
		return
	}

	metrics.PostsCreatedTotal.Inc()
	writeJSON(w, http.StatusCreated, post)
}

// HandleUpdate edits a post. Only the author gets through; anyone else
// answers 403 and the post stays as it was.
//
// HTTP: PUT /api/posts/{id} (auth required)
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	username, ok := session.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("login required"))
		return
	}

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req postRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Update(r.Context(), id, req.Title, req.Content, username); err != nil {
		writeError(w, err)
		return
	}

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// HandleDelete removes a post, under the same ownership rule as update.
//
// HTTP: DELETE /api/posts/{id} (auth required)
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := session.UsernameFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("login required"))
		return
	}

	id, err := postID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.posts.Delete(r.Context(), id, username); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// postID parses the {id} URL parameter.
func postID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed("id", "post id must be a positive integer")
	}
	return id, nil
}
