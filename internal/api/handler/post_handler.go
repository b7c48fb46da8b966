package handler

import (
	"net/http"

	"draftpress/internal/app/service"
	"draftpress/internal/common"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PostHandler serves the caller's own posts. Routes must sit behind the authenticator.
type PostHandler struct {
	postService *service.PostService
	logger      *zap.Logger
}

func NewPostHandler(ps *service.PostService, logger *zap.Logger) *PostHandler {
	return &PostHandler{postService: ps, logger: logger}
}

func (h *PostHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listPosts)
	r.Post("/", h.createPost)
	r.Get("/{postID}", h.getPost)
	r.Patch("/{postID}", h.updatePost)
	r.Delete("/{postID}", h.deletePost)
}

func (h *PostHandler) listPosts(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	posts, err := h.postService.List(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) createPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req service.CreatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) getPost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	post, err := h.postService.Get(r.Context(), userID, chi.URLParam(r, "postID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) updatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}

	var req service.UpdatePostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	post, err := h.postService.Update(r.Context(), userID, chi.URLParam(r, "postID"), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, post)
}

func (h *PostHandler) deletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	if err := h.postService.Delete(r.Context(), userID, chi.URLParam(r, "postID")); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	common.RespondNoContent(w)
}
