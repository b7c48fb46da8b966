package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"draftpress/internal/common"
	"draftpress/internal/domain/model"
	"draftpress/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type PostService struct {
	posts  repository.PostRepository
	logger *zap.Logger
}

func NewPostService(posts repository.PostRepository, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	IsDraft *bool  `json:"isDraft"`
}

// UpdatePostRequest is a partial update; absent fields keep their stored value.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
	IsDraft *bool   `json:"isDraft"`
}

type postInput struct {
	Title   string `json:"title" validate:"required,max=100"`
	Content string `json:"content" validate:"required"`
}

func (s *PostService) List(ctx context.Context, ownerID string) ([]model.Post, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	posts, err := s.posts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, common.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) Get(ctx context.Context, ownerID, postID string) (*model.Post, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	if !isPostID(postID) {
		return nil, common.ErrNotFound
	}
	return s.posts.FindByID(ctx, ownerID, postID)
}

func (s *PostService) Create(ctx context.Context, ownerID string, req CreatePostRequest) (*model.Post, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	in := postInput{
		Title:   strings.TrimSpace(req.Title),
		Content: strings.TrimSpace(req.Content),
	}
	if vErrs := fieldErrors(structValidator.Struct(in)); len(vErrs) > 0 {
		if hasTag(vErrs, "required") {
			return nil, common.NewValidationError(msgProvidePost, failedFields(vErrs)...)
		}
		return nil, common.NewValidationError(msgTitleTooLong, "title")
	}

	post := &model.Post{
		ID:      uuid.NewString(),
		Title:   in.Title,
		Slug:    slug.Make(in.Title),
		Content: in.Content,
		OwnerID: ownerID,
		IsDraft: true,
	}
	if req.IsDraft != nil {
		post.IsDraft = *req.IsDraft
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, common.Errorf("failed to create post: %w", err)
	}
	s.logger.Debug("post created", zap.String("post_id", post.ID), zap.String("user_id", ownerID))
	return post, nil
}

func (s *PostService) Update(ctx context.Context, ownerID, postID string, req UpdatePostRequest) (*model.Post, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	if !isPostID(postID) {
		return nil, common.ErrNotFound
	}

	patch, err := req.patch()
	if err != nil {
		return nil, err
	}
	return s.posts.Update(ctx, ownerID, postID, patch)
}

func (s *PostService) Delete(ctx context.Context, ownerID, postID string) error {
	if ownerID == "" {
		return common.ErrUnauthorized
	}
	if !isPostID(postID) {
		return common.ErrNotFound
	}
	if err := s.posts.Delete(ctx, ownerID, postID); err != nil {
		return err
	}
	s.logger.Debug("post deleted", zap.String("post_id", postID), zap.String("user_id", ownerID))
	return nil
}

// patch validates the supplied fields and turns them into a repository patch.
// A new title also regenerates the slug.
func (r UpdatePostRequest) patch() (model.PostPatch, error) {
	var p model.PostPatch
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return p, common.NewValidationError(msgTitleEmpty, "title")
		}
		if utf8.RuneCountInString(title) > model.MaxPostTitleLength {
			return p, common.NewValidationError(msgTitleTooLong, "title")
		}
		s := slug.Make(title)
		p.Title, p.Slug = &title, &s
	}
	if r.Content != nil {
		content := strings.TrimSpace(*r.Content)
		if content == "" {
			return p, common.NewValidationError(msgContentEmpty, "content")
		}
		p.Content = &content
	}
	p.IsDraft = r.IsDraft
	if p.Empty() {
		return p, common.NewValidationError(msgNothingToUpdate)
	}
	return p, nil
}

// Post ids are canonical UUIDs; anything else cannot name a stored post.
func isPostID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n]))
}
