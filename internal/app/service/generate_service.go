package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"draftpress/internal/common"
	"draftpress/internal/domain/model"
	"draftpress/internal/platform/llm"

	"go.uber.org/zap"
)

const DefaultGenerationTimeout = 30 * time.Second

type GenerateRequest struct {
	Topic string `json:"topic" validate:"required"`
	Style string `json:"style" validate:"required,oneof=professional casual technical"`
}

func (r GenerateRequest) validate() error {
	vErrs := fieldErrors(structValidator.Struct(r))
	switch {
	case len(vErrs) == 0:
		return nil
	case hasTag(vErrs, "required"):
		return common.NewValidationError(msgProvideTopicStyle, failedFields(vErrs)...)
	default:
		return common.NewValidationError(msgInvalidStyle, "style")
	}
}

// GenerateService asks the generator for a draft and stores it for the caller.
type GenerateService struct {
	generator llm.Generator
	posts     *PostService
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGenerateService(generator llm.Generator, posts *PostService, timeout time.Duration, logger *zap.Logger) *GenerateService {
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	return &GenerateService{generator: generator, posts: posts, timeout: timeout, logger: logger}
}

func (s *GenerateService) Generate(ctx context.Context, ownerID string, req GenerateRequest) (*model.Post, error) {
	if ownerID == "" {
		return nil, common.ErrUnauthorized
	}
	req.Topic = strings.TrimSpace(req.Topic)
	req.Style = strings.TrimSpace(req.Style)
	if err := req.validate(); err != nil {
		return nil, err
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	draft, err := s.generator.GenerateBlogPost(genCtx, req.Topic, req.Style)
	if err != nil {
		s.logger.Error("generation failed",
			zap.String("user_id", ownerID),
			zap.String("style", req.Style),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, err)
	}

	title := truncateRunes(strings.TrimSpace(draft.Title), model.MaxPostTitleLength)
	if title == "" {
		title = truncateRunes("Blog Post About "+req.Topic, model.MaxPostTitleLength)
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil, fmt.Errorf("%w: %v", common.ErrUpstream, llm.ErrEmptyCompletion)
	}

	isDraft := true
	post, err := s.posts.Create(ctx, ownerID, CreatePostRequest{
		Title:   title,
		Content: draft.Content,
		IsDraft: &isDraft,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("draft generated",
		zap.String("post_id", post.ID),
		zap.String("user_id", ownerID),
		zap.Duration("elapsed", time.Since(start)))
	return post, nil
}
