package service

import (
	"context"
	"errors"
	"fmt"

	"draftpress/internal/common"
	"draftpress/internal/domain/model"

	"go.uber.org/zap"
)

// TokenIssuer mints a bearer token for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthService struct {
	creds  *CredentialStore
	tokens TokenIssuer
	logger *zap.Logger
}

func NewAuthService(creds *CredentialStore, tokens TokenIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{creds: creds, tokens: tokens, logger: logger}
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,address"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (r SignupRequest) validate() error {
	vErrs := fieldErrors(structValidator.Struct(r))
	switch {
	case len(vErrs) == 0:
		return nil
	case hasTag(vErrs, "required"):
		return common.NewValidationError(msgProvideCredentials, failedFields(vErrs)...)
	case hasTag(vErrs, "address"):
		return common.NewValidationError(msgInvalidEmail, "email")
	default:
		return common.NewValidationError(msgShortPassword, "password")
	}
}

func (r LoginRequest) validate() error {
	if vErrs := fieldErrors(structValidator.Struct(r)); len(vErrs) > 0 {
		return common.NewValidationError(msgProvideCredentials, failedFields(vErrs)...)
	}
	return nil
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	user, err := s.creds.Create(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID))
	return &AuthResponse{User: user.Public(), Token: token}, nil
}

// Login never reveals which of email or password was wrong.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	user, err := s.creds.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.creds.VerifyPassword(nil, req.Password)
			s.logger.Debug("login rejected", zap.String("reason", "unknown email"))
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.creds.VerifyPassword(user, req.Password) {
		s.logger.Debug("login rejected", zap.String("reason", "password mismatch"), zap.String("user_id", user.ID))
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user.Public(), Token: token}, nil
}
