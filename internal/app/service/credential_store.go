package service

import (
	"context"
	"errors"
	"fmt"

	"draftpress/internal/common"
	"draftpress/internal/common/security"
	"draftpress/internal/domain/model"
	"draftpress/internal/domain/repository"

	"github.com/google/uuid"
)

// CredentialStore owns user records and the password hash/verify algorithm.
type CredentialStore struct {
	users  repository.UserRepository
	hasher *security.PasswordHasher
}

func NewCredentialStore(users repository.UserRepository, hasher *security.PasswordHasher) *CredentialStore {
	return &CredentialStore{users: users, hasher: hasher}
}

// Create hashes the password and persists a new user. Format rules for email and password
// belong to the caller; this only checks presence and uniqueness.
func (s *CredentialStore) Create(ctx context.Context, email, password string) (*model.User, error) {
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return nil, common.NewValidationError(msgProvideCredentials, missing...)
	}

	// Cheap pre-check so a duplicate does not pay for bcrypt; the unique index still decides races.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("user with email %q already exists: %w", email, common.ErrDuplicateKey)
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := s.hasher.HashPassword(password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return nil, common.NewValidationError(msgLongPassword, "password")
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// FindByEmail returns the full record, hash included. Only the login flow may see the hash.
func (s *CredentialStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.users.FindByEmail(ctx, email)
}

func (s *CredentialStore) FindByID(ctx context.Context, id string) (*model.User, error) {
	return s.users.FindByID(ctx, id)
}

// VerifyPassword compares candidate against the stored hash. A nil user still costs one comparison.
func (s *CredentialStore) VerifyPassword(user *model.User, candidate string) bool {
	if user == nil {
		s.hasher.BurnCompare(candidate)
		return false
	}
	return s.hasher.CheckPasswordHash(candidate, user.HashedPassword)
}
