package security

import (
	"context"
	"errors"
	"time"

	"draftpress/internal/common"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTokenTTL = 24 * time.Hour

	claimUserID = "user_id"
)

// TokenService issues and verifies HS256 identity tokens signed with a server-held secret.
type TokenService struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

// JWTAuth exposes the verifier for jwtauth.Verify in the router.
func (s *TokenService) JWTAuth() *jwtauth.JWTAuth { return s.auth }

func (s *TokenService) Issue(userID string) (string, error) {
	return s.IssueWithTTL(userID, s.ttl)
}

func (s *TokenService) IssueWithTTL(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", common.Errorf("cannot issue token without subject: %w", common.ErrValidation)
	}
	now := s.now()
	claims := jwt.MapClaims{
		claimUserID: userID,
		"exp":       now.Add(ttl).Unix(),
		"iat":       now.Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

// Verify returns the identity named by tokenString.
func (s *TokenService) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", common.ErrTokenMissing
	}
	token, err := jwtauth.VerifyToken(s.auth, tokenString)
	if err != nil {
		return "", ClassifyTokenError(err)
	}
	if token == nil {
		return "", common.ErrTokenInvalid
	}
	claims, err := token.AsMap(context.Background())
	if err != nil {
		return "", common.ErrTokenInvalid
	}
	return GetUserIDFromClaims(claims)
}

// ClassifyTokenError folds jwtauth verification errors into the three token conditions.
func ClassifyTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwtauth.ErrNoTokenFound):
		return common.ErrTokenMissing
	case errors.Is(err, jwtauth.ErrExpired):
		return common.ErrTokenExpired
	default:
		return common.ErrTokenInvalid
	}
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims[claimUserID].(string)
	if !ok || id == "" {
		return "", common.ErrTokenInvalid
	}
	return id, nil
}
