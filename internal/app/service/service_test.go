package service

import (
	"context"
	"testing"
	"time"

	"draftpress/internal/common/security"
	"draftpress/internal/domain/repository"
	"draftpress/internal/platform/llm"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type fakeGenerator struct {
	draft *llm.Draft
	err   error
	delay time.Duration

	calls     int
	lastTopic string
	lastStyle string
}

func (g *fakeGenerator) GenerateBlogPost(ctx context.Context, topic, style string) (*llm.Draft, error) {
	g.calls++
	g.lastTopic, g.lastStyle = topic, style
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.draft, nil
}

type testEnv struct {
	store    *repository.MemoryStore
	creds    *CredentialStore
	tokens   *security.TokenService
	auth     *AuthService
	posts    *PostService
	generate *GenerateService
	gen      *fakeGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	store := repository.NewMemoryStore()
	tokens := security.NewTokenService([]byte("test-secret"), time.Hour)
	creds := NewCredentialStore(store.Users(), hasher)
	posts := NewPostService(store.Posts(), logger)
	gen := &fakeGenerator{draft: &llm.Draft{Title: "Generated Title", Content: "Generated body."}}

	return &testEnv{
		store:    store,
		creds:    creds,
		tokens:   tokens,
		auth:     NewAuthService(creds, tokens, logger),
		posts:    posts,
		generate: NewGenerateService(gen, posts, time.Second, logger),
		gen:      gen,
	}
}

func (e *testEnv) signup(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := e.auth.Signup(context.Background(), SignupRequest{Email: email, Password: "secret1"})
	require.NoError(t, err)
	return resp
}

func ptr[T any](v T) *T { return &v }
