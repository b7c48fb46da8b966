package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"draftpress/internal/api/middleware"
	"draftpress/internal/app/service"
	"draftpress/internal/common/security"
	"draftpress/internal/domain/repository"
	"draftpress/internal/platform/llm"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
)

type staticGenerator struct{}

func (staticGenerator) GenerateBlogPost(_ context.Context, topic, _ string) (*llm.Draft, error) {
	return &llm.Draft{Title: "All About " + topic, Content: "Some words on " + topic + "."}, nil
}

type testServer struct {
	handler http.Handler
	store   *repository.MemoryStore
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type postBody struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	UserID  string `json:"userId"`
	IsDraft bool   `json:"isDraft"`
}

func newTestServer(t *testing.T, limiter middleware.Limiter) *testServer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	hasher, err := security.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	tokens := security.NewTokenService([]byte("test-secret"), time.Hour)
	creds := service.NewCredentialStore(store.Users(), hasher)
	posts := service.NewPostService(store.Posts(), logger)

	h := NewRouter(RouterDeps{
		AuthService:     service.NewAuthService(creds, tokens, logger),
		PostService:     posts,
		GenerateService: service.NewGenerateService(staticGenerator{}, posts, time.Second, logger),
		Users:           creds,
		TokenAuth:       tokens.JWTAuth(),
		Limiter:         limiter,
		AllowedOrigins:  []string{"*"},
		Logger:          logger,
	})
	return &testServer{handler: h, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (s *testServer) signup(t *testing.T, email string) (token, userID string) {
	t.Helper()
	rec, env := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": email, "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Token, data.User.ID
}

func decodePost(t *testing.T, env envelope) postBody {
	t.Helper()
	var p postBody
	require.NoError(t, json.Unmarshal(env.Data, &p))
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@b.co", "password": "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.NotContains(t, string(env.Data), "password")
	assert.NotContains(t, string(env.Data), "hashed")

	rec, env = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "a@b.co", "password": "another1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already exists", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.co", "password": "another1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{"email": "bad", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email format", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/auth/signup", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide email and password", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.co", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.NotEmpty(t, login.Token)

	recWrong, envWrong := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.co", "password": "nope-nope"})
	recUnknown, envUnknown := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@b.co", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, recWrong.Code)
	assert.Equal(t, recWrong.Code, recUnknown.Code)
	assert.Equal(t, "Invalid credentials", envWrong.Error)
	assert.Equal(t, envWrong.Error, envUnknown.Error)

	rec, env = s.do(t, http.MethodPost, "/api/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request payload", env.Error)
}

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t, nil)
	token, userID := s.signup(t, "a@b.co")

	rec, env := s.do(t, http.MethodPost, "/api/posts", token, map[string]string{"title": "T", "content": "C"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodePost(t, env)
	assert.True(t, created.IsDraft)
	assert.Equal(t, userID, created.UserID)

	rec, env = s.do(t, http.MethodGet, "/api/posts", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []postBody
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rec, env = s.do(t, http.MethodPatch, "/api/posts/"+created.ID, token, map[string]bool{"isDraft": false})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodePost(t, env)
	assert.False(t, updated.IsDraft)
	assert.Equal(t, "T", updated.Title)

	rec, _ = s.do(t, http.MethodDelete, "/api/posts/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec, env = s.do(t, http.MethodGet, "/api/posts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", env.Error)
}

func TestPostsAreIsolatedPerUser(t *testing.T) {
	s := newTestServer(t, nil)
	alice, _ := s.signup(t, "alice@b.co")
	bob, _ := s.signup(t, "bob@b.co")

	rec, env := s.do(t, http.MethodPost, "/api/posts", alice, map[string]string{"title": "Private", "content": "C"})
	require.Equal(t, http.StatusCreated, rec.Code)
	post := decodePost(t, env)

	for _, tc := range []struct {
		method string
		body   interface{}
	}{
		{http.MethodGet, nil},
		{http.MethodPatch, map[string]string{"title": "Mine now"}},
		{http.MethodDelete, nil},
	} {
		rec, env := s.do(t, tc.method, "/api/posts/"+post.ID, bob, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.method)
		assert.Equal(t, "Post not found", env.Error, tc.method)
	}

	rec, env = s.do(t, http.MethodGet, "/api/posts", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	rec, env = s.do(t, http.MethodGet, "/api/posts/"+post.ID, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Private", decodePost(t, env).Title)
}

func TestPostValidation(t *testing.T) {
	s := newTestServer(t, nil)
	token, _ := s.signup(t, "a@b.co")

	rec, env := s.do(t, http.MethodPost, "/api/posts", token, map[string]string{"title": "T"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide title and content", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/posts", token, `{"title":"T","content":"C","isDraft":"yes"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "isDraft")

	rec, env = s.do(t, http.MethodGet, "/api/posts/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", env.Error)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/posts"},
		{http.MethodPost, "/api/posts"},
		{http.MethodGet, "/api/posts/00000000-0000-0000-0000-000000000000"},
		{http.MethodPost, "/api/generate"},
	} {
		rec, env := s.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
		assert.Equal(t, "Not logged in", env.Error, tc.path)
	}

	rec, env := s.do(t, http.MethodGet, "/api/posts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not logged in", env.Error)
}

func TestDeletedUserToken(t *testing.T) {
	s := newTestServer(t, nil)
	token, userID := s.signup(t, "a@b.co")
	s.store.DeleteUser(userID)

	rec, env := s.do(t, http.MethodGet, "/api/posts", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User no longer exists", env.Error)
}

func TestGenerate(t *testing.T) {
	s := newTestServer(t, nil)
	token, userID := s.signup(t, "a@b.co")

	rec, env := s.do(t, http.MethodPost, "/api/generate", token, map[string]string{"topic": "AI", "style": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid style. Must be one of: professional, casual, technical", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/generate", token, map[string]string{"topic": "AI"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please provide topic and style", env.Error)

	rec, env = s.do(t, http.MethodPost, "/api/generate", token, map[string]string{"topic": "AI", "style": "technical"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	post := decodePost(t, env)
	assert.Equal(t, "All About AI", post.Title)
	assert.True(t, post.IsDraft)
	assert.Equal(t, userID, post.UserID)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", env.Error)

	rec, env = s.do(t, http.MethodPut, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, env.Success)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := newTestServer(t, middleware.NewRedisLimiter(client, 2, 15*time.Minute))
	body := map[string]string{"email": "x@b.co", "password": "secret1"}

	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/auth/login", "", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec, env := s.do(t, http.MethodPost, "/api/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later.", env.Error)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Health is outside the limited surface.
	rec, _ = s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
