package api

import (
	"net/http"
	"time"

	"draftpress/internal/api/handler"
	"draftpress/internal/api/middleware"
	"draftpress/internal/app/service"
	"draftpress/internal/common"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"go.uber.org/zap"
)

const requestTimeout = 60 * time.Second

type RouterDeps struct {
	AuthService     *service.AuthService
	PostService     *service.PostService
	GenerateService *service.GenerateService

	// Users resolves the subject of a verified token.
	Users     middleware.UserFinder
	TokenAuth *jwtauth.JWTAuth

	// Limiter is optional; nil serves without rate limiting.
	Limiter        middleware.Limiter
	AllowedOrigins []string
	Logger         *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	log := deps.Logger

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(chiMiddleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		common.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authenticate := middleware.Authenticator(deps.Users, log)

	r.Route("/api", func(api chi.Router) {
		if deps.Limiter != nil {
			api.Use(middleware.RateLimit(deps.Limiter, log))
		}

		authHandler := handler.NewAuthHandler(deps.AuthService, log)
		api.Route("/auth", authHandler.RegisterRoutes)

		api.Group(func(protected chi.Router) {
			protected.Use(jwtauth.Verify(deps.TokenAuth, jwtauth.TokenFromHeader))
			protected.Use(authenticate)

			generateHandler := handler.NewGenerateHandler(deps.GenerateService, log)
			protected.Route("/generate", generateHandler.RegisterRoutes)

			postHandler := handler.NewPostHandler(deps.PostService, log)
			protected.Route("/posts", postHandler.RegisterRoutes)
		})
	})

	return r
}
