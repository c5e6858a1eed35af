package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/hongminglow/student-api-be/internal/auth"
	"github.com/hongminglow/student-api-be/internal/config"
	"github.com/hongminglow/student-api-be/internal/http/handlers"
	"github.com/hongminglow/student-api-be/internal/middleware"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/hongminglow/student-api-be/internal/validation"
	"go.uber.org/zap"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, denylist auth.TokenDenylist, log *zap.Logger) *Server {
	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(time.Now())
	health.Register(mux)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	validate := validation.New()
	guard := middleware.NewAuth(tokenManager, denylist, store, log)

	authHandler := handlers.NewAuthHandler(store, tokenManager, denylist, validate, sessionStore, log)
	authHandler.Register(mux, guard.Require)

	studentHandler := handlers.NewStudentHandler(store, validate, log)
	studentHandler.Register(mux, guard.Require)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(log, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
