package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/gorilla/sessions"
	"github.com/hongminglow/student-api-be/internal/auth"
	"github.com/hongminglow/student-api-be/internal/http/respond"
	"github.com/hongminglow/student-api-be/internal/middleware"
	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/hongminglow/student-api-be/internal/models/dto"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/hongminglow/student-api-be/internal/validation"
	"go.uber.org/zap"
)

// AuthHandler owns registration, login, and the token lifecycle endpoints.
type AuthHandler struct {
	store    storage.Store
	tokens   *auth.TokenManager
	denylist auth.TokenDenylist
	validate *validation.Validator
	sessions *sessions.CookieStore
	log      *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.Store, tokens *auth.TokenManager, denylist auth.TokenDenylist,
	validate *validation.Validator, sessionStore *sessions.CookieStore, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:    store,
		tokens:   tokens,
		denylist: denylist,
		validate: validate,
		sessions: sessionStore,
		log:      log,
	}
}

// Register attaches auth routes to the mux. Routes behind requireAuth run
// only for callers holding a live bearer token.
func (h *AuthHandler) Register(mux *http.ServeMux, requireAuth func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("POST /register", h.handleRegister)
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /profile", requireAuth(h.handleProfile))
	mux.HandleFunc("GET /refresh", requireAuth(h.handleRefresh))
	mux.HandleFunc("GET /logout", requireAuth(h.handleLogout))
	mux.HandleFunc("GET /user", h.handleSessionUser)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	errs := validation.Errors{}
	h.validate.Struct(req, errs)
	email := strings.TrimSpace(req.Email)
	if !errs.Has("email") {
		taken, err := h.store.UserEmailTaken(r.Context(), email)
		if err != nil {
			h.log.Error("check email uniqueness failed", zap.Error(err))
			respond.Fail(w, http.StatusInternalServerError, "Failed to register user")
			return
		}
		if taken {
			errs.Add("email", validation.Taken("email"))
		}
	}
	if len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(passwordHash),
	}
	if _, err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			errs.Add("email", validation.Taken("email"))
			respond.ValidationFailed(w, errs)
			return
		}
		h.log.Error("create user failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	respond.OK(w, "User registered successfully", nil)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Fail(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	errs := validation.Errors{}
	h.validate.Struct(req, errs)
	if len(errs) > 0 {
		respond.ValidationFailed(w, errs)
		return
	}

	user, err := h.store.FindUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Credential mismatches keep the 200 status; only the status
			// field marks the failure. This matches the published contract.
			respond.Fail(w, http.StatusOK, "Invalid details")
			return
		}
		h.log.Error("fetch user for login failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to log in")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		respond.Fail(w, http.StatusOK, "Invalid details")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.Error("generate token failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	h.saveSession(w, r, user.ID)

	// The misspelled message is part of the published response contract.
	respond.Token(w, "User logged in succcessfully", token)
}

func (h *AuthHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}
	respond.OK(w, "Profile data", caller)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	claims, claimsOK := middleware.ClaimsFromContext(r.Context())
	if !ok || !claimsOK {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	if err := h.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.log.Error("revoke token on refresh failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	token, err := h.tokens.Generate(caller)
	if err != nil {
		h.log.Error("generate refreshed token failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	respond.Token(w, "New access token", token)
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	if err := h.denylist.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		h.log.Error("revoke token on logout failed", zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	respond.OK(w, "User logged out successfully", nil)
}

// saveSession records the caller in the cookie session backing the /user
// convenience route. Best effort: bearer-token flows do not depend on it.
func (h *AuthHandler) saveSession(w http.ResponseWriter, r *http.Request, userID int64) {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie yields a fresh session; keep going.
		h.log.Debug("decode existing session failed", zap.Error(err))
	}
	session.Values[sessionUserKey] = userID
	if err := session.Save(r, w); err != nil {
		h.log.Warn("save session failed", zap.Error(err))
	}
}
