package handlers

import (
	"errors"
	"net/http"

	"github.com/hongminglow/student-api-be/internal/http/respond"
	"github.com/hongminglow/student-api-be/internal/storage"
	"go.uber.org/zap"
)

const (
	sessionName    = "student-api-session"
	sessionUserKey = "user_id"
)

// handleSessionUser serves the cookie-based /user convenience route. It sits
// outside the bearer-token flow: the session is established at login and the
// response is the bare user record, not the envelope.
func (h *AuthHandler) handleSessionUser(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(r, sessionName)
	if err != nil {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	userID, ok := session.Values[sessionUserKey].(int64)
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	user, err := h.store.FindUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Fail(w, http.StatusUnauthorized, "Unauthenticated")
			return
		}
		h.log.Error("load session user failed", zap.Int64("user_id", userID), zap.Error(err))
		respond.Fail(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	respond.Raw(w, http.StatusOK, user)
}
