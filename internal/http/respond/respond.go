package respond

import (
	"encoding/json"
	"net/http"

	"github.com/hongminglow/student-api-be/internal/validation"
	"go.uber.org/zap"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Token   string `json:"token,omitempty"`
}

// OK writes a 200 success envelope, optionally carrying data.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Status: true, Message: message, Data: data})
}

// Token writes a 200 success envelope carrying a bearer token.
func Token(w http.ResponseWriter, message, token string) {
	write(w, http.StatusOK, Envelope{Status: true, Message: message, Token: token})
}

// Fail writes a declared logical failure with the given HTTP status. Failed
// logins deliberately pass http.StatusOK here; the status field alone marks
// the failure.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Status: false, Message: message})
}

// ValidationFailed writes a 422 response with per-field messages.
func ValidationFailed(w http.ResponseWriter, errs validation.Errors) {
	payload := struct {
		Status  bool              `json:"status"`
		Message string            `json:"message"`
		Errors  validation.Errors `json:"errors"`
	}{Status: false, Message: "The given data was invalid.", Errors: errs}
	writeJSON(w, http.StatusUnprocessableEntity, payload)
}

// Raw writes an arbitrary JSON payload outside the envelope. Only the
// session-cookie /user route and the health endpoint use it.
func Raw(w http.ResponseWriter, status int, payload any) {
	writeJSON(w, status, payload)
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("respond: encode payload failed", zap.Error(err))
	}
}
