package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/hongminglow/student-api-be/internal/auth"
	"github.com/hongminglow/student-api-be/internal/middleware"
	"github.com/hongminglow/student-api-be/internal/storage"
	"github.com/hongminglow/student-api-be/internal/storage/sqlite"
	"github.com/hongminglow/student-api-be/internal/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// envelope mirrors the JSON wrapper every endpoint returns, plus the errors
// object of 422 responses.
type envelope struct {
	Status  bool                `json:"status"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
	Token   string              `json:"token"`
	Errors  map[string][]string `json:"errors"`
}

type testEnv struct {
	ts    *httptest.Server
	store storage.Store
}

// newTestEnv assembles the full route table over a throwaway SQLite database
// and an in-process token denylist.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)

	tokens := auth.NewTokenManager("test-secret", "student-api-test", time.Hour)
	denylist := auth.NewMemoryDenylist()
	validate := validation.New()
	sessionStore := sessions.NewCookieStore([]byte("test-session-secret"))
	log := zap.NewNop()
	guard := middleware.NewAuth(tokens, denylist, store, log)

	mux := http.NewServeMux()
	NewAuthHandler(store, tokens, denylist, validate, sessionStore, log).Register(mux, guard.Require)
	NewStudentHandler(store, validate, log).Register(mux, guard.Require)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: store}
}

// do sends a JSON request and decodes the enveloped response.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// register creates a user through the API.
func (e *testEnv) register(t *testing.T, name, email, password string) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/register", "", map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	})
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Status, "register failed: %s", body.Message)
}

// login returns a bearer token for existing credentials.
func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Status, "login failed: %s", body.Message)
	require.NotEmpty(t, body.Token)
	return body.Token
}

// registerAndLogin sets up an authenticated caller in one step.
func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()
	e.register(t, "Test User", email, "secret123")
	return e.login(t, email, "secret123")
}

// createStudent registers a student record for the caller.
func (e *testEnv) createStudent(t *testing.T, token, email, roll string) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/student_register", token, studentPayload(email, roll))
	require.Equal(t, http.StatusOK, status)
	require.True(t, body.Status, "student_register failed: %s %v", body.Message, body.Errors)
}

func studentPayload(email, roll string) map[string]string {
	return map[string]string{
		"name":          "Priya",
		"email":         email,
		"roll_number":   roll,
		"class":         "5",
		"section":       "B",
		"date_of_birth": "2010-06-15",
		"address":       "12 Lake Road",
	}
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s_%d@example.com", prefix, time.Now().UnixNano())
}
