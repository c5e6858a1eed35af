package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"testing"

	"github.com/hongminglow/student-api-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/register", "", map[string]string{})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.False(t, body.Status)
	for _, field := range []string{"name", "email", "password"} {
		assert.Contains(t, body.Errors, field)
	}
}

func TestRegisterPasswordConfirmationMismatch(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"name":                  "Rakesh",
		"email":                 uniqueEmail("rakesh"),
		"password":              "secret123",
		"password_confirmation": "different",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Contains(t, body.Errors, "password_confirmation")
	assert.Equal(t, "The password confirmation does not match.", body.Errors["password_confirmation"][0])
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	email := uniqueEmail("rakesh")

	env.register(t, "Rakesh", email, "secret123")

	status, body := env.do(t, http.MethodPost, "/register", "", map[string]string{
		"name":                  "Imposter",
		"email":                 email,
		"password":              "different1",
		"password_confirmation": "different1",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	require.Contains(t, body.Errors, "email")
	assert.Equal(t, "The email has already been taken.", body.Errors["email"][0])

	// The failed attempt must not have touched the existing account.
	env.login(t, email, "secret123")
}

func TestLoginSuccessAndFailure(t *testing.T) {
	env := newTestEnv(t)
	email := uniqueEmail("rakesh")
	env.register(t, "Rakesh", email, "secret123")

	status, body := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Status)
	assert.Equal(t, "User logged in succcessfully", body.Message)
	assert.NotEmpty(t, body.Token)

	// Wrong password: logical failure, but still HTTP 200.
	status, body = env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, body.Status)
	assert.Equal(t, "Invalid details", body.Message)
	assert.Empty(t, body.Token)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/login", "", map[string]string{
		"email":    uniqueEmail("ghost"),
		"password": "whatever1",
	})
	assert.Equal(t, http.StatusOK, status)
	assert.False(t, body.Status)
	assert.Equal(t, "Invalid details", body.Message)
}

func TestProfileReturnsCaller(t *testing.T) {
	env := newTestEnv(t)
	email := uniqueEmail("rakesh")
	token := env.registerAndLogin(t, email)

	status, body := env.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Status)
	assert.Equal(t, "Profile data", body.Message)

	var user models.User
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, email, user.Email)
}

func TestProfileRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Status)

	status, _ = env.do(t, http.MethodGet, "/profile", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, uniqueEmail("rakesh"))

	status, body := env.do(t, http.MethodGet, "/refresh", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "New access token", body.Message)
	require.NotEmpty(t, body.Token)
	assert.NotEqual(t, token, body.Token)

	// The original token was revoked by the refresh.
	status, _ = env.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// The replacement works.
	status, _ = env.do(t, http.MethodGet, "/profile", body.Token, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, uniqueEmail("rakesh"))

	status, body := env.do(t, http.MethodGet, "/logout", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Status)
	assert.Equal(t, "User logged out successfully", body.Message)

	status, _ = env.do(t, http.MethodGet, "/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestSessionUserRoute(t *testing.T) {
	env := newTestEnv(t)
	email := uniqueEmail("rakesh")
	env.register(t, "Rakesh", email, "secret123")

	// Without a session cookie the route rejects the caller.
	resp, err := http.Get(env.ts.URL + "/user")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login through a cookie-jar client to establish the session.
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	payload := `{"email":"` + email + `","password":"secret123"}`
	resp, err = client.Post(env.ts.URL+"/login", "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(env.ts.URL + "/user")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var user models.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, email, user.Email)
}
