package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskboard/taskboard-api/internal/dto"
	"github.com/taskboard/taskboard-api/internal/models"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "new@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		User  dto.UserDTO `json:"user"`
		Token string      `json:"token"`
	}
	resp := decodeData(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "User registered successfully", resp.Message)
	assert.Equal(t, "new@example.com", data.User.Email)
	assert.Equal(t, models.RoleUser, data.User.Role)
	assert.NotEmpty(t, data.Token)

	// The hash must never appear in the response
	var raw struct {
		User map[string]any `json:"user"`
	}
	decodeData(t, w, &raw)
	assert.NotContains(t, raw.User, "password")
}

func TestRegister_SelfServiceNeverGrantsAdmin(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "sneaky@example.com",
		"password": "secret123",
		"role":     "admin",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	var data struct {
		User dto.UserDTO `json:"user"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, models.RoleUser, data.User.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "taken@example.com", "secret123", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "taken@example.com",
		"password": "secret123",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, decode(t, w).Success)
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"short password", map[string]string{"email": "a@example.com", "password": "12345"}},
		{"invalid email", map[string]string{"email": "not-an-email", "password": "secret123"}},
		{"missing password", map[string]string{"email": "a@example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, http.MethodPost, "/api/auth/register", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice@example.com", "secret123", models.RoleUser)

	w := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "secret123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var data dto.AuthDTO
	decodeData(t, w, &data)
	assert.Equal(t, user.ID, data.User.ID)

	userID, err := env.tokens.Validate(data.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

// Unknown email and wrong password must be indistinguishable.
func TestLogin_BadCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "alice@example.com", "secret123", models.RoleUser)

	wrongPassword := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	unknownEmail := env.request(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "secret123",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, decode(t, wrongPassword).Message, decode(t, unknownEmail).Message)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice@example.com", "secret123", models.RoleUser)

	w := env.request(t, http.MethodGet, "/api/auth/me", nil, env.tokenFor(t, user))
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		User dto.UserDTO `json:"user"`
	}
	decodeData(t, w, &data)
	assert.Equal(t, "alice@example.com", data.User.Email)
}

func TestMe_TokenFailures(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice@example.com", "secret123", models.RoleUser)
	valid := env.tokenFor(t, user)

	expired, err := env.tokens.GenerateWithDuration(user.ID, -time.Minute)
	require.NoError(t, err)

	deleted := env.createUser(t, "gone@example.com", "secret123", models.RoleUser)
	orphaned := env.tokenFor(t, deleted)
	require.NoError(t, env.db.Delete(deleted).Error)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"no token", "", "Access token required"},
		{"expired token", expired, "Token expired"},
		{"tampered token", valid[:len(valid)-2] + "xx", "Invalid token"},
		{"token of deleted user", orphaned, "Invalid token - user not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.request(t, http.MethodGet, "/api/auth/me", nil, tt.token)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.message, decode(t, w).Message)
		})
	}
}

// Only the Bearer scheme is accepted, and the match is case sensitive.
func TestMe_MalformedAuthorizationHeader(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "alice@example.com", "secret123", models.RoleUser)
	token := env.tokenFor(t, user)

	for _, header := range []string{"Basic " + token, token, "bearer " + token, "Bearer "} {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}
