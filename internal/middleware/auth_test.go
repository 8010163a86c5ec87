package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextlevelrentals/assistant-platform/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject, role string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func authProbe() (http.Handler, *struct {
	userID string
	role   model.UserRole
	called bool
}) {
	state := &struct {
		userID string
		role   model.UserRole
		called bool
	}{}
	h := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state.called = true
		state.userID = GetUserID(r.Context())
		state.role = GetRole(r.Context())
	}))
	return h, state
}

func TestAuthValidToken(t *testing.T) {
	h, state := authProbe()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "tenant-1", "tenant"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, state.called)
	assert.Equal(t, "tenant-1", state.userID)
	assert.Equal(t, model.RoleTenant, state.role)
}

func TestAuthMissingHeader(t *testing.T) {
	h, state := authProbe()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, state.called)
}

func TestAuthBadSignature(t *testing.T) {
	h, state := authProbe()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "tenant-1"},
		Role:             "tenant",
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, state.called)
}

func TestAuthRejectsUnknownRole(t *testing.T) {
	h, state := authProbe()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "tenant-1", "owner"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, state.called)
}

func TestValidateMessageContent(t *testing.T) {
	assert.Error(t, ValidateMessageContent(""))
	assert.Error(t, ValidateMessageContent(string([]byte{0xff, 0xfe})))
	assert.NoError(t, ValidateMessageContent("when is rent due?"))
}

func TestValidateConversationID(t *testing.T) {
	assert.Error(t, ValidateConversationID("not-a-uuid"))
	assert.NoError(t, ValidateConversationID("0195f3a0-0000-7000-8000-000000000001"))
}
