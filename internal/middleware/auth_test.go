package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func invoke(mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, *model.Actor) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got *model.Actor
	handler := mw(func(c echo.Context) error {
		if actor, ok := ActorFrom(c); ok {
			got = &actor
		}
		return c.NoContent(http.StatusOK)
	})
	_ = handler(c)
	return rec, got
}

func TestRequireAuthResolvesActor(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "role": "ADMIN"})

	rec, actor := invoke(mw.RequireAuth, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, "user-1", actor.UID)
	assert.True(t, actor.IsAdmin())
}

func TestRequireAuthDefaultsRole(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-2"})

	rec, actor := invoke(mw.RequireAuth, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, model.RoleUser, actor.Role)
}

func TestRequireAuthRejections(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)
	tests := []struct {
		name  string
		authz string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong secret", "Bearer " + signToken(t, "other-secret", jwt.MapClaims{"sub": "user-1"})},
		{"no subject", "Bearer " + signToken(t, testSecret, jwt.MapClaims{"role": "USER"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, actor := invoke(mw.RequireAuth, tt.authz)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, actor)
		})
	}
}

func TestOptionalAuthLetsAnonymousThrough(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)

	rec, actor := invoke(mw.OptionalAuth, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, actor)

	// Invalid tokens degrade to anonymous rather than failing the request.
	rec, actor = invoke(mw.OptionalAuth, "Bearer junk")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, actor)

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "user-3"})
	rec, actor = invoke(mw.OptionalAuth, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, actor)
	assert.Equal(t, "user-3", actor.UID)
}

func TestRequireAdmin(t *testing.T) {
	mw := NewAuthMiddleware(testSecret)

	adminToken := signToken(t, testSecret, jwt.MapClaims{"sub": "admin-1", "role": "ADMIN"})
	userToken := signToken(t, testSecret, jwt.MapClaims{"sub": "user-1", "role": "USER"})

	chain := func(authz string) int {
		rec, _ := invoke(func(next echo.HandlerFunc) echo.HandlerFunc {
			return mw.RequireAuth(mw.RequireAdmin(next))
		}, authz)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, chain("Bearer "+adminToken))
	assert.Equal(t, http.StatusForbidden, chain("Bearer "+userToken))
	assert.Equal(t, http.StatusUnauthorized, chain(""))
}
