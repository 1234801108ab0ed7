package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/model"
)

const actorContextKey = "actor"

// AuthMiddleware turns a bearer token into an explicit model.Actor on the
// request context. Token issuance happens upstream; this service only
// verifies the HMAC signature and reads the uid and role claims.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

func (m *AuthMiddleware) parseActor(authz string) (model.Actor, error) {
	tokenStr := strings.TrimPrefix(authz, "Bearer ")
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Actor{}, fmt.Errorf("unexpected claims type")
	}
	uid, _ := claims["sub"].(string)
	if uid == "" {
		return model.Actor{}, fmt.Errorf("token has no subject")
	}
	role, _ := claims["role"].(string)
	actor := model.Actor{UID: uid, Role: model.Role(role)}
	if actor.Role == "" {
		actor.Role = model.RoleUser
	}
	return actor, nil
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		actor, err := m.parseActor(authz)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_token"})
		}
		c.Set(actorContextKey, actor)
		return next(c)
	}
}

// OptionalAuth resolves an actor when a valid token is present and lets the
// request through anonymously otherwise. Used by endpoints whose visibility
// rules depend on who is asking.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if strings.HasPrefix(authz, "Bearer ") {
			if actor, err := m.parseActor(authz); err == nil {
				c.Set(actorContextKey, actor)
			}
		}
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		actor, ok := ActorFrom(c)
		if !ok || !actor.IsAdmin() {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
		return next(c)
	}
}

// ActorFrom extracts the authenticated actor, if any.
func ActorFrom(c echo.Context) (model.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(model.Actor)
	return actor, ok
}

// OptionalActorFrom returns a pointer form for handlers that treat an
// anonymous caller as a first-class case.
func OptionalActorFrom(c echo.Context) *model.Actor {
	if actor, ok := ActorFrom(c); ok {
		return &actor
	}
	return nil
}
