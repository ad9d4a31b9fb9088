package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey    contextKey = "user_id"
	UserRoleKey  contextKey = "user_role"
	UserGroupKey contextKey = "user_group"
)

// Claims carries the identity extracted from a validated token.
type Claims struct {
	UserID uuid.UUID
	Role   string
	Group  string
}

// Middleware validates the bearer token and stores the caller's identity in
// the request context.
func (s *Service) Middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
		}

		sub, err := claims.GetSubject()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token subject")
		}
		userID, err := uuid.Parse(sub)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid user ID in token")
		}

		c.Set(string(UserIDKey), userID)
		if role, ok := claims["role"].(string); ok {
			c.Set(string(UserRoleKey), role)
		}
		if group, ok := claims["group"].(string); ok {
			c.Set(string(UserGroupKey), group)
		}
		return next(c)
	}
}

// RequireRole wraps Middleware and additionally rejects callers whose role is
// not in the allowed set.
func (s *Service) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return s.Middleware(func(c echo.Context) error {
			role, _ := c.Get(string(UserRoleKey)).(string)
			for _, allowed := range roles {
				if role == allowed {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient role")
		})
	}
}

// AdminSecretMiddleware guards maintenance endpoints with a shared secret
// header, for operators and tooling that do not hold user tokens.
func AdminSecretMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access is not configured")
			}
			provided := c.Request().Header.Get("X-Admin-Secret")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid admin secret")
			}
			return next(c)
		}
	}
}

// CallerFromContext retrieves the identity stored by Middleware.
func CallerFromContext(c echo.Context) (Claims, error) {
	id, ok := c.Get(string(UserIDKey)).(uuid.UUID)
	if !ok {
		return Claims{}, errors.New("user ID not found in context")
	}
	role, _ := c.Get(string(UserRoleKey)).(string)
	group, _ := c.Get(string(UserGroupKey)).(string)
	return Claims{UserID: id, Role: role, Group: group}, nil
}
