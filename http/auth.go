package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Roles recognised on scanner tokens. Token issuance belongs to the auth
// subsystem; this service only verifies and reads claims.
const (
	RoleAdmin   = "admin"
	RoleScanner = "scanner"
)

const contextKeyPrincipal = "principal"

// Principal is the authenticated caller; Subject becomes the validator
// identity on usage records.
type Principal struct {
	Subject string
	Role    string
}

type authClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func authMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "missing bearer token",
				}
			}

			claims := &authClaims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
				}
				return secret, nil
			})
			if err != nil || !parsed.Valid {
				return &echo.HTTPError{
					Code:     http.StatusUnauthorized,
					Message:  "invalid token",
					Internal: err,
				}
			}
			if claims.Subject == "" {
				return &echo.HTTPError{
					Code:    http.StatusUnauthorized,
					Message: "token has no subject",
				}
			}

			c.Set(contextKeyPrincipal, Principal{
				Subject: claims.Subject,
				Role:    claims.Role,
			})

			return next(c)
		}
	}
}

func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := principalFrom(c)
			for _, role := range roles {
				if p.Role == role {
					return next(c)
				}
			}

			return &echo.HTTPError{
				Code:    http.StatusForbidden,
				Message: fmt.Sprintf("role %q may not perform this operation", p.Role),
			}
		}
	}
}

func principalFrom(c echo.Context) Principal {
	p, _ := c.Get(contextKeyPrincipal).(Principal)
	return p
}
