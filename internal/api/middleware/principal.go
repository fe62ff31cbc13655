package middleware

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

const principalKey = "principal"

var errInvalidToken = errors.New("invalid token")

// SetPrincipal stores the authenticated caller on the request.
func SetPrincipal(c echo.Context, p domain.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the caller stored by Auth or Guard.
func PrincipalFrom(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get(principalKey).(domain.Principal)
	return p, ok && p.Authenticated()
}

// parseToken validates an HS256 token and returns its principal. hasRole is
// false when the token carries no role claim; Role is then RoleUnknown.
func parseToken(secret, raw string) (p domain.Principal, hasRole bool, err error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !tkn.Valid {
		return domain.Principal{}, false, errInvalidToken
	}

	p.Token = raw
	p.UserID, _ = claims["sub"].(string)
	p.Username, _ = claims["username"].(string)
	if role, ok := claims["role"].(string); ok && strings.TrimSpace(role) != "" {
		p.Role = domain.NormalizeRole(role)
		hasRole = true
	}
	return p, hasRole, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
