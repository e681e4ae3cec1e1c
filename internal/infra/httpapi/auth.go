package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
)

const claimsContextKey = "user"

// Claims identifies the caller. Subject holds the teacher or parent id.
type Claims struct {
	Role Role `json:"role"`
	jwt.RegisteredClaims
}

var errNoClaims = errors.New("claims not found in echo.Context")

// JWTMiddleware verifies the bearer token and stores its claims in the
// context under "user".
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if authHeader == "" || tokenString == "" || tokenString == authHeader {
				return errMissingToken
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
				return secret, nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid || claims.Subject == "" {
				return errInvalidToken.WithInternal(err)
			}
			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// RequireRole rejects callers whose token carries another role.
func RequireRole(role Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := claimsFrom(c)
			if err != nil {
				return errMissingToken
			}
			if claims.Role != role {
				return errForbidden
			}
			return next(c)
		}
	}
}

func claimsFrom(c echo.Context) (*Claims, error) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, errNoClaims
	}
	return claims, nil
}

// callerID returns the subject of the authenticated caller.
func callerID(c echo.Context) string {
	claims, err := claimsFrom(c)
	if err != nil {
		return ""
	}
	return claims.Subject
}

// GenerateToken signs an HS256 token for subject. Account management lives
// outside this service; this is used by tooling and tests.
func GenerateToken(secret []byte, subject string, role Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
