package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// UserContextKey is where the authenticated user's claims are stored.
const UserContextKey = "user"

// Authenticator turns a bearer token into claims.
type Authenticator func(ctx context.Context, token string) (*models.JwtCustomClaims, error)

// JWTAuthenticator verifies HMAC-signed tokens carrying JwtCustomClaims.
func JWTAuthenticator(secret string) Authenticator {
	key := []byte(secret)
	return func(_ context.Context, tokenString string) (*models.JwtCustomClaims, error) {
		claims := &models.JwtCustomClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil {
			return nil, err
		}
		if !token.Valid || claims.UserID == 0 {
			return nil, errors.New("invalid token")
		}
		return claims, nil
	}
}

// BearerAuth requires an "Authorization: Bearer <token>" header accepted by
// one of the authenticators, tried in order.
func BearerAuth(authenticators ...Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			for _, authenticate := range authenticators {
				claims, err := authenticate(c.Request().Context(), parts[1])
				if err != nil {
					logging.Debug().Err(err).Msg("bearer token rejected")
					continue
				}
				c.Set(UserContextKey, claims)
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}
	}
}

// RequireRole rejects users whose claims do not carry role.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
			}
			if claims.Role != role {
				return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
			}
			return next(c)
		}
	}
}
