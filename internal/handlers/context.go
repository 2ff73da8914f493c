package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

func currentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(middleware.UserContextKey).(*models.JwtCustomClaims)
	return claims
}

// getUserIDFromContext returns the authenticated user's ID, or 0.
func getUserIDFromContext(c echo.Context) uint {
	if claims := currentClaims(c); claims != nil {
		return claims.UserID
	}
	return 0
}

// getIdentityFromContext returns the authenticated user's identity, or "".
func getIdentityFromContext(c echo.Context) string {
	if id := getUserIDFromContext(c); id != 0 {
		return strconv.FormatUint(uint64(id), 10)
	}
	return ""
}

func unauthenticated() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
}

// repoError maps repository errors onto HTTP errors.
func repoError(err error, what string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	case errors.Is(err, repositories.ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid "+what+" ID")
	default:
		logging.Error().Err(err).Str("resource", what).Msg("repository error")
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// bindAndValidate binds the request body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(req); err != nil {
		return err
	}
	return nil
}

func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}
