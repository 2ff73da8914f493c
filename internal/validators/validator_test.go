package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/socialpulse/backend/internal/models"
)

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&models.AdminBroadcastRequest{Title: "hello"}))

	err := v.Validate(&models.AdminBroadcastRequest{})
	require.Error(t, err)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	err = v.Validate(&models.AdminBroadcastRequest{Title: "t", Recipients: []string{"1", ""}})
	assert.Error(t, err)
}
