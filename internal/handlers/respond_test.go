package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/trial"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/youtube"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: title is required", services.ErrInvalidInput), http.StatusBadRequest, "invalid input: title is required"},
		{services.ErrChannelNotFound, http.StatusNotFound, "channel not found"},
		{fmt.Errorf("%w: free allows 1 channels", services.ErrPlanLimit), http.StatusPaymentRequired, "plan limit reached: free allows 1 channels"},
		{trial.ErrExhausted, http.StatusPaymentRequired, "trial limit reached"},
		{services.ErrTeamForbidden, http.StatusForbidden, "insufficient team permissions"},
		{services.ErrEmailTaken, http.StatusConflict, "email already registered"},
		{&youtube.APIError{Status: 403, Reason: "quotaExceeded"}, http.StatusTooManyRequests, ""},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "Failed to load"},
	}

	for _, tt := range tests {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error { return serviceError(c, tt.err, "Failed to load") })
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
		require.NoError(t, err)

		var body dto.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
		assert.False(t, body.Success)
		if tt.msg != "" {
			assert.Equal(t, tt.msg, body.Error)
		}
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		_, err := paramID(c, "id")
		return err
	})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("secret detail") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/items/nope", nil), -1)
	require.NoError(t, err)
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid id", body.Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body.Error)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageParams(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		page, limit := pageParams(c)
		return c.JSON(fiber.Map{"page": page, "limit": limit})
	})
	for query, want := range map[string][2]int{
		"":                  {1, 20},
		"?page=3&limit=50":  {3, 50},
		"?page=-1&limit=0":  {1, 20},
		"?limit=1000":       {1, 20},
		"?page=x&limit=abc": {1, 20},
	} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+query, nil), -1)
		require.NoError(t, err)
		var got map[string]int
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, want[0], got["page"], query)
		assert.Equal(t, want[1], got["limit"], query)
	}
}
