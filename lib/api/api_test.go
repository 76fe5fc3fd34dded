package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("valid", func(t *testing.T) {
		var p payload
		require.NoError(t, ParseJSONBody(`{"name":"Tower A"}`, &p))
		assert.Equal(t, "Tower A", p.Name)
	})

	t.Run("empty", func(t *testing.T) {
		var p payload
		assert.ErrorIs(t, ParseJSONBody("  ", &p), ErrEmptyBody)
	})

	t.Run("unknown field", func(t *testing.T) {
		var p payload
		assert.Error(t, ParseJSONBody(`{"name":"x","status":"active"}`, &p))
	})

	t.Run("malformed", func(t *testing.T) {
		var p payload
		assert.Error(t, ParseJSONBody(`{"name":`, &p))
	})
}

func TestSuccessResponse(t *testing.T) {
	logger := logrus.New()

	resp := SuccessResponse(http.StatusOK, map[string]string{"id": "p-1"}, logger)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":"p-1"}`, resp.Body)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Contains(t, resp.Headers["Access-Control-Allow-Methods"], "PATCH")

	empty := SuccessResponse(http.StatusNoContent, nil, logger)
	assert.Equal(t, http.StatusNoContent, empty.StatusCode)
	assert.Empty(t, empty.Body)
}

func TestErrorResponses(t *testing.T) {
	logger := logrus.New()

	resp := ErrorResponse(http.StatusNotFound, "Project not found", logger)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.Equal(t, true, body["error"])
	assert.Equal(t, "Project not found", body["message"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])

	forbidden := ForbiddenResponse(logger)
	assert.Equal(t, http.StatusForbidden, forbidden.StatusCode)

	validation := ValidationErrorResponse("Validation failed", []string{"name: Required"}, logger)
	assert.Equal(t, http.StatusBadRequest, validation.StatusCode)
	assert.Contains(t, validation.Body, "name: Required")
}

func TestFieldErrors(t *testing.T) {
	errs := map[string][]string{
		"start_date": {"Invalid date format, expected YYYY-MM-DD"},
		"name":       {"Required", "Too short"},
	}

	assert.Equal(t, []string{
		"name: Required",
		"name: Too short",
		"start_date: Invalid date format, expected YYYY-MM-DD",
	}, FieldErrors(errs))
	assert.Empty(t, FieldErrors(nil))
}

func TestCORSHeaders(t *testing.T) {
	headers := CORSHeaders("https://app.example.com")
	assert.Equal(t, "https://app.example.com", headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "Origin", headers["Vary"])
}
