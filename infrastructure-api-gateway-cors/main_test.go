package main

import (
	"context"
	"net/http"
	"testing"

	"dashboard/lib/config"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(origins ...string) *Handler {
	logger, _ := test.NewNullLogger()
	return &Handler{Config: &config.Config{AllowedOrigins: origins}, Logger: logger}
}

func preflight(headers map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions, Headers: headers}
}

func TestHandle_AllowedOrigin(t *testing.T) {
	h := newHandler("https://dashboard.example.com", "http://localhost:3000")

	resp, err := h.Handle(context.Background(), preflight(map[string]string{"origin": "http://localhost:3000"}))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "true", resp.Headers["Access-Control-Allow-Credentials"])
}

func TestHandle_Wildcard(t *testing.T) {
	resp, err := newHandler("*").Handle(context.Background(), preflight(map[string]string{"Origin": "https://any.example.com"}))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "https://any.example.com", resp.Headers["Access-Control-Allow-Origin"])
}

func TestHandle_Rejected(t *testing.T) {
	h := newHandler("https://dashboard.example.com")

	resp, _ := h.Handle(context.Background(), preflight(map[string]string{"origin": "https://evil.example.com"}))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, resp.Headers)

	resp, _ = h.Handle(context.Background(), preflight(nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
