package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/akademik-api/internal/config"
	"github.com/noah-isme/akademik-api/internal/handler"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Akademik API", AppEnv: "test"}
	healthy := func(context.Context) error { return nil }

	app := fiber.New()
	app.Get("/ok", handler.HealthCheck(cfg, map[string]handler.HealthProbe{"database": healthy}))
	app.Get("/degraded", handler.HealthCheck(cfg, map[string]handler.HealthProbe{
		"database": healthy,
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	}))

	resp := doJSON(t, app, http.MethodGet, "/ok", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body envelope
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)

	resp = doJSON(t, app, http.MethodGet, "/degraded", nil)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)

	var payload handler.HealthResponse
	require.NoError(t, json.Unmarshal(body.Data, &payload))
	require.Equal(t, "degraded", payload.Status)
	require.Equal(t, "ok", payload.Checks["database"])
	require.Equal(t, "connection refused", payload.Checks["redis"])
}
