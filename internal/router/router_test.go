package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/codenest-edu/grader-api/internal/config"
	"github.com/codenest-edu/grader-api/internal/handler"
	"github.com/codenest-edu/grader-api/internal/router"
)

func TestRegisterHealthRoute(t *testing.T) {
	cfg := config.Config{AppName: "grader-api", AppEnv: "test"}

	app := fiber.New()
	router.Register(app, cfg, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/health", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "grader-api", resp.Header.Get("X-Application"))

	var payload struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.True(t, payload.Success)
	require.Equal(t, "ok", payload.Data.Status)
	require.Equal(t, "grader-api", payload.Data.Service)
	require.Equal(t, "test", payload.Data.Environment)
}

func TestRegisterExposesMetricsEndpoint(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "grader-api"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegisterSkipsMissingHandlers(t *testing.T) {
	app := fiber.New()
	router.Register(app, config.Config{AppName: "grader-api"}, router.Dependencies{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/problems", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
