package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codenest-edu/grader-api/internal/handler"
	"github.com/codenest-edu/grader-api/internal/repository"
	"github.com/codenest-edu/grader-api/internal/service"
	"github.com/codenest-edu/grader-api/internal/utils"
)

func newProblemApp(t *testing.T) *fiber.App {
	t.Helper()

	repo := repository.NewMemoryProblemRepository(repository.SeedProblems()...)
	svc, err := service.NewProblemService(repo, nil, time.Minute, validator.New(), zerolog.Nop())
	require.NoError(t, err)

	app := fiber.New()
	h := handler.NewProblemHandler(svc, zerolog.Nop())
	h.Register(app.Group("/api/v1/problems"))
	return app
}

func decodeEnvelope(t *testing.T, resp *http.Response) utils.APIResponse {
	t.Helper()

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestProblemList(t *testing.T) {
	app := newProblemApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/problems", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	problems, ok := body.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, problems, 1)
}

func TestProblemGetExcludesHiddenCases(t *testing.T) {
	app := newProblemApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/problems/1", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	problem, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	require.EqualValues(t, 2, problem["total_test_cases"])

	samples, ok := problem["sample_test_cases"].([]interface{})
	require.True(t, ok)
	require.Len(t, samples, 1)
}

func TestProblemGetNotFound(t *testing.T) {
	app := newProblemApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/problems/404", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProblemCreate(t *testing.T) {
	app := newProblemApp(t)

	payload := `{"title": "Echo", "difficulty": 2, "tags": ["io"], "test_cases": [{"input": "hi", "output": "hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.True(t, body.Success)

	problem, ok := body.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "Echo", problem["title"])
	require.EqualValues(t, 2, problem["difficulty"])
}

func TestProblemCreateRejectsBadTestCases(t *testing.T) {
	app := newProblemApp(t)

	payload := `{"title": "Echo", "test_cases": []}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeEnvelope(t, resp)
	require.False(t, body.Success)
}

func TestProblemCreateRejectsMissingTitle(t *testing.T) {
	app := newProblemApp(t)

	payload := `{"test_cases": [{"input": "hi", "output": "hi"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/problems", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
