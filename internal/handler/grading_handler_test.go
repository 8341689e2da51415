package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codenest-edu/grader-api/internal/dto"
	"github.com/codenest-edu/grader-api/internal/handler"
	"github.com/codenest-edu/grader-api/internal/service"
)

type stubGradingService struct {
	lastRequest dto.GradingRequest
	response    dto.GradingResponse
	err         error
}

func (s *stubGradingService) Grade(ctx context.Context, req dto.GradingRequest) (dto.GradingResponse, error) {
	s.lastRequest = req
	if s.err != nil {
		return dto.GradingResponse{}, s.err
	}
	return s.response, nil
}

func newGradingApp(stub *stubGradingService) *fiber.App {
	app := fiber.New()
	h := handler.NewGradingHandler(stub, zerolog.Nop())
	h.Register(app.Group("/api/v1/problems"))
	return app
}

func postGrade(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestGradeEndpointReturnsRawResultShape(t *testing.T) {
	stub := &stubGradingService{response: dto.GradingResponse{
		Success: false,
		Total:   2,
		Passed:  1,
		Score:   50,
		Results: []dto.TestOutcomeView{
			{Input: "5 3", Expected: "8", Actual: "8", Passed: true},
			{Hidden: true, Status: "failed", Message: "Hidden test case failed"},
		},
	}}
	app := newGradingApp(stub)

	resp := postGrade(t, app, "/api/v1/problems/7/grade", `{"user_id": "learner-1", "code": "print(8)"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, uint(7), stub.lastRequest.ProblemID, "path id wins over the body")
	require.Equal(t, "learner-1", stub.lastRequest.UserID)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, false, body["success"])
	require.EqualValues(t, 50, body["score"])
	require.NotContains(t, body, "data", "grading responses skip the envelope")
	require.NotContains(t, body, "message")

	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 2)

	hidden, ok := results[1].(map[string]interface{})
	require.True(t, ok)
	require.NotContains(t, hidden, "input")
	require.NotContains(t, hidden, "expected")
	require.NotContains(t, hidden, "actual")
	require.Equal(t, "failed", hidden["status"])
}

func TestGradeEndpointOverridesBodyProblemID(t *testing.T) {
	stub := &stubGradingService{response: dto.GradingResponse{Success: true}}
	app := newGradingApp(stub)

	resp := postGrade(t, app, "/api/v1/problems/3/grade", `{"problem_id": 99, "code": ""}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), stub.lastRequest.ProblemID)
}

func TestGradeEndpointRejectsBadID(t *testing.T) {
	app := newGradingApp(&stubGradingService{})

	for _, path := range []string{"/api/v1/problems/abc/grade", "/api/v1/problems/0/grade"} {
		resp := postGrade(t, app, path, `{"code": ""}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestGradeEndpointRejectsMalformedBody(t *testing.T) {
	app := newGradingApp(&stubGradingService{})

	resp := postGrade(t, app, "/api/v1/problems/1/grade", `{"code": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradeEndpointMapsServiceErrors(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
	}{
		{service.ErrProblemNotFound, http.StatusNotFound},
		{service.ErrNoTestCases, http.StatusUnprocessableEntity},
		{errors.New("sandbox exploded"), http.StatusInternalServerError},
	} {
		app := newGradingApp(&stubGradingService{err: tc.err})

		resp := postGrade(t, app, "/api/v1/problems/1/grade", `{"code": ""}`)
		require.Equal(t, tc.status, resp.StatusCode, tc.err.Error())

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, false, body["success"])
		require.NotEmpty(t, body["message"])
	}
}
