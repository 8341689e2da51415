package dto

import (
	"encoding/json"

	"github.com/codenest-edu/grader-api/internal/models"
)

// ProblemCreateRequest is the payload for creating a problem. TestCases is
// kept as raw JSON so it can be validated against the test-case schema before
// anything is persisted.
type ProblemCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=255"`
	Description string          `json:"description"`
	Difficulty  int             `json:"difficulty" validate:"omitempty,gte=1,lte=5"`
	Tags        []string        `json:"tags"`
	StarterCode string          `json:"starter_code"`
	TestCases   json.RawMessage `json:"test_cases" validate:"required"`
}

// TestCaseView is a non-hidden test case as exposed to callers.
type TestCaseView struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"output"`
}

// ProblemResponse describes a problem to API consumers. Hidden test cases are
// counted but never serialized.
type ProblemResponse struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Difficulty      int            `json:"difficulty"`
	Tags            []string       `json:"tags"`
	StarterCode     string         `json:"starter_code"`
	SampleTestCases []TestCaseView `json:"sample_test_cases"`
	TotalTestCases  int            `json:"total_test_cases"`
}

// ProblemSummary is the reduced listing entry.
type ProblemSummary struct {
	ID         uint     `json:"id"`
	Title      string   `json:"title"`
	Difficulty int      `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// NewProblemResponse builds a response DTO from a model, keeping hidden test
// cases out of the payload.
func NewProblemResponse(problem models.Problem) (ProblemResponse, error) {
	cases, err := problem.DecodedTestCases()
	if err != nil {
		return ProblemResponse{}, err
	}

	samples := make([]TestCaseView, 0, len(cases))
	for _, tc := range cases {
		if tc.IsHidden {
			continue
		}
		samples = append(samples, TestCaseView{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}

	return ProblemResponse{
		ID:              problem.ID,
		Title:           problem.Title,
		Description:     problem.Description,
		Difficulty:      problem.Difficulty,
		Tags:            problem.TagsSlice(),
		StarterCode:     problem.StarterCode,
		SampleTestCases: samples,
		TotalTestCases:  len(cases),
	}, nil
}

// NewProblemSummary builds a listing entry from a model.
func NewProblemSummary(problem models.Problem) ProblemSummary {
	return ProblemSummary{
		ID:         problem.ID,
		Title:      problem.Title,
		Difficulty: problem.Difficulty,
		Tags:       problem.TagsSlice(),
	}
}
