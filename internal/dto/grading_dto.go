package dto

// GradingRequest is the payload for grading a candidate solution. Code may be
// an empty string: it is executed as-is and fails whatever tests expect
// output. UserID is optional; anonymous grading skips persistence and the
// background propagations.
type GradingRequest struct {
	ProblemID uint   `json:"problem_id" validate:"required,gt=0"`
	UserID    string `json:"user_id"`
	Code      string `json:"code"`
}

// TestOutcomeView is one per-test entry in the grading response. Visible
// tests carry the full outcome; hidden tests are reduced to a pass/fail
// status so input, expected and actual never leave the engine.
type TestOutcomeView struct {
	Input    string  `json:"input,omitempty"`
	Expected string  `json:"expected,omitempty"`
	Actual   string  `json:"actual,omitempty"`
	Passed   bool    `json:"passed"`
	Error    string  `json:"error,omitempty"`
	TimeMs   float64 `json:"time,omitempty"`
	MemoryKB int64   `json:"memory,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
	Status   string  `json:"status,omitempty"`
	Message  string  `json:"message,omitempty"`
}

// GradingResponse is the caller-facing grading result. The field set is a
// boundary contract: calling layers must preserve it field-for-field,
// including the hidden-test reduction.
type GradingResponse struct {
	Success bool              `json:"success"`
	Total   int               `json:"total"`
	Passed  int               `json:"passed"`
	Score   int               `json:"score"`
	Results []TestOutcomeView `json:"results"`
}
