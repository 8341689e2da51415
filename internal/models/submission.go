package models

import "time"

// SubmissionStatus enumerates terminal grading verdicts.
const (
	SubmissionStatusPass  = "PASS"
	SubmissionStatusFail  = "FAIL"
	SubmissionStatusError = "ERROR"
)

// Submission is one graded attempt at a problem. Rows are append-only:
// a submission is created once per grading call and never updated.
type Submission struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;index;not null" json:"user_id"`
	ProblemID      uint      `gorm:"index;not null" json:"problem_id"`
	Code           string    `gorm:"type:text" json:"code"`
	Status         string    `gorm:"size:16;not null" json:"status"`
	Score          int       `gorm:"not null" json:"score"`
	AvgExecutionMs float64   `gorm:"default:0" json:"avg_execution_ms"`
	AvgMemoryKB    float64   `gorm:"default:0" json:"avg_memory_kb"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Passed reports whether the submission cleared every test case.
func (s Submission) Passed() bool {
	return s.Status == SubmissionStatusPass
}
