package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// TestCase is a single input/expected-output pair belonging to a problem.
// The order of test cases is significant: grading outcomes align positionally
// with this list so hidden masking can be applied per index.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"output"`
	IsHidden       bool   `json:"is_hidden,omitempty"`
}

// Problem represents a coding exercise graded against its test cases.
type Problem struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Difficulty  int            `gorm:"not null;default:1" json:"difficulty"`
	Tags        string         `gorm:"type:text" json:"tags"`
	StarterCode string         `gorm:"type:text" json:"starter_code"`
	TestCases   datatypes.JSON `json:"test_cases"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DecodedTestCases parses the test-case column preserving order.
func (p Problem) DecodedTestCases() ([]TestCase, error) {
	if len(p.TestCases) == 0 {
		return nil, nil
	}

	var cases []TestCase
	if err := json.Unmarshal(p.TestCases, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}

// TagsSlice returns the tags as a slice of strings.
func (p Problem) TagsSlice() []string {
	if p.Tags == "" {
		return nil
	}

	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}
