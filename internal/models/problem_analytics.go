package models

import "time"

// HealthStatus enumerates derived problem quality classifications.
const (
	HealthStatusHealthy    = "HEALTHY"
	HealthStatusHard       = "HARD"
	HealthStatusEasy       = "EASY"
	HealthStatusQuarantine = "QUARANTINE"
)

// ProblemAnalytics is the materialized quality view for one problem. The row
// is fully overwritten on each recomputation, never appended to.
type ProblemAnalytics struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	ProblemID           uint      `gorm:"not null;uniqueIndex" json:"problem_id"`
	PassRate            float64   `gorm:"not null;default:0" json:"pass_rate"`
	DiscriminationIndex float64   `gorm:"not null;default:0" json:"discrimination_index"`
	HealthScore         int       `gorm:"not null;default:100" json:"health_score"`
	HealthStatus        string    `gorm:"size:16;not null" json:"health_status"`
	LastAnalyzed        time.Time `json:"last_analyzed"`
}
