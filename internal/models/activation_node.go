package models

import "time"

// ActivationNode tracks a learner's strength on one knowledge-graph tag.
// ActivationLevel is clamped at 1.0 and signals recent strength; TotalExp
// keeps accumulating without bound and signals lifetime effort. The two
// deliberately diverge over time.
type ActivationNode struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          string    `gorm:"size:64;not null;uniqueIndex:idx_user_node" json:"user_id"`
	NodeID          string    `gorm:"size:64;not null;uniqueIndex:idx_user_node" json:"node_id"`
	ActivationLevel float64   `gorm:"not null;default:0" json:"activation_level"`
	TotalExp        int64     `gorm:"not null;default:0" json:"total_exp"`
	LastActivatedAt time.Time `json:"last_activated_at"`
}
