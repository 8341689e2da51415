package models

// ProblemMapping links a problem to a knowledge-graph node with the weight
// that problem contributes when reinforced.
type ProblemMapping struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ProblemID uint    `gorm:"not null;uniqueIndex:idx_problem_node" json:"problem_id"`
	NodeID    string  `gorm:"size:64;not null;uniqueIndex:idx_problem_node" json:"node_id"`
	Weight    float64 `gorm:"not null;default:1" json:"weight"`
}
