package repository

import (
	"context"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codenest-edu/grader-api/internal/models"
)

// ActivationRepository upserts per-learner knowledge-node activation state.
// Concurrent reinforcements for the same (user, node) are resolved by the
// database's atomic upsert, not by application-level locking.
type ActivationRepository interface {
	Reinforce(ctx context.Context, userID, nodeID string, gain float64, exp int64, at time.Time) error
	Get(ctx context.Context, userID, nodeID string) (models.ActivationNode, error)
}

// NewActivationRepository constructs an activation repository.
func NewActivationRepository(db *gorm.DB) ActivationRepository {
	return &activationRepository{db: db}
}

type activationRepository struct {
	db *gorm.DB
}

func (r *activationRepository) Reinforce(ctx context.Context, userID, nodeID string, gain float64, exp int64, at time.Time) error {
	node := models.ActivationNode{
		UserID:          userID,
		NodeID:          nodeID,
		ActivationLevel: math.Min(gain, 1.0),
		TotalExp:        exp,
		LastActivatedAt: at,
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "node_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"activation_level":  gorm.Expr("CASE WHEN activation_level + ? > 1.0 THEN 1.0 ELSE activation_level + ? END", gain, gain),
			"total_exp":         gorm.Expr("total_exp + ?", exp),
			"last_activated_at": at,
		}),
	}).Create(&node).Error
}

func (r *activationRepository) Get(ctx context.Context, userID, nodeID string) (models.ActivationNode, error) {
	var node models.ActivationNode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND node_id = ?", userID, nodeID).
		First(&node).Error
	if err != nil {
		return models.ActivationNode{}, err
	}
	return node, nil
}
