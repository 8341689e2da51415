package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codenest-edu/grader-api/internal/models"
)

// LearnerProfileRepository stores derived learner personality traits.
type LearnerProfileRepository interface {
	Upsert(ctx context.Context, profile *models.LearnerProfile) error
	GetByUser(ctx context.Context, userID string) (models.LearnerProfile, error)
}

// NewLearnerProfileRepository constructs a learner profile repository.
func NewLearnerProfileRepository(db *gorm.DB) LearnerProfileRepository {
	return &learnerProfileRepository{db: db}
}

type learnerProfileRepository struct {
	db *gorm.DB
}

func (r *learnerProfileRepository) Upsert(ctx context.Context, profile *models.LearnerProfile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"primary_archetype", "logic_score", "efficiency_score",
			"persistence_score", "stability_score", "last_updated",
		}),
	}).Create(profile).Error
}

func (r *learnerProfileRepository) GetByUser(ctx context.Context, userID string) (models.LearnerProfile, error) {
	var profile models.LearnerProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return models.LearnerProfile{}, err
	}
	return profile, nil
}
