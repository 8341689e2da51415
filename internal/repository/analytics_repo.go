package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codenest-edu/grader-api/internal/models"
)

// AnalyticsRepository stores the materialized quality view per problem.
type AnalyticsRepository interface {
	Upsert(ctx context.Context, analytics *models.ProblemAnalytics) error
	GetByProblem(ctx context.Context, problemID uint) (models.ProblemAnalytics, error)
}

// NewAnalyticsRepository constructs an analytics repository.
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

type analyticsRepository struct {
	db *gorm.DB
}

// Upsert fully overwrites the analytics row for the problem.
func (r *analyticsRepository) Upsert(ctx context.Context, analytics *models.ProblemAnalytics) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "problem_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"pass_rate", "discrimination_index", "health_score", "health_status", "last_analyzed",
		}),
	}).Create(analytics).Error
}

func (r *analyticsRepository) GetByProblem(ctx context.Context, problemID uint) (models.ProblemAnalytics, error) {
	var analytics models.ProblemAnalytics
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		First(&analytics).Error
	if err != nil {
		return models.ProblemAnalytics{}, err
	}
	return analytics, nil
}
