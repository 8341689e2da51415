package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/models"
)

// ProblemMappingRepository resolves the knowledge nodes a problem
// contributes to.
type ProblemMappingRepository interface {
	ListByProblem(ctx context.Context, problemID uint) ([]models.ProblemMapping, error)
}

// NewProblemMappingRepository constructs a mapping repository.
func NewProblemMappingRepository(db *gorm.DB) ProblemMappingRepository {
	return &problemMappingRepository{db: db}
}

type problemMappingRepository struct {
	db *gorm.DB
}

func (r *problemMappingRepository) ListByProblem(ctx context.Context, problemID uint) ([]models.ProblemMapping, error) {
	var mappings []models.ProblemMapping
	err := r.db.WithContext(ctx).
		Where("problem_id = ?", problemID).
		Find(&mappings).Error
	if err != nil {
		return nil, err
	}
	return mappings, nil
}
