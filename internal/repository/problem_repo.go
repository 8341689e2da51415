package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/models"
)

// ProblemRepository exposes read/write access to the problem catalog.
type ProblemRepository interface {
	Create(ctx context.Context, problem *models.Problem) error
	GetByID(ctx context.Context, id uint) (models.Problem, error)
	List(ctx context.Context) ([]models.Problem, error)
}

// NewProblemRepository constructs a gorm-backed problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

type problemRepository struct {
	db *gorm.DB
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Create(problem).Error
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.db.WithContext(ctx).First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) List(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}
