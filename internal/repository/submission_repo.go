package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/models"
)

// GradedAttempt is one submission joined with the submitter's ability proxy.
// Ability falls back to 50 when the learner has no profile yet.
type GradedAttempt struct {
	UserID  string
	Status  string
	Score   int
	Ability float64
}

// LearnerStats aggregates a learner's submission history for profiling.
type LearnerStats struct {
	TotalAttempts  int64
	PassedCount    int64
	AvgScore       float64
	AvgExecutionMs float64
	SolvedUnique   int64
}

// SubmissionRepository exposes persistence helpers for graded submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, submission *models.Submission) error
	ListGradedWithAbility(ctx context.Context, problemID uint) ([]GradedAttempt, error)
	AggregateByUser(ctx context.Context, userID string) (LearnerStats, error)
}

// NewSubmissionRepository constructs a submission repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

type submissionRepository struct {
	db *gorm.DB
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) ListGradedWithAbility(ctx context.Context, problemID uint) ([]GradedAttempt, error) {
	var attempts []GradedAttempt
	err := r.db.WithContext(ctx).
		Table("submissions AS s").
		Select("s.user_id, s.status, s.score, COALESCE(p.stability_score, 50) AS ability").
		Joins("LEFT JOIN learner_profiles p ON p.user_id = s.user_id").
		Where("s.problem_id = ?", problemID).
		Scan(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *submissionRepository) AggregateByUser(ctx context.Context, userID string) (LearnerStats, error) {
	var stats LearnerStats
	err := r.db.WithContext(ctx).
		Table("submissions").
		Select(`COUNT(*) AS total_attempts,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS passed_count,
			COALESCE(AVG(score), 0) AS avg_score,
			COALESCE(AVG(avg_execution_ms), 0) AS avg_execution_ms,
			COUNT(DISTINCT problem_id) AS solved_unique`, models.SubmissionStatusPass).
		Where("user_id = ?", userID).
		Scan(&stats).Error
	if err != nil {
		return LearnerStats{}, err
	}
	return stats, nil
}
