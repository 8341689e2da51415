package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
)

type stubAttemptRepo struct {
	attempts []repository.GradedAttempt
	err      error
}

func (s *stubAttemptRepo) Create(ctx context.Context, submission *models.Submission) error {
	return errors.New("not implemented")
}

func (s *stubAttemptRepo) ListGradedWithAbility(ctx context.Context, problemID uint) ([]repository.GradedAttempt, error) {
	return s.attempts, s.err
}

func (s *stubAttemptRepo) AggregateByUser(ctx context.Context, userID string) (repository.LearnerStats, error) {
	return repository.LearnerStats{}, errors.New("not implemented")
}

type recordingAnalyticsRepo struct {
	upserted *models.ProblemAnalytics
}

func (r *recordingAnalyticsRepo) Upsert(ctx context.Context, analytics *models.ProblemAnalytics) error {
	clone := *analytics
	r.upserted = &clone
	return nil
}

func (r *recordingAnalyticsRepo) GetByProblem(ctx context.Context, problemID uint) (models.ProblemAnalytics, error) {
	return models.ProblemAnalytics{}, errors.New("not implemented")
}

func attempt(ability float64, passed bool) repository.GradedAttempt {
	status := models.SubmissionStatusFail
	if passed {
		status = models.SubmissionStatusPass
	}
	return repository.GradedAttempt{UserID: "u", Status: status, Ability: ability}
}

func newQualityFixture(attempts []repository.GradedAttempt) (QualityService, *recordingAnalyticsRepo) {
	analytics := &recordingAnalyticsRepo{}
	svc := NewQualityService(&stubAttemptRepo{attempts: attempts}, analytics, QualityConfig{MinSamples: 5}, zerolog.Nop())
	return svc, analytics
}

func TestEvaluateSkipsInsufficientSample(t *testing.T) {
	svc, analytics := newQualityFixture([]repository.GradedAttempt{
		attempt(90, true), attempt(70, true), attempt(50, false), attempt(30, false),
	})

	require.NoError(t, svc.EvaluateProblem(context.Background(), 1))
	require.Nil(t, analytics.upserted, "below the sample gate nothing may be written")
}

func TestEvaluateHealthyProblem(t *testing.T) {
	// Strong item: high-ability learners pass, low-ability learners fail.
	attempts := make([]repository.GradedAttempt, 0, 10)
	for i := 0; i < 10; i++ {
		attempts = append(attempts, attempt(float64(100-i*10), i < 5))
	}

	svc, analytics := newQualityFixture(attempts)
	require.NoError(t, svc.EvaluateProblem(context.Background(), 1))

	require.NotNil(t, analytics.upserted)
	require.Equal(t, uint(1), analytics.upserted.ProblemID)
	require.InDelta(t, 50.0, analytics.upserted.PassRate, 1e-9)
	require.InDelta(t, 1.0, analytics.upserted.DiscriminationIndex, 1e-9)
	require.Equal(t, 100, analytics.upserted.HealthScore)
	require.Equal(t, models.HealthStatusHealthy, analytics.upserted.HealthStatus)
	require.False(t, analytics.upserted.LastAnalyzed.IsZero())
}

func TestEvaluateQuarantinesInvertedDiscrimination(t *testing.T) {
	// 11 attempts, one passer who sits in the bottom ability group: the
	// problem rewards low ability and is nearly unsolvable.
	attempts := make([]repository.GradedAttempt, 0, 11)
	for i := 0; i < 11; i++ {
		attempts = append(attempts, attempt(float64(110-i*10), i == 10))
	}

	svc, analytics := newQualityFixture(attempts)
	require.NoError(t, svc.EvaluateProblem(context.Background(), 2))

	require.NotNil(t, analytics.upserted)
	require.Negative(t, analytics.upserted.DiscriminationIndex)
	require.GreaterOrEqual(t, analytics.upserted.DiscriminationIndex, -1.0)
	require.Equal(t, 40, analytics.upserted.HealthScore)
	require.Equal(t, models.HealthStatusQuarantine, analytics.upserted.HealthStatus)
}

func TestEvaluateClassifiesHardProblem(t *testing.T) {
	// One passer out of ten, and the passer is the strongest learner.
	attempts := make([]repository.GradedAttempt, 0, 10)
	for i := 0; i < 10; i++ {
		attempts = append(attempts, attempt(float64(100-i*10), i == 0))
	}

	svc, analytics := newQualityFixture(attempts)
	require.NoError(t, svc.EvaluateProblem(context.Background(), 3))

	require.NotNil(t, analytics.upserted)
	require.InDelta(t, 10.0, analytics.upserted.PassRate, 1e-9)
	require.Equal(t, models.HealthStatusHard, analytics.upserted.HealthStatus)
}

func TestEvaluateClassifiesEasyProblem(t *testing.T) {
	// Nine passers out of ten; the one failer is the weakest learner.
	attempts := make([]repository.GradedAttempt, 0, 10)
	for i := 0; i < 10; i++ {
		attempts = append(attempts, attempt(float64(100-i*10), i != 9))
	}

	svc, analytics := newQualityFixture(attempts)
	require.NoError(t, svc.EvaluateProblem(context.Background(), 4))

	require.NotNil(t, analytics.upserted)
	require.InDelta(t, 90.0, analytics.upserted.PassRate, 1e-9)
	require.Equal(t, models.HealthStatusEasy, analytics.upserted.HealthStatus)
}

func TestEvaluatePropagatesRepositoryError(t *testing.T) {
	analytics := &recordingAnalyticsRepo{}
	svc := NewQualityService(&stubAttemptRepo{err: errors.New("db down")}, analytics, QualityConfig{}, zerolog.Nop())

	require.Error(t, svc.EvaluateProblem(context.Background(), 5))
	require.Nil(t, analytics.upserted)
}
