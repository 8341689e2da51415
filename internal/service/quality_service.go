package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
)

// QualityService recomputes a problem's empirical health from its submission
// history: pass rate, item-discrimination index (27% rule) and a derived
// classification written back as a materialized analytics row.
type QualityService interface {
	EvaluateProblem(ctx context.Context, problemID uint) error
}

// QualityConfig holds the evaluation knobs.
type QualityConfig struct {
	// MinSamples gates the estimate; evaluation is skipped below it.
	MinSamples int
}

type qualityService struct {
	submissions repository.SubmissionRepository
	analytics   repository.AnalyticsRepository
	cfg         QualityConfig
	logger      zerolog.Logger
	now         func() time.Time
}

// NewQualityService constructs the quality engine.
func NewQualityService(submissions repository.SubmissionRepository, analytics repository.AnalyticsRepository, cfg QualityConfig, logger zerolog.Logger) QualityService {
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = 5
	}

	return &qualityService{
		submissions: submissions,
		analytics:   analytics,
		cfg:         cfg,
		logger:      logger.With().Str("component", "quality_service").Logger(),
		now:         time.Now,
	}
}

func (s *qualityService) EvaluateProblem(ctx context.Context, problemID uint) error {
	attempts, err := s.submissions.ListGradedWithAbility(ctx, problemID)
	if err != nil {
		return err
	}

	total := len(attempts)
	if total < s.cfg.MinSamples {
		s.logger.Debug().Uint("problem_id", problemID).Int("samples", total).Msg("skipping evaluation: insufficient sample size")
		return nil
	}

	passed := 0
	for _, attempt := range attempts {
		if attempt.Status == models.SubmissionStatusPass {
			passed++
		}
	}
	passRate := float64(passed) / float64(total) * 100

	// Top/bottom 27% split by submitter ability. With small samples the
	// groups can shrink to a single submission; the MinSamples gate is the
	// only safeguard.
	sort.SliceStable(attempts, func(i, j int) bool {
		return attempts[i].Ability > attempts[j].Ability
	})

	groupSize := int(float64(total) * 0.27)
	if groupSize < 1 {
		groupSize = 1
	}

	topPass := groupPassRate(attempts[:groupSize])
	bottomPass := groupPassRate(attempts[total-groupSize:])
	discrimination := topPass - bottomPass

	healthScore := 100
	if discrimination < 0 {
		healthScore -= 50
	} else if discrimination < 0.2 {
		healthScore -= 20
	}
	if passRate < 10 {
		healthScore -= 10
	}
	if passRate > 90 {
		healthScore -= 5
	}

	healthStatus := models.HealthStatusHealthy
	switch {
	case healthScore < 50:
		healthStatus = models.HealthStatusQuarantine
	case passRate < 15:
		healthStatus = models.HealthStatusHard
	case passRate > 85:
		healthStatus = models.HealthStatusEasy
	}

	s.logger.Info().
		Uint("problem_id", problemID).
		Float64("pass_rate", passRate).
		Float64("discrimination_index", discrimination).
		Int("health_score", healthScore).
		Str("health_status", healthStatus).
		Msg("problem evaluated")

	return s.analytics.Upsert(ctx, &models.ProblemAnalytics{
		ProblemID:           problemID,
		PassRate:            passRate,
		DiscriminationIndex: discrimination,
		HealthScore:         healthScore,
		HealthStatus:        healthStatus,
		LastAnalyzed:        s.now(),
	})
}

func groupPassRate(attempts []repository.GradedAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}

	passed := 0
	for _, attempt := range attempts {
		if attempt.Status == models.SubmissionStatusPass {
			passed++
		}
	}
	return float64(passed) / float64(len(attempts))
}
