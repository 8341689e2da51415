package service

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
)

// ProfilingService derives a learner's personality traits from their
// submission history. Its stability score is the ability proxy the quality
// engine uses when splitting submitters into top and bottom groups.
type ProfilingService interface {
	AnalyzeLearner(ctx context.Context, userID string) error
}

type profilingService struct {
	submissions repository.SubmissionRepository
	profiles    repository.LearnerProfileRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProfilingService constructs the profiling engine.
func NewProfilingService(submissions repository.SubmissionRepository, profiles repository.LearnerProfileRepository, logger zerolog.Logger) ProfilingService {
	return &profilingService{
		submissions: submissions,
		profiles:    profiles,
		logger:      logger.With().Str("component", "profiling_service").Logger(),
		now:         time.Now,
	}
}

func (s *profilingService) AnalyzeLearner(ctx context.Context, userID string) error {
	if userID == "" {
		return nil
	}

	stats, err := s.submissions.AggregateByUser(ctx, userID)
	if err != nil {
		return err
	}

	if stats.TotalAttempts == 0 {
		return nil
	}

	passRate := float64(stats.PassedCount) / float64(stats.TotalAttempts)

	// Persistence: attempts per distinct problem, normalized.
	solved := stats.SolvedUnique
	if solved == 0 {
		solved = 1
	}
	persistence := clampScore(int(math.Round(float64(stats.TotalAttempts) / float64(solved) * 20)))

	// Efficiency: inverse of average execution time.
	efficiency := clampScore(int(math.Round(100 - stats.AvgExecutionMs*2)))

	// Stability: first-try correctness, i.e. the overall pass rate.
	stability := clampScore(int(math.Round(passRate * 100)))

	// Logic: baseline until difficulty-weighted data is wired in.
	logic := 50

	archetype := models.ArchetypeExplorer
	best := -1
	if stability > 80 && stability > best {
		archetype = models.ArchetypeArchitect
		best = stability
	}
	if efficiency > 80 && efficiency > best {
		archetype = models.ArchetypeHacker
		best = efficiency
	}
	if persistence > 80 && persistence > best {
		archetype = models.ArchetypeExplorer
		best = persistence
	}

	s.logger.Info().
		Str("user_id", userID).
		Int("stability", stability).
		Int("efficiency", efficiency).
		Int("persistence", persistence).
		Str("archetype", archetype).
		Msg("learner profile updated")

	return s.profiles.Upsert(ctx, &models.LearnerProfile{
		UserID:           userID,
		PrimaryArchetype: archetype,
		LogicScore:       logic,
		EfficiencyScore:  efficiency,
		PersistenceScore: persistence,
		StabilityScore:   stability,
		LastUpdated:      s.now(),
	})
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
