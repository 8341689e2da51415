package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/codenest-edu/grader-api/internal/repository"
)

// learningRate scales activation gain per reinforcement.
const learningRate = 0.1

// MasteryService propagates a graded score into the learner's activation
// graph: every knowledge node the problem maps to gets brighter, with
// diminishing visible gain once the activation level approaches its cap.
type MasteryService interface {
	Reinforce(ctx context.Context, userID string, problemID uint, score int) error
}

type masteryService struct {
	mappings    repository.ProblemMappingRepository
	activations repository.ActivationRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewMasteryService constructs the mastery engine.
func NewMasteryService(mappings repository.ProblemMappingRepository, activations repository.ActivationRepository, logger zerolog.Logger) MasteryService {
	return &masteryService{
		mappings:    mappings,
		activations: activations,
		logger:      logger.With().Str("component", "mastery_service").Logger(),
		now:         time.Now,
	}
}

// Reinforce upserts an activation node per mapped knowledge tag. A no-op for
// zero scores. One node's persistence failure never aborts updates to its
// siblings.
func (s *masteryService) Reinforce(ctx context.Context, userID string, problemID uint, score int) error {
	if userID == "" || score <= 0 {
		return nil
	}

	mappings, err := s.mappings.ListByProblem(ctx, problemID)
	if err != nil {
		return err
	}

	if len(mappings) == 0 {
		s.logger.Debug().Uint("problem_id", problemID).Msg("no knowledge mappings for problem")
		return nil
	}

	activated := 0
	for _, mapping := range mappings {
		gain := float64(score) / 100 * mapping.Weight * learningRate

		if err := s.activations.Reinforce(ctx, userID, mapping.NodeID, gain, int64(score), s.now()); err != nil {
			s.logger.Error().Err(err).
				Str("user_id", userID).
				Str("node_id", mapping.NodeID).
				Msg("failed to reinforce activation node")
			continue
		}
		activated++
	}

	s.logger.Info().
		Str("user_id", userID).
		Uint("problem_id", problemID).
		Int("nodes_activated", activated).
		Msg("activation graph updated")

	return nil
}
