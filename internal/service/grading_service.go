package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/dto"
	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
	"github.com/codenest-edu/grader-api/pkg/sandbox"
)

// ErrProblemNotFound indicates the requested problem does not exist.
var ErrProblemNotFound = errors.New("problem not found")

// ErrNoTestCases indicates the problem has no test cases to grade against.
var ErrNoTestCases = errors.New("no test cases defined for this problem")

// GradingService runs a candidate solution against a problem's test cases,
// derives the score and schedules the background propagations.
type GradingService interface {
	Grade(ctx context.Context, req dto.GradingRequest) (dto.GradingResponse, error)
}

// GradingConfig holds orchestrator knobs.
type GradingConfig struct {
	// TestTimeout bounds each test case individually, not the submission.
	TestTimeout time.Duration
	// EntryFileName is the file the candidate source is written to.
	EntryFileName string
	// BackgroundTimeout bounds each fire-and-forget propagation.
	BackgroundTimeout time.Duration
}

type testOutcome struct {
	Input    string
	Expected string
	Actual   string
	Passed   bool
	Error    string
	TimeMs   float64
	MemoryKB int64
}

type gradingService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	runner      sandbox.Runner
	mastery     MasteryService
	quality     QualityService
	profiling   ProfilingService
	sampler     QualitySampler
	validator   *validator.Validate
	logger      zerolog.Logger
	cfg         GradingConfig
	now         func() time.Time
}

// NewGradingService constructs the grading orchestrator.
func NewGradingService(
	problems repository.ProblemRepository,
	submissions repository.SubmissionRepository,
	runner sandbox.Runner,
	mastery MasteryService,
	quality QualityService,
	profiling ProfilingService,
	sampler QualitySampler,
	validate *validator.Validate,
	logger zerolog.Logger,
	cfg GradingConfig,
) GradingService {
	if cfg.TestTimeout <= 0 {
		cfg.TestTimeout = 3 * time.Second
	}
	if cfg.EntryFileName == "" {
		cfg.EntryFileName = "main.py"
	}
	if cfg.BackgroundTimeout <= 0 {
		cfg.BackgroundTimeout = 30 * time.Second
	}

	return &gradingService{
		problems:    problems,
		submissions: submissions,
		runner:      runner,
		mastery:     mastery,
		quality:     quality,
		profiling:   profiling,
		sampler:     sampler,
		validator:   validate,
		logger:      logger.With().Str("component", "grading_service").Logger(),
		cfg:         cfg,
		now:         time.Now,
	}
}

// Grade executes every test case sequentially, in list order, and blocks
// until all of them have completed. Runner-level failures become failing
// outcomes; only a missing problem or an empty test-case list abort grading.
func (s *gradingService) Grade(ctx context.Context, req dto.GradingRequest) (dto.GradingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.GradingResponse{}, err
	}

	tracer := otel.Tracer("github.com/codenest-edu/grader-api/internal/service/grading")
	ctx, span := tracer.Start(ctx, "grading.grade")
	span.SetAttributes(attribute.Int("grading.problem_id", int(req.ProblemID)))
	defer span.End()

	problem, err := s.problems.GetByID(ctx, req.ProblemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingResponse{}, ErrProblemNotFound
		}
		return dto.GradingResponse{}, err
	}

	cases, err := problem.DecodedTestCases()
	if err != nil {
		return dto.GradingResponse{}, fmt.Errorf("decode test cases: %w", err)
	}
	if len(cases) == 0 {
		return dto.GradingResponse{}, ErrNoTestCases
	}

	outcomes := make([]testOutcome, 0, len(cases))
	for _, tc := range cases {
		outcomes = append(outcomes, s.runTestCase(ctx, req.Code, tc))
	}

	total := len(outcomes)
	passed := 0
	hadError := false
	var sumTimeMs, sumMemoryKB float64
	for _, outcome := range outcomes {
		if outcome.Passed {
			passed++
		}
		if outcome.Error != "" {
			hadError = true
		}
		sumTimeMs += outcome.TimeMs
		sumMemoryKB += float64(outcome.MemoryKB)
	}

	score := int(math.Round(float64(passed) / float64(total) * 100))
	success := passed == total

	status := models.SubmissionStatusFail
	if success {
		status = models.SubmissionStatusPass
	}
	if hadError {
		status = models.SubmissionStatusError
	}

	if req.UserID != "" {
		s.recordSubmission(ctx, req, status, score, sumTimeMs/float64(total), sumMemoryKB/float64(total))

		if status == models.SubmissionStatusPass {
			s.spawn("mastery", func(ctx context.Context) error {
				return s.mastery.Reinforce(ctx, req.UserID, req.ProblemID, score)
			})
		}

		s.spawn("profiling", func(ctx context.Context) error {
			return s.profiling.AnalyzeLearner(ctx, req.UserID)
		})

		if s.sampler.Sample() {
			s.spawn("quality", func(ctx context.Context) error {
				return s.quality.EvaluateProblem(ctx, req.ProblemID)
			})
		}
	}

	return dto.GradingResponse{
		Success: success,
		Total:   total,
		Passed:  passed,
		Score:   score,
		Results: buildResultViews(outcomes, cases),
	}, nil
}

func (s *gradingService) runTestCase(ctx context.Context, code string, tc models.TestCase) testOutcome {
	result, err := s.runner.Execute(ctx, sandbox.Request{
		Files:      []sandbox.File{{Path: s.cfg.EntryFileName, Content: code}},
		EntryPoint: s.cfg.EntryFileName,
		Stdin:      tc.Input,
		Timeout:    s.cfg.TestTimeout,
	})

	outcome := testOutcome{
		Input:    tc.Input,
		Expected: tc.ExpectedOutput,
		TimeMs:   float64(result.Duration.Milliseconds()),
		MemoryKB: result.MaxRSSKB,
	}

	switch {
	case err != nil:
		outcome.Error = err.Error()
	case result.TimedOut:
		outcome.Error = "execution timed out"
	case result.ExitCode != 0:
		outcome.Error = strings.TrimSpace(result.Stderr)
		if outcome.Error == "" {
			outcome.Error = fmt.Sprintf("process exited with code %d", result.ExitCode)
		}
	}

	outcome.Actual = strings.TrimSpace(result.Stdout)

	// Matching output never rescues an abnormal exit.
	outcome.Passed = outcome.Error == "" &&
		outcome.Actual == strings.TrimSpace(tc.ExpectedOutput)

	return outcome
}

// recordSubmission persists the attempt best-effort: storage degradation must
// never hide a grading result from the learner.
func (s *gradingService) recordSubmission(ctx context.Context, req dto.GradingRequest, status string, score int, avgTimeMs, avgMemoryKB float64) {
	submission := models.Submission{
		UserID:         req.UserID,
		ProblemID:      req.ProblemID,
		Code:           req.Code,
		Status:         status,
		Score:          score,
		AvgExecutionMs: avgTimeMs,
		AvgMemoryKB:    avgMemoryKB,
		SubmittedAt:    s.now(),
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", req.UserID).
			Uint("problem_id", req.ProblemID).
			Msg("failed to save submission")
	}
}

// spawn runs fn as a fire-and-forget task with its own error boundary and a
// detached context, so neither a failure nor request cancellation can reach
// the synchronous grading response.
func (s *gradingService) spawn(name string, fn func(ctx context.Context) error) {
	logger := s.logger.With().Str("task", name).Logger()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Msg("background task panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.BackgroundTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			logger.Error().Err(err).Msg("background task failed")
		}
	}()
}

func buildResultViews(outcomes []testOutcome, cases []models.TestCase) []dto.TestOutcomeView {
	views := make([]dto.TestOutcomeView, 0, len(outcomes))
	for i, outcome := range outcomes {
		if cases[i].IsHidden {
			view := dto.TestOutcomeView{
				Passed:  outcome.Passed,
				Hidden:  true,
				Status:  "failed",
				Message: "Hidden test case failed",
			}
			if outcome.Passed {
				view.Status = "passed"
				view.Message = "Hidden test case passed"
			}
			views = append(views, view)
			continue
		}

		views = append(views, dto.TestOutcomeView{
			Input:    outcome.Input,
			Expected: outcome.Expected,
			Actual:   outcome.Actual,
			Passed:   outcome.Passed,
			Error:    outcome.Error,
			TimeMs:   outcome.TimeMs,
			MemoryKB: outcome.MemoryKB,
		})
	}
	return views
}
