package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/dto"
	"github.com/codenest-edu/grader-api/internal/models"
	"github.com/codenest-edu/grader-api/internal/repository"
)

// ErrInvalidTestCases indicates the authored test-case set failed schema
// validation.
var ErrInvalidTestCases = errors.New("invalid test cases")

// testCaseSchema constrains authored test-case arrays before they are stored.
const testCaseSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["input", "output"],
		"properties": {
			"input": {"type": "string"},
			"output": {"type": "string"},
			"is_hidden": {"type": "boolean"}
		},
		"additionalProperties": false
	}
}`

// ProblemService exposes the problem catalog.
type ProblemService interface {
	Get(ctx context.Context, id uint) (dto.ProblemResponse, error)
	List(ctx context.Context) ([]dto.ProblemSummary, error)
	Create(ctx context.Context, req dto.ProblemCreateRequest) (dto.ProblemResponse, error)
}

type problemService struct {
	problems  repository.ProblemRepository
	cache     *redis.Client
	cacheTTL  time.Duration
	schema    *jsonschema.Schema
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewProblemService constructs the problem catalog service. The cache client
// may be nil; lookups then always hit the repository.
func NewProblemService(problems repository.ProblemRepository, cache *redis.Client, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) (ProblemService, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("test_cases.schema.json", strings.NewReader(testCaseSchema)); err != nil {
		return nil, fmt.Errorf("add test case schema: %w", err)
	}
	schema, err := compiler.Compile("test_cases.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile test case schema: %w", err)
	}

	return &problemService{
		problems:  problems,
		cache:     cache,
		cacheTTL:  ttl,
		schema:    schema,
		validator: validate,
		logger:    logger.With().Str("component", "problem_service").Logger(),
	}, nil
}

func (s *problemService) Get(ctx context.Context, id uint) (dto.ProblemResponse, error) {
	cacheKey := fmt.Sprintf("problem:%d", id)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.ProblemResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				return response, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read problem cache")
		}
	}

	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	response, err := dto.NewProblemResponse(problem)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *problemService) List(ctx context.Context) ([]dto.ProblemSummary, error) {
	const cacheKey = "problems:all"

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var summaries []dto.ProblemSummary
			if unmarshalErr := json.Unmarshal([]byte(cached), &summaries); unmarshalErr == nil {
				return summaries, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read problem list cache")
		}
	}

	problems, err := s.problems.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.ProblemSummary, 0, len(problems))
	for _, problem := range problems {
		summaries = append(summaries, dto.NewProblemSummary(problem))
	}

	s.writeCache(ctx, cacheKey, summaries)
	return summaries, nil
}

func (s *problemService) Create(ctx context.Context, req dto.ProblemCreateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ProblemResponse{}, err
	}

	if err := s.validateTestCases(req.TestCases); err != nil {
		return dto.ProblemResponse{}, err
	}

	var cases []models.TestCase
	if err := json.Unmarshal(req.TestCases, &cases); err != nil {
		return dto.ProblemResponse{}, fmt.Errorf("%w: %v", ErrInvalidTestCases, err)
	}

	encoded, err := json.Marshal(cases)
	if err != nil {
		return dto.ProblemResponse{}, fmt.Errorf("encode test cases: %w", err)
	}

	difficulty := req.Difficulty
	if difficulty == 0 {
		difficulty = 1
	}

	problem := models.Problem{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  difficulty,
		Tags:        strings.Join(req.Tags, ","),
		StarterCode: req.StarterCode,
		TestCases:   encoded,
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	s.invalidate(ctx, "problems:all")
	return dto.NewProblemResponse(problem)
}

func (s *problemService) validateTestCases(encoded []byte) error {
	var decoded interface{}
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTestCases, err)
	}
	if err := s.schema.Validate(decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTestCases, err)
	}
	return nil
}

func (s *problemService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, key, encoded, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to write problem cache")
	}
}

func (s *problemService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, key).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to invalidate problem cache")
	}
}
