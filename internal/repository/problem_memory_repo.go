package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/codenest-edu/grader-api/internal/models"
)

// memoryProblemRepository is the in-memory fallback catalog used when the
// primary store is unavailable. Selected at startup by a runtime flag, it
// satisfies the same interface as the gorm implementation so the orchestrator
// never branches on the backing store.
type memoryProblemRepository struct {
	mu       sync.RWMutex
	nextID   uint
	problems map[uint]models.Problem
}

// NewMemoryProblemRepository constructs an in-memory problem repository
// seeded with the provided fixtures.
func NewMemoryProblemRepository(seed ...models.Problem) ProblemRepository {
	repo := &memoryProblemRepository{
		nextID:   1,
		problems: make(map[uint]models.Problem, len(seed)),
	}

	for _, problem := range seed {
		if problem.ID == 0 {
			problem.ID = repo.nextID
		}
		repo.problems[problem.ID] = problem
		if problem.ID >= repo.nextID {
			repo.nextID = problem.ID + 1
		}
	}

	return repo
}

// SeedProblems returns the built-in fixture catalog, mirroring the sample
// exercises shipped for development without a database.
func SeedProblems() []models.Problem {
	cases, _ := json.Marshal([]models.TestCase{
		{Input: "5 3", ExpectedOutput: "8"},
		{Input: "10 20", ExpectedOutput: "30", IsHidden: true},
	})

	return []models.Problem{{
		ID:          1,
		Title:       "sum-of-two",
		Description: "Read two space-separated integers and print their sum.",
		Difficulty:  1,
		Tags:        "io,basic",
		StarterCode: "num1, num2 = input().split()\nnum1 = int(num1)\nnum2 = int(num2)\nprint( ... )",
		TestCases:   cases,
	}}
}

func (r *memoryProblemRepository) Create(ctx context.Context, problem *models.Problem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if problem.ID == 0 {
		problem.ID = r.nextID
	}
	if problem.ID >= r.nextID {
		r.nextID = problem.ID + 1
	}
	r.problems[problem.ID] = *problem
	return nil
}

func (r *memoryProblemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	problem, ok := r.problems[id]
	if !ok {
		return models.Problem{}, gorm.ErrRecordNotFound
	}
	return problem, nil
}

func (r *memoryProblemRepository) List(ctx context.Context) ([]models.Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	problems := make([]models.Problem, 0, len(r.problems))
	for _, problem := range r.problems {
		problems = append(problems, problem)
	}
	sort.Slice(problems, func(i, j int) bool { return problems[i].ID < problems[j].ID })
	return problems, nil
}
