// Package catalog holds the read-only library of diagnosis cases.
package catalog

import (
	"fmt"
	"math/rand"
	"os"

	"daily-diagnosis-bot/internal/model"
)

// RandSource is the randomness used for non-daily case selection.
type RandSource interface {
	// Intn returns a uniform value in [0, n). n is always positive.
	Intn(n int) int
}

type defaultRand struct{}

func (defaultRand) Intn(n int) int { return rand.Intn(n) }

// Repository is an immutable, ordered collection of cases.
// It is safe for concurrent use since nothing mutates it after construction.
type Repository struct {
	cases []model.Case
	byID  map[string]int
	rnd   RandSource
}

// Option configures a Repository.
type Option func(*Repository)

// WithRand sets the randomness source used by RandomCase.
func WithRand(r RandSource) Option {
	return func(repo *Repository) {
		if r != nil {
			repo.rnd = r
		}
	}
}

// New creates a repository over cases in the given order.
// When two cases share an id the first one is kept for lookups.
func New(cases []model.Case, opts ...Option) *Repository {
	repo := &Repository{
		cases: make([]model.Case, len(cases)),
		byID:  make(map[string]int, len(cases)),
		rnd:   defaultRand{},
	}
	copy(repo.cases, cases)
	for i, c := range repo.cases {
		if _, ok := repo.byID[c.ID]; !ok {
			repo.byID[c.ID] = i
		}
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Load reads a catalog export file from path.
func Load(path string, opts ...Option) (*Repository, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer file.Close()

	cases, err := Decode(file)
	if err != nil {
		return nil, err
	}
	return New(cases, opts...), nil
}

// Len returns the number of cases.
func (r *Repository) Len() int {
	return len(r.cases)
}

// AllCases returns every case in load order.
func (r *Repository) AllCases() []model.Case {
	out := make([]model.Case, len(r.cases))
	copy(out, r.cases)
	return out
}

// ByCategory returns the cases whose category equals category exactly.
func (r *Repository) ByCategory(category string) []model.Case {
	var out []model.Case
	for _, c := range r.cases {
		if c.Category == category {
			out = append(out, c)
		}
	}
	return out
}

// Get looks up a case by id.
func (r *Repository) Get(id string) (model.Case, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Case{}, false
	}
	return r.cases[i], true
}

// Categories returns the distinct category labels in first-seen order.
func (r *Repository) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range r.cases {
		if _, ok := seen[c.Category]; ok {
			continue
		}
		seen[c.Category] = struct{}{}
		out = append(out, c.Category)
	}
	return out
}

// RandomCase picks uniformly among cases whose id is not in excluding.
// It returns false when the repository is empty or every case is excluded.
func (r *Repository) RandomCase(excluding map[string]struct{}) (model.Case, bool) {
	return pick(r.cases, excluding, r.rnd)
}

// RandomCaseIn is RandomCase restricted to one category.
func (r *Repository) RandomCaseIn(category string, excluding map[string]struct{}) (model.Case, bool) {
	return pick(r.ByCategory(category), excluding, r.rnd)
}

func pick(cases []model.Case, excluding map[string]struct{}, rnd RandSource) (model.Case, bool) {
	candidates := make([]int, 0, len(cases))
	for i, c := range cases {
		if _, skip := excluding[c.ID]; skip {
			continue
		}
		candidates = append(candidates, i)
	}
	if len(candidates) == 0 {
		return model.Case{}, false
	}
	return cases[candidates[rnd.Intn(len(candidates))]], true
}
