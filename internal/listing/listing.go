// Package listing turns scored postings into the list of matches shown to a candidate.
package listing

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/job"
	"github.com/sridarsri23/BrainBridge/internal/matching"
)

// Match pairs a posting with its computed result.
type Match struct {
	Posting *job.Posting    `json:"posting"`
	Result  matching.Result `json:"result"`
}

// Matches is the list flowing through the filters.
type Matches struct {
	Items []*Match
}

func (m *Matches) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Items)
}

// Exclude drops matches for which drop returns true and returns their posting IDs.
func (m *Matches) Exclude(drop func(*Match) bool) []string {
	var excluded []string
	kept := m.Items[:0]
	for _, item := range m.Items {
		if drop(item) {
			excluded = append(excluded, item.Posting.ID)
			continue
		}
		kept = append(kept, item)
	}
	m.Items = kept
	return excluded
}

// Sort orders matches by descending score, then posting ID.
func (m *Matches) Sort() {
	sort.SliceStable(m.Items, func(i, j int) bool {
		a, b := m.Items[i], m.Items[j]
		if a.Result.Score != b.Result.Score {
			return a.Result.Score > b.Result.Score
		}
		return a.Posting.ID < b.Posting.ID
	})
}

// Pair zips the non-nil postings with their results, as returned by
// matching.Engine.ScoreAll.
func Pair(postings []*job.Posting, results []matching.Result) (*Matches, error) {
	m := &Matches{Items: make([]*Match, 0, len(results))}
	for _, p := range postings {
		if p == nil {
			continue
		}
		if len(m.Items) == len(results) {
			return nil, fmt.Errorf("got %d results for more postings", len(results))
		}
		m.Items = append(m.Items, &Match{Posting: p, Result: results[len(m.Items)]})
	}
	if len(m.Items) != len(results) {
		return nil, fmt.Errorf("got %d results for %d postings", len(results), len(m.Items))
	}
	return m, nil
}

// Filter is a single step applied to the matches.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, m *Matches) (*Matches, Step, error)
}

// Deps aggregates dependencies shared across filters.
type Deps struct {
	Logger *zap.Logger
}

// Config carries the settings the filters read.
type Config struct {
	// Threshold is the minimum score shown. Zero is preview mode: every active
	// posting is listed whatever its score.
	Threshold float64
	// ExcludeFile lists postings to hide. Empty means none.
	ExcludeFile string
}

// Step describes the result of executing a filter.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

type statusProvider interface {
	Status() Status
}

// Default returns the standard pipeline.
func Default() []Filter {
	return []Filter{NewActiveOnly(), NewExcludeFile(), NewThreshold()}
}

// DisableByName disables the filter with the given name while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates and then applies the enabled filters in order and returns the
// surviving matches sorted for display.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, m *Matches) (*Matches, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		m = next
	}

	m.Sort()
	return m, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}
		statuses = append(statuses, Status{Name: step.Name(), Enabled: step.IsEnabled()})
	}
	return statuses
}
