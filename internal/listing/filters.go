package listing

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

type activeOnlyFilter struct {
	disabled bool
	reason   string
}

// NewActiveOnly drops matches whose posting is no longer active.
func NewActiveOnly() Filter {
	return &activeOnlyFilter{}
}

func (f *activeOnlyFilter) Name() string { return "active_only" }

func (f *activeOnlyFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *activeOnlyFilter) IsEnabled() bool { return !f.disabled }

func (f *activeOnlyFilter) Validate(*Config) error { return nil }

func (f *activeOnlyFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	excluded := m.Exclude(func(item *Match) bool { return !item.Posting.Active })
	if len(excluded) > 0 {
		deps.Logger.Info("excluding inactive postings",
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", m.Len()),
		)
	}
	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *activeOnlyFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type thresholdFilter struct {
	disabled  bool
	reason    string
	threshold float64
}

// NewThreshold drops matches scoring below the configured threshold unless
// the threshold is zero.
func NewThreshold() Filter {
	return &thresholdFilter{}
}

func (f *thresholdFilter) Name() string { return "threshold" }

func (f *thresholdFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *thresholdFilter) IsEnabled() bool { return !f.disabled }

func (f *thresholdFilter) Validate(cfg *Config) error {
	f.threshold = 0
	if cfg == nil {
		return nil
	}
	if cfg.Threshold < 0 || cfg.Threshold > 100 {
		return fmt.Errorf("threshold must be within [0, 100], got %v", cfg.Threshold)
	}
	f.threshold = cfg.Threshold
	return nil
}

func (f *thresholdFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	if f.threshold == 0 {
		deps.Logger.Info("preview mode: listing every active posting", zap.Int("postings", initial))
		return m, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded := m.Exclude(func(item *Match) bool {
		return float64(item.Result.Score) < f.threshold
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding postings below threshold",
			zap.Float64("threshold", f.threshold),
			zap.Strings("excluded_postings", excluded),
			zap.Int("postings_left", m.Len()),
		)
	}
	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *thresholdFilter) Status() Status {
	details := map[string]string{
		"threshold":    strconv.FormatFloat(f.threshold, 'f', -1, 64),
		"preview_mode": strconv.FormatBool(f.threshold == 0),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
