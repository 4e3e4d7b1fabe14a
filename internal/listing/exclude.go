package listing

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile removes matches whose posting appears in Config.ExcludeFile.
// The file is a YAML or JSON list of posting IDs, or a matches dump.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.ExcludeFile)
	}
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, m *Matches) (*Matches, Step, error) {
	initial := m.Len()
	if f.path == "" {
		return m, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	ids, err := ExcludedIDs(f.path)
	if err != nil {
		return m, Step{}, fmt.Errorf("getting excluded postings from file: %w", err)
	}

	removed := m.Exclude(func(item *Match) bool {
		_, ok := ids[item.Posting.ID]
		return ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding postings based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_postings", removed),
			zap.Int("postings_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(removed), Left: m.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// ExcludedIDs reads posting IDs from path. Entries are plain IDs, postings
// with an "id" field, or dumped matches with a nested "posting".
func ExcludedIDs(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var entries []any
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	ids := make(map[string]struct{}, len(entries))
	for i, entry := range entries {
		id := entryID(entry)
		if id == "" {
			return nil, fmt.Errorf("entry %d in %s has no posting id", i, path)
		}
		ids[id] = struct{}{}
	}
	return ids, nil
}

func entryID(entry any) string {
	switch v := entry.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if posting, ok := v["posting"]; ok {
			return entryID(posting)
		}
		if id, ok := v["id"].(string); ok {
			return strings.TrimSpace(id)
		}
	}
	return ""
}
