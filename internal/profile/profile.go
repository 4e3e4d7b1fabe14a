// Package profile holds candidate cognitive profiles and the stores that persist them.
package profile

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
)

// Level is a sensitivity level.
type Level string

const (
	Low    Level = "low"
	Medium Level = "medium"
	High   Level = "high"
)

// ParseLevel accepts low, medium or high in any case.
func ParseLevel(s string) (Level, bool) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case Low, Medium, High:
		return l, true
	default:
		return "", false
	}
}

// Lower returns the next level down. Low stays low.
func (l Level) Lower() Level {
	switch l {
	case High:
		return Medium
	default:
		return Low
	}
}

// Evidence lists the inputs a profile was synthesized from. Audit only.
type Evidence struct {
	QuizIDs           []string `json:"quiz_ids,omitempty"`
	BehavioralMetrics []string `json:"behavioral_metrics,omitempty"`
	WorkHistory       []string `json:"work_history,omitempty"`
}

func (e Evidence) union(other Evidence) Evidence {
	return Evidence{
		QuizIDs:           unionSorted(e.QuizIDs, other.QuizIDs),
		BehavioralMetrics: unionSorted(e.BehavioralMetrics, other.BehavioralMetrics),
		WorkHistory:       unionSorted(e.WorkHistory, other.WorkHistory),
	}
}

// CognitiveProfile is the synthesized picture of one candidate.
type CognitiveProfile struct {
	ProfileID       string            `json:"profile_id"`
	CandidateID     string            `json:"candidate_id"`
	Strengths       cdc.Vector        `json:"strengths"`
	Sensitivities   map[string]Level  `json:"sensitivities"`
	Preferences     map[string]string `json:"preferences"`
	ConfidenceScore float64           `json:"confidence_score"`
	Evidence        Evidence          `json:"evidence"`
	Summary         string            `json:"summary,omitempty"`
	Recommendations []string          `json:"recommendations,omitempty"`
	ModelUsed       string            `json:"model_used,omitempty"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// New returns an empty profile for candidateID with a fresh profile ID.
func New(candidateID string) *CognitiveProfile {
	return &CognitiveProfile{
		ProfileID:     uuid.NewString(),
		CandidateID:   candidateID,
		Strengths:     cdc.Vector{},
		Sensitivities: map[string]Level{},
		Preferences:   map[string]string{},
	}
}

// Update carries the fields produced by one synthesis. Nil maps and a nil
// Confidence leave the corresponding profile fields untouched.
type Update struct {
	Strengths       cdc.Vector
	Sensitivities   map[string]Level
	Preferences     map[string]string
	Confidence      *float64
	Evidence        Evidence
	Summary         string
	Recommendations []string
	ModelUsed       string
}

// Apply merges u into p key by key. Existing keys absent from u are kept.
func (p *CognitiveProfile) Apply(u Update, now time.Time) {
	if p.Strengths == nil {
		p.Strengths = cdc.Vector{}
	}
	if p.Sensitivities == nil {
		p.Sensitivities = map[string]Level{}
	}
	if p.Preferences == nil {
		p.Preferences = map[string]string{}
	}

	for c, v := range u.Strengths.Clamp(0, 1) {
		if c.Valid() {
			p.Strengths[c] = v
		}
	}
	for k, l := range u.Sensitivities {
		if level, ok := ParseLevel(string(l)); ok {
			p.Sensitivities[normalizeKey(k)] = level
		}
	}
	for k, v := range u.Preferences {
		p.Preferences[normalizeKey(k)] = v
	}
	if u.Confidence != nil {
		p.ConfidenceScore = clamp01(*u.Confidence)
	}
	p.Evidence = p.Evidence.union(u.Evidence)
	if u.Summary != "" {
		p.Summary = u.Summary
	}
	if len(u.Recommendations) > 0 {
		p.Recommendations = append([]string(nil), u.Recommendations...)
	}
	if u.ModelUsed != "" {
		p.ModelUsed = u.ModelUsed
	}
	p.UpdatedAt = now.UTC()
}

// Strength returns the candidate's strength in c, 0 when unknown.
func (p *CognitiveProfile) Strength(c cdc.Category) float64 {
	if p == nil {
		return 0
	}
	return p.Strengths.Get(c)
}

// Sensitivity looks up the level stored under key.
func (p *CognitiveProfile) Sensitivity(key string) (Level, bool) {
	if p == nil {
		return "", false
	}
	l, ok := p.Sensitivities[normalizeKey(key)]
	return l, ok
}

// PrefersRemote reports whether any preference key or value mentions remote work.
func (p *CognitiveProfile) PrefersRemote() bool {
	if p == nil {
		return false
	}
	for k, v := range p.Preferences {
		if strings.Contains(strings.ToLower(k), "remote") || strings.Contains(strings.ToLower(v), "remote") {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p *CognitiveProfile) Clone() *CognitiveProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Strengths = make(cdc.Vector, len(p.Strengths))
	for k, v := range p.Strengths {
		out.Strengths[k] = v
	}
	out.Sensitivities = make(map[string]Level, len(p.Sensitivities))
	for k, v := range p.Sensitivities {
		out.Sensitivities[k] = v
	}
	out.Preferences = make(map[string]string, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	out.Evidence = Evidence{}.union(p.Evidence)
	out.Recommendations = append([]string(nil), p.Recommendations...)
	return &out
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
