package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/profile"
)

type stubReasoner struct {
	response   string
	err        error
	calls      int
	lastPrompt string
}

func (s *stubReasoner) GenerateContent(_ context.Context, _ string, prompt string) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubReasoner) Model() string { return "gemini-test" }

func profileResponseJSON(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()

	strengths := map[string]any{}
	for i, name := range cdc.Names() {
		strengths[name] = float64(i) / 20
	}
	resp := map[string]any{
		"strengths":          strengths,
		"sensitivities":      map[string]any{"Noise": "high", "lighting": "low"},
		"preferences":        map[string]any{"work_setup": "remote preferred"},
		"confidence_factors": map[string]any{"quiz": 0.9, "history": 0.6},
		"analysis_summary":   "Strong pattern recognition.",
		"recommendations":    []any{"Consider data roles"},
	}
	if mutate != nil {
		mutate(resp)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return string(out)
}

func TestSynthesize(t *testing.T) {
	stub := &stubReasoner{response: profileResponseJSON(t, nil)}
	s := New(stub)

	a, err := s.Synthesize(context.Background(), Input{
		QuizResults:  map[string]any{"quiz_b": 1, "quiz_a": 2},
		BehaviorData: map[string]any{"reaction_time": 310},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a.Strengths) != len(cdc.All()) {
		t.Fatalf("expected all categories, got %v", a.Strengths)
	}
	for c, v := range a.Strengths {
		if v < 0 || v > 1 {
			t.Fatalf("strength %s out of range: %v", c, v)
		}
	}
	if a.Sensitivities["noise"] != profile.High || a.Sensitivities["lighting"] != profile.Low {
		t.Fatalf("unexpected sensitivities: %v", a.Sensitivities)
	}
	if math.Abs(a.ConfidenceScore-0.75) > 1e-9 {
		t.Fatalf("expected mean confidence 0.75, got %v", a.ConfidenceScore)
	}
	want := profile.Evidence{QuizIDs: []string{"quiz_a", "quiz_b"}, BehavioralMetrics: []string{"reaction_time"}}
	if !reflect.DeepEqual(a.Evidence, want) {
		t.Fatalf("unexpected evidence: %+v", a.Evidence)
	}
	if a.ModelUsed != "gemini-test" || a.Placeholder() {
		t.Fatalf("unexpected model: %q", a.ModelUsed)
	}
	for _, section := range []string{"QUIZ RESULTS", "BEHAVIORAL DATA", "PAST WORK/ACADEMIC DATA", "reaction_time"} {
		if !strings.Contains(stub.lastPrompt, section) {
			t.Fatalf("prompt is missing %q", section)
		}
	}

	u, ok := a.Update()
	if !ok {
		t.Fatalf("expected update from a real analysis")
	}
	if u.Confidence == nil || *u.Confidence != a.ConfidenceScore || u.ModelUsed != "gemini-test" {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestSynthesizeRejectsInvalidOutput(t *testing.T) {
	tests := []struct {
		name      string
		response  string
		err       error
		malformed bool
	}{
		{name: "service error", err: errors.New("deadline exceeded")},
		{name: "not json", response: "sorry", malformed: true},
		{
			name: "missing strength",
			response: profileResponseJSON(t, func(m map[string]any) {
				delete(m["strengths"].(map[string]any), string(cdc.AttentionFiltering))
			}),
			malformed: true,
		},
		{
			name: "strength out of range",
			response: profileResponseJSON(t, func(m map[string]any) {
				m["strengths"].(map[string]any)[string(cdc.PatternRecognition)] = 7.5
			}),
			malformed: true,
		},
		{
			name: "bad sensitivity level",
			response: profileResponseJSON(t, func(m map[string]any) {
				m["sensitivities"] = map[string]any{"noise": "extreme"}
			}),
			malformed: true,
		},
		{
			name: "no confidence factors",
			response: profileResponseJSON(t, func(m map[string]any) {
				m["confidence_factors"] = map[string]any{}
			}),
			malformed: true,
		},
		{
			name: "missing summary",
			response: profileResponseJSON(t, func(m map[string]any) {
				delete(m, "analysis_summary")
			}),
			malformed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&stubReasoner{response: tt.response, err: tt.err})

			a, err := s.Synthesize(context.Background(), Input{})
			if a != nil {
				t.Fatalf("expected no analysis, got %+v", a)
			}
			if !errors.Is(err, ai.ErrAnalysisUnavailable) {
				t.Fatalf("expected unavailable error, got %v", err)
			}
			if errors.Is(err, ai.ErrMalformedOutput) != tt.malformed {
				t.Fatalf("malformed mismatch for %v", err)
			}
		})
	}
}

func TestSynthesizeWithoutReasoner(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := New(nil, WithLogger(zap.New(core)))

	if _, err := s.Synthesize(context.Background(), Input{}); !errors.Is(err, ai.ErrAnalysisUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	a := s.SynthesizeOrFallback(context.Background(), Input{PastData: map[string]any{"job_1": "analyst"}})
	if !a.Placeholder() || a.ConfidenceScore != 0 || len(a.Strengths) != 0 {
		t.Fatalf("expected placeholder, got %+v", a)
	}
	if !reflect.DeepEqual(a.Evidence.WorkHistory, []string{"job_1"}) {
		t.Fatalf("expected work history evidence, got %+v", a.Evidence)
	}
	if _, ok := a.Update(); ok {
		t.Fatalf("placeholder must not produce an update")
	}
	if logs.FilterMessage("reasoning service not configured, returning placeholder analysis").Len() != 1 {
		t.Fatalf("expected debug log for missing reasoner")
	}
}

func TestSynthesizeOrFallbackLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(&stubReasoner{response: `{"strengths": {}}`}, WithLogger(zap.New(core)))

	a := s.SynthesizeOrFallback(context.Background(), Input{})
	if !a.Placeholder() {
		t.Fatalf("expected placeholder")
	}

	entries := logs.FilterMessage("profile synthesis failed, returning placeholder analysis").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", len(entries))
	}
	if malformed, ok := entries[0].ContextMap()["malformed_output"].(bool); !ok || !malformed {
		t.Fatalf("expected malformed_output=true, got %v", entries[0].ContextMap())
	}
}

func TestMeanConfidence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		factors map[string]float64
		want    float64
	}{
		{factors: nil, want: 0},
		{factors: map[string]float64{"a": 1}, want: 1},
		{factors: map[string]float64{"a": 0.2, "b": 0.4, "c": 0.9}, want: 0.5},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			t.Parallel()
			if got := meanConfidence(tt.factors); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestUpdateMergesIntoStore(t *testing.T) {
	stub := &stubReasoner{response: profileResponseJSON(t, nil)}
	a, err := New(stub).Synthesize(context.Background(), Input{QuizResults: map[string]any{"q1": "x"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store := profile.NewMemoryStore()
	u, _ := a.Update()
	p, err := store.Merge(context.Background(), "cand", u)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !p.PrefersRemote() || p.Strength(cdc.AttentionFiltering) != 0.55 {
		t.Fatalf("unexpected merged profile: %+v", p)
	}
	if !reflect.DeepEqual(p.Evidence.QuizIDs, []string{"q1"}) {
		t.Fatalf("unexpected evidence: %+v", p.Evidence)
	}
}
