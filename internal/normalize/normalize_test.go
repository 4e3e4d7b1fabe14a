package normalize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/metrics"
)

type stubReasoner struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubReasoner) GenerateContent(_ context.Context, _ string, prompt string) (string, error) {
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubReasoner) Model() string { return "gemini-test" }

const validResponse = `{
  "job_id": "model-chosen-id",
  "title": "Data Analyst",
  "plain_summary": "Analyse sales data and report trends.",
  "tasks": ["Build weekly dashboards", "Answer ad-hoc questions"],
  "skills_required": ["SQL", "Excel"],
  "cognitive_demands": {"pattern_recognition": "Spotting trends in sales data", "unknown": "x"},
  "cdcs": {
    "focus_sustained_attention": 0.8,
    "pattern_recognition": 0.9,
    "verbal_communication": 0.3,
    "multitasking_context_switching": 0.7,
    "telepathy": 1.0
  },
  "employer_flags": {"nd_suitable": true},
  "accommodation_rules": [{"then": ["Free snacks"]}]
}`

func TestFallbackDataAnalyst(t *testing.T) {
	res := New(nil).Normalize(context.Background(), Request{Title: "Data Analyst"})

	require.Equal(t, ModelHeuristic, res.ModelUsed)
	require.Equal(t, HeuristicScale, res.Scale)
	require.Equal(t, 6.0, res.CDCs.Get(cdc.FocusSustainedAttention))
	require.Equal(t, 4.5, res.CDCs.Get(cdc.PatternRecognition))
	require.Equal(t, 2.0, res.CDCs.Get(cdc.VerbalCommunication))
	require.Equal(t, 1.0, res.CDCs.Get(cdc.SpatialReasoning))
	require.Equal(t, 2.0, res.CDCs.Get(cdc.CreativeIdeation))
	require.Equal(t, 3.0, res.CDCs.Get(cdc.MultitaskingContextSwitching))
	require.Len(t, res.CDCs, 6)

	require.Equal(t, []string{
		"Quiet workspace or noise-cancelling headphones",
		"Flexible work schedule options",
		"Written communication preferences respected",
	}, res.Accommodations())
	require.Equal(t, true, res.EmployerFlags["needs_quiet_space"])
	require.Equal(t, false, res.EmployerFlags["model_analysis"])
	require.Equal(t, "Data analysis and trend identification - Score: 4.5/10", res.CognitiveDemands[cdc.PatternRecognition])
	require.Contains(t, res.PlainSummary, "This data analyst role")
}

func TestFallbackCapsAndRounds(t *testing.T) {
	res := Fallback(Request{
		Title:       "Creative Design Lead",
		Description: "Innovation, brainstorm sessions, solution strategy and problem-solving. Design architecture layout.",
	})

	// creative: design, creative, innovation, brainstorm, solution, problem-solving, strategy = 7 hits, capped at 8.
	require.Equal(t, 8.0, res.CDCs.Get(cdc.CreativeIdeation))
	// spatial: design, architecture, layout = 3 hits.
	require.Equal(t, 5.5, res.CDCs.Get(cdc.SpatialReasoning))

	three := Fallback(Request{Title: "creative", Description: "innovation and a solution"})
	require.Equal(t, 5.6, three.CDCs.Get(cdc.CreativeIdeation))
}

func TestFallbackIsDeterministic(t *testing.T) {
	req := Request{Title: "Support Engineer", Description: "Manage multiple priorities across various teams."}

	first := Fallback(req)
	second := Fallback(req)
	require.Equal(t, first, second)

	_, err := uuid.Parse(first.JobID)
	require.NoError(t, err)
	require.NotEqual(t, first.JobID, Fallback(Request{Title: "Support Engineer"}).JobID)
	require.Contains(t, first.Accommodations(), "Task prioritization tools and structured workflows")
}

func TestFallbackEmptyDescription(t *testing.T) {
	res := Fallback(Request{Title: "  ", Description: "   "})

	for _, lx := range lexicon {
		require.Equal(t, lx.base, res.CDCs.Get(lx.category), lx.category)
	}
	require.Len(t, res.CDCs, len(cdc.Core()))
	for _, c := range cdc.Core() {
		require.Contains(t, res.CDCs, c)
		require.Contains(t, res.CognitiveDemands, c)
	}
	require.Equal(t, []string{
		"Flexible work schedule options",
		"Written communication preferences respected",
	}, res.Accommodations())
	require.Equal(t, false, res.EmployerFlags["needs_quiet_space"])
}

func TestNormalizeModelPath(t *testing.T) {
	stub := &stubReasoner{response: "```json\n" + validResponse + "\n```"}
	n := New(stub)

	res := n.Normalize(context.Background(), Request{Title: "Data Analyst", Description: "SQL all day", Company: "Acme"})

	require.Equal(t, "gemini-test", res.ModelUsed)
	require.Equal(t, ModelScale, res.Scale)
	require.NotEqual(t, "model-chosen-id", res.JobID)
	_, err := uuid.Parse(res.JobID)
	require.NoError(t, err)

	require.Len(t, res.CDCs, 4)
	require.Equal(t, 0.9, res.CDCs.Get(cdc.PatternRecognition))
	require.Len(t, res.CognitiveDemands, 1)
	require.Equal(t, true, res.EmployerFlags["model_analysis"])

	require.Len(t, res.AccommodationRules, 4)
	require.Equal(t, "Noise-cancelling headset", res.AccommodationRules[0].Then[0])
	require.Equal(t, map[string]string{
		"cdcs.focus_sustained_attention": ">=0.7",
		"sensitivities.noise":            "high",
	}, res.AccommodationRules[0].If)
	require.Equal(t, "Visual data tools", res.AccommodationRules[1].Then[0])
	require.Equal(t, "Task management software", res.AccommodationRules[2].Then[0])
	require.Equal(t, lightingRule.Then, res.AccommodationRules[3].Then)
	require.NotContains(t, res.Accommodations(), "Free snacks")

	require.Contains(t, stub.lastPrompt, "COMPANY: Acme")
	require.Contains(t, stub.lastPrompt, "ADDITIONAL CONTEXT: None provided")
}

const normalizeFallbackMetric = `
# HELP brainbridge_heuristic_fallbacks_total Times a component used its deterministic fallback instead of the reasoning service.
# TYPE brainbridge_heuristic_fallbacks_total counter
brainbridge_heuristic_fallbacks_total{component="normalize"} 1
`

func TestNormalizeFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "service error", err: errors.New("503 unavailable")},
		{name: "not json", response: "I cannot help with that"},
		{name: "missing fields", response: `{"title": "Data Analyst"}`},
		{name: "score out of range", response: strings.Replace(validResponse, "0.9", "9", 1)},
		{name: "only unknown categories", response: strings.Replace(validResponse, `"focus_sustained_attention": 0.8,
    "pattern_recognition": 0.9,
    "verbal_communication": 0.3,
    "multitasking_context_switching": 0.7,
    `, "", 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			m := metrics.New()
			n := New(&stubReasoner{response: tt.response, err: tt.err}, WithLogger(zap.New(core)), WithMetrics(m))

			req := Request{Title: "Data Analyst"}
			res := n.Normalize(context.Background(), req)

			require.Equal(t, Fallback(req), res)
			require.Equal(t, 1, logs.FilterMessage("job normalization failed, using keyword lexicon").Len())
			require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(normalizeFallbackMetric), "brainbridge_heuristic_fallbacks_total"))
		})
	}
}
