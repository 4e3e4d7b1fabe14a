// Package synth synthesizes candidate cognitive profiles and generates the
// quizzes that feed them.
package synth

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/metrics"
	"github.com/sridarsri23/BrainBridge/internal/profile"
)

// ModelHeuristic marks placeholder analyses and built-in quizzes.
const ModelHeuristic = "heuristic"

//go:embed profile_prompt.md
var profileSystem string

var profileSchema = ai.MustSchema("cognitive_profile", profileSchemaDoc())

// Input is the evidence a profile is synthesized from.
type Input struct {
	QuizResults  map[string]any
	BehaviorData map[string]any
	PastData     map[string]any
}

// Analysis is the outcome of one synthesis.
type Analysis struct {
	Strengths         cdc.Vector               `json:"strengths"`
	Sensitivities     map[string]profile.Level `json:"sensitivities"`
	Preferences       map[string]string        `json:"preferences"`
	ConfidenceFactors map[string]float64       `json:"confidence_factors,omitempty"`
	ConfidenceScore   float64                  `json:"confidence_score"`
	Evidence          profile.Evidence         `json:"evidence"`
	Summary           string                   `json:"analysis_summary"`
	Recommendations   []string                 `json:"recommendations"`
	ModelUsed         string                   `json:"model_used"`
}

// Placeholder reports whether a is the descriptive fallback rather than a real analysis.
func (a *Analysis) Placeholder() bool {
	return a == nil || a.ModelUsed == ModelHeuristic
}

// Update converts a into a profile update. The placeholder yields no update so
// a fallback never creates or changes a stored profile.
func (a *Analysis) Update() (profile.Update, bool) {
	if a.Placeholder() {
		return profile.Update{}, false
	}
	confidence := a.ConfidenceScore
	return profile.Update{
		Strengths:       a.Strengths,
		Sensitivities:   a.Sensitivities,
		Preferences:     a.Preferences,
		Confidence:      &confidence,
		Evidence:        a.Evidence,
		Summary:         a.Summary,
		Recommendations: a.Recommendations,
		ModelUsed:       a.ModelUsed,
	}, true
}

// Synthesizer builds profiles and quizzes with an optional reasoning service.
type Synthesizer struct {
	reasoner ai.Reasoner
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Synthesizer)

func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Synthesizer) { s.metrics = m }
}

// New returns a synthesizer. With a nil reasoner Synthesize always reports
// ai.ErrAnalysisUnavailable and GenerateQuiz returns the built-in quiz.
func New(r ai.Reasoner, opts ...Option) *Synthesizer {
	s := &Synthesizer{reasoner: r}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = logger.WithFields(s.logger, zap.String(logger.FieldModel, ai.ModelName(r)))
	return s
}

type profileResponse struct {
	Strengths         map[string]float64 `json:"strengths"`
	Sensitivities     map[string]string  `json:"sensitivities"`
	Preferences       map[string]string  `json:"preferences"`
	ConfidenceFactors map[string]float64 `json:"confidence_factors"`
	AnalysisSummary   string             `json:"analysis_summary"`
	Recommendations   []string           `json:"recommendations"`
}

// Synthesize asks the reasoning service for a full profile. Any failure is
// reported as ai.ErrAnalysisUnavailable and nothing from the response is kept.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (*Analysis, error) {
	in = in.withDefaults()

	prompt, err := buildProfilePrompt(in)
	if err != nil {
		return nil, err
	}

	data, err := ai.Generate(ctx, s.reasoner, ai.Request{
		System: profileSystem,
		Prompt: prompt,
		Schema: profileSchema,
	})
	if err != nil {
		return nil, err
	}

	var resp profileResponse
	if err := ai.Decode(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrAnalysisUnavailable, err)
	}

	sensitivities := make(map[string]profile.Level, len(resp.Sensitivities))
	for k, v := range resp.Sensitivities {
		level, ok := profile.ParseLevel(v)
		if !ok {
			return nil, fmt.Errorf("%w: %w: sensitivity %q has level %q", ai.ErrAnalysisUnavailable, ai.ErrMalformedOutput, k, v)
		}
		sensitivities[strings.ToLower(strings.TrimSpace(k))] = level
	}

	a := &Analysis{
		Strengths:         cdc.FromMap(resp.Strengths),
		Sensitivities:     sensitivities,
		Preferences:       resp.Preferences,
		ConfidenceFactors: resp.ConfidenceFactors,
		ConfidenceScore:   meanConfidence(resp.ConfidenceFactors),
		Evidence:          evidenceOf(in),
		Summary:           resp.AnalysisSummary,
		Recommendations:   resp.Recommendations,
		ModelUsed:         ai.ModelName(s.reasoner),
	}

	top := make([]string, 0, 3)
	for _, c := range a.Strengths.Top(3) {
		top = append(top, c.String())
	}
	s.logger.Info("profile synthesized",
		zap.Float64("confidence", a.ConfidenceScore),
		zap.Strings("top_strengths", top),
	)
	return a, nil
}

// SynthesizeOrFallback returns the placeholder analysis when the reasoning
// service cannot produce a valid profile.
func (s *Synthesizer) SynthesizeOrFallback(ctx context.Context, in Input) *Analysis {
	a, err := s.Synthesize(ctx, in)
	if err == nil {
		return a
	}

	if s.reasoner == nil {
		s.logger.Debug("reasoning service not configured, returning placeholder analysis")
	} else {
		s.logger.Warn("profile synthesis failed, returning placeholder analysis",
			zap.Bool("malformed_output", errors.Is(err, ai.ErrMalformedOutput)),
			zap.Error(err),
		)
	}
	s.metrics.Fallback("synthesize")
	return Fallback(in)
}

// Fallback is the descriptive placeholder analysis. It never fabricates scores.
func Fallback(in Input) *Analysis {
	return &Analysis{
		Strengths:     cdc.Vector{},
		Sensitivities: map[string]profile.Level{},
		Preferences:   map[string]string{},
		Evidence:      evidenceOf(in.withDefaults()),
		Summary: "A full cognitive analysis requires a configured reasoning service. " +
			"Your answers were received but have not been scored.",
		Recommendations: []string{
			"Set GEMINI_API_KEY to enable full profile analysis",
			"Complete more assessments so the analysis has more evidence to work with",
		},
		ModelUsed: ModelHeuristic,
	}
}

func (in Input) withDefaults() Input {
	if in.QuizResults == nil {
		in.QuizResults = map[string]any{}
	}
	if in.BehaviorData == nil {
		in.BehaviorData = map[string]any{}
	}
	if in.PastData == nil {
		in.PastData = map[string]any{}
	}
	return in
}

func evidenceOf(in Input) profile.Evidence {
	return profile.Evidence{
		QuizIDs:           sortedKeys(in.QuizResults),
		BehavioralMetrics: sortedKeys(in.BehaviorData),
		WorkHistory:       sortedKeys(in.PastData),
	}
}

// meanConfidence is the unweighted mean of the factors, summed in key order.
func meanConfidence(factors map[string]float64) float64 {
	if len(factors) == 0 {
		return 0
	}
	keys := make([]string, 0, len(factors))
	for k := range factors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sum float64
	for _, k := range keys {
		sum += factors[k]
	}
	return sum / float64(len(factors))
}

func sortedKeys(m map[string]any) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func buildProfilePrompt(in Input) (string, error) {
	sections := []struct {
		title string
		data  map[string]any
	}{
		{title: "QUIZ RESULTS", data: in.QuizResults},
		{title: "BEHAVIORAL DATA", data: in.BehaviorData},
		{title: "PAST WORK/ACADEMIC DATA", data: in.PastData},
	}

	var sb strings.Builder
	sb.WriteString("Analyze this professional's data.\n\n")
	for _, section := range sections {
		payload, err := json.MarshalIndent(section.data, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s: %w", strings.ToLower(section.title), err)
		}
		fmt.Fprintf(&sb, "%s:\n%s\n\n", section.title, payload)
	}
	sb.WriteString("Respond with JSON only, matching this schema:\n")
	sb.WriteString(profileSchema.Document())
	return sb.String(), nil
}

func profileSchemaDoc() string {
	unit := map[string]any{"type": "number", "minimum": 0, "maximum": 1}

	strengths := make(map[string]any, len(cdc.All()))
	for _, name := range cdc.Names() {
		strengths[name] = unit
	}

	doc := map[string]any{
		"type": "object",
		"required": []string{
			"strengths", "sensitivities", "preferences",
			"confidence_factors", "analysis_summary", "recommendations",
		},
		"properties": map[string]any{
			"strengths": map[string]any{
				"type":       "object",
				"required":   cdc.Names(),
				"properties": strengths,
			},
			"sensitivities": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "string",
					"enum": []profile.Level{profile.Low, profile.Medium, profile.High},
				},
			},
			"preferences": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
			"confidence_factors": map[string]any{
				"type":                 "object",
				"minProperties":        1,
				"additionalProperties": unit,
			},
			"analysis_summary": map[string]any{"type": "string"},
			"recommendations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(err)
	}
	return string(out)
}
