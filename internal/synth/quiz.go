package synth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/cdc"
)

const (
	DefaultActivityType = "interactive_quiz"
	DefaultTheme        = "Cognitive Strengths Discovery"

	// FallbackQuizID identifies the built-in quiz.
	FallbackQuizID = "fallback_preferences_v1"
)

//go:embed quiz_prompt.md
var quizSystem string

var quizSchema = ai.MustSchema("generated_quiz", `{
  "type": "object",
  "required": ["quiz_id", "title", "description", "activity_type", "estimated_time", "questions", "cdc_mapping"],
  "properties": {
    "quiz_id": {"type": "string", "minLength": 1},
    "title": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "activity_type": {"type": "string"},
    "estimated_time": {"type": "integer", "minimum": 1},
    "questions": {
      "type": "array",
      "minItems": 8,
      "maxItems": 12,
      "items": {
        "type": "object",
        "required": ["question_id", "question_text", "cdc_targets"],
        "properties": {
          "question_id": {"type": "string", "minLength": 1},
          "question_text": {"type": "string", "minLength": 1},
          "question_type": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}},
          "cdc_targets": {"type": "array", "minItems": 1, "items": {"type": "string"}}
        }
      }
    },
    "cdc_mapping": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    }
  }
}`)

// QuizRequest selects what kind of quiz to generate.
type QuizRequest struct {
	ActivityType string
	TargetCDCs   []string
	Theme        string
}

// Question is a single quiz item.
type Question struct {
	ID         string   `json:"question_id" yaml:"question_id"`
	Text       string   `json:"question_text" yaml:"question_text"`
	Type       string   `json:"question_type,omitempty" yaml:"question_type,omitempty"`
	Options    []string `json:"options,omitempty" yaml:"options,omitempty"`
	CDCTargets []string `json:"cdc_targets" yaml:"cdc_targets"`
}

// Quiz is a themed activity whose answers feed profile synthesis.
type Quiz struct {
	ID            string              `json:"quiz_id" yaml:"quiz_id"`
	Title         string              `json:"title" yaml:"title"`
	Description   string              `json:"description" yaml:"description"`
	ActivityType  string              `json:"activity_type" yaml:"activity_type"`
	EstimatedTime int                 `json:"estimated_time" yaml:"estimated_time"`
	Questions     []Question          `json:"questions" yaml:"questions"`
	CDCMapping    map[string][]string `json:"cdc_mapping" yaml:"cdc_mapping"`
	ModelUsed     string              `json:"model_used,omitempty" yaml:"model_used,omitempty"`
}

// Results packages answers keyed by question ID as synthesizer quiz results,
// keyed by the quiz ID so it is recorded as evidence.
func (q *Quiz) Results(answers map[string]string) map[string]any {
	responses := make(map[string]any, len(answers))
	for _, question := range q.Questions {
		answer, ok := answers[question.ID]
		if !ok {
			continue
		}
		responses[question.ID] = map[string]any{
			"question":    question.Text,
			"answer":      answer,
			"cdc_targets": append([]string(nil), question.CDCTargets...),
		}
	}
	return map[string]any{
		q.ID: map[string]any{
			"title":         q.Title,
			"activity_type": q.ActivityType,
			"responses":     responses,
		},
	}
}

// GenerateQuiz never fails: a missing reasoner or any invalid response yields FallbackQuiz.
func (s *Synthesizer) GenerateQuiz(ctx context.Context, req QuizRequest) *Quiz {
	req = req.withDefaults()

	q, err := s.generateQuiz(ctx, req)
	if err != nil {
		if s.reasoner != nil {
			s.logger.Warn("quiz generation failed, using built-in quiz",
				zap.String("activity_type", req.ActivityType),
				zap.Error(err),
			)
		}
		s.metrics.Fallback("quiz")
		return FallbackQuiz()
	}

	s.logger.Info("quiz generated",
		zap.String("quiz_id", q.ID),
		zap.String("title", q.Title),
		zap.Int("questions", len(q.Questions)),
	)
	return q
}

func (s *Synthesizer) generateQuiz(ctx context.Context, req QuizRequest) (*Quiz, error) {
	data, err := ai.Generate(ctx, s.reasoner, ai.Request{
		System: quizSystem,
		Prompt: buildQuizPrompt(req),
		Schema: quizSchema,
	})
	if err != nil {
		return nil, err
	}

	var q Quiz
	if err := ai.Decode(data, &q); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrAnalysisUnavailable, err)
	}

	verr := &ai.ValidationError{Schema: quizSchema.Name()}
	for i := range q.Questions {
		q.Questions[i].CDCTargets = knownCategories(q.Questions[i].CDCTargets)
		if len(q.Questions[i].CDCTargets) == 0 {
			verr.Errors = append(verr.Errors, ai.FieldError{
				Field:   fmt.Sprintf("questions.%d.cdc_targets", i),
				Message: "no known cognitive demand category",
			})
		}
	}
	if len(verr.Errors) > 0 {
		return nil, fmt.Errorf("%w: %w", ai.ErrAnalysisUnavailable, verr)
	}
	for id, targets := range q.CDCMapping {
		q.CDCMapping[id] = knownCategories(targets)
	}
	q.ModelUsed = ai.ModelName(s.reasoner)
	return &q, nil
}

func (r QuizRequest) withDefaults() QuizRequest {
	if strings.TrimSpace(r.ActivityType) == "" {
		r.ActivityType = DefaultActivityType
	}
	if strings.TrimSpace(r.Theme) == "" {
		r.Theme = DefaultTheme
	}
	r.TargetCDCs = knownCategories(r.TargetCDCs)
	if len(r.TargetCDCs) == 0 {
		r.TargetCDCs = cdc.Names()
	}
	return r
}

// knownCategories keeps valid category names in canonical spelling, dropping
// unknown and repeated entries.
func knownCategories(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[cdc.Category]struct{}, len(names))
	for _, name := range names {
		c, ok := cdc.Parse(name)
		if !ok {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c.String())
	}
	return out
}

func buildQuizPrompt(req QuizRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Create an engaging %s that reveals cognitive strengths of neurodivergent professionals.\n", req.ActivityType)
	fmt.Fprintf(&sb, "Focus on these categories: %s.\n", strings.Join(req.TargetCDCs, ", "))
	fmt.Fprintf(&sb, "Title theme: %s\n\n", req.Theme)
	sb.WriteString("Respond with JSON only, matching this schema:\n")
	sb.WriteString(quizSchema.Document())
	return sb.String()
}

// FallbackQuiz returns the built-in quiz. Every call returns an identical, independent copy.
func FallbackQuiz() *Quiz {
	questions := []Question{
		{
			ID:   "workspace_pref",
			Text: "You're designing your ideal workspace. Which setup appeals to you most?",
			Type: "multiple_choice",
			Options: []string{
				"Quiet, minimal space with noise-canceling headphones",
				"Open area with background music and colleague interaction",
				"Private office with adjustable lighting and temperature",
				"Flexible space where I can move between different zones",
			},
			CDCTargets: []string{cdc.SensoryProcessing.String(), cdc.AttentionFiltering.String()},
		},
		{
			ID:   "project_approach",
			Text: "You've been assigned a complex project. What's your preferred approach?",
			Type: "multiple_choice",
			Options: []string{
				"Break it into detailed phases with clear deadlines",
				"Dive in and adapt as I go",
				"Research thoroughly before starting",
				"Collaborate with others to brainstorm approaches",
			},
			CDCTargets: []string{cdc.ExecutiveFunction.String(), cdc.CreativeIdeation.String()},
		},
		{
			ID:   "communication_style",
			Text: "In team meetings, you typically...",
			Type: "multiple_choice",
			Options: []string{
				"Prefer written agendas and follow-up notes",
				"Enjoy spontaneous discussion and brainstorming",
				"Like structured time for questions and input",
				"Prefer one-on-one conversations after the meeting",
			},
			CDCTargets: []string{cdc.VerbalCommunication.String(), cdc.CommunicationInterpretation.String()},
		},
		{
			ID:   "pattern_puzzle",
			Text: "Which type of puzzle or challenge do you find most engaging?",
			Type: "multiple_choice",
			Options: []string{
				"Logic puzzles and number sequences",
				"Visual pattern recognition games",
				"Word association and language puzzles",
				"Spatial/3D puzzles and mazes",
			},
			CDCTargets: []string{cdc.PatternRecognition.String(), cdc.SpatialReasoning.String()},
		},
	}

	mapping := make(map[string][]string, len(questions))
	for _, q := range questions {
		mapping[q.ID] = append([]string(nil), q.CDCTargets...)
	}

	return &Quiz{
		ID:            FallbackQuizID,
		Title:         "Work Style & Preferences Explorer",
		Description:   "Discover your ideal work environment and preferences through scenario-based questions.",
		ActivityType:  "preference_quiz",
		EstimatedTime: 10,
		Questions:     questions,
		CDCMapping:    mapping,
		ModelUsed:     ModelHeuristic,
	}
}
