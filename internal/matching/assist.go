package matching

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/utils"
)

// Assistant gives an independent 0-100 opinion on a candidate/job pair.
type Assistant interface {
	Opinion(ctx context.Context, req OpinionRequest) (float64, error)
	Model() string
}

// OpinionRequest is everything the assistant may look at.
type OpinionRequest struct {
	Candidate Candidate
	Posting   PostingView
	Branch    Branch
	Local     float64
}

// PostingView is the part of a posting sent to the reasoning service.
type PostingView struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements string `json:"requirements"`
	Location     string `json:"location"`
}

const maxPromptDescription = 4000

//go:embed opinion_prompt.md
var opinionSystem string

var opinionSchema = ai.MustSchema("match_opinion", `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number", "minimum": 0, "maximum": 100},
    "rationale": {"type": "string"}
  }
}`)

// ReasonerAssistant asks an ai.Reasoner for the opinion.
type ReasonerAssistant struct {
	reasoner ai.Reasoner
}

func NewReasonerAssistant(r ai.Reasoner) *ReasonerAssistant {
	return &ReasonerAssistant{reasoner: r}
}

func (a *ReasonerAssistant) Model() string {
	return ai.ModelName(a.reasoner)
}

func (a *ReasonerAssistant) Opinion(ctx context.Context, req OpinionRequest) (float64, error) {
	prompt, err := buildOpinionPrompt(req)
	if err != nil {
		return 0, err
	}

	data, err := ai.Generate(ctx, a.reasoner, ai.Request{
		System: opinionSystem,
		Prompt: prompt,
		Schema: opinionSchema,
	})
	if err != nil {
		return 0, err
	}

	score, ok := data["score"].(float64)
	if !ok {
		return 0, fmt.Errorf("%w: score is not a number", ai.ErrMalformedOutput)
	}
	return score, nil
}

func buildOpinionPrompt(req OpinionRequest) (string, error) {
	candidate := map[string]any{
		"completed_assessments": req.Candidate.CompletedAssessments,
		"preferred_work_setup":  req.Candidate.WorkSetup,
	}
	if p := req.Candidate.Profile; p != nil {
		candidate["strengths"] = p.Strengths.ToMap()
		candidate["sensitivities"] = p.Sensitivities
		candidate["preferences"] = p.Preferences
	}

	posting := req.Posting
	posting.Description = utils.TruncateForLog(posting.Description, maxPromptDescription)

	payload, err := json.MarshalIndent(map[string]any{
		"candidate": candidate,
		"job":       posting,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal opinion payload: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Rate how well this candidate fits this job on a 0-100 scale.\n\n")
	sb.Write(payload)
	sb.WriteString("\n\nRespond with JSON only: {\"score\": <number 0-100>, \"rationale\": \"<one sentence>\"}")
	return sb.String(), nil
}

// validOpinion filters out values that cannot be blended into a score.
func validOpinion(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 100
}
