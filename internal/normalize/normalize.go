// Package normalize turns free-text job descriptions into cognitive demand
// scores and accommodation rules.
package normalize

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/ai"
	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/metrics"
	"github.com/sridarsri23/BrainBridge/internal/utils"
)

// ModelScale is the upper bound of scores returned by the reasoning service.
const ModelScale = 1.0

const maxPromptDescription = 8000

//go:embed normalize_prompt.md
var normalizeSystem string

var normalizeSchema = ai.MustSchema("job_normalization", `{
  "type": "object",
  "required": ["job_id", "title", "plain_summary", "tasks", "skills_required",
               "cognitive_demands", "cdcs", "employer_flags", "accommodation_rules"],
  "properties": {
    "job_id": {"type": "string"},
    "title": {"type": "string"},
    "plain_summary": {"type": "string"},
    "tasks": {"type": "array", "items": {"type": "string"}},
    "skills_required": {"type": "array", "items": {"type": "string"}},
    "cognitive_demands": {"type": "object", "additionalProperties": {"type": "string"}},
    "cdcs": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 1}
    },
    "employer_flags": {"type": "object"},
    "accommodation_rules": {"type": "array"}
  }
}`)

// Request describes the job to normalize.
type Request struct {
	Title       string
	Description string
	Company     string
	Context     string
}

// Result is a normalized job. Scale tells whether CDCs are on the model's 0-1
// scale or the heuristic 0-10 scale.
type Result struct {
	JobID              string                  `json:"job_id"`
	Title              string                  `json:"title"`
	PlainSummary       string                  `json:"plain_summary"`
	Tasks              []string                `json:"tasks"`
	SkillsRequired     []string                `json:"skills_required"`
	CognitiveDemands   map[cdc.Category]string `json:"cognitive_demands"`
	CDCs               cdc.Vector              `json:"cdcs"`
	Scale              float64                 `json:"scale"`
	EmployerFlags      map[string]any          `json:"employer_flags"`
	AccommodationRules []Rule                  `json:"accommodation_rules"`
	ModelUsed          string                  `json:"model_used"`
}

// Accommodations flattens the recommendations of every rule, in rule order.
func (r *Result) Accommodations() []string {
	var out []string
	for _, rule := range r.AccommodationRules {
		out = append(out, rule.Then...)
	}
	return out
}

// Normalizer analyses job descriptions with an optional reasoning service.
type Normalizer struct {
	reasoner ai.Reasoner
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

type Option func(*Normalizer)

func WithLogger(l *zap.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Normalizer) { n.metrics = m }
}

// New returns a normalizer. A nil reasoner makes every call use Fallback.
func New(r ai.Reasoner, opts ...Option) *Normalizer {
	n := &Normalizer{reasoner: r}
	for _, opt := range opts {
		opt(n)
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	n.logger = logger.WithFields(n.logger, zap.String(logger.FieldModel, ai.ModelName(r)))
	return n
}

// Normalize never fails: any problem with the reasoning service yields the
// heuristic result.
func (n *Normalizer) Normalize(ctx context.Context, req Request) *Result {
	if n.reasoner == nil {
		n.logger.Debug("reasoning service not configured, using keyword lexicon", zap.String("title", req.Title))
		n.metrics.Fallback("normalize")
		return Fallback(req)
	}

	res, err := n.analyze(ctx, req)
	if err != nil {
		n.logger.Warn("job normalization failed, using keyword lexicon",
			zap.String("title", req.Title),
			zap.Error(err),
		)
		n.metrics.Fallback("normalize")
		return Fallback(req)
	}

	n.logger.Info("job normalized",
		zap.String(logger.FieldJob, res.JobID),
		zap.String("title", res.Title),
		zap.Int("accommodation_rules", len(res.AccommodationRules)),
	)
	return res
}

type normalizedJob struct {
	Title            string             `json:"title"`
	PlainSummary     string             `json:"plain_summary"`
	Tasks            []string           `json:"tasks"`
	SkillsRequired   []string           `json:"skills_required"`
	CognitiveDemands map[string]string  `json:"cognitive_demands"`
	CDCs             map[string]float64 `json:"cdcs"`
	EmployerFlags    map[string]any     `json:"employer_flags"`
}

func (n *Normalizer) analyze(ctx context.Context, req Request) (*Result, error) {
	data, err := ai.Generate(ctx, n.reasoner, ai.Request{
		System: normalizeSystem,
		Prompt: buildPrompt(req),
		Schema: normalizeSchema,
	})
	if err != nil {
		return nil, err
	}

	var out normalizedJob
	if err := ai.Decode(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrAnalysisUnavailable, err)
	}

	scores := cdc.FromMap(out.CDCs)
	if len(scores) == 0 {
		return nil, fmt.Errorf("%w: %w: no known categories in cdcs", ai.ErrAnalysisUnavailable, ai.ErrMalformedOutput)
	}

	demands := make(map[cdc.Category]string, len(out.CognitiveDemands))
	for k, v := range out.CognitiveDemands {
		if c, ok := cdc.Parse(k); ok {
			demands[c] = v
		}
	}

	flags := make(map[string]any, len(out.EmployerFlags)+1)
	for k, v := range out.EmployerFlags {
		flags[k] = v
	}
	flags["model_analysis"] = true

	title := strings.TrimSpace(out.Title)
	if title == "" {
		title = req.Title
	}

	return &Result{
		JobID:              uuid.NewString(),
		Title:              title,
		PlainSummary:       out.PlainSummary,
		Tasks:              out.Tasks,
		SkillsRequired:     out.SkillsRequired,
		CognitiveDemands:   demands,
		CDCs:               scores,
		Scale:              ModelScale,
		EmployerFlags:      flags,
		AccommodationRules: modelRules(scores),
		ModelUsed:          ai.ModelName(n.reasoner),
	}, nil
}

func buildPrompt(req Request) string {
	company := strings.TrimSpace(req.Company)
	if company == "" {
		company = "Not specified"
	}
	extra := strings.TrimSpace(req.Context)
	if extra == "" {
		extra = "None provided"
	}

	var sb strings.Builder
	sb.WriteString("Analyze and normalize this job description.\n\n")
	fmt.Fprintf(&sb, "TITLE: %s\n\n", req.Title)
	fmt.Fprintf(&sb, "DESCRIPTION: %s\n\n", utils.TruncateForLog(req.Description, maxPromptDescription))
	fmt.Fprintf(&sb, "COMPANY: %s\n\n", company)
	fmt.Fprintf(&sb, "ADDITIONAL CONTEXT: %s\n\n", extra)
	sb.WriteString("Respond with JSON only, matching this schema:\n")
	sb.WriteString(normalizeSchema.Document())
	return sb.String()
}
