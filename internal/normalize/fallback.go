package normalize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
)

// ModelHeuristic marks results produced by the keyword lexicon.
const ModelHeuristic = "heuristic"

// HeuristicScale is the upper bound of lexicon scores.
const HeuristicScale = 10.0

var jobNamespace = uuid.MustParse("0b6e7f3c-52d4-4f7a-8c1e-93a7d2b5e640")

type demandLexicon struct {
	category    cdc.Category
	base        float64
	inc         float64
	cap         float64
	keywords    []string
	description string
}

var lexicon = []demandLexicon{
	{
		category:    cdc.FocusSustainedAttention,
		base:        4.0,
		inc:         2.0,
		cap:         8.0,
		keywords:    []string{"detail", "accuracy", "precision", "quality", "review", "analysis", "data", "research"},
		description: "Sustained attention required",
	},
	{
		category:    cdc.PatternRecognition,
		base:        3.0,
		inc:         1.5,
		cap:         9.0,
		keywords:    []string{"data", "analysis", "trends", "patterns", "insights", "algorithm", "machine learning", "analytics"},
		description: "Data analysis and trend identification",
	},
	{
		category:    cdc.VerbalCommunication,
		base:        2.0,
		inc:         1.0,
		cap:         8.0,
		keywords:    []string{"presentation", "meeting", "client", "stakeholder", "communication", "collaborate", "team", "leadership"},
		description: "Team collaboration and stakeholder interaction",
	},
	{
		category:    cdc.SpatialReasoning,
		base:        1.0,
		inc:         1.5,
		cap:         7.0,
		keywords:    []string{"design", "architecture", "visualization", "modeling", "3d", "spatial", "layout", "engineering"},
		description: "Visual and spatial problem-solving",
	},
	{
		category:    cdc.CreativeIdeation,
		base:        2.0,
		inc:         1.2,
		cap:         8.0,
		keywords:    []string{"creative", "innovation", "design", "brainstorm", "solution", "problem-solving", "strategy"},
		description: "Innovation and creative problem-solving",
	},
	{
		category:    cdc.MultitaskingContextSwitching,
		base:        3.0,
		inc:         1.0,
		cap:         9.0,
		keywords:    []string{"multiple", "various", "diverse", "manage", "coordinate", "juggle", "priorities", "concurrent"},
		description: "Managing multiple concurrent responsibilities",
	},
}

var fallbackTasks = []string{
	"Analyze job requirements and responsibilities",
	"Execute core job functions with attention to detail",
	"Collaborate with team members and stakeholders",
	"Manage multiple priorities and deadlines",
}

var fallbackSkills = []string{
	"Strong analytical and problem-solving skills",
	"Attention to detail and accuracy",
	"Effective communication abilities",
	"Time management and organization",
}

// Fallback scores a job from keyword hits alone. It is pure: the same title and
// description always produce the same result, job ID included.
func Fallback(req Request) *Result {
	text := strings.ToLower(req.Title + " " + req.Description)

	core := cdc.Core()
	scores := make(cdc.Vector, len(core))
	demands := make(map[cdc.Category]string, len(core))
	for _, c := range core {
		lx, ok := lexiconFor(c)
		if !ok {
			continue
		}
		score := lx.score(text)
		scores[lx.category] = score
		demands[lx.category] = fmt.Sprintf("%s - Score: %s/10", lx.description, strconv.FormatFloat(score, 'f', 1, 64))
	}

	return &Result{
		JobID:              fallbackJobID(req.Title, req.Description),
		Title:              req.Title,
		PlainSummary:       fallbackSummary(req.Title),
		Tasks:              append([]string(nil), fallbackTasks...),
		SkillsRequired:     append([]string(nil), fallbackSkills...),
		CognitiveDemands:   demands,
		CDCs:               scores,
		Scale:              HeuristicScale,
		EmployerFlags:      employerFlags(scores.Get(cdc.FocusSustainedAttention) >= heuristicThreshold, false),
		AccommodationRules: heuristicRules(scores),
		ModelUsed:          ModelHeuristic,
	}
}

func lexiconFor(c cdc.Category) (demandLexicon, bool) {
	for _, lx := range lexicon {
		if lx.category == c {
			return lx, true
		}
	}
	return demandLexicon{}, false
}

// score counts distinct keywords present anywhere in text.
func (lx demandLexicon) score(text string) float64 {
	hits := 0
	for _, kw := range lx.keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return round1(math.Min(lx.cap, lx.base+lx.inc*float64(hits)))
}

func fallbackJobID(title, description string) string {
	return uuid.NewSHA1(jobNamespace, []byte(title+"\x00"+description)).String()
}

func fallbackSummary(title string) string {
	role := strings.ToLower(strings.TrimSpace(title))
	if role == "" {
		role = "untitled"
	}
	return fmt.Sprintf("This %s role involves moderate to high cognitive demands across multiple areas. "+
		"Key strengths needed include attention to detail, analytical thinking, and structured work approaches. "+
		"The role may benefit from accommodations supporting focus and task organization.", role)
}

func employerFlags(needsQuietSpace, modelAnalysis bool) map[string]any {
	return map[string]any{
		"nd_suitable":       true,
		"needs_quiet_space": needsQuietSpace,
		"model_analysis":    modelAnalysis,
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
