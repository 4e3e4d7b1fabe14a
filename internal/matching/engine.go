// Package matching scores how well a candidate fits a job posting.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/job"
	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/metrics"
	"github.com/sridarsri23/BrainBridge/internal/profile"
)

// Branch names the scoring path taken.
type Branch string

const (
	BranchNoProfile Branch = "no_profile"
	BranchProfile   Branch = "profile"
)

// ModelHeuristic tags results computed without the reasoning service.
const ModelHeuristic = "heuristic"

const (
	MinScore = 50
	MaxScore = 100
	// maxNoProfileScore caps candidates that have not been profiled yet.
	maxNoProfileScore = 90

	neutralSkillsScore = 60.0

	prefRemoteMatch    = 95.0
	prefRemoteMismatch = 55.0
	prefNeutral        = 75.0

	highPenalty   = 12
	mediumPenalty = 6

	defaultAssistTimeout = 20 * time.Second
	defaultWorkers       = 4
)

// Candidate is the snapshot of a candidate the engine scores against.
// A nil Profile selects the no-profile branch.
type Candidate struct {
	ID                   string
	Profile              *profile.CognitiveProfile
	CompletedAssessments int
	WorkSetup            string
}

// Breakdown exposes the intermediate values behind a score.
type Breakdown struct {
	Baseline          float64              `json:"baseline,omitempty"`
	VarietyBoost      float64              `json:"variety_boost,omitempty"`
	PreferenceBoost   float64              `json:"preference_boost,omitempty"`
	SkillsScore       float64              `json:"skills_score,omitempty"`
	PreferenceScore   float64              `json:"preference_score,omitempty"`
	Penalty           int                  `json:"penalty,omitempty"`
	RiskKeywords      []string             `json:"risk_keywords,omitempty"`
	Local             float64              `json:"local"`
	AIComponent       float64              `json:"ai_component"`
	MatchedCategories map[cdc.Category]int `json:"matched_categories,omitempty"`
	Setup             WorkSetup            `json:"work_setup"`
}

// Result is a computed match. It is never cached.
type Result struct {
	JobID      string    `json:"job_id"`
	Score      int       `json:"score"`
	Reasoning  string    `json:"reasoning"`
	Branch     Branch    `json:"branch"`
	ModelUsed  string    `json:"model_used"`
	AIAssisted bool      `json:"ai_assisted"`
	Breakdown  Breakdown `json:"breakdown"`
}

// Engine computes match scores. It is safe for concurrent use.
type Engine struct {
	store         profile.Store
	assistant     Assistant
	assistTimeout time.Duration
	logger        *zap.Logger
	metrics       *metrics.Metrics
}

type Option func(*Engine)

// WithAssistant enables the optional AI opinion.
func WithAssistant(a Assistant) Option {
	return func(e *Engine) { e.assistant = a }
}

// WithAssistTimeout bounds each opinion call.
func WithAssistTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.assistTimeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.WithFields(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func New(store profile.Store, opts ...Option) *Engine {
	e := &Engine{
		store:         store,
		assistTimeout: defaultAssistTimeout,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadCandidate reads everything the engine needs about a candidate. Store
// failures are logged and treated as an unprofiled candidate with no progress.
func (e *Engine) LoadCandidate(ctx context.Context, candidateID string) Candidate {
	c := Candidate{ID: candidateID}
	if e.store == nil {
		return c
	}
	log := e.logger.With(logger.MatchFields(candidateID, "")...)

	p, err := e.store.Get(ctx, candidateID)
	switch {
	case err == nil:
		c.Profile = p
	case errors.Is(err, profile.ErrNotFound):
	default:
		log.Warn("reading profile failed, scoring without it", zap.Error(err))
	}

	if n, err := e.store.CompletedAssessments(ctx, candidateID); err != nil {
		log.Warn("reading assessment progress failed", zap.Error(err))
	} else {
		c.CompletedAssessments = n
	}

	if setup, err := e.store.WorkSetup(ctx, candidateID); err != nil {
		log.Warn("reading preferred work setup failed", zap.Error(err))
	} else {
		c.WorkSetup = setup
	}

	return c
}

// ComputeMatchScore loads the candidate and scores the posting.
func (e *Engine) ComputeMatchScore(ctx context.Context, candidateID string, p job.Posting) Result {
	return e.Score(ctx, e.LoadCandidate(ctx, candidateID), p)
}

// ScoreAll scores every posting for one candidate using at most workers
// concurrent computations. Nil postings are skipped, so there is one result
// per non-nil posting, in input order. The only error is cancellation of ctx.
func (e *Engine) ScoreAll(ctx context.Context, candidateID string, postings []*job.Posting, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}
	candidate := e.LoadCandidate(ctx, candidateID)

	valid := make([]*job.Posting, 0, len(postings))
	for _, p := range postings {
		if p != nil {
			valid = append(valid, p)
		}
	}
	results := make([]Result, len(valid))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range valid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.Score(gctx, candidate, *p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scoring postings: %w", err)
	}
	return results, nil
}

// Score computes the match for a candidate snapshot. It always returns a
// score in [MinScore, MaxScore]; assistant failures only remove the opinion.
func (e *Engine) Score(ctx context.Context, c Candidate, p job.Posting) Result {
	var res Result
	if c.Profile == nil {
		res = e.scoreWithoutProfile(ctx, c, p)
	} else {
		res = e.scoreWithProfile(ctx, c, p)
	}
	res.JobID = p.ID

	e.metrics.ObserveScore(string(res.Branch), res.AIAssisted, res.Score)
	e.logger.Debug("match computed",
		append(logger.MatchFields(c.ID, p.ID),
			zap.String("branch", string(res.Branch)),
			zap.Int("score", res.Score),
			zap.Bool("ai_assisted", res.AIAssisted),
		)...,
	)
	return res
}

func (e *Engine) scoreWithoutProfile(ctx context.Context, c Candidate, p job.Posting) Result {
	b := Breakdown{
		MatchedCategories: categoryCounts(p),
		Setup:             DetectWorkSetup(p),
	}

	b.Baseline = baselineFor(c.CompletedAssessments)
	b.VarietyBoost = math.Min(3*float64(len(b.MatchedCategories)), 12)

	setup := strings.ToLower(c.WorkSetup)
	switch {
	case strings.Contains(setup, "remote") && b.Setup.Remote:
		b.PreferenceBoost = 6
	case containsAny(setup, onsitePreferenceWords) && b.Setup.Onsite:
		b.PreferenceBoost = 4
	}

	b.Local = b.Baseline + b.VarietyBoost + b.PreferenceBoost
	res := Result{Branch: BranchNoProfile}
	b.AIComponent, res.AIAssisted = e.opinion(ctx, c, p, BranchNoProfile, b.Local)

	res.Score = clampInt(int(math.Round(0.5*b.Local+0.5*b.AIComponent)), MinScore, maxNoProfileScore)
	res.Breakdown = b
	res.ModelUsed = e.modelUsed(res.AIAssisted)
	res.Reasoning = fmt.Sprintf(
		"No cognitive profile yet: baseline %.0f from %d completed assessments, category variety +%.0f, work setup preference +%.0f (%s), %s.",
		b.Baseline, c.CompletedAssessments, b.VarietyBoost, b.PreferenceBoost, b.Setup, opinionNote(res.AIAssisted, b.AIComponent),
	)
	return res
}

func (e *Engine) scoreWithProfile(ctx context.Context, c Candidate, p job.Posting) Result {
	b := Breakdown{
		MatchedCategories: categoryCounts(p),
		Setup:             DetectWorkSetup(p),
	}

	b.SkillsScore = skillsScore(c.Profile, b.MatchedCategories)

	b.PreferenceScore = prefNeutral
	if c.Profile.PrefersRemote() {
		switch {
		case b.Setup.Remote:
			b.PreferenceScore = prefRemoteMatch
		case b.Setup.OnsiteOnly():
			b.PreferenceScore = prefRemoteMismatch
		}
	}

	b.Penalty, b.RiskKeywords = sensitivityPenalty(c.Profile, jobText(p))

	b.Local = b.SkillsScore
	res := Result{Branch: BranchProfile}
	b.AIComponent, res.AIAssisted = e.opinion(ctx, c, p, BranchProfile, b.SkillsScore)

	base := 0.55*b.SkillsScore + 0.25*b.PreferenceScore + 0.20*b.AIComponent
	base = math.Max(0, math.Min(100, base-float64(b.Penalty)))
	res.Score = max(MinScore, int(math.Round(base)))

	res.Breakdown = b
	res.ModelUsed = e.modelUsed(res.AIAssisted)

	penaltyNote := "no sensory risks found"
	if len(b.RiskKeywords) > 0 {
		penaltyNote = fmt.Sprintf("sensitivity penalty %d (%s)", b.Penalty, strings.Join(b.RiskKeywords, ", "))
	}
	res.Reasoning = fmt.Sprintf(
		"Profile-based match: skills %.0f across %s, work setup preference %.0f (%s), %s, %s.",
		b.SkillsScore, describeCategories(b.MatchedCategories), b.PreferenceScore, b.Setup, penaltyNote,
		opinionNote(res.AIAssisted, b.AIComponent),
	)
	return res
}

// opinion returns the assistant's view or local when there is none.
func (e *Engine) opinion(ctx context.Context, c Candidate, p job.Posting, branch Branch, local float64) (float64, bool) {
	if e.assistant == nil {
		return local, false
	}

	callCtx, cancel := context.WithTimeout(ctx, e.assistTimeout)
	defer cancel()

	v, err := e.assistant.Opinion(callCtx, OpinionRequest{
		Candidate: c,
		Posting: PostingView{
			Title:        p.Title,
			Description:  p.Description,
			Requirements: p.Requirements,
			Location:     p.Location,
		},
		Branch: branch,
		Local:  local,
	})
	if err != nil {
		e.logger.Info("AI opinion unavailable, using local score",
			append(logger.MatchFields(c.ID, p.ID), zap.Error(err))...,
		)
		e.metrics.Fallback("match_assist")
		return local, false
	}
	if !validOpinion(v) {
		e.logger.Info("AI opinion out of range, using local score",
			append(logger.MatchFields(c.ID, p.ID), zap.Float64("opinion", v))...,
		)
		e.metrics.Fallback("match_assist")
		return local, false
	}
	return v, true
}

func (e *Engine) modelUsed(assisted bool) string {
	if !assisted || e.assistant == nil {
		return ModelHeuristic
	}
	if m := e.assistant.Model(); m != "" {
		return m
	}
	return ModelHeuristic
}

func baselineFor(completed int) float64 {
	if completed <= 0 {
		return 50
	}
	return math.Min(60+5*float64(completed), 80)
}

// skillsScore is the count-weighted mean strength over matched categories, scaled to 100.
func skillsScore(p *profile.CognitiveProfile, counts map[cdc.Category]int) float64 {
	var weighted, total float64
	for c, n := range counts {
		weighted += p.Strength(c) * float64(n)
		total += float64(n)
	}
	if total == 0 {
		return neutralSkillsScore
	}
	return 100 * weighted / total
}

// sensitivityPenalty adds up the penalty for every risk keyword present in
// text and returns the keywords that cost points.
func sensitivityPenalty(p *profile.CognitiveProfile, text string) (int, []string) {
	penalty := 0
	var hits []string
	for _, rk := range riskKeywords {
		if !containsTerm(text, rk.word) {
			continue
		}
		var cost int
		switch resolveSensitivity(p, rk) {
		case profile.High:
			cost = highPenalty
		case profile.Medium:
			cost = mediumPenalty
		}
		if cost > 0 {
			penalty += cost
			hits = append(hits, rk.word)
		}
	}
	return penalty, hits
}

// resolveSensitivity finds the candidate's level for a risk keyword: first
// under the keyword's own names, then under its category. Attention filtering
// exposures with no level of their own inherit the noise level one step lower.
func resolveSensitivity(p *profile.CognitiveProfile, rk riskKeyword) profile.Level {
	for _, key := range rk.keys {
		if l, ok := p.Sensitivity(key); ok {
			return l
		}
	}
	if l, ok := p.Sensitivity(string(rk.category)); ok {
		return l
	}
	if rk.category == cdc.AttentionFiltering {
		if l, ok := p.Sensitivity("noise"); ok {
			return l.Lower()
		}
	}
	return profile.Low
}

func describeCategories(counts map[cdc.Category]int) string {
	if len(counts) == 0 {
		return "no recognised skill keywords"
	}
	cats := make([]cdc.Category, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })

	parts := make([]string, 0, len(cats))
	for _, c := range cats {
		parts = append(parts, fmt.Sprintf("%s x%d", c.Label(), counts[c]))
	}
	return strings.Join(parts, ", ")
}

func opinionNote(assisted bool, v float64) string {
	if assisted {
		return fmt.Sprintf("AI opinion %.0f", v)
	}
	return "AI opinion unavailable (heuristic)"
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
