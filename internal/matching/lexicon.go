package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
	"github.com/sridarsri23/BrainBridge/internal/job"
)

const maxTokens = 200

var skillToCDC = map[string]cdc.Category{
	"analysis":      cdc.PatternRecognition,
	"data":          cdc.PatternRecognition,
	"excel":         cdc.PatternRecognition,
	"python":        cdc.PatternRecognition,
	"sql":           cdc.PatternRecognition,
	"communication": cdc.VerbalCommunication,
	"presentation":  cdc.VerbalCommunication,
	"stakeholder":   cdc.VerbalCommunication,
	"cad":           cdc.SpatialReasoning,
	"3d":            cdc.SpatialReasoning,
	"design":        cdc.CreativeIdeation,
	"brainstorm":    cdc.CreativeIdeation,
	"ux":            cdc.CreativeIdeation,
	"project":       cdc.ExecutiveFunction,
	"planning":      cdc.ExecutiveFunction,
	"organize":      cdc.ExecutiveFunction,
	"deadlines":     cdc.MultitaskingContextSwitching,
	"fast-paced":    cdc.ProcessingSpeed,
}

type riskKeyword struct {
	word     string
	category cdc.Category
	// keys are sensitivity names a candidate may have used for this exposure.
	keys []string
}

var riskKeywords = []riskKeyword{
	{word: "noise", category: cdc.SensoryProcessing, keys: []string{"noise", "sound"}},
	{word: "loud", category: cdc.SensoryProcessing, keys: []string{"noise", "sound"}},
	{word: "bright", category: cdc.SensoryProcessing, keys: []string{"lighting", "light"}},
	{word: "crowd", category: cdc.SensoryProcessing, keys: []string{"crowds", "crowd"}},
	{word: "open office", category: cdc.AttentionFiltering, keys: []string{"open_office", "open office", "distraction"}},
	{word: "interruptions", category: cdc.AttentionFiltering, keys: []string{"interruptions", "distraction"}},
}

// riskSuffixes are the inflections a risk keyword may carry and still count,
// so "crowded" and "louder" match while "crowdsourcing" does not.
var riskSuffixes = map[string]struct{}{
	"s": {}, "es": {}, "ed": {}, "er": {}, "est": {}, "ly": {}, "ing": {}, "y": {},
}

var (
	remoteWords = []string{"remote", "work from home", "wfh", "hybrid"}
	onsiteWords = []string{"on-site", "onsite", "office", "factory", "warehouse"}
	// onsitePreferenceWords recognise a candidate's stated on-site preference.
	onsitePreferenceWords = []string{"on-site", "onsite", "office", "in person", "in-person"}
)

// Tokenize splits text into lowercase keyword tokens in first-seen order.
// Letters, digits and + # . - are word characters so "c++", "node.js" and
// "fast-paced" survive. Trailing dots and hyphens are dropped, as are tokens
// shorter than two runes and repeats. At most limit tokens are returned.
func Tokenize(text string, limit int) []string {
	seen := make(map[string]struct{})
	var tokens []string
	var word strings.Builder

	flush := func() {
		w := strings.TrimRight(word.String(), ".-")
		word.Reset()
		if len([]rune(w)) < 2 {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		seen[w] = struct{}{}
		tokens = append(tokens, w)
	}

	for _, r := range strings.ToLower(text) {
		if limit > 0 && len(tokens) >= limit {
			break
		}
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word.WriteRune(r)
		case (r == '+' || r == '#' || r == '.' || r == '-') && word.Len() > 0:
			word.WriteRune(r)
		default:
			flush()
		}
	}
	if limit <= 0 || len(tokens) < limit {
		flush()
	}
	return tokens
}

// categoryCounts maps the posting's requirement and description tokens onto
// CDC categories and counts the matching keywords per category.
func categoryCounts(p job.Posting) map[cdc.Category]int {
	counts := make(map[cdc.Category]int)
	for _, token := range Tokenize(p.Requirements+" "+p.Description, maxTokens) {
		if c, ok := skillToCDC[token]; ok {
			counts[c]++
		}
	}
	return counts
}

// jobText is the lowercase haystack for setup and sensory risk detection.
func jobText(p job.Posting) string {
	return strings.ToLower(p.Location + " " + p.Description + " " + p.Requirements)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// containsTerm reports whether term occurs in text as a word of its own,
// optionally followed by one of riskSuffixes. "cloud" does not contain "loud".
func containsTerm(text, term string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], term)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(term)
		if wordBoundaryBefore(text, start) && inflectionAfter(text[end:]) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func inflectionAfter(rest string) bool {
	end := strings.IndexFunc(rest, func(r rune) bool { return !isWordRune(r) })
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return true
	}
	_, ok := riskSuffixes[rest[:end]]
	return ok
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
