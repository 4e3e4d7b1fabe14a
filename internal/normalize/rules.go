package normalize

import (
	"fmt"
	"strconv"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
)

// Priority orders accommodation rules.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Cost is the rough cost of an accommodation to the employer.
type Cost string

const (
	CostNone   Cost = "none"
	CostLow    Cost = "low"
	CostMedium Cost = "medium"
	CostHigh   Cost = "high"
)

// Rule recommends accommodations when its conditions hold.
type Rule struct {
	If       map[string]string `json:"if,omitempty"`
	Then     []string          `json:"then"`
	Priority Priority          `json:"priority"`
	Cost     Cost              `json:"cost"`
}

type demandRule struct {
	category cdc.Category
	when     map[string]string // candidate-side conditions
	then     []string
	fallback string
	priority Priority
	cost     Cost
}

var demandRules = []demandRule{
	{
		category: cdc.FocusSustainedAttention,
		when:     map[string]string{"sensitivities.noise": "high"},
		then:     []string{"Noise-cancelling headset", "Quiet zone seating", "Sound masking"},
		fallback: "Quiet workspace or noise-cancelling headphones",
		priority: PriorityHigh,
		cost:     CostLow,
	},
	{
		category: cdc.PatternRecognition,
		then:     []string{"Visual data tools", "Pattern analysis software", "Dual monitor setup"},
		fallback: "Visual data analysis tools and dual monitors",
		priority: PriorityMedium,
		cost:     CostMedium,
	},
	{
		category: cdc.VerbalCommunication,
		when:     map[string]string{"preferences.communication": "structured"},
		then:     []string{"Meeting agendas in advance", "Written follow-ups", "Communication templates"},
		fallback: "Meeting agendas provided in advance",
		priority: PriorityHigh,
		cost:     CostNone,
	},
	{
		category: cdc.MultitaskingContextSwitching,
		when:     map[string]string{"preferences.task_management": "structured"},
		then:     []string{"Task management software", "Priority matrix tools", "Regular check-ins"},
		fallback: "Task prioritization tools and structured workflows",
		priority: PriorityMedium,
		cost:     CostLow,
	},
}

var lightingRule = Rule{
	If:       map[string]string{"sensitivities.lighting": "high"},
	Then:     []string{"Adjustable desk lighting", "Blue light filters", "Window blinds control"},
	Priority: PriorityMedium,
	Cost:     CostLow,
}

var genericRules = []Rule{
	{Then: []string{"Flexible work schedule options"}, Priority: PriorityLow, Cost: CostNone},
	{Then: []string{"Written communication preferences respected"}, Priority: PriorityLow, Cost: CostNone},
}

const (
	modelThreshold     = 0.7
	heuristicThreshold = 6.0
)

// modelRules derives rules from 0-1 demand scores. The lighting rule is always present.
func modelRules(scores cdc.Vector) []Rule {
	var rules []Rule
	for _, dr := range demandRules {
		if scores.Get(dr.category) < modelThreshold {
			continue
		}
		rules = append(rules, Rule{
			If:       dr.conditions(modelThreshold),
			Then:     append([]string(nil), dr.then...),
			Priority: dr.priority,
			Cost:     dr.cost,
		})
	}
	return append(rules, cloneRule(lightingRule))
}

// heuristicRules derives rules from 0-10 lexicon scores followed by the generic rules.
func heuristicRules(scores cdc.Vector) []Rule {
	var rules []Rule
	for _, dr := range demandRules {
		if scores.Get(dr.category) < heuristicThreshold {
			continue
		}
		rules = append(rules, Rule{
			If:       map[string]string{conditionKey(dr.category): threshold(heuristicThreshold)},
			Then:     []string{dr.fallback},
			Priority: dr.priority,
			Cost:     dr.cost,
		})
	}
	for _, r := range genericRules {
		rules = append(rules, cloneRule(r))
	}
	return rules
}

func (dr demandRule) conditions(atLeast float64) map[string]string {
	out := map[string]string{conditionKey(dr.category): threshold(atLeast)}
	for k, v := range dr.when {
		out[k] = v
	}
	return out
}

func conditionKey(c cdc.Category) string {
	return fmt.Sprintf("cdcs.%s", c)
}

func threshold(v float64) string {
	return ">=" + strconv.FormatFloat(v, 'f', -1, 64)
}

func cloneRule(r Rule) Rule {
	out := Rule{Then: append([]string(nil), r.Then...), Priority: r.Priority, Cost: r.Cost}
	if r.If != nil {
		out.If = make(map[string]string, len(r.If))
		for k, v := range r.If {
			out.If[k] = v
		}
	}
	return out
}
