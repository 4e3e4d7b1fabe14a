// Package cdc defines the Cognitive Demand Categories shared by candidate
// profiles and job demand descriptions.
package cdc

import (
	"sort"
	"strings"
)

// Category is one of the twelve cognitive demand categories.
type Category string

const (
	FocusSustainedAttention      Category = "focus_sustained_attention"
	PatternRecognition           Category = "pattern_recognition"
	VerbalCommunication          Category = "verbal_communication"
	SpatialReasoning             Category = "spatial_reasoning"
	CreativeIdeation             Category = "creative_ideation"
	MultitaskingContextSwitching Category = "multitasking_context_switching"
	ProcessingSpeed              Category = "processing_speed"
	ExecutiveFunction            Category = "executive_function"
	FineMotorInput               Category = "fine_motor_input"
	SensoryProcessing            Category = "sensory_processing"
	CommunicationInterpretation  Category = "communication_interpretation"
	AttentionFiltering           Category = "attention_filtering"
)

var all = []Category{
	FocusSustainedAttention,
	PatternRecognition,
	VerbalCommunication,
	SpatialReasoning,
	CreativeIdeation,
	MultitaskingContextSwitching,
	ProcessingSpeed,
	ExecutiveFunction,
	FineMotorInput,
	SensoryProcessing,
	CommunicationInterpretation,
	AttentionFiltering,
}

var labels = map[Category]string{
	FocusSustainedAttention:      "Focus & Sustained Attention",
	PatternRecognition:           "Pattern Recognition",
	VerbalCommunication:          "Verbal Communication",
	SpatialReasoning:             "Spatial Reasoning",
	CreativeIdeation:             "Creative Ideation",
	MultitaskingContextSwitching: "Multitasking & Context Switching",
	ProcessingSpeed:              "Processing Speed",
	ExecutiveFunction:            "Executive Function",
	FineMotorInput:               "Fine Motor Input",
	SensoryProcessing:            "Sensory Processing",
	CommunicationInterpretation:  "Communication Interpretation",
	AttentionFiltering:           "Attention Filtering",
}

// All returns the categories in their canonical order. The returned slice is a copy.
func All() []Category {
	out := make([]Category, len(all))
	copy(out, all)
	return out
}

// Core returns the first six categories, the ones every assessment targets.
func Core() []Category {
	return All()[:6]
}

// Names returns the canonical category names in order.
func Names() []string {
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}

// Parse resolves a category name, tolerating surrounding whitespace and case.
func Parse(name string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	_, ok := labels[c]
	return c, ok
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := labels[c]
	return ok
}

// Label is the human readable category name.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return string(c)
}

func (c Category) String() string { return string(c) }

// Vector maps categories to a numeric value. Missing categories read as zero.
type Vector map[Category]float64

// FromMap builds a vector from loosely typed keys, dropping unknown categories.
func FromMap(m map[string]float64) Vector {
	v := make(Vector, len(m))
	for k, val := range m {
		if c, ok := Parse(k); ok {
			v[c] = val
		}
	}
	return v
}

// Get returns the value for c or 0 when absent.
func (v Vector) Get(c Category) float64 {
	if v == nil {
		return 0
	}
	return v[c]
}

// ToMap converts the vector to string keys for serialization.
func (v Vector) ToMap() map[string]float64 {
	out := make(map[string]float64, len(v))
	for c, val := range v {
		out[string(c)] = val
	}
	return out
}

// Clamp returns a copy with every value bounded to [lo, hi].
func (v Vector) Clamp(lo, hi float64) Vector {
	out := make(Vector, len(v))
	for c, val := range v {
		switch {
		case val < lo:
			val = lo
		case val > hi:
			val = hi
		}
		out[c] = val
	}
	return out
}

// Top returns up to n categories ordered by descending value, ties by canonical order.
func (v Vector) Top(n int) []Category {
	ordered := make([]Category, 0, len(v))
	for _, c := range all {
		if _, ok := v[c]; ok {
			ordered = append(ordered, c)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return v[ordered[i]] > v[ordered[j]]
	})
	if n >= 0 && len(ordered) > n {
		ordered = ordered[:n]
	}
	return ordered
}
