package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/sridarsri23/BrainBridge/internal/cdc"
)

func quizResponseJSON(t *testing.T, questions int, mutate func(map[string]any)) string {
	t.Helper()

	items := make([]any, 0, questions)
	mapping := map[string]any{}
	for i := 0; i < questions; i++ {
		id := fmt.Sprintf("q%d", i+1)
		items = append(items, map[string]any{
			"question_id":   id,
			"question_text": fmt.Sprintf("Scenario %d", i+1),
			"question_type": "multiple_choice",
			"options":       []any{"a", "b"},
			"cdc_targets":   []any{"Pattern_Recognition", "telepathy", "pattern_recognition"},
		})
		mapping[id] = []any{"pattern_recognition", "astrology"}
	}
	resp := map[string]any{
		"quiz_id":        "quiz_focus_1",
		"title":          "Puzzle Quest",
		"description":    "Solve your way through the lab.",
		"activity_type":  "game",
		"estimated_time": 12,
		"questions":      items,
		"cdc_mapping":    mapping,
	}
	if mutate != nil {
		mutate(resp)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	return string(out)
}

func TestGenerateQuiz(t *testing.T) {
	stub := &stubReasoner{response: quizResponseJSON(t, 8, nil)}
	s := New(stub)

	q := s.GenerateQuiz(context.Background(), QuizRequest{ActivityType: "game", TargetCDCs: []string{"pattern_recognition", "nope"}})

	if q.ID != "quiz_focus_1" || q.ModelUsed != "gemini-test" || q.EstimatedTime != 12 {
		t.Fatalf("unexpected quiz: %+v", q)
	}
	if len(q.Questions) != 8 {
		t.Fatalf("expected 8 questions, got %d", len(q.Questions))
	}
	if !reflect.DeepEqual(q.Questions[0].CDCTargets, []string{"pattern_recognition"}) {
		t.Fatalf("unexpected targets: %v", q.Questions[0].CDCTargets)
	}
	if !reflect.DeepEqual(q.CDCMapping["q1"], []string{"pattern_recognition"}) {
		t.Fatalf("unexpected mapping: %v", q.CDCMapping)
	}
	if !strings.Contains(stub.lastPrompt, "Focus on these categories: pattern_recognition.") {
		t.Fatalf("unknown categories should be dropped from the prompt: %s", stub.lastPrompt)
	}
	if !strings.Contains(stub.lastPrompt, "Title theme: "+DefaultTheme) {
		t.Fatalf("expected default theme in prompt: %s", stub.lastPrompt)
	}
}

func TestGenerateQuizDefaults(t *testing.T) {
	req := QuizRequest{}.withDefaults()

	if req.ActivityType != DefaultActivityType || req.Theme != DefaultTheme {
		t.Fatalf("unexpected defaults: %+v", req)
	}
	if !reflect.DeepEqual(req.TargetCDCs, cdc.Names()) {
		t.Fatalf("expected every category, got %v", req.TargetCDCs)
	}

	req = QuizRequest{TargetCDCs: []string{"unknown"}}.withDefaults()
	if len(req.TargetCDCs) != len(cdc.All()) {
		t.Fatalf("only unknown targets should fall back to every category, got %v", req.TargetCDCs)
	}
}

func TestGenerateQuizFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		reasoner *stubReasoner
	}{
		{name: "service error", reasoner: &stubReasoner{err: errors.New("boom")}},
		{name: "too few questions", reasoner: &stubReasoner{response: quizResponseJSON(t, 4, nil)}},
		{name: "too many questions", reasoner: &stubReasoner{response: quizResponseJSON(t, 13, nil)}},
		{name: "missing mapping", reasoner: &stubReasoner{response: quizResponseJSON(t, 9, func(m map[string]any) {
			delete(m, "cdc_mapping")
		})}},
		{name: "question without targets", reasoner: &stubReasoner{response: quizResponseJSON(t, 9, func(m map[string]any) {
			m["questions"].([]any)[3].(map[string]any)["cdc_targets"] = []any{}
		})}},
		{name: "question with only unknown targets", reasoner: &stubReasoner{response: quizResponseJSON(t, 9, func(m map[string]any) {
			m["questions"].([]any)[5].(map[string]any)["cdc_targets"] = []any{"telepathy", "juggling"}
		})}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(tt.reasoner).GenerateQuiz(context.Background(), QuizRequest{})
			if !reflect.DeepEqual(q, FallbackQuiz()) {
				t.Fatalf("expected fallback quiz, got %+v", q)
			}
			if tt.reasoner.calls != 1 {
				t.Fatalf("expected a single reasoning call, got %d", tt.reasoner.calls)
			}
		})
	}

	if q := New(nil).GenerateQuiz(context.Background(), QuizRequest{}); q.ID != FallbackQuizID {
		t.Fatalf("expected fallback without reasoner, got %s", q.ID)
	}
}

func TestFallbackQuizIsStable(t *testing.T) {
	a := FallbackQuiz()
	b := FallbackQuiz()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("fallback quiz differs between calls")
	}

	a.Questions[0].CDCTargets[0] = "mutated"
	if FallbackQuiz().Questions[0].CDCTargets[0] != string(cdc.SensoryProcessing) {
		t.Fatalf("fallback quiz must not share state between calls")
	}

	if b.ID != FallbackQuizID || len(b.Questions) != 4 || b.ModelUsed != ModelHeuristic {
		t.Fatalf("unexpected fallback quiz: %+v", b)
	}
	for _, q := range b.Questions {
		if len(q.CDCTargets) == 0 || len(q.Options) != 4 {
			t.Fatalf("question %s is incomplete", q.ID)
		}
		if !reflect.DeepEqual(b.CDCMapping[q.ID], q.CDCTargets) {
			t.Fatalf("mapping for %s does not match targets", q.ID)
		}
	}
}

func TestQuizResults(t *testing.T) {
	q := FallbackQuiz()
	results := q.Results(map[string]string{
		"workspace_pref": q.Questions[0].Options[0],
		"unknown":        "ignored",
	})

	entry, ok := results[FallbackQuizID].(map[string]any)
	if !ok {
		t.Fatalf("expected results keyed by quiz id, got %v", results)
	}
	responses := entry["responses"].(map[string]any)
	if len(responses) != 1 {
		t.Fatalf("expected one response, got %v", responses)
	}
	answer := responses["workspace_pref"].(map[string]any)
	if answer["answer"] != q.Questions[0].Options[0] {
		t.Fatalf("unexpected answer: %v", answer)
	}

	a := Fallback(Input{QuizResults: results})
	if !reflect.DeepEqual(a.Evidence.QuizIDs, []string{FallbackQuizID}) {
		t.Fatalf("quiz id should be recorded as evidence, got %v", a.Evidence.QuizIDs)
	}
}
