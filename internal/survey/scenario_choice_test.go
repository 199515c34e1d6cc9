package survey

import (
	"encoding/json"
	"testing"
)

func validItem() *Item {
	return &Item{
		ID:         "q1",
		WidgetType: WidgetScenarioChoice,
		Prompt:     "A friend trips in the hallway. What do you do?",
		Options: []Option{
			{ID: "a", Label: "Help them up", Scoring: []ScoreWeight{{Dimension: "empathy", Delta: 10}}},
			{ID: "b", Label: "Keep walking", Scoring: []ScoreWeight{{Dimension: "empathy", Delta: -5}}},
		},
	}
}

func TestValidateItem(t *testing.T) {
	w := &ScenarioChoiceWidget{}

	if err := w.ValidateItem(validItem()); err != nil {
		t.Fatalf("valid item rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Item)
	}{
		{"missing prompt", func(i *Item) { i.Prompt = "" }},
		{"single option", func(i *Item) { i.Options = i.Options[:1] }},
		{"too many options", func(i *Item) {
			i.Options = append(i.Options,
				Option{ID: "c", Label: "C"},
				Option{ID: "d", Label: "D"})
		}},
		{"duplicate option id", func(i *Item) { i.Options[1].ID = "a" }},
		{"empty option label", func(i *Item) { i.Options[0].Label = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := validItem()
			tt.mutate(item)
			if err := w.ValidateItem(item); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateAnswer(t *testing.T) {
	w := &ScenarioChoiceWidget{}

	if err := w.ValidateAnswer([]byte(`{"optionId":"a"}`)); err != nil {
		t.Fatalf("valid answer rejected: %v", err)
	}
	if err := w.ValidateAnswer([]byte(`{}`)); err == nil {
		t.Error("missing optionId must be rejected")
	}
	if err := w.ValidateAnswer([]byte(`not json`)); err == nil {
		t.Error("malformed payload must be rejected")
	}
}

func TestScoreReturnsChosenOptionWeights(t *testing.T) {
	w := &ScenarioChoiceWidget{}
	item := validItem()

	weights, err := w.Score([]byte(`{"optionId":"b"}`), item)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if len(weights) != 1 || weights[0].Dimension != "empathy" || weights[0].Delta != -5 {
		t.Fatalf("weights = %+v", weights)
	}
}

func TestScoreUnknownOption(t *testing.T) {
	w := &ScenarioChoiceWidget{}
	if _, err := w.Score([]byte(`{"optionId":"zz"}`), validItem()); err == nil {
		t.Fatal("unknown option must not score")
	}
}

func TestParseDocument(t *testing.T) {
	reg := DefaultRegistry()

	raw := []byte(`{
		"version": 1,
		"slug": "hallway",
		"title": "Hallway Scenarios",
		"dimensions": [{"id": "empathy"}, {"id": "courage"}],
		"items": [{
			"id": "q1",
			"widgetType": "scenario_choice",
			"prompt": "A friend trips. What do you do?",
			"options": [
				{"id": "a", "label": "Help"},
				{"id": "b", "label": "Walk on"}
			]
		}]
	}`)

	doc, err := ParseDocument(raw, reg)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if doc.PrimaryDimension() != "empathy" {
		t.Fatalf("primary dimension = %q, want empathy", doc.PrimaryDimension())
	}
	if doc.StyleID != "classic" {
		t.Fatalf("style = %q, want classic default", doc.StyleID)
	}
	if doc.Item("q1") == nil || doc.Item("q2") != nil {
		t.Fatal("item lookup broken")
	}
}

func TestParseDocumentRejections(t *testing.T) {
	reg := DefaultRegistry()

	tests := []struct {
		name string
		raw  string
	}{
		{"wrong version", `{"version": 2, "items": [{"id":"q1","widgetType":"scenario_choice","prompt":"p","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}]}`},
		{"no items", `{"version": 1, "items": []}`},
		{"duplicate item ids", `{"version": 1, "items": [
			{"id":"q1","widgetType":"scenario_choice","prompt":"p","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]},
			{"id":"q1","widgetType":"scenario_choice","prompt":"p","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}
		]}`},
		{"unknown widget", `{"version": 1, "items": [{"id":"q1","widgetType":"slider","prompt":"p"}]}`},
		{"invalid item", `{"version": 1, "items": [{"id":"q1","widgetType":"scenario_choice","prompt":"","options":[{"id":"a","label":"A"},{"id":"b","label":"B"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDocument(json.RawMessage(tt.raw), reg); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
