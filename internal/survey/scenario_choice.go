package survey

import (
	"encoding/json"
	"fmt"
)

const WidgetScenarioChoice = "scenario_choice"

// ScenarioChoiceWidget presents a short scenario with 2-3 options; each
// option carries its own dimension deltas.
type ScenarioChoiceWidget struct{}

type scenarioChoiceAnswer struct {
	OptionID string `json:"optionId"`
}

func (w *ScenarioChoiceWidget) Type() string {
	return WidgetScenarioChoice
}

func (w *ScenarioChoiceWidget) ValidateItem(item *Item) error {
	if item.Prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(item.Options) < 2 || len(item.Options) > 3 {
		return fmt.Errorf("expected 2-3 options, got %d", len(item.Options))
	}
	seen := make(map[string]bool, len(item.Options))
	for _, opt := range item.Options {
		if opt.ID == "" || opt.Label == "" {
			return fmt.Errorf("option id and label are required")
		}
		if seen[opt.ID] {
			return fmt.Errorf("duplicate option id %q", opt.ID)
		}
		seen[opt.ID] = true
	}
	return nil
}

func (w *ScenarioChoiceWidget) ValidateAnswer(raw json.RawMessage) error {
	answer, err := decodeScenarioChoiceAnswer(raw)
	if err != nil {
		return err
	}
	if answer.OptionID == "" {
		return fmt.Errorf("optionId is required")
	}
	return nil
}

func (w *ScenarioChoiceWidget) Score(raw json.RawMessage, item *Item) ([]ScoreWeight, error) {
	answer, err := decodeScenarioChoiceAnswer(raw)
	if err != nil {
		return nil, err
	}
	for _, opt := range item.Options {
		if opt.ID == answer.OptionID {
			return opt.Scoring, nil
		}
	}
	return nil, fmt.Errorf("option %q not in item %q", answer.OptionID, item.ID)
}

func decodeScenarioChoiceAnswer(raw json.RawMessage) (*scenarioChoiceAnswer, error) {
	var answer scenarioChoiceAnswer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return nil, fmt.Errorf("invalid answer payload: %w", err)
	}
	return &answer, nil
}
