package survey

import "encoding/json"

// Widget is one item type: it validates stored item definitions, validates
// raw participant answers, and maps an accepted answer to dimension deltas.
// Scoring must fail closed: an answer that no longer validates contributes
// nothing.
type Widget interface {
	Type() string
	ValidateItem(item *Item) error
	ValidateAnswer(raw json.RawMessage) error
	Score(raw json.RawMessage, item *Item) ([]ScoreWeight, error)
}

// Registry dispatches on widget type. It is injected wherever answers are
// validated or scored so there is exactly one canonical widget table.
type Registry struct {
	widgets map[string]Widget
}

func NewRegistry(widgets ...Widget) *Registry {
	r := &Registry{widgets: make(map[string]Widget, len(widgets))}
	for _, w := range widgets {
		r.widgets[w.Type()] = w
	}
	return r
}

// DefaultRegistry returns the registry with every built-in widget.
func DefaultRegistry() *Registry {
	return NewRegistry(&ScenarioChoiceWidget{})
}

func (r *Registry) Widget(widgetType string) (Widget, bool) {
	w, ok := r.widgets[widgetType]
	return w, ok
}
