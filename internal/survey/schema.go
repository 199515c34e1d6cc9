package survey

import (
	"encoding/json"
	"fmt"
)

// Document is the parsed form of a test definition's JSON document. The
// stored raw document is versioned; only version 1 exists today.
type Document struct {
	Version    int         `json:"version"`
	Slug       string      `json:"slug"`
	Title      string      `json:"title"`
	StyleID    string      `json:"styleId"`
	Dimensions []Dimension `json:"dimensions,omitempty"`
	Items      []Item      `json:"items"`
}

type Dimension struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type Item struct {
	ID         string   `json:"id"`
	WidgetType string   `json:"widgetType"`
	Prompt     string   `json:"prompt"`
	Scenario   string   `json:"scenario,omitempty"`
	Options    []Option `json:"options,omitempty"`
}

type Option struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	Description string        `json:"description,omitempty"`
	Scoring     []ScoreWeight `json:"scoring,omitempty"`
}

// ScoreWeight is one signed dimension delta contributed by a chosen option.
type ScoreWeight struct {
	Dimension string  `json:"dimension"`
	Delta     float64 `json:"delta"`
}

// Item lookup by id; nil if absent.
func (d *Document) Item(id string) *Item {
	for i := range d.Items {
		if d.Items[i].ID == id {
			return &d.Items[i]
		}
	}
	return nil
}

// PrimaryDimension returns the first declared dimension id, or "" when the
// document declares none.
func (d *Document) PrimaryDimension() string {
	if len(d.Dimensions) == 0 {
		return ""
	}
	return d.Dimensions[0].ID
}

// ParseDocument decodes and structurally validates a stored definition
// document against the registry's known widgets.
func ParseDocument(raw json.RawMessage, reg *Registry) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("invalid definition document: %w", err)
	}
	if doc.Version != 1 {
		return nil, fmt.Errorf("unsupported definition version %d", doc.Version)
	}
	if len(doc.Items) == 0 {
		return nil, fmt.Errorf("definition has no items")
	}
	if doc.StyleID == "" {
		doc.StyleID = "classic"
	}

	seen := make(map[string]bool, len(doc.Items))
	for i := range doc.Items {
		item := &doc.Items[i]
		if item.ID == "" {
			return nil, fmt.Errorf("item %d has no id", i)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = true

		widget, ok := reg.Widget(item.WidgetType)
		if !ok {
			return nil, fmt.Errorf("item %q: unknown widget type %q", item.ID, item.WidgetType)
		}
		if err := widget.ValidateItem(item); err != nil {
			return nil, fmt.Errorf("item %q: %w", item.ID, err)
		}
	}

	return &doc, nil
}
