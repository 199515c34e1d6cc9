package model

import (
	"encoding/json"
	"time"
)

// TestDefinition is a versioned specification of an ordered list of scoring
// items. Definition holds the document validated by the survey package;
// once published the row is immutable and sessions reference it by id.
//
// swagger:model TestDefinition
type TestDefinition struct {
	UUIDBase
	Slug        string          `gorm:"size:100;not null;uniqueIndex:idx_slug_version,priority:1" json:"slug"`
	Version     int             `gorm:"not null;default:1;uniqueIndex:idx_slug_version,priority:2" json:"version"`
	Title       string          `gorm:"size:255;not null" json:"title"`
	StyleID     string          `gorm:"size:50;default:'classic'" json:"styleId"`
	Definition  json.RawMessage `gorm:"type:json;not null" json:"definition"`
	IsPublished bool            `gorm:"default:false" json:"isPublished"`
	PublishedAt *time.Time      `json:"publishedAt,omitempty"`
	CreatorID   string          `gorm:"index;type:varchar(36)" json:"creatorId"`
}

func (TestDefinition) TableName() string {
	return "test_definitions"
}
