package model

import "encoding/json"

// CamouflageSet is a themed bundle of characters an evaluation can reveal at
// completion instead of a plain thank-you.
type CamouflageSet struct {
	UUIDBase
	Name        string `gorm:"size:255;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"isActive"`
}

func (CamouflageSet) TableName() string {
	return "camouflage_sets"
}

type CamouflageCharacter struct {
	UUIDBase
	SetID    string `gorm:"index;type:varchar(36)" json:"setId"`
	Title    string `gorm:"size:255;not null" json:"title"`
	ImageURL string `gorm:"size:512" json:"imageUrl"`
}

func (CamouflageCharacter) TableName() string {
	return "camouflage_characters"
}

// CamouflageSlot is a ranked score-band bucket configured per test
// definition. Each test carries between 2 and 5 slots; Rank orders them from
// the lowest to the highest score band and Key is unique per test.
type CamouflageSlot struct {
	UUIDBase
	TestDefinitionID string `gorm:"type:varchar(36);uniqueIndex:idx_test_slot_key,priority:1" json:"testDefinitionId"`
	Key              string `gorm:"size:50;not null;uniqueIndex:idx_test_slot_key,priority:2" json:"key"`
	Rank             int    `gorm:"not null" json:"rank"`
}

func (CamouflageSlot) TableName() string {
	return "camouflage_slots"
}

// CamouflageMapping assigns one character to one (test, set, slot) triple.
type CamouflageMapping struct {
	UUIDBase
	TestDefinitionID string               `gorm:"type:varchar(36);uniqueIndex:idx_mapping_triple,priority:1" json:"testDefinitionId"`
	CamouflageSetID  string               `gorm:"type:varchar(36);uniqueIndex:idx_mapping_triple,priority:2" json:"camouflageSetId"`
	SlotKey          string               `gorm:"size:50;uniqueIndex:idx_mapping_triple,priority:3" json:"slotKey"`
	CharacterID      string               `gorm:"type:varchar(36)" json:"characterId"`
	Character        *CamouflageCharacter `gorm:"foreignKey:CharacterID" json:"character,omitempty"`
}

func (CamouflageMapping) TableName() string {
	return "camouflage_mappings"
}

// CamouflageCopy attaches the headline/description/tips rendered for the
// same triple a mapping covers. Both rows must exist for content to render.
type CamouflageCopy struct {
	UUIDBase
	TestDefinitionID string          `gorm:"type:varchar(36);uniqueIndex:idx_copy_triple,priority:1" json:"testDefinitionId"`
	CamouflageSetID  string          `gorm:"type:varchar(36);uniqueIndex:idx_copy_triple,priority:2" json:"camouflageSetId"`
	SlotKey          string          `gorm:"size:50;uniqueIndex:idx_copy_triple,priority:3" json:"slotKey"`
	Headline         string          `gorm:"size:255" json:"headline"`
	Description      string          `gorm:"type:text" json:"description"`
	Tips             json.RawMessage `gorm:"type:json" json:"tips,omitempty"`
}

func (CamouflageCopy) TableName() string {
	return "camouflage_copies"
}
