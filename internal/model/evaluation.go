package model

import "time"

type EvaluationStatus string

const (
	EvaluationDraft  EvaluationStatus = "DRAFT"
	EvaluationOpen   EvaluationStatus = "OPEN"
	EvaluationClosed EvaluationStatus = "CLOSED"
)

type FeedbackMode string

const (
	FeedbackThankYouOnly FeedbackMode = "THANK_YOU_ONLY"
	FeedbackCamouflage   FeedbackMode = "CAMOUFLAGE"
)

// swagger:model Evaluation
type Evaluation struct {
	UUIDBase
	Name          string           `gorm:"size:255;not null" json:"name"`
	Status        EvaluationStatus `gorm:"size:20;default:'DRAFT';index" json:"status"`
	FeedbackMode  FeedbackMode     `gorm:"size:30;default:'THANK_YOU_ONLY'" json:"feedbackMode"`
	AllowOpenJoin bool             `gorm:"default:false" json:"allowOpenJoin"`
	ClosedAt      *time.Time       `json:"closedAt,omitempty"`
	OwnerID       string           `gorm:"index;type:varchar(36)" json:"ownerId"`
	Tests         []EvaluationTest `gorm:"foreignKey:EvaluationID" json:"tests,omitempty"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

// IsClosed reports whether participants may no longer start or continue
// attempts.
func (e *Evaluation) IsClosed() bool {
	return e.Status == EvaluationClosed
}

// EvaluationTest places a test definition into an evaluation at an ordinal
// position; SortOrder drives the progression order and is unique per
// evaluation. CamouflageSetID optionally pins the set used for completion
// content.
type EvaluationTest struct {
	UUIDBase
	EvaluationID     string  `gorm:"index;type:varchar(36);uniqueIndex:idx_eval_sort,priority:1" json:"evaluationId"`
	TestDefinitionID string  `gorm:"index;type:varchar(36)" json:"testDefinitionId"`
	SortOrder        int     `gorm:"uniqueIndex:idx_eval_sort,priority:2" json:"sortOrder"`
	CamouflageSetID  *string `gorm:"type:varchar(36)" json:"camouflageSetId,omitempty"`
}

func (EvaluationTest) TableName() string {
	return "evaluation_tests"
}
