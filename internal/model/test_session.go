package model

import (
	"encoding/json"
	"time"
)

type SessionStatus string

const (
	SessionCreated   SessionStatus = "CREATED"
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// TestSession is one participant's attempt at one test definition within one
// evaluation. AttemptKey is the idempotency anchor: its unique index is what
// guarantees at most one session per (evaluation, test, participant).
//
// swagger:model TestSession
type TestSession struct {
	UUIDBase
	AttemptKey           string        `gorm:"size:255;not null;uniqueIndex" json:"-"`
	EvaluationID         string        `gorm:"index;type:varchar(36)" json:"evaluationId"`
	TestDefinitionID     string        `gorm:"index;type:varchar(36)" json:"testDefinitionId"`
	InviteID             *string       `gorm:"index;type:varchar(36)" json:"inviteId,omitempty"`
	RosterEntryID        *string       `gorm:"index;type:varchar(36)" json:"rosterEntryId,omitempty"`
	Status               SessionStatus `gorm:"size:20;default:'CREATED';index" json:"status"`
	ParticipantTokenHash string        `gorm:"size:64;not null" json:"-"`
	StartedAt            *time.Time    `json:"startedAt,omitempty"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	LastSeenAt           time.Time     `json:"lastSeenAt"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}

// Answerable reports whether the session still accepts answer writes.
func (s *TestSession) Answerable() bool {
	return s.Status == SessionCreated || s.Status == SessionActive
}

// Answer is one participant response to one item, unique per
// (session, question) and overwritten on resubmit until completion.
type Answer struct {
	UUIDBase
	SessionID  string          `gorm:"type:varchar(36);uniqueIndex:idx_session_question,priority:1" json:"sessionId"`
	QuestionID string          `gorm:"size:100;not null;uniqueIndex:idx_session_question,priority:2" json:"questionId"`
	Payload    json.RawMessage `gorm:"type:json;not null" json:"payload"`
}

func (Answer) TableName() string {
	return "answers"
}

// Score is one (session, dimension) total, always derived by replaying the
// session's answers through the definition's scoring rules.
type Score struct {
	UUIDBase
	SessionID string  `gorm:"type:varchar(36);uniqueIndex:idx_session_dimension,priority:1" json:"sessionId"`
	Dimension string  `gorm:"size:100;not null;uniqueIndex:idx_session_dimension,priority:2" json:"dimension"`
	Value     float64 `gorm:"not null;default:0" json:"value"`
}

func (Score) TableName() string {
	return "scores"
}
