package model

// Invite is a per-person join credential for one evaluation. Only the token
// hash is persisted; the raw token leaves the server once, in the generation
// response.
type Invite struct {
	UUIDBase
	EvaluationID string `gorm:"index;type:varchar(36)" json:"evaluationId"`
	TokenHash    string `gorm:"size:64;uniqueIndex" json:"-"`
	Alias        string `gorm:"size:100" json:"alias"`
}

func (Invite) TableName() string {
	return "invites"
}

// RosterEntry is a pre-registered participant (student code) scoped to one
// evaluation, used in lieu of per-person invite links.
type RosterEntry struct {
	UUIDBase
	EvaluationID string `gorm:"type:varchar(36);uniqueIndex:idx_eval_code,priority:1" json:"evaluationId"`
	Code         string `gorm:"size:50;not null;uniqueIndex:idx_eval_code,priority:2" json:"code"`
	Grade        string `gorm:"size:50" json:"grade"`
	Section      string `gorm:"size:50" json:"section"`
}

func (RosterEntry) TableName() string {
	return "roster_entries"
}
