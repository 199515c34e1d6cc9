package service

import (
	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"

	"gorm.io/gorm"
)

// ErrDuplicateAttemptKey is returned by CreateSession when the attempt key
// unique index rejects the row; the caller re-reads the winner. The gorm
// store surfaces this as the driver-translated duplicate-key sentinel.
var ErrDuplicateAttemptKey = gorm.ErrDuplicatedKey

// ParticipantStore is the persistence surface the participant core depends
// on. The gorm repository implements it; tests use an in-memory fake.
// Lookups return (nil, nil) for absent rows so callers can branch without
// driver error sentinels.
type ParticipantStore interface {
	// GetEvaluation preloads the evaluation's tests ordered by sort order
	// and hides soft-deleted rows.
	GetEvaluation(id string) (*model.Evaluation, error)

	GetInvite(id string) (*model.Invite, error)
	GetInviteByTokenHash(hash string) (*model.Invite, error)
	GetRosterEntry(id string) (*model.RosterEntry, error)
	GetRosterEntryByCode(evaluationID, code string) (*model.RosterEntry, error)
	GetTestDefinition(id string) (*model.TestDefinition, error)

	GetSession(id string) (*model.TestSession, error)
	GetSessionByAttemptKey(key string) (*model.TestSession, error)
	ListSessionsByAttemptKeys(keys []string) ([]model.TestSession, error)
	CreateSession(session *model.TestSession) error
	UpdateSession(session *model.TestSession) error
	ListScores(sessionID string) ([]model.Score, error)

	ListSlots(testDefinitionID string) ([]model.CamouflageSlot, error)
	GetMapping(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageMapping, error)
	GetCopy(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageCopy, error)

	// Transact runs fn atomically; per-session mutations (answer upsert,
	// score recompute, status update) must all go through one call.
	Transact(fn func(tx repository.SessionTx) error) error
}
