package repository

import (
	"errors"

	"flagtest_backend/internal/model"

	"gorm.io/gorm"
)

// SessionTx is the write surface available inside a Transact closure.
type SessionTx interface {
	UpsertAnswer(answer *model.Answer) error
	ListAnswers(sessionID string) ([]model.Answer, error)
	ReplaceScores(sessionID string, totals map[string]float64) error
	DeleteAnswers(sessionID string) error
	DeleteScores(sessionID string) error
	UpdateSession(session *model.TestSession) error
	ListScores(sessionID string) ([]model.Score, error)
}

// ParticipantRepository backs the participant core (join, answers, scoring,
// progression, camouflage resolution) with gorm. Absent rows come back as
// (nil, nil); the attempt-key race is resolved by the unique index.
type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) GetEvaluation(id string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := r.DB.
		Preload("Tests", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&evaluation, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *ParticipantRepository) GetInvite(id string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.DB.First(&invite, "id = ?", id).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &invite, nil
}

func (r *ParticipantRepository) GetInviteByTokenHash(hash string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.DB.First(&invite, "token_hash = ?", hash).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &invite, nil
}

func (r *ParticipantRepository) GetRosterEntry(id string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	if err := r.DB.First(&entry, "id = ?", id).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &entry, nil
}

func (r *ParticipantRepository) GetRosterEntryByCode(evaluationID, code string) (*model.RosterEntry, error) {
	var entry model.RosterEntry
	err := r.DB.First(&entry, "evaluation_id = ? AND code = ?", evaluationID, code).Error
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	return &entry, nil
}

func (r *ParticipantRepository) GetTestDefinition(id string) (*model.TestDefinition, error) {
	var definition model.TestDefinition
	if err := r.DB.First(&definition, "id = ?", id).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &definition, nil
}

func (r *ParticipantRepository) GetSession(id string) (*model.TestSession, error) {
	var session model.TestSession
	if err := r.DB.First(&session, "id = ?", id).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &session, nil
}

func (r *ParticipantRepository) GetSessionByAttemptKey(key string) (*model.TestSession, error) {
	var session model.TestSession
	if err := r.DB.First(&session, "attempt_key = ?", key).Error; err != nil {
		return nil, ignoreNotFound(err)
	}
	return &session, nil
}

func (r *ParticipantRepository) ListSessionsByAttemptKeys(keys []string) ([]model.TestSession, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var sessions []model.TestSession
	err := r.DB.Where("attempt_key IN ?", keys).Find(&sessions).Error
	return sessions, err
}

// CreateSession surfaces an attempt-key collision as gorm.ErrDuplicatedKey;
// the caller re-reads the winning row.
func (r *ParticipantRepository) CreateSession(session *model.TestSession) error {
	return r.DB.Create(session).Error
}

func (r *ParticipantRepository) UpdateSession(session *model.TestSession) error {
	return r.DB.Save(session).Error
}

func (r *ParticipantRepository) ListScores(sessionID string) ([]model.Score, error) {
	var scores []model.Score
	err := r.DB.Where("session_id = ?", sessionID).Order("dimension ASC").Find(&scores).Error
	return scores, err
}

func (r *ParticipantRepository) ListSlots(testDefinitionID string) ([]model.CamouflageSlot, error) {
	var slots []model.CamouflageSlot
	err := r.DB.Where("test_definition_id = ?", testDefinitionID).Order("`rank` ASC").Find(&slots).Error
	return slots, err
}

func (r *ParticipantRepository) GetMapping(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageMapping, error) {
	var mapping model.CamouflageMapping
	err := r.DB.Preload("Character").
		First(&mapping, "test_definition_id = ? AND camouflage_set_id = ? AND slot_key = ?",
			testDefinitionID, camouflageSetID, slotKey).Error
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	return &mapping, nil
}

func (r *ParticipantRepository) GetCopy(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageCopy, error) {
	var copyRow model.CamouflageCopy
	err := r.DB.First(&copyRow, "test_definition_id = ? AND camouflage_set_id = ? AND slot_key = ?",
		testDefinitionID, camouflageSetID, slotKey).Error
	if err != nil {
		return nil, ignoreNotFound(err)
	}
	return &copyRow, nil
}

func (r *ParticipantRepository) Transact(fn func(tx SessionTx) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&participantTx{db: tx})
	})
}

type participantTx struct {
	db *gorm.DB
}

func (t *participantTx) UpsertAnswer(answer *model.Answer) error {
	var existing model.Answer
	err := t.db.First(&existing, "session_id = ? AND question_id = ?", answer.SessionID, answer.QuestionID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return t.db.Create(answer).Error
	}
	existing.Payload = answer.Payload
	return t.db.Save(&existing).Error
}

func (t *participantTx) ListAnswers(sessionID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := t.db.Where("session_id = ?", sessionID).Find(&answers).Error
	return answers, err
}

// ReplaceScores prunes with hard deletes. Score rows are derived state; a
// soft-deleted tombstone would keep occupying the (session, dimension)
// unique slot and break a later recompute of the same dimension.
func (t *participantTx) ReplaceScores(sessionID string, totals map[string]float64) error {
	if len(totals) == 0 {
		return t.db.Unscoped().Where("session_id = ?", sessionID).Delete(&model.Score{}).Error
	}

	dimensions := make([]string, 0, len(totals))
	for dimension, value := range totals {
		dimensions = append(dimensions, dimension)

		var existing model.Score
		err := t.db.First(&existing, "session_id = ? AND dimension = ?", sessionID, dimension).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := t.db.Create(&model.Score{SessionID: sessionID, Dimension: dimension, Value: value}).Error; err != nil {
				return err
			}
			continue
		}
		existing.Value = value
		if err := t.db.Save(&existing).Error; err != nil {
			return err
		}
	}

	return t.db.Unscoped().Where("session_id = ? AND dimension NOT IN ?", sessionID, dimensions).
		Delete(&model.Score{}).Error
}

func (t *participantTx) DeleteAnswers(sessionID string) error {
	return t.db.Unscoped().Where("session_id = ?", sessionID).Delete(&model.Answer{}).Error
}

func (t *participantTx) DeleteScores(sessionID string) error {
	return t.db.Unscoped().Where("session_id = ?", sessionID).Delete(&model.Score{}).Error
}

func (t *participantTx) UpdateSession(session *model.TestSession) error {
	return t.db.Save(session).Error
}

func (t *participantTx) ListScores(sessionID string) ([]model.Score, error) {
	var scores []model.Score
	err := t.db.Where("session_id = ?", sessionID).Order("dimension ASC").Find(&scores).Error
	return scores, err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
