package repository

import (
	"flagtest_backend/internal/model"

	"gorm.io/gorm"
)

type InviteRepository struct {
	DB *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{DB: db}
}

func (r *InviteRepository) Create(invites []model.Invite) error {
	if len(invites) == 0 {
		return nil
	}
	return r.DB.Create(&invites).Error
}

func (r *InviteRepository) ListByEvaluation(evaluationID string) ([]model.Invite, error) {
	var invites []model.Invite
	err := r.DB.Where("evaluation_id = ?", evaluationID).Order("created_at ASC").Find(&invites).Error
	return invites, err
}

func (r *InviteRepository) Delete(evaluationID, inviteID string) error {
	return r.DB.Where("evaluation_id = ? AND id = ?", evaluationID, inviteID).
		Delete(&model.Invite{}).Error
}

type RosterRepository struct {
	DB *gorm.DB
}

func NewRosterRepository(db *gorm.DB) *RosterRepository {
	return &RosterRepository{DB: db}
}

// Upsert inserts or refreshes roster entries by (evaluation, code).
func (r *RosterRepository) Upsert(evaluationID string, entries []model.RosterEntry) error {
	for i := range entries {
		entries[i].EvaluationID = evaluationID

		var existing model.RosterEntry
		err := r.DB.First(&existing, "evaluation_id = ? AND code = ?", evaluationID, entries[i].Code).Error
		if err != nil && err != gorm.ErrRecordNotFound {
			return err
		}
		if existing.ID == "" {
			if err := r.DB.Create(&entries[i]).Error; err != nil {
				return err
			}
			continue
		}
		existing.Grade = entries[i].Grade
		existing.Section = entries[i].Section
		if err := r.DB.Save(&existing).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *RosterRepository) ListByEvaluation(evaluationID string) ([]model.RosterEntry, error) {
	var entries []model.RosterEntry
	err := r.DB.Where("evaluation_id = ?", evaluationID).Order("code ASC").Find(&entries).Error
	return entries, err
}
