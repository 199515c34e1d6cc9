package repository

import (
	"flagtest_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) *EvaluationRepository {
	return &EvaluationRepository{DB: db}
}

func (r *EvaluationRepository) Create(evaluation *model.Evaluation) error {
	return r.DB.Create(evaluation).Error
}

func (r *EvaluationRepository) Update(evaluation *model.Evaluation) error {
	return r.DB.Save(evaluation).Error
}

func (r *EvaluationRepository) FindByID(id string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	err := r.DB.
		Preload("Tests", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&evaluation, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &evaluation, nil
}

// FindByIDIncludingDeleted is used by restore.
func (r *EvaluationRepository) FindByIDIncludingDeleted(id string) (*model.Evaluation, error) {
	var evaluation model.Evaluation
	if err := r.DB.Unscoped().First(&evaluation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &evaluation, nil
}

func (r *EvaluationRepository) ListByOwner(ownerID string, page, limit int) ([]model.Evaluation, int64, error) {
	var evaluations []model.Evaluation
	var total int64

	query := r.DB.Model(&model.Evaluation{}).Where("owner_id = ?", ownerID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&evaluations).Error
	return evaluations, total, err
}

func (r *EvaluationRepository) SoftDelete(id string) error {
	return r.DB.Delete(&model.Evaluation{}, "id = ?", id).Error
}

func (r *EvaluationRepository) Restore(id string) error {
	return r.DB.Unscoped().Model(&model.Evaluation{}).
		Where("id = ?", id).Update("deleted_at", nil).Error
}

func (r *EvaluationRepository) AddTest(et *model.EvaluationTest) error {
	return r.DB.Create(et).Error
}

func (r *EvaluationRepository) UpdateTest(et *model.EvaluationTest) error {
	return r.DB.Save(et).Error
}

// RemoveTest hard-deletes the join row. A tombstone would keep holding the
// (evaluation, sort_order) unique slot and block re-attaching at that
// position.
func (r *EvaluationRepository) RemoveTest(evaluationID, evaluationTestID string) error {
	return r.DB.Unscoped().Where("evaluation_id = ? AND id = ?", evaluationID, evaluationTestID).
		Delete(&model.EvaluationTest{}).Error
}

func (r *EvaluationRepository) FindTest(evaluationID, evaluationTestID string) (*model.EvaluationTest, error) {
	var et model.EvaluationTest
	err := r.DB.First(&et, "evaluation_id = ? AND id = ?", evaluationID, evaluationTestID).Error
	if err != nil {
		return nil, err
	}
	return &et, nil
}

func (r *EvaluationRepository) MaxSortOrder(evaluationID string) (int, error) {
	var max *int
	err := r.DB.Model(&model.EvaluationTest{}).
		Where("evaluation_id = ?", evaluationID).
		Select("MAX(sort_order)").Scan(&max).Error
	if err != nil || max == nil {
		return 0, err
	}
	return *max, nil
}
