package repository

import (
	"flagtest_backend/internal/model"

	"gorm.io/gorm"
)

type TestDefinitionRepository struct {
	DB *gorm.DB
}

func NewTestDefinitionRepository(db *gorm.DB) *TestDefinitionRepository {
	return &TestDefinitionRepository{DB: db}
}

func (r *TestDefinitionRepository) Create(definition *model.TestDefinition) error {
	return r.DB.Create(definition).Error
}

func (r *TestDefinitionRepository) Update(definition *model.TestDefinition) error {
	return r.DB.Save(definition).Error
}

func (r *TestDefinitionRepository) FindByID(id string) (*model.TestDefinition, error) {
	var definition model.TestDefinition
	if err := r.DB.First(&definition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &definition, nil
}

// FindLatestBySlug returns the highest version carrying the slug.
func (r *TestDefinitionRepository) FindLatestBySlug(slug string) (*model.TestDefinition, error) {
	var definition model.TestDefinition
	err := r.DB.Where("slug = ?", slug).Order("version DESC").First(&definition).Error
	if err != nil {
		return nil, err
	}
	return &definition, nil
}

func (r *TestDefinitionRepository) List(page, limit int) ([]model.TestDefinition, int64, error) {
	var definitions []model.TestDefinition
	var total int64

	if err := r.DB.Model(&model.TestDefinition{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.DB.Order("slug ASC, version DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&definitions).Error
	return definitions, total, err
}
