package repository

import (
	"flagtest_backend/internal/model"

	"gorm.io/gorm"
)

type CamouflageRepository struct {
	DB *gorm.DB
}

func NewCamouflageRepository(db *gorm.DB) *CamouflageRepository {
	return &CamouflageRepository{DB: db}
}

func (r *CamouflageRepository) CreateSet(set *model.CamouflageSet) error {
	return r.DB.Create(set).Error
}

func (r *CamouflageRepository) UpdateSet(set *model.CamouflageSet) error {
	return r.DB.Save(set).Error
}

func (r *CamouflageRepository) FindSet(id string) (*model.CamouflageSet, error) {
	var set model.CamouflageSet
	if err := r.DB.First(&set, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *CamouflageRepository) ListSets() ([]model.CamouflageSet, error) {
	var sets []model.CamouflageSet
	err := r.DB.Order("name ASC").Find(&sets).Error
	return sets, err
}

func (r *CamouflageRepository) CreateCharacter(character *model.CamouflageCharacter) error {
	return r.DB.Create(character).Error
}

func (r *CamouflageRepository) UpdateCharacter(character *model.CamouflageCharacter) error {
	return r.DB.Save(character).Error
}

func (r *CamouflageRepository) FindCharacter(id string) (*model.CamouflageCharacter, error) {
	var character model.CamouflageCharacter
	if err := r.DB.First(&character, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &character, nil
}

func (r *CamouflageRepository) ListCharacters(setID string) ([]model.CamouflageCharacter, error) {
	var characters []model.CamouflageCharacter
	err := r.DB.Where("set_id = ?", setID).Order("title ASC").Find(&characters).Error
	return characters, err
}

// ReplaceSlots swaps a test's slot configuration atomically.
func (r *CamouflageRepository) ReplaceSlots(testDefinitionID string, slots []model.CamouflageSlot) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("test_definition_id = ?", testDefinitionID).
			Delete(&model.CamouflageSlot{}).Error; err != nil {
			return err
		}
		for i := range slots {
			slots[i].TestDefinitionID = testDefinitionID
			if err := tx.Create(&slots[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CamouflageRepository) ListSlots(testDefinitionID string) ([]model.CamouflageSlot, error) {
	var slots []model.CamouflageSlot
	err := r.DB.Where("test_definition_id = ?", testDefinitionID).Order("`rank` ASC").Find(&slots).Error
	return slots, err
}

func (r *CamouflageRepository) UpsertMapping(mapping *model.CamouflageMapping) error {
	var existing model.CamouflageMapping
	err := r.DB.First(&existing, "test_definition_id = ? AND camouflage_set_id = ? AND slot_key = ?",
		mapping.TestDefinitionID, mapping.CamouflageSetID, mapping.SlotKey).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == "" {
		return r.DB.Create(mapping).Error
	}
	existing.CharacterID = mapping.CharacterID
	return r.DB.Save(&existing).Error
}

func (r *CamouflageRepository) UpsertCopy(copyRow *model.CamouflageCopy) error {
	var existing model.CamouflageCopy
	err := r.DB.First(&existing, "test_definition_id = ? AND camouflage_set_id = ? AND slot_key = ?",
		copyRow.TestDefinitionID, copyRow.CamouflageSetID, copyRow.SlotKey).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if existing.ID == "" {
		return r.DB.Create(copyRow).Error
	}
	existing.Headline = copyRow.Headline
	existing.Description = copyRow.Description
	existing.Tips = copyRow.Tips
	return r.DB.Save(&existing).Error
}
