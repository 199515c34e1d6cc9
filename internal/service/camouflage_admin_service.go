package service

import (
	"encoding/json"
	"errors"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/util"

	"gorm.io/gorm"
)

const (
	minSlotCount = 2
	maxSlotCount = 5
)

// CamouflageAdminService manages sets, characters, per-test slot
// configuration and the mapping/copy rows the participant side resolves.
type CamouflageAdminService struct {
	CamoRepo    *repository.CamouflageRepository
	TestDefRepo *repository.TestDefinitionRepository
}

func NewCamouflageAdminService(camoRepo *repository.CamouflageRepository, testDefRepo *repository.TestDefinitionRepository) *CamouflageAdminService {
	return &CamouflageAdminService{
		CamoRepo:    camoRepo,
		TestDefRepo: testDefRepo,
	}
}

type CamouflageSetRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *CamouflageAdminService) CreateSet(req *CamouflageSetRequest) (*model.CamouflageSet, error) {
	set := &model.CamouflageSet{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.CamoRepo.CreateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

func (s *CamouflageAdminService) GetSet(id string) (*model.CamouflageSet, error) {
	set, err := s.CamoRepo.FindSet(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Camouflage set not found")
		}
		return nil, err
	}
	return set, nil
}

func (s *CamouflageAdminService) ListSets() ([]model.CamouflageSet, error) {
	return s.CamoRepo.ListSets()
}

func (s *CamouflageAdminService) UpdateSet(id string, req *CamouflageSetRequest) (*model.CamouflageSet, error) {
	set, err := s.GetSet(id)
	if err != nil {
		return nil, err
	}
	set.Name = req.Name
	set.Description = req.Description
	if err := s.CamoRepo.UpdateSet(set); err != nil {
		return nil, err
	}
	return set, nil
}

type CamouflageCharacterRequest struct {
	Title    string `json:"title" binding:"required"`
	ImageURL string `json:"imageUrl"`
}

func (s *CamouflageAdminService) CreateCharacter(setID string, req *CamouflageCharacterRequest) (*model.CamouflageCharacter, error) {
	if _, err := s.GetSet(setID); err != nil {
		return nil, err
	}
	character := &model.CamouflageCharacter{
		SetID:    setID,
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}
	if err := s.CamoRepo.CreateCharacter(character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CamouflageAdminService) UpdateCharacter(setID, characterID string, req *CamouflageCharacterRequest) (*model.CamouflageCharacter, error) {
	character, err := s.CamoRepo.FindCharacter(characterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Character not found")
		}
		return nil, err
	}
	if character.SetID != setID {
		return nil, util.NewNotFoundError("Character not found")
	}
	character.Title = req.Title
	character.ImageURL = req.ImageURL
	if err := s.CamoRepo.UpdateCharacter(character); err != nil {
		return nil, err
	}
	return character, nil
}

func (s *CamouflageAdminService) ListCharacters(setID string) ([]model.CamouflageCharacter, error) {
	if _, err := s.GetSet(setID); err != nil {
		return nil, err
	}
	return s.CamoRepo.ListCharacters(setID)
}

type SlotInput struct {
	Key  string `json:"key" binding:"required"`
	Rank int    `json:"rank"`
}

// ReplaceSlots swaps a test's slot configuration. Between 2 and 5 slots are
// allowed, keys must be unique, and ranks are rewritten from the given order.
func (s *CamouflageAdminService) ReplaceSlots(testDefinitionID string, inputs []SlotInput) ([]model.CamouflageSlot, error) {
	if len(inputs) < minSlotCount || len(inputs) > maxSlotCount {
		return nil, util.NewBadRequestError("A test carries between 2 and 5 slots")
	}
	if _, err := s.TestDefRepo.FindByID(testDefinitionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Test definition not found")
		}
		return nil, err
	}

	seen := make(map[string]bool, len(inputs))
	slots := make([]model.CamouflageSlot, len(inputs))
	for i, in := range inputs {
		if in.Key == "" {
			return nil, util.NewBadRequestError("Slot keys must be non-empty")
		}
		if seen[in.Key] {
			return nil, util.NewBadRequestError("Duplicate slot key: " + in.Key)
		}
		seen[in.Key] = true
		slots[i] = model.CamouflageSlot{Key: in.Key, Rank: i}
	}

	if err := s.CamoRepo.ReplaceSlots(testDefinitionID, slots); err != nil {
		return nil, err
	}
	return s.CamoRepo.ListSlots(testDefinitionID)
}

func (s *CamouflageAdminService) ListSlots(testDefinitionID string) ([]model.CamouflageSlot, error) {
	return s.CamoRepo.ListSlots(testDefinitionID)
}

type MappingRequest struct {
	SlotKey     string `json:"slotKey" binding:"required"`
	CharacterID string `json:"characterId" binding:"required"`
}

// UpsertMapping assigns a character to one (test, set, slot) triple. The
// character must belong to the target set and the slot must exist on the
// test.
func (s *CamouflageAdminService) UpsertMapping(testDefinitionID, setID string, req *MappingRequest) (*model.CamouflageMapping, error) {
	if err := s.requireSlot(testDefinitionID, req.SlotKey); err != nil {
		return nil, err
	}
	character, err := s.CamoRepo.FindCharacter(req.CharacterID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Character not found")
		}
		return nil, err
	}
	if character.SetID != setID {
		return nil, util.NewBadRequestError("Character does not belong to the set")
	}

	mapping := &model.CamouflageMapping{
		TestDefinitionID: testDefinitionID,
		CamouflageSetID:  setID,
		SlotKey:          req.SlotKey,
		CharacterID:      req.CharacterID,
	}
	if err := s.CamoRepo.UpsertMapping(mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

type CopyRequest struct {
	SlotKey     string          `json:"slotKey" binding:"required"`
	Headline    string          `json:"headline" binding:"required"`
	Description string          `json:"description"`
	Tips        json.RawMessage `json:"tips"`
}

func (s *CamouflageAdminService) UpsertCopy(testDefinitionID, setID string, req *CopyRequest) (*model.CamouflageCopy, error) {
	if err := s.requireSlot(testDefinitionID, req.SlotKey); err != nil {
		return nil, err
	}
	if _, err := s.GetSet(setID); err != nil {
		return nil, err
	}

	copyRow := &model.CamouflageCopy{
		TestDefinitionID: testDefinitionID,
		CamouflageSetID:  setID,
		SlotKey:          req.SlotKey,
		Headline:         req.Headline,
		Description:      req.Description,
		Tips:             req.Tips,
	}
	if err := s.CamoRepo.UpsertCopy(copyRow); err != nil {
		return nil, err
	}
	return copyRow, nil
}

func (s *CamouflageAdminService) requireSlot(testDefinitionID, slotKey string) error {
	slots, err := s.CamoRepo.ListSlots(testDefinitionID)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Key == slotKey {
			return nil
		}
	}
	return util.NewNotFoundError("Slot not configured for this test")
}
