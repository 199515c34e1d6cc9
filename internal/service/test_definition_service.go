package service

import (
	"encoding/json"
	"errors"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/survey"
	"flagtest_backend/internal/util"

	"gorm.io/gorm"
)

type TestDefinitionService struct {
	TestDefRepo *repository.TestDefinitionRepository
	Registry    *survey.Registry
}

func NewTestDefinitionService(testDefRepo *repository.TestDefinitionRepository, registry *survey.Registry) *TestDefinitionService {
	return &TestDefinitionService{
		TestDefRepo: testDefRepo,
		Registry:    registry,
	}
}

type CreateTestDefinitionRequest struct {
	Slug       string          `json:"slug" binding:"required"`
	Title      string          `json:"title" binding:"required"`
	StyleID    string          `json:"styleId"`
	Definition json.RawMessage `json:"definition" binding:"required"`
}

// Create stores version 1 of a new slug, or the next version when the slug
// already exists. The document is validated before anything is written.
func (s *TestDefinitionService) Create(creatorID string, req *CreateTestDefinitionRequest) (*model.TestDefinition, error) {
	if _, err := survey.ParseDocument(req.Definition, s.Registry); err != nil {
		return nil, util.NewBadRequestError("Invalid test document: " + err.Error())
	}

	version := 1
	latest, err := s.TestDefRepo.FindLatestBySlug(req.Slug)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if latest != nil {
		version = latest.Version + 1
	}

	styleID := req.StyleID
	if styleID == "" {
		styleID = "classic"
	}

	definition := &model.TestDefinition{
		Slug:       req.Slug,
		Version:    version,
		Title:      req.Title,
		StyleID:    styleID,
		Definition: req.Definition,
		CreatorID:  creatorID,
	}
	if err := s.TestDefRepo.Create(definition); err != nil {
		return nil, err
	}
	return definition, nil
}

func (s *TestDefinitionService) Get(id string) (*model.TestDefinition, error) {
	definition, err := s.TestDefRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Test definition not found")
		}
		return nil, err
	}
	return definition, nil
}

func (s *TestDefinitionService) List(page, limit int) ([]model.TestDefinition, int64, error) {
	return s.TestDefRepo.List(page, limit)
}

type UpdateTestDefinitionRequest struct {
	Title      *string         `json:"title"`
	StyleID    *string         `json:"styleId"`
	Definition json.RawMessage `json:"definition"`
}

// Update modifies an unpublished draft. Published definitions are immutable;
// changes go into a new version via Create.
func (s *TestDefinitionService) Update(id string, req *UpdateTestDefinitionRequest) (*model.TestDefinition, error) {
	definition, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if definition.IsPublished {
		return nil, util.NewConflictError("Published test definitions are immutable")
	}

	if req.Title != nil {
		definition.Title = *req.Title
	}
	if req.StyleID != nil {
		definition.StyleID = *req.StyleID
	}
	if len(req.Definition) > 0 {
		if _, err := survey.ParseDocument(req.Definition, s.Registry); err != nil {
			return nil, util.NewBadRequestError("Invalid test document: " + err.Error())
		}
		definition.Definition = req.Definition
	}

	if err := s.TestDefRepo.Update(definition); err != nil {
		return nil, err
	}
	return definition, nil
}

// Publish freezes the definition so evaluations can attach it.
func (s *TestDefinitionService) Publish(id string) (*model.TestDefinition, error) {
	definition, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if definition.IsPublished {
		return definition, nil
	}

	if _, err := survey.ParseDocument(definition.Definition, s.Registry); err != nil {
		return nil, util.NewConflictError("Cannot publish an invalid document: " + err.Error())
	}

	now := time.Now()
	definition.IsPublished = true
	definition.PublishedAt = &now
	if err := s.TestDefRepo.Update(definition); err != nil {
		return nil, err
	}
	return definition, nil
}
