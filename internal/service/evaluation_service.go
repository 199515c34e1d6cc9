package service

import (
	"errors"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/util"

	"gorm.io/gorm"
)

type EvaluationService struct {
	EvalRepo    *repository.EvaluationRepository
	InviteRepo  *repository.InviteRepository
	RosterRepo  *repository.RosterRepository
	TestDefRepo *repository.TestDefinitionRepository
	tokenSecret string
}

func NewEvaluationService(
	evalRepo *repository.EvaluationRepository,
	inviteRepo *repository.InviteRepository,
	rosterRepo *repository.RosterRepository,
	testDefRepo *repository.TestDefinitionRepository,
	tokenSecret string,
) *EvaluationService {
	return &EvaluationService{
		EvalRepo:    evalRepo,
		InviteRepo:  inviteRepo,
		RosterRepo:  rosterRepo,
		TestDefRepo: testDefRepo,
		tokenSecret: tokenSecret,
	}
}

type CreateEvaluationRequest struct {
	Name          string             `json:"name" binding:"required"`
	FeedbackMode  model.FeedbackMode `json:"feedbackMode"`
	AllowOpenJoin bool               `json:"allowOpenJoin"`
}

func (s *EvaluationService) Create(ownerID string, req *CreateEvaluationRequest) (*model.Evaluation, error) {
	mode := req.FeedbackMode
	if mode == "" {
		mode = model.FeedbackThankYouOnly
	}
	if mode != model.FeedbackThankYouOnly && mode != model.FeedbackCamouflage {
		return nil, util.NewBadRequestError("Unknown feedback mode")
	}

	evaluation := &model.Evaluation{
		Name:          req.Name,
		Status:        model.EvaluationDraft,
		FeedbackMode:  mode,
		AllowOpenJoin: req.AllowOpenJoin,
		OwnerID:       ownerID,
	}
	if err := s.EvalRepo.Create(evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// Get returns the evaluation with its ordered tests, enforcing ownership.
func (s *EvaluationService) Get(ownerID, evaluationID string) (*model.Evaluation, error) {
	evaluation, err := s.EvalRepo.FindByID(evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Evaluation not found")
		}
		return nil, err
	}
	if evaluation.OwnerID != ownerID {
		return nil, util.NewNotFoundError("Evaluation not found")
	}
	return evaluation, nil
}

func (s *EvaluationService) List(ownerID string, page, limit int) ([]model.Evaluation, int64, error) {
	return s.EvalRepo.ListByOwner(ownerID, page, limit)
}

type UpdateEvaluationRequest struct {
	Name          *string             `json:"name"`
	FeedbackMode  *model.FeedbackMode `json:"feedbackMode"`
	AllowOpenJoin *bool               `json:"allowOpenJoin"`
}

func (s *EvaluationService) Update(ownerID, evaluationID string, req *UpdateEvaluationRequest) (*model.Evaluation, error) {
	evaluation, err := s.Get(ownerID, evaluationID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		evaluation.Name = *req.Name
	}
	if req.FeedbackMode != nil {
		if *req.FeedbackMode != model.FeedbackThankYouOnly && *req.FeedbackMode != model.FeedbackCamouflage {
			return nil, util.NewBadRequestError("Unknown feedback mode")
		}
		evaluation.FeedbackMode = *req.FeedbackMode
	}
	if req.AllowOpenJoin != nil {
		evaluation.AllowOpenJoin = *req.AllowOpenJoin
	}

	if err := s.EvalRepo.Update(evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

// SetStatus moves the evaluation to any of the three lifecycle states;
// every transition among them is permitted, so a closed evaluation can
// reopen and an open one can retreat to draft. Opening requires at least
// one attached test.
func (s *EvaluationService) SetStatus(ownerID, evaluationID string, status model.EvaluationStatus) (*model.Evaluation, error) {
	evaluation, err := s.Get(ownerID, evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation.Status == status {
		return evaluation, nil
	}
	if err := applyStatusTransition(evaluation, status); err != nil {
		return nil, err
	}

	if err := s.EvalRepo.Update(evaluation); err != nil {
		return nil, err
	}
	return evaluation, nil
}

func applyStatusTransition(evaluation *model.Evaluation, status model.EvaluationStatus) error {
	if evaluation.Status == status {
		return nil
	}
	switch status {
	case model.EvaluationOpen:
		if len(evaluation.Tests) == 0 {
			return util.NewConflictError("Cannot open an evaluation with no tests")
		}
		evaluation.Status = model.EvaluationOpen
		evaluation.ClosedAt = nil
	case model.EvaluationClosed:
		now := time.Now()
		evaluation.Status = model.EvaluationClosed
		evaluation.ClosedAt = &now
	case model.EvaluationDraft:
		evaluation.Status = model.EvaluationDraft
		evaluation.ClosedAt = nil
	default:
		return util.NewBadRequestError("Unknown status")
	}
	return nil
}

func (s *EvaluationService) Delete(ownerID, evaluationID string) error {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return err
	}
	return s.EvalRepo.SoftDelete(evaluationID)
}

func (s *EvaluationService) Restore(ownerID, evaluationID string) (*model.Evaluation, error) {
	evaluation, err := s.EvalRepo.FindByIDIncludingDeleted(evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Evaluation not found")
		}
		return nil, err
	}
	if evaluation.OwnerID != ownerID {
		return nil, util.NewNotFoundError("Evaluation not found")
	}
	if !evaluation.DeletedAt.Valid {
		return evaluation, nil
	}
	if err := s.EvalRepo.Restore(evaluationID); err != nil {
		return nil, err
	}
	return s.EvalRepo.FindByID(evaluationID)
}

type AttachTestRequest struct {
	TestDefinitionID string  `json:"testDefinitionId" binding:"required"`
	CamouflageSetID  *string `json:"camouflageSetId"`
}

// AttachTest appends a test definition at the end of the progression order.
func (s *EvaluationService) AttachTest(ownerID, evaluationID string, req *AttachTestRequest) (*model.EvaluationTest, error) {
	evaluation, err := s.Get(ownerID, evaluationID)
	if err != nil {
		return nil, err
	}

	def, err := s.TestDefRepo.FindByID(req.TestDefinitionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Test definition not found")
		}
		return nil, err
	}
	if !def.IsPublished {
		return nil, util.NewConflictError("Only published test definitions can be attached")
	}

	maxOrder, err := s.EvalRepo.MaxSortOrder(evaluation.ID)
	if err != nil {
		return nil, err
	}

	et := &model.EvaluationTest{
		EvaluationID:     evaluation.ID,
		TestDefinitionID: def.ID,
		SortOrder:        maxOrder + 1,
		CamouflageSetID:  req.CamouflageSetID,
	}
	if err := s.EvalRepo.AddTest(et); err != nil {
		return nil, err
	}
	return et, nil
}

type UpdateTestRequest struct {
	SortOrder       *int    `json:"sortOrder"`
	CamouflageSetID *string `json:"camouflageSetId"`
}

func (s *EvaluationService) UpdateTest(ownerID, evaluationID, evaluationTestID string, req *UpdateTestRequest) (*model.EvaluationTest, error) {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return nil, err
	}

	et, err := s.EvalRepo.FindTest(evaluationID, evaluationTestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.NewNotFoundError("Test not found in evaluation")
		}
		return nil, err
	}

	if req.SortOrder != nil {
		et.SortOrder = *req.SortOrder
	}
	if req.CamouflageSetID != nil {
		et.CamouflageSetID = req.CamouflageSetID
	}

	if err := s.EvalRepo.UpdateTest(et); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.NewConflictError("Sort order already in use")
		}
		return nil, err
	}
	return et, nil
}

func (s *EvaluationService) DetachTest(ownerID, evaluationID, evaluationTestID string) error {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return err
	}
	if _, err := s.EvalRepo.FindTest(evaluationID, evaluationTestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.NewNotFoundError("Test not found in evaluation")
		}
		return err
	}
	return s.EvalRepo.RemoveTest(evaluationID, evaluationTestID)
}

// GeneratedInvite carries the raw token back to the caller exactly once.
type GeneratedInvite struct {
	ID    string `json:"id"`
	Alias string `json:"alias"`
	Token string `json:"token"`
}

// GenerateInvites mints count invite tokens for the evaluation. Raw tokens
// appear only in the return value; the database keeps hashes.
func (s *EvaluationService) GenerateInvites(ownerID, evaluationID string, count int, aliases []string) ([]GeneratedInvite, error) {
	if count < 1 || count > 500 {
		return nil, util.NewBadRequestError("Invite count must be between 1 and 500")
	}
	evaluation, err := s.Get(ownerID, evaluationID)
	if err != nil {
		return nil, err
	}

	invites := make([]model.Invite, count)
	tokens := make([]string, count)
	for i := 0; i < count; i++ {
		token, err := util.GenerateToken()
		if err != nil {
			return nil, err
		}
		tokens[i] = token
		invites[i] = model.Invite{
			EvaluationID: evaluation.ID,
			TokenHash:    util.HashToken(token, s.tokenSecret),
		}
		if i < len(aliases) {
			invites[i].Alias = aliases[i]
		}
	}

	if err := s.InviteRepo.Create(invites); err != nil {
		return nil, err
	}

	out := make([]GeneratedInvite, count)
	for i := range invites {
		out[i] = GeneratedInvite{ID: invites[i].ID, Alias: invites[i].Alias, Token: tokens[i]}
	}
	return out, nil
}

func (s *EvaluationService) ListInvites(ownerID, evaluationID string) ([]model.Invite, error) {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return nil, err
	}
	return s.InviteRepo.ListByEvaluation(evaluationID)
}

func (s *EvaluationService) DeleteInvite(ownerID, evaluationID, inviteID string) error {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return err
	}
	return s.InviteRepo.Delete(evaluationID, inviteID)
}

type RosterEntryInput struct {
	Code    string `json:"code" binding:"required"`
	Grade   string `json:"grade"`
	Section string `json:"section"`
}

// UpsertRoster inserts or refreshes roster entries keyed by student code.
func (s *EvaluationService) UpsertRoster(ownerID, evaluationID string, inputs []RosterEntryInput) ([]model.RosterEntry, error) {
	if len(inputs) == 0 {
		return nil, util.NewBadRequestError("Roster entries are required")
	}
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(inputs))
	entries := make([]model.RosterEntry, 0, len(inputs))
	for _, in := range inputs {
		if in.Code == "" {
			return nil, util.NewBadRequestError("Roster codes must be non-empty")
		}
		if seen[in.Code] {
			return nil, util.NewBadRequestError("Duplicate roster code: " + in.Code)
		}
		seen[in.Code] = true
		entries = append(entries, model.RosterEntry{
			Code:    in.Code,
			Grade:   in.Grade,
			Section: in.Section,
		})
	}

	if err := s.RosterRepo.Upsert(evaluationID, entries); err != nil {
		return nil, err
	}
	return s.RosterRepo.ListByEvaluation(evaluationID)
}

func (s *EvaluationService) ListRoster(ownerID, evaluationID string) ([]model.RosterEntry, error) {
	if _, err := s.Get(ownerID, evaluationID); err != nil {
		return nil, err
	}
	return s.RosterRepo.ListByEvaluation(evaluationID)
}
