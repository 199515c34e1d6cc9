package service

import (
	"sort"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/survey"
	"flagtest_backend/internal/util"
)

// DefaultSlotKey is the sentinel bucket used when a test has no slots
// configured.
const DefaultSlotKey = "LOW"

// CompletionContent is what a completed session reveals: the resolved slot,
// plus the character and copy when the evaluation runs in camouflage mode
// and the triple is fully configured.
type CompletionContent struct {
	SlotKey      string                     `json:"slotKey"`
	FeedbackMode model.FeedbackMode         `json:"feedbackMode"`
	Character    *model.CamouflageCharacter `json:"character,omitempty"`
	Copy         *model.CamouflageCopy      `json:"copy,omitempty"`
}

// CamouflageService resolves completed sessions into camouflage content.
type CamouflageService struct {
	Store    ParticipantStore
	Registry *survey.Registry
}

func NewCamouflageService(store ParticipantStore, registry *survey.Registry) *CamouflageService {
	return &CamouflageService{Store: store, Registry: registry}
}

// ComputeSlotKey buckets the primary dimension's score into the test's
// ranked slots. The primary dimension is the document's first declared
// dimension, falling back to the first scored one; its value defaults to 0,
// is clamped to [0,100], and equal-width buckets span that range with the
// top value landing in the last bucket. Deterministic and pure.
func ComputeSlotKey(doc *survey.Document, slots []model.CamouflageSlot, scores []model.Score) string {
	if len(slots) == 0 {
		return DefaultSlotKey
	}

	ordered := make([]model.CamouflageSlot, len(slots))
	copy(ordered, slots)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	primary := doc.PrimaryDimension()
	if primary == "" && len(scores) > 0 {
		primary = scores[0].Dimension
	}

	value := 0.0
	for _, score := range scores {
		if score.Dimension == primary {
			value = score.Value
			break
		}
	}
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}

	bucketSize := 100.0 / float64(len(ordered))
	index := int(value / bucketSize)
	if index >= len(ordered) {
		index = len(ordered) - 1
	}
	return ordered[index].Key
}

// ResolveContent looks up the character mapping and copy for one
// (test, set, slot) triple. Partial configuration resolves to nothing so the
// caller falls back to the plain thank-you.
func (s *CamouflageService) ResolveContent(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageCharacter, *model.CamouflageCopy, error) {
	mapping, err := s.Store.GetMapping(testDefinitionID, camouflageSetID, slotKey)
	if err != nil {
		return nil, nil, err
	}
	copyRow, err := s.Store.GetCopy(testDefinitionID, camouflageSetID, slotKey)
	if err != nil {
		return nil, nil, err
	}
	if mapping == nil || mapping.Character == nil || copyRow == nil {
		return nil, nil, nil
	}
	return mapping.Character, copyRow, nil
}

// CompletionContentForSession computes the slot for a completed session and
// resolves the configured camouflage content for the evaluation's selected
// set. Sessions in THANK_YOU_ONLY evaluations get the slot only.
func (s *CamouflageService) CompletionContentForSession(session *model.TestSession) (*CompletionContent, error) {
	evaluation, err := s.Store.GetEvaluation(session.EvaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil || evaluation.Status == model.EvaluationDraft {
		return nil, util.NewNotFoundError("Invalid code or link")
	}
	if session.Status != model.SessionCompleted {
		return nil, util.NewConflictError("Session not completed")
	}

	definition, err := s.Store.GetTestDefinition(session.TestDefinitionID)
	if err != nil {
		return nil, err
	}
	if definition == nil {
		return nil, util.NewNotFoundError("Test definition not found")
	}
	doc, err := survey.ParseDocument(definition.Definition, s.Registry)
	if err != nil {
		return nil, err
	}

	slots, err := s.Store.ListSlots(session.TestDefinitionID)
	if err != nil {
		return nil, err
	}
	scores, err := s.Store.ListScores(session.ID)
	if err != nil {
		return nil, err
	}

	content := &CompletionContent{
		SlotKey:      ComputeSlotKey(doc, slots, scores),
		FeedbackMode: evaluation.FeedbackMode,
	}

	if evaluation.FeedbackMode != model.FeedbackCamouflage {
		return content, nil
	}

	setID := ""
	for _, t := range evaluation.Tests {
		if t.TestDefinitionID == session.TestDefinitionID && t.CamouflageSetID != nil {
			setID = *t.CamouflageSetID
			break
		}
	}
	if setID == "" {
		return content, nil
	}

	character, copyRow, err := s.ResolveContent(session.TestDefinitionID, setID, content.SlotKey)
	if err != nil {
		return nil, err
	}
	content.Character = character
	content.Copy = copyRow
	return content, nil
}
