package service

import (
	"encoding/json"
	"fmt"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/survey"
	"flagtest_backend/internal/util"
)

// ParticipantProof is the rotating secret read back from the participant
// cookie; it authenticates answer submissions for one specific session.
type ParticipantProof struct {
	SessionID string
	Token     string
}

type SubmitResult struct {
	Scores []model.Score       `json:"scores"`
	Status model.SessionStatus `json:"status"`
}

// AnswerService accepts one answer at a time, persists it idempotently and
// recomputes the session's full score set inside one transaction.
type AnswerService struct {
	Store       ParticipantStore
	Registry    *survey.Registry
	tokenSecret string
}

func NewAnswerService(store ParticipantStore, registry *survey.Registry, tokenSecret string) *AnswerService {
	return &AnswerService{Store: store, Registry: registry, tokenSecret: tokenSecret}
}

// SubmitAnswer validates and upserts one answer, then replaces the score set
// with totals replayed from every stored answer. Scores are a pure function
// of current answers: resubmitting a question overwrites, dimensions left
// without contributing answers are pruned, and the session completes exactly
// when distinct answered questions reach the item count.
func (s *AnswerService) SubmitAnswer(proof ParticipantProof, questionID, widgetType string, rawAnswer json.RawMessage) (*SubmitResult, error) {
	session, err := s.Store.GetSession(proof.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, util.NewNotFoundError("Session not found")
	}
	if !util.VerifyTokenHash(proof.Token, session.ParticipantTokenHash, s.tokenSecret) {
		return nil, util.NewForbiddenError("Invalid participant proof")
	}

	evaluation, err := s.Store.GetEvaluation(session.EvaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation != nil && evaluation.IsClosed() {
		return nil, util.NewConflictError("Evaluation closed")
	}
	if !session.Answerable() {
		return nil, util.NewConflictError("Session no longer accepts answers")
	}

	definition, err := s.Store.GetTestDefinition(session.TestDefinitionID)
	if err != nil {
		return nil, err
	}
	if definition == nil {
		return nil, fmt.Errorf("session %s references missing test definition %s", session.ID, session.TestDefinitionID)
	}
	doc, err := survey.ParseDocument(definition.Definition, s.Registry)
	if err != nil {
		return nil, err
	}

	item := doc.Item(questionID)
	if item == nil || item.WidgetType != widgetType {
		return nil, util.NewBadRequestError("Unknown question")
	}
	widget, ok := s.Registry.Widget(item.WidgetType)
	if !ok {
		return nil, util.NewBadRequestError("Unsupported widget")
	}
	if err := widget.ValidateAnswer(rawAnswer); err != nil {
		return nil, util.NewBadRequestError("Invalid answer")
	}

	now := time.Now()
	var result SubmitResult

	err = s.Store.Transact(func(tx repository.SessionTx) error {
		if err := tx.UpsertAnswer(&model.Answer{
			SessionID:  session.ID,
			QuestionID: questionID,
			Payload:    rawAnswer,
		}); err != nil {
			return err
		}

		answers, err := tx.ListAnswers(session.ID)
		if err != nil {
			return err
		}

		totals := s.replayScores(doc, answers)
		if err := tx.ReplaceScores(session.ID, totals); err != nil {
			return err
		}

		if session.Status == model.SessionCreated {
			session.Status = model.SessionActive
			if session.StartedAt == nil {
				session.StartedAt = &now
			}
		}
		if len(answers) >= len(doc.Items) {
			session.Status = model.SessionCompleted
			session.CompletedAt = &now
		}
		session.LastSeenAt = now
		if err := tx.UpdateSession(session); err != nil {
			return err
		}

		scores, err := tx.ListScores(session.ID)
		if err != nil {
			return err
		}
		result = SubmitResult{Scores: scores, Status: session.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// replayScores accumulates signed deltas per dimension over every answer
// that still resolves to a valid item and widget; stale answers score
// nothing. No normalization or clamping happens here.
func (s *AnswerService) replayScores(doc *survey.Document, answers []model.Answer) map[string]float64 {
	totals := make(map[string]float64)
	for _, answer := range answers {
		item := doc.Item(answer.QuestionID)
		if item == nil {
			continue
		}
		widget, ok := s.Registry.Widget(item.WidgetType)
		if !ok {
			continue
		}
		weights, err := widget.Score(answer.Payload, item)
		if err != nil {
			continue
		}
		for _, w := range weights {
			totals[w.Dimension] += w.Delta
		}
	}
	return totals
}
