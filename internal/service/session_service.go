package service

import (
	"errors"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/util"
)

// JoinResult routes the caller to "start" vs "continue". ParticipantToken is
// the raw rotated proof, handed to the client exactly once per join.
type JoinResult struct {
	SessionID        string              `json:"sessionId"`
	Status           model.SessionStatus `json:"status"`
	ParticipantToken string              `json:"-"`
}

// SessionService owns the session lifecycle: the Join guard chain, proof
// rotation, and the admin reset operation.
type SessionService struct {
	Store       ParticipantStore
	tokenSecret string
}

func NewSessionService(store ParticipantStore, tokenSecret string) *SessionService {
	return &SessionService{Store: store, tokenSecret: tokenSecret}
}

// Join establishes or resumes the single session for
// (evaluation, test, identity). Guards run in a fixed order, each a distinct
// failure; after the last guard the operation is a find-or-create keyed by
// the attempt key, so concurrent joins converge on one row. Every successful
// join rotates the participant proof token.
func (s *SessionService) Join(evaluationID, testDefinitionID string, identity ParticipantIdentity) (*JoinResult, error) {
	evaluation, err := s.Store.GetEvaluation(evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil || evaluation.Status == model.EvaluationDraft {
		return nil, errInvalidCredential()
	}
	if !evaluationHasTest(evaluation, testDefinitionID) {
		return nil, errInvalidCredential()
	}
	if err := s.authorizeIdentity(evaluation, identity); err != nil {
		return nil, err
	}

	attemptKey := BuildAttemptKey(evaluationID, testDefinitionID, identity.ParticipantToken())
	existing, err := s.Store.GetSessionByAttemptKey(attemptKey)
	if err != nil {
		return nil, err
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, err
	}
	tokenHash := util.HashToken(token, s.tokenSecret)
	now := time.Now()

	if evaluation.IsClosed() {
		// Closed evaluations never create sessions, but an existing one
		// (completed included) is still reachable for review.
		if existing == nil {
			return nil, util.NewConflictError("Evaluation closed")
		}
		existing.ParticipantTokenHash = tokenHash
		existing.LastSeenAt = now
		if err := s.Store.UpdateSession(existing); err != nil {
			return nil, err
		}
		return &JoinResult{SessionID: existing.ID, Status: existing.Status, ParticipantToken: token}, nil
	}

	if existing != nil && existing.Status == model.SessionCompleted {
		return nil, util.NewConflictError("Already completed")
	}

	if existing == nil {
		session := &model.TestSession{
			AttemptKey:           attemptKey,
			EvaluationID:         evaluationID,
			TestDefinitionID:     testDefinitionID,
			Status:               model.SessionCreated,
			ParticipantTokenHash: tokenHash,
			LastSeenAt:           now,
		}
		switch identity.Kind {
		case IdentityInvite:
			session.InviteID = &identity.ID
		case IdentityRoster:
			session.RosterEntryID = &identity.ID
		}

		err := s.Store.CreateSession(session)
		if err == nil {
			return &JoinResult{SessionID: session.ID, Status: session.Status, ParticipantToken: token}, nil
		}
		if !errors.Is(err, ErrDuplicateAttemptKey) {
			return nil, err
		}
		// A concurrent join won the insert; fall through to its row.
		existing, err = s.Store.GetSessionByAttemptKey(attemptKey)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, util.NewConflictError("Unable to join, try again")
		}
		if existing.Status == model.SessionCompleted {
			return nil, util.NewConflictError("Already completed")
		}
	}

	existing.ParticipantTokenHash = tokenHash
	existing.LastSeenAt = now
	if err := s.Store.UpdateSession(existing); err != nil {
		return nil, err
	}
	return &JoinResult{SessionID: existing.ID, Status: existing.Status, ParticipantToken: token}, nil
}

// GetAuthorized loads a session only when the presented proof matches its
// current token hash.
func (s *SessionService) GetAuthorized(proof ParticipantProof) (*model.TestSession, error) {
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
	return session, nil
}

// ResetAttempt clears a session back to CREATED: all answers and scores are
// deleted and the proof token rotated, atomically. Admin-only; the
// participant joins again afterwards with their usual credential.
func (s *SessionService) ResetAttempt(evaluationID string, identity ParticipantIdentity, testDefinitionID string) (*model.TestSession, error) {
	evaluation, err := s.Store.GetEvaluation(evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil {
		return nil, util.NewNotFoundError("Evaluation not found")
	}
	if !evaluationHasTest(evaluation, testDefinitionID) {
		return nil, util.NewNotFoundError("Test not part of this evaluation")
	}

	attemptKey := BuildAttemptKey(evaluationID, testDefinitionID, identity.ParticipantToken())
	session, err := s.Store.GetSessionByAttemptKey(attemptKey)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, util.NewNotFoundError("No attempt for this participant")
	}

	token, err := util.GenerateToken()
	if err != nil {
		return nil, err
	}

	err = s.Store.Transact(func(tx repository.SessionTx) error {
		if err := tx.DeleteAnswers(session.ID); err != nil {
			return err
		}
		if err := tx.DeleteScores(session.ID); err != nil {
			return err
		}
		session.Status = model.SessionCreated
		session.StartedAt = nil
		session.CompletedAt = nil
		session.ParticipantTokenHash = util.HashToken(token, s.tokenSecret)
		session.LastSeenAt = time.Now()
		return tx.UpdateSession(session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) authorizeIdentity(evaluation *model.Evaluation, identity ParticipantIdentity) error {
	switch identity.Kind {
	case IdentityInvite:
		invite, err := s.Store.GetInvite(identity.ID)
		if err != nil {
			return err
		}
		if invite == nil || invite.EvaluationID != evaluation.ID {
			return errInvalidCredential()
		}
	case IdentityRoster:
		entry, err := s.Store.GetRosterEntry(identity.ID)
		if err != nil {
			return err
		}
		if entry == nil || entry.EvaluationID != evaluation.ID {
			return errInvalidCredential()
		}
	case IdentityAnonymous:
		if !evaluation.AllowOpenJoin {
			return errInvalidCredential()
		}
		if identity.ID == "" {
			return util.NewBadRequestError("Missing participant id")
		}
	default:
		return util.NewBadRequestError("Unknown identity kind")
	}
	return nil
}

func evaluationHasTest(evaluation *model.Evaluation, testDefinitionID string) bool {
	for _, t := range evaluation.Tests {
		if t.TestDefinitionID == testDefinitionID {
			return true
		}
	}
	return false
}
