package service

import (
	"flagtest_backend/internal/model"
	"flagtest_backend/internal/util"
)

type ParticipantProgress struct {
	StatusMap            map[string]model.SessionStatus `json:"statusMap"`
	CompletedTestIDs     []string                       `json:"completedTestIds"`
	NextIncompleteTestID string                         `json:"nextIncompleteTestId,omitempty"`
}

type ProgressService struct {
	Store ParticipantStore
}

func NewProgressService(store ParticipantStore) *ProgressService {
	return &ProgressService{Store: store}
}

// GetParticipantProgress maps each of the evaluation's ordered tests to the
// participant's session status and picks the next test to offer. Progression
// is only advised for OPEN evaluations.
func (s *ProgressService) GetParticipantProgress(evaluationID string, identity ParticipantIdentity, currentTestID string) (*ParticipantProgress, error) {
	evaluation, err := s.Store.GetEvaluation(evaluationID)
	if err != nil {
		return nil, err
	}
	if evaluation == nil || evaluation.Status == model.EvaluationDraft {
		return nil, util.NewNotFoundError("Invalid code or link")
	}

	orderedTestIDs := make([]string, 0, len(evaluation.Tests))
	attemptKeys := make([]string, 0, len(evaluation.Tests))
	keyToTest := make(map[string]string, len(evaluation.Tests))
	for _, t := range evaluation.Tests {
		key := BuildAttemptKey(evaluationID, t.TestDefinitionID, identity.ParticipantToken())
		orderedTestIDs = append(orderedTestIDs, t.TestDefinitionID)
		attemptKeys = append(attemptKeys, key)
		keyToTest[key] = t.TestDefinitionID
	}

	sessions, err := s.Store.ListSessionsByAttemptKeys(attemptKeys)
	if err != nil {
		return nil, err
	}

	statusMap := make(map[string]model.SessionStatus, len(sessions))
	for _, session := range sessions {
		if testID, ok := keyToTest[session.AttemptKey]; ok {
			statusMap[testID] = session.Status
		}
	}

	completed := make([]string, 0, len(orderedTestIDs))
	for _, testID := range orderedTestIDs {
		if statusMap[testID] == model.SessionCompleted {
			completed = append(completed, testID)
		}
	}

	next := ""
	if evaluation.Status == model.EvaluationOpen {
		next = NextIncompleteTest(orderedTestIDs, statusMap, currentTestID)
	}

	return &ParticipantProgress{
		StatusMap:            statusMap,
		CompletedTestIDs:     completed,
		NextIncompleteTestID: next,
	}, nil
}

// NextIncompleteTest scans the ordered test list starting immediately after
// currentTestID and returns the first test not yet completed, or "" when
// none remain. The scan stops at the list end; it does not wrap.
func NextIncompleteTest(orderedTestIDs []string, statusMap map[string]model.SessionStatus, currentTestID string) string {
	start := 0
	if currentTestID != "" {
		for i, id := range orderedTestIDs {
			if id == currentTestID {
				start = i + 1
				break
			}
		}
	}
	for _, id := range orderedTestIDs[start:] {
		if statusMap[id] != model.SessionCompleted {
			return id
		}
	}
	return ""
}
