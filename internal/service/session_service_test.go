package service

import (
	"testing"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/util"
)

func openEvaluation(store *fakeStore, testDefinitionIDs ...string) *model.Evaluation {
	eval := store.addEvaluation(&model.Evaluation{Status: model.EvaluationOpen, AllowOpenJoin: true})
	for i, id := range testDefinitionIDs {
		eval.Tests = append(eval.Tests, model.EvaluationTest{
			EvaluationID:     eval.ID,
			TestDefinitionID: id,
			SortOrder:        i + 1,
		})
	}
	return eval
}

func anonIdentity(id string) ParticipantIdentity {
	return ParticipantIdentity{Kind: IdentityAnonymous, ID: id}
}

func TestJoinCreatesSession(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	result, err := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.Status != model.SessionCreated {
		t.Fatalf("status = %s, want CREATED", result.Status)
	}
	if result.ParticipantToken == "" {
		t.Fatal("expected a raw participant token")
	}

	session := store.sessions[result.SessionID]
	if session == nil {
		t.Fatal("session not persisted")
	}
	if session.ParticipantTokenHash == result.ParticipantToken {
		t.Fatal("raw token must not be stored")
	}
	if !util.VerifyTokenHash(result.ParticipantToken, session.ParticipantTokenHash, testTokenSecret) {
		t.Fatal("stored hash does not verify against returned token")
	}
}

func TestJoinIsIdempotentPerParticipant(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	first, err := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("first Join: %v", err)
	}
	second, err := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("second Join: %v", err)
	}

	if first.SessionID != second.SessionID {
		t.Fatalf("rejoin created a second session: %s vs %s", first.SessionID, second.SessionID)
	}
	if len(store.sessions) != 1 {
		t.Fatalf("expected 1 session, have %d", len(store.sessions))
	}
	if first.ParticipantToken == second.ParticipantToken {
		t.Fatal("rejoin must rotate the proof token")
	}
}

func TestJoinRotationInvalidatesOldToken(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	first, _ := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	second, _ := svc.Join(eval.ID, def.ID, anonIdentity("p1"))

	session := store.sessions[second.SessionID]
	if util.VerifyTokenHash(first.ParticipantToken, session.ParticipantTokenHash, testTokenSecret) {
		t.Fatal("old token still verifies after rotation")
	}
	if !util.VerifyTokenHash(second.ParticipantToken, session.ParticipantTokenHash, testTokenSecret) {
		t.Fatal("new token does not verify")
	}
}

func TestJoinDistinctParticipantsGetDistinctSessions(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	a, _ := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	b, _ := svc.Join(eval.ID, def.ID, anonIdentity("p2"))
	if a.SessionID == b.SessionID {
		t.Fatal("different participants shared a session")
	}
}

func TestJoinCompletedSessionConflicts(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	result, _ := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	session := store.sessions[result.SessionID]
	now := time.Now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &now

	if _, err := svc.Join(eval.ID, def.ID, anonIdentity("p1")); !util.IsStatus(err, 409) {
		t.Fatalf("expected 409 for completed attempt, got %v", err)
	}
}

func TestJoinClosedEvaluationWithoutSession(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)
	eval.Status = model.EvaluationClosed

	svc := NewSessionService(store, testTokenSecret)

	if _, err := svc.Join(eval.ID, def.ID, anonIdentity("p1")); !util.IsStatus(err, 409) {
		t.Fatalf("expected 409 when closed with no session, got %v", err)
	}
	if len(store.sessions) != 0 {
		t.Fatal("closed evaluation must not create sessions")
	}
}

func TestJoinClosedEvaluationReturnsExistingSession(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	before, _ := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	session := store.sessions[before.SessionID]
	now := time.Now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	eval.Status = model.EvaluationClosed

	after, err := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("rejoining closed evaluation with a session: %v", err)
	}
	if after.SessionID != before.SessionID {
		t.Fatal("expected the existing session back")
	}
	if after.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want COMPLETED", after.Status)
	}
	if after.ParticipantToken == "" {
		t.Fatal("expected a rotated proof token for review access")
	}
}

func TestJoinDraftEvaluationLooksMissing(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)
	eval.Status = model.EvaluationDraft

	svc := NewSessionService(store, testTokenSecret)

	if _, err := svc.Join(eval.ID, def.ID, anonIdentity("p1")); !util.IsStatus(err, 404) {
		t.Fatalf("expected 404 for draft, got %v", err)
	}
}

func TestJoinTestNotInEvaluation(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	other := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("calm")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	if _, err := svc.Join(eval.ID, other.ID, anonIdentity("p1")); !util.IsStatus(err, 404) {
		t.Fatalf("expected 404 for test outside the evaluation, got %v", err)
	}
}

func TestJoinLosingInsertRaceAdoptsWinner(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	// Simulate a concurrent winner by pre-inserting the row under the same
	// attempt key while leaving the by-id lookup intact.
	key := BuildAttemptKey(eval.ID, def.ID, anonIdentity("p1").ParticipantToken())
	winner := &model.TestSession{
		UUIDBase:   model.UUIDBase{ID: "winner"},
		AttemptKey: key,
		Status:     model.SessionCreated,
	}
	store.sessions[winner.ID] = winner
	store.byKey[key] = winner

	result, err := svc.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.SessionID != "winner" {
		t.Fatalf("expected to adopt the winner's session, got %s", result.SessionID)
	}
}

func TestResetAttemptClearsEverything(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	sessions := NewSessionService(store, testTokenSecret)
	answers := NewAnswerService(store, testRegistry(), testTokenSecret)

	joined, _ := sessions.Join(eval.ID, def.ID, anonIdentity("p1"))
	proof := ParticipantProof{SessionID: joined.SessionID, Token: joined.ParticipantToken}
	if _, err := answers.SubmitAnswer(proof, "q1", "scenario_choice", []byte(`{"optionId":"a"}`)); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	session, err := sessions.ResetAttempt(eval.ID, anonIdentity("p1"), def.ID)
	if err != nil {
		t.Fatalf("ResetAttempt: %v", err)
	}

	if session.Status != model.SessionCreated {
		t.Fatalf("status = %s, want CREATED", session.Status)
	}
	if session.StartedAt != nil || session.CompletedAt != nil {
		t.Fatal("timestamps must be cleared")
	}
	if len(store.answers[session.ID]) != 0 {
		t.Fatal("answers must be deleted")
	}
	if len(store.scores[session.ID]) != 0 {
		t.Fatal("scores must be deleted")
	}
	if util.VerifyTokenHash(joined.ParticipantToken, session.ParticipantTokenHash, testTokenSecret) {
		t.Fatal("old proof token must be invalidated by reset")
	}
}

func TestResetAttemptWithoutSession(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	svc := NewSessionService(store, testTokenSecret)

	if _, err := svc.ResetAttempt(eval.ID, anonIdentity("ghost"), def.ID); !util.IsStatus(err, 404) {
		t.Fatalf("expected 404, got %v", err)
	}
}
