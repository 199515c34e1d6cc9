package service

import (
	"encoding/json"
	"testing"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/util"
)

type answerFixture struct {
	store    *fakeStore
	sessions *SessionService
	answers  *AnswerService
	eval     *model.Evaluation
	def      *model.TestDefinition
	proof    ParticipantProof
}

func newAnswerFixture(t *testing.T) *answerFixture {
	t.Helper()

	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)

	sessions := NewSessionService(store, testTokenSecret)
	answers := NewAnswerService(store, testRegistry(), testTokenSecret)

	joined, err := sessions.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	return &answerFixture{
		store:    store,
		sessions: sessions,
		answers:  answers,
		eval:     eval,
		def:      def,
		proof:    ParticipantProof{SessionID: joined.SessionID, Token: joined.ParticipantToken},
	}
}

func (f *answerFixture) submit(t *testing.T, questionID, optionID string) *SubmitResult {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"optionId": optionID})
	result, err := f.answers.SubmitAnswer(f.proof, questionID, "scenario_choice", payload)
	if err != nil {
		t.Fatalf("SubmitAnswer(%s, %s): %v", questionID, optionID, err)
	}
	return result
}

func scoreValue(scores []model.Score, dimension string) (float64, bool) {
	for _, s := range scores {
		if s.Dimension == dimension {
			return s.Value, true
		}
	}
	return 0, false
}

func TestFirstAnswerActivatesSession(t *testing.T) {
	f := newAnswerFixture(t)

	result := f.submit(t, "q1", "a")
	if result.Status != model.SessionActive {
		t.Fatalf("status = %s, want ACTIVE", result.Status)
	}

	session := f.store.sessions[f.proof.SessionID]
	if session.StartedAt == nil {
		t.Fatal("StartedAt must be set on activation")
	}

	if v, ok := scoreValue(result.Scores, "courage"); !ok || v != 10 {
		t.Fatalf("courage = %v (present=%v), want 10", v, ok)
	}
}

func TestAnsweringEveryItemCompletes(t *testing.T) {
	f := newAnswerFixture(t)

	f.submit(t, "q1", "b")
	result := f.submit(t, "q2", "b")

	if result.Status != model.SessionCompleted {
		t.Fatalf("status = %s, want COMPLETED", result.Status)
	}
	session := f.store.sessions[f.proof.SessionID]
	if session.CompletedAt == nil {
		t.Fatal("CompletedAt must be set")
	}
	if v, _ := scoreValue(result.Scores, "courage"); v != 100 {
		t.Fatalf("courage = %v, want 100", v)
	}
}

func TestResubmitOverwritesNotAccumulates(t *testing.T) {
	f := newAnswerFixture(t)

	f.submit(t, "q1", "a")
	result := f.submit(t, "q1", "b")

	if result.Status != model.SessionActive {
		t.Fatalf("one distinct answer of two must not complete, got %s", result.Status)
	}
	if v, _ := scoreValue(result.Scores, "courage"); v != 40 {
		t.Fatalf("courage = %v, want 40 (overwrite, not 50)", v)
	}
	if len(f.store.answers[f.proof.SessionID]) != 1 {
		t.Fatal("resubmit must not add an answer row")
	}
}

func TestScoresAreOrderIndependent(t *testing.T) {
	a := newAnswerFixture(t)
	a.submit(t, "q1", "a")
	a.submit(t, "q2", "b")
	forward, _ := a.store.ListScores(a.proof.SessionID)

	b := newAnswerFixture(t)
	b.submit(t, "q2", "b")
	b.submit(t, "q1", "a")
	backward, _ := b.store.ListScores(b.proof.SessionID)

	if len(forward) != len(backward) {
		t.Fatalf("score sets differ in size: %d vs %d", len(forward), len(backward))
	}
	for i := range forward {
		if forward[i].Dimension != backward[i].Dimension || forward[i].Value != backward[i].Value {
			t.Fatalf("order-dependent scores: %+v vs %+v", forward[i], backward[i])
		}
	}
}

func TestCompletedSessionRejectsAnswers(t *testing.T) {
	f := newAnswerFixture(t)

	f.submit(t, "q1", "a")
	f.submit(t, "q2", "a")

	payload := []byte(`{"optionId":"b"}`)
	if _, err := f.answers.SubmitAnswer(f.proof, "q1", "scenario_choice", payload); !util.IsStatus(err, 409) {
		t.Fatalf("expected 409 after completion, got %v", err)
	}
}

func TestClosedEvaluationRejectsAnswers(t *testing.T) {
	f := newAnswerFixture(t)
	f.eval.Status = model.EvaluationClosed

	payload := []byte(`{"optionId":"a"}`)
	if _, err := f.answers.SubmitAnswer(f.proof, "q1", "scenario_choice", payload); !util.IsStatus(err, 409) {
		t.Fatalf("expected 409 when closed, got %v", err)
	}
}

func TestWrongProofIsForbidden(t *testing.T) {
	f := newAnswerFixture(t)

	bad := ParticipantProof{SessionID: f.proof.SessionID, Token: "forged"}
	payload := []byte(`{"optionId":"a"}`)
	if _, err := f.answers.SubmitAnswer(bad, "q1", "scenario_choice", payload); !util.IsStatus(err, 403) {
		t.Fatalf("expected 403 for bad proof, got %v", err)
	}
}

func TestUnknownQuestionRejected(t *testing.T) {
	f := newAnswerFixture(t)

	payload := []byte(`{"optionId":"a"}`)
	if _, err := f.answers.SubmitAnswer(f.proof, "q99", "scenario_choice", payload); !util.IsStatus(err, 400) {
		t.Fatalf("expected 400 for unknown question, got %v", err)
	}
}

func TestWidgetTypeMismatchRejected(t *testing.T) {
	f := newAnswerFixture(t)

	payload := []byte(`{"optionId":"a"}`)
	if _, err := f.answers.SubmitAnswer(f.proof, "q1", "free_text", payload); !util.IsStatus(err, 400) {
		t.Fatalf("expected 400 for widget mismatch, got %v", err)
	}
}

func TestInvalidOptionRejected(t *testing.T) {
	f := newAnswerFixture(t)

	payload := []byte(`{}`)
	if _, err := f.answers.SubmitAnswer(f.proof, "q1", "scenario_choice", payload); !util.IsStatus(err, 400) {
		t.Fatalf("expected 400 for missing option, got %v", err)
	}
}

func TestStaleAnswerScoresNothing(t *testing.T) {
	f := newAnswerFixture(t)

	f.submit(t, "q1", "a")

	// A previously accepted answer whose option was later removed from the
	// definition must drop out of the replay instead of failing it.
	f.store.answers[f.proof.SessionID]["q1"].Payload = []byte(`{"optionId":"gone"}`)
	result := f.submit(t, "q2", "a")

	if v, _ := scoreValue(result.Scores, "courage"); v != 20 {
		t.Fatalf("courage = %v, want 20 (stale q1 contributes nothing)", v)
	}
}

// splitDimensionDocument scores q1's options against different dimensions so
// a resubmission moves the contribution from one dimension to the other.
func splitDimensionDocument() json.RawMessage {
	return json.RawMessage(`{
		"version": 1,
		"slug": "split",
		"title": "Split",
		"dimensions": [{"id": "courage"}, {"id": "wisdom"}],
		"items": [
			{
				"id": "q1",
				"widgetType": "scenario_choice",
				"prompt": "First scenario",
				"options": [
					{"id": "a", "label": "A", "scoring": [{"dimension": "courage", "delta": 10}]},
					{"id": "b", "label": "B", "scoring": [{"dimension": "wisdom", "delta": 5}]}
				]
			},
			{
				"id": "q2",
				"widgetType": "scenario_choice",
				"prompt": "Second scenario",
				"options": [
					{"id": "a", "label": "A", "scoring": [{"dimension": "courage", "delta": 20}]},
					{"id": "b", "label": "B", "scoring": [{"dimension": "courage", "delta": 60}]}
				]
			}
		]
	}`)
}

func TestResubmissionMovesScoreAcrossDimensions(t *testing.T) {
	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: splitDimensionDocument()})
	eval := openEvaluation(store, def.ID)

	sessions := NewSessionService(store, testTokenSecret)
	answers := NewAnswerService(store, testRegistry(), testTokenSecret)

	joined, err := sessions.Join(eval.ID, def.ID, anonIdentity("p1"))
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	f := &answerFixture{
		store:   store,
		answers: answers,
		proof:   ParticipantProof{SessionID: joined.SessionID, Token: joined.ParticipantToken},
	}

	// courage -> wisdom -> courage; each recompute must prune the abandoned
	// dimension outright so the returning one can be written again.
	result := f.submit(t, "q1", "a")
	if _, ok := scoreValue(result.Scores, "wisdom"); ok {
		t.Fatal("wisdom must not be scored yet")
	}

	result = f.submit(t, "q1", "b")
	if _, ok := scoreValue(result.Scores, "courage"); ok {
		t.Fatal("courage must be pruned after moving to wisdom")
	}
	if v, _ := scoreValue(result.Scores, "wisdom"); v != 5 {
		t.Fatalf("wisdom = %v, want 5", v)
	}

	result = f.submit(t, "q1", "a")
	if v, _ := scoreValue(result.Scores, "courage"); v != 10 {
		t.Fatalf("courage = %v, want 10 after returning", v)
	}
	if _, ok := scoreValue(result.Scores, "wisdom"); ok {
		t.Fatal("wisdom must be pruned after moving back")
	}
	if result.Status != model.SessionActive {
		t.Fatalf("status = %s, want ACTIVE", result.Status)
	}
}
