package service

import (
	"encoding/json"
	"fmt"
	"sort"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/repository"
	"flagtest_backend/internal/survey"
)

func testRegistry() *survey.Registry {
	return survey.DefaultRegistry()
}

// fakeStore is an in-memory ParticipantStore for exercising the session
// core without a database.
type fakeStore struct {
	evaluations map[string]*model.Evaluation
	invites     map[string]*model.Invite
	rosters     map[string]*model.RosterEntry
	definitions map[string]*model.TestDefinition
	sessions    map[string]*model.TestSession
	byKey       map[string]*model.TestSession
	answers     map[string]map[string]*model.Answer
	scores      map[string]map[string]float64
	slots       map[string][]model.CamouflageSlot
	mappings    map[string]*model.CamouflageMapping
	copies      map[string]*model.CamouflageCopy

	nextID int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		evaluations: make(map[string]*model.Evaluation),
		invites:     make(map[string]*model.Invite),
		rosters:     make(map[string]*model.RosterEntry),
		definitions: make(map[string]*model.TestDefinition),
		sessions:    make(map[string]*model.TestSession),
		byKey:       make(map[string]*model.TestSession),
		answers:     make(map[string]map[string]*model.Answer),
		scores:      make(map[string]map[string]float64),
		slots:       make(map[string][]model.CamouflageSlot),
		mappings:    make(map[string]*model.CamouflageMapping),
		copies:      make(map[string]*model.CamouflageCopy),
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%04d", f.nextID)
}

func (f *fakeStore) GetEvaluation(id string) (*model.Evaluation, error) {
	return f.evaluations[id], nil
}

func (f *fakeStore) GetInvite(id string) (*model.Invite, error) {
	return f.invites[id], nil
}

func (f *fakeStore) GetInviteByTokenHash(hash string) (*model.Invite, error) {
	for _, invite := range f.invites {
		if invite.TokenHash == hash {
			return invite, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetRosterEntry(id string) (*model.RosterEntry, error) {
	return f.rosters[id], nil
}

func (f *fakeStore) GetRosterEntryByCode(evaluationID, code string) (*model.RosterEntry, error) {
	for _, entry := range f.rosters {
		if entry.EvaluationID == evaluationID && entry.Code == code {
			return entry, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetTestDefinition(id string) (*model.TestDefinition, error) {
	return f.definitions[id], nil
}

func (f *fakeStore) GetSession(id string) (*model.TestSession, error) {
	return f.sessions[id], nil
}

func (f *fakeStore) GetSessionByAttemptKey(key string) (*model.TestSession, error) {
	return f.byKey[key], nil
}

func (f *fakeStore) ListSessionsByAttemptKeys(keys []string) ([]model.TestSession, error) {
	var out []model.TestSession
	for _, key := range keys {
		if s, ok := f.byKey[key]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSession(session *model.TestSession) error {
	if _, exists := f.byKey[session.AttemptKey]; exists {
		return ErrDuplicateAttemptKey
	}
	if session.ID == "" {
		session.ID = f.id()
	}
	f.sessions[session.ID] = session
	f.byKey[session.AttemptKey] = session
	return nil
}

func (f *fakeStore) UpdateSession(session *model.TestSession) error {
	f.sessions[session.ID] = session
	f.byKey[session.AttemptKey] = session
	return nil
}

func (f *fakeStore) ListScores(sessionID string) ([]model.Score, error) {
	totals := f.scores[sessionID]
	dims := make([]string, 0, len(totals))
	for dim := range totals {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	out := make([]model.Score, 0, len(dims))
	for _, dim := range dims {
		out = append(out, model.Score{SessionID: sessionID, Dimension: dim, Value: totals[dim]})
	}
	return out, nil
}

func (f *fakeStore) ListSlots(testDefinitionID string) ([]model.CamouflageSlot, error) {
	slots := make([]model.CamouflageSlot, len(f.slots[testDefinitionID]))
	copy(slots, f.slots[testDefinitionID])
	sort.Slice(slots, func(i, j int) bool { return slots[i].Rank < slots[j].Rank })
	return slots, nil
}

func tripleKey(testDefinitionID, setID, slotKey string) string {
	return testDefinitionID + "|" + setID + "|" + slotKey
}

func (f *fakeStore) GetMapping(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageMapping, error) {
	return f.mappings[tripleKey(testDefinitionID, camouflageSetID, slotKey)], nil
}

func (f *fakeStore) GetCopy(testDefinitionID, camouflageSetID, slotKey string) (*model.CamouflageCopy, error) {
	return f.copies[tripleKey(testDefinitionID, camouflageSetID, slotKey)], nil
}

func (f *fakeStore) Transact(fn func(tx repository.SessionTx) error) error {
	return fn(&fakeTx{store: f})
}

type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) UpsertAnswer(answer *model.Answer) error {
	byQuestion := t.store.answers[answer.SessionID]
	if byQuestion == nil {
		byQuestion = make(map[string]*model.Answer)
		t.store.answers[answer.SessionID] = byQuestion
	}
	if existing, ok := byQuestion[answer.QuestionID]; ok {
		existing.Payload = answer.Payload
		return nil
	}
	if answer.ID == "" {
		answer.ID = t.store.id()
	}
	byQuestion[answer.QuestionID] = answer
	return nil
}

func (t *fakeTx) ListAnswers(sessionID string) ([]model.Answer, error) {
	byQuestion := t.store.answers[sessionID]
	questionIDs := make([]string, 0, len(byQuestion))
	for id := range byQuestion {
		questionIDs = append(questionIDs, id)
	}
	sort.Strings(questionIDs)

	out := make([]model.Answer, 0, len(questionIDs))
	for _, id := range questionIDs {
		out = append(out, *byQuestion[id])
	}
	return out, nil
}

func (t *fakeTx) ReplaceScores(sessionID string, totals map[string]float64) error {
	replaced := make(map[string]float64, len(totals))
	for dim, value := range totals {
		replaced[dim] = value
	}
	t.store.scores[sessionID] = replaced
	return nil
}

func (t *fakeTx) DeleteAnswers(sessionID string) error {
	delete(t.store.answers, sessionID)
	return nil
}

func (t *fakeTx) DeleteScores(sessionID string) error {
	delete(t.store.scores, sessionID)
	return nil
}

func (t *fakeTx) UpdateSession(session *model.TestSession) error {
	return t.store.UpdateSession(session)
}

func (t *fakeTx) ListScores(sessionID string) ([]model.Score, error) {
	return t.store.ListScores(sessionID)
}

// Fixture helpers shared across the service tests.

func (f *fakeStore) addEvaluation(e *model.Evaluation) *model.Evaluation {
	if e.ID == "" {
		e.ID = f.id()
	}
	f.evaluations[e.ID] = e
	return e
}

func (f *fakeStore) addInvite(i *model.Invite) *model.Invite {
	if i.ID == "" {
		i.ID = f.id()
	}
	f.invites[i.ID] = i
	return i
}

func (f *fakeStore) addRosterEntry(r *model.RosterEntry) *model.RosterEntry {
	if r.ID == "" {
		r.ID = f.id()
	}
	f.rosters[r.ID] = r
	return r
}

func (f *fakeStore) addDefinition(d *model.TestDefinition) *model.TestDefinition {
	if d.ID == "" {
		d.ID = f.id()
	}
	f.definitions[d.ID] = d
	return d
}

// twoItemDocument builds a small scenario-choice document scoring a single
// dimension.
func twoItemDocument(dimension string) json.RawMessage {
	doc := fmt.Sprintf(`{
		"version": 1,
		"slug": "sample",
		"title": "Sample",
		"dimensions": [{"id": %q}],
		"items": [
			{
				"id": "q1",
				"widgetType": "scenario_choice",
				"prompt": "First scenario",
				"options": [
					{"id": "a", "label": "A", "scoring": [{"dimension": %q, "delta": 10}]},
					{"id": "b", "label": "B", "scoring": [{"dimension": %q, "delta": 40}]}
				]
			},
			{
				"id": "q2",
				"widgetType": "scenario_choice",
				"prompt": "Second scenario",
				"options": [
					{"id": "a", "label": "A", "scoring": [{"dimension": %q, "delta": 20}]},
					{"id": "b", "label": "B", "scoring": [{"dimension": %q, "delta": 60}]}
				]
			}
		]
	}`, dimension, dimension, dimension, dimension, dimension)
	return json.RawMessage(doc)
}
