package service

import (
	"testing"
	"time"

	"flagtest_backend/internal/model"
	"flagtest_backend/internal/survey"
	"flagtest_backend/internal/util"
)

func slotSet(testDefinitionID string, keys ...string) []model.CamouflageSlot {
	slots := make([]model.CamouflageSlot, len(keys))
	for i, key := range keys {
		slots[i] = model.CamouflageSlot{TestDefinitionID: testDefinitionID, Key: key, Rank: i}
	}
	return slots
}

func docWithDimension(dimension string) *survey.Document {
	return &survey.Document{
		Version:    1,
		Dimensions: []survey.Dimension{{ID: dimension}},
	}
}

func TestComputeSlotKeyBoundaries(t *testing.T) {
	doc := docWithDimension("courage")
	slots := slotSet("t1", "s0", "s1", "s2", "s3")

	// Four slots over [0,100]: 25-wide buckets, 100 clamps into the last.
	tests := []struct {
		value float64
		want  string
	}{
		{0, "s0"},
		{24, "s0"},
		{25, "s1"},
		{49, "s1"},
		{50, "s2"},
		{74, "s2"},
		{75, "s3"},
		{99, "s3"},
		{100, "s3"},
	}

	for _, tt := range tests {
		scores := []model.Score{{Dimension: "courage", Value: tt.value}}
		if got := ComputeSlotKey(doc, slots, scores); got != tt.want {
			t.Errorf("value %v: slot = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestComputeSlotKeyClampsOutOfRange(t *testing.T) {
	doc := docWithDimension("courage")
	slots := slotSet("t1", "low", "high")

	if got := ComputeSlotKey(doc, slots, []model.Score{{Dimension: "courage", Value: -40}}); got != "low" {
		t.Errorf("negative value: slot = %q, want low", got)
	}
	if got := ComputeSlotKey(doc, slots, []model.Score{{Dimension: "courage", Value: 400}}); got != "high" {
		t.Errorf("oversized value: slot = %q, want high", got)
	}
}

func TestComputeSlotKeyMissingDimensionDefaultsToZero(t *testing.T) {
	doc := docWithDimension("courage")
	slots := slotSet("t1", "low", "high")

	scores := []model.Score{{Dimension: "unrelated", Value: 90}}
	if got := ComputeSlotKey(doc, slots, scores); got != "low" {
		t.Errorf("slot = %q, want low (primary dimension unscored)", got)
	}
}

func TestComputeSlotKeyWithoutSlots(t *testing.T) {
	doc := docWithDimension("courage")
	if got := ComputeSlotKey(doc, nil, nil); got != DefaultSlotKey {
		t.Errorf("slot = %q, want %q", got, DefaultSlotKey)
	}
}

func TestComputeSlotKeyUsesRankOrderNotInsertionOrder(t *testing.T) {
	doc := docWithDimension("courage")
	slots := []model.CamouflageSlot{
		{Key: "top", Rank: 1},
		{Key: "bottom", Rank: 0},
	}

	scores := []model.Score{{Dimension: "courage", Value: 10}}
	if got := ComputeSlotKey(doc, slots, scores); got != "bottom" {
		t.Errorf("slot = %q, want bottom", got)
	}
}

type completionFixture struct {
	store   *fakeStore
	svc     *CamouflageService
	eval    *model.Evaluation
	def     *model.TestDefinition
	session *model.TestSession
}

func newCompletionFixture(t *testing.T, mode model.FeedbackMode) *completionFixture {
	t.Helper()

	store := newFakeStore()
	def := store.addDefinition(&model.TestDefinition{Definition: twoItemDocument("courage")})
	eval := openEvaluation(store, def.ID)
	eval.FeedbackMode = mode

	now := time.Now()
	session := &model.TestSession{
		UUIDBase:         model.UUIDBase{ID: "sess-1"},
		AttemptKey:       BuildAttemptKey(eval.ID, def.ID, "anon:p1"),
		EvaluationID:     eval.ID,
		TestDefinitionID: def.ID,
		Status:           model.SessionCompleted,
		CompletedAt:      &now,
	}
	store.sessions[session.ID] = session
	store.byKey[session.AttemptKey] = session
	store.scores[session.ID] = map[string]float64{"courage": 80}
	store.slots[def.ID] = slotSet(def.ID, "low", "high")

	return &completionFixture{
		store:   store,
		svc:     NewCamouflageService(store, testRegistry()),
		eval:    eval,
		def:     def,
		session: session,
	}
}

func (f *completionFixture) configureContent(setID string) {
	character := &model.CamouflageCharacter{UUIDBase: model.UUIDBase{ID: "ch-1"}, SetID: setID, Title: "The Falcon"}
	f.store.mappings[tripleKey(f.def.ID, setID, "high")] = &model.CamouflageMapping{
		TestDefinitionID: f.def.ID,
		CamouflageSetID:  setID,
		SlotKey:          "high",
		CharacterID:      character.ID,
		Character:        character,
	}
	f.store.copies[tripleKey(f.def.ID, setID, "high")] = &model.CamouflageCopy{
		TestDefinitionID: f.def.ID,
		CamouflageSetID:  setID,
		SlotKey:          "high",
		Headline:         "Sharp instincts",
	}
}

func TestCompletionContentThankYouOnly(t *testing.T) {
	f := newCompletionFixture(t, model.FeedbackThankYouOnly)

	content, err := f.svc.CompletionContentForSession(f.session)
	if err != nil {
		t.Fatalf("CompletionContentForSession: %v", err)
	}
	if content.SlotKey != "high" {
		t.Fatalf("slot = %q, want high", content.SlotKey)
	}
	if content.Character != nil || content.Copy != nil {
		t.Fatal("thank-you mode must not reveal camouflage content")
	}
}

func TestCompletionContentCamouflageMode(t *testing.T) {
	f := newCompletionFixture(t, model.FeedbackCamouflage)
	setID := "set-1"
	f.eval.Tests[0].CamouflageSetID = &setID
	f.configureContent(setID)

	content, err := f.svc.CompletionContentForSession(f.session)
	if err != nil {
		t.Fatalf("CompletionContentForSession: %v", err)
	}
	if content.Character == nil || content.Character.Title != "The Falcon" {
		t.Fatalf("character = %+v, want The Falcon", content.Character)
	}
	if content.Copy == nil || content.Copy.Headline != "Sharp instincts" {
		t.Fatalf("copy = %+v, want headline", content.Copy)
	}
}

func TestCompletionContentPartialConfigurationFallsBack(t *testing.T) {
	f := newCompletionFixture(t, model.FeedbackCamouflage)
	setID := "set-1"
	f.eval.Tests[0].CamouflageSetID = &setID

	// Mapping without copy: resolve to nothing rather than half a reveal.
	character := &model.CamouflageCharacter{UUIDBase: model.UUIDBase{ID: "ch-1"}, SetID: setID}
	f.store.mappings[tripleKey(f.def.ID, setID, "high")] = &model.CamouflageMapping{
		CharacterID: character.ID,
		Character:   character,
	}

	content, err := f.svc.CompletionContentForSession(f.session)
	if err != nil {
		t.Fatalf("CompletionContentForSession: %v", err)
	}
	if content.Character != nil || content.Copy != nil {
		t.Fatal("partial configuration must resolve to no content")
	}
}

func TestCompletionContentWithoutPinnedSet(t *testing.T) {
	f := newCompletionFixture(t, model.FeedbackCamouflage)

	content, err := f.svc.CompletionContentForSession(f.session)
	if err != nil {
		t.Fatalf("CompletionContentForSession: %v", err)
	}
	if content.Character != nil || content.Copy != nil {
		t.Fatal("unpinned set must resolve to no content")
	}
	if content.SlotKey != "high" {
		t.Fatalf("slot = %q, want high", content.SlotKey)
	}
}

func TestCompletionContentRequiresCompletedSession(t *testing.T) {
	f := newCompletionFixture(t, model.FeedbackThankYouOnly)
	f.session.Status = model.SessionActive

	if _, err := f.svc.CompletionContentForSession(f.session); !util.IsStatus(err, 409) {
		t.Fatalf("expected 409 for incomplete session, got %v", err)
	}
}
