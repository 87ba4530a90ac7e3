package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/haverlock/undercroft/internal/challenge/domain"
	"github.com/haverlock/undercroft/internal/challenge/storage"
	"github.com/haverlock/undercroft/internal/game"
)

const generationReply = "```json\n" +
	`{
  "prompt": "A voice asks: what speaks without a mouth?",
  "desc": "The chamber hums with a waiting silence.",
  "correctAnswer": "an echo",
  "hint1": "It lives in empty halls.",
  "hint2": "You make it yourself.",
  "hint3": "Shout and wait.",
  "expectedAnswerPattern": "echo",
  "alternateAnswers": ["echo", "an echo"]
}` + "\n```"

type fakeBoundary struct {
	available bool

	generation   string
	generationOK bool

	verdict   string
	verdictOK bool

	hint   string
	hintOK bool

	generateCalls int
	evaluateCalls int
	hintCalls     int
}

func (f *fakeBoundary) GenerateChallenge(ctx context.Context, prompt string) (string, bool) {
	f.generateCalls++
	return f.generation, f.generationOK
}

func (f *fakeBoundary) EvaluateResponse(ctx context.Context, response, expectedPattern, challengeContext string) (string, bool) {
	f.evaluateCalls++
	return f.verdict, f.verdictOK
}

func (f *fakeBoundary) GenerateHint(ctx context.Context, prompt, expectedAnswer string, level int) (string, bool) {
	f.hintCalls++
	return f.hint, f.hintOK
}

func (f *fakeBoundary) IsAvailable(ctx context.Context) bool {
	return f.available
}

type memoryStore struct {
	active    *domain.Snapshot
	completed []domain.Snapshot
}

func (m *memoryStore) SaveActive(ctx context.Context, snapshot domain.Snapshot) error {
	m.active = &snapshot
	return nil
}

func (m *memoryStore) LoadActive(ctx context.Context) (domain.Snapshot, error) {
	if m.active == nil {
		return domain.Snapshot{}, storage.ErrNotFound
	}
	return *m.active, nil
}

func (m *memoryStore) ClearActive(ctx context.Context) error {
	m.active = nil
	return nil
}

func (m *memoryStore) AppendCompleted(ctx context.Context, snapshot domain.Snapshot) error {
	m.completed = append(m.completed, snapshot)
	return nil
}

func (m *memoryStore) RecentTypes(ctx context.Context, limit int) ([]domain.Type, error) {
	var types []domain.Type
	for i := len(m.completed) - 1; i >= 0 && len(types) < limit; i-- {
		types = append(types, m.completed[i].Type)
	}
	return types, nil
}

type fakeClock struct {
	current time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Advance(d time.Duration) {
	c.current = c.current.Add(d)
}

type testEnv struct {
	service  *Service
	boundary *fakeBoundary
	store    *memoryStore
	clock    *fakeClock
	session  *game.State
	room     *game.Room
}

func newTestEnv(t *testing.T, difficulty game.Difficulty, useModel bool) *testEnv {
	t.Helper()

	boundary := &fakeBoundary{
		available:    true,
		generation:   generationReply,
		generationOK: true,
		verdictOK:    true,
		hint:         "Listen closely.",
		hintOK:       true,
	}
	store := &memoryStore{}
	clock := &fakeClock{current: time.Date(2026, time.March, 4, 18, 0, 0, 0, time.UTC)}
	session := &game.State{
		Difficulty: difficulty,
		Player:     game.NewPlayer("Rowan"),
	}
	room := &game.Room{Name: "Sunken Vault", Description: "Water drips from a cracked vault ceiling."}
	session.CurrentRoom = room

	ids := 0
	svc, err := New(Options{
		Boundary:           boundary,
		Session:            session,
		Store:              store,
		UseModelEvaluation: useModel,
		Now:                clock.Now,
		NewID: func() (string, error) {
			ids++
			return "chal-" + string(rune('0'+ids)), nil
		},
		Roll: func() float64 { return 0.99 },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &testEnv{service: svc, boundary: boundary, store: store, clock: clock, session: session, room: room}
}

func TestInitiatePopulatesChallengeFromGeneration(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)

	challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if challenge.State != domain.StateActive {
		t.Fatalf("state = %v, want %v", challenge.State, domain.StateActive)
	}
	if challenge.Prompt != "A voice asks: what speaks without a mouth?" {
		t.Fatalf("prompt = %q", challenge.Prompt)
	}
	if challenge.ExpectedPattern != "echo" {
		t.Fatalf("expected pattern = %q", challenge.ExpectedPattern)
	}
	if got := challenge.MetadataValue(domain.MetaHint2); got != "You make it yourself." {
		t.Fatalf("hint2 = %q", got)
	}
	if got := challenge.MetadataValue(domain.MetaCorrectAnswer); got != "an echo" {
		t.Fatalf("correct answer = %q", got)
	}
	if challenge.BaseRewardXP != 75 {
		t.Fatalf("base reward xp = %v, want 75", challenge.BaseRewardXP)
	}
	if challenge.TimeLimit != 120*time.Second {
		t.Fatalf("time limit = %v, want 120s", challenge.TimeLimit)
	}
	if env.store.active == nil {
		t.Fatal("active slot was not persisted")
	}
}

func TestInitiateRejectsSecondChallenge(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypePuzzle); !errors.Is(err, ErrChallengeActive) {
		t.Fatalf("second initiate err = %v, want ErrChallengeActive", err)
	}
}

func TestInitiateServiceUnavailable(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.available = false

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
	if env.service.Active() != nil {
		t.Fatal("no entity should be created")
	}
}

func TestInitiateGenerationFailure(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.generationOK = false

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v, want ErrGenerationFailed", err)
	}
	if env.service.Active() != nil {
		t.Fatal("no entity should be created")
	}
}

func TestInitiateDefaultsTypeByRoomCategory(t *testing.T) {
	tests := []struct {
		name     string
		category game.RoomCategory
		want     domain.Type
	}{
		{name: "ordinary", category: game.RoomOrdinary, want: domain.TypeRiddle},
		{name: "boss", category: game.RoomBoss, want: domain.TypeCombatStandard},
		{name: "safe", category: game.RoomSafe, want: domain.TypePuzzle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, game.DifficultyEasy, true)
			env.room.Category = tt.category

			challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeUnspecified)
			if err != nil {
				t.Fatalf("initiate: %v", err)
			}
			if challenge.Type != tt.want {
				t.Fatalf("type = %v, want %v", challenge.Type, tt.want)
			}
		})
	}
}

func TestSubmitResponseSuccessAwardsXPAndResolves(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.verdict = `{"isCorrect": true, "confidence": 0.9, "reasoning": "Exactly right.", "effectiveness": "FULL"}`

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	result, err := env.service.SubmitResponse(context.Background(), "an echo")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Effectiveness != 90 {
		t.Fatalf("effectiveness = %d, want 90", result.Effectiveness)
	}
	// 75 * 0.9 with no hints, truncated.
	if result.XPAwarded != 67 {
		t.Fatalf("xp awarded = %d, want 67", result.XPAwarded)
	}
	if env.session.Player.XP != 67 {
		t.Fatalf("player xp = %d, want 67", env.session.Player.XP)
	}
	if result.EvaluationMethod != "model" {
		t.Fatalf("evaluation method = %q, want model", result.EvaluationMethod)
	}
	if env.service.Active() != nil {
		t.Fatal("slot should be cleared after resolution")
	}
	if env.store.active != nil {
		t.Fatal("persisted slot should be cleared")
	}
	if len(env.store.completed) != 1 || !env.store.completed[0].Successful {
		t.Fatalf("journal = %+v, want one successful entry", env.store.completed)
	}
}

func TestSubmitResponseFailureConsumesAttempt(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.verdict = `{"isCorrect": false, "confidence": 0.3, "reasoning": "Not an echo.", "effectiveness": "NONE"}`

	challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	result, err := env.service.SubmitResponse(context.Background(), "a ghost")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure")
	}
	if challenge.AttemptsRemaining != 2 {
		t.Fatalf("attempts remaining = %d, want 2", challenge.AttemptsRemaining)
	}
	if challenge.State != domain.StateActive {
		t.Fatalf("state = %v, want %v", challenge.State, domain.StateActive)
	}
	if env.session.Player.Health != 100 {
		t.Fatalf("health = %d, want 100 before exhaustion", env.session.Player.Health)
	}
}

func TestSubmitResponseExhaustionAppliesFullPenalty(t *testing.T) {
	env := newTestEnv(t, game.DifficultyHard, true)
	env.boundary.verdict = `{"isCorrect": false, "confidence": 0.2, "reasoning": "No.", "effectiveness": "NONE"}`

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	var last domain.Result
	for i := 0; i < 3; i++ {
		result, err := env.service.SubmitResponse(context.Background(), "wrong")
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		last = result
	}
	if last.DamageTaken != 35 {
		t.Fatalf("damage taken = %d, want 35", last.DamageTaken)
	}
	if env.session.Player.Health != 65 {
		t.Fatalf("health = %d, want 65", env.session.Player.Health)
	}
	if env.service.Active() != nil {
		t.Fatal("slot should be cleared")
	}
	if len(env.store.completed) != 1 || env.store.completed[0].Successful {
		t.Fatal("journal should hold one failed entry")
	}
	if _, err := env.service.SubmitResponse(context.Background(), "again"); !errors.Is(err, ErrChallengeNotActive) {
		t.Fatalf("submit after resolution err = %v, want ErrChallengeNotActive", err)
	}
}

func TestSubmitResponseUnavailableKeepsChallengeOpen(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.verdictOK = false

	challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if _, err := env.service.SubmitResponse(context.Background(), "an echo"); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("err = %v, want ErrServiceUnavailable", err)
	}
	if challenge.State != domain.StateActive {
		t.Fatalf("state = %v, want %v", challenge.State, domain.StateActive)
	}
	if challenge.AttemptsRemaining != challenge.MaxAttempts {
		t.Fatalf("attempts remaining = %d, want %d", challenge.AttemptsRemaining, challenge.MaxAttempts)
	}
}

func TestSubmitResponseRulesEvaluation(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, false)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	result, err := env.service.SubmitResponse(context.Background(), "it must be an echo")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Success {
		t.Fatal("expected alternate answer to match")
	}
	if result.EvaluationMethod != "rules" {
		t.Fatalf("evaluation method = %q, want rules", result.EvaluationMethod)
	}
	if env.boundary.evaluateCalls != 0 {
		t.Fatalf("evaluate calls = %d, want 0", env.boundary.evaluateCalls)
	}
}

func TestSubmitResponseAfterDeadlineRoutesToTimeout(t *testing.T) {
	env := newTestEnv(t, game.DifficultyMedium, true)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	env.clock.Advance(121 * time.Second)

	result, err := env.service.SubmitResponse(context.Background(), "too late")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Success {
		t.Fatal("expected timeout failure")
	}
	if result.DamageTaken != 20 {
		t.Fatalf("damage taken = %d, want 20", result.DamageTaken)
	}
	if result.Feedback != "Timed out" {
		t.Fatalf("feedback = %q, want Timed out", result.Feedback)
	}
	if env.boundary.evaluateCalls != 0 {
		t.Fatalf("evaluate calls = %d, want 0", env.boundary.evaluateCalls)
	}
	if env.service.Active() != nil {
		t.Fatal("slot should be cleared")
	}
}

func TestTimeoutIsIdempotentAgainstClearedSlot(t *testing.T) {
	env := newTestEnv(t, game.DifficultyHard, true)
	env.boundary.verdict = `{"isCorrect": true, "confidence": 0.9, "reasoning": "Yes.", "effectiveness": "FULL"}`

	challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := env.service.SubmitResponse(context.Background(), "an echo"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	healthBefore := env.session.Player.Health
	env.service.Timeout(challenge.ID)
	if env.session.Player.Health != healthBefore {
		t.Fatalf("health = %d, want %d; stale timer must not damage", env.session.Player.Health, healthBefore)
	}

	// A stale timer must also not touch a later challenge.
	later, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate later: %v", err)
	}
	env.service.Timeout(challenge.ID)
	if got := env.service.Active(); got == nil || got.ID != later.ID {
		t.Fatal("stale timer cleared an unrelated challenge")
	}
}

func TestRequestHintServesCachedTiersAndShrinksPool(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.session.Player.XP = 50

	challenge, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}

	offer, err := env.service.RequestHint(context.Background(), 1)
	if err != nil {
		t.Fatalf("request hint: %v", err)
	}
	if !offer.Cached {
		t.Fatal("hint1 should come from metadata")
	}
	if offer.Text != "It lives in empty halls." {
		t.Fatalf("hint = %q", offer.Text)
	}
	// Level 1 at Easy: 5 * 0.5.
	if offer.Cost != 2.5 {
		t.Fatalf("cost = %v, want 2.5", offer.Cost)
	}
	if env.session.Player.XP != 48 {
		t.Fatalf("player xp = %d, want 48", env.session.Player.XP)
	}
	// Easy pool penalty is 5% of the current pool.
	if challenge.BaseRewardXP != 71.25 {
		t.Fatalf("pool = %v, want 71.25", challenge.BaseRewardXP)
	}
	if challenge.State != domain.StateHintOffered {
		t.Fatalf("state = %v, want %v", challenge.State, domain.StateHintOffered)
	}
	if env.boundary.hintCalls != 0 {
		t.Fatalf("hint calls = %d, want 0", env.boundary.hintCalls)
	}

	second, err := env.service.RequestHint(context.Background(), 2)
	if err != nil {
		t.Fatalf("request second hint: %v", err)
	}
	if !second.Cached {
		t.Fatal("hint2 should come from metadata")
	}
	if challenge.HintsUsed != 2 {
		t.Fatalf("hints used = %d, want 2", challenge.HintsUsed)
	}
}

func TestRequestHintFallsBackToBoundary(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.generation = `{"prompt": "Bare riddle.", "expectedAnswerPattern": "echo"}`

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	offer, err := env.service.RequestHint(context.Background(), 1)
	if err != nil {
		t.Fatalf("request hint: %v", err)
	}
	if offer.Cached {
		t.Fatal("missing metadata hint should route to the boundary")
	}
	if offer.Text != "Listen closely." {
		t.Fatalf("hint = %q", offer.Text)
	}
	if env.boundary.hintCalls != 1 {
		t.Fatalf("hint calls = %d, want 1", env.boundary.hintCalls)
	}
}

func TestRequestHintDisabledAtUltra(t *testing.T) {
	env := newTestEnv(t, game.DifficultyUltra, true)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	if _, err := env.service.RequestHint(context.Background(), 1); !errors.Is(err, ErrHintsDisabled) {
		t.Fatalf("err = %v, want ErrHintsDisabled", err)
	}
	if got := env.service.Active().HintsUsed; got != 0 {
		t.Fatalf("hints used = %d, want 0", got)
	}
}

func TestAbortHalvesPenalty(t *testing.T) {
	env := newTestEnv(t, game.DifficultyHard, true)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	result, err := env.service.Abort(context.Background())
	if err != nil {
		t.Fatalf("abort: %v", err)
	}
	if result.DamageTaken != 17 {
		t.Fatalf("damage taken = %d, want 17", result.DamageTaken)
	}
	if env.session.Player.Health != 83 {
		t.Fatalf("health = %d, want 83", env.session.Player.Health)
	}
	if result.Feedback != "Aborted" {
		t.Fatalf("feedback = %q, want Aborted", result.Feedback)
	}
	if env.service.Active() != nil {
		t.Fatal("slot should be cleared")
	}

	if _, err := env.service.Abort(context.Background()); !errors.Is(err, ErrChallengeNotActive) {
		t.Fatalf("second abort err = %v, want ErrChallengeNotActive", err)
	}
}

func TestItemDropOnSuccess(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.verdict = `{"isCorrect": true, "confidence": 0.9, "reasoning": "Yes.", "effectiveness": "FULL"}`
	env.room.Item = &game.Item{Name: "Vault Key", Description: "A key slick with condensation."}

	svc := env.service
	svc.roll = func() float64 { return 0.05 }

	if _, err := svc.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	result, err := svc.SubmitResponse(context.Background(), "an echo")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Name != "Vault Key" {
		t.Fatalf("items = %+v, want the room item", result.Items)
	}
	if names := env.session.Player.InventoryNames(); len(names) != 1 || names[0] != "Vault Key" {
		t.Fatalf("inventory = %v, want [Vault Key]", names)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	env := newTestEnv(t, game.DifficultyMedium, true)

	original, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := env.service.RequestHint(context.Background(), 1); err != nil {
		t.Fatalf("request hint: %v", err)
	}
	if err := env.service.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A second orchestrator over the same store models a restart.
	env.clock.Advance(30 * time.Second)
	restartedSession := &game.State{Difficulty: game.DifficultyMedium, Player: game.NewPlayer("Rowan")}
	restarted, err := New(Options{
		Boundary:           env.boundary,
		Session:            restartedSession,
		Store:              env.store,
		UseModelEvaluation: true,
		Now:                env.clock.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	loaded, result, err := restarted.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result != nil {
		t.Fatalf("unexpected timeout result: %+v", result)
	}
	if loaded == nil {
		t.Fatal("expected a restored challenge")
	}
	if loaded.ID != original.ID {
		t.Fatalf("id = %q, want %q", loaded.ID, original.ID)
	}
	if loaded.HintsUsed != 1 {
		t.Fatalf("hints used = %d, want 1", loaded.HintsUsed)
	}
	if loaded.BaseRewardXP != original.BaseRewardXP {
		t.Fatalf("pool = %v, want %v", loaded.BaseRewardXP, original.BaseRewardXP)
	}
	remaining, err := restarted.Remaining()
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if remaining != 90*time.Second {
		t.Fatalf("remaining = %v, want 90s", remaining)
	}
}

func TestLoadExpiredSnapshotFiresTimeout(t *testing.T) {
	env := newTestEnv(t, game.DifficultyHard, true)

	if _, err := env.service.Initiate(context.Background(), env.room, domain.TypeRiddle); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if err := env.service.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	env.clock.Advance(10 * time.Minute)
	restartedSession := &game.State{Difficulty: game.DifficultyHard, Player: game.NewPlayer("Rowan")}
	restarted, err := New(Options{
		Boundary: env.boundary,
		Session:  restartedSession,
		Store:    env.store,
		Now:      env.clock.Now,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	loaded, result, err := restarted.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != nil {
		t.Fatal("expired snapshot must not resume")
	}
	if result == nil || result.DamageTaken != 35 {
		t.Fatalf("result = %+v, want full Hard penalty", result)
	}
	if restartedSession.Player.Health != 65 {
		t.Fatalf("health = %d, want 65", restartedSession.Player.Health)
	}
	if restarted.Active() != nil {
		t.Fatal("slot should be cleared")
	}
}

func TestLoadEmptyStore(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)

	loaded, result, err := env.service.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != nil || result != nil {
		t.Fatal("empty store should restore nothing")
	}
}

func TestRecentTypesTrackResolutionOrder(t *testing.T) {
	env := newTestEnv(t, game.DifficultyEasy, true)
	env.boundary.verdict = `{"isCorrect": true, "confidence": 0.9, "reasoning": "Yes.", "effectiveness": "FULL"}`

	sequence := []domain.Type{domain.TypeRiddle, domain.TypePuzzle, domain.TypeNegotiation}
	for _, typ := range sequence {
		if _, err := env.service.Initiate(context.Background(), env.room, typ); err != nil {
			t.Fatalf("initiate %v: %v", typ, err)
		}
		if _, err := env.service.SubmitResponse(context.Background(), "an echo"); err != nil {
			t.Fatalf("submit %v: %v", typ, err)
		}
	}

	recent := env.service.RecentTypes(context.Background())
	want := []domain.Type{domain.TypeNegotiation, domain.TypePuzzle, domain.TypeRiddle}
	if len(recent) != len(want) {
		t.Fatalf("recent len = %d, want %d", len(recent), len(want))
	}
	for i := range want {
		if recent[i] != want[i] {
			t.Fatalf("recent[%d] = %v, want %v", i, recent[i], want[i])
		}
	}
}
