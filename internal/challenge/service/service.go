// Package service owns the single active-challenge slot. It drives the
// lifecycle: context building, generation, evaluation, consequence
// application, the countdown, and save/restore.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/haverlock/undercroft/internal/challenge/domain"
	"github.com/haverlock/undercroft/internal/challenge/eval"
	"github.com/haverlock/undercroft/internal/challenge/reward"
	"github.com/haverlock/undercroft/internal/challenge/storage"
	"github.com/haverlock/undercroft/internal/game"
	"github.com/haverlock/undercroft/internal/llm"
	"github.com/haverlock/undercroft/internal/llm/extract"
)

var (
	// ErrChallengeActive indicates a non-terminal challenge already
	// occupies the slot.
	ErrChallengeActive = errors.New("a challenge is already active")
	// ErrChallengeNotActive indicates no challenge is accepting input.
	ErrChallengeNotActive = errors.New("no challenge is active")
	// ErrServiceUnavailable indicates the generation service is
	// unreachable. Non-fatal; the caller surfaces a notice.
	ErrServiceUnavailable = errors.New("generation service is unavailable")
	// ErrGenerationFailed indicates generation returned nothing usable.
	ErrGenerationFailed = errors.New("challenge generation failed")
	// ErrHintsDisabled indicates hints are turned off for this session.
	ErrHintsDisabled = errors.New("hints are disabled at this difficulty")
)

// historyLimit caps the recent-type ring fed back into generation.
const historyLimit = 10

// RulesEvaluator judges a response locally, without the generation
// service.
type RulesEvaluator interface {
	Evaluate(response, pattern string, alternates []string) (matched bool, effectiveness int)
}

type builtinRules struct{}

func (builtinRules) Evaluate(response, pattern string, alternates []string) (bool, int) {
	return eval.Matches(response, pattern, alternates)
}

// HintOffer is the outcome of a hint request.
type HintOffer struct {
	Text   string
	Level  int
	Cost   float64
	Cached bool
}

// Options configures a Service.
type Options struct {
	Boundary llm.Service
	Session  *game.State

	// Store persists the active slot and the completed journal. Optional;
	// without it save/restore is unavailable and history is in-memory
	// only.
	Store storage.SnapshotStore

	// Rules overrides the built-in keyword matcher for local evaluation.
	Rules RulesEvaluator

	// UseModelEvaluation routes evaluation through the generation
	// service for types that support it. When false all evaluation is
	// local.
	UseModelEvaluation bool

	Now   func() time.Time
	NewID func() (string, error)
	Roll  func() float64
}

// Service is the challenge orchestrator. All mutation of the active
// slot goes through its methods under one mutex; the countdown callback
// takes the same mutex, so the timer/response race resolves to whichever
// acts first.
type Service struct {
	mu sync.Mutex

	boundary llm.Service
	store    storage.SnapshotStore
	session  *game.State
	rules    RulesEvaluator

	useModelEvaluation bool

	now   func() time.Time
	newID func() (string, error)
	roll  func() float64

	active *domain.Challenge
	timer  *time.Timer

	recent   []domain.Type
	hydrated bool
}

// New builds a Service from options.
func New(opts Options) (*Service, error) {
	if opts.Boundary == nil {
		return nil, fmt.Errorf("generation boundary is required")
	}
	if opts.Session == nil {
		return nil, fmt.Errorf("game session is required")
	}
	s := &Service{
		boundary:           opts.Boundary,
		store:              opts.Store,
		session:            opts.Session,
		rules:              opts.Rules,
		useModelEvaluation: opts.UseModelEvaluation,
		now:                opts.Now,
		newID:              opts.NewID,
		roll:               opts.Roll,
	}
	if s.rules == nil {
		s.rules = builtinRules{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.roll == nil {
		s.roll = rand.Float64
	}
	return s, nil
}

// Active returns the challenge occupying the slot, or nil.
func (s *Service) Active() *domain.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Remaining returns the time left on the active countdown.
func (s *Service) Remaining() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0, ErrChallengeNotActive
	}
	return s.active.Remaining(s.now), nil
}

// defaultTypeForRoom picks the challenge type a room category implies.
func defaultTypeForRoom(room *game.Room) domain.Type {
	if room == nil {
		return domain.TypeRiddle
	}
	switch room.Category {
	case game.RoomBoss:
		return domain.TypeCombatStandard
	case game.RoomSafe:
		return domain.TypePuzzle
	default:
		return domain.TypeRiddle
	}
}

// Initiate generates and activates a new challenge for the room. The
// type defaults by room category when unspecified.
func (s *Service) Initiate(ctx context.Context, room *game.Room, typ domain.Type) (*domain.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && !s.active.State.Terminal() {
		return nil, ErrChallengeActive
	}
	if !s.boundary.IsAvailable(ctx) {
		return nil, ErrServiceUnavailable
	}

	if typ == domain.TypeUnspecified {
		typ = defaultTypeForRoom(room)
	}
	tier := domain.DifficultyForGame(s.session.Difficulty)

	s.hydrateHistory(ctx)
	snapshot := domain.BuildContext(domain.ContextInput{
		Player:  s.session.Player,
		Room:    room,
		Type:    typ,
		Tier:    tier,
		History: s.recent,
	})

	raw, ok := s.boundary.GenerateChallenge(ctx, snapshot.Prompt())
	if !ok {
		log.Printf("event=challenge_generation_failed type=%s tier=%s", typ, tier)
		return nil, ErrGenerationFailed
	}

	object := extract.Object(raw)
	challenge, err := domain.New(domain.NewInput{
		Type:            typ,
		Difficulty:      tier,
		Prompt:          extract.String(object, "prompt"),
		Description:     extract.String(object, "desc"),
		ExpectedPattern: extract.String(object, "expectedAnswerPattern"),
	}, s.now, s.newID)
	if err != nil {
		log.Printf("event=challenge_entity_rejected type=%s err=%q", typ, err)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	challenge.SetMetadata(domain.MetaHint1, extract.String(object, "hint1"))
	challenge.SetMetadata(domain.MetaHint2, extract.String(object, "hint2"))
	challenge.SetMetadata(domain.MetaHint3, extract.String(object, "hint3"))
	challenge.SetMetadata(domain.MetaCorrectAnswer, extract.String(object, "correctAnswer"))
	challenge.SetMetadata(domain.MetaExpectedPattern, challenge.ExpectedPattern)
	challenge.SetMetadata(domain.MetaAlternates, extract.Raw(object, "alternateAnswers"))

	challenge.Activate(s.now)
	s.active = challenge
	s.armTimerLocked(challenge)
	s.persistActiveLocked(context.WithoutCancel(ctx))

	log.Printf("event=challenge_started id=%s type=%s tier=%s limit=%s",
		challenge.ID, challenge.Type, challenge.Difficulty, challenge.TimeLimit)
	return challenge, nil
}

// SubmitResponse judges a player response against the active challenge.
// A challenge whose countdown already expired routes to the timeout path
// instead of evaluating.
func (s *Service) SubmitResponse(ctx context.Context, text string) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || !s.active.State.CanAcceptInput() {
		return domain.Result{}, ErrChallengeNotActive
	}
	if s.active.TimedOut(s.now) {
		return s.timeoutLocked(ctx, s.active.ID), nil
	}

	challenge := s.active
	if err := challenge.RecordResponse(text); err != nil {
		return domain.Result{}, err
	}
	if err := challenge.BeginEvaluation(); err != nil {
		return domain.Result{}, err
	}

	var (
		success       bool
		effectiveness int
		feedback      string
		method        string
	)
	if challenge.Type.Policy().RequiresModelEvaluation && s.useModelEvaluation {
		raw, ok := s.boundary.EvaluateResponse(ctx, text, challenge.ExpectedPattern, challenge.Prompt)
		if !ok {
			// Unavailable mid-challenge: no attempt is consumed, the
			// challenge stays open, the caller surfaces a notice.
			challenge.ResumeInput()
			return domain.Result{}, ErrServiceUnavailable
		}
		verdict := eval.ParseVerdict(raw)
		success = verdict.IsCorrect
		effectiveness = eval.Rating(verdict)
		feedback = eval.Feedback(verdict)
		method = "model"
	} else {
		alternates := parseAlternates(challenge.MetadataValue(domain.MetaAlternates))
		success, effectiveness = s.rules.Evaluate(text, challenge.ExpectedPattern, alternates)
		if success {
			feedback = "Your answer holds."
		} else {
			feedback = "That is not it."
		}
		method = "rules"
	}

	if success {
		result := s.applySuccessLocked(challenge, effectiveness, feedback)
		result.EvaluationMethod = method
		challenge.Complete(true, feedback, s.now)
		s.resolveLocked(ctx, challenge)
		return result, nil
	}

	if err := challenge.ConsumeAttempt(); err != nil {
		return domain.Result{}, err
	}
	if !challenge.HasAttemptsRemaining() {
		result := s.applyFailureLocked(challenge, feedback)
		result.EvaluationMethod = method
		challenge.Complete(false, feedback, s.now)
		s.resolveLocked(ctx, challenge)
		return result, nil
	}

	challenge.ResumeInput()
	s.persistActiveLocked(context.WithoutCancel(ctx))
	return domain.Result{
		Success:          false,
		Effectiveness:    effectiveness,
		Feedback:         feedback,
		EvaluationMethod: method,
	}, nil
}

// RequestHint serves a hint for the active challenge: the cached tier
// from generation when present, otherwise a fresh one from the boundary.
// Consumption costs player XP and shrinks the reward pool.
func (s *Service) RequestHint(ctx context.Context, level int) (HintOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || !s.active.State.CanAcceptInput() {
		return HintOffer{}, ErrChallengeNotActive
	}
	if !reward.HintsAllowed(s.session.Difficulty) {
		return HintOffer{}, ErrHintsDisabled
	}

	challenge := s.active
	text := challenge.MetadataValue(hintKey(level))
	cached := text != ""
	if !cached {
		answer := challenge.MetadataValue(domain.MetaCorrectAnswer)
		fresh, ok := s.boundary.GenerateHint(ctx, challenge.Prompt, answer, level)
		if !ok {
			return HintOffer{}, ErrServiceUnavailable
		}
		text = fresh
	}

	cost := reward.HintCost(level, challenge.Difficulty)
	if s.session.Player != nil {
		s.session.Player.SpendXP(int(cost))
	}
	challenge.ConsumeHint(reward.PoolPenalty(s.session.Difficulty))
	challenge.OfferHint()
	s.persistActiveLocked(context.WithoutCancel(ctx))

	log.Printf("event=hint_served id=%s level=%d cost=%.1f cached=%t pool=%.1f",
		challenge.ID, level, cost, cached, challenge.BaseRewardXP)
	return HintOffer{Text: text, Level: level, Cost: cost, Cached: cached}, nil
}

// Abort gives up the active challenge for a halved damage penalty.
func (s *Service) Abort(ctx context.Context) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.State.Terminal() {
		return domain.Result{}, ErrChallengeNotActive
	}

	challenge := s.active
	damage := reward.AbortDamage(challenge.Difficulty)
	if s.session.Player != nil {
		s.session.Player.TakeDamage(damage)
	}
	challenge.Complete(false, "Aborted", s.now)
	s.resolveLocked(ctx, challenge)
	return domain.Result{
		Feedback:    "Aborted",
		DamageTaken: damage,
	}, nil
}

// Timeout applies the expiry penalty to the named challenge. Firing
// against a cleared or unrelated slot is a no-op.
func (s *Service) Timeout(challengeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeoutLocked(context.Background(), challengeID)
}

func (s *Service) timeoutLocked(ctx context.Context, challengeID string) domain.Result {
	challenge := s.active
	if challenge == nil || challenge.ID != challengeID || challenge.State.Terminal() {
		return domain.Result{}
	}

	result := s.applyFailureLocked(challenge, "Timed out")
	challenge.Complete(false, "Timed out", s.now)
	s.resolveLocked(ctx, challenge)
	log.Printf("event=challenge_timed_out id=%s damage=%d", challenge.ID, result.DamageTaken)
	return result
}

// Save persists the active challenge snapshot.
func (s *Service) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrChallengeNotActive
	}
	if s.store == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := s.store.SaveActive(ctx, s.active.Snapshot()); err != nil {
		return fmt.Errorf("save challenge: %w", err)
	}
	return nil
}

// Load restores a saved challenge into the slot. Remaining time is
// recomputed against the wall clock; a snapshot that already expired
// fires the timeout path immediately, and its penalty result is
// returned instead of a challenge.
func (s *Service) Load(ctx context.Context) (*domain.Challenge, *domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && !s.active.State.Terminal() {
		return nil, nil, ErrChallengeActive
	}
	if s.store == nil {
		return nil, nil, fmt.Errorf("storage is not configured")
	}

	snapshot, err := s.store.LoadActive(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load challenge: %w", err)
	}

	challenge := domain.FromSnapshot(snapshot)
	s.active = challenge
	if challenge.TimedOut(s.now) {
		result := s.timeoutLocked(ctx, challenge.ID)
		return nil, &result, nil
	}

	s.armTimerLocked(challenge)
	log.Printf("event=challenge_restored id=%s remaining=%s", challenge.ID, challenge.Remaining(s.now))
	return challenge, nil, nil
}

// RecentTypes returns the most recently resolved challenge types,
// most-recent-first.
func (s *Service) RecentTypes(ctx context.Context) []domain.Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hydrateHistory(ctx)
	out := make([]domain.Type, len(s.recent))
	copy(out, s.recent)
	return out
}

// applySuccessLocked computes and applies success consequences.
func (s *Service) applySuccessLocked(challenge *domain.Challenge, effectiveness int, feedback string) domain.Result {
	xp := int(reward.XP(challenge.BaseRewardXP, effectiveness, challenge.HintsUsed))
	result := domain.Result{
		Success:       true,
		Effectiveness: effectiveness,
		Feedback:      feedback,
		XPAwarded:     xp,
		DamageDealt:   reward.DamageDealt(challenge.Difficulty, effectiveness),
	}

	player := s.session.Player
	if player != nil {
		player.AddXP(xp)
	}
	if reward.DropsItem(challenge.Difficulty, s.roll()) {
		item := dropItem(s.session.CurrentRoom)
		result.Items = append(result.Items, item)
		if player != nil {
			player.AddItem(item)
		}
	}
	return result
}

// applyFailureLocked applies the zero-effectiveness damage penalty.
func (s *Service) applyFailureLocked(challenge *domain.Challenge, feedback string) domain.Result {
	damage := reward.DamageTaken(challenge.Difficulty, 0)
	if s.session.Player != nil {
		s.session.Player.TakeDamage(damage)
	}
	return domain.Result{
		Feedback:    feedback,
		DamageTaken: damage,
	}
}

// resolveLocked ends the lifecycle: stops the countdown, journals the
// outcome, records the type in the history ring, and clears the slot.
func (s *Service) resolveLocked(ctx context.Context, challenge *domain.Challenge) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	challenge.Resolve()

	s.recent = append([]domain.Type{challenge.Type}, s.recent...)
	if len(s.recent) > historyLimit {
		s.recent = s.recent[:historyLimit]
	}

	if s.store != nil {
		ctx = context.WithoutCancel(ctx)
		if err := s.store.AppendCompleted(ctx, challenge.Snapshot()); err != nil {
			log.Printf("event=challenge_journal_failed id=%s err=%q", challenge.ID, err)
		}
		if err := s.store.ClearActive(ctx); err != nil {
			log.Printf("event=challenge_clear_failed id=%s err=%q", challenge.ID, err)
		}
	}

	s.active = nil
	log.Printf("event=challenge_resolved id=%s success=%t", challenge.ID, challenge.Successful)
}

// armTimerLocked schedules the countdown callback for the challenge. The
// callback re-checks slot identity under the mutex, so a stale timer can
// never act on a later challenge.
func (s *Service) armTimerLocked(challenge *domain.Challenge) {
	if s.timer != nil {
		s.timer.Stop()
	}
	remaining := challenge.Remaining(s.now)
	if remaining < 0 {
		remaining = 0
	}
	challengeID := challenge.ID
	s.timer = time.AfterFunc(remaining, func() {
		s.Timeout(challengeID)
	})
}

// persistActiveLocked saves the slot best-effort; a storage failure must
// not break the turn.
func (s *Service) persistActiveLocked(ctx context.Context) {
	if s.store == nil || s.active == nil {
		return
	}
	if err := s.store.SaveActive(ctx, s.active.Snapshot()); err != nil {
		log.Printf("event=challenge_persist_failed id=%s err=%q", s.active.ID, err)
	}
}

// hydrateHistory seeds the recent-type ring from the journal once.
func (s *Service) hydrateHistory(ctx context.Context) {
	if s.hydrated || s.store == nil {
		s.hydrated = true
		return
	}
	s.hydrated = true
	types, err := s.store.RecentTypes(ctx, historyLimit)
	if err != nil {
		log.Printf("event=challenge_history_failed err=%q", err)
		return
	}
	s.recent = types
}

func hintKey(level int) string {
	switch level {
	case 1:
		return domain.MetaHint1
	case 2:
		return domain.MetaHint2
	case 3:
		return domain.MetaHint3
	default:
		return ""
	}
}

// dropItem picks the room's staged reward when present.
func dropItem(room *game.Room) game.Item {
	if room != nil && room.Item != nil {
		return *room.Item
	}
	return game.Item{
		Name:        "Worn Talisman",
		Description: "A trinket pried from the dark. It hums faintly.",
	}
}

// parseAlternates decodes the alternate-answer list carried verbatim in
// metadata. Unparsable text yields no alternates rather than an error.
func parseAlternates(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var alternates []string
	if err := json.Unmarshal([]byte(raw), &alternates); err != nil {
		return nil
	}
	return alternates
}
