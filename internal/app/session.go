package app

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/domain"
)

// Options tunes session timing that is not part of the host-facing settings.
type Options struct {
	// RevealDuration is how long the question-reveal phase lasts.
	RevealDuration time.Duration
	// FinalExpiry is how long a finished session stays resident before the
	// registry tears it down.
	FinalExpiry time.Duration
}

const (
	defaultRevealDuration = 5 * time.Second
	defaultFinalExpiry    = 2 * time.Minute
)

func (o Options) withDefaults() Options {
	if o.RevealDuration <= 0 {
		o.RevealDuration = defaultRevealDuration
	}
	if o.FinalExpiry <= 0 {
		o.FinalExpiry = defaultFinalExpiry
	}
	return o
}

type answerRecord struct {
	option  int // -1 for an explicit pass or timeout
	elapsed time.Duration
	state   domain.AnswerState
}

type playerState struct {
	id         string
	name       string
	avatar     domain.Avatar
	health     int
	points     int
	ready      bool
	eliminated bool
	rankChange int
	answer     *answerRecord
}

// Session owns one quiz game's full lifecycle: roster, phase transitions,
// authoritative timers, scoring application, and snapshot fan-out. All
// mutations are serialized behind one mutex so a timer deadline and a
// last-second answer can never interleave.
type Session struct {
	code      string
	hostID    string
	settings  domain.GameSettings
	questions []domain.Question
	clock     clockwork.Clock
	opts      Options
	log       zerolog.Logger
	onExpire  func(code string)

	mu          sync.Mutex
	phase       domain.Phase
	current     int
	phaseStart  time.Time
	deadline    time.Time
	players     []*playerState
	results     []domain.QuestionResult
	subscribers map[chan domain.SessionView]struct{}

	// timerGen is the idempotency guard: a timer callback only acts if its
	// generation still matches, so a stale deadline can never fire into a
	// later phase.
	timerGen  uint64
	timer     clockwork.Timer
	timerDone chan struct{}
	destroyed bool
}

// NewSession builds a session in the lobby phase. onExpire is invoked (outside
// the session lock) when the post-final expiry elapses.
func NewSession(code, hostID string, settings domain.GameSettings, questions []domain.Question, clock clockwork.Clock, opts Options, log zerolog.Logger, onExpire func(code string)) *Session {
	if onExpire == nil {
		onExpire = func(string) {}
	}
	return &Session{
		code:        code,
		hostID:      hostID,
		settings:    settings,
		questions:   questions,
		clock:       clock,
		opts:        opts.withDefaults(),
		log:         log.With().Str("session", code).Logger(),
		onExpire:    onExpire,
		phase:       domain.PhaseLobby,
		subscribers: make(map[chan domain.SessionView]struct{}),
	}
}

// Code returns the immutable join code.
func (s *Session) Code() string {
	return s.code
}

// Join adds a player to the roster while the session is still in the lobby.
// Display names are unique case-insensitively; collisions are rejected.
func (s *Session) Join(name string, avatar domain.Avatar) (string, domain.SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return "", domain.SessionView{}, domain.ErrSessionNotFound
	}
	if s.phase != domain.PhaseLobby {
		return "", domain.SessionView{}, domain.ErrSessionNotJoinable
	}
	for _, p := range s.players {
		if strings.EqualFold(p.name, name) {
			return "", domain.SessionView{}, domain.ErrDuplicateName
		}
	}

	player := &playerState{
		id:     uuid.NewString(),
		name:   name,
		avatar: avatar,
		health: s.settings.StartingHealth,
		ready:  true,
	}
	s.players = append(s.players, player)
	s.log.Info().Str("player", player.id).Str("name", name).Msg("player joined")
	return player.id, s.broadcastLocked(), nil
}

// Leave removes a player from the lobby roster. Once the game has started the
// player stays in play; a dropped connection is not an elimination.
func (s *Session) Leave(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.phase != domain.PhaseLobby {
		return
	}
	for i, p := range s.players {
		if p.id == playerID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			s.log.Info().Str("player", playerID).Msg("player left lobby")
			s.broadcastLocked()
			return
		}
	}
}

// Start moves the session from lobby into the first question. Only the host
// may start, and only with a non-empty roster.
func (s *Session) Start(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return domain.ErrSessionNotFound
	}
	if s.phase != domain.PhaseLobby {
		return domain.ErrWrongPhase
	}
	if hostID != s.hostID {
		return domain.ErrForbidden
	}
	if len(s.players) == 0 {
		return domain.ErrEmptyRoster
	}

	s.current = 0
	s.log.Info().Int("players", len(s.players)).Int("questions", len(s.questions)).Msg("session started")
	s.beginQuestionLocked()
	return nil
}

// SubmitAnswer records a player's answer for the current question. A nil
// option is an explicit pass, scored like a timeout. When every player still
// standing has answered, the question closes early.
func (s *Session) SubmitAnswer(playerID string, option *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return domain.ErrSessionNotFound
	}
	if s.phase != domain.PhaseQuestionActive {
		return domain.ErrWrongPhase
	}
	player := s.playerLocked(playerID)
	if player == nil {
		return domain.ErrPlayerNotFound
	}
	if player.answer != nil {
		return domain.ErrAlreadyAnswered
	}

	limit := s.questions[s.current].EffectiveTimeLimit(s.settings)
	if option == nil {
		player.answer = &answerRecord{option: domain.TimedOutAnswer, elapsed: limit, state: domain.AnswerTimedOut}
	} else {
		elapsed := s.clock.Now().Sub(s.phaseStart)
		if elapsed > limit {
			elapsed = limit
		}
		player.answer = &answerRecord{option: *option, elapsed: elapsed, state: domain.AnswerSubmitted}
	}

	if s.allAnsweredLocked() {
		s.log.Debug().Int("question", s.current).Msg("all players answered, closing early")
		s.closeQuestionLocked()
	} else {
		s.broadcastLocked()
	}
	return nil
}

// Subscribe registers an observer for snapshot pushes. The current snapshot is
// delivered immediately; the caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.SessionView, func(), error) {
	ch := make(chan domain.SessionView, 8)

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Snapshot returns the current externally visible state.
func (s *Session) Snapshot() domain.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Destroy releases the session's timer and closes every subscriber channel.
// Idempotent.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return
	}
	s.destroyed = true
	s.cancelTimerLocked()
	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan domain.SessionView]struct{})
	s.log.Info().Msg("session destroyed")
}

func (s *Session) playerLocked(playerID string) *playerState {
	for _, p := range s.players {
		if p.id == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) allAnsweredLocked() bool {
	for _, p := range s.players {
		if !p.eliminated && p.answer == nil {
			return false
		}
	}
	return true
}

// beginQuestionLocked enters question-active for s.current: clears per-question
// state, arms the deadline timer, and broadcasts.
func (s *Session) beginQuestionLocked() {
	for _, p := range s.players {
		p.answer = nil
	}
	s.results = nil

	question := s.questions[s.current]
	limit := question.EffectiveTimeLimit(s.settings)
	s.phase = domain.PhaseQuestionActive
	s.phaseStart = s.clock.Now()
	s.deadline = s.phaseStart.Add(limit)
	s.armTimerLocked(limit, s.closeQuestion)
	s.log.Info().Int("question", s.current).Dur("limit", limit).Msg("question opened")
	s.broadcastLocked()
}

// closeQuestion is the deadline timer callback.
func (s *Session) closeQuestion(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || gen != s.timerGen || s.phase != domain.PhaseQuestionActive {
		return
	}
	s.log.Debug().Int("question", s.current).Msg("question deadline elapsed")
	s.closeQuestionLocked()
}

// closeQuestionLocked resolves the current question: players without an answer
// are treated as timed out, every recorded answer is scored, and the session
// moves to question-reveal. Exactly one close runs per question index; callers
// are already serialized and phase-checked.
func (s *Session) closeQuestionLocked() {
	question := s.questions[s.current]
	limit := question.EffectiveTimeLimit(s.settings)
	prevRanks := s.rankIndexLocked()

	s.results = make([]domain.QuestionResult, 0, len(s.players))
	for _, p := range s.players {
		if p.answer == nil {
			p.answer = &answerRecord{option: domain.TimedOutAnswer, elapsed: limit, state: domain.AnswerTimedOut}
		}
		rec := p.answer

		correct := rec.option == question.CorrectIndex
		points := domain.Score(correct, limit-rec.elapsed, limit)
		before := p.health
		p.points += points
		p.health = domain.ClampHealth(p.health+domain.HealthDelta(correct, s.settings.HealthGainCorrect, s.settings.HealthLossWrong), s.settings.MaxHealth)
		if p.health == 0 {
			p.eliminated = true
		}

		s.results = append(s.results, domain.QuestionResult{
			QuestionID:    question.ID,
			PlayerID:      p.id,
			SelectedIndex: rec.option,
			Correct:       correct,
			TimeToAnswer:  int(rec.elapsed / time.Millisecond),
			HealthChange:  p.health - before,
			PointsEarned:  points,
		})
	}

	newRanks := s.rankIndexLocked()
	for _, p := range s.players {
		p.rankChange = prevRanks[p.id] - newRanks[p.id]
	}

	s.phase = domain.PhaseQuestionReveal
	s.phaseStart = s.clock.Now()
	s.deadline = s.phaseStart.Add(s.opts.RevealDuration)
	s.armTimerLocked(s.opts.RevealDuration, s.advance)
	s.log.Info().Int("question", s.current).Msg("question closed")
	s.broadcastLocked()
}

// advance is the reveal timer callback: next question, or final after the last.
func (s *Session) advance(gen uint64) {
	s.mu.Lock()
	if s.destroyed || gen != s.timerGen || s.phase != domain.PhaseQuestionReveal {
		s.mu.Unlock()
		return
	}

	if s.current == len(s.questions)-1 {
		s.phase = domain.PhaseFinal
		s.phaseStart = s.clock.Now()
		s.deadline = time.Time{}
		s.armTimerLocked(s.opts.FinalExpiry, s.expire)
		s.log.Info().Msg("session finished")
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}

	s.current++
	s.beginQuestionLocked()
	s.mu.Unlock()
}

// expire fires once FinalExpiry elapses after the final snapshot.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if s.destroyed || gen != s.timerGen || s.phase != domain.PhaseFinal {
		s.mu.Unlock()
		return
	}
	code := s.code
	s.mu.Unlock()

	// Registry teardown re-enters Destroy, which takes the lock itself.
	s.onExpire(code)
}

// armTimerLocked replaces the session's one-shot timer. The previous timer is
// stopped and its watcher released before the new one is armed, so only the
// newest generation can ever act.
func (s *Session) armTimerLocked(d time.Duration, fire func(gen uint64)) {
	s.timerGen++
	gen := s.timerGen
	s.cancelTimerLocked()

	t := s.clock.NewTimer(d)
	done := make(chan struct{})
	s.timer = t
	s.timerDone = done

	go func() {
		select {
		case <-t.Chan():
			fire(gen)
		case <-done:
		}
	}()
}

func (s *Session) cancelTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.timerDone != nil {
		close(s.timerDone)
		s.timerDone = nil
	}
}

func (s *Session) broadcastLocked() domain.SessionView {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the oldest pending snapshot so a slow observer never
			// blocks the session; it will catch up on the newest state.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked() domain.SessionView {
	view := domain.SessionView{
		Code:          s.code,
		Phase:         s.phase,
		QuestionIndex: s.current,
		QuestionCount: len(s.questions),
		Players:       make([]domain.PlayerView, 0, len(s.players)),
		Leaderboard:   s.leaderboardLocked(),
		UpdatedAt:     s.clock.Now(),
	}

	for _, p := range s.players {
		state := domain.AnswerPending
		if p.answer != nil {
			state = p.answer.state
		}
		view.Players = append(view.Players, domain.PlayerView{
			ID:          p.id,
			Name:        p.name,
			Avatar:      p.avatar,
			AvatarURL:   p.avatar.URL(),
			Health:      p.health,
			MaxHealth:   s.settings.MaxHealth,
			Points:      p.points,
			Ready:       p.ready,
			Eliminated:  p.eliminated,
			AnswerState: state,
		})
	}

	switch s.phase {
	case domain.PhaseQuestionActive:
		view.Deadline = s.deadline
		view.Question = s.questionViewLocked(false)
	case domain.PhaseQuestionReveal:
		view.Deadline = s.deadline
		view.Question = s.questionViewLocked(true)
		view.Results = append([]domain.QuestionResult(nil), s.results...)
	case domain.PhaseFinal:
		if len(view.Leaderboard) > 0 {
			champion := view.Leaderboard[0]
			view.Champion = &champion
		}
	}
	return view
}

// questionViewLocked renders the current question. The correct index is only
// revealed once the question can no longer be answered.
func (s *Session) questionViewLocked(revealed bool) *domain.QuestionView {
	q := s.questions[s.current]
	view := &domain.QuestionView{
		ID:        q.ID,
		Index:     s.current,
		Text:      q.Text,
		Options:   append([]string(nil), q.Options...),
		TimeLimit: int(q.EffectiveTimeLimit(s.settings) / time.Second),
	}
	if revealed {
		correct := q.CorrectIndex
		view.CorrectIndex = &correct
	}
	return view
}

// leaderboardLocked orders players by points desc, health desc, then name for
// a stable total order.
func (s *Session) leaderboardLocked() []domain.RankEntry {
	entries := make([]domain.RankEntry, 0, len(s.players))
	for _, p := range s.players {
		entries = append(entries, domain.RankEntry{
			PlayerID:   p.id,
			Name:       p.name,
			Points:     p.points,
			Health:     p.health,
			RankChange: p.rankChange,
			Eliminated: p.eliminated,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		if entries[i].Health != entries[j].Health {
			return entries[i].Health > entries[j].Health
		}
		return entries[i].Name < entries[j].Name
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// rankIndexLocked maps player ID to current leaderboard rank.
func (s *Session) rankIndexLocked() map[string]int {
	ranks := make(map[string]int, len(s.players))
	for _, entry := range s.leaderboardLocked() {
		ranks[entry.PlayerID] = entry.Rank
	}
	return ranks
}
