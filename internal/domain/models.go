package domain

import (
	"fmt"
	"time"
)

// Phase is a session's current lifecycle stage.
type Phase string

const (
	PhaseLobby          Phase = "lobby"
	PhaseQuestionActive Phase = "question-active"
	PhaseQuestionReveal Phase = "question-reveal"
	PhaseFinal          Phase = "final"
)

// Bounds for GameSettings validation.
const (
	MinStartingHealth = 5
	MaxStartingHealth = 20
	MinMaxHealth      = 10
	MaxMaxHealth      = 25
	MinHealthDelta    = 1
	MaxHealthDelta    = 3
	MinTimeLimit      = 5
	MaxTimeLimit      = 20
)

// GameSettings configures health and timing for one session.
type GameSettings struct {
	StartingHealth    int `json:"startingHealth" yaml:"startingHealth"`
	MaxHealth         int `json:"maxHealth" yaml:"maxHealth"`
	HealthGainCorrect int `json:"healthGainCorrect" yaml:"healthGainCorrect"`
	HealthLossWrong   int `json:"healthLossWrong" yaml:"healthLossWrong"`
	QuestionTimeLimit int `json:"questionTimeLimit" yaml:"questionTimeLimit"` // seconds
}

// DefaultSettings mirrors the host-facing defaults.
func DefaultSettings() GameSettings {
	return GameSettings{
		StartingHealth:    10,
		MaxHealth:         15,
		HealthGainCorrect: 1,
		HealthLossWrong:   1,
		QuestionTimeLimit: 10,
	}
}

// Validate rejects out-of-bounds combinations before a session is created.
func (s GameSettings) Validate() error {
	if s.StartingHealth < MinStartingHealth || s.StartingHealth > MaxStartingHealth {
		return fmt.Errorf("%w: starting health %d outside [%d,%d]", ErrInvalidSettings, s.StartingHealth, MinStartingHealth, MaxStartingHealth)
	}
	if s.MaxHealth < MinMaxHealth || s.MaxHealth > MaxMaxHealth {
		return fmt.Errorf("%w: max health %d outside [%d,%d]", ErrInvalidSettings, s.MaxHealth, MinMaxHealth, MaxMaxHealth)
	}
	if s.MaxHealth < s.StartingHealth {
		return fmt.Errorf("%w: max health %d below starting health %d", ErrInvalidSettings, s.MaxHealth, s.StartingHealth)
	}
	if s.HealthGainCorrect < MinHealthDelta || s.HealthGainCorrect > MaxHealthDelta {
		return fmt.Errorf("%w: health gain %d outside [%d,%d]", ErrInvalidSettings, s.HealthGainCorrect, MinHealthDelta, MaxHealthDelta)
	}
	if s.HealthLossWrong < MinHealthDelta || s.HealthLossWrong > MaxHealthDelta {
		return fmt.Errorf("%w: health loss %d outside [%d,%d]", ErrInvalidSettings, s.HealthLossWrong, MinHealthDelta, MaxHealthDelta)
	}
	if s.QuestionTimeLimit < MinTimeLimit || s.QuestionTimeLimit > MaxTimeLimit {
		return fmt.Errorf("%w: time limit %ds outside [%d,%d]", ErrInvalidSettings, s.QuestionTimeLimit, MinTimeLimit, MaxTimeLimit)
	}
	return nil
}

// Question models an MCQ question with one correct option index.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	TimeLimit    int      `json:"timeLimit,omitempty"` // seconds; falls back to the session default
}

// EffectiveTimeLimit returns the per-question limit or the session default.
func (q Question) EffectiveTimeLimit(settings GameSettings) time.Duration {
	limit := q.TimeLimit
	if limit <= 0 {
		limit = settings.QuestionTimeLimit
	}
	return time.Duration(limit) * time.Second
}

// QuestionSet is an ordered, externally authored collection of questions.
type QuestionSet struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// ValidateQuestions checks the authoring contract: non-empty set, every question
// with at least two options and a correct index within bounds.
func ValidateQuestions(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuestionSet)
	}
	for i, q := range questions {
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options, need at least 2", ErrInvalidQuestionSet, i, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct index %d outside options", ErrInvalidQuestionSet, i, q.CorrectIndex)
		}
		if q.TimeLimit < 0 {
			return fmt.Errorf("%w: question %d has negative time limit", ErrInvalidQuestionSet, i)
		}
	}
	return nil
}

// AnswerState tracks a player's standing on the current question.
type AnswerState string

const (
	AnswerPending   AnswerState = "unanswered"
	AnswerSubmitted AnswerState = "answered"
	AnswerTimedOut  AnswerState = "timed-out"
)

// QuestionResult records the outcome of one player's answer to one question.
type QuestionResult struct {
	QuestionID    string `json:"questionId"`
	PlayerID      string `json:"playerId"`
	SelectedIndex int    `json:"selectedIndex"` // -1 for timed-out / explicit pass
	Correct       bool   `json:"correct"`
	TimeToAnswer  int    `json:"timeToAnswerMs"`
	HealthChange  int    `json:"healthChange"`
	PointsEarned  int    `json:"pointsEarned"`
}

// PlayerView is the externally visible roster entry.
type PlayerView struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Avatar      Avatar      `json:"avatar"`
	AvatarURL   string      `json:"avatarUrl"`
	Health      int         `json:"health"`
	MaxHealth   int         `json:"maxHealth"`
	Points      int         `json:"points"`
	Ready       bool        `json:"ready"`
	Eliminated  bool        `json:"eliminated"`
	AnswerState AnswerState `json:"answerState"`
}

// RankEntry is one leaderboard row, ordered by points desc then health desc.
type RankEntry struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Health     int    `json:"health"`
	Rank       int    `json:"rank"`
	RankChange int    `json:"rankChange"`
	Eliminated bool   `json:"eliminated"`
}

// QuestionView is the question as shown to clients. CorrectIndex is withheld
// while the question is still answerable.
type QuestionView struct {
	ID           string   `json:"id"`
	Index        int      `json:"index"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	TimeLimit    int      `json:"timeLimit"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

// SessionView is an immutable point-in-time snapshot of a session's
// externally visible state, pushed to every observer on each transition.
type SessionView struct {
	Code          string           `json:"code"`
	Phase         Phase            `json:"phase"`
	QuestionIndex int              `json:"questionIndex"`
	QuestionCount int              `json:"questionCount"`
	Deadline      time.Time        `json:"deadline,omitempty"`
	Question      *QuestionView    `json:"question,omitempty"`
	Results       []QuestionResult `json:"results,omitempty"`
	Players       []PlayerView     `json:"players"`
	Leaderboard   []RankEntry      `json:"leaderboard"`
	Champion      *RankEntry       `json:"champion,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}
