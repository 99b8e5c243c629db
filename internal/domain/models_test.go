package domain

import (
	"errors"
	"testing"
	"time"
)

func TestSettingsValidateAcceptsDefaults(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Fatalf("default settings should validate: %v", err)
	}
}

func TestSettingsValidateRejectsOutOfBounds(t *testing.T) {
	valid := DefaultSettings()
	cases := []struct {
		name   string
		mutate func(*GameSettings)
	}{
		{"starting health too low", func(s *GameSettings) { s.StartingHealth = 4 }},
		{"starting health too high", func(s *GameSettings) { s.StartingHealth = 21 }},
		{"max health too low", func(s *GameSettings) { s.MaxHealth = 9 }},
		{"max health too high", func(s *GameSettings) { s.MaxHealth = 26 }},
		{"max below starting", func(s *GameSettings) { s.StartingHealth = 18; s.MaxHealth = 12 }},
		{"gain zero", func(s *GameSettings) { s.HealthGainCorrect = 0 }},
		{"gain too high", func(s *GameSettings) { s.HealthGainCorrect = 4 }},
		{"loss zero", func(s *GameSettings) { s.HealthLossWrong = 0 }},
		{"loss too high", func(s *GameSettings) { s.HealthLossWrong = 4 }},
		{"time limit too short", func(s *GameSettings) { s.QuestionTimeLimit = 4 }},
		{"time limit too long", func(s *GameSettings) { s.QuestionTimeLimit = 21 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := valid
			tc.mutate(&settings)
			if err := settings.Validate(); !errors.Is(err, ErrInvalidSettings) {
				t.Fatalf("expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestValidateQuestions(t *testing.T) {
	good := []Question{{ID: "q1", Text: "pick", Options: []string{"a", "b"}, CorrectIndex: 1}}
	if err := ValidateQuestions(good); err != nil {
		t.Fatalf("valid question set rejected: %v", err)
	}

	cases := []struct {
		name      string
		questions []Question
	}{
		{"empty set", nil},
		{"single option", []Question{{Options: []string{"a"}, CorrectIndex: 0}}},
		{"correct index negative", []Question{{Options: []string{"a", "b"}, CorrectIndex: -1}}},
		{"correct index out of range", []Question{{Options: []string{"a", "b"}, CorrectIndex: 2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := ValidateQuestions(tc.questions); !errors.Is(err, ErrInvalidQuestionSet) {
				t.Fatalf("expected ErrInvalidQuestionSet, got %v", err)
			}
		})
	}
}

func TestEffectiveTimeLimit(t *testing.T) {
	settings := DefaultSettings()
	withOwn := Question{TimeLimit: 15}
	if got := withOwn.EffectiveTimeLimit(settings); got != 15*time.Second {
		t.Fatalf("expected per-question limit, got %v", got)
	}
	withDefault := Question{}
	if got := withDefault.EffectiveTimeLimit(settings); got != 10*time.Second {
		t.Fatalf("expected session default, got %v", got)
	}
}
