package domain

import "errors"

var (
	// ErrInvalidSettings is returned when game settings fall outside their documented bounds.
	ErrInvalidSettings = errors.New("invalid game settings")
	// ErrInvalidQuestionSet is returned when a question set is empty or malformed.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrSessionNotFound is returned when no live session exists for a code.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotJoinable is returned when joining a session that has left the lobby.
	ErrSessionNotJoinable = errors.New("session not joinable")
	// ErrDuplicateName is returned when a display name collides case-insensitively.
	ErrDuplicateName = errors.New("display name already taken")
	// ErrForbidden is returned when a non-host tries a host-only operation.
	ErrForbidden = errors.New("operation restricted to session host")
	// ErrEmptyRoster is returned when starting a session with no players.
	ErrEmptyRoster = errors.New("cannot start with an empty roster")
	// ErrWrongPhase is returned when an operation is invalid for the current phase.
	ErrWrongPhase = errors.New("operation invalid in current phase")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("answer already recorded for this question")
	// ErrPlayerNotFound indicates an unknown player ID for the session.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrCodeExhausted is returned when the registry cannot mint a unique code.
	ErrCodeExhausted = errors.New("could not allocate a unique session code")
)
