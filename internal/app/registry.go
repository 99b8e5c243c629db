package app

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/domain"
)

// SessionStore abstracts how live sessions are indexed by code (in-memory,
// Redis-backed, etc). Put must be atomic put-if-absent so two creates can
// never claim the same code.
type SessionStore interface {
	Put(code string, session *Session) bool
	Get(code string) (*Session, bool)
	Delete(code string)
}

// maxCodeAttempts bounds collision retries during code generation.
const maxCodeAttempts = 64

// Registry mints session codes and owns session lifecycle: create, lookup,
// destroy. Codes are 6-digit numeric, unique among live sessions.
type Registry struct {
	store SessionStore
	clock clockwork.Clock
	opts  Options
	log   zerolog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewRegistry(store SessionStore, clock clockwork.Clock, opts Options, log zerolog.Logger) *Registry {
	return &Registry{
		store: store,
		clock: clock,
		opts:  opts,
		log:   log,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create validates settings and questions, then builds a lobby-phase session
// under a freshly minted code. Collisions with live codes are retried.
func (r *Registry) Create(hostID string, settings domain.GameSettings, questions []domain.Question) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateQuestions(questions); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := r.generateCode()
		session := NewSession(code, hostID, settings, questions, r.clock, r.opts, r.log, r.Destroy)
		if r.store.Put(code, session) {
			r.log.Info().Str("session", code).Str("host", hostID).Int("questions", len(questions)).Msg("session created")
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", domain.ErrCodeExhausted, maxCodeAttempts)
}

// Lookup resolves a live session by code.
func (r *Registry) Lookup(code string) (*Session, error) {
	session, ok := r.store.Get(code)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Destroy removes a session and releases its timer and subscribers. Idempotent.
func (r *Registry) Destroy(code string) {
	session, ok := r.store.Get(code)
	r.store.Delete(code)
	if ok {
		session.Destroy()
	}
}

func (r *Registry) generateCode() string {
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return fmt.Sprintf("%06d", 100000+r.rnd.Intn(900000))
}
