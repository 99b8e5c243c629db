package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/domain"
)

// QuestionRepository loads authored question sets (from cache/backing store).
type QuestionRepository interface {
	GetQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error)
}

// GameService is the protocol-agnostic boundary over the registry and its
// sessions. Transports (HTTP, websocket) talk to this and nothing deeper.
type GameService struct {
	registry  *Registry
	questions QuestionRepository
	log       zerolog.Logger
}

func NewGameService(registry *Registry, questions QuestionRepository, log zerolog.Logger) *GameService {
	return &GameService{registry: registry, questions: questions, log: log}
}

// CreateSession creates a session from an inline question list.
func (g *GameService) CreateSession(_ context.Context, hostID string, settings domain.GameSettings, questions []domain.Question) (domain.SessionView, error) {
	session, err := g.registry.Create(hostID, settings, questions)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.Snapshot(), nil
}

// CreateSessionFromSet creates a session from a stored question set.
func (g *GameService) CreateSessionFromSet(ctx context.Context, hostID string, settings domain.GameSettings, setID string) (domain.SessionView, error) {
	set, err := g.questions.GetQuestionSet(ctx, setID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return g.CreateSession(ctx, hostID, settings, set.Questions)
}

// Join adds a player to a lobby-phase session.
func (g *GameService) Join(code, name string, avatar domain.Avatar) (string, domain.SessionView, error) {
	session, err := g.registry.Lookup(code)
	if err != nil {
		return "", domain.SessionView{}, err
	}
	return session.Join(name, avatar)
}

// Start begins the first question; host-only.
func (g *GameService) Start(code, hostID string) error {
	session, err := g.registry.Lookup(code)
	if err != nil {
		return err
	}
	return session.Start(hostID)
}

// SubmitAnswer records an answer (nil option is an explicit pass).
func (g *GameService) SubmitAnswer(code, playerID string, option *int) error {
	session, err := g.registry.Lookup(code)
	if err != nil {
		return err
	}
	return session.SubmitAnswer(playerID, option)
}

// Subscribe attaches an observer to a session's snapshot stream.
func (g *GameService) Subscribe(code string) (<-chan domain.SessionView, func(), error) {
	session, err := g.registry.Lookup(code)
	if err != nil {
		return nil, nil, err
	}
	return session.Subscribe()
}

// Leave removes a lobby player; a no-op after the game has started.
func (g *GameService) Leave(code, playerID string) {
	session, err := g.registry.Lookup(code)
	if err != nil {
		return
	}
	session.Leave(playerID)
}

// Destroy tears a session down immediately. Idempotent.
func (g *GameService) Destroy(code string) {
	g.registry.Destroy(code)
}
