package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Seashocker17/quiz-arena/internal/app"
	"github.com/Seashocker17/quiz-arena/internal/config"
	"github.com/Seashocker17/quiz-arena/internal/domain"
	"github.com/Seashocker17/quiz-arena/internal/infra/memory"
	pgloader "github.com/Seashocker17/quiz-arena/internal/infra/postgres"
	redisinfra "github.com/Seashocker17/quiz-arena/internal/infra/redis"
	transport "github.com/Seashocker17/quiz-arena/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz arena server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	setTTL := config.Duration(cfg.Game.QuestionSetTTL, 10*time.Minute)
	var questionRepo app.QuestionRepository
	if redisClient != nil {
		questionRepo = redisinfra.NewQuestionRepository(redisClient, loader, setTTL)
	} else {
		questionRepo = memory.NewQuestionRepository(loader, setTTL)
	}

	var store app.SessionStore
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		store = memory.NewSessionStore()
	}

	opts := app.Options{
		RevealDuration: config.Duration(cfg.Game.RevealDuration, 0),
		FinalExpiry:    config.Duration(cfg.Game.FinalExpiry, 0),
	}
	registry := app.NewRegistry(store, clockwork.NewRealClock(), opts, logger)
	service := app.NewGameService(registry, questionRepo, logger)
	wsHandler := transport.NewWSHandler(service, logger)
	sessionHandler := transport.NewSessionHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/sessions", sessionHandler.CreateSession)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info().Str("port", finalPort).Msg("starting quiz arena")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info().Msg("shutting down server")
	case <-ctx.Done():
		logger.Info().Msg("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides demo content when no Postgres is configured.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"sample": {
			ID: "sample",
			Questions: []domain.Question{
				{
					ID:           "1",
					Text:         "What is the capital of France?",
					Options:      []string{"London", "Berlin", "Paris", "Madrid"},
					CorrectIndex: 2,
					TimeLimit:    10,
				},
				{
					ID:           "2",
					Text:         "Which planet is known as the Red Planet?",
					Options:      []string{"Venus", "Mars", "Jupiter", "Saturn"},
					CorrectIndex: 1,
					TimeLimit:    10,
				},
				{
					ID:           "3",
					Text:         "What is 7 x 8?",
					Options:      []string{"54", "56", "58", "60"},
					CorrectIndex: 1,
					TimeLimit:    10,
				},
				{
					ID:           "4",
					Text:         "Who painted the Mona Lisa?",
					Options:      []string{"Michelangelo", "Leonardo da Vinci", "Raphael", "Donatello"},
					CorrectIndex: 1,
					TimeLimit:    10,
				},
				{
					ID:           "5",
					Text:         "What is the largest ocean on Earth?",
					Options:      []string{"Atlantic", "Indian", "Arctic", "Pacific"},
					CorrectIndex: 3,
					TimeLimit:    10,
				},
			},
		},
	}
}
