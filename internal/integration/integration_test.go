package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"github.com/Seashocker17/quiz-arena/internal/app"
	"github.com/Seashocker17/quiz-arena/internal/domain"
	pgloader "github.com/Seashocker17/quiz-arena/internal/infra/postgres"
	pgmigrations "github.com/Seashocker17/quiz-arena/internal/infra/postgres/migrations"
	infraredis "github.com/Seashocker17/quiz-arena/internal/infra/redis"
)

func TestGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestionSet(t, ctx, pgURL, sampleSet())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewQuestionLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	questionRepo := infraredis.NewQuestionRepository(redisClient, loader, 5*time.Minute)
	store := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	opts := app.Options{RevealDuration: 100 * time.Millisecond, FinalExpiry: time.Minute}
	registry := app.NewRegistry(store, clockwork.NewRealClock(), opts, zerolog.Nop())
	service := app.NewGameService(registry, questionRepo, zerolog.Nop())

	view, err := service.CreateSessionFromSet(ctx, "host-1", domain.DefaultSettings(), "set-1")
	if err != nil {
		t.Fatalf("create from set: %v", err)
	}
	code := view.Code

	alice, _, err := service.Join(code, "Alice", domain.Avatar{Style: domain.AvatarBottts, Seed: "alice"})
	if err != nil {
		t.Fatalf("join alice: %v", err)
	}
	bob, _, err := service.Join(code, "Bob", domain.Avatar{Style: domain.AvatarMicah, Seed: "bob"})
	if err != nil {
		t.Fatalf("join bob: %v", err)
	}

	updates, cancel, err := service.Subscribe(code)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := service.Start(code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	correct := 1
	if err := service.SubmitAnswer(code, alice, &correct); err != nil {
		t.Fatalf("alice answer: %v", err)
	}
	if err := service.SubmitAnswer(code, bob, nil); err != nil {
		t.Fatalf("bob pass: %v", err)
	}

	final := waitForPhase(t, updates, domain.PhaseFinal)
	if final.Champion == nil || final.Champion.PlayerID != alice {
		t.Fatalf("expected alice as champion, got %+v", final.Champion)
	}
	if final.Champion.Points < 500 {
		t.Fatalf("expected scored champion, got %+v", final.Champion)
	}

	service.Destroy(code)
	if _, _, err := service.Join(code, "Late", domain.Avatar{Style: domain.AvatarBottts, Seed: "l"}); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone after destroy, got %v", err)
	}
}

func waitForPhase(t *testing.T, ch <-chan domain.SessionView, phase domain.Phase) domain.SessionView {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case view, ok := <-ch:
			if !ok {
				t.Fatalf("snapshot stream closed while waiting for %s", phase)
			}
			if view.Phase == phase {
				return view
			}
		case <-deadline:
			t.Fatalf("timed out waiting for phase %s", phase)
		}
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "arena", "POSTGRES_PASSWORD": "arenapass", "POSTGRES_DB": "arenadb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://arena:arenapass@%s:%s/arenadb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestionSet(t *testing.T, ctx context.Context, dsn string, set domain.QuestionSet) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal set: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO question_sets (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, set.ID, string(data)); err != nil {
		t.Fatalf("insert set: %v", err)
	}
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID: "set-1",
		Questions: []domain.Question{
			{
				ID:           "q1",
				Text:         "What is 2 + 2?",
				Options:      []string{"3", "4", "5"},
				CorrectIndex: 1,
				TimeLimit:    10,
			},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
