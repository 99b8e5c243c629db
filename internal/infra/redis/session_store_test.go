package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Seashocker17/quiz-arena/internal/app"
	"github.com/Seashocker17/quiz-arena/internal/domain"
)

func testSession(code string) *app.Session {
	return app.NewSession(code, "host", domain.DefaultSettings(), nil, clockwork.NewFakeClock(), app.Options{}, zerolog.Nop(), nil)
}

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	if !store.Put("123456", testSession("123456")) {
		t.Fatalf("expected put to claim code")
	}
	if !mr.Exists("arena:session:123456") {
		t.Fatalf("expected redis key to be set")
	}

	store.Delete("123456")
	if mr.Exists("arena:session:123456") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreCollisionAcrossInstances(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storeA := NewSessionStore(client, time.Minute)
	storeB := NewSessionStore(client, time.Minute)

	if !storeA.Put("654321", testSession("654321")) {
		t.Fatalf("expected first instance to claim code")
	}
	// A second instance sharing the same redis must see the code as taken.
	if storeB.Put("654321", testSession("654321")) {
		t.Fatalf("expected cross-instance collision via SETNX")
	}
}
