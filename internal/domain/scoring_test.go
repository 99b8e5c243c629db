package domain

import (
	"testing"
	"time"
)

func TestScoreBounds(t *testing.T) {
	limit := 10 * time.Second

	if got := Score(true, limit, limit); got != 1000 {
		t.Fatalf("instant correct answer: expected 1000, got %d", got)
	}
	if got := Score(true, 0, limit); got != 500 {
		t.Fatalf("last-moment correct answer: expected 500, got %d", got)
	}
	if got := Score(true, 8*time.Second, limit); got != 900 {
		t.Fatalf("correct with 8s remaining of 10s: expected 900, got %d", got)
	}
}

func TestScoreIncorrectAlwaysZero(t *testing.T) {
	limit := 10 * time.Second
	for _, remaining := range []time.Duration{0, 3 * time.Second, limit, 2 * limit, -time.Second} {
		if got := Score(false, remaining, limit); got != 0 {
			t.Fatalf("incorrect answer at remaining=%v: expected 0, got %d", remaining, got)
		}
	}
}

func TestScoreMonotonicInRemaining(t *testing.T) {
	limit := 20 * time.Second
	prev := -1
	for r := time.Duration(0); r <= limit; r += time.Second {
		got := Score(true, r, limit)
		if got < prev {
			t.Fatalf("score decreased at remaining=%v: %d < %d", r, got, prev)
		}
		if got < 500 || got > 1000 {
			t.Fatalf("score %d outside [500,1000] at remaining=%v", got, r)
		}
		prev = got
	}
}

func TestScoreClampsRemaining(t *testing.T) {
	limit := 10 * time.Second
	if got := Score(true, 2*limit, limit); got != 1000 {
		t.Fatalf("remaining above limit should clamp to 1000, got %d", got)
	}
	if got := Score(true, -time.Second, limit); got != 500 {
		t.Fatalf("negative remaining should clamp to 500, got %d", got)
	}
}

func TestHealthDelta(t *testing.T) {
	if got := HealthDelta(true, 2, 3); got != 2 {
		t.Fatalf("expected +2 on correct, got %d", got)
	}
	if got := HealthDelta(false, 2, 3); got != -3 {
		t.Fatalf("expected -3 on wrong, got %d", got)
	}
}

func TestClampHealth(t *testing.T) {
	if got := ClampHealth(-4, 15); got != 0 {
		t.Fatalf("expected floor at 0, got %d", got)
	}
	if got := ClampHealth(99, 15); got != 15 {
		t.Fatalf("expected ceiling at max, got %d", got)
	}
	if got := ClampHealth(7, 15); got != 7 {
		t.Fatalf("expected in-range value unchanged, got %d", got)
	}
}

func TestClampHealthOverDeltaSequence(t *testing.T) {
	health := 10
	deltas := []int{-3, -3, -3, -3, 2, 2, 2, 2, 2, 2, 2, 2, -1}
	for _, d := range deltas {
		health = ClampHealth(health+d, 15)
		if health < 0 || health > 15 {
			t.Fatalf("health %d escaped [0,15]", health)
		}
	}
}
