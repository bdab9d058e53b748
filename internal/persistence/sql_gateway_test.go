package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/playpong/backend/internal/database"
	"github.com/playpong/backend/internal/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect("sqlite://:memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLGatewayLifecycle(t *testing.T) {
	ctx := context.Background()
	gw := NewSQLGateway(openTestDB(t))

	id, err := gw.CreateMatch(ctx, "Alice", "Bob")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	rec, err := gw.GetMatch(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != models.MatchStatusWaiting || rec.Player1Username != "Alice" || rec.Player2Username != "Bob" {
		t.Errorf("unexpected new record %+v", rec)
	}

	if err := gw.StartMatch(ctx, id); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := gw.CompleteMatch(ctx, id, "Bob", 3, 5); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rec, err = gw.GetMatch(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Status != models.MatchStatusFinished {
		t.Errorf("expected FINISHED, got %s", rec.Status)
	}
	if rec.WinnerUsername.String != "Bob" || rec.Player1Score != 3 || rec.Player2Score != 5 {
		t.Errorf("unexpected result %+v", rec)
	}
	if !rec.StartedAt.Valid || !rec.CompletedAt.Valid {
		t.Errorf("expected start and completion times, got %+v", rec)
	}
}

func TestSQLGatewayUnknownRecord(t *testing.T) {
	ctx := context.Background()
	gw := NewSQLGateway(openTestDB(t))

	if err := gw.StartMatch(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("start: expected ErrNotFound, got %v", err)
	}
	if err := gw.CompleteMatch(ctx, 42, "", 0, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("complete: expected ErrNotFound, got %v", err)
	}
	if _, err := gw.GetMatch(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("get: expected ErrNotFound, got %v", err)
	}
}

func TestSQLGatewayRecentMatches(t *testing.T) {
	ctx := context.Background()
	gw := NewSQLGateway(openTestDB(t))

	finished := func(p1, p2, winner string) int64 {
		id, err := gw.CreateMatch(ctx, p1, p2)
		if err != nil {
			t.Fatal(err)
		}
		if err := gw.CompleteMatch(ctx, id, winner, 5, 1); err != nil {
			t.Fatal(err)
		}
		return id
	}
	finished("Alice", "Bob", "Alice")
	finished("Carol", "Dave", "Dave")
	last := finished("Bob", "Carol", "Bob")
	if _, err := gw.CreateMatch(ctx, "Eve", "Mallory"); err != nil {
		t.Fatal(err)
	}

	all, err := gw.RecentMatches(ctx, "", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 finished matches, got %d", len(all))
	}
	if all[0].ID != last {
		t.Errorf("expected newest match %d first, got %d", last, all[0].ID)
	}

	bobs, err := gw.RecentMatches(ctx, "Bob", 10)
	if err != nil {
		t.Fatalf("recent for Bob: %v", err)
	}
	if len(bobs) != 2 {
		t.Errorf("expected 2 matches for Bob, got %d", len(bobs))
	}

	one, err := gw.RecentMatches(ctx, "", 1)
	if err != nil || len(one) != 1 {
		t.Errorf("limit not applied: %d %v", len(one), err)
	}
}

func TestRecorderAgainstSQLite(t *testing.T) {
	ctx := context.Background()
	gw := NewSQLGateway(openTestDB(t))

	id, err := Replay(ctx, gw, FailedResult{Player1: "Alice", Player2: "Bob", Winner: "Alice", Score1: 5, Score2: 4, Started: true})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	rec, err := gw.GetMatch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != models.MatchStatusFinished || !rec.StartedAt.Valid || rec.Player2Score != 4 {
		t.Errorf("unexpected replayed record %+v", rec)
	}
}
