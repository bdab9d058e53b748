package persistence

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a match record does not exist.
var ErrNotFound = errors.New("match record not found")

// Gateway is the storage contract for match outcomes. Record ids are owned
// by the store and are unrelated to engine match ids.
type Gateway interface {
	CreateMatch(ctx context.Context, player1, player2 string) (int64, error)
	StartMatch(ctx context.Context, id int64) error
	CompleteMatch(ctx context.Context, id int64, winner string, score1, score2 int) error
}
