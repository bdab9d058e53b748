package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/playpong/backend/internal/persistence"
	"github.com/redis/go-redis/v9"
)

// FailedResultsKey is the list holding results the database rejected.
const FailedResultsKey = "results:failed"

// ResultQueue is a FIFO dead-letter list of match results. It implements
// persistence.DeadLetter.
type ResultQueue struct {
	rdb *redis.Client
	key string
}

func NewResultQueue(rdb *redis.Client) *ResultQueue {
	return &ResultQueue{rdb: rdb, key: FailedResultsKey}
}

func (q *ResultQueue) Push(ctx context.Context, fr persistence.FailedResult) error {
	b, err := json.Marshal(fr)
	if err != nil {
		return fmt.Errorf("encode failed result: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, b).Err(); err != nil {
		return fmt.Errorf("push failed result for match %d: %w", fr.MatchID, err)
	}
	return nil
}

// Pop removes the oldest entry. ok is false when the list is empty.
func (q *ResultQueue) Pop(ctx context.Context) (fr persistence.FailedResult, ok bool, err error) {
	raw, err := q.rdb.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fr, false, nil
	}
	if err != nil {
		return fr, false, fmt.Errorf("pop failed result: %w", err)
	}
	if err := json.Unmarshal(raw, &fr); err != nil {
		return fr, false, fmt.Errorf("decode failed result: %w", err)
	}
	return fr, true, nil
}

func (q *ResultQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}
