package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/playpong/backend/internal/game"
	"github.com/redis/go-redis/v9"
)

const (
	// EventsChannel carries every lifecycle event as JSON.
	EventsChannel = "match_events"
	stateTTL      = time.Hour
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing is stored for a match.
var ErrNoSnapshot = errors.New("no snapshot stored")

// StateKey is where the latest event of a match is kept.
func StateKey(matchID int64) string {
	return fmt.Sprintf("match:%d:state", matchID)
}

// Notifier implements game.Notifier. Events are buffered and written by Run
// so the engine loop never waits on Redis.
type Notifier struct {
	rdb    *redis.Client
	events chan game.Event
}

func NewNotifier(rdb *redis.Client, size int) *Notifier {
	if size <= 0 {
		size = 256
	}
	return &Notifier{rdb: rdb, events: make(chan game.Event, size)}
}

func (n *Notifier) Notify(ev game.Event) {
	select {
	case n.events <- ev:
	default:
		log.Printf("[REDIS] Event buffer full; dropping %s for match %d", ev.Type, ev.MatchID)
	}
}

// Run publishes buffered events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	log.Println("[REDIS] Event publisher started")
	for {
		select {
		case <-ctx.Done():
			log.Println("[REDIS] Event publisher stopping")
			return
		case ev := <-n.events:
			if err := n.publish(ctx, ev); err != nil {
				log.Printf("[REDIS] publish %s for match %d failed: %v", ev.Type, ev.MatchID, err)
			}
		}
	}
}

func (n *Notifier) publish(ctx context.Context, ev game.Event) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	_, err = n.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.SetEx(ctx, StateKey(ev.MatchID), payload, stateTTL)
		p.Publish(ctx, EventsChannel, payload)
		return nil
	})
	return err
}

func encodeEvent(ev game.Event) ([]byte, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

// LoadSnapshot returns the last event stored for a match, which outlives the
// match in memory by stateTTL.
func LoadSnapshot(ctx context.Context, rdb *redis.Client, matchID int64) (game.Event, error) {
	var ev game.Event
	raw, err := rdb.Get(ctx, StateKey(matchID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ev, ErrNoSnapshot
	}
	if err != nil {
		return ev, fmt.Errorf("load snapshot %d: %w", matchID, err)
	}
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("decode snapshot %d: %w", matchID, err)
	}
	return ev, nil
}

// SnapshotReader serves stored events to the HTTP layer.
type SnapshotReader struct {
	rdb *redis.Client
}

func NewSnapshotReader(rdb *redis.Client) *SnapshotReader {
	return &SnapshotReader{rdb: rdb}
}

func (s *SnapshotReader) Load(ctx context.Context, matchID int64) (game.Event, error) {
	return LoadSnapshot(ctx, s.rdb, matchID)
}
