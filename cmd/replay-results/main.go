package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/playpong/backend/internal/database"
	"github.com/playpong/backend/internal/persistence"
	"github.com/playpong/backend/internal/redis"
	"github.com/urfave/cli/v3"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cmd := &cli.Command{
		Name:  "replay-results",
		Usage: "write dead-lettered match results back to the database",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "postgres:// or sqlite:// URL of the match store",
				Sources:  cli.EnvVars("DATABASE_URL"),
				Required: true,
			},
			&cli.StringFlag{
				Name:     "redis-url",
				Usage:    "Redis holding the results:failed list",
				Sources:  cli.EnvVars("REDIS_URL"),
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "stop after this many results (0 drains the list)",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "only report how many results are waiting",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("replay failed: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	rdb, err := redis.Connect(cmd.String("redis-url"))
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer rdb.Close()
	queue := redis.NewResultQueue(rdb)

	pending, err := queue.Len(ctx)
	if err != nil {
		return err
	}
	log.Printf("[PERSIST] %d failed results waiting in %s", pending, redis.FailedResultsKey)
	if cmd.Bool("dry-run") || pending == 0 {
		return nil
	}

	db, err := database.Connect(cmd.String("database-url"))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	gw := persistence.NewSQLGateway(db)

	limit := int(cmd.Int("limit"))
	replayed := 0
	for limit == 0 || replayed < limit {
		fr, ok, err := queue.Pop(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		id, err := persistence.Replay(ctx, gw, fr)
		if err != nil {
			// Put it back with the record id so the next run does not create a duplicate.
			fr.RecordID = id
			fr.Error = err.Error()
			fr.FailedAt = time.Now()
			if perr := queue.Push(ctx, fr); perr != nil {
				log.Printf("[PERSIST] Lost result for match %d: %v", fr.MatchID, perr)
			}
			return fmt.Errorf("match %d: %w", fr.MatchID, err)
		}
		log.Printf("[PERSIST] Replayed match %d as record %d (%s vs %s, %d-%d)",
			fr.MatchID, id, fr.Player1, fr.Player2, fr.Score1, fr.Score2)
		replayed++
	}

	log.Printf("[PERSIST] Replayed %d results", replayed)
	return nil
}
