package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/playpong/backend/internal/api"
	"github.com/playpong/backend/internal/auth"
	"github.com/playpong/backend/internal/config"
	"github.com/playpong/backend/internal/database"
	"github.com/playpong/backend/internal/game"
	"github.com/playpong/backend/internal/migrations"
	"github.com/playpong/backend/internal/persistence"
	"github.com/playpong/backend/internal/redis"
	"github.com/playpong/backend/internal/telemetry"
	"github.com/playpong/backend/internal/ws"
)

func main() {
	// Initialize configuration (.env is loaded by config.Load)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELServiceName)
	if err != nil {
		log.Printf("Tracing disabled: %v", err)
	}
	defer shutdownTracing(context.Background())

	opts := game.Options{}
	deps := api.Deps{}

	// Initialize Redis (optional)
	var dead persistence.DeadLetter
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer rdb.Close()

		notifier := redis.NewNotifier(rdb, 1024)
		go notifier.Run(ctx)
		opts.Notifier = notifier
		deps.Snapshots = redis.NewSnapshotReader(rdb)
		dead = redis.NewResultQueue(rdb)
		log.Printf("[REDIS] Publishing match events on %q", redis.EventsChannel)
	} else {
		log.Println("[REDIS] REDIS_URL not set; match events are not published")
	}

	// Initialize database (optional)
	if cfg.DatabaseURL != "" {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.MigrateOnStart && !database.IsSQLite(cfg.DatabaseURL) {
			log.Println("[MIGRATE] Running DB migrations on startup...")
			if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		gw := persistence.NewSQLGateway(db)
		recorder := persistence.NewRecorder(gw, dead, cfg.PersistQueueSize)
		recorder.Start()
		defer recorder.Close()
		opts.Recorder = recorder
		deps.History = gw
	} else {
		log.Println("[PERSIST] DATABASE_URL not set; match results are only logged")
	}

	// Initialize Game Manager
	gm := game.NewGameManager(cfg.Game, opts)
	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		gm.Run(ctx)
	}()
	go game.StartExpiryWorker(ctx, gm)

	verifier := auth.NewVerifier(cfg.JWTSecret)
	if verifier == nil {
		log.Println("[AUTH] JWT_SECRET not set; websocket connections are not authenticated")
	}
	deps.Engine = gm
	deps.WebSocket = ws.NewHandler(gm, verifier, cfg.AllowedOrigins)

	// Set up Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, deps, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting pong server on port %s (tick %s, win at %d)",
			cfg.Port, cfg.Game.TickInterval, cfg.Game.WinScore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	// The engine closes every socket with 1001 once its loop exits.
	<-engineDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}
