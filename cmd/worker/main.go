package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/healthdesk/triage/common/id"
	"github.com/healthdesk/triage/common/logger"
	"github.com/healthdesk/triage/common/otel"
	"github.com/healthdesk/triage/core/config"
	"github.com/healthdesk/triage/core/db"
	"github.com/healthdesk/triage/internal/genai"
	"github.com/healthdesk/triage/internal/queue"
	"github.com/healthdesk/triage/internal/service"
	"github.com/healthdesk/triage/internal/transport/botapi"
	"github.com/healthdesk/triage/internal/worker"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "triage worker starting",
		"env", cfg.Env,
		"consumer_group", cfg.Queue.Group,
		"consumer_name", cfg.Queue.Consumer)

	// Different node ID than the server so snowflake IDs never collide.
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	redisOpts, err := redis.ParseURL(cfg.Queue.RedisURL)
	if err != nil {
		slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	slog.InfoContext(ctx, "redis connected", "stream", cfg.Queue.Stream)

	consumer, err := queue.NewRedisConsumer(redisClient, queue.ConsumerConfig{
		Stream:       cfg.Queue.Stream,
		Group:        cfg.Queue.Group,
		Consumer:     cfg.Queue.Consumer,
		DLQStream:    cfg.Queue.DLQStream,
		BatchSize:    1, // one generation call at a time
		Block:        5 * time.Second,
		MaxAttempts:  cfg.Queue.MaxAttempts,
		RequeueDelay: time.Second,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create consumer", "error", err)
		os.Exit(1)
	}

	generator, err := genai.New(genai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create generator", "error", err)
		os.Exit(1)
	}

	messenger := botapi.NewMessenger(botapi.NewClient(botapi.Config{
		BaseURL: cfg.Transport.BaseURL,
		Token:   cfg.Transport.Token,
	}))

	moderation := service.NewModerationService(
		service.NewTxRunner(database),
		service.ModerationConfig{
			Generator: generator,
			Messenger: messenger,
			Guard:     service.NewRedisGuard(redisClient, cfg.Guard.LockTTL),
			Reviewers: cfg.Reviewers.IDs,
		},
	)

	w := worker.New(consumer, generator, moderation)

	reclaimer := worker.NewReclaimer(redisClient, worker.ReclaimerConfig{
		Stream:    cfg.Queue.Stream,
		Group:     cfg.Queue.Group,
		Consumer:  cfg.Queue.Consumer + "-reclaimer",
		MinIdle:   5 * time.Minute,
		Interval:  time.Minute,
		BatchSize: 10,
	}, w.ProcessMessage)

	runCtx, cancel := context.WithCancel(ctx)
	go w.Run(runCtx)
	go reclaimer.Run(runCtx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	cancel()
	w.Stop()
	reclaimer.Stop()

	if telemetry != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "shutdown complete")
}

const banner = `
████████╗██████╗ ██╗ █████╗  ██████╗ ███████╗    ██╗    ██╗██╗  ██╗██████╗
╚══██╔══╝██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝    ██║    ██║██║ ██╔╝██╔══██╗
   ██║   ██████╔╝██║███████║██║  ███╗█████╗      ██║ █╗ ██║█████╔╝ ██████╔╝
   ██║   ██╔══██╗██║██╔══██║██║   ██║██╔══╝      ██║███╗██║██╔═██╗ ██╔══██╗
   ██║   ██║  ██║██║██║  ██║╚██████╔╝███████╗    ╚███╔███╔╝██║  ██║██║  ██║
   ╚═╝   ╚═╝  ╚═╝╚═╝╚═╝  ╚═╝ ╚═════╝ ╚══════╝     ╚══╝╚══╝ ╚═╝  ╚═╝╚═╝  ╚═╝
`
