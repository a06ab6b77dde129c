package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizdeck-service/internal/app"
	"quizdeck-service/internal/auth"
	"quizdeck-service/internal/config"
	"quizdeck-service/internal/docstore"
	"quizdeck-service/internal/infra/memory"
	pgstore "quizdeck-service/internal/infra/postgres"
	redisinfra "quizdeck-service/internal/infra/redis"
	transport "quizdeck-service/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the server.
func NewServeCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var store docstore.Store = memory.NewDocStore()
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pgstore.NewDocStore(pool)
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	bank := app.NewQuestionBank(store)
	results := app.NewResultLog(store)

	var source app.QuestionSource = bank
	var attempts app.AttemptStore = memory.NewAttemptStore()
	var cache *redisinfra.QuestionCache
	if redisClient != nil {
		cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
		redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)
		cache = redisinfra.NewQuestionCache(redisClient, bank, cacheTTL)
		source = cache
		attempts = redisinfra.NewAttemptStore(redisClient, redisTTL)
	}

	service := app.NewQuizService(bank, results, source, attempts, memory.NewDraftStore())
	if cache != nil {
		service.SetInvalidator(cache)
	}
	authSvc := auth.NewService(store)
	handler := transport.NewHandler(service, authSvc)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quizdeck service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
