package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"procurerisk/engine"
	"procurerisk/internal/server"
	"procurerisk/rules"
	"procurerisk/services"
	"procurerisk/util"
)

func gracefulShutdown(apiServer *http.Server, logger *slog.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	logger.Info("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

/*
Loads authentication secrets from environment variables into a map
*/
func loadSecrets() (map[string][]byte, error) {
	// Build a map of API keys -> secrets
	secrets := map[string][]byte{}

	for _, id := range []string{"CLIENT_1", "CLIENT_2"} {
		key := os.Getenv(fmt.Sprintf("API_KEY_%s", id))
		secret := os.Getenv(fmt.Sprintf("API_SECRET_%s", id))
		if key != "" && secret != "" {
			secrets[key] = []byte(secret)
		}
	}

	if len(secrets) == 0 {
		return nil, errors.New("could not load expected api keys")
	}
	return secrets, nil
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found")
	}

	rulesFile := os.Getenv("RULES_FILE")
	if rulesFile == "" {
		rulesFile = "./rules.yaml"
	}

	cfg, err := rules.LoadConfig(rulesFile)
	if err != nil {
		logger.Error("failed to load rules", slog.String("path", rulesFile), slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Services.Redis.Enabled {
		if cfg.Services.Redis.Host == "" {
			logger.Error("provide a valid redis host")
			os.Exit(1)
		}
		redisClient, err = services.ConnectRedis(ctx, cfg.Services.Redis.Host)
		if err != nil {
			logger.Error("could not connect to redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	var alerts util.Publisher
	if cfg.Services.Nats.Enabled {
		if cfg.Services.Nats.Url == "" {
			logger.Error("provide a valid nats url")
			os.Exit(1)
		}
		var nc *nats.Conn
		nc, err = services.ConnectNats(cfg.Services.Nats.Url)
		if err != nil {
			logger.Error("could not connect to nats", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer nc.Drain()
		alerts = nc
	}

	ruleSet, err := rules.BuildRuleSet(ctx, cfg, redisClient)
	if err != nil {
		logger.Error("invalid rule configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	opts := engine.Options{
		MaxScore: cfg.Scoring.MaxScore,
		Tiers:    cfg.Thresholds.TierBoundaries,
		Workers:  cfg.Scoring.Workers,
	}
	if ruleSet.Denylist != nil {
		opts.Denylist = ruleSet.Denylist
	}

	eng, err := engine.New(ruleSet.Rules, opts)
	if err != nil {
		logger.Error("invalid engine configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	authKeys, err := loadSecrets()
	if err != nil {
		logger.Error("failed to load secrets", slog.String("error", err.Error()))
		os.Exit(1)
	}

	apiServer := server.NewServer(eng, ruleSet.Denylist, alerts, cfg.Services, authKeys, logger)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, logger, done)

	logger.Info("listening", slog.String("addr", apiServer.Addr), slog.Int("rules", len(ruleSet.Rules)))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-done
	logger.Info("graceful shutdown complete")
}
