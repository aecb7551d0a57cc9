package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/logitrack/internal/api"
	"github.com/Houeta/logitrack/internal/auth"
	"github.com/Houeta/logitrack/internal/bot"
	"github.com/Houeta/logitrack/internal/config"
	"github.com/Houeta/logitrack/internal/idgen"
	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/parcels"
	"github.com/Houeta/logitrack/internal/registry"
	"github.com/Houeta/logitrack/internal/report"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/server"
	"github.com/Houeta/logitrack/internal/tracking"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const (
	connectTimeout  = 5 * time.Second
	revokedPrefix   = "logitrack:revoked:"
	logFileMaxSize  = 50 // megabytes
	logFileMaxFiles = 5
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env, logOutput(cfg.LogFile))

	// Create a separate registry for metrics.
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	checks := make(map[string]server.Pinger)

	// Pick the key-value store: PostgreSQL when configured, process memory otherwise.
	var store repository.Store = repository.NewMemoryStore()
	if cfg.Database.Host != "" {
		dtb, err := repository.NewDatabase(
			ctx, cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			log.Fatalf("Failed to connect to DB: %v", err)
		}
		defer dtb.Close()

		pgStore := repository.NewPostgresStore(dtb)
		if err = pgStore.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare DB schema: %v", err)
		}
		store = pgStore
		checks["database"] = dtb
	} else {
		logger.WarnContext(ctx, "No database configured, data will be kept in memory only")
	}

	repo := repository.NewRepository(repository.NewInstrumentedStore(store, appMetrics))
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)
	if err := repo.SeedDemoData(ctx, hasher, time.Now()); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}

	// Redis keeps revoked tokens and bot lookups; without it both live in memory or are skipped.
	var (
		blacklist auth.Blacklist = auth.NewMemoryBlacklist()
		botCache  bot.Cache
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}

		blacklist = auth.NewRedisBlacklist(redisClient, revokedPrefix)
		botCache = bot.NewRedisCache(redisClient)
		checks["redis"] = server.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	ids := idgen.New()
	tracker := tracking.NewService(repo, appMetrics)
	services := api.Services{
		Auth: auth.NewService(
			logger, repo, hasher, auth.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWT.TTL), blacklist, ids, appMetrics,
		),
		Parcels:   parcels.NewService(logger, repo, ids, appMetrics),
		Clients:   registry.NewClientService(logger, repo, ids, hasher, appMetrics),
		Employees: registry.NewEmployeeService(logger, repo, ids, hasher, appMetrics),
		Offices:   registry.NewOfficeService(logger, repo, ids, appMetrics),
		Tracking:  tracker,
		Reports:   report.NewEngine(repo, cfg.Location, appMetrics),
	}

	router := api.NewRouter(logger, services, appMetrics, api.Options{
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
	})

	// The tracking bot is optional.
	var trackBot *bot.Bot
	if cfg.Telegram.Token != "" {
		var err error
		trackBot, err = bot.NewBot(logger, tracker, botCache, appMetrics, cfg.Location, cfg.Telegram.Token, cfg.Telegram.PollerTimeout)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		go trackBot.Start()
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	done := make(chan struct{}, 2) //nolint:mnd // api and monitoring servers
	go func() {
		server.StartAPIServer(ctx, logger, router, cfg.HTTP.Port)
		done <- struct{}{}
	}()
	go func() {
		server.StartMonitoringServer(ctx, logger, reg, server.NewHealthChecker(logger, checks), cfg.Monitoring.Port)
		done <- struct{}{}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	if trackBot != nil {
		trackBot.Stop()
	}
	<-done
	<-done

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// logOutput writes to stdout and, when path is set, to a rotating log file.
func logOutput(path string) io.Writer {
	if path == "" {
		return os.Stdout
	}

	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    logFileMaxSize,
		MaxBackups: logFileMaxFiles,
		Compress:   true,
	})
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string, out io.Writer) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:       slog.LevelWarn,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(out, &slog.HandlerOptions{
				Level:       slog.LevelError,
				AddSource:   false,
				ReplaceAttr: dropTime,
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

func dropTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}
