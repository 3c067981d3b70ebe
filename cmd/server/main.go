package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/geunssam/dodgeballhub/internal/badges"
	"github.com/geunssam/dodgeballhub/internal/config"
	"github.com/geunssam/dodgeballhub/internal/database"
	"github.com/geunssam/dodgeballhub/internal/handler/health"
	"github.com/geunssam/dodgeballhub/internal/handler/live"
	"github.com/geunssam/dodgeballhub/internal/migrations"
	"github.com/geunssam/dodgeballhub/internal/progress"
	"github.com/geunssam/dodgeballhub/internal/server"
	"github.com/geunssam/dodgeballhub/internal/session"
	"github.com/geunssam/dodgeballhub/internal/store"
	"github.com/geunssam/dodgeballhub/internal/teams"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	docs := store.NewDocStore(db)
	catalog := badges.Default()
	clock := clockwork.NewRealClock()

	// Data migrations finish before anything else reads the store.
	runner := migrations.NewRunner(docs, logger)
	if _, err := runner.Run(ctx, migrations.Builtin(docs, catalog, clock.Now)...); err != nil {
		return fmt.Errorf("running data migrations: %w", err)
	}

	checks := map[string]health.Checker{"sqlite": health.CheckerFunc(docs.Ping)}
	opts := []session.Option{
		session.WithClock(clock),
		session.WithDebounce(cfg.SnapshotDebounce),
	}

	// --- Redis (optional) ---
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		snapshots := store.NewRedisStore(rdb, "dodgeballhub:")
		checks["redis"] = health.CheckerFunc(snapshots.Ping)
		opts = append(opts, session.WithSnapshotStore(snapshots))
	}

	// --- Engines ---
	rec := progress.NewRecorder(docs, catalog, logger, progress.WithNow(clock.Now))
	broker := server.NewBroker()
	opts = append(opts, session.WithPublisher(broker))
	sessions := session.NewManager(docs, rec, cfg.Settings(), logger, opts...)

	cron, err := gocron.NewScheduler(gocron.WithClock(clock), gocron.WithLogger(gocronLogger{logger}))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if _, err := rec.ScheduleReconcile(cron, cfg.BadgeSweepInterval); err != nil {
		return err
	}
	cron.Start()

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Progress: rec,
		Sessions: sessions,
		Balancer: teams.NewBalancer(nil),
		Broker:   broker,
		WebDir:   cfg.WebDir,
	}, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/ws", live.NewHandler(logger, broker, sessions).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		return errors.Join(
			srv.Shutdown(shutdownCtx),
			sessions.Close(shutdownCtx),
			cron.Shutdown(),
		)
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// gocronLogger adapts slog to gocron.Logger.
type gocronLogger struct{ l *slog.Logger }

func (g gocronLogger) Debug(msg string, args ...any) { g.l.Debug(msg, args...) }
func (g gocronLogger) Error(msg string, args ...any) { g.l.Error(msg, args...) }
func (g gocronLogger) Info(msg string, args ...any)  { g.l.Info(msg, args...) }
func (g gocronLogger) Warn(msg string, args ...any)  { g.l.Warn(msg, args...) }
