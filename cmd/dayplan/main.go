package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/alexanderramin/dayplan/internal/cli"
	"github.com/alexanderramin/dayplan/internal/config"
	"github.com/alexanderramin/dayplan/internal/db"
	"github.com/alexanderramin/dayplan/internal/domain"
	"github.com/alexanderramin/dayplan/internal/httpapi"
	"github.com/alexanderramin/dayplan/internal/planner"
	"github.com/alexanderramin/dayplan/internal/repository"
	"github.com/alexanderramin/dayplan/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	remote, closeRemote := openRemote(cfg, logger)
	defer closeRemote()

	tracker := service.NewActivityTracker(
		repository.NewSQLiteActivityLogRepo(database),
		db.NewSQLiteUnitOfWork(database),
		time.Now,
	)

	var observer service.PlanObserver = service.NoopPlanObserver{}
	if cfg.Log.UseCases {
		observer = service.NewLogPlanObserver(os.Stderr)
	}

	plans := service.NewPlanService(
		repository.NewSQLitePlanCache(database),
		remote,
		planner.NewRuleGenerator(cfg.Location()),
		tracker,
		service.Options{
			Logger:        logger,
			Observer:      observer,
			Location:      cfg.Location(),
			LookbackDays:  cfg.Planning.LookbackDays,
			MaxCarryover:  cfg.Planning.MaxCarryover,
			RemoteTimeout: cfg.RemoteTimeout(),
		},
	)

	app := &cli.App{
		Plans:    plans,
		Tracker:  tracker,
		UserID:   cfg.User,
		Course:   domain.DefaultCourse,
		Now:      time.Now,
		Location: cfg.Location(),
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		HTTPAddr: cfg.HTTP.Addr,
		Serve: func(ctx context.Context, addr string) error {
			return serve(ctx, httpapi.NewServer(plans, tracker, logger).NewHTTPServer(addr), logger)
		},
	}

	return cli.NewRootCmd(app).Execute()
}

// openRemote selects the remote plan store. An unreachable backend
// degrades to offline so local planning keeps working.
func openRemote(cfg config.Config, logger *slog.Logger) (repository.PlanStore, func()) {
	noop := func() {}

	switch cfg.Remote.Backend {
	case config.RemoteRedis:
		client, err := repository.NewRedisClient(context.Background(), cfg.Remote.Redis.Addr, cfg.Remote.Redis.Password, cfg.Remote.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, running offline", "addr", cfg.Remote.Redis.Addr, "error", err)
			return repository.OfflinePlanStore{}, noop
		}
		return repository.NewRedisPlanStore(client), func() { _ = client.Close() }

	case config.RemotePostgres, config.RemoteSQLite:
		open := repository.OpenPostgres
		target := cfg.Remote.PostgresDSN
		if cfg.Remote.Backend == config.RemoteSQLite {
			open = repository.OpenSQLiteRemote
			target = cfg.Remote.SQLitePath
		}
		gdb, err := open(target)
		if err != nil {
			logger.Warn("remote database unavailable, running offline", "backend", cfg.Remote.Backend, "error", err)
			return repository.OfflinePlanStore{}, noop
		}
		closeDB := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		store, err := repository.NewGormPlanStore(gdb)
		if err != nil {
			closeDB()
			logger.Warn("remote schema migration failed, running offline", "backend", cfg.Remote.Backend, "error", err)
			return repository.OfflinePlanStore{}, noop
		}
		return store, closeDB

	default:
		return repository.OfflinePlanStore{}, noop
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
