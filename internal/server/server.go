// Package server boots nearcart: configuration, database, cache, storage,
// the job queue, event listeners, the scheduler, and the HTTP and gRPC
// servers.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/nearcart/app/jobs"
	"github.com/shashiranjanraj/nearcart/app/listeners"
	"github.com/shashiranjanraj/nearcart/app/routes"
	"github.com/shashiranjanraj/nearcart/config"
	"github.com/shashiranjanraj/nearcart/pkg/cache"
	"github.com/shashiranjanraj/nearcart/pkg/database"
	"github.com/shashiranjanraj/nearcart/pkg/event"
	"github.com/shashiranjanraj/nearcart/pkg/grpc"
	"github.com/shashiranjanraj/nearcart/pkg/logger"
	"github.com/shashiranjanraj/nearcart/pkg/queue"
	"github.com/shashiranjanraj/nearcart/pkg/schedule"
	"github.com/shashiranjanraj/nearcart/pkg/storage"
	"github.com/shashiranjanraj/nearcart/pkg/workerpool"
)

const shutdownTimeout = 10 * time.Second

// App is the shared infrastructure of the serve and queue:work commands.
type App struct {
	DB    *gorm.DB
	Queue *queue.Manager
	Disk  storage.Disk
}

// Boot loads configuration and connects every backing service. Redis and
// the MongoDB log sink are optional; the database and storage are not.
func Boot(ctx context.Context) (*App, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := logger.EnableMongo(); err != nil {
		logger.Warn("logger: mongo sink disabled", "error", err)
	}

	if err := database.Connect(); err != nil {
		return nil, err
	}
	if err := cache.Connect(ctx); err != nil {
		logger.Warn("cache: redis unavailable, search results will not be cached", "error", err)
	}
	if err := storage.Connect(ctx); err != nil {
		return nil, err
	}

	m := queue.Default()
	switch config.QueueDriver() {
	case "redis":
		if !cache.Enabled() {
			return nil, errors.New("queue: QUEUE_DRIVER=redis needs a reachable REDIS_ADDR")
		}
		m.SetDriver(queue.NewRedisDriver(cache.RDB))
	case "memory":
	default:
		return nil, fmt.Errorf("queue: unknown driver %q", config.QueueDriver())
	}
	m.UseDB(database.DB)

	app := &App{DB: database.DB, Queue: m, Disk: storage.Default()}
	jobs.Register(app.Queue, app.DB, app.Disk)
	return app, nil
}

// Close releases the connections opened by Boot.
func (a *App) Close() {
	if err := cache.Close(); err != nil {
		logger.Warn("cache: close", "error", err)
	}
	if err := database.Close(); err != nil {
		logger.Warn("database: close", "error", err)
	}
	logger.Close()
}

// Start serves HTTP and gRPC until SIGINT or SIGTERM, then drains in-flight
// requests and background work.
func Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Boot(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	svcs := routes.NewServices(app.DB)
	r, err := routes.New(svcs)
	if err != nil {
		return err
	}

	pool := workerpool.New(config.EventWorkers())
	defer pool.Shutdown()
	event.UsePool(pool)
	listeners.Register(app.Queue)
	app.Queue.Work(ctx, config.QueueWorkers())

	sched := schedule.New()
	sched.Hourly().Name("checkout-keys:prune").WithoutOverlapping().Run(func(ctx context.Context) error {
		n, err := svcs.Checkout.PruneKeys(ctx)
		if err == nil && n > 0 {
			logger.Info("pruned expired idempotency keys", "count", n)
		}
		return err
	})
	sched.Start(ctx)

	grpcSrv, err := grpc.Start(ctx, config.GRPCPort(), database.Ping)
	if err != nil {
		return err
	}
	defer grpcSrv.Stop()

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           r.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("nearcart listening", "addr", srv.Addr, "grpc", config.GRPCPort(), "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	sched.Wait()
	return nil
}
