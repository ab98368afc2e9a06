package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"inkcopilot/config"
	"inkcopilot/internal/apiclient"
	"inkcopilot/internal/checkout"
	"inkcopilot/internal/database"
	"inkcopilot/internal/logging"
	"inkcopilot/internal/middleware"
	"inkcopilot/internal/repository"
	"inkcopilot/internal/router"
	"inkcopilot/internal/scheduler"
	"inkcopilot/internal/service"
	"inkcopilot/internal/ws"
	"inkcopilot/pkg/cloudinary"
)

const shutdownTimeout = 10 * time.Second

func runServer() error {
	cfg := config.Load()
	logger := logging.Init(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level, Component: "server"})

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cloud, err := cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
	if err != nil {
		logger.Info().Err(err).Msg("[cloudinary] avatar upload disabled")
		cloud = nil
	}

	if cfg.Auth.SessionSecret == config.DefaultSessionSecret {
		if cfg.Server.Env == "production" {
			return errors.New("INK_SESSION_SECRET must be set in production")
		}
		logger.Warn().Msg("[auth] using the development session secret")
	}

	clock := clockwork.NewRealClock()
	attemptRepo := repository.NewAttemptRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)

	hub := ws.NewHub()
	recorder := service.NewAttemptRecorder(attemptRepo, logging.New("attempts"))
	receipts := service.NewReceiptService(receiptRepo, service.NewMailer(cfg.Email, logging.New("mailer")), cfg.Email, logging.New("receipts"))
	registry := checkout.NewRegistry(checkout.Options{
		PollInterval:  cfg.Checkout.PollInterval,
		Deadline:      cfg.Checkout.Deadline,
		RedirectDelay: cfg.Checkout.RedirectDelay,
		RedirectTo:    cfg.Checkout.RedirectTo,
		CancelTimeout: cfg.Checkout.CancelTimeout,
		Tier:          cfg.Pricing,
		Clock:         clock,
		Logger:        logging.New("checkout"),
		Observer: checkout.Observers{
			recorder,
			hub,
			receipts,
		},
	}, cfg.Checkout.SessionTTL)

	limiter := middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit, time.Minute, clock)

	sched := scheduler.New(logger)
	jobs := []scheduler.Job{
		{Name: "checkout-janitor", Spec: cfg.Scheduler.JanitorSpec, Run: func(context.Context) error {
			registry.Sweep()
			limiter.Sweep()
			return nil
		}},
		{Name: "attempt-purge", Spec: cfg.Scheduler.PurgeSpec, Run: func(context.Context) error {
			n, err := attemptRepo.PurgeBefore(clock.Now().Add(-cfg.Checkout.Retention))
			if err == nil && n > 0 {
				logger.Info().Int64("rows", n).Msg("[scheduler] purged checkout attempts")
			}
			return err
		}},
		{Name: "attempt-report", Spec: cfg.Scheduler.PurgeSpec, Run: func(context.Context) error {
			return reportAttempts(logger, attemptRepo, clock.Now().Add(-24*time.Hour))
		}},
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			return fmt.Errorf("schedule %s: %w", job.Name, err)
		}
	}

	engine := router.Setup(router.Deps{
		Config:   cfg,
		DB:       db,
		API:      apiclient.New(cfg.API, logging.New("apiclient")),
		Registry: registry,
		Hub:      hub,
		Limiter:  limiter,
		Cloud:    cloud,
		Clock:    clock,
		Logger:   logging.New("http"),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		receipts.Run(gctx)
		return nil
	})
	g.Go(func() error {
		recorder.Run(gctx)
		return nil
	})
	sched.Start()

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down...")
		sched.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
		if err := registry.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("checkout sessions still running at shutdown")
		}
		recorder.Flush()
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func reportAttempts(logger zerolog.Logger, repo *repository.AttemptRepository, since time.Time) error {
	counts, err := repo.CountByState(since)
	if err != nil {
		return err
	}
	ev := logger.Info()
	for state, n := range counts {
		ev = ev.Int64(state, n)
	}
	ev.Msg("[checkout] attempts in the last 24h")
	return nil
}
