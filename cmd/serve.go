package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/adapters/telegram"
	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/scheduler"
	"github.com/bnema/shiftlog/internal/telemetry"
	"github.com/bnema/shiftlog/internal/version"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the sweep, archive and backup schedules and the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app)
		},
	}
}

func runServe(ctx context.Context, app *app) error {
	log := app.log
	log.Info("starting shiftlog",
		zap.String("version", version.Version),
		zap.String("db", app.cfg.DBPath),
		zap.Bool("telegram", app.bot != nil),
	)

	shutdownTracing, err := telemetry.Setup(ctx, app.cfg.OTelEndpoint, version.Version)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shCtx); err != nil {
			log.Warn("telemetry shutdown error", zap.Error(err))
		}
	}()

	sched, err := newScheduler(app)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	if app.cfg.HTTPAddr != "" {
		srv := newHealthServer(app.cfg.HTTPAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server error", zap.Error(err))
			}
		}()
		defer func() {
			shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shCtx); err != nil {
				log.Warn("http server shutdown error", zap.Error(err))
			}
		}()
	}

	if app.bot != nil {
		router := telegram.NewRouter(app.bot, log, app.sessions, app.liveness, app.reports)

		u := tgbotapi.NewUpdate(0)
		u.Timeout = 30
		updates := app.bot.GetUpdatesChan(u)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := router.Run(ctx, updates); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("telegram router stopped", zap.Error(err))
			}
		}()
		defer app.bot.StopReceivingUpdates()
	}

	<-ctx.Done()
	log.Info("shutdown signal received")
	wg.Wait()
	return nil
}

func newScheduler(app *app) (*scheduler.Scheduler, error) {
	loc, err := domain.LoadLocation(app.cfg.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("schedule timezone: %w", err)
	}
	archiveSpec, err := scheduler.ParseSpec(app.cfg.Schedule.Archive)
	if err != nil {
		return nil, fmt.Errorf("archive schedule: %w", err)
	}
	backupSpec, err := scheduler.ParseSpec(app.cfg.Schedule.Backup)
	if err != nil {
		return nil, fmt.Errorf("backup schedule: %w", err)
	}

	opts := application.ArchiveOptions{Drain: app.cfg.ArchiveDrain}
	sweep := func(ctx context.Context, now time.Time) error {
		_, err := app.liveness.Sweep(ctx, now)
		return err
	}

	return scheduler.New(app.log, app.clock, loc, app.cfg.SweepInterval, sweep,
		scheduler.Job{
			Name: "archive",
			Spec: archiveSpec,
			Run: func(ctx context.Context, _ time.Time) error {
				_, err := app.archive.ArchiveAll(ctx, opts)
				return err
			},
		},
		scheduler.Job{
			Name: "backup",
			Spec: backupSpec,
			Run: func(ctx context.Context, _ time.Time) error {
				_, err := app.backup.BackupAll(ctx)
				return err
			},
		},
	)
}

func newHealthServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}
