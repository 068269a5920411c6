package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/adapters/export"
	"github.com/bnema/shiftlog/internal/adapters/notify/chain"
	"github.com/bnema/shiftlog/internal/adapters/notify/logchan"
	"github.com/bnema/shiftlog/internal/adapters/render/report"
	sqlitestore "github.com/bnema/shiftlog/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/shiftlog/internal/adapters/repo/toml"
	"github.com/bnema/shiftlog/internal/adapters/telegram"
	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/config"
	"github.com/bnema/shiftlog/internal/logger"
	"github.com/bnema/shiftlog/internal/ports"
)

type app struct {
	cfg    config.Config
	log    *zap.Logger
	clock  ports.Clock
	store  *sqlitestore.Store
	bot    *tgbotapi.BotAPI
	locks  *application.Locks
	notify ports.Notifier

	tenants     *application.TenantService
	sessions    *application.SessionService
	liveness    *application.LivenessService
	archive     *application.ArchiveService
	backup      *application.BackupService
	reports     *application.ReportService
	adjustments *application.AdjustmentService

	leaderboardRenderer func(report.Leaderboard) (string, error)
	totalsRenderer      func(report.Totals) (string, error)
}

func wireApp() (*app, error) {
	v, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	store, err := sqlitestore.Open(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	repo, err := tomlrepo.NewRepository(cfg.TenantsPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire tenant repository: %w", err)
	}

	backupWriter, err := export.NewBackupWriter(cfg.BackupDir)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("wire backup writer: %w", err)
	}

	a := &app{
		cfg:                 cfg,
		log:                 log,
		clock:               ports.SystemClock{},
		store:               store,
		locks:               application.NewLocks(),
		leaderboardRenderer: report.RenderLeaderboard,
		totalsRenderer:      report.RenderTotals,
	}

	notifier, err := a.wireNotifier()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.notify = notifier

	a.tenants = application.NewTenantService(repo, cfg.TenantDefaults, a.clock)
	a.sessions = application.NewSessionService(store, a.tenants, a.notify, a.locks, cfg.Rates, log, a.clock)
	a.liveness = application.NewLivenessService(store, a.sessions, a.tenants, a.notify, a.locks, log, a.clock)
	a.archive = application.NewArchiveService(store, a.tenants, export.NewCSVExporter(cfg.BackupDir), a.notify, a.locks, log, a.clock)
	a.backup = application.NewBackupService(store, a.tenants, backupWriter, a.notify, a.locks, cfg.BackupUpload, log, a.clock)
	a.reports = application.NewReportService(store, a.tenants, cfg.Rates, log, a.clock)
	a.adjustments = application.NewAdjustmentService(store, log, a.clock)

	return a, nil
}

// wireNotifier delivers to Telegram when a bot token is configured: first as
// a direct message, then through the operator channel. The log channel is
// always the last resort.
func (a *app) wireNotifier() (ports.Notifier, error) {
	notifiers := make([]ports.Notifier, 0, 3)
	if a.cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(a.cfg.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("wire telegram bot: %w", err)
		}
		a.bot = bot
		notifiers = append(notifiers, telegram.NewDirectNotifier(bot, a.log), telegram.NewChannelNotifier(bot, a.log))
	}
	notifiers = append(notifiers, logchan.NewNotifier(a.log))

	dispatcher, err := chain.NewDispatcherChecked(notifiers...)
	if err != nil {
		return nil, fmt.Errorf("wire notifier chain: %w", err)
	}
	return dispatcher, nil
}

func (a *app) now() time.Time {
	return a.clock.Now()
}

func (a *app) close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.log != nil {
		// Syncing stderr fails on some terminals; nothing to do about it.
		_ = a.log.Sync()
	}
	return errors.Join(errs...)
}
