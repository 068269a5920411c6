package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

type BackupService struct {
	store    ports.SessionStore
	tenants  TenantConfigs
	writer   ports.BackupWriter
	notifier ports.Notifier
	locks    *Locks
	upload   bool
	logger   *zap.Logger
	clock    ports.Clock
}

// NewBackupService returns a service that writes tenant backups and, when
// upload is set, posts the files to the tenant's operator channel.
func NewBackupService(store ports.SessionStore, tenants TenantConfigs, writer ports.BackupWriter, notifier ports.Notifier, locks *Locks, upload bool, logger *zap.Logger, clock ports.Clock) *BackupService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}

	return &BackupService{
		store:    store,
		tenants:  tenants,
		writer:   writer,
		notifier: notifier,
		locks:    locks,
		upload:   upload,
		logger:   logger,
		clock:    clock,
	}
}

func (s *BackupService) Backup(ctx context.Context, tenant domain.TenantID) (BackupResult, error) {
	cfg, err := s.tenants.Config(ctx, tenant)
	if err != nil {
		return BackupResult{}, err
	}

	backup, err := s.collect(ctx, cfg)
	if err != nil {
		return BackupResult{}, err
	}

	files, err := s.writer.Write(ctx, backup)
	if err != nil {
		return BackupResult{}, fmt.Errorf("write backup: %w", err)
	}
	result := BackupResult{TenantID: tenant, Files: files}

	s.logger.Info("backup written",
		zap.String("tenant", string(tenant)),
		zap.Int("sessions", len(backup.Sessions)),
		zap.Strings("files", files),
	)

	if s.upload && s.notifier != nil && cfg.OperatorChannel != "" {
		err := s.notifier.Notify(ctx, domain.Notification{
			TenantID:    tenant,
			Channel:     cfg.OperatorChannel,
			Text:        fmt.Sprintf("Nightly backup: %d sessions, %d adjustments.", len(backup.Sessions), len(backup.Adjustments)),
			Attachments: files,
		})
		if err != nil {
			s.logger.Warn("backup upload failed",
				zap.String("tenant", string(tenant)),
				zap.Error(fmt.Errorf("%w: %w", domain.ErrNotification, err)),
			)
		} else {
			result.Uploaded = true
		}
	}

	return result, nil
}

func (s *BackupService) BackupAll(ctx context.Context) ([]BackupResult, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, storeError("list tenants", err)
	}

	results := make([]BackupResult, 0, len(tenants))
	var errs error
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return results, errors.Join(errs, err)
		}
		result, err := s.Backup(ctx, tenant)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("backup tenant %s: %w", tenant, err))
			continue
		}
		results = append(results, result)
	}

	return results, errs
}

func (s *BackupService) collect(ctx context.Context, cfg domain.TenantConfig) (domain.TenantBackup, error) {
	unlock := s.locks.RLockTenant(cfg.ID)
	defer unlock()

	sessions, err := s.store.ListSessions(ctx, cfg.ID)
	if err != nil {
		return domain.TenantBackup{}, storeError("list sessions", err)
	}

	var pauses []domain.Pause
	for _, session := range sessions {
		sessionPauses, err := s.store.ListPauses(ctx, session.ID)
		if err != nil {
			return domain.TenantBackup{}, storeError("list pauses", err)
		}
		pauses = append(pauses, sessionPauses...)
	}

	adjustments, err := s.store.ListAdjustments(ctx, cfg.ID)
	if err != nil {
		return domain.TenantBackup{}, storeError("list adjustments", err)
	}

	return domain.TenantBackup{
		TenantID:    cfg.ID,
		Timezone:    cfg.Timezone,
		CreatedAt:   s.clock.Now(),
		Sessions:    sessions,
		Pauses:      pauses,
		Adjustments: adjustments,
	}, nil
}
