package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

type ArchiveService struct {
	store    ports.SessionStore
	tenants  TenantConfigs
	exporter ports.Exporter
	notifier ports.Notifier
	locks    *Locks
	logger   *zap.Logger
	clock    ports.Clock
	tracer   trace.Tracer
	newRunID func() string
}

func NewArchiveService(store ports.SessionStore, tenants TenantConfigs, exporter ports.Exporter, notifier ports.Notifier, locks *Locks, logger *zap.Logger, clock ports.Clock) *ArchiveService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}

	return &ArchiveService{
		store:    store,
		tenants:  tenants,
		exporter: exporter,
		notifier: notifier,
		locks:    locks,
		logger:   logger,
		clock:    clock,
		tracer:   otel.Tracer(tracerName),
		newRunID: uuid.NewString,
	}
}

// ArchivePeriod moves every live session of the tenant to history. Live data
// is only touched once the export succeeded; any failure is returned as
// domain.ErrArchival and reported to the operator channel.
func (s *ArchiveService) ArchivePeriod(ctx context.Context, tenant domain.TenantID, opts ArchiveOptions) (ArchiveResult, error) {
	ctx, span := s.tracer.Start(ctx, "archive.period", trace.WithAttributes(
		attribute.String("tenant", string(tenant)),
		attribute.Bool("archive.drain", opts.Drain),
	))
	defer span.End()

	cfg, err := s.tenants.Config(ctx, tenant)
	if err != nil {
		return ArchiveResult{}, fmt.Errorf("%w: %w", domain.ErrArchival, err)
	}

	unlock := s.locks.LockTenant(tenant)
	defer unlock()

	result := ArchiveResult{
		RunID:      s.newRunID(),
		TenantID:   tenant,
		ArchivedAt: s.clock.Now(),
	}
	logger := s.logger.With(zap.String("tenant", string(tenant)), zap.String("run_id", result.RunID))

	fail := func(stage string, cause error) (ArchiveResult, error) {
		err := fmt.Errorf("%w: %s: %w", domain.ErrArchival, stage, cause)
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		logger.Error("archive failed", zap.String("stage", stage), zap.Error(err))
		s.notifyOperator(ctx, cfg, fmt.Sprintf("Archive %s failed at %s: %v. Live sessions were left untouched.", result.RunID, stage, cause), nil)
		return ArchiveResult{}, err
	}

	snapshot, restart, err := s.snapshot(ctx, cfg, result, opts)
	if err != nil {
		return fail("snapshot", err)
	}

	artifact, err := s.exporter.Export(ctx, snapshot)
	if err != nil {
		return fail("export", err)
	}

	adjustmentIDs := make([]int64, 0, len(snapshot.Adjustments))
	for _, adj := range snapshot.Adjustments {
		adjustmentIDs = append(adjustmentIDs, adj.ID)
	}

	restarted, err := s.store.Archive(ctx, ports.ArchiveBatch{
		RunID:       result.RunID,
		TenantID:    tenant,
		ArchivedAt:  result.ArchivedAt,
		Records:     snapshot.Records,
		Restart:     restart,
		Adjustments: adjustmentIDs,
	})
	if err != nil {
		return fail("commit", err)
	}

	result.Artifact = artifact
	result.Archived = len(snapshot.Records)
	result.Restarted = restarted

	span.SetAttributes(attribute.Int("archive.records", result.Archived), attribute.Int("archive.restarted", len(restarted)))
	logger.Info("archive committed",
		zap.Int("records", result.Archived),
		zap.Int("restarted", len(restarted)),
		zap.String("artifact", artifact),
	)
	s.notifyOperator(ctx, cfg, fmt.Sprintf("Archive %s: %d sessions moved to history, %d restarted.", result.RunID, result.Archived, len(restarted)), []string{artifact})

	return result, nil
}

// ArchiveAll archives every tenant with live sessions or unexported
// adjustments. Tenants are independent: one failing does not stop the others.
func (s *ArchiveService) ArchiveAll(ctx context.Context, opts ArchiveOptions) ([]ArchiveResult, error) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		return nil, storeError("list tenants", err)
	}

	results := make([]ArchiveResult, 0, len(tenants))
	var errs error
	for _, tenant := range tenants {
		if err := ctx.Err(); err != nil {
			return results, errors.Join(errs, err)
		}

		result, err := s.ArchivePeriod(ctx, tenant, opts)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("archive tenant %s: %w", tenant, err))
			continue
		}
		results = append(results, result)
	}

	return results, errs
}

// snapshot must be called with the tenant write lock held.
func (s *ArchiveService) snapshot(ctx context.Context, cfg domain.TenantConfig, run ArchiveResult, opts ArchiveOptions) (domain.ArchiveSnapshot, []ports.RestartSession, error) {
	schedule, err := cfg.Schedule()
	if err != nil {
		return domain.ArchiveSnapshot{}, nil, err
	}

	sessions, err := s.store.ListSessions(ctx, cfg.ID)
	if err != nil {
		return domain.ArchiveSnapshot{}, nil, storeError("list sessions", err)
	}

	records := make([]domain.HistoryRecord, 0, len(sessions))
	var restart []ports.RestartSession
	for _, session := range sessions {
		pauses, err := s.store.ListPauses(ctx, session.ID)
		if err != nil {
			return domain.ArchiveSnapshot{}, nil, storeError("list pauses", err)
		}

		if opts.Drain && session.Status.Active() {
			fresh, pause := session.Restart(run.ArchivedAt)
			restart = append(restart, ports.RestartSession{Session: fresh, Pause: pause})

			transition, err := session.Close(run.ArchivedAt, domain.CloseReasonArchive, pauses, schedule)
			if err != nil {
				return domain.ArchiveSnapshot{}, nil, fmt.Errorf("close session %d: %w", session.ID, err)
			}
			session = transition.Session
			pauses = replacePause(pauses, transition.Pause)
		}

		records = append(records, domain.HistoryRecord{
			Session:    session,
			Pauses:     pauses,
			ArchivedAt: run.ArchivedAt,
		})
	}

	all, err := s.store.ListAdjustments(ctx, cfg.ID)
	if err != nil {
		return domain.ArchiveSnapshot{}, nil, storeError("list adjustments", err)
	}
	var adjustments []domain.Adjustment
	for _, adj := range all {
		if !adj.Archived() {
			adjustments = append(adjustments, adj)
		}
	}

	return domain.ArchiveSnapshot{
		RunID:       run.RunID,
		TenantID:    cfg.ID,
		Timezone:    cfg.Timezone,
		ArchivedAt:  run.ArchivedAt,
		Records:     records,
		Adjustments: adjustments,
	}, restart, nil
}

func (s *ArchiveService) notifyOperator(ctx context.Context, cfg domain.TenantConfig, text string, attachments []string) {
	if s.notifier == nil || cfg.OperatorChannel == "" {
		return
	}

	err := s.notifier.Notify(ctx, domain.Notification{
		TenantID:    cfg.ID,
		Channel:     cfg.OperatorChannel,
		Text:        text,
		Attachments: attachments,
	})
	if err != nil {
		s.logger.Warn("archive notification failed",
			zap.String("tenant", string(cfg.ID)),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrNotification, err)),
		)
	}
}

func replacePause(pauses []domain.Pause, updated *domain.Pause) []domain.Pause {
	out := make([]domain.Pause, len(pauses))
	copy(out, pauses)
	if updated == nil {
		return out
	}
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = *updated
		}
	}
	return out
}
