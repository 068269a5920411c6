package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

const (
	tracerName       = "github.com/bnema/shiftlog/internal/application"
	livenessPingText = "Are you still on shift?"
)

type sweepOutcome int

const (
	outcomeIdle sweepOutcome = iota
	outcomePinged
	outcomeClosed
	outcomeSkipped
)

// LivenessService pings open sessions and closes the ones whose owner does
// not answer within the tenant's timeout. Paused sessions are never pinged.
type LivenessService struct {
	store    ports.SessionStore
	sessions *SessionService
	tenants  TenantConfigs
	notifier ports.Notifier
	locks    *Locks
	logger   *zap.Logger
	clock    ports.Clock
	tracer   trace.Tracer

	mu sync.Mutex
	// issued holds the in-process reading of each ping this process sent, so
	// elapsed time is measured on the monotonic clock when possible.
	issued map[domain.SessionID]time.Time
}

func NewLivenessService(store ports.SessionStore, sessions *SessionService, tenants TenantConfigs, notifier ports.Notifier, locks *Locks, logger *zap.Logger, clock ports.Clock) *LivenessService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}

	return &LivenessService{
		store:    store,
		sessions: sessions,
		tenants:  tenants,
		notifier: notifier,
		locks:    locks,
		logger:   logger,
		clock:    clock,
		tracer:   otel.Tracer(tracerName),
		issued:   map[domain.SessionID]time.Time{},
	}
}

// Sweep runs one liveness pass over every open session of every tenant.
// Per-session failures are counted and logged; only store listing failures
// and context cancellation abort the pass.
func (s *LivenessService) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	ctx, span := s.tracer.Start(ctx, "liveness.sweep")
	defer span.End()

	open, err := s.store.ListOpenSessions(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "list open sessions")
		return SweepReport{}, storeError("list open sessions", err)
	}

	var report SweepReport
	seen := make(map[domain.SessionID]struct{}, len(open))
	for _, session := range open {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		seen[session.ID] = struct{}{}
		report.Checked++

		outcome, err := s.sweepSession(ctx, session, now)
		if err != nil {
			report.Failed++
			s.logger.Error("liveness check failed",
				zap.String("tenant", string(session.TenantID)),
				zap.Int64("session_id", int64(session.ID)),
				zap.Error(err),
			)
			continue
		}

		switch outcome {
		case outcomePinged:
			report.Pinged++
		case outcomeClosed:
			report.Closed++
		case outcomeSkipped:
			report.Skipped++
		}
	}
	s.forgetExcept(seen)

	span.SetAttributes(
		attribute.Int("sweep.checked", report.Checked),
		attribute.Int("sweep.pinged", report.Pinged),
		attribute.Int("sweep.closed", report.Closed),
		attribute.Int("sweep.failed", report.Failed),
	)
	if report.Pinged > 0 || report.Closed > 0 || report.Failed > 0 {
		s.logger.Info("liveness sweep finished",
			zap.Int("checked", report.Checked),
			zap.Int("pinged", report.Pinged),
			zap.Int("closed", report.Closed),
			zap.Int("skipped", report.Skipped),
			zap.Int("failed", report.Failed),
		)
	}

	return report, nil
}

// Acknowledge handles a "still here" answer.
func (s *LivenessService) Acknowledge(ctx context.Context, id domain.SessionID) (SessionResult, error) {
	result, err := s.sessions.Acknowledge(ctx, id)
	if err != nil {
		return SessionResult{}, err
	}

	s.forget(id)
	return result, nil
}

// CloseFromPing handles a "close now" answer.
func (s *LivenessService) CloseFromPing(ctx context.Context, id domain.SessionID) (SessionResult, error) {
	result, err := s.sessions.closeByID(ctx, id, domain.CloseReasonFromPing, s.clock.Now())
	if err != nil {
		return SessionResult{}, err
	}

	s.forget(id)
	return result, nil
}

func (s *LivenessService) sweepSession(ctx context.Context, listed domain.Session, now time.Time) (sweepOutcome, error) {
	cfg, err := s.tenants.Config(ctx, listed.TenantID)
	if err != nil {
		return outcomeIdle, err
	}

	unlock := s.locks.LockUser(listed.TenantID, listed.UserID)
	session, err := s.store.GetSession(ctx, listed.ID)
	if err != nil {
		unlock()
		if errors.Is(err, domain.ErrSessionNotFound) {
			return outcomeSkipped, nil
		}
		return outcomeIdle, storeError("get session", err)
	}
	if session.Status != domain.StatusOpen {
		unlock()
		return outcomeSkipped, nil
	}

	if session.PendingPing {
		defer unlock()
		if s.sincePing(session, now) < cfg.PingTimeout {
			return outcomeIdle, nil
		}

		_, err := s.sessions.closeLocked(ctx, session, domain.CloseReasonTimeout, now)
		if errors.Is(err, domain.ErrAlreadyClosed) {
			return outcomeSkipped, nil
		}
		if err != nil {
			return outcomeIdle, err
		}
		s.forget(session.ID)
		return outcomeClosed, nil
	}

	if session.LastPingAt != nil && s.sincePing(session, now) < cfg.PingInterval {
		unlock()
		return outcomeIdle, nil
	}

	session.LastPingAt = &now
	session.PendingPing = true
	err = s.store.UpdatePing(ctx, session)
	unlock()
	if errors.Is(err, domain.ErrAlreadyClosed) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeIdle, storeError("update ping", err)
	}
	s.remember(session.ID, now)

	s.sendPing(ctx, cfg, session)
	return outcomePinged, nil
}

// sendPing runs after the ping state is persisted. A delivery failure never
// undoes it: the session still times out if nobody answers.
func (s *LivenessService) sendPing(ctx context.Context, cfg domain.TenantConfig, session domain.Session) {
	if s.notifier == nil {
		return
	}

	err := s.notifier.Notify(ctx, domain.Notification{
		TenantID: session.TenantID,
		UserID:   session.UserID,
		Channel:  cfg.OperatorChannel,
		Text:     livenessPingText,
		Actions:  domain.LivenessActions(session.ID),
	})
	if err != nil {
		s.logger.Warn("liveness ping delivery failed",
			zap.String("tenant", string(session.TenantID)),
			zap.String("user", string(session.UserID)),
			zap.Int64("session_id", int64(session.ID)),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrNotification, err)),
		)
	}
}

func (s *LivenessService) sincePing(session domain.Session, now time.Time) time.Duration {
	if session.LastPingAt == nil {
		return 0
	}

	s.mu.Lock()
	issued, ok := s.issued[session.ID]
	s.mu.Unlock()

	if ok && issued.UnixMilli() == session.LastPingAt.UnixMilli() {
		return now.Sub(issued)
	}
	return now.Sub(*session.LastPingAt)
}

func (s *LivenessService) remember(id domain.SessionID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[id] = at
}

func (s *LivenessService) forget(id domain.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.issued, id)
}

func (s *LivenessService) forgetExcept(keep map[domain.SessionID]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.issued {
		if _, ok := keep[id]; !ok {
			delete(s.issued, id)
		}
	}
}
