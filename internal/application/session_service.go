package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

type SessionService struct {
	store    ports.SessionStore
	tenants  TenantConfigs
	notifier ports.Notifier
	locks    *Locks
	rates    domain.Rates
	logger   *zap.Logger
	clock    ports.Clock
}

func NewSessionService(store ports.SessionStore, tenants TenantConfigs, notifier ports.Notifier, locks *Locks, rates domain.Rates, logger *zap.Logger, clock ports.Clock) *SessionService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locks == nil {
		locks = NewLocks()
	}

	return &SessionService{
		store:    store,
		tenants:  tenants,
		notifier: notifier,
		locks:    locks,
		rates:    rates,
		logger:   logger,
		clock:    clock,
	}
}

func (s *SessionService) Start(ctx context.Context, cmd StartSessionCommand) (SessionResult, error) {
	if err := validateTarget(cmd.TenantID, cmd.UserID); err != nil {
		return SessionResult{}, err
	}
	cfg, err := s.tenants.Config(ctx, cmd.TenantID)
	if err != nil {
		return SessionResult{}, err
	}

	unlock := s.locks.LockUser(cmd.TenantID, cmd.UserID)
	defer unlock()

	_, err = s.store.FindActiveSession(ctx, cmd.TenantID, cmd.UserID)
	switch {
	case err == nil:
		return SessionResult{}, fmt.Errorf("%w: user %s already has an active session", domain.ErrConflict, cmd.UserID)
	case !errors.Is(err, domain.ErrSessionNotFound):
		return SessionResult{}, storeError("find active session", err)
	}

	session, err := s.store.CreateSession(ctx, domain.NewSession(cmd.TenantID, cmd.UserID, s.clock.Now()))
	if err != nil {
		return SessionResult{}, storeError("create session", err)
	}

	s.logger.Info("session started",
		zap.String("tenant", string(session.TenantID)),
		zap.String("user", string(session.UserID)),
		zap.Int64("session_id", int64(session.ID)),
	)
	s.postActivity(ctx, cfg, fmt.Sprintf("%s started a shift", session.UserID))

	return SessionResult{Session: session}, nil
}

func (s *SessionService) Pause(ctx context.Context, cmd PauseSessionCommand) (SessionResult, error) {
	return s.transition(ctx, cmd.TenantID, cmd.UserID, "paused", func(session domain.Session, pauses []domain.Pause, now time.Time) (domain.Transition, error) {
		return session.Pause(now, pauses)
	})
}

func (s *SessionService) Resume(ctx context.Context, cmd ResumeSessionCommand) (SessionResult, error) {
	return s.transition(ctx, cmd.TenantID, cmd.UserID, "resumed", func(session domain.Session, pauses []domain.Pause, now time.Time) (domain.Transition, error) {
		return session.Resume(now, pauses)
	})
}

func (s *SessionService) Close(ctx context.Context, cmd CloseSessionCommand) (SessionResult, error) {
	if err := validateTarget(cmd.TenantID, cmd.UserID); err != nil {
		return SessionResult{}, err
	}

	unlock := s.locks.LockUser(cmd.TenantID, cmd.UserID)
	defer unlock()

	session, err := s.store.FindActiveSession(ctx, cmd.TenantID, cmd.UserID)
	if err != nil {
		return SessionResult{}, storeError("find active session", err)
	}

	return s.closeLocked(ctx, session, reasonOr(cmd.Reason, domain.CloseReasonUser), s.clock.Now())
}

func (s *SessionService) ForceClose(ctx context.Context, cmd ForceCloseCommand) (SessionResult, error) {
	if strings.TrimSpace(cmd.ActorID) == "" {
		return SessionResult{}, fmt.Errorf("%w: actor is required", domain.ErrValidation)
	}

	result, err := s.Close(ctx, CloseSessionCommand{
		TenantID: cmd.TenantID,
		UserID:   cmd.UserID,
		Reason:   reasonOr(cmd.Reason, domain.CloseReasonForced),
	})
	if err != nil {
		return SessionResult{}, err
	}

	s.logger.Info("session force-closed",
		zap.String("tenant", string(cmd.TenantID)),
		zap.String("user", string(cmd.UserID)),
		zap.String("actor", cmd.ActorID),
	)

	return result, nil
}

// CloseSession closes a session by id. Closing an already closed session
// returns domain.ErrAlreadyClosed and changes nothing.
func (s *SessionService) CloseSession(ctx context.Context, id domain.SessionID, reason string) (SessionResult, error) {
	return s.closeByID(ctx, id, reasonOr(reason, domain.CloseReasonUser), s.clock.Now())
}

func (s *SessionService) Get(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, storeError("get session", err)
	}
	return session, nil
}

// OnShift returns the tenant's open and paused sessions, earliest start first.
func (s *SessionService) OnShift(ctx context.Context, tenant domain.TenantID) ([]domain.Session, error) {
	if strings.TrimSpace(string(tenant)) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}

	sessions, err := s.store.ListSessions(ctx, tenant, domain.StatusOpen, domain.StatusPaused)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if !sessions[i].StartAt.Equal(sessions[j].StartAt) {
			return sessions[i].StartAt.Before(sessions[j].StartAt)
		}
		return sessions[i].UserID < sessions[j].UserID
	})
	return sessions, nil
}

func (s *SessionService) Acknowledge(ctx context.Context, id domain.SessionID) (SessionResult, error) {
	session, unlock, err := s.lockSession(ctx, id)
	if err != nil {
		return SessionResult{}, err
	}
	defer unlock()

	next, err := session.Acknowledge(s.clock.Now())
	if err != nil {
		return SessionResult{}, err
	}
	if err := s.store.UpdatePing(ctx, next); err != nil {
		return SessionResult{}, storeError("update ping", err)
	}

	return SessionResult{Session: next}, nil
}

func (s *SessionService) closeByID(ctx context.Context, id domain.SessionID, reason string, at time.Time) (SessionResult, error) {
	session, unlock, err := s.lockSession(ctx, id)
	if err != nil {
		return SessionResult{}, err
	}
	defer unlock()

	return s.closeLocked(ctx, session, reason, at)
}

// lockSession takes the owner's lock and returns the session as stored after
// the lock was acquired.
func (s *SessionService) lockSession(ctx context.Context, id domain.SessionID) (domain.Session, func(), error) {
	session, err := s.store.GetSession(ctx, id)
	if err != nil {
		return domain.Session{}, nil, storeError("get session", err)
	}

	unlock := s.locks.LockUser(session.TenantID, session.UserID)
	fresh, err := s.store.GetSession(ctx, id)
	if err != nil {
		unlock()
		return domain.Session{}, nil, storeError("get session", err)
	}

	return fresh, unlock, nil
}

// closeLocked must be called with the session owner's lock held.
func (s *SessionService) closeLocked(ctx context.Context, session domain.Session, reason string, at time.Time) (SessionResult, error) {
	cfg, err := s.tenants.Config(ctx, session.TenantID)
	if err != nil {
		return SessionResult{}, err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return SessionResult{}, err
	}

	pauses, err := s.store.ListPauses(ctx, session.ID)
	if err != nil {
		return SessionResult{}, storeError("list pauses", err)
	}

	transition, err := session.Close(at, reason, pauses, schedule)
	if err != nil {
		return SessionResult{}, err
	}
	if err := s.store.ApplyTransition(ctx, transition); err != nil {
		return SessionResult{}, storeError("apply close", err)
	}

	result := SessionResult{
		Session: transition.Session,
		Split:   transition.Split,
		Coins:   s.rates.CoinsFor(transition.Split),
	}

	s.logger.Info("session closed",
		zap.String("tenant", string(session.TenantID)),
		zap.String("user", string(session.UserID)),
		zap.Int64("session_id", int64(session.ID)),
		zap.String("reason", transition.Session.CloseReason),
		zap.Int64("normal_minutes", transition.Split.Normal),
		zap.Int64("stellar_minutes", transition.Split.Stellar),
	)
	s.postActivity(ctx, cfg, fmt.Sprintf("%s closed a shift (%s): %d normal + %d stellar min, %.2f coins",
		session.UserID, transition.Session.CloseReason, transition.Split.Normal, transition.Split.Stellar, result.Coins))

	return result, nil
}

type transitionFunc func(session domain.Session, pauses []domain.Pause, now time.Time) (domain.Transition, error)

func (s *SessionService) transition(ctx context.Context, tenant domain.TenantID, user domain.UserID, verb string, apply transitionFunc) (SessionResult, error) {
	if err := validateTarget(tenant, user); err != nil {
		return SessionResult{}, err
	}
	cfg, err := s.tenants.Config(ctx, tenant)
	if err != nil {
		return SessionResult{}, err
	}

	unlock := s.locks.LockUser(tenant, user)
	defer unlock()

	session, err := s.store.FindActiveSession(ctx, tenant, user)
	if err != nil {
		return SessionResult{}, storeError("find active session", err)
	}
	pauses, err := s.store.ListPauses(ctx, session.ID)
	if err != nil {
		return SessionResult{}, storeError("list pauses", err)
	}

	transition, err := apply(session, pauses, s.clock.Now())
	if err != nil {
		return SessionResult{}, err
	}
	if err := s.store.ApplyTransition(ctx, transition); err != nil {
		return SessionResult{}, storeError("apply transition", err)
	}

	s.logger.Info("session "+verb,
		zap.String("tenant", string(tenant)),
		zap.String("user", string(user)),
		zap.Int64("session_id", int64(session.ID)),
	)
	s.postActivity(ctx, cfg, fmt.Sprintf("%s %s their shift", user, verb))

	return SessionResult{Session: transition.Session}, nil
}

// postActivity writes one line to the tenant's operator channel. Delivery is
// best effort.
func (s *SessionService) postActivity(ctx context.Context, cfg domain.TenantConfig, text string) {
	if s.notifier == nil || cfg.OperatorChannel == "" {
		return
	}

	err := s.notifier.Notify(ctx, domain.Notification{
		TenantID: cfg.ID,
		Channel:  cfg.OperatorChannel,
		Text:     text,
	})
	if err != nil {
		s.logger.Warn("activity log delivery failed",
			zap.String("tenant", string(cfg.ID)),
			zap.Error(fmt.Errorf("%w: %w", domain.ErrNotification, err)),
		)
	}
}

func validateTarget(tenant domain.TenantID, user domain.UserID) error {
	if strings.TrimSpace(string(tenant)) == "" {
		return fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	if strings.TrimSpace(string(user)) == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return nil
}

func reasonOr(reason, fallback string) string {
	if strings.TrimSpace(reason) == "" {
		return fallback
	}
	return strings.TrimSpace(reason)
}

// storeError wraps a store failure. Domain sentinels and context errors pass
// through; anything else is reported as domain.ErrPersistence.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrAlreadyClosed),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrTenantNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistence, err)
	}
}
