package ports

import (
	"context"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
)

// SessionStore persists live sessions, their pauses, adjustments and history.
//
// Methods that change a session are guarded by the session's expected status:
// when the stored status no longer matches they fail with domain.ErrAlreadyClosed
// (the session closed in the meantime) or domain.ErrConflict.
type SessionStore interface {
	// CreateSession fails with domain.ErrConflict when the user already has an
	// open or paused session in the tenant.
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error)
	FindActiveSession(ctx context.Context, tenant domain.TenantID, user domain.UserID) (domain.Session, error)
	// ListSessions returns the tenant's live sessions, optionally filtered by status.
	ListSessions(ctx context.Context, tenant domain.TenantID, statuses ...domain.Status) ([]domain.Session, error)
	// ListOpenSessions returns open sessions across every tenant.
	ListOpenSessions(ctx context.Context) ([]domain.Session, error)
	ListPauses(ctx context.Context, id domain.SessionID) ([]domain.Pause, error)
	// ApplyTransition writes transition.Session and inserts or ends transition.Pause
	// in one transaction, guarded by transition.From.
	ApplyTransition(ctx context.Context, transition domain.Transition) error
	// UpdatePing writes LastPingAt and PendingPing, guarded by session.Status.
	UpdatePing(ctx context.Context, session domain.Session) error
	// ListTenants returns tenants with live sessions or adjustments not yet
	// exported by an archive run.
	ListTenants(ctx context.Context) ([]domain.TenantID, error)

	AddAdjustment(ctx context.Context, adjustment domain.Adjustment) (domain.Adjustment, error)
	// ListAdjustments returns every adjustment of the tenant, archived or not.
	ListAdjustments(ctx context.Context, tenant domain.TenantID) ([]domain.Adjustment, error)

	ListHistory(ctx context.Context, tenant domain.TenantID) ([]domain.HistoryRecord, error)
	// Archive moves a tenant's live data to history in one transaction and
	// returns the restarted sessions with their assigned ids.
	Archive(ctx context.Context, batch ArchiveBatch) ([]domain.Session, error)
}

// ArchiveBatch is the write half of an archive run. Records replace every live
// session of the tenant; Restart sessions are inserted afterwards. Adjustments
// lists the exported adjustment ids, which are stamped with RunID.
type ArchiveBatch struct {
	RunID       string
	TenantID    domain.TenantID
	ArchivedAt  time.Time
	Records     []domain.HistoryRecord
	Restart     []RestartSession
	Adjustments []int64
}

// RestartSession is a drained session continued after the cut. Pause is the
// open pause of a session that restarts paused.
type RestartSession struct {
	Session domain.Session
	Pause   *domain.Pause
}
