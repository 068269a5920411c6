package application

import (
	"time"

	"github.com/bnema/shiftlog/internal/domain"
)

type StartSessionCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
}

type PauseSessionCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
}

type ResumeSessionCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
}

type CloseSessionCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
	Reason   string
}

// ForceCloseCommand closes another user's session on behalf of ActorID.
type ForceCloseCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
	Reason   string
	ActorID  string
}

type AddAdjustmentCommand struct {
	TenantID domain.TenantID
	UserID   domain.UserID
	Minutes  int64
	Reason   string
	ActorID  string
}

// SetTenantCommand updates the non-nil fields of a tenant configuration.
type SetTenantCommand struct {
	ID              domain.TenantID
	Timezone        *string
	Windows         *string
	PingInterval    *time.Duration
	PingTimeout     *time.Duration
	OperatorChannel *string
}

type ArchiveOptions struct {
	// Drain closes in-progress sessions with reason "archive" and restarts
	// them after the boundary. Without it they are archived as partial
	// snapshots.
	Drain bool
}

func DefaultArchiveOptions() ArchiveOptions {
	return ArchiveOptions{Drain: true}
}
