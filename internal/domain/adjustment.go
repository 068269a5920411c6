package domain

import (
	"strings"
	"time"
)

// Adjustment is an append-only manual minute correction.
type Adjustment struct {
	ID        int64
	TenantID  TenantID
	UserID    UserID
	Minutes   int64
	Reason    string
	ActorID   string
	CreatedAt time.Time
	// RunID is the archive run that exported the adjustment; empty until then.
	RunID string
}

func (a Adjustment) Archived() bool {
	return a.RunID != ""
}

func (a Adjustment) Validate() error {
	if strings.TrimSpace(string(a.TenantID)) == "" {
		return validationError("tenant id is required")
	}
	if strings.TrimSpace(string(a.UserID)) == "" {
		return validationError("user id is required")
	}
	if a.Minutes == 0 {
		return validationError("adjustment minutes must be non-zero")
	}
	if strings.TrimSpace(a.ActorID) == "" {
		return validationError("actor is required")
	}
	return nil
}
