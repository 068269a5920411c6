package application

import (
	"time"

	"github.com/bnema/shiftlog/internal/domain"
)

// SessionResult is the session snapshot after an operation. Split and Coins
// describe the minutes accounted by that operation, which is non-zero only
// for closes.
type SessionResult struct {
	Session domain.Session
	Split   domain.Split
	Coins   float64
}

type SweepReport struct {
	Checked int
	Pinged  int
	Closed  int
	Skipped int
	Failed  int
}

type ArchiveResult struct {
	RunID      string
	TenantID   domain.TenantID
	ArchivedAt time.Time
	Artifact   string
	Archived   int
	Restarted  []domain.Session
}

type BackupResult struct {
	TenantID domain.TenantID
	Files    []string
	Uploaded bool
}

type Totals struct {
	TenantID          domain.TenantID
	UserID            domain.UserID
	From              time.Time
	To                time.Time
	Split             domain.Split
	AdjustmentMinutes int64
	Coins             float64
}

type Standing struct {
	Rank   int
	UserID domain.UserID
	Split  domain.Split
	Coins  float64
}
