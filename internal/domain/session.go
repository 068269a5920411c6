package domain

import (
	"fmt"
	"strings"
	"time"
)

type TenantID string
type UserID string
type SessionID int64
type PauseID int64

type Status string

const (
	StatusOpen   Status = "open"
	StatusPaused Status = "paused"
	StatusClosed Status = "closed"
)

const (
	CloseReasonUser     = "user"
	CloseReasonTimeout  = "timeout"
	CloseReasonFromPing = "user-initiated-from-ping"
	CloseReasonArchive  = "archive"
	CloseReasonForced   = "forced"
)

func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", validationError("unknown session status %q", raw)
	}
	return status, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPaused, StatusClosed:
		return true
	default:
		return false
	}
}

// Active reports whether the status still accrues or may accrue time.
func (s Status) Active() bool {
	return s == StatusOpen || s == StatusPaused
}

type Session struct {
	ID             SessionID
	TenantID       TenantID
	UserID         UserID
	Status         Status
	StartAt        time.Time
	EndAt          *time.Time
	NormalMinutes  int64
	StellarMinutes int64
	LastPingAt     *time.Time
	PendingPing    bool
	CloseReason    string
}

type Pause struct {
	ID        PauseID
	SessionID SessionID
	Start     time.Time
	End       *time.Time
}

func (p Pause) IsOpen() bool {
	return p.End == nil
}

// Transition is the result of one legal state change. Pause is the pause row
// created or ended by the change, if any.
type Transition struct {
	From    Status
	Session Session
	Pause   *Pause
	Split   Split
}

func NewSession(tenant TenantID, user UserID, now time.Time) Session {
	return Session{
		TenantID: tenant,
		UserID:   user,
		Status:   StatusOpen,
		StartAt:  now,
	}
}

func (s Session) Validate() error {
	if strings.TrimSpace(string(s.TenantID)) == "" {
		return validationError("tenant id is required")
	}
	if strings.TrimSpace(string(s.UserID)) == "" {
		return validationError("user id is required")
	}
	if !s.Status.Valid() {
		return validationError("unknown session status %q", s.Status)
	}
	if s.StartAt.IsZero() {
		return validationError("start time is required")
	}
	if (s.Status == StatusClosed) != (s.EndAt != nil) {
		return validationError("end time must be set iff session is closed")
	}
	return nil
}

func (s Session) Pause(now time.Time, pauses []Pause) (Transition, error) {
	if s.Status != StatusOpen {
		return Transition{}, fmt.Errorf("%w: cannot pause a %s session", ErrInvalidState, s.Status)
	}
	if OpenPause(pauses) != nil {
		return Transition{}, fmt.Errorf("%w: session already has an open pause", ErrInvalidState)
	}

	next := s
	next.Status = StatusPaused

	return Transition{
		From:    s.Status,
		Session: next,
		Pause:   &Pause{SessionID: s.ID, Start: now},
	}, nil
}

func (s Session) Resume(now time.Time, pauses []Pause) (Transition, error) {
	if s.Status != StatusPaused {
		return Transition{}, fmt.Errorf("%w: cannot resume a %s session", ErrInvalidState, s.Status)
	}
	open := OpenPause(pauses)
	if open == nil {
		return Transition{}, fmt.Errorf("%w: session has no open pause", ErrInvalidState)
	}

	ended := *open
	ended.End = timePtr(now)

	next := s
	next.Status = StatusOpen
	next.LastPingAt = timePtr(now)
	next.PendingPing = false

	return Transition{From: s.Status, Session: next, Pause: &ended}, nil
}

// Close accounts [StartAt, now) minus pauses and moves the session to its
// terminal state. An open pause is ended at now first.
func (s Session) Close(now time.Time, reason string, pauses []Pause, schedule Schedule) (Transition, error) {
	if s.Status == StatusClosed {
		return Transition{}, ErrAlreadyClosed
	}
	if !s.Status.Active() {
		return Transition{}, fmt.Errorf("%w: cannot close a %q session", ErrInvalidState, s.Status)
	}

	effective := make([]Pause, len(pauses))
	copy(effective, pauses)

	var ended *Pause
	for i := range effective {
		if effective[i].IsOpen() {
			effective[i].End = timePtr(now)
			p := effective[i]
			ended = &p
		}
	}

	split := schedule.SplitActive(s.StartAt, now, effective)

	next := s
	next.Status = StatusClosed
	next.EndAt = timePtr(now)
	next.NormalMinutes += split.Normal
	next.StellarMinutes += split.Stellar
	next.PendingPing = false
	next.CloseReason = strings.TrimSpace(reason)

	return Transition{From: s.Status, Session: next, Pause: ended, Split: split}, nil
}

// Restart returns the session that continues s after an archive cut at now.
// A paused session comes back paused, with an open pause starting at now.
func (s Session) Restart(now time.Time) (Session, *Pause) {
	next := NewSession(s.TenantID, s.UserID, now)
	next.LastPingAt = timePtr(now)
	if s.Status != StatusPaused {
		return next, nil
	}

	next.Status = StatusPaused
	return next, &Pause{Start: now}
}

// Acknowledge records a "still here" answer to a liveness check.
func (s Session) Acknowledge(now time.Time) (Session, error) {
	if s.Status == StatusClosed {
		return Session{}, ErrAlreadyClosed
	}

	next := s
	next.PendingPing = false
	next.LastPingAt = timePtr(now)
	return next, nil
}

func OpenPause(pauses []Pause) *Pause {
	for i := range pauses {
		if pauses[i].IsOpen() {
			p := pauses[i]
			return &p
		}
	}
	return nil
}

func timePtr(t time.Time) *time.Time {
	return &t
}
