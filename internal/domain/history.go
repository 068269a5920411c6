package domain

import "time"

// HistoryRecord is a frozen copy of a session taken at an archive boundary.
type HistoryRecord struct {
	Session    Session
	Pauses     []Pause
	ArchivedAt time.Time
}

// AccountedEnd is where accounting stops for the record: the close time, or
// the archive time for sessions archived while still open.
func (r HistoryRecord) AccountedEnd() time.Time {
	if r.Session.EndAt != nil {
		return *r.Session.EndAt
	}
	return r.ArchivedAt
}

// ArchiveSnapshot is everything one archive run exports and moves to history.
type ArchiveSnapshot struct {
	RunID       string
	TenantID    TenantID
	Timezone    string
	ArchivedAt  time.Time
	Records     []HistoryRecord
	Adjustments []Adjustment
}

// TenantBackup is a full copy of a tenant's live data for nightly backups.
type TenantBackup struct {
	TenantID    TenantID
	Timezone    string
	CreatedAt   time.Time
	Sessions    []Session
	Pauses      []Pause
	Adjustments []Adjustment
}
