package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

var csvHeader = []string{
	"record", "id", "user_id", "status", "start_at", "end_at",
	"normal_minutes", "stellar_minutes", "paused_minutes", "reason",
}

// CSVExporter writes each archive run to archive/weekly_<tenant>_<time>.csv
// under its root.
type CSVExporter struct {
	root string
}

var _ ports.Exporter = (*CSVExporter)(nil)

func NewCSVExporter(root string) *CSVExporter {
	return &CSVExporter{root: root}
}

func (e *CSVExporter) Export(ctx context.Context, snapshot domain.ArchiveSnapshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	loc := tenantLocation(snapshot.Timezone)
	stamp := snapshot.ArchivedAt.In(loc).Format("2006-01-02_15-04")
	if len(snapshot.RunID) >= 8 {
		stamp += "_" + snapshot.RunID[:8]
	}

	name, err := fileName("weekly", string(snapshot.TenantID), stamp, ".csv")
	if err != nil {
		return "", err
	}
	path, err := pathIn(e.root, "archive", name)
	if err != nil {
		return "", err
	}

	data, err := encodeArchiveCSV(snapshot, loc)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := writeFile(path, data); err != nil {
		return "", err
	}

	return path, nil
}

func encodeArchiveCSV(snapshot domain.ArchiveSnapshot, loc *time.Location) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := make([][]string, 0, len(snapshot.Records)+len(snapshot.Adjustments)+1)
	rows = append(rows, csvHeader)
	for _, record := range snapshot.Records {
		paused := pausedMinutes(record.Pauses, record.AccountedEnd())
		rows = append(rows, sessionRow(record.Session, paused, loc))
	}
	for _, adj := range snapshot.Adjustments {
		rows = append(rows, []string{
			"adjustment",
			strconv.FormatInt(adj.ID, 10),
			string(adj.UserID),
			"",
			formatStamp(adj.CreatedAt.In(loc)),
			"",
			strconv.FormatInt(adj.Minutes, 10),
			"0",
			"0",
			adj.Reason,
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode archive csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeSessionsCSV(sessions []domain.Session, pauses []domain.Pause, now time.Time, loc *time.Location) ([]byte, error) {
	bySession := make(map[domain.SessionID][]domain.Pause, len(sessions))
	for _, p := range pauses {
		bySession[p.SessionID] = append(bySession[p.SessionID], p)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	rows := make([][]string, 0, len(sessions)+1)
	rows = append(rows, csvHeader)
	for _, session := range sessions {
		end := now
		if session.EndAt != nil {
			end = *session.EndAt
		}
		rows = append(rows, sessionRow(session, pausedMinutes(bySession[session.ID], end), loc))
	}

	if err := w.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("encode sessions csv: %w", err)
	}
	return buf.Bytes(), nil
}

func sessionRow(session domain.Session, paused int64, loc *time.Location) []string {
	end := ""
	if session.EndAt != nil {
		end = formatStamp(session.EndAt.In(loc))
	}
	return []string{
		"session",
		strconv.FormatInt(int64(session.ID), 10),
		string(session.UserID),
		string(session.Status),
		formatStamp(session.StartAt.In(loc)),
		end,
		strconv.FormatInt(session.NormalMinutes, 10),
		strconv.FormatInt(session.StellarMinutes, 10),
		strconv.FormatInt(paused, 10),
		session.CloseReason,
	}
}

// pausedMinutes sums whole minutes of pause time, open pauses counted up to end.
func pausedMinutes(pauses []domain.Pause, end time.Time) int64 {
	var total time.Duration
	for _, p := range pauses {
		stop := end
		if p.End != nil && p.End.Before(end) {
			stop = *p.End
		}
		if stop.After(p.Start) {
			total += stop.Sub(p.Start)
		}
	}
	return int64(total / time.Minute)
}
