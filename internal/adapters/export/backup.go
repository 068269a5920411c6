package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

// BackupWriter writes nightly tenant snapshots to daily/ under its root: a
// zstd-compressed JSON document and a sessions CSV.
type BackupWriter struct {
	root    string
	encoder *zstd.Encoder
}

var _ ports.BackupWriter = (*BackupWriter)(nil)

func NewBackupWriter(root string) (*BackupWriter, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	return &BackupWriter{root: root, encoder: encoder}, nil
}

func (w *BackupWriter) Write(ctx context.Context, backup domain.TenantBackup) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loc := tenantLocation(backup.Timezone)
	stamp := backup.CreatedAt.In(loc).Format("2006-01-02")

	doc, err := json.MarshalIndent(toBackupDocument(backup, loc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup json: %w", err)
	}
	sessions, err := encodeSessionsCSV(backup.Sessions, backup.Pauses, backup.CreatedAt, loc)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, 2)
	for _, out := range []struct {
		ext  string
		data []byte
	}{
		{ext: ".json.zst", data: w.encoder.EncodeAll(doc, nil)},
		{ext: ".csv", data: sessions},
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name, err := fileName("nightly", string(backup.TenantID), stamp, out.ext)
		if err != nil {
			return nil, err
		}
		path, err := pathIn(w.root, "daily", name)
		if err != nil {
			return nil, err
		}
		if err := writeFile(path, out.data); err != nil {
			return nil, err
		}
		files = append(files, path)
	}

	return files, nil
}

// ReadBackup decodes a .json.zst backup written by Write.
func ReadBackup(compressed []byte) (BackupDocument, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return BackupDocument{}, fmt.Errorf("init zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return BackupDocument{}, fmt.Errorf("zstd decompress: %w", err)
	}

	var doc BackupDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return BackupDocument{}, fmt.Errorf("decode backup json: %w", err)
	}
	return doc, nil
}

type BackupDocument struct {
	TenantID    string             `json:"tenant_id"`
	Timezone    string             `json:"timezone"`
	CreatedAt   time.Time          `json:"created_at"`
	Sessions    []backupSession    `json:"sessions"`
	Pauses      []backupPause      `json:"pauses"`
	Adjustments []backupAdjustment `json:"adjustments"`
}

type backupSession struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"user_id"`
	Status         string     `json:"status"`
	StartAt        time.Time  `json:"start_at"`
	EndAt          *time.Time `json:"end_at,omitempty"`
	NormalMinutes  int64      `json:"normal_minutes"`
	StellarMinutes int64      `json:"stellar_minutes"`
	LastPingAt     *time.Time `json:"last_ping_at,omitempty"`
	PendingPing    bool       `json:"pending_ping"`
	CloseReason    string     `json:"close_reason,omitempty"`
}

type backupPause struct {
	ID        int64      `json:"id"`
	SessionID int64      `json:"session_id"`
	Start     time.Time  `json:"start_at"`
	End       *time.Time `json:"end_at,omitempty"`
}

type backupAdjustment struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Minutes   int64     `json:"minutes"`
	Reason    string    `json:"reason,omitempty"`
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

func toBackupDocument(backup domain.TenantBackup, loc *time.Location) BackupDocument {
	doc := BackupDocument{
		TenantID:    string(backup.TenantID),
		Timezone:    backup.Timezone,
		CreatedAt:   backup.CreatedAt.In(loc),
		Sessions:    make([]backupSession, 0, len(backup.Sessions)),
		Pauses:      make([]backupPause, 0, len(backup.Pauses)),
		Adjustments: make([]backupAdjustment, 0, len(backup.Adjustments)),
	}
	for _, s := range backup.Sessions {
		doc.Sessions = append(doc.Sessions, backupSession{
			ID:             int64(s.ID),
			UserID:         string(s.UserID),
			Status:         string(s.Status),
			StartAt:        s.StartAt.In(loc),
			EndAt:          inLoc(s.EndAt, loc),
			NormalMinutes:  s.NormalMinutes,
			StellarMinutes: s.StellarMinutes,
			LastPingAt:     inLoc(s.LastPingAt, loc),
			PendingPing:    s.PendingPing,
			CloseReason:    s.CloseReason,
		})
	}
	for _, p := range backup.Pauses {
		doc.Pauses = append(doc.Pauses, backupPause{
			ID:        int64(p.ID),
			SessionID: int64(p.SessionID),
			Start:     p.Start.In(loc),
			End:       inLoc(p.End, loc),
		})
	}
	for _, a := range backup.Adjustments {
		doc.Adjustments = append(doc.Adjustments, backupAdjustment{
			ID:        a.ID,
			UserID:    string(a.UserID),
			Minutes:   a.Minutes,
			Reason:    a.Reason,
			ActorID:   a.ActorID,
			CreatedAt: a.CreatedAt.In(loc),
		})
	}
	return doc
}

func inLoc(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	local := t.In(loc)
	return &local
}
