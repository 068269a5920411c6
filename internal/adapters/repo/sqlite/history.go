package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

func (s *Store) AddAdjustment(ctx context.Context, adjustment domain.Adjustment) (domain.Adjustment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Adjustment{}, err
	}
	if err := adjustment.Validate(); err != nil {
		return domain.Adjustment{}, err
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO adjustments (tenant_id, user_id, minutes, reason, actor_id, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		string(adjustment.TenantID),
		string(adjustment.UserID),
		adjustment.Minutes,
		adjustment.Reason,
		adjustment.ActorID,
		toMillis(adjustment.CreatedAt),
	)
	if err != nil {
		return domain.Adjustment{}, fmt.Errorf("insert adjustment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Adjustment{}, fmt.Errorf("adjustment id: %w", err)
	}
	adjustment.ID = id
	return adjustment, nil
}

func (s *Store) ListAdjustments(ctx context.Context, tenant domain.TenantID) ([]domain.Adjustment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, tenant_id, user_id, minutes, reason, actor_id, created_at, COALESCE(run_id, '')
FROM adjustments WHERE tenant_id = ? ORDER BY created_at, id`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.Adjustment
	for rows.Next() {
		var (
			adj       domain.Adjustment
			tenantID  string
			userID    string
			createdAt int64
		)
		if err := rows.Scan(&adj.ID, &tenantID, &userID, &adj.Minutes, &adj.Reason, &adj.ActorID, &createdAt, &adj.RunID); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		adj.TenantID = domain.TenantID(tenantID)
		adj.UserID = domain.UserID(userID)
		adj.CreatedAt = fromMillis(createdAt)
		adjustments = append(adjustments, adj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustments: %w", err)
	}

	return adjustments, nil
}

func (s *Store) ListHistory(ctx context.Context, tenant domain.TenantID) ([]domain.HistoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, tenant_id, user_id, status, start_at, end_at, normal_minutes, stellar_minutes, last_ping_at, pending_ping, close_reason, archived_at
FROM session_history WHERE tenant_id = ? ORDER BY archived_at, id`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var (
		records []domain.HistoryRecord
		index   = map[int64]int{}
	)
	for rows.Next() {
		var (
			historyID  int64
			archivedAt int64
		)
		session, err := scanSession(historyScanner{rows: rows, historyID: &historyID, archivedAt: &archivedAt})
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		index[historyID] = len(records)
		records = append(records, domain.HistoryRecord{Session: session, ArchivedAt: fromMillis(archivedAt)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	rows.Close()

	pauseRows, err := s.db.QueryContext(ctx, `
SELECT ph.history_id, ph.pause_id, ph.start_at, ph.end_at
FROM pause_history ph
JOIN session_history sh ON sh.id = ph.history_id
WHERE sh.tenant_id = ?
ORDER BY ph.history_id, ph.start_at`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("list pause history: %w", err)
	}
	defer pauseRows.Close()

	for pauseRows.Next() {
		var (
			historyID int64
			pauseID   int64
			start     int64
			end       sql.NullInt64
		)
		if err := pauseRows.Scan(&historyID, &pauseID, &start, &end); err != nil {
			return nil, fmt.Errorf("scan pause history: %w", err)
		}
		i, ok := index[historyID]
		if !ok {
			continue
		}
		records[i].Pauses = append(records[i].Pauses, domain.Pause{
			ID:        domain.PauseID(pauseID),
			SessionID: records[i].Session.ID,
			Start:     fromMillis(start),
			End:       fromNullMillis(end),
		})
	}
	if err := pauseRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pause history: %w", err)
	}

	return records, nil
}

// Archive inserts the batch's records into history, deletes every live
// session and pause of the tenant, stamps the exported adjustments and
// inserts the restarted sessions, all in one transaction.
func (s *Store) Archive(ctx context.Context, batch ports.ArchiveBatch) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var restarted []domain.Session
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, record := range batch.Records {
			if err := insertHistory(ctx, tx, batch.RunID, record); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM pauses WHERE session_id IN (SELECT id FROM sessions WHERE tenant_id = ?)`,
			string(batch.TenantID),
		); err != nil {
			return fmt.Errorf("delete live pauses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE tenant_id = ?`, string(batch.TenantID)); err != nil {
			return fmt.Errorf("delete live sessions: %w", err)
		}

		for _, id := range batch.Adjustments {
			if _, err := tx.ExecContext(ctx,
				`UPDATE adjustments SET run_id = ? WHERE id = ? AND tenant_id = ? AND run_id IS NULL`,
				batch.RunID, id, string(batch.TenantID),
			); err != nil {
				return fmt.Errorf("mark adjustment %d: %w", id, err)
			}
		}

		restarted = make([]domain.Session, 0, len(batch.Restart))
		for _, restart := range batch.Restart {
			session := restart.Session
			res, err := tx.ExecContext(ctx, `
INSERT INTO sessions (tenant_id, user_id, status, start_at, last_ping_at, pending_ping, close_reason)
VALUES (?, ?, ?, ?, ?, 0, '')`,
				string(session.TenantID), string(session.UserID), string(session.Status),
				toMillis(session.StartAt), nullMillis(session.LastPingAt),
			)
			if err != nil {
				return fmt.Errorf("insert restarted session: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("restarted session id: %w", err)
			}
			session.ID = domain.SessionID(id)

			if restart.Pause != nil {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO pauses (session_id, start_at, end_at) VALUES (?, ?, ?)`,
					id, toMillis(restart.Pause.Start), nullMillis(restart.Pause.End),
				); err != nil {
					return fmt.Errorf("insert restarted pause: %w", err)
				}
			}
			restarted = append(restarted, session)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return restarted, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, runID string, record domain.HistoryRecord) error {
	session := record.Session
	res, err := tx.ExecContext(ctx, `
INSERT INTO session_history (run_id, session_id, tenant_id, user_id, status, start_at, end_at, normal_minutes, stellar_minutes, last_ping_at, pending_ping, close_reason, archived_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		int64(session.ID),
		string(session.TenantID),
		string(session.UserID),
		string(session.Status),
		toMillis(session.StartAt),
		nullMillis(session.EndAt),
		session.NormalMinutes,
		session.StellarMinutes,
		nullMillis(session.LastPingAt),
		session.PendingPing,
		session.CloseReason,
		toMillis(record.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("insert history for session %d: %w", session.ID, err)
	}
	historyID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history id: %w", err)
	}

	for _, pause := range record.Pauses {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pause_history (history_id, pause_id, start_at, end_at) VALUES (?, ?, ?, ?)`,
			historyID, int64(pause.ID), toMillis(pause.Start), nullMillis(pause.End),
		); err != nil {
			return fmt.Errorf("insert pause history for session %d: %w", session.ID, err)
		}
	}

	return nil
}

// historyScanner reads a session_history row: the history id, the session
// columns, then archived_at.
type historyScanner struct {
	rows       *sql.Rows
	historyID  *int64
	archivedAt *int64
}

func (h historyScanner) Scan(dest ...any) error {
	all := make([]any, 0, len(dest)+2)
	all = append(all, h.historyID)
	all = append(all, dest...)
	all = append(all, h.archivedAt)
	return h.rows.Scan(all...)
}
