package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the pure Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const sessionColumns = `id, tenant_id, user_id, status, start_at, end_at, normal_minutes, stellar_minutes, last_ping_at, pending_ping, close_reason`

// Store is the SQLite-backed session store. It runs on a single connection so
// writes are serialized by the pool.
type Store struct {
	db *sql.DB
}

var _ ports.SessionStore = (*Store)(nil)

// Open opens (or creates) the database at path, applies PRAGMAs and runs the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := applyMigrations(ctx, db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}
	if err := session.Validate(); err != nil {
		return domain.Session{}, err
	}

	res, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (tenant_id, user_id, status, start_at, end_at, normal_minutes, stellar_minutes, last_ping_at, pending_ping, close_reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
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
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Session{}, fmt.Errorf("%w: user %s already has an active session", domain.ErrConflict, session.UserID)
		}
		return domain.Session{}, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Session{}, fmt.Errorf("session id: %w", err)
	}
	session.ID = domain.SessionID(id)
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, id domain.SessionID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, int64(id))
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *Store) FindActiveSession(ctx context.Context, tenant domain.TenantID, user domain.UserID) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	row := s.db.QueryRowContext(ctx, `
SELECT `+sessionColumns+` FROM sessions
WHERE tenant_id = ? AND user_id = ? AND status IN ('open', 'paused')`,
		string(tenant), string(user))
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("find active session: %w", err)
	}
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, tenant domain.TenantID, statuses ...domain.Status) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE tenant_id = ?`
	args := []any{string(tenant)}
	if len(statuses) > 0 {
		placeholders := make([]string, 0, len(statuses))
		for _, status := range statuses {
			placeholders = append(placeholders, "?")
			args = append(args, string(status))
		}
		query += ` AND status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY id`

	return s.querySessions(ctx, "list sessions", query, args...)
}

func (s *Store) ListOpenSessions(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.querySessions(ctx, "list open sessions",
		`SELECT `+sessionColumns+` FROM sessions WHERE status = 'open' ORDER BY tenant_id, id`)
}

func (s *Store) ListPauses(ctx context.Context, id domain.SessionID) ([]domain.Pause, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, start_at, end_at FROM pauses
WHERE session_id = ? ORDER BY start_at, id`, int64(id))
	if err != nil {
		return nil, fmt.Errorf("list pauses: %w", err)
	}
	defer rows.Close()

	var pauses []domain.Pause
	for rows.Next() {
		var (
			pause     domain.Pause
			pauseID   int64
			sessionID int64
			start     int64
			end       sql.NullInt64
		)
		if err := rows.Scan(&pauseID, &sessionID, &start, &end); err != nil {
			return nil, fmt.Errorf("scan pause: %w", err)
		}
		pause.ID = domain.PauseID(pauseID)
		pause.SessionID = domain.SessionID(sessionID)
		pause.Start = fromMillis(start)
		pause.End = fromNullMillis(end)
		pauses = append(pauses, pause)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pauses: %w", err)
	}

	return pauses, nil
}

func (s *Store) ApplyTransition(ctx context.Context, transition domain.Transition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	session := transition.Session
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
UPDATE sessions
SET status = ?, end_at = ?, normal_minutes = ?, stellar_minutes = ?, last_ping_at = ?, pending_ping = ?, close_reason = ?
WHERE id = ? AND status = ?`,
			string(session.Status),
			nullMillis(session.EndAt),
			session.NormalMinutes,
			session.StellarMinutes,
			nullMillis(session.LastPingAt),
			session.PendingPing,
			session.CloseReason,
			int64(session.ID),
			string(transition.From),
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if err := guardResult(ctx, tx, res, session.ID); err != nil {
			return err
		}

		pause := transition.Pause
		if pause == nil {
			return nil
		}
		if pause.ID == 0 {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pauses (session_id, start_at, end_at) VALUES (?, ?, ?)`,
				int64(session.ID), toMillis(pause.Start), nullMillis(pause.End),
			); err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("%w: session already has an open pause", domain.ErrInvalidState)
				}
				return fmt.Errorf("insert pause: %w", err)
			}
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE pauses SET end_at = ? WHERE id = ? AND session_id = ?`,
			nullMillis(pause.End), int64(pause.ID), int64(session.ID),
		); err != nil {
			return fmt.Errorf("update pause: %w", err)
		}
		return nil
	})
}

func (s *Store) UpdatePing(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE sessions SET last_ping_at = ?, pending_ping = ? WHERE id = ? AND status = ?`,
			nullMillis(session.LastPingAt), session.PendingPing, int64(session.ID), string(session.Status),
		)
		if err != nil {
			return fmt.Errorf("update ping: %w", err)
		}
		return guardResult(ctx, tx, res, session.ID)
	})
}

func (s *Store) ListTenants(ctx context.Context) ([]domain.TenantID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT tenant_id FROM sessions
UNION
SELECT tenant_id FROM adjustments WHERE run_id IS NULL
ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.TenantID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, domain.TenantID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tenants: %w", err)
	}

	return tenants, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) querySessions(ctx context.Context, op, query string, args ...any) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}

	return sessions, nil
}

// guardResult turns a guarded update that matched no row into the reason it
// did not match.
func guardResult(ctx context.Context, tx *sql.Tx, res sql.Result, id domain.SessionID) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM sessions WHERE id = ?`, int64(id)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.ErrSessionNotFound
	case err != nil:
		return fmt.Errorf("reload session status: %w", err)
	case domain.Status(status) == domain.StatusClosed:
		return domain.ErrAlreadyClosed
	default:
		return fmt.Errorf("%w: session %d is %s", domain.ErrConflict, id, status)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		session  domain.Session
		id       int64
		tenant   string
		user     string
		status   string
		start    int64
		end      sql.NullInt64
		lastPing sql.NullInt64
		pending  bool
	)
	if err := row.Scan(&id, &tenant, &user, &status, &start, &end,
		&session.NormalMinutes, &session.StellarMinutes, &lastPing, &pending, &session.CloseReason); err != nil {
		return domain.Session{}, err
	}

	session.ID = domain.SessionID(id)
	session.TenantID = domain.TenantID(tenant)
	session.UserID = domain.UserID(user)
	session.Status = domain.Status(status)
	session.StartAt = fromMillis(start)
	session.EndAt = fromNullMillis(end)
	session.LastPingAt = fromNullMillis(lastPing)
	session.PendingPing = pending
	return session, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*t), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}
