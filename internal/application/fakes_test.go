package application

import (
	"context"
	"sort"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
	"github.com/stretchr/testify/mock"
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func mockAnyContext() interface{} {
	return mock.Anything
}

type staticTenants map[domain.TenantID]domain.TenantConfig

func (s staticTenants) Config(_ context.Context, id domain.TenantID) (domain.TenantConfig, error) {
	if cfg, ok := s[id]; ok {
		return cfg, nil
	}
	cfg := domain.DefaultTenantConfig(id)
	cfg.Timezone = "UTC"
	return cfg, nil
}

type inMemorySessionStore struct {
	mu          sync.Mutex
	nextSession domain.SessionID
	nextPause   domain.PauseID
	nextAdjust  int64
	sessions    map[domain.SessionID]domain.Session
	pauses      map[domain.SessionID][]domain.Pause
	adjustments []domain.Adjustment
	history     []domain.HistoryRecord

	archiveErr error
	createErr  error
}

var _ ports.SessionStore = (*inMemorySessionStore)(nil)

func newInMemorySessionStore() *inMemorySessionStore {
	return &inMemorySessionStore{
		sessions: map[domain.SessionID]domain.Session{},
		pauses:   map[domain.SessionID][]domain.Pause{},
	}
}

func (s *inMemorySessionStore) CreateSession(_ context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErr != nil {
		return domain.Session{}, s.createErr
	}
	for _, existing := range s.sessions {
		if existing.TenantID == session.TenantID && existing.UserID == session.UserID && existing.Status.Active() {
			return domain.Session{}, domain.ErrConflict
		}
	}
	s.nextSession++
	session.ID = s.nextSession
	s.sessions[session.ID] = session
	return session, nil
}

func (s *inMemorySessionStore) GetSession(_ context.Context, id domain.SessionID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *inMemorySessionStore) FindActiveSession(_ context.Context, tenant domain.TenantID, user domain.UserID) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range s.sessions {
		if session.TenantID == tenant && session.UserID == user && session.Status.Active() {
			return session, nil
		}
	}
	return domain.Session{}, domain.ErrSessionNotFound
}

func (s *inMemorySessionStore) ListSessions(_ context.Context, tenant domain.TenantID, statuses ...domain.Status) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Session
	for _, session := range s.sessions {
		if session.TenantID != tenant || !statusIn(session.Status, statuses) {
			continue
		}
		out = append(out, session)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemorySessionStore) ListOpenSessions(_ context.Context) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Session
	for _, session := range s.sessions {
		if session.Status == domain.StatusOpen {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *inMemorySessionStore) ListPauses(_ context.Context, id domain.SessionID) ([]domain.Pause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]domain.Pause(nil), s.pauses[id]...), nil
}

func (s *inMemorySessionStore) ApplyTransition(_ context.Context, transition domain.Transition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := transition.Session.ID
	if err := s.guard(id, transition.From); err != nil {
		return err
	}
	s.sessions[id] = transition.Session

	if transition.Pause == nil {
		return nil
	}
	pause := *transition.Pause
	if pause.ID == 0 {
		s.nextPause++
		pause.ID = s.nextPause
		s.pauses[id] = append(s.pauses[id], pause)
		return nil
	}
	for i := range s.pauses[id] {
		if s.pauses[id][i].ID == pause.ID {
			s.pauses[id][i] = pause
		}
	}
	return nil
}

func (s *inMemorySessionStore) UpdatePing(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(session.ID, session.Status); err != nil {
		return err
	}
	current := s.sessions[session.ID]
	current.LastPingAt = session.LastPingAt
	current.PendingPing = session.PendingPing
	s.sessions[session.ID] = current
	return nil
}

func (s *inMemorySessionStore) guard(id domain.SessionID, expected domain.Status) error {
	current, ok := s.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	if current.Status == expected {
		return nil
	}
	if current.Status == domain.StatusClosed {
		return domain.ErrAlreadyClosed
	}
	return domain.ErrConflict
}

func (s *inMemorySessionStore) ListTenants(_ context.Context) ([]domain.TenantID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[domain.TenantID]struct{}{}
	for _, session := range s.sessions {
		seen[session.TenantID] = struct{}{}
	}
	for _, adj := range s.adjustments {
		if !adj.Archived() {
			seen[adj.TenantID] = struct{}{}
		}
	}
	out := make([]domain.TenantID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *inMemorySessionStore) AddAdjustment(_ context.Context, adjustment domain.Adjustment) (domain.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAdjust++
	adjustment.ID = s.nextAdjust
	s.adjustments = append(s.adjustments, adjustment)
	return adjustment, nil
}

func (s *inMemorySessionStore) ListAdjustments(_ context.Context, tenant domain.TenantID) ([]domain.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Adjustment
	for _, adj := range s.adjustments {
		if adj.TenantID == tenant {
			out = append(out, adj)
		}
	}
	return out, nil
}

func (s *inMemorySessionStore) ListHistory(_ context.Context, tenant domain.TenantID) ([]domain.HistoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.HistoryRecord
	for _, record := range s.history {
		if record.Session.TenantID == tenant {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *inMemorySessionStore) Archive(_ context.Context, batch ports.ArchiveBatch) ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.archiveErr != nil {
		return nil, s.archiveErr
	}

	s.history = append(s.history, batch.Records...)
	for id, session := range s.sessions {
		if session.TenantID == batch.TenantID {
			delete(s.sessions, id)
			delete(s.pauses, id)
		}
	}

	for _, id := range batch.Adjustments {
		for i := range s.adjustments {
			if s.adjustments[i].ID == id && s.adjustments[i].TenantID == batch.TenantID && !s.adjustments[i].Archived() {
				s.adjustments[i].RunID = batch.RunID
			}
		}
	}

	restarted := make([]domain.Session, 0, len(batch.Restart))
	for _, restart := range batch.Restart {
		session := restart.Session
		s.nextSession++
		session.ID = s.nextSession
		s.sessions[session.ID] = session
		if restart.Pause != nil {
			pause := *restart.Pause
			s.nextPause++
			pause.ID = s.nextPause
			pause.SessionID = session.ID
			s.pauses[session.ID] = append(s.pauses[session.ID], pause)
		}
		restarted = append(restarted, session)
	}
	return restarted, nil
}

func (s *inMemorySessionStore) liveCount(tenant domain.TenantID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, session := range s.sessions {
		if session.TenantID == tenant {
			n++
		}
	}
	return n
}

func (s *inMemorySessionStore) historyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// put stores a session as-is, assigning an id when it has none.
func (s *inMemorySessionStore) put(session domain.Session, pauses ...domain.Pause) domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == 0 {
		s.nextSession++
		session.ID = s.nextSession
	}
	s.sessions[session.ID] = session
	for _, pause := range pauses {
		s.nextPause++
		pause.ID = s.nextPause
		pause.SessionID = session.ID
		s.pauses[session.ID] = append(s.pauses[session.ID], pause)
	}
	return session
}

func statusIn(status domain.Status, statuses []domain.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
