package telegram

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	sendErr  error
	// documentErr fails document uploads only.
	documentErr error
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	if _, ok := c.(tgbotapi.DocumentConfig); ok && f.documentErr != nil {
		return tgbotapi.Message{}, f.documentErr
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if msg, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, msg)
		}
	}
	return out
}

type fakeSessions struct {
	calls    []string
	err      error
	result   application.SessionResult
	sessions map[domain.SessionID]domain.Session
}

func (f *fakeSessions) Start(_ context.Context, cmd application.StartSessionCommand) (application.SessionResult, error) {
	f.calls = append(f.calls, "start:"+string(cmd.TenantID)+":"+string(cmd.UserID))
	return f.result, f.err
}

func (f *fakeSessions) Pause(_ context.Context, cmd application.PauseSessionCommand) (application.SessionResult, error) {
	f.calls = append(f.calls, "pause:"+string(cmd.TenantID)+":"+string(cmd.UserID))
	return f.result, f.err
}

func (f *fakeSessions) Resume(_ context.Context, cmd application.ResumeSessionCommand) (application.SessionResult, error) {
	f.calls = append(f.calls, "resume:"+string(cmd.TenantID)+":"+string(cmd.UserID))
	return f.result, f.err
}

func (f *fakeSessions) Close(_ context.Context, cmd application.CloseSessionCommand) (application.SessionResult, error) {
	f.calls = append(f.calls, "close:"+string(cmd.TenantID)+":"+string(cmd.UserID)+":"+cmd.Reason)
	return f.result, f.err
}

func (f *fakeSessions) Get(_ context.Context, id domain.SessionID) (domain.Session, error) {
	session, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessions) OnShift(_ context.Context, tenant domain.TenantID) ([]domain.Session, error) {
	f.calls = append(f.calls, "on_shift:"+string(tenant))
	var out []domain.Session
	for _, session := range f.sessions {
		if session.TenantID == tenant && session.Status.Active() {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeLiveness struct {
	acked  []domain.SessionID
	closed []domain.SessionID
	err    error
}

func (f *fakeLiveness) Acknowledge(_ context.Context, id domain.SessionID) (application.SessionResult, error) {
	f.acked = append(f.acked, id)
	return application.SessionResult{}, f.err
}

func (f *fakeLiveness) CloseFromPing(_ context.Context, id domain.SessionID) (application.SessionResult, error) {
	f.closed = append(f.closed, id)
	return application.SessionResult{}, f.err
}

type fakeReports struct {
	periods   []domain.Period
	standings []application.Standing
	totals    application.Totals
}

func (f *fakeReports) PeriodRange(_ context.Context, _ domain.TenantID, period domain.Period) (domain.Interval, error) {
	f.periods = append(f.periods, period)
	end := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	return domain.Interval{Start: end.Add(-24 * time.Hour), End: end}, nil
}

func (f *fakeReports) ComputeTotals(_ context.Context, tenant domain.TenantID, user domain.UserID, from, to time.Time) (application.Totals, error) {
	totals := f.totals
	totals.TenantID, totals.UserID, totals.From, totals.To = tenant, user, from, to
	return totals, nil
}

func (f *fakeReports) Top(_ context.Context, _ domain.TenantID, _, _ time.Time, limit int) ([]application.Standing, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}
	return f.standings, nil
}
