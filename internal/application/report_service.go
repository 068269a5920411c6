package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

const DefaultTopLimit = 25

type ReportService struct {
	store   ports.SessionStore
	tenants TenantConfigs
	rates   domain.Rates
	logger  *zap.Logger
	clock   ports.Clock
}

func NewReportService(store ports.SessionStore, tenants TenantConfigs, rates domain.Rates, logger *zap.Logger, clock ports.Clock) *ReportService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ReportService{store: store, tenants: tenants, rates: rates, logger: logger, clock: clock}
}

// PeriodRange resolves a reporting period in the tenant's timezone.
func (s *ReportService) PeriodRange(ctx context.Context, tenant domain.TenantID, period domain.Period) (domain.Interval, error) {
	cfg, err := s.tenants.Config(ctx, tenant)
	if err != nil {
		return domain.Interval{}, err
	}
	loc, err := domain.LoadLocation(cfg.Timezone)
	if err != nil {
		return domain.Interval{}, err
	}

	return period.Range(s.clock.Now(), loc), nil
}

func (s *ReportService) ComputeTotals(ctx context.Context, tenant domain.TenantID, user domain.UserID, from, to time.Time) (Totals, error) {
	if err := validateTarget(tenant, user); err != nil {
		return Totals{}, err
	}

	byUser, err := s.aggregate(ctx, tenant, from, to)
	if err != nil {
		return Totals{}, err
	}

	acc := byUser[user]
	return Totals{
		TenantID:          tenant,
		UserID:            user,
		From:              from,
		To:                to,
		Split:             acc.split(),
		AdjustmentMinutes: acc.adjustments,
		Coins:             s.rates.CoinsFor(acc.split()),
	}, nil
}

// Top ranks users by coins earned in [from, to), ties broken by user id.
func (s *ReportService) Top(ctx context.Context, tenant domain.TenantID, from, to time.Time, limit int) ([]Standing, error) {
	if strings.TrimSpace(string(tenant)) == "" {
		return nil, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	byUser, err := s.aggregate(ctx, tenant, from, to)
	if err != nil {
		return nil, err
	}

	standings := make([]Standing, 0, len(byUser))
	for user, acc := range byUser {
		split := acc.split()
		standings = append(standings, Standing{UserID: user, Split: split, Coins: s.rates.CoinsFor(split)})
	}
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Coins != standings[j].Coins {
			return standings[i].Coins > standings[j].Coins
		}
		return standings[i].UserID < standings[j].UserID
	})

	if len(standings) > limit {
		standings = standings[:limit]
	}
	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings, nil
}

type userTotals struct {
	sessions    domain.Split
	adjustments int64
}

func (t userTotals) split() domain.Split {
	return domain.Split{Normal: t.sessions.Normal + t.adjustments, Stellar: t.sessions.Stellar}
}

func (s *ReportService) aggregate(ctx context.Context, tenant domain.TenantID, from, to time.Time) (map[domain.UserID]userTotals, error) {
	cfg, err := s.tenants.Config(ctx, tenant)
	if err != nil {
		return nil, err
	}
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	window := domain.Interval{Start: from, End: to}
	now := s.clock.Now()

	out := map[domain.UserID]userTotals{}
	add := func(user domain.UserID, split domain.Split) {
		acc := out[user]
		acc.sessions = acc.sessions.Add(split)
		out[user] = acc
	}

	live, err := s.store.ListSessions(ctx, tenant)
	if err != nil {
		return nil, storeError("list sessions", err)
	}
	for _, session := range live {
		end := now
		if session.EndAt != nil {
			end = *session.EndAt
		}
		id := session.ID
		split, err := s.sessionSplit(schedule, session, end, window, func() ([]domain.Pause, error) {
			pauses, err := s.store.ListPauses(ctx, id)
			if err != nil {
				return nil, storeError("list pauses", err)
			}
			return pauses, nil
		})
		if err != nil {
			return nil, err
		}
		add(session.UserID, split)
	}

	history, err := s.store.ListHistory(ctx, tenant)
	if err != nil {
		return nil, storeError("list history", err)
	}
	for _, record := range history {
		pauses := record.Pauses
		split, err := s.sessionSplit(schedule, record.Session, record.AccountedEnd(), window, func() ([]domain.Pause, error) {
			return pauses, nil
		})
		if err != nil {
			return nil, err
		}
		add(record.Session.UserID, split)
	}

	adjustments, err := s.store.ListAdjustments(ctx, tenant)
	if err != nil {
		return nil, storeError("list adjustments", err)
	}
	for _, adj := range adjustments {
		if adj.CreatedAt.Before(from) || !adj.CreatedAt.Before(to) {
			continue
		}
		acc := out[adj.UserID]
		acc.adjustments += adj.Minutes
		out[adj.UserID] = acc
	}

	return out, nil
}

// sessionSplit returns the minutes a session contributes to window. Closed
// sessions that fall entirely inside use their stored accumulators; anything
// else is recomputed over the clipped interval.
func (s *ReportService) sessionSplit(schedule domain.Schedule, session domain.Session, end time.Time, window domain.Interval, pauses func() ([]domain.Pause, error)) (domain.Split, error) {
	if session.Status == domain.StatusClosed && !session.StartAt.Before(window.Start) && !end.After(window.End) {
		return domain.Split{Normal: session.NormalMinutes, Stellar: session.StellarMinutes}, nil
	}

	clipped := domain.Interval{Start: session.StartAt, End: end}
	if window.Start.After(clipped.Start) {
		clipped.Start = window.Start
	}
	if window.End.Before(clipped.End) {
		clipped.End = window.End
	}
	if clipped.Empty() {
		return domain.Split{}, nil
	}

	loaded, err := pauses()
	if err != nil {
		return domain.Split{}, err
	}

	return schedule.SplitActive(clipped.Start, clipped.End, loaded), nil
}
