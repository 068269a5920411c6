package application

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

type AdjustmentService struct {
	store  ports.SessionStore
	logger *zap.Logger
	clock  ports.Clock
}

func NewAdjustmentService(store ports.SessionStore, logger *zap.Logger, clock ports.Clock) *AdjustmentService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AdjustmentService{store: store, logger: logger, clock: clock}
}

func (s *AdjustmentService) Add(ctx context.Context, cmd AddAdjustmentCommand) (domain.Adjustment, error) {
	adjustment := domain.Adjustment{
		TenantID:  cmd.TenantID,
		UserID:    cmd.UserID,
		Minutes:   cmd.Minutes,
		Reason:    strings.TrimSpace(cmd.Reason),
		ActorID:   strings.TrimSpace(cmd.ActorID),
		CreatedAt: s.clock.Now(),
	}
	if err := adjustment.Validate(); err != nil {
		return domain.Adjustment{}, err
	}

	saved, err := s.store.AddAdjustment(ctx, adjustment)
	if err != nil {
		return domain.Adjustment{}, storeError("add adjustment", err)
	}

	s.logger.Info("adjustment recorded",
		zap.String("tenant", string(saved.TenantID)),
		zap.String("user", string(saved.UserID)),
		zap.Int64("minutes", saved.Minutes),
		zap.String("actor", saved.ActorID),
	)

	return saved, nil
}
