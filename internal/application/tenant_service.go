package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
)

// TenantConfigs resolves the effective configuration of a tenant.
type TenantConfigs interface {
	Config(ctx context.Context, id domain.TenantID) (domain.TenantConfig, error)
}

type TenantService struct {
	repo     ports.TenantRepository
	defaults domain.TenantConfig
	clock    ports.Clock
}

var _ TenantConfigs = (*TenantService)(nil)

// NewTenantService returns a service that falls back to defaults for tenants
// that were never configured. The defaults' ID is ignored.
func NewTenantService(repo ports.TenantRepository, defaults domain.TenantConfig, clock ports.Clock) *TenantService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &TenantService{repo: repo, defaults: defaults, clock: clock}
}

func (s *TenantService) Config(ctx context.Context, id domain.TenantID) (domain.TenantConfig, error) {
	if strings.TrimSpace(string(id)) == "" {
		return domain.TenantConfig{}, fmt.Errorf("%w: tenant id is required", domain.ErrValidation)
	}

	cfg, err := s.repo.Get(ctx, id)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, domain.ErrTenantNotFound) {
		return domain.TenantConfig{}, fmt.Errorf("get tenant config: %w", err)
	}

	cfg = s.defaults
	cfg.ID = id
	cfg.Windows = append([]domain.Window(nil), s.defaults.Windows...)
	return cfg, nil
}

func (s *TenantService) List(ctx context.Context) ([]domain.TenantConfig, error) {
	configs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tenant configs: %w", err)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ID < configs[j].ID })
	return configs, nil
}

func (s *TenantService) Set(ctx context.Context, cmd SetTenantCommand) (domain.TenantConfig, error) {
	cfg, err := s.Config(ctx, cmd.ID)
	if err != nil {
		return domain.TenantConfig{}, err
	}

	if cmd.Timezone != nil {
		cfg.Timezone = strings.TrimSpace(*cmd.Timezone)
	}
	if cmd.Windows != nil {
		windows, err := domain.ParseWindows(*cmd.Windows)
		if err != nil {
			return domain.TenantConfig{}, err
		}
		cfg.Windows = windows
	}
	if cmd.PingInterval != nil {
		cfg.PingInterval = *cmd.PingInterval
	}
	if cmd.PingTimeout != nil {
		cfg.PingTimeout = *cmd.PingTimeout
	}
	if cmd.OperatorChannel != nil {
		cfg.OperatorChannel = strings.TrimSpace(*cmd.OperatorChannel)
	}
	cfg.UpdatedAt = s.clock.Now()

	if err := cfg.Validate(); err != nil {
		return domain.TenantConfig{}, err
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return domain.TenantConfig{}, fmt.Errorf("save tenant config: %w", err)
	}

	return cfg, nil
}
