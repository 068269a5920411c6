package ports

import (
	"context"

	"github.com/bnema/shiftlog/internal/domain"
)

type TenantRepository interface {
	Get(ctx context.Context, id domain.TenantID) (domain.TenantConfig, error)
	List(ctx context.Context) ([]domain.TenantConfig, error)
	Save(ctx context.Context, config domain.TenantConfig) error
}
