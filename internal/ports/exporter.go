package ports

import (
	"context"

	"github.com/bnema/shiftlog/internal/domain"
)

// Exporter renders an archive snapshot to an artifact and returns its path.
type Exporter interface {
	Export(ctx context.Context, snapshot domain.ArchiveSnapshot) (string, error)
}

type BackupWriter interface {
	Write(ctx context.Context, backup domain.TenantBackup) ([]string, error)
}
