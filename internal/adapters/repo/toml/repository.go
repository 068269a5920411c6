package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/bnema/shiftlog/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
)

const tenantsDirMode = 0o700

// Repository keeps per-tenant configuration in a single TOML file.
type Repository struct {
	path string
	mu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.TenantRepository = (*Repository)(nil)

// NewRepository opens the tenants file at path. The file is created on the
// first Save. Repositories on the same path share one lock.
func NewRepository(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("tenants path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve tenants path: %w", err)
	}
	abs = filepath.Clean(abs)

	return &Repository{path: abs, mu: lockForPath(abs)}, nil
}

// Path is the resolved location of the tenants file.
func (r *Repository) Path() string {
	return r.path
}

func (r *Repository) Save(ctx context.Context, config domain.TenantConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(config)
	updated := false
	for i := range file.Tenants {
		if file.Tenants[i].ID == encoded.ID {
			file.Tenants[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Tenants = append(file.Tenants, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) Get(ctx context.Context, id domain.TenantID) (domain.TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return domain.TenantConfig{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.TenantConfig{}, err
	}

	for _, entry := range file.Tenants {
		if entry.ID == string(id) {
			return fromSchema(entry)
		}
	}

	return domain.TenantConfig{}, domain.ErrTenantNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.TenantConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	configs := make([]domain.TenantConfig, 0, len(file.Tenants))
	for _, entry := range file.Tenants {
		config, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}

	return configs, nil
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{Version: currentSchemaVersion}, nil
		}
		return fileSchema{}, fmt.Errorf("read tenants file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode tenants file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

// writeSchema replaces the file through a temp file in the same directory.
// CreateTemp makes the file 0600.
func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode tenants file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), tenantsDirMode); err != nil {
		return fmt.Errorf("create tenants directory: %w", err)
	}

	temp, err := os.CreateTemp(filepath.Dir(r.path), ".tenants-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp tenants file: %w", err)
	}
	_, err = temp.Write(data)
	if closeErr := temp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(temp.Name(), r.path)
	}
	if err != nil {
		_ = os.Remove(temp.Name())
		return fmt.Errorf("write tenants file: %w", err)
	}
	return nil
}

func toSchema(config domain.TenantConfig) tenantSchema {
	windows := domain.FormatWindows(config.Windows)
	return tenantSchema{
		ID:              string(config.ID),
		Timezone:        config.Timezone,
		Windows:         &windows,
		PingInterval:    config.PingInterval.String(),
		PingTimeout:     config.PingTimeout.String(),
		OperatorChannel: config.OperatorChannel,
		UpdatedAt:       formatTime(config.UpdatedAt),
	}
}

func fromSchema(entry tenantSchema) (domain.TenantConfig, error) {
	config := domain.DefaultTenantConfig(domain.TenantID(entry.ID))
	config.OperatorChannel = entry.OperatorChannel
	config.UpdatedAt = parseTime(entry.UpdatedAt)

	if entry.Timezone != "" {
		config.Timezone = entry.Timezone
	}
	if entry.Windows != nil {
		windows, err := domain.ParseWindows(*entry.Windows)
		if err != nil {
			return domain.TenantConfig{}, fmt.Errorf("tenant %s: %w", entry.ID, err)
		}
		config.Windows = windows
	}
	if entry.PingInterval != "" {
		interval, err := time.ParseDuration(entry.PingInterval)
		if err != nil {
			return domain.TenantConfig{}, fmt.Errorf("tenant %s: ping interval: %w", entry.ID, err)
		}
		config.PingInterval = interval
	}
	if entry.PingTimeout != "" {
		timeout, err := time.ParseDuration(entry.PingTimeout)
		if err != nil {
			return domain.TenantConfig{}, fmt.Errorf("tenant %s: ping timeout: %w", entry.ID, err)
		}
		config.PingTimeout = timeout
	}

	return config, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}
