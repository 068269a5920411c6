package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/shiftlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()

	repo, err := NewRepository(path)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "tenants.toml"))

	windows, err := domain.ParseWindows("16:00-18:00,22:00-02:00")
	require.NoError(t, err)

	first := domain.TenantConfig{
		ID:              "guild",
		Timezone:        "Europe/Paris",
		Windows:         windows,
		PingInterval:    90 * time.Minute,
		PingTimeout:     10 * time.Minute,
		OperatorChannel: "-100123",
		UpdatedAt:       time.Date(2026, 2, 14, 11, 0, 0, 0, time.UTC),
	}
	second := domain.DefaultTenantConfig("other")

	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	got, err := repo.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	configs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.TenantConfig{first, second}, configs)
}

func TestRepositorySaveReplacesExistingTenant(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "tenants.toml"))

	config := domain.DefaultTenantConfig("guild")
	require.NoError(t, repo.Save(context.Background(), config))

	config.Timezone = "UTC"
	config.Windows = nil
	require.NoError(t, repo.Save(context.Background(), config))

	configs, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "UTC", configs[0].Timezone)
	assert.Empty(t, configs[0].Windows)
}

func TestRepositoryMissingFieldsFallBackToDefaults(t *testing.T) {
	t.Parallel()

	tenantsPath := filepath.Join(t.TempDir(), "tenants.toml")
	require.NoError(t, os.WriteFile(tenantsPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[tenants]]",
		"id = \"guild\"",
		"operator_channel = \"ops\"",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, tenantsPath)

	got, err := repo.Get(context.Background(), "guild")
	require.NoError(t, err)

	want := domain.DefaultTenantConfig("guild")
	want.OperatorChannel = "ops"
	assert.Equal(t, want, got)
}

func TestRepositorySaveRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	tenantsPath := filepath.Join(t.TempDir(), "tenants.toml")
	repo := newTestRepository(t, tenantsPath)

	config := domain.DefaultTenantConfig("guild")
	config.Timezone = "Mars/Olympus"

	err := repo.Save(context.Background(), config)
	require.ErrorIs(t, err, domain.ErrValidation)

	_, statErr := os.Stat(tenantsPath)
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestRepositorySaveCreatesDirectoryAndEnforcesPermissions(t *testing.T) {
	t.Parallel()

	tenantsPath := filepath.Join(t.TempDir(), "nested", "tenants.toml")
	repo := newTestRepository(t, tenantsPath)

	require.NoError(t, repo.Save(context.Background(), domain.DefaultTenantConfig("guild")))

	assert.Equal(t, tenantsPath, repo.Path())
	info, err := os.Stat(tenantsPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(tenantsPath), ".tenants-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestNewRepositoryRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := NewRepository("  ")
	require.Error(t, err)
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "tenants.toml"))

	configs, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, configs)

	_, err = repo.Get(context.Background(), "guild")
	require.ErrorIs(t, err, domain.ErrTenantNotFound)
}

func TestRepositoryDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed toml", content: "tenants = [", wantErr: "decode tenants file"},
		{name: "future version", content: "version = 999\n\ntenants = []\n", wantErr: "unsupported tenants schema version"},
		{name: "bad windows", content: "version = 1\n\n[[tenants]]\nid = \"guild\"\nwindows = \"25:00-26:00\"\n", wantErr: "tenant guild"},
		{name: "bad interval", content: "version = 1\n\n[[tenants]]\nid = \"guild\"\nping_interval = \"soon\"\n", wantErr: "ping interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tenantsPath := filepath.Join(t.TempDir(), "tenants.toml")
			require.NoError(t, os.WriteFile(tenantsPath, []byte(tt.content), 0o600))

			repo := newTestRepository(t, tenantsPath)
			_, err := repo.List(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "tenants.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.DefaultTenantConfig("guild"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveBothTenants(t *testing.T) {
	t.Parallel()

	tenantsPath := filepath.Join(t.TempDir(), "tenants.toml")
	repoA := newTestRepository(t, tenantsPath)
	repoB := newTestRepository(t, tenantsPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	save := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.DefaultTenantConfig(domain.TenantID(prefix+strconv.Itoa(i))))
		}
	}
	go save(repoA, "a-")
	go save(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	configs, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, configs, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	tenantsPath := filepath.Join(t.TempDir(), "tenants.toml")
	repo := newTestRepository(t, tenantsPath)

	require.NoError(t, repo.Save(context.Background(), domain.DefaultTenantConfig("guild")))

	data, err := os.ReadFile(tenantsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "2h0m0s")
}
