package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shiftlog/internal/domain"
)

func TestNewAppliesDefaults(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	v, err := New()
	require.NoError(t, err)

	cfg, err := Load(v)
	require.NoError(t, err)

	base := filepath.Join(homeDir, ".shiftlog")
	assert.Equal(t, filepath.Join(base, "shiftlog.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(base, "backups"), cfg.BackupDir)
	assert.Equal(t, filepath.Join(base, "tenants.toml"), cfg.TenantsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, domain.DefaultRates(), cfg.Rates)
	assert.Equal(t, Schedule{Timezone: domain.DefaultTimezone, Archive: "fri 17:00", Backup: "03:30"}, cfg.Schedule)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.True(t, cfg.ArchiveDrain)
	assert.False(t, cfg.BackupUpload)

	want := domain.DefaultTenantConfig("")
	assert.Equal(t, want, cfg.TenantDefaults)
}

func TestNewReadsConfigFileAndEnvironment(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("SHIFTLOG_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("SHIFTLOG_TENANT_DEFAULTS_PING_INTERVAL", "90m")

	dir := filepath.Join(homeDir, ".shiftlog")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[log]
level = "DEBUG"

[rates]
stellar = 3.0

[tenant.defaults]
timezone = "Europe/Paris"
windows = "20:00-22:00"
`), 0o600))

	v, err := New()
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.InDelta(t, 3.0, cfg.Rates.Stellar, 1e-9)
	assert.Equal(t, "Europe/Paris", cfg.TenantDefaults.Timezone)
	assert.Equal(t, []domain.Window{{Start: 20 * 60, End: 22 * 60}}, cfg.TenantDefaults.Windows)
	assert.Equal(t, 90*time.Minute, cfg.TenantDefaults.PingInterval)
}

func TestNewRejectsMalformedConfigFile(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	dir := filepath.Join(homeDir, ".shiftlog")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[log"), 0o600))

	_, err := New()
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}

func TestLoadValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		set     map[string]any
		wantErr string
	}{
		{name: "bad timezone", set: map[string]any{KeyScheduleTZ: "Mars/Olympus"}, wantErr: KeyScheduleTZ},
		{name: "tiny sweep interval", set: map[string]any{KeySweepInterval: "10ms"}, wantErr: KeySweepInterval},
		{name: "negative rate", set: map[string]any{KeyRatesNormal: -1}, wantErr: "rates must not be negative"},
		{name: "bad default windows", set: map[string]any{KeyDefaultWindows: "nope"}, wantErr: KeyDefaultWindows},
		{name: "short ping timeout", set: map[string]any{KeyDefaultPingTimeout: "10s"}, wantErr: "tenant.defaults"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := validViper()
			for key, value := range tt.set {
				v.Set(key, value)
			}

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadRejectsNilSource(t *testing.T) {
	t.Parallel()

	_, err := Load(nil)
	require.Error(t, err)
}

func validViper() *viper.Viper {
	v := viper.New()
	v.Set(KeyDBPath, "/tmp/shiftlog.db")
	v.Set(KeyBackupDir, "/tmp/backups")
	v.Set(KeySweepInterval, "1m")
	v.Set(KeyScheduleTZ, "UTC")
	v.Set(KeyRatesNormal, 1.0)
	v.Set(KeyRatesStellar, 2.0)
	v.Set(KeyDefaultTimezone, "UTC")
	v.Set(KeyDefaultWindows, "16:00-18:00")
	v.Set(KeyDefaultPingInterval, "2h")
	v.Set(KeyDefaultPingTimeout, "5m")
	return v
}
