package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/bnema/shiftlog/internal/domain"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = ".shiftlog"
	envPrefix  = "SHIFTLOG"
)

// Keys read from config.toml or SHIFTLOG_* variables (dots become
// underscores, e.g. SHIFTLOG_TELEGRAM_TOKEN).
const (
	KeyDBPath          = "db.path"
	KeyTenantsPath     = "tenants.path"
	KeyBackupDir       = "backup.dir"
	KeyBackupUpload    = "backup.upload"
	KeyLogLevel        = "log.level"
	KeyRatesNormal     = "rates.normal"
	KeyRatesStellar    = "rates.stellar"
	KeyScheduleTZ      = "schedule.timezone"
	KeyScheduleArchive = "schedule.archive"
	KeyScheduleBackup  = "schedule.backup"
	KeySweepInterval   = "sweep.interval"
	KeyArchiveDrain    = "archive.drain"
	KeyTelegramToken   = "telegram.token"
	KeyOTelEndpoint    = "otel.endpoint"
	KeyHTTPAddr        = "http.addr"

	KeyDefaultTimezone     = "tenant.defaults.timezone"
	KeyDefaultWindows      = "tenant.defaults.windows"
	KeyDefaultPingInterval = "tenant.defaults.ping_interval"
	KeyDefaultPingTimeout  = "tenant.defaults.ping_timeout"
	KeyDefaultChannel      = "tenant.defaults.operator_channel"
)

type Config struct {
	DBPath        string
	TenantsPath   string
	BackupDir     string
	BackupUpload  bool
	LogLevel      string
	Rates         domain.Rates
	Schedule      Schedule
	SweepInterval time.Duration
	ArchiveDrain  bool
	TelegramToken string
	OTelEndpoint  string
	// HTTPAddr serves /healthz while the daemon runs; empty disables it.
	HTTPAddr string
	// TenantDefaults is applied to tenants without a stored configuration.
	TenantDefaults domain.TenantConfig
}

// Schedule holds the recurring job times, read in Timezone.
type Schedule struct {
	Timezone string
	Archive  string
	Backup   string
}

// New returns a viper instance with defaults, the config file search path
// and environment overrides set up.
func New() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	base := filepath.Join(homeDir, configDir)

	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(base)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := domain.DefaultTenantConfig("")
	rates := domain.DefaultRates()
	for key, value := range map[string]any{
		KeyDBPath:              filepath.Join(base, "shiftlog.db"),
		KeyTenantsPath:         filepath.Join(base, "tenants.toml"),
		KeyBackupDir:           filepath.Join(base, "backups"),
		KeyBackupUpload:        false,
		KeyLogLevel:            "info",
		KeyRatesNormal:         rates.Normal,
		KeyRatesStellar:        rates.Stellar,
		KeyScheduleTZ:          defaults.Timezone,
		KeyScheduleArchive:     "fri 17:00",
		KeyScheduleBackup:      "03:30",
		KeySweepInterval:       time.Minute,
		KeyArchiveDrain:        true,
		KeyHTTPAddr:            "",
		KeyDefaultTimezone:     defaults.Timezone,
		KeyDefaultWindows:      domain.DefaultWindows,
		KeyDefaultPingInterval: defaults.PingInterval,
		KeyDefaultPingTimeout:  defaults.PingTimeout,
		KeyDefaultChannel:      "",
	} {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

// Load validates and decodes the process configuration.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		return Config{}, errors.New("config source is nil")
	}

	cfg := Config{
		DBPath:        v.GetString(KeyDBPath),
		TenantsPath:   v.GetString(KeyTenantsPath),
		BackupDir:     v.GetString(KeyBackupDir),
		BackupUpload:  v.GetBool(KeyBackupUpload),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		Rates:         domain.Rates{Normal: v.GetFloat64(KeyRatesNormal), Stellar: v.GetFloat64(KeyRatesStellar)},
		SweepInterval: v.GetDuration(KeySweepInterval),
		ArchiveDrain:  v.GetBool(KeyArchiveDrain),
		TelegramToken: v.GetString(KeyTelegramToken),
		OTelEndpoint:  v.GetString(KeyOTelEndpoint),
		HTTPAddr:      v.GetString(KeyHTTPAddr),
		Schedule: Schedule{
			Timezone: v.GetString(KeyScheduleTZ),
			Archive:  v.GetString(KeyScheduleArchive),
			Backup:   v.GetString(KeyScheduleBackup),
		},
	}

	var errs []error
	if strings.TrimSpace(cfg.DBPath) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyDBPath))
	}
	if strings.TrimSpace(cfg.TenantsPath) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyTenantsPath))
	}
	if strings.TrimSpace(cfg.BackupDir) == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyBackupDir))
	}
	if cfg.SweepInterval < time.Second {
		errs = append(errs, fmt.Errorf("%s must be at least 1s", KeySweepInterval))
	}
	if cfg.Rates.Normal < 0 || cfg.Rates.Stellar < 0 {
		errs = append(errs, errors.New("rates must not be negative"))
	}
	if _, err := domain.LoadLocation(cfg.Schedule.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", KeyScheduleTZ, err))
	}

	defaults, err := tenantDefaults(v)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.TenantDefaults = defaults

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func tenantDefaults(v *viper.Viper) (domain.TenantConfig, error) {
	windows, err := domain.ParseWindows(v.GetString(KeyDefaultWindows))
	if err != nil {
		return domain.TenantConfig{}, fmt.Errorf("%s: %w", KeyDefaultWindows, err)
	}

	defaults := domain.TenantConfig{
		// Validate needs an id; callers replace it per tenant.
		ID:              "defaults",
		Timezone:        v.GetString(KeyDefaultTimezone),
		Windows:         windows,
		PingInterval:    v.GetDuration(KeyDefaultPingInterval),
		PingTimeout:     v.GetDuration(KeyDefaultPingTimeout),
		OperatorChannel: v.GetString(KeyDefaultChannel),
	}
	if err := defaults.Validate(); err != nil {
		return domain.TenantConfig{}, fmt.Errorf("tenant.defaults: %w", err)
	}

	defaults.ID = ""
	return defaults, nil
}
