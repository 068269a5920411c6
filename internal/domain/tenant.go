package domain

import (
	"strings"
	"time"
)

const (
	DefaultTimezone     = "America/Mexico_City"
	DefaultWindows      = "00:00-02:00,16:00-18:00"
	DefaultPingInterval = 120 * time.Minute
	DefaultPingTimeout  = 5 * time.Minute
)

type TenantConfig struct {
	ID              TenantID
	Timezone        string
	Windows         []Window
	PingInterval    time.Duration
	PingTimeout     time.Duration
	OperatorChannel string
	UpdatedAt       time.Time
}

func DefaultTenantConfig(id TenantID) TenantConfig {
	windows, _ := ParseWindows(DefaultWindows)
	return TenantConfig{
		ID:           id,
		Timezone:     DefaultTimezone,
		Windows:      windows,
		PingInterval: DefaultPingInterval,
		PingTimeout:  DefaultPingTimeout,
	}
}

func (c TenantConfig) Validate() error {
	if strings.TrimSpace(string(c.ID)) == "" {
		return validationError("tenant id is required")
	}
	if _, err := LoadLocation(c.Timezone); err != nil {
		return err
	}
	if c.PingInterval < time.Minute {
		return validationError("ping interval must be at least one minute")
	}
	if c.PingTimeout < time.Minute {
		return validationError("ping timeout must be at least one minute")
	}
	for _, w := range c.Windows {
		if w.Start < 0 || w.Start >= minutesPerDay || w.End < 0 || w.End > minutesPerDay || w.Start == w.End {
			return validationError("invalid window %s", w)
		}
	}

	return nil
}

func (c TenantConfig) Schedule() (Schedule, error) {
	loc, err := LoadLocation(c.Timezone)
	if err != nil {
		return Schedule{}, err
	}
	return Schedule{Location: loc, Windows: c.Windows}, nil
}

func LoadLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, validationError("timezone is required")
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, validationError("invalid timezone %q", name)
	}
	return loc, nil
}
