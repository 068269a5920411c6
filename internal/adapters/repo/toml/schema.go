package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int            `toml:"version"`
	Tenants []tenantSchema `toml:"tenants"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported tenants schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

// tenantSchema leaves windows nil when the key is absent so the tenant keeps
// the default windows. An empty string means no stellar windows.
type tenantSchema struct {
	ID              string  `toml:"id"`
	Timezone        string  `toml:"timezone"`
	Windows         *string `toml:"windows,omitempty"`
	PingInterval    string  `toml:"ping_interval"`
	PingTimeout     string  `toml:"ping_timeout"`
	OperatorChannel string  `toml:"operator_channel,omitempty"`
	UpdatedAt       string  `toml:"updated_at,omitempty"`
}
