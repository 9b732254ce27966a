package config

import (
	"flaredns/common"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	Service  Service          `toml:"service" json:"service" yaml:"service"`
	Log      Log              `toml:"log" json:"log" yaml:"log"`
	Provider CloudflareConfig `toml:"provider" json:"provider" yaml:"provider"`
	Address  []AddressConfig  `toml:"address,omitempty" json:"address,omitempty" yaml:"address,omitempty"`
}

type Service struct {
	Hostname string          `toml:"hostname" json:"hostname" yaml:"hostname"`
	IPv4     bool            `toml:"ipv4" json:"ipv4" yaml:"ipv4"`
	IPv6     bool            `toml:"ipv6" json:"ipv6" yaml:"ipv6"`
	Interval common.Duration `toml:"-" json:"-" yaml:"-"`
}

type Log struct {
	Level     *zapcore.Level `toml:"level" json:"level" yaml:"level"`
	Encoding  *string        `toml:"encoding" json:"encoding" yaml:"encoding"`
	InfoPath  *[]string      `toml:"info_path" json:"info_path" yaml:"info_path"`
	ErrorPath *[]string      `toml:"error_path" json:"error_path" yaml:"error_path"`
}

// CloudflareConfig holds account-wide credentials. Scoped API tokens are a
// known external limitation: the record client authenticates every call with
// the account email plus the global API key.
type CloudflareConfig struct {
	Email  string `toml:"email" json:"email" yaml:"email"`
	APIKey string `toml:"api_key" json:"api_key" yaml:"api_key"`
}

// AddressConfig overrides how the public address of one family is obtained.
// Families without an entry fall back to the default IP-echo source.
type AddressConfig struct {
	Family       string              `toml:"family" json:"family" yaml:"family"`
	Sources      []SourceConfig      `toml:"sources" json:"sources" yaml:"sources"`
	Transformers []TransformerConfig `toml:"transformers,omitempty" json:"transformers,omitempty" yaml:"transformers,omitempty"`
}

type SourceConfig struct {
	Type   string         `toml:"type" json:"type" yaml:"type"`
	Source string         `toml:"source" json:"source" yaml:"source"`
	Config map[string]any `toml:"config,omitempty" json:"config,omitempty" yaml:"config,omitempty"`
}

type EchoSourceConfig struct {
	Timeout common.Duration `mapstructure:"timeout"`
}

type TraceSourceConfig struct {
	Timeout common.Duration `mapstructure:"timeout"`
}

type InterfaceSourceConfig struct {
	Select common.IPSelectMode `mapstructure:"select"`
}

type TransformerConfig struct {
	Type   string         `toml:"type" json:"type" yaml:"type"`
	Config map[string]any `toml:"config,omitempty" json:"config,omitempty" yaml:"config"`
}

type MaskRewriteConfig struct {
	Mask      string    `mapstructure:"mask"`
	Overwrite common.IP `mapstructure:"overwrite"`
}

// Families lists the requested families in a fixed order. Processing order
// does not matter, but a stable order keeps logs readable.
func (s *Service) Families() []common.Family {
	var families []common.Family
	if s.IPv4 {
		families = append(families, common.IPv4)
	}
	if s.IPv6 {
		families = append(families, common.IPv6)
	}
	return families
}
