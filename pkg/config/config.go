package config

import (
	"context"
	"time"
)

// Config holds every setting of a flowlint run.
type Config struct {
	Runtime     RuntimeConfig     `koanf:"runtime"     json:"runtime"     yaml:"runtime"     mapstructure:"runtime"`
	Lint        LintConfig        `koanf:"lint"        json:"lint"        yaml:"lint"        mapstructure:"lint"`
	Performance PerformanceConfig `koanf:"performance" json:"performance" yaml:"performance" mapstructure:"performance"`
	History     HistoryConfig     `koanf:"history"     json:"history"     yaml:"history"     mapstructure:"history"`
	Cost        CostConfig        `koanf:"cost"        json:"cost"        yaml:"cost"        mapstructure:"cost"`
	Monitoring  MonitoringConfig  `koanf:"monitoring"  json:"monitoring"  yaml:"monitoring"  mapstructure:"monitoring"`
}

// RuntimeConfig controls process-level behavior such as logging.
type RuntimeConfig struct {
	LogLevel  string `koanf:"log_level"  json:"log_level"  yaml:"log_level"  mapstructure:"log_level"  validate:"oneof=debug info warn error disabled"`
	LogJSON   bool   `koanf:"log_json"   json:"log_json"   yaml:"log_json"   mapstructure:"log_json"`
	LogSource bool   `koanf:"log_source" json:"log_source" yaml:"log_source" mapstructure:"log_source"`
}

// LintConfig controls the lint pipeline.
type LintConfig struct {
	// StartNodeType is the node type traversal starts from.
	StartNodeType string `koanf:"start_node_type" json:"start_node_type" yaml:"start_node_type" mapstructure:"start_node_type" validate:"required"`
	// FailOn is the lowest severity that makes `flowlint lint` exit non-zero.
	FailOn string `koanf:"fail_on" json:"fail_on" yaml:"fail_on" mapstructure:"fail_on" validate:"severity"`
	// StageTimeout bounds each call into an external collaborator. Zero disables it.
	StageTimeout  time.Duration `koanf:"stage_timeout"   json:"stage_timeout"   yaml:"stage_timeout"   mapstructure:"stage_timeout"   validate:"min=0"`
	NodeTypesFile string        `koanf:"node_types_file" json:"node_types_file" yaml:"node_types_file" mapstructure:"node_types_file"`
	Rules         []RuleConfig  `koanf:"rules"           json:"rules"           yaml:"rules"           mapstructure:"rules"           validate:"dive"`
}

// RuleConfig declares a CEL expression evaluated against every matching node.
// The rule reports an issue when the expression evaluates to true.
type RuleConfig struct {
	Name       string   `koanf:"name"       json:"name"                 yaml:"name"                 mapstructure:"name"       validate:"required"`
	Expression string   `koanf:"expression" json:"expression"           yaml:"expression"           mapstructure:"expression" validate:"required"`
	Severity   string   `koanf:"severity"   json:"severity,omitempty"   yaml:"severity,omitempty"   mapstructure:"severity"   validate:"omitempty,severity"`
	Category   string   `koanf:"category"   json:"category,omitempty"   yaml:"category,omitempty"   mapstructure:"category"`
	Message    string   `koanf:"message"    json:"message,omitempty"    yaml:"message,omitempty"    mapstructure:"message"`
	NodeTypes  []string `koanf:"node_types" json:"node_types,omitempty" yaml:"node_types,omitempty" mapstructure:"node_types"`
}

// PerformanceConfig tunes the performance heuristics.
type PerformanceConfig struct {
	MinChainLength    int           `koanf:"min_chain_length"    json:"min_chain_length"    yaml:"min_chain_length"    mapstructure:"min_chain_length"    validate:"min=2"`
	SlowNodeThreshold time.Duration `koanf:"slow_node_threshold" json:"slow_node_threshold" yaml:"slow_node_threshold" mapstructure:"slow_node_threshold" validate:"gt=0"`
}

// HistoryConfig selects and configures the execution-history store.
type HistoryConfig struct {
	Driver string `koanf:"driver" json:"driver" yaml:"driver" mapstructure:"driver" validate:"oneof=memory postgres redis"`
	// File seeds the memory driver with stats from a YAML or JSON document.
	File          string          `koanf:"file"           json:"file,omitempty"    yaml:"file,omitempty"    mapstructure:"file"`
	DSN           SensitiveString `koanf:"dsn"            json:"dsn,omitempty"     yaml:"dsn,omitempty"     mapstructure:"dsn"            sensitive:"true"`
	Table         string          `koanf:"table"          json:"table"             yaml:"table"             mapstructure:"table"          validate:"required"`
	RedisAddr     string          `koanf:"redis_addr"     json:"redis_addr"        yaml:"redis_addr"        mapstructure:"redis_addr"`
	RedisPassword SensitiveString `koanf:"redis_password" json:"redis_password"    yaml:"redis_password"    mapstructure:"redis_password" sensitive:"true"`
	RedisDB       int             `koanf:"redis_db"       json:"redis_db"          yaml:"redis_db"          mapstructure:"redis_db"       validate:"min=0"`
	KeyPrefix     string          `koanf:"key_prefix"     json:"key_prefix"        yaml:"key_prefix"        mapstructure:"key_prefix"`
	// CacheSize enables an in-process LRU over the store when positive.
	CacheSize int           `koanf:"cache_size" json:"cache_size" yaml:"cache_size" mapstructure:"cache_size" validate:"min=0"`
	CacheTTL  time.Duration `koanf:"cache_ttl"  json:"cache_ttl"  yaml:"cache_ttl"  mapstructure:"cache_ttl"  validate:"min=0"`
}

// CostConfig controls model selection during optimization.
type CostConfig struct {
	// AllowDowngrade lets the optimizer switch every node to a cheaper model,
	// not only nodes that opt in with allow_model_downgrade.
	AllowDowngrade bool `koanf:"allow_downgrade" json:"allow_downgrade" yaml:"allow_downgrade" mapstructure:"allow_downgrade"`
}

// MonitoringConfig toggles in-process metric collection.
type MonitoringConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// Service defines the configuration management service interface.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns which source provided a configuration key.
	GetSource(key string) SourceType
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Type returns the source type identifier.
	Type() SourceType
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Load loads configuration from defaults and environment using the default service.
func Load() (*Config, error) {
	return NewService().Load(context.Background())
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
		Lint: LintConfig{
			StartNodeType: "START",
			FailOn:        "ERROR",
			StageTimeout:  30 * time.Second,
		},
		Performance: PerformanceConfig{
			MinChainLength:    3,
			SlowNodeThreshold: 5 * time.Second,
		},
		History: HistoryConfig{
			Driver:    "memory",
			Table:     "node_execution_stats",
			RedisAddr: "localhost:6379",
			KeyPrefix: "flowlint:history:",
			CacheSize: 128,
			CacheTTL:  time.Minute,
		},
	}
}
