package config

import "time"

// Config represents the complete traduttore configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Mirror   MirrorConfig   `yaml:"mirror"`
	Sync     SyncConfig     `yaml:"sync"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DatabaseConfig selects the project store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `yaml:"dsn"`
}

// ServerConfig defines the webhook HTTP listener.
type ServerConfig struct {
	Listen       string        `yaml:"listen"`
	MaxBodySize  string        `yaml:"max_body_size"` // e.g. "1MB", "2048576"
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LegacyGitHubEndpoint keeps /github-webhook/v1/push-event registered.
	LegacyGitHubEndpoint bool `yaml:"legacy_github_endpoint"`
}

// WebhooksConfig holds provider secrets and host settings.
type WebhooksConfig struct {
	// Secrets maps provider name (github, gitlab, bitbucket, generic) to the
	// shared secret used when a project carries no secret of its own.
	Secrets map[string]string `yaml:"secrets"`

	// ExtraHosts lists self-hosted Git hosts whose repository URLs the
	// project locator should recognise.
	ExtraHosts []string `yaml:"extra_hosts,omitempty"`
}

// MirrorConfig defines where and how repositories are mirrored.
type MirrorConfig struct {
	CacheDir       string        `yaml:"cache_dir"`
	CloneProtocol  string        `yaml:"clone_protocol"` // ssh or https
	NetworkTimeout time.Duration `yaml:"network_timeout"`
	GitBinary      string        `yaml:"git_binary"`
}

// SyncConfig defines how accepted webhooks are turned into syncs.
type SyncConfig struct {
	Mode         string          `yaml:"mode"` // async or inline
	PollInterval time.Duration   `yaml:"poll_interval"`
	Workers      int             `yaml:"workers"`
	Extractor    ExtractorConfig `yaml:"extractor"`

	// MaintenanceInterval is how often finished jobs and abandoned
	// temporary clones are pruned. Zero disables housekeeping.
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
	// JobRetention keeps finished sync jobs this long; sync_log is kept.
	JobRetention time.Duration `yaml:"job_retention"`
}

// ExtractorConfig describes the external string-extraction command.
type ExtractorConfig struct {
	// Command is argv; {dir}, {project_id} and {slug} are substituted.
	Command []string      `yaml:"command,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// Sync modes.
const (
	SyncModeAsync  = "async"
	SyncModeInline = "inline"
)

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "traduttore",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./data/traduttore.db",
		},
		Server: ServerConfig{
			Listen:               "127.0.0.1:8081",
			MaxBodySize:          "1MB",
			ReadTimeout:          10 * time.Second,
			WriteTimeout:         10 * time.Minute,
			LegacyGitHubEndpoint: true,
		},
		Webhooks: WebhooksConfig{
			Secrets: map[string]string{},
		},
		Mirror: MirrorConfig{
			CacheDir:       "./data/repositories",
			CloneProtocol:  "ssh",
			NetworkTimeout: 5 * time.Minute,
			GitBinary:      "git",
		},
		Sync: SyncConfig{
			Mode:         SyncModeAsync,
			PollInterval: time.Second,
			Workers:      2,
			Extractor: ExtractorConfig{
				Timeout: 10 * time.Minute,
			},
			MaintenanceInterval: time.Hour,
			JobRetention:        7 * 24 * time.Hour,
		},
	}
}
