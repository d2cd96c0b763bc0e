package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// DefaultMaxBodySize is used when server.max_body_size is empty.
const DefaultMaxBodySize int64 = 1 << 20

var knownProviders = map[string]bool{"github": true, "gitlab": true, "bitbucket": true, "generic": true}

// Load reads a YAML config file, overlays it on Defaults and validates it.
// A directory argument is resolved to <dir>/config.yaml.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML bytes on top of Defaults, after ${VAR} interpolation.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	interpolated := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.Webhooks.Secrets == nil {
		cfg.Webhooks.Secrets = map[string]string{}
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Discover finds a config file by checking standard locations.
// Priority order: $TRADUTTORE_CONFIG, ~/.config/traduttore/config.yaml,
// /etc/traduttore/config.yaml, ./config.yaml.
func Discover() (string, error) {
	candidates := []string{}
	if p := os.Getenv("TRADUTTORE_CONFIG"); p != "" {
		candidates = append(candidates, p)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "traduttore", "config.yaml"))
	}
	candidates = append(candidates, "/etc/traduttore/config.yaml", "./config.yaml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no config found (checked: $TRADUTTORE_CONFIG, ~/.config/traduttore, /etc/traduttore, ./config.yaml)")
}

// MaxBodyBytes returns server.max_body_size in bytes.
func (c *Config) MaxBodyBytes() int64 {
	n, err := ParseSize(c.Server.MaxBodySize)
	if err != nil {
		return DefaultMaxBodySize
	}
	return n
}

// ParseSize parses size strings like "1MB", "512KB", "2048576" to bytes.
// Returns DefaultMaxBodySize if empty.
func ParseSize(size string) (int64, error) {
	if strings.TrimSpace(size) == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30}} {
		if strings.HasSuffix(upper, unit.suffix) {
			multiplier = unit.mult
			upper = strings.TrimSuffix(upper, unit.suffix)
			break
		}
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result/multiplier != value {
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}

func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Leave the placeholder; validate rejects it where it matters.
		return match
	})
}

func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(cfg.Service.LogLevel)] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres (got %q)", cfg.Database.Driver)
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if envVarPattern.MatchString(cfg.Database.DSN) {
		return fmt.Errorf("database.dsn: environment variable ${%s} is not set", envVarPattern.FindStringSubmatch(cfg.Database.DSN)[1])
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if _, err := ParseSize(cfg.Server.MaxBodySize); err != nil {
		return fmt.Errorf("server.max_body_size %q: %w", cfg.Server.MaxBodySize, err)
	}

	for provider, secret := range cfg.Webhooks.Secrets {
		if !knownProviders[provider] {
			return fmt.Errorf("webhooks.secrets: unknown provider %q", provider)
		}
		if envVarPattern.MatchString(secret) {
			return fmt.Errorf("webhooks.secrets.%s: environment variable ${%s} is not set", provider, envVarPattern.FindStringSubmatch(secret)[1])
		}
	}

	if cfg.Mirror.CacheDir == "" {
		return fmt.Errorf("mirror.cache_dir is required")
	}
	switch cfg.Mirror.CloneProtocol {
	case "ssh", "https":
	default:
		return fmt.Errorf("mirror.clone_protocol must be ssh or https (got %q)", cfg.Mirror.CloneProtocol)
	}
	if cfg.Mirror.NetworkTimeout <= 0 {
		return fmt.Errorf("mirror.network_timeout must be positive")
	}

	switch cfg.Sync.Mode {
	case SyncModeAsync, SyncModeInline:
	default:
		return fmt.Errorf("sync.mode must be async or inline (got %q)", cfg.Sync.Mode)
	}
	if cfg.Sync.Mode == SyncModeAsync {
		if cfg.Sync.Workers <= 0 {
			return fmt.Errorf("sync.workers must be positive")
		}
		if cfg.Sync.PollInterval <= 0 {
			return fmt.Errorf("sync.poll_interval must be positive")
		}
	}
	if cfg.Sync.MaintenanceInterval < 0 {
		return fmt.Errorf("sync.maintenance_interval must not be negative")
	}
	if cfg.Sync.JobRetention < 0 {
		return fmt.Errorf("sync.job_retention must not be negative")
	}
	return nil
}
