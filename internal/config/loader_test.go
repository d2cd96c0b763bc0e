package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		env     map[string]string
		wantErr bool
		checkFn func(t *testing.T, cfg *Config)
	}{
		{
			name:    "empty file yields defaults",
			yaml:    ``,
			wantErr: false,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sqlite", cfg.Database.Driver)
				assert.Equal(t, "ssh", cfg.Mirror.CloneProtocol)
				assert.Equal(t, 5*time.Minute, cfg.Mirror.NetworkTimeout)
				assert.Equal(t, SyncModeAsync, cfg.Sync.Mode)
				assert.True(t, cfg.Server.LegacyGitHubEndpoint)
				assert.Equal(t, DefaultMaxBodySize, cfg.MaxBodyBytes())
				assert.Equal(t, time.Hour, cfg.Sync.MaintenanceInterval)
				assert.Equal(t, 7*24*time.Hour, cfg.Sync.JobRetention)
			},
		},
		{
			name: "full config",
			yaml: `
service:
  log_level: debug
  log_format: text
database:
  driver: sqlite
  dsn: /tmp/t.db
server:
  listen: 0.0.0.0:9000
  max_body_size: 2MB
  legacy_github_endpoint: false
webhooks:
  secrets:
    github: gh-secret
    gitlab: gl-secret
  extra_hosts: [git.example.com]
mirror:
  cache_dir: /var/cache/traduttore
  clone_protocol: https
  network_timeout: 30s
sync:
  mode: inline
  extractor:
    command: [wp, i18n, make-pot, "{dir}"]
    timeout: 1m
  maintenance_interval: 0s
  job_retention: 48h
`,
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Service.LogLevel)
				assert.Equal(t, "/tmp/t.db", cfg.Database.DSN)
				assert.Equal(t, "0.0.0.0:9000", cfg.Server.Listen)
				assert.Equal(t, int64(2<<20), cfg.MaxBodyBytes())
				assert.False(t, cfg.Server.LegacyGitHubEndpoint)
				assert.Equal(t, "gh-secret", cfg.Webhooks.Secrets["github"])
				assert.Equal(t, []string{"git.example.com"}, cfg.Webhooks.ExtraHosts)
				assert.Equal(t, "https", cfg.Mirror.CloneProtocol)
				assert.Equal(t, 30*time.Second, cfg.Mirror.NetworkTimeout)
				assert.Equal(t, SyncModeInline, cfg.Sync.Mode)
				assert.Equal(t, []string{"wp", "i18n", "make-pot", "{dir}"}, cfg.Sync.Extractor.Command)
				assert.Equal(t, time.Minute, cfg.Sync.Extractor.Timeout)
				assert.Zero(t, cfg.Sync.MaintenanceInterval)
				assert.Equal(t, 48*time.Hour, cfg.Sync.JobRetention)
				// untouched defaults survive the overlay
				assert.Equal(t, "git", cfg.Mirror.GitBinary)
			},
		},
		{
			name: "env var interpolation",
			yaml: `
database:
  dsn: ${TRADUTTORE_TEST_DB}
webhooks:
  secrets:
    github: ${TRADUTTORE_TEST_SECRET}
`,
			env: map[string]string{
				"TRADUTTORE_TEST_DB":     "/tmp/env.db",
				"TRADUTTORE_TEST_SECRET": "from-env",
			},
			checkFn: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/env.db", cfg.Database.DSN)
				assert.Equal(t, "from-env", cfg.Webhooks.Secrets["github"])
			},
		},
		{
			name: "unresolved secret env var",
			yaml: `
webhooks:
  secrets:
    github: ${TRADUTTORE_TEST_UNSET_SECRET}
`,
			wantErr: true,
		},
		{
			name: "unknown provider secret",
			yaml: `
webhooks:
  secrets:
    gitea: x
`,
			wantErr: true,
		},
		{
			name:    "bad driver",
			yaml:    "database:\n  driver: mysql\n",
			wantErr: true,
		},
		{
			name:    "bad clone protocol",
			yaml:    "mirror:\n  clone_protocol: ftp\n",
			wantErr: true,
		},
		{
			name:    "bad sync mode",
			yaml:    "sync:\n  mode: later\n",
			wantErr: true,
		},
		{
			name:    "negative job retention",
			yaml:    "sync:\n  job_retention: -1h\n",
			wantErr: true,
		},
		{
			name:    "bad body size",
			yaml:    "server:\n  max_body_size: lots\n",
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			yaml:    "service: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.checkFn != nil {
				tt.checkFn(t, cfg)
			}
		})
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server:\n  listen: 127.0.0.1:7000\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Server.Listen)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "config file not found")
}

func TestDiscoverUsesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	t.Setenv("TRADUTTORE_CONFIG", path)

	got, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, path, got)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", DefaultMaxBodySize, false},
		{"1048576", 1048576, false},
		{"512KB", 512 << 10, false},
		{"1mb", 1 << 20, false},
		{"2GB", 2 << 30, false},
		{"0", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
