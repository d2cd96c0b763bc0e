package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mattjoyce/traduttore/internal/config"
	"github.com/mattjoyce/traduttore/internal/log"
	"github.com/mattjoyce/traduttore/internal/mirror"
	"github.com/mattjoyce/traduttore/internal/project"
	"github.com/mattjoyce/traduttore/internal/queue"
	"github.com/mattjoyce/traduttore/internal/storage"
	"github.com/mattjoyce/traduttore/internal/syncer"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// errReported marks a failure whose message was already printed.
var errReported = errors.New("reported")

func main() {
	os.Exit(runCLI(os.Args[1:], os.Stdout, os.Stderr))
}

func runCLI(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			printError(stderr, "%s", err)
		}
		return 1
	}
	return 0
}

type globalOptions struct {
	configPath string
	envFile    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "traduttore",
		Short: "Keep local mirrors of translation project repositories in sync",
		Long: `traduttore receives push webhooks from GitHub, GitLab, Bitbucket and
generic senders, resolves the project they belong to and keeps a local
mirror of its default branch up to date for string extraction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(opts.envFile)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file or directory")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")

	root.AddCommand(
		newServeCmd(opts),
		newCacheCmd(opts),
		newProjectCmd(opts),
		newDoctorCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing default file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func loadConfig(opts *globalOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = discovered
	}
	return config.Load(path)
}

// app bundles the components every subcommand needs.
type app struct {
	cfg      *config.Config
	db       *storage.DB
	projects *project.Store
	locator  *project.Locator
	mirrors  *mirror.Manager
	queue    *queue.Queue
}

func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)

	db, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	mirrors, err := mirror.NewManager(mirror.Options{
		CacheDir:       cfg.Mirror.CacheDir,
		PreferHTTPS:    cfg.Mirror.CloneProtocol == "https",
		NetworkTimeout: cfg.Mirror.NetworkTimeout,
		Git:            mirror.ExecGit{Binary: cfg.Mirror.GitBinary},
		Logger:         log.WithComponent("mirror"),
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := project.NewStore(db)
	return &app{
		cfg:      cfg,
		db:       db,
		projects: store,
		locator:  project.NewLocator(store, cfg.Webhooks.ExtraHosts...),
		mirrors:  mirrors,
		queue:    queue.New(db),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func (a *app) extractor() syncer.Extractor {
	if len(a.cfg.Sync.Extractor.Command) == 0 {
		return syncer.NoopExtractor{}
	}
	return syncer.CommandExtractor{
		Command: a.cfg.Sync.Extractor.Command,
		Timeout: a.cfg.Sync.Extractor.Timeout,
		Logger:  log.WithComponent("extractor"),
	}
}

func (a *app) trigger() *syncer.Trigger {
	return syncer.NewTrigger(a.mirrors, a.extractor(), log.WithComponent("sync"))
}

// pidLockPath sits beside the cache directory so two services sharing a
// cache cannot run at once.
func pidLockPath(cfg *config.Config) string {
	cache := filepath.Clean(cfg.Mirror.CacheDir)
	return filepath.Join(filepath.Dir(cache), "traduttore.pid")
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = readBuildSetting("vcs.revision")
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = readBuildSetting("vcs.time")
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return strings.TrimSpace(setting.Value)
		}
	}
	return ""
}
