package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/config"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/console"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/envstate"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/git"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/probe"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/process"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/service"
)

// Environment variables mirroring the global flags.
const (
	envCatalog      = "GEARBOX_CATALOG"
	envCacheDir     = "GEARBOX_CACHE_DIR"
	envWorkers      = "GEARBOX_WORKERS"
	envProbeTimeout = "GEARBOX_PROBE_TIMEOUT"
	envDebug        = "GEARBOX_DEBUG"
)

const defaultCacheDirName = ".gearbox_cache"

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type globalFlags struct {
	catalog      string
	cacheDir     string
	workers      int
	probeTimeout time.Duration
	debug        bool
}

// app holds what every command shares: streams, console, logger and the
// resolved global flags.
type app struct {
	streams streams
	con     *console.Terminal
	logger  *slog.Logger
	flags   globalFlags

	// code is the exit code for a successful command; tool run sets it to
	// the child's exit code.
	code int
}

func newApp(s streams) *app {
	return &app{
		streams: s,
		con:     console.New(s.out, s.in),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// run executes the command line and maps the outcome to an exit code.
func run(ctx context.Context, args []string, s streams) int {
	a := newApp(s)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(s.in)
	root.SetOut(s.out)
	root.SetErr(s.err)
	return a.exitCode(root.ExecuteContext(ctx))
}

func (a *app) exitCode(err error) int {
	switch {
	case err == nil:
		return a.code
	case errors.Is(err, service.ErrDeclined):
		a.con.Exit("Nothing was changed")
		return 0
	default:
		for _, line := range strings.Split(config.FormatError(err, a.flags.debug), "\n") {
			if line != "" {
				a.con.Fail(line)
			}
		}
		return 1
	}
}

// setup applies environment fallbacks for flags the user did not set and
// configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if !flags.Changed("catalog") {
		a.flags.catalog = os.Getenv(envCatalog)
	}
	if !flags.Changed("cache-dir") {
		a.flags.cacheDir = os.Getenv(envCacheDir)
	}
	if v := os.Getenv(envWorkers); v != "" && !flags.Changed("workers") {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envWorkers, v, err)
		}
		a.flags.workers = n
	}
	if v := os.Getenv(envProbeTimeout); v != "" && !flags.Changed("probe-timeout") {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", envProbeTimeout, v, err)
		}
		a.flags.probeTimeout = d
	}
	if os.Getenv(envDebug) != "" {
		a.flags.debug = true
	}
	if a.flags.workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}

	level := slog.LevelWarn
	if a.flags.debug {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.streams.err, &slog.HandlerOptions{Level: level}))
	return nil
}

// workspace is a loaded catalog with its resolved locations.
type workspace struct {
	root        string
	catalogPath string
	cacheDir    string
	file        *config.File
	catalog     *catalog.Catalog
	platform    platform.Platform
}

// repoRoot returns the repository root containing the working directory, or
// the working directory itself outside a repository.
func repoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	root, err := git.FindRoot(cwd)
	if errors.Is(err, git.ErrNotAGitRepo) {
		return cwd, nil
	}
	if err != nil {
		return "", err
	}
	return root, nil
}

func (a *app) load(ctx context.Context) (*workspace, error) {
	root, err := repoRoot()
	if err != nil {
		return nil, err
	}

	path := a.flags.catalog
	if path == "" {
		if path, err = config.Discover(root); err != nil {
			return nil, err
		}
	}
	a.logger.Debug("loading catalog", "path", path, "root", root)

	parser := config.NewParser(platform.NewDetector(), config.WithLogger(a.logger))
	file, err := parser.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	cacheDir := a.flags.cacheDir
	switch {
	case cacheDir != "":
	case file.Settings.CacheDir != "":
		cacheDir = file.Settings.CacheDir
		if !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(file.Dir, cacheDir)
		}
	default:
		cacheDir = filepath.Join(root, defaultCacheDirName)
	}
	if cacheDir, err = filepath.Abs(cacheDir); err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}

	p := platform.Current()
	cat, err := file.Catalog(filepath.Join(cacheDir, "tools"), p)
	if err != nil {
		return nil, err
	}
	return &workspace{
		root:        root,
		catalogPath: path,
		cacheDir:    cacheDir,
		file:        file,
		catalog:     cat,
		platform:    p,
	}, nil
}

func (a *app) toolService(ws *workspace) *service.ToolService {
	settings := ws.file.Settings

	workers := a.flags.workers
	if workers == 0 {
		workers = settings.Workers
	}
	timeout := a.flags.probeTimeout
	if timeout <= 0 {
		timeout = settings.ProbeTimeoutDuration()
	}
	probeOpts := []probe.Option{probe.WithLogger(a.logger)}
	if timeout > 0 {
		probeOpts = append(probeOpts, probe.WithTimeout(timeout))
	}

	downloader := binary.NewDownloader(
		binary.WithRetries(settings.DownloadRetries),
		binary.WithUserAgent("gearbox/"+strings.TrimPrefix(Version, "v")),
	)

	return service.NewToolService(service.ToolOptions{
		Tools:     ws.catalog.Tools,
		Prober:    probe.New(process.NewRunner(), probeOpts...),
		Installer: binary.NewInstaller(downloader),
		Executor:  &foreground{stdio: process.Stdio{In: a.streams.in, Out: a.streams.out, Err: a.streams.err}},
		Console:   a.con,
		Platform:  ws.platform,
		CacheDir:  ws.cacheDir,
		Workers:   workers,
		Logger:    a.logger,
	})
}

func (a *app) envService(ws *workspace) *service.EnvService {
	return service.NewEnvService(ws.catalog.Envs, envstate.New(ws.cacheDir), ws.catalog.DefaultEnv, a.con, a.logger)
}

// foreground runs tools attached to the command's streams.
type foreground struct {
	stdio process.Stdio
}

func (f *foreground) Exec(ctx context.Context, name string, args ...string) (int, error) {
	return process.Exec(ctx, f.stdio, "", name, args...)
}
