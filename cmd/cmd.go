// Package cmd provides the gitkid command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/thiagokokada/gitkid/internal/buildinfo"
	"github.com/thiagokokada/gitkid/internal/config"
	"github.com/thiagokokada/gitkid/internal/git"
	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
)

// app carries what the commands share: the loaded configuration and the
// output streams.
type app struct {
	cfg     config.Config
	environ func() []string

	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

// Run runs the command line with os.Args.
func Run(ctx context.Context) error {
	return NewApp(os.Stdout, os.Stderr, nil).Run(ctx, os.Args)
}

// NewApp creates the CLI application. environ supplies the GITKID_*
// variables and defaults to os.Environ.
func NewApp(stdout, stderr io.Writer, environ func() []string) *cli.Command {
	a := &app{stdout: stdout, stderr: stderr, environ: environ}
	return &cli.Command{
		Name:      "gitkid",
		Usage:     "Inspect git repositories through go-git, git or libgit2",
		Version:   buildinfo.VersionWithTags(string(gitbackend.DefaultKind)),
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "repo",
				Aliases: []string{"C"},
				Usage:   "Path to the repository (" + config.EnvPrefix + "REPO)",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Git library: gogit, gitcli or libgit2 (" + config.EnvPrefix + "BACKEND)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (" + config.EnvPrefix + "LOG_FORMAT)",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose logging",
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			a.branchesCommand(),
			a.logCommand(),
			a.showCommand(),
			a.reposCommand(),
			a.watchCommand(),
		},
	}
}

// before loads the environment configuration, applies flag overrides and
// installs the logger.
func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := config.Load(a.environ)
	if err != nil {
		return ctx, err
	}
	if cmd.IsSet("repo") {
		cfg.Repo = cmd.String("repo")
	}
	if cmd.IsSet("backend") {
		cfg.Backend = cmd.String("backend")
	}
	if cmd.IsSet("log-format") {
		cfg.LogFormat = config.LogFormat(cmd.String("log-format"))
	}
	if err := cfg.Validate(); err != nil {
		return ctx, err
	}
	a.cfg = cfg
	a.setupLogging(cmd.Bool("verbose"))
	return ctx, nil
}

// setupLogging configures the global logger based on the verbose flag and
// the configured format.
func (a *app) setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch a.cfg.LogFormat {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(a.stderr, opts)
	default:
		handler = slog.NewTextHandler(a.stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	if verbose {
		slog.Debug("Verbose logging enabled", slog.String("backend", a.cfg.Backend))
	}
}

func (a *app) openRepository() (*git.Repository, error) {
	repo, err := git.Open(a.cfg.Repo, a.cfg.Kind())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", a.cfg.Repo, err)
	}
	return repo, nil
}

// printf writes to stdout. The watch command prints from a timer goroutine,
// so writes are serialized.
func (a *app) printf(format string, args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintf(a.stdout, format, args...)
}
