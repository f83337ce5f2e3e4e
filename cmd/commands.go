package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/thiagokokada/gitkid/internal/git"
	"github.com/thiagokokada/gitkid/internal/highlight"
	"github.com/thiagokokada/gitkid/internal/watch"
)

var (
	errRevisionRequired = errors.New("revision required")
	errRootRequired     = errors.New("catalog root required")
	errBranchNotFound   = errors.New("branch not found")
)

func kindFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "kind",
		Aliases: []string{"k"},
		Usage:   "Branches to list: local, remote or all",
		Value:   "local",
	}
}

func branchKind(cmd *cli.Command) (git.BranchKind, error) {
	kind, ok := git.ParseBranchKind(cmd.String("kind"))
	if !ok {
		return kind, fmt.Errorf("unknown branch kind %q", cmd.String("kind"))
	}
	return kind, nil
}

func (a *app) branchesCommand() *cli.Command {
	return &cli.Command{
		Name:  "branches",
		Usage: "List branches",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.StringFlag{
				Name:  "contains",
				Usage: "Only report whether the named branch exists",
			},
			&cli.StringFlag{
				Name:  "prefix",
				Usage: "Only list branches whose name starts with the prefix",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			kind, err := branchKind(cmd)
			if err != nil {
				return err
			}
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			if cmd.IsSet("contains") {
				name := cmd.String("contains")
				branch, ok, err := repo.Branch(name)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", errBranchNotFound, name)
				}
				a.printf("%s %s\n", branch, branch.Hash)
				return nil
			}
			return a.printBranches(repo, kind, cmd.String("prefix"))
		},
	}
}

func (a *app) printBranches(repo *git.Repository, kind git.BranchKind, prefix string) error {
	it, err := repo.Branches(kind)
	if err != nil {
		return err
	}
	defer it.Close()
	for branch, err := range it.Seq() {
		if err != nil {
			return err
		}
		if strings.HasPrefix(branch.Name, prefix) {
			a.printf("%s\n", branch)
		}
	}
	return it.Close()
}

func (a *app) logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Show commit summaries, newest first",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Start from this revision instead of HEAD",
			},
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of commits (GITKID_LIMIT)",
			},
			&cli.StringFlag{
				Name:  "grep",
				Usage: "Only show commits whose hash, author or message contains the text",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			limit := a.cfg.Limit
			if cmd.IsSet("limit") {
				limit = int(cmd.Int("limit"))
			}
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			commits, err := repo.Search(cmd.String("from"), cmd.String("grep"), limit)
			if err != nil {
				return err
			}
			labels, err := repo.BranchLabels()
			if err != nil {
				return err
			}
			for _, c := range commits {
				line := c.Summary()
				if l := labels[c.Hash]; len(l) > 0 {
					line += " (" + strings.Join(l, ", ") + ")"
				}
				a.printf("%s\n", line)
			}
			return nil
		},
	}
}

func (a *app) showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a commit and its diff",
		ArgsUsage: "<revision>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colours even on a terminal",
			},
			&cli.StringFlag{
				Name:  "style",
				Usage: "Chroma style for syntax highlighting (GITKID_STYLE)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return errRevisionRequired
			}
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			defer repo.Close()

			text, sections, err := repo.Show(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			slog.Debug("show", slog.Int("files", len(sections)))

			if cmd.Bool("no-color") || !highlight.Enabled(a.stdout) {
				a.printf("%s", text)
				return nil
			}
			style := a.cfg.Style
			if cmd.IsSet("style") {
				style = cmd.String("style")
			}
			a.mu.Lock()
			defer a.mu.Unlock()
			return highlight.New(style).Diff(a.stdout, text)
		},
	}
}

func (a *app) reposCommand() *cli.Command {
	return &cli.Command{
		Name:      "repos",
		Usage:     "List the repositories kept in the directories of a root",
		ArgsUsage: "<root>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return errRootRequired
			}
			catalog, err := git.OpenCatalog(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			it, err := catalog.Repositories()
			if err != nil {
				return err
			}
			defer it.Close()
			for entry, err := range it.Seq() {
				if err != nil {
					return err
				}
				kind := "worktree"
				if entry.Bare {
					kind = "bare"
				}
				a.printf("%s\t%s\t%s\n", entry.Name, kind, entry.Path)
			}
			return it.Close()
		},
	}
}

func (a *app) watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print the branch list again whenever references change",
		Flags: []cli.Flag{
			kindFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			kind, err := branchKind(cmd)
			if err != nil {
				return err
			}
			repo, err := a.openRepository()
			if err != nil {
				return err
			}
			// mu keeps a late callback from using repo after it is closed.
			var mu sync.Mutex
			defer func() {
				mu.Lock()
				defer mu.Unlock()
				repo.Close()
			}()

			if err := a.printBranches(repo, kind, ""); err != nil {
				return err
			}
			w, err := watch.New(repo.Path(), watch.DefaultDelay, func() {
				mu.Lock()
				defer mu.Unlock()
				a.printf("\n")
				if err := a.printBranches(repo, kind, ""); err != nil {
					slog.Error("list branches", slog.Any("error", err))
				}
			})
			if err != nil {
				return err
			}
			slog.Info("watching repository", slog.String("path", repo.Path()))
			return w.Run(ctx)
		},
	}
}
