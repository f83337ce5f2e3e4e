// Package watch reports changes to a repository's references.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitkid/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher calls a function, debounced, whenever HEAD or a reference of the
// repository changes.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce *debounce.Debouncer
	paths    []string
}

// New watches the repository at root. onChange runs on its own goroutine once
// changes stop arriving for delay.
func New(root string, delay time.Duration, onChange func()) (*Watcher, error) {
	paths, err := watchPaths(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	for _, path := range paths {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := fsw.Add(path); err != nil {
			err := errors.Join(err, fsw.Close())
			return nil, fmt.Errorf("watch %s: %w", path, err)
		}
	}
	return &Watcher{
		fsw:      fsw,
		debounce: debounce.New(delay, onChange),
		paths:    paths,
	}, nil
}

// Paths returns the directories being watched.
func (w *Watcher) Paths() []string {
	return slices.Clone(w.paths)
}

// Run dispatches file system events until ctx is done, then closes the
// watcher. A pending onChange call is dropped.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.debounce.Stop()
	defer func() {
		if err := w.fsw.Close(); err != nil {
			slog.Error("watcher close", slog.Any("error", err))
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnoreWatchPath(ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			if ev.Op.Has(fsnotify.Create) {
				w.addIfDir(ev.Name)
			}
			w.debounce.Trigger()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// addIfDir follows reference directories created after the watch started,
// e.g. refs/heads/feature for a new feature/x branch.
func (w *Watcher) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		slog.Debug("watch new directory", slog.String("path", path), slog.Any("error", err))
		return
	}
	w.paths = append(w.paths, path)
}

// watchPaths returns the git directory and every directory below its refs.
// fsnotify does not recurse, so each one is watched separately.
func watchPaths(root string) ([]string, error) {
	if root == "" {
		return nil, errors.New("repository root not set")
	}
	gitDir := filepath.Join(root, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		gitDir = root
	}
	paths := []string{gitDir}
	refs := filepath.Join(gitDir, "refs")
	err := filepath.WalkDir(refs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("scan %s: %w", refs, err)
	}
	return paths, nil
}

func shouldIgnoreWatchPath(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".lock" || ext == ".ipc"
}
