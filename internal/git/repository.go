// Package git is the repository model used by the commands: branches and
// commits exposed as restartable cursors, plus the queries built on them.
package git

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
)

// DefaultBatch is the number of commits Log returns when no limit is given.
const DefaultBatch = 1000

// Repository is an open repository. Iterators obtained from it must be closed
// before the Repository is.
type Repository struct {
	backend gitbackend.Repo
}

// Open opens the repository containing path with the given backend.
func Open(path string, kind gitbackend.Kind) (*Repository, error) {
	b, err := gitbackend.Open(kind, path)
	if err != nil {
		return nil, err
	}
	return NewRepository(b), nil
}

// NewRepository wraps an already opened backend.
func NewRepository(b gitbackend.Repo) *Repository {
	return &Repository{backend: b}
}

func (r *Repository) Path() string {
	return r.backend.Path()
}

func (r *Repository) Close() error {
	if r == nil || r.backend == nil {
		return nil
	}
	err := r.backend.Close()
	r.backend = nil
	return err
}

func (r *Repository) repo() (gitbackend.Repo, error) {
	if r == nil || r.backend == nil {
		return nil, errors.New("repository closed")
	}
	return r.backend, nil
}

// Head returns the commit HEAD points at and the short name of the checked
// out branch ("HEAD" when detached). ok is false for an unborn HEAD.
func (r *Repository) Head() (hash string, name string, ok bool, err error) {
	b, err := r.repo()
	if err != nil {
		return "", "", false, err
	}
	hash, name, ok, err = b.HeadState()
	if err != nil {
		return "", "", false, err
	}
	if ok && strings.TrimSpace(name) == "" {
		name = "HEAD"
	}
	return hash, name, ok, nil
}

// Resolve returns the full hash of the commit rev names.
func (r *Repository) Resolve(rev string) (string, error) {
	b, err := r.repo()
	if err != nil {
		return "", err
	}
	hash, err := b.ResolveCommit(rev)
	if err != nil {
		slog.Debug("resolve revision", slog.String("rev", rev), slog.Any("error", err))
		return "", fmt.Errorf("unknown revision %q: %w", rev, err)
	}
	return hash, nil
}
