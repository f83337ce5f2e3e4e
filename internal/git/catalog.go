package git

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/thiagokokada/gitkid/internal/cursor"
	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/native"
)

// RepoEntry is a repository found directly below a catalog root.
type RepoEntry struct {
	Name string
	Path string
	Bare bool
}

// Catalog lists the repositories kept in the directories of one root.
type Catalog struct {
	fs billy.Filesystem
}

// NewCatalog returns a catalog over fs. Entry paths are joined to fs.Root().
func NewCatalog(fs billy.Filesystem) *Catalog {
	return &Catalog{fs: fs}
}

// OpenCatalog returns a catalog over the directory root on the local disk.
func OpenCatalog(root string) (*Catalog, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := osfs.Default.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open catalog: %s is not a directory", abs)
	}
	return NewCatalog(osfs.New(abs)), nil
}

// Repositories returns an iterator over the repositories below the root, in
// name order. The directory is read again on every restart. The caller must
// Close it.
func (c *Catalog) Repositories() (*cursor.Iterator[RepoEntry], error) {
	cur := gitbackend.NewSnapshotCursor(c.scan, nil)
	return cursor.New(cur, decodeRepoEntry, cursor.WithName("repositories"))
}

// Open opens the repository of entry.
func (c *Catalog) Open(entry RepoEntry, kind gitbackend.Kind) (*Repository, error) {
	return Open(entry.Path, kind)
}

func decodeRepoEntry(raw native.Raw) (RepoEntry, error) {
	e, ok := raw.(RepoEntry)
	if !ok {
		return RepoEntry{}, fmt.Errorf("unexpected raw value %T, want RepoEntry", raw)
	}
	return e, nil
}

func (c *Catalog) scan() ([]RepoEntry, error) {
	infos, err := c.fs.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var entries []RepoEntry
	for _, info := range infos {
		if !info.IsDir() || strings.HasPrefix(info.Name(), ".") {
			continue
		}
		name := info.Name()
		bare, ok, err := c.detect(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, RepoEntry{
			Name: name,
			Path: c.fs.Join(c.fs.Root(), name),
			Bare: bare,
		})
	}
	slices.SortFunc(entries, func(a, b RepoEntry) int { return strings.Compare(a.Name, b.Name) })
	return entries, nil
}

// detect reports whether dir holds a repository: either a ".git" entry (a
// directory, or a file for worktrees and submodules) or the HEAD file and
// objects directory of a bare repository.
func (c *Catalog) detect(dir string) (bare bool, ok bool, err error) {
	if _, err := c.fs.Stat(c.fs.Join(dir, ".git")); err == nil {
		return false, true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, false, err
	}
	head, err := c.fs.Stat(c.fs.Join(dir, "HEAD"))
	if err != nil || head.IsDir() {
		return false, false, ignoreNotExist(err)
	}
	objects, err := c.fs.Stat(c.fs.Join(dir, "objects"))
	if err != nil || !objects.IsDir() {
		return false, false, ignoreNotExist(err)
	}
	return true, true, nil
}

func ignoreNotExist(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
