// Package gittest builds small git repositories for tests with go-git, so
// tests do not depend on a git executable.
package gittest

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
)

// BaseTime is the author time of the first commit; each later commit is one
// minute newer.
var BaseTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// Repo is a test repository and the commits created in it, oldest first.
type Repo struct {
	*gitlib.Repository
	FS      billy.Filesystem
	Commits []string
}

// NewMemory creates an in-memory repository whose HEAD points at main and
// commits count commits on it.
func NewMemory(t testing.TB, count int) *Repo {
	t.Helper()
	fs := memfs.New()
	repo, err := gitlib.Init(memory.NewStorage(), fs)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	return populate(t, repo, fs, count)
}

// NewOnDisk creates a non-bare repository in dir.
func NewOnDisk(t testing.TB, dir string, count int) *Repo {
	t.Helper()
	repo, err := gitlib.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init repository: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	return populate(t, repo, wt.Filesystem, count)
}

func populate(t testing.TB, repo *gitlib.Repository, fs billy.Filesystem, count int) *Repo {
	t.Helper()
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("set HEAD: %v", err)
	}
	r := &Repo{Repository: repo, FS: fs}
	for i := range count {
		r.Commit(t, fmt.Sprintf("file%d.txt", i), fmt.Sprintf("content %d\n", i), fmt.Sprintf("commit %d", i))
	}
	return r
}

// Commit writes name with content and commits it on the current branch.
func (r *Repo) Commit(t testing.TB, name, content, message string) string {
	t.Helper()
	wt, err := r.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}
	f, err := r.FS.Create(name)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	if _, err := f.Write([]byte(content)); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", name, err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("add %s: %v", name, err)
	}
	when := BaseTime.Add(time.Duration(len(r.Commits)) * time.Minute)
	sig := &object.Signature{Name: "Alice", Email: "alice@example.com", When: when}
	hash, err := wt.Commit(message, &gitlib.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	r.Commits = append(r.Commits, hash.String())
	return hash.String()
}

// Branch creates a local branch pointing at hash.
func (r *Repo) Branch(t testing.TB, name, hash string) {
	t.Helper()
	r.setRef(t, plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(hash)))
}

// RemoteBranch creates refs/remotes/<remote>/<name> pointing at hash.
func (r *Repo) RemoteBranch(t testing.TB, remote, name, hash string) {
	t.Helper()
	r.setRef(t, plumbing.NewHashReference(plumbing.NewRemoteReferenceName(remote, name), plumbing.NewHash(hash)))
}

// RemoteHead creates the symbolic refs/remotes/<remote>/HEAD.
func (r *Repo) RemoteHead(t testing.TB, remote, target string) {
	t.Helper()
	r.setRef(t, plumbing.NewSymbolicReference(
		plumbing.NewRemoteHEADReferenceName(remote),
		plumbing.NewRemoteReferenceName(remote, target),
	))
}

// Tag creates a lightweight tag.
func (r *Repo) Tag(t testing.TB, name, hash string) {
	t.Helper()
	r.setRef(t, plumbing.NewHashReference(plumbing.NewTagReferenceName(name), plumbing.NewHash(hash)))
}

func (r *Repo) setRef(t testing.TB, ref *plumbing.Reference) {
	t.Helper()
	if err := r.Storer.SetReference(ref); err != nil {
		t.Fatalf("set reference %s: %v", ref.Name(), err)
	}
}
