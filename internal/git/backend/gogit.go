package backend

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/thiagokokada/gitkid/internal/native"
)

type goGit struct {
	path string
	repo *gitlib.Repository
}

// goGitRef is the raw branch value of the go-git backend.
type goGitRef struct {
	ref  *plumbing.Reference
	head plumbing.ReferenceName
}

func OpenGoGit(repoPath string) (Repo, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := gitlib.PlainOpenWithOptions(abs, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", native.Failed(native.OpOpen, native.CodeUnknown, err))
	}
	return &goGit{path: abs, repo: repo}, nil
}

// NewGoGit wraps an already opened go-git repository, e.g. one backed by
// in-memory storage.
func NewGoGit(repo *gitlib.Repository, path string) Repo {
	return &goGit{path: path, repo: repo}
}

func (g *goGit) Path() string { return g.path }

func (g *goGit) Close() error { return nil }

func (g *goGit) headName() plumbing.ReferenceName {
	head, err := g.repo.Storer.Reference(plumbing.HEAD)
	if err != nil || head.Type() != plumbing.SymbolicReference {
		return ""
	}
	return head.Target()
}

// Branches snapshots the matching references sorted by name. go-git storages
// do not guarantee a stable iteration order, so the snapshot is what keeps
// restarted traversals identical.
func (g *goGit) Branches(kind BranchKind) (native.Cursor, error) {
	if kind > BranchAll {
		return nil, fmt.Errorf("unknown branch kind %d", kind)
	}
	return NewSnapshotCursor(func() ([]goGitRef, error) {
		refs, err := g.repo.References()
		if err != nil {
			return nil, err
		}
		defer refs.Close()
		head := g.headName()
		var out []goGitRef
		err = refs.ForEach(func(ref *plumbing.Reference) error {
			if ref.Type() != plumbing.HashReference {
				return nil
			}
			if !kind.includes(refKind(ref.Name())) {
				return nil
			}
			out = append(out, goGitRef{ref: ref, head: head})
			return nil
		})
		if err != nil {
			return nil, err
		}
		slices.SortFunc(out, func(a, b goGitRef) int {
			return strings.Compare(a.ref.Name().String(), b.ref.Name().String())
		})
		return out, nil
	}, nil), nil
}

func refKind(name plumbing.ReferenceName) RefKind {
	switch {
	case name.IsBranch():
		return RefKindBranch
	case name.IsRemote():
		return RefKindRemoteBranch
	case name.IsTag():
		return RefKindTag
	default:
		return RefKind(0xff)
	}
}

func (g *goGit) DecodeBranch(raw native.Raw) (Ref, error) {
	r, ok := raw.(goGitRef)
	if !ok || r.ref == nil {
		return Ref{}, unexpectedRaw("go-git reference", raw)
	}
	name := r.ref.Name()
	return Ref{
		Hash:   r.ref.Hash().String(),
		Kind:   refKind(name),
		Name:   name.Short(),
		IsHead: r.head != "" && name == r.head,
	}, nil
}

func (g *goGit) Commits(from string) (native.Cursor, error) {
	from = strings.TrimSpace(from)
	return &goGitCommitCursor{open: func() (object.CommitIter, error) {
		var start plumbing.Hash
		if from == "" {
			ref, err := g.repo.Head()
			if err != nil {
				if errors.Is(err, plumbing.ErrReferenceNotFound) {
					return nil, nil
				}
				return nil, fmt.Errorf("resolve HEAD: %w", err)
			}
			start = ref.Hash()
		} else {
			hash, err := g.repo.ResolveRevision(plumbing.Revision(from))
			if err != nil {
				return nil, fmt.Errorf("resolve %s: %w", from, err)
			}
			start = *hash
		}
		return g.repo.Log(&gitlib.LogOptions{From: start, Order: gitlib.LogOrderCommitterTime})
	}}, nil
}

func (g *goGit) DecodeCommit(raw native.Raw) (*Commit, error) {
	c, ok := raw.(*object.Commit)
	if !ok || c == nil {
		return nil, unexpectedRaw("*object.Commit", raw)
	}
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return &Commit{
		Hash:         c.Hash.String(),
		ParentHashes: parents,
		Author:       Signature{Name: c.Author.Name, Email: c.Author.Email, When: c.Author.When},
		Committer:    Signature{Name: c.Committer.Name, Email: c.Committer.Email, When: c.Committer.When},
		Message:      c.Message,
	}, nil
}

func (g *goGit) LookupCommit(hash string) (*Commit, error) {
	c, err := g.repo.CommitObject(plumbing.NewHash(strings.TrimSpace(hash)))
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	return g.DecodeCommit(c)
}

func (g *goGit) HeadState() (hash string, headName string, ok bool, err error) {
	ref, err := g.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	headName = "HEAD"
	if ref.Name().IsBranch() {
		headName = ref.Name().Short()
	}
	return ref.Hash().String(), headName, true, nil
}

func (g *goGit) ResolveCommit(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("revision not specified")
	}
	hash, err := g.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}
	if _, err := g.repo.CommitObject(*hash); err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}
	return hash.String(), nil
}

func (g *goGit) CommitDiffText(commitHash string, parentHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	parentHash = strings.TrimSpace(parentHash)
	if commitHash == "" {
		return "", fmt.Errorf("commit not specified")
	}
	commit, err := g.repo.CommitObject(plumbing.NewHash(commitHash))
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", commitHash, err)
	}
	toTree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("read tree: %w", err)
	}
	// Root commits are compared against the empty tree.
	fromTree := &object.Tree{}
	switch {
	case parentHash != "":
		parent, err := g.repo.CommitObject(plumbing.NewHash(parentHash))
		if err != nil {
			return "", fmt.Errorf("read commit %s: %w", parentHash, err)
		}
		if fromTree, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("read tree: %w", err)
		}
	case commit.NumParents() > 0:
		parent, err := commit.Parent(0)
		if err != nil {
			return "", fmt.Errorf("read parent: %w", err)
		}
		if fromTree, err = parent.Tree(); err != nil {
			return "", fmt.Errorf("read tree: %w", err)
		}
	}
	patch, err := fromTree.Patch(toTree)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	return patch.String(), nil
}

// goGitCommitCursor streams commits from a go-git log iterator. Reset reopens
// the iterator and reads ahead one commit so the cursor sits on the first
// element.
type goGitCommitCursor struct {
	open     func() (object.CommitIter, error)
	iter     object.CommitIter
	cur      *object.Commit
	released bool
}

func (c *goGitCommitCursor) closeIter() {
	if c.iter != nil {
		c.iter.Close()
	}
	c.iter = nil
	c.cur = nil
}

func (c *goGitCommitCursor) step() error {
	if c.iter == nil {
		c.cur = nil
		return nil
	}
	commit, err := c.iter.Next()
	if err != nil {
		c.cur = nil
		if err == io.EOF {
			return nil
		}
		return err
	}
	c.cur = commit
	return nil
}

func (c *goGitCommitCursor) Reset() error {
	if c.released {
		return native.Failed(native.OpReset, native.CodeUnknown, errCursorReleased)
	}
	c.closeIter()
	iter, err := c.open()
	if err != nil {
		return native.Failed(native.OpReset, native.CodeUnknown, err)
	}
	c.iter = iter
	if err := c.step(); err != nil {
		return native.Failed(native.OpReset, native.CodeUnknown, err)
	}
	return nil
}

func (c *goGitCommitCursor) Advance() (bool, error) {
	if c.released {
		return false, native.Failed(native.OpAdvance, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return false, nil
	}
	if err := c.step(); err != nil {
		return false, native.Failed(native.OpAdvance, native.CodeUnknown, err)
	}
	return c.cur != nil, nil
}

func (c *goGitCommitCursor) Current() (native.Raw, error) {
	if c.released {
		return nil, native.Failed(native.OpCurrent, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return nil, nil
	}
	return c.cur, nil
}

func (c *goGitCommitCursor) Release() error {
	if c.released {
		return native.Failed(native.OpRelease, native.CodeUnknown, errCursorReleased)
	}
	c.released = true
	c.closeIter()
	return nil
}
