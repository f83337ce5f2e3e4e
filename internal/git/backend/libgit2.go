//go:build libgit2

package backend

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	git "github.com/libgit2/git2go/v31"

	"github.com/thiagokokada/gitkid/internal/native"
)

type libgit2Repo struct {
	path string
	repo *git.Repository
}

// libgit2Branch is the raw branch value of the libgit2 backend. It is only
// valid until the cursor that produced it moves.
type libgit2Branch struct {
	branch *git.Branch
	typ    git.BranchType
}

func openLibgit2(repoPath string) (Repo, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	repo, err := git.OpenRepositoryExtended(abs, 0, "")
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", native.Failed(native.OpOpen, libgit2Code(err), err))
	}
	root := repo.Workdir()
	if root == "" {
		root = repo.Path()
	}
	return &libgit2Repo{path: strings.TrimSuffix(root, "/"), repo: repo}, nil
}

func libgit2Code(err error) int {
	var gitErr *git.GitError
	if errors.As(err, &gitErr) {
		return int(gitErr.Code)
	}
	return native.CodeUnknown
}

func isIterOver(err error) bool {
	return git.IsErrorCode(err, git.ErrIterOver)
}

func (l *libgit2Repo) Path() string { return l.path }

func (l *libgit2Repo) Close() error {
	if l.repo != nil {
		l.repo.Free()
		l.repo = nil
	}
	return nil
}

func (l *libgit2Repo) Branches(kind BranchKind) (native.Cursor, error) {
	var typ git.BranchType
	switch kind {
	case BranchLocal:
		typ = git.BranchLocal
	case BranchRemote:
		typ = git.BranchRemote
	case BranchAll:
		typ = git.BranchAll
	default:
		return nil, fmt.Errorf("unknown branch kind %d", kind)
	}
	return &libgit2BranchCursor{repo: l.repo, typ: typ}, nil
}

func (l *libgit2Repo) DecodeBranch(raw native.Raw) (Ref, error) {
	b, ok := raw.(libgit2Branch)
	if !ok || b.branch == nil {
		return Ref{}, unexpectedRaw("libgit2 branch", raw)
	}
	name, err := b.branch.Name()
	if err != nil {
		return Ref{}, native.Failed(native.OpCurrent, libgit2Code(err), err)
	}
	isHead, err := b.branch.IsHead()
	if err != nil {
		return Ref{}, native.Failed(native.OpCurrent, libgit2Code(err), err)
	}
	ref := Ref{Name: name, Kind: RefKindBranch, IsHead: isHead}
	if b.typ == git.BranchRemote {
		ref.Kind = RefKindRemoteBranch
	}
	if target := b.branch.Target(); target != nil {
		ref.Hash = target.String()
	}
	return ref, nil
}

func (l *libgit2Repo) Commits(from string) (native.Cursor, error) {
	from = strings.TrimSpace(from)
	c := &libgit2CommitCursor{repo: l.repo}
	if from != "" {
		hash, err := l.ResolveCommit(from)
		if err != nil {
			return nil, err
		}
		oid, err := git.NewOid(hash)
		if err != nil {
			return nil, err
		}
		c.from = oid
	}
	return c, nil
}

func (l *libgit2Repo) DecodeCommit(raw native.Raw) (*Commit, error) {
	oid, ok := raw.(*git.Oid)
	if !ok || oid == nil {
		return nil, unexpectedRaw("*git.Oid", raw)
	}
	commit, err := l.repo.LookupCommit(oid)
	if err != nil {
		return nil, native.Failed(native.OpCurrent, libgit2Code(err), err)
	}
	defer commit.Free()

	parents := make([]string, 0, commit.ParentCount())
	for i := uint(0); i < commit.ParentCount(); i++ {
		parents = append(parents, commit.ParentId(i).String())
	}
	author := commit.Author()
	committer := commit.Committer()
	return &Commit{
		Hash:         commit.Id().String(),
		ParentHashes: parents,
		Author:       Signature{Name: author.Name, Email: author.Email, When: author.When},
		Committer:    Signature{Name: committer.Name, Email: committer.Email, When: committer.When},
		Message:      commit.Message(),
	}, nil
}

func (l *libgit2Repo) LookupCommit(hash string) (*Commit, error) {
	oid, err := git.NewOid(strings.TrimSpace(hash))
	if err != nil {
		return nil, fmt.Errorf("lookup commit %s: %w", hash, err)
	}
	return l.DecodeCommit(oid)
}

func (l *libgit2Repo) HeadState() (hash string, headName string, ok bool, err error) {
	unborn, err := l.repo.IsHeadUnborn()
	if err != nil {
		return "", "", false, err
	}
	if unborn {
		return "", "", false, nil
	}
	head, err := l.repo.Head()
	if err != nil {
		return "", "", false, fmt.Errorf("resolve HEAD: %w", err)
	}
	defer head.Free()
	detached, err := l.repo.IsHeadDetached()
	if err != nil {
		return "", "", false, err
	}
	headName = "HEAD"
	if !detached {
		headName = head.Shorthand()
	}
	return head.Target().String(), headName, true, nil
}

func (l *libgit2Repo) ResolveCommit(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("revision not specified")
	}
	obj, err := l.repo.RevparseSingle(rev)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}
	defer obj.Free()
	peeled, err := obj.Peel(git.ObjectCommit)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", rev, err)
	}
	defer peeled.Free()
	return peeled.Id().String(), nil
}

func (l *libgit2Repo) lookupTree(hash string) (*git.Tree, error) {
	oid, err := git.NewOid(hash)
	if err != nil {
		return nil, err
	}
	commit, err := l.repo.LookupCommit(oid)
	if err != nil {
		return nil, fmt.Errorf("read commit %s: %w", hash, err)
	}
	defer commit.Free()
	return commit.Tree()
}

func (l *libgit2Repo) CommitDiffText(commitHash string, parentHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	parentHash = strings.TrimSpace(parentHash)
	if commitHash == "" {
		return "", fmt.Errorf("commit not specified")
	}
	oid, err := git.NewOid(commitHash)
	if err != nil {
		return "", err
	}
	commit, err := l.repo.LookupCommit(oid)
	if err != nil {
		return "", fmt.Errorf("read commit %s: %w", commitHash, err)
	}
	defer commit.Free()
	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("read tree: %w", err)
	}
	defer tree.Free()

	// A nil old tree diffs against the empty tree, which is what root commits need.
	var parentTree *git.Tree
	switch {
	case parentHash != "":
		if parentTree, err = l.lookupTree(parentHash); err != nil {
			return "", err
		}
	case commit.ParentCount() > 0:
		if parentTree, err = l.lookupTree(commit.ParentId(0).String()); err != nil {
			return "", err
		}
	}
	if parentTree != nil {
		defer parentTree.Free()
	}

	opts, err := git.DefaultDiffOptions()
	if err != nil {
		return "", err
	}
	diff, err := l.repo.DiffTreeToTree(parentTree, tree, &opts)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	defer func() { _ = diff.Free() }()
	buf, err := diff.ToBuf(git.DiffFormatPatch)
	if err != nil {
		return "", fmt.Errorf("diff: %w", err)
	}
	return string(buf), nil
}

// libgit2BranchCursor wraps a git_branch_iterator. libgit2 iterators cannot
// rewind, so Reset frees the iterator and creates a new one.
type libgit2BranchCursor struct {
	repo     *git.Repository
	typ      git.BranchType
	iter     *git.BranchIterator
	cur      *git.Branch
	curType  git.BranchType
	released bool
}

func (c *libgit2BranchCursor) freeCurrent() {
	if c.cur != nil {
		c.cur.Free()
		c.cur = nil
	}
}

func (c *libgit2BranchCursor) step() error {
	for {
		b, typ, err := c.iter.Next()
		if err != nil {
			c.freeCurrent()
			if isIterOver(err) {
				return nil
			}
			return err
		}
		// Symbolic branches such as origin/HEAD have no target of their own.
		if b.Type() == git.ReferenceSymbolic {
			b.Free()
			continue
		}
		c.freeCurrent()
		c.cur, c.curType = b, typ
		return nil
	}
}

func (c *libgit2BranchCursor) Reset() error {
	if c.released {
		return native.Failed(native.OpReset, native.CodeUnknown, errCursorReleased)
	}
	c.freeCurrent()
	if c.iter != nil {
		c.iter.Free()
		c.iter = nil
	}
	iter, err := c.repo.NewBranchIterator(c.typ)
	if err != nil {
		return native.Failed(native.OpReset, libgit2Code(err), err)
	}
	c.iter = iter
	if err := c.step(); err != nil {
		return native.Failed(native.OpReset, libgit2Code(err), err)
	}
	return nil
}

func (c *libgit2BranchCursor) Advance() (bool, error) {
	if c.released {
		return false, native.Failed(native.OpAdvance, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return false, nil
	}
	if err := c.step(); err != nil {
		return false, native.Failed(native.OpAdvance, libgit2Code(err), err)
	}
	return c.cur != nil, nil
}

func (c *libgit2BranchCursor) Current() (native.Raw, error) {
	if c.released {
		return nil, native.Failed(native.OpCurrent, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return nil, nil
	}
	return libgit2Branch{branch: c.cur, typ: c.curType}, nil
}

func (c *libgit2BranchCursor) Release() error {
	if c.released {
		return native.Failed(native.OpRelease, native.CodeUnknown, errCursorReleased)
	}
	c.released = true
	c.freeCurrent()
	if c.iter != nil {
		c.iter.Free()
		c.iter = nil
	}
	return nil
}

// libgit2CommitCursor wraps a git_revwalk, which supports rewinding through
// git_revwalk_reset. A reset walker forgets its roots and sorting, so both are
// set again on every Reset.
type libgit2CommitCursor struct {
	repo     *git.Repository
	from     *git.Oid
	walk     *git.RevWalk
	cur      *git.Oid
	empty    bool
	released bool
}

func (c *libgit2CommitCursor) step() error {
	if c.empty {
		c.cur = nil
		return nil
	}
	var oid git.Oid
	if err := c.walk.Next(&oid); err != nil {
		c.cur = nil
		if isIterOver(err) {
			return nil
		}
		return err
	}
	c.cur = &oid
	return nil
}

func (c *libgit2CommitCursor) Reset() error {
	if c.released {
		return native.Failed(native.OpReset, native.CodeUnknown, errCursorReleased)
	}
	if c.walk == nil {
		walk, err := c.repo.Walk()
		if err != nil {
			return native.Failed(native.OpReset, libgit2Code(err), err)
		}
		c.walk = walk
	} else {
		c.walk.Reset()
	}
	c.walk.Sorting(git.SortTime)
	c.empty = false
	var err error
	if c.from != nil {
		err = c.walk.Push(c.from)
	} else {
		var unborn bool
		if unborn, err = c.repo.IsHeadUnborn(); err == nil {
			if unborn {
				c.empty = true
			} else {
				err = c.walk.PushHead()
			}
		}
	}
	if err != nil {
		return native.Failed(native.OpReset, libgit2Code(err), err)
	}
	if err := c.step(); err != nil {
		return native.Failed(native.OpReset, libgit2Code(err), err)
	}
	return nil
}

func (c *libgit2CommitCursor) Advance() (bool, error) {
	if c.released {
		return false, native.Failed(native.OpAdvance, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return false, nil
	}
	if err := c.step(); err != nil {
		return false, native.Failed(native.OpAdvance, libgit2Code(err), err)
	}
	return c.cur != nil, nil
}

func (c *libgit2CommitCursor) Current() (native.Raw, error) {
	if c.released {
		return nil, native.Failed(native.OpCurrent, native.CodeUnknown, errCursorReleased)
	}
	if c.cur == nil {
		return nil, nil
	}
	return c.cur, nil
}

func (c *libgit2CommitCursor) Release() error {
	if c.released {
		return native.Failed(native.OpRelease, native.CodeUnknown, errCursorReleased)
	}
	c.released = true
	c.cur = nil
	if c.walk != nil {
		c.walk.Free()
		c.walk = nil
	}
	return nil
}
