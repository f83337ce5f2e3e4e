package git

import (
	"errors"
	"fmt"

	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/native"
	"github.com/thiagokokada/gitkid/internal/native/nativetest"
)

// fakeRepo serves branches and commits from nativetest cursors so tests can
// inspect native calls and inject failures.
type fakeRepo struct {
	refs    []gitbackend.Ref
	commits []*gitbackend.Commit

	branchesFunc       func(kind gitbackend.BranchKind) (native.Cursor, error)
	headStateFunc      func() (hash string, headName string, ok bool, err error)
	commitDiffTextFunc func(commitHash string, parentHash string) (string, error)

	cursors []*nativetest.Cursor
	closed  bool
}

func (f *fakeRepo) Path() string { return "fake" }

func (f *fakeRepo) Branches(kind gitbackend.BranchKind) (native.Cursor, error) {
	if f.branchesFunc != nil {
		return f.branchesFunc(kind)
	}
	var items []native.Raw
	for _, ref := range f.refs {
		switch {
		case kind == gitbackend.BranchLocal && ref.Kind != gitbackend.RefKindBranch,
			kind == gitbackend.BranchRemote && ref.Kind != gitbackend.RefKindRemoteBranch:
			continue
		}
		items = append(items, ref)
	}
	c := nativetest.New(items...)
	f.cursors = append(f.cursors, c)
	return c, nil
}

func (f *fakeRepo) Commits(from string) (native.Cursor, error) {
	var items []native.Raw
	started := from == ""
	for _, c := range f.commits {
		if !started && c.Hash == from {
			started = true
		}
		if started {
			items = append(items, c)
		}
	}
	c := nativetest.New(items...)
	f.cursors = append(f.cursors, c)
	return c, nil
}

func (f *fakeRepo) DecodeBranch(raw native.Raw) (gitbackend.Ref, error) {
	ref, ok := raw.(gitbackend.Ref)
	if !ok {
		return gitbackend.Ref{}, fmt.Errorf("unexpected raw %T", raw)
	}
	return ref, nil
}

func (f *fakeRepo) DecodeCommit(raw native.Raw) (*gitbackend.Commit, error) {
	c, ok := raw.(*gitbackend.Commit)
	if !ok {
		return nil, fmt.Errorf("unexpected raw %T", raw)
	}
	return c, nil
}

func (f *fakeRepo) LookupCommit(hash string) (*gitbackend.Commit, error) {
	for _, c := range f.commits {
		if c.Hash == hash {
			return c, nil
		}
	}
	return nil, fmt.Errorf("commit %s not found", hash)
}

func (f *fakeRepo) HeadState() (hash string, headName string, ok bool, err error) {
	if f.headStateFunc != nil {
		return f.headStateFunc()
	}
	return "", "", false, nil
}

func (f *fakeRepo) ResolveCommit(rev string) (string, error) {
	for _, c := range f.commits {
		if c.Hash == rev {
			return c.Hash, nil
		}
	}
	return "", errors.New("unknown revision")
}

func (f *fakeRepo) CommitDiffText(commitHash string, parentHash string) (string, error) {
	if f.commitDiffTextFunc != nil {
		return f.commitDiffTextFunc(commitHash, parentHash)
	}
	return "", errors.New("unexpected CommitDiffText call")
}

func (f *fakeRepo) Close() error {
	f.closed = true
	return nil
}

// releases returns how often each handed out cursor was released.
func (f *fakeRepo) releases() []int32 {
	out := make([]int32, len(f.cursors))
	for i, c := range f.cursors {
		out[i] = c.Releases.Load()
	}
	return out
}
