package git

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/gitkid/internal/cursor"
	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/native"
)

type BranchKind = gitbackend.BranchKind

const (
	BranchLocal  = gitbackend.BranchLocal
	BranchRemote = gitbackend.BranchRemote
	BranchAll    = gitbackend.BranchAll
)

// ParseBranchKind parses "local", "remote" or "all"; empty means local.
func ParseBranchKind(s string) (BranchKind, bool) {
	return gitbackend.ParseBranchKind(strings.ToLower(strings.TrimSpace(s)))
}

// Branch is a local or remote-tracking branch. Name is the short name:
// "main" for a local branch, "origin/main" for a remote one.
type Branch struct {
	Name   string
	Hash   string
	Kind   gitbackend.RefKind
	IsHead bool
}

func (b Branch) Remote() bool {
	return b.Kind == gitbackend.RefKindRemoteBranch
}

func (b Branch) String() string {
	if b.IsHead {
		return "* " + b.Name
	}
	return "  " + b.Name
}

func branchFromRef(ref gitbackend.Ref) Branch {
	return Branch{Name: ref.Name, Hash: ref.Hash, Kind: ref.Kind, IsHead: ref.IsHead}
}

func branchDecoder(b gitbackend.Repo) cursor.Decoder[Branch] {
	return func(raw native.Raw) (Branch, error) {
		ref, err := b.DecodeBranch(raw)
		if err != nil {
			return Branch{}, err
		}
		return branchFromRef(ref), nil
	}
}

// Branches returns an iterator over the branches of the given kind, ordered by
// full reference name. The caller must Close it.
func (r *Repository) Branches(kind BranchKind) (*cursor.Iterator[Branch], error) {
	b, err := r.repo()
	if err != nil {
		return nil, err
	}
	c, err := b.Branches(kind)
	if err != nil {
		return nil, fmt.Errorf("list %s branches: %w", kind, err)
	}
	return cursor.New(c, branchDecoder(b), cursor.WithName("branches"))
}

func (r *Repository) useBranches(kind BranchKind, fn func(*cursor.Iterator[Branch]) error) error {
	b, err := r.repo()
	if err != nil {
		return err
	}
	c, err := b.Branches(kind)
	if err != nil {
		return fmt.Errorf("list %s branches: %w", kind, err)
	}
	return cursor.Use(c, branchDecoder(b), fn, cursor.WithName("branches"))
}

// HasBranch reports whether a local or remote branch with the given short name
// exists.
func (r *Repository) HasBranch(name string) (found bool, err error) {
	name = strings.TrimSpace(name)
	err = r.useBranches(BranchAll, func(it *cursor.Iterator[Branch]) error {
		found, err = it.Any(func(b Branch) bool { return b.Name == name })
		return err
	})
	return found, err
}

// Branch looks a branch up by short name. Local branches win over remote ones
// with the same name.
func (r *Repository) Branch(name string) (branch Branch, ok bool, err error) {
	name = strings.TrimSpace(name)
	err = r.useBranches(BranchAll, func(it *cursor.Iterator[Branch]) error {
		branch, ok, err = it.First(func(b Branch) bool { return b.Name == name })
		return err
	})
	return branch, ok, err
}

// BranchNames returns the short names of the branches of the given kind. The
// result is empty, not nil, when there are none.
func (r *Repository) BranchNames(kind BranchKind) (names []string, err error) {
	err = r.useBranches(kind, func(it *cursor.Iterator[Branch]) error {
		names, err = cursor.Map(it, func(b Branch) string { return b.Name })
		return err
	})
	return names, err
}

// AllBranches reports whether every branch of the given kind satisfies pred.
// It is true when there are no branches.
func (r *Repository) AllBranches(kind BranchKind, pred func(Branch) bool) (ok bool, err error) {
	err = r.useBranches(kind, func(it *cursor.Iterator[Branch]) error {
		ok, err = it.All(pred)
		return err
	})
	return ok, err
}
