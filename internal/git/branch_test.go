package git

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitkid/internal/cursor"
	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/git/gittest"
	"github.com/thiagokokada/gitkid/internal/native"
	"github.com/thiagokokada/gitkid/internal/native/nativetest"
)

func newTestRepository(t *testing.T) (*gittest.Repo, *Repository) {
	t.Helper()
	r := gittest.NewMemory(t, 3)
	r.Branch(t, "dev", r.Commits[1])
	r.Branch(t, "feature/x", r.Commits[0])
	r.RemoteBranch(t, "origin", "main", r.Commits[2])
	r.RemoteHead(t, "origin", "main")
	r.Tag(t, "v1.0", r.Commits[0])
	repo := NewRepository(gitbackend.NewGoGit(r.Repository, "memory"))
	t.Cleanup(func() { _ = repo.Close() })
	return r, repo
}

func TestBranchesIterator(t *testing.T) {
	t.Parallel()

	r, repo := newTestRepository(t)
	it, err := repo.Branches(BranchLocal)
	require.NoError(t, err)
	defer it.Close()

	branches, err := it.Collect()
	require.NoError(t, err)
	require.Equal(t, []Branch{
		{Name: "dev", Hash: r.Commits[1], Kind: gitbackend.RefKindBranch},
		{Name: "feature/x", Hash: r.Commits[0], Kind: gitbackend.RefKindBranch},
		{Name: "main", Hash: r.Commits[2], Kind: gitbackend.RefKindBranch, IsHead: true},
	}, branches)

	found, err := it.Any(func(b Branch) bool { return strings.HasPrefix(b.Name, "feat") })
	require.NoError(t, err)
	require.True(t, found)

	all, err := it.All(func(b Branch) bool { return strings.HasPrefix(b.Name, "ma") })
	require.NoError(t, err)
	require.False(t, all)

	first, ok, err := it.First(func(b Branch) bool { return strings.HasPrefix(b.Name, "de") })
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "dev", first.Name)

	names, err := cursor.Map(it, func(b Branch) string { return b.Name })
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "feature/x", "main"}, names)
}

func TestBranchesEmptyRepository(t *testing.T) {
	t.Parallel()

	repo := NewRepository(gitbackend.NewGoGit(gittest.NewMemory(t, 0).Repository, "memory"))

	it, err := repo.Branches(BranchAll)
	require.NoError(t, err)
	defer it.Close()

	ok, err := it.HasNext()
	require.NoError(t, err)
	require.False(t, ok)

	found, err := it.Any(func(Branch) bool { return true })
	require.NoError(t, err)
	require.False(t, found)

	all, err := it.All(func(Branch) bool { return false })
	require.NoError(t, err)
	require.True(t, all)

	_, ok, err = it.First(func(Branch) bool { return true })
	require.NoError(t, err)
	require.False(t, ok)

	names, err := repo.BranchNames(BranchAll)
	require.NoError(t, err)
	require.NotNil(t, names)
	require.Empty(t, names)
}

func TestHasBranch(t *testing.T) {
	t.Parallel()

	_, repo := newTestRepository(t)
	for name, want := range map[string]bool{
		"main":        true,
		"feature/x":   true,
		"origin/main": true,
		"origin/HEAD": false,
		"v1.0":        false,
		"missing":     false,
	} {
		got, err := repo.HasBranch(name)
		require.NoError(t, err)
		require.Equal(t, want, got, name)
	}
}

func TestBranchLookup(t *testing.T) {
	t.Parallel()

	r, repo := newTestRepository(t)

	b, ok, err := repo.Branch("origin/main")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, b.Remote())
	require.Equal(t, r.Commits[2], b.Hash)

	_, ok, err = repo.Branch("nope")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBranchNames(t *testing.T) {
	t.Parallel()

	_, repo := newTestRepository(t)

	local, err := repo.BranchNames(BranchLocal)
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "feature/x", "main"}, local)

	remote, err := repo.BranchNames(BranchRemote)
	require.NoError(t, err)
	require.Equal(t, []string{"origin/main"}, remote)

	all, err := repo.BranchNames(BranchAll)
	require.NoError(t, err)
	require.Equal(t, []string{"dev", "feature/x", "main", "origin/main"}, all)
}

func TestAllBranches(t *testing.T) {
	t.Parallel()

	_, repo := newTestRepository(t)

	ok, err := repo.AllBranches(BranchRemote, func(b Branch) bool { return b.Remote() })
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.AllBranches(BranchAll, func(b Branch) bool { return b.Remote() })
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBranchQueriesReleaseCursors(t *testing.T) {
	t.Parallel()

	fake := &fakeRepo{refs: []gitbackend.Ref{
		{Name: "main", Hash: "1", Kind: gitbackend.RefKindBranch, IsHead: true},
		{Name: "dev", Hash: "2", Kind: gitbackend.RefKindBranch},
	}}
	repo := NewRepository(fake)

	_, err := repo.HasBranch("dev")
	require.NoError(t, err)
	_, _, err = repo.Branch("main")
	require.NoError(t, err)
	_, err = repo.BranchNames(BranchLocal)
	require.NoError(t, err)
	_, err = repo.AllBranches(BranchLocal, func(Branch) bool { return true })
	require.NoError(t, err)

	require.Equal(t, []int32{1, 1, 1, 1}, fake.releases())
}

func TestBranchQueryNativeFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	var c *nativetest.Cursor
	fake := &fakeRepo{branchesFunc: func(gitbackend.BranchKind) (native.Cursor, error) {
		c = nativetest.New(gitbackend.Ref{Name: "main"}, gitbackend.Ref{Name: "dev"})
		c.AdvanceFunc = func(int) error { return native.Failed(native.OpAdvance, 7, boom) }
		return c, nil
	}}
	repo := NewRepository(fake)

	_, err := repo.HasBranch("dev")
	require.ErrorIs(t, err, boom)
	code, ok := native.Code(err)
	require.True(t, ok)
	require.Equal(t, 7, code)
	require.EqualValues(t, 1, c.Releases.Load())
}

func TestBranchesAfterClose(t *testing.T) {
	t.Parallel()

	fake := &fakeRepo{}
	repo := NewRepository(fake)
	require.NoError(t, repo.Close())
	require.True(t, fake.closed)
	require.NoError(t, repo.Close())

	_, err := repo.Branches(BranchAll)
	require.Error(t, err)
}

func TestBranchString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "* main", Branch{Name: "main", IsHead: true}.String())
	require.Equal(t, "  dev", Branch{Name: "dev"}.String())
}
