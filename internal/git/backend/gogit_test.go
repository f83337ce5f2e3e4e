package backend_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/git/gittest"
	"github.com/thiagokokada/gitkid/internal/native"
)

func branchRefs(t *testing.T, repo backend.Repo, kind backend.BranchKind) []backend.Ref {
	t.Helper()
	c, err := repo.Branches(kind)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Release()) }()

	require.NoError(t, c.Reset())
	var refs []backend.Ref
	raw, err := c.Current()
	require.NoError(t, err)
	for raw != nil {
		ref, err := repo.DecodeBranch(raw)
		require.NoError(t, err)
		refs = append(refs, ref)
		ok, err := c.Advance()
		require.NoError(t, err)
		if !ok {
			break
		}
		raw, err = c.Current()
		require.NoError(t, err)
	}
	return refs
}

func commitHashes(t *testing.T, repo backend.Repo, from string) []string {
	t.Helper()
	c, err := repo.Commits(from)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Release()) }()

	require.NoError(t, c.Reset())
	var hashes []string
	for {
		raw, err := c.Current()
		require.NoError(t, err)
		if raw == nil {
			return hashes
		}
		commit, err := repo.DecodeCommit(raw)
		require.NoError(t, err)
		hashes = append(hashes, commit.Hash)
		_, err = c.Advance()
		require.NoError(t, err)
	}
}

func newFixture(t *testing.T) (*gittest.Repo, backend.Repo) {
	t.Helper()
	r := gittest.NewMemory(t, 3)
	r.Branch(t, "dev", r.Commits[1])
	r.Branch(t, "feature/x", r.Commits[0])
	r.RemoteBranch(t, "origin", "main", r.Commits[2])
	r.RemoteHead(t, "origin", "main")
	r.Tag(t, "v1.0", r.Commits[0])
	return r, backend.NewGoGit(r.Repository, "memory")
}

func TestGoGitBranches(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)

	local := branchRefs(t, repo, backend.BranchLocal)
	require.Equal(t, []backend.Ref{
		{Hash: r.Commits[1], Kind: backend.RefKindBranch, Name: "dev"},
		{Hash: r.Commits[0], Kind: backend.RefKindBranch, Name: "feature/x"},
		{Hash: r.Commits[2], Kind: backend.RefKindBranch, Name: "main", IsHead: true},
	}, local)

	remote := branchRefs(t, repo, backend.BranchRemote)
	require.Equal(t, []backend.Ref{
		{Hash: r.Commits[2], Kind: backend.RefKindRemoteBranch, Name: "origin/main"},
	}, remote)

	all := branchRefs(t, repo, backend.BranchAll)
	require.Len(t, all, 4)
}

func TestGoGitBranchesEmptyRepository(t *testing.T) {
	t.Parallel()

	r := gittest.NewMemory(t, 0)
	repo := backend.NewGoGit(r.Repository, "memory")
	require.Empty(t, branchRefs(t, repo, backend.BranchAll))
}

func TestGoGitBranchesUnknownKind(t *testing.T) {
	t.Parallel()

	_, repo := newFixture(t)
	_, err := repo.Branches(backend.BranchKind(42))
	require.Error(t, err)
}

func TestGoGitCommits(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)

	require.Equal(t, []string{r.Commits[2], r.Commits[1], r.Commits[0]}, commitHashes(t, repo, ""))
	require.Equal(t, []string{r.Commits[1], r.Commits[0]}, commitHashes(t, repo, "dev"))
	require.Equal(t, []string{r.Commits[0]}, commitHashes(t, repo, r.Commits[0]))
}

func TestGoGitCommitsEmptyRepository(t *testing.T) {
	t.Parallel()

	r := gittest.NewMemory(t, 0)
	repo := backend.NewGoGit(r.Repository, "memory")
	require.Empty(t, commitHashes(t, repo, ""))
}

func TestGoGitCommitsUnknownRevision(t *testing.T) {
	t.Parallel()

	_, repo := newFixture(t)
	c, err := repo.Commits("no-such-branch")
	require.NoError(t, err)
	defer c.Release()

	var opErr *native.OperationError
	require.ErrorAs(t, c.Reset(), &opErr)
	require.Equal(t, native.OpReset, opErr.Op)
}

func TestGoGitCommitCursorRestart(t *testing.T) {
	t.Parallel()

	_, repo := newFixture(t)
	c, err := repo.Commits("")
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	ok, err := c.Advance()
	require.NoError(t, err)
	require.True(t, ok)
	second, err := c.Current()
	require.NoError(t, err)

	require.NoError(t, c.Reset())
	first, err := c.Current()
	require.NoError(t, err)
	require.NotEqual(t, second, first)

	require.NoError(t, c.Release())
	require.Error(t, c.Release())
	_, err = c.Current()
	require.Error(t, err)
}

func TestGoGitDecodeCommit(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)
	c, err := repo.Commits("")
	require.NoError(t, err)
	defer c.Release()
	require.NoError(t, c.Reset())
	raw, err := c.Current()
	require.NoError(t, err)

	commit, err := repo.DecodeCommit(raw)
	require.NoError(t, err)
	require.Equal(t, r.Commits[2], commit.Hash)
	require.Equal(t, []string{r.Commits[1]}, commit.ParentHashes)
	require.Equal(t, "Alice", commit.Author.Name)
	require.Equal(t, "commit 2", commit.Message)

	_, err = repo.DecodeCommit("not a commit")
	require.Error(t, err)
	_, err = repo.DecodeBranch(42)
	require.Error(t, err)
}

func TestGoGitLookupCommit(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)
	commit, err := repo.LookupCommit(r.Commits[1])
	require.NoError(t, err)
	require.Equal(t, r.Commits[1], commit.Hash)
	require.Equal(t, "commit 1", commit.Message)
	require.Equal(t, []string{r.Commits[0]}, commit.ParentHashes)

	_, err = repo.LookupCommit(strings.Repeat("0", 40))
	require.Error(t, err)
}

func TestGoGitHeadState(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)
	hash, name, ok, err := repo.HeadState()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "main", name)
	require.Equal(t, r.Commits[2], hash)

	empty := backend.NewGoGit(gittest.NewMemory(t, 0).Repository, "memory")
	_, _, ok, err = empty.HeadState()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGoGitResolveCommit(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)
	got, err := repo.ResolveCommit("dev")
	require.NoError(t, err)
	require.Equal(t, r.Commits[1], got)

	_, err = repo.ResolveCommit("")
	require.Error(t, err)
	_, err = repo.ResolveCommit("missing")
	require.Error(t, err)
}

func TestGoGitCommitDiffText(t *testing.T) {
	t.Parallel()

	r, repo := newFixture(t)

	diff, err := repo.CommitDiffText(r.Commits[1], "")
	require.NoError(t, err)
	require.Contains(t, diff, "file1.txt")
	require.Contains(t, diff, "+content 1")
	require.NotContains(t, diff, "file0.txt")

	root, err := repo.CommitDiffText(r.Commits[0], "")
	require.NoError(t, err)
	require.Contains(t, root, "+content 0")

	between, err := repo.CommitDiffText(r.Commits[2], r.Commits[0])
	require.NoError(t, err)
	require.True(t, strings.Contains(between, "file1.txt") && strings.Contains(between, "file2.txt"))

	_, err = repo.CommitDiffText("", "")
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, err := backend.ParseKind("")
	require.NoError(t, err)
	require.Equal(t, backend.DefaultKind, kind)

	kind, err = backend.ParseKind("gitcli")
	require.NoError(t, err)
	require.Equal(t, backend.KindGitCLI, kind)

	_, err = backend.ParseKind("svn")
	require.ErrorIs(t, err, backend.ErrUnknownBackend)

	_, err = backend.Open(backend.Kind("svn"), ".")
	require.ErrorIs(t, err, backend.ErrUnknownBackend)
}

func TestOpenGoGitOnDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	r := gittest.NewOnDisk(t, dir, 2)

	repo, err := backend.Open(backend.KindGoGit, dir)
	require.NoError(t, err)
	defer repo.Close()
	require.Equal(t, []string{r.Commits[1], r.Commits[0]}, commitHashes(t, repo, ""))

	_, err = backend.Open(backend.KindGoGit, t.TempDir())
	var opErr *native.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, native.OpOpen, opErr.Op)
}
