package backend_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/git/gittest"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

// The CLI and go-git backends must agree on the same on-disk repository.
func TestGitCLIMatchesGoGit(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	r := gittest.NewOnDisk(t, dir, 3)
	r.Branch(t, "dev", r.Commits[1])
	r.RemoteBranch(t, "origin", "main", r.Commits[2])
	r.RemoteHead(t, "origin", "main")

	cli, err := backend.Open(backend.KindGitCLI, dir)
	if err != nil {
		t.Skipf("git CLI backend unavailable: %v", err)
	}
	defer cli.Close()
	native, err := backend.Open(backend.KindGoGit, dir)
	require.NoError(t, err)
	defer native.Close()

	for _, kind := range []backend.BranchKind{backend.BranchLocal, backend.BranchRemote, backend.BranchAll} {
		require.Equal(t, branchRefs(t, native, kind), branchRefs(t, cli, kind), "kind %s", kind)
	}
	require.Equal(t, commitHashes(t, native, ""), commitHashes(t, cli, ""))
	require.Equal(t, commitHashes(t, native, "dev"), commitHashes(t, cli, "dev"))

	cliHash, cliHead, ok, err := cli.HeadState()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, r.Commits[2], cliHash)
	require.Equal(t, "main", cliHead)

	resolved, err := cli.ResolveCommit("dev")
	require.NoError(t, err)
	require.Equal(t, r.Commits[1], resolved)

	cliCommit, err := cli.LookupCommit(r.Commits[1])
	require.NoError(t, err)
	nativeCommit, err := native.LookupCommit(r.Commits[1])
	require.NoError(t, err)
	require.Equal(t, nativeCommit.Hash, cliCommit.Hash)
	require.Equal(t, nativeCommit.ParentHashes, cliCommit.ParentHashes)
	require.Equal(t, nativeCommit.Author.Email, cliCommit.Author.Email)

	diff, err := cli.CommitDiffText(r.Commits[1], "")
	require.NoError(t, err)
	require.Contains(t, diff, "+content 1")
}

func TestGitCLIEmptyRepository(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	gittest.NewOnDisk(t, dir, 0)

	cli, err := backend.Open(backend.KindGitCLI, dir)
	if err != nil {
		t.Skipf("git CLI backend unavailable: %v", err)
	}
	require.Empty(t, commitHashes(t, cli, ""))
	require.Empty(t, branchRefs(t, cli, backend.BranchAll))
}
