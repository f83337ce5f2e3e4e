package backend

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thiagokokada/gitkid/internal/native"
)

var (
	ErrUnknownBackend = errors.New("unknown backend")
	// ErrBackendUnavailable is returned when a backend was not compiled in.
	ErrBackendUnavailable = errors.New("backend not available in this build")
)

// Repo is an open repository in one of the supported git libraries.
//
// Branches and Commits hand out native cursors; the raw values those cursors
// produce are only meaningful to the DecodeBranch and DecodeCommit methods of
// the same Repo. A Repo must outlive every cursor it returned.
type Repo interface {
	Path() string

	Branches(kind BranchKind) (native.Cursor, error)
	// Commits walks history from the given revision, or HEAD when from is
	// empty. An unborn HEAD yields an empty cursor.
	Commits(from string) (native.Cursor, error)

	DecodeBranch(raw native.Raw) (Ref, error)
	DecodeCommit(raw native.Raw) (*Commit, error)
	// LookupCommit reads the single commit with the given full hash without
	// walking its history.
	LookupCommit(hash string) (*Commit, error)

	HeadState() (hash string, headName string, ok bool, err error)
	ResolveCommit(rev string) (string, error)
	CommitDiffText(commitHash string, parentHash string) (string, error)

	Close() error
}

type Kind string

const (
	KindGoGit   Kind = "gogit"
	KindGitCLI  Kind = "gitcli"
	KindLibgit2 Kind = "libgit2"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return DefaultKind, nil
	case KindGoGit, KindGitCLI, KindLibgit2:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// Open opens the repository at path with the given library.
func Open(kind Kind, path string) (Repo, error) {
	slog.Debug("opening repository", slog.String("backend", string(kind)), slog.String("path", path))
	switch kind {
	case KindGoGit:
		return OpenGoGit(path)
	case KindGitCLI:
		return OpenCLI(path)
	case KindLibgit2:
		return openLibgit2(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

func unexpectedRaw(want string, raw native.Raw) error {
	return fmt.Errorf("unexpected raw value %T, want %s", raw, want)
}
