package backend

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/thiagokokada/gitkid/internal/native"
)

const (
	forEachRefFormat = "--format=%(HEAD)%00%(objectname)%00%(refname)%00%(symref)"
	logFormat        = "--format=%H%n%P%n%an%n%ae%n%aI%n%cn%n%ce%n%cI%n%B"
)

func (g *gitCLI) HeadState() (hash string, headName string, ok bool, err error) {
	if g == nil || g.path == "" {
		return "", "", false, fmt.Errorf("repository root not set")
	}
	out, err := g.runGitCommand([]string{"rev-parse", "-q", "--verify", "HEAD"}, true, "git rev-parse")
	if err != nil {
		return "", "", false, err
	}
	hash = strings.TrimSpace(out)
	if hash == "" {
		return "", "", false, nil
	}
	ref, err := g.runGitCommand([]string{"symbolic-ref", "-q", "--short", "HEAD"}, true, "git symbolic-ref")
	if err != nil {
		return "", "", false, err
	}
	headName = strings.TrimSpace(ref)
	if headName == "" {
		headName = "HEAD"
	}
	return hash, headName, true, nil
}

func (g *gitCLI) ResolveCommit(rev string) (string, error) {
	rev = strings.TrimSpace(rev)
	if rev == "" {
		return "", fmt.Errorf("revision not specified")
	}
	out, err := g.runGitCommand([]string{"rev-parse", "--verify", "--end-of-options", rev + "^{commit}"}, false, "git rev-parse")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (g *gitCLI) CommitDiffText(commitHash string, parentHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)
	parentHash = strings.TrimSpace(parentHash)
	if commitHash == "" {
		return "", fmt.Errorf("commit not specified")
	}
	if parentHash != "" {
		return g.runGitCommand(
			[]string{"diff", "--no-color", parentHash, commitHash},
			true,
			"git diff",
		)
	}
	return g.runGitCommand(
		[]string{"show", "--no-color", "--pretty=format:", commitHash},
		false,
		"git show",
	)
}

func (g *gitCLI) Branches(kind BranchKind) (native.Cursor, error) {
	var patterns []string
	switch kind {
	case BranchLocal:
		patterns = []string{"refs/heads"}
	case BranchRemote:
		patterns = []string{"refs/remotes"}
	case BranchAll:
		patterns = []string{"refs/heads", "refs/remotes"}
	default:
		return nil, fmt.Errorf("unknown branch kind %d", kind)
	}
	return NewSnapshotCursor(func() ([]Ref, error) {
		args := append([]string{"for-each-ref", forEachRefFormat}, patterns...)
		out, err := g.runGitCommand(args, false, "git for-each-ref")
		if err != nil {
			return nil, err
		}
		return parseForEachRef(out, kind)
	}, exitCode), nil
}

func (g *gitCLI) Commits(from string) (native.Cursor, error) {
	from = strings.TrimSpace(from)
	return NewSnapshotCursor(func() ([]*Commit, error) {
		rev := from
		if rev == "" {
			hash, _, ok, err := g.HeadState()
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, nil
			}
			rev = hash
		}
		out, err := g.runGitCommand([]string{"log", "-z", logFormat, rev, "--"}, false, "git log")
		if err != nil {
			return nil, err
		}
		return parseGitLog([]byte(out))
	}, exitCode), nil
}

func (g *gitCLI) DecodeBranch(raw native.Raw) (Ref, error) {
	ref, ok := raw.(Ref)
	if !ok {
		return Ref{}, unexpectedRaw("Ref", raw)
	}
	return ref, nil
}

func (g *gitCLI) DecodeCommit(raw native.Raw) (*Commit, error) {
	commit, ok := raw.(*Commit)
	if !ok || commit == nil {
		return nil, unexpectedRaw("*Commit", raw)
	}
	return commit, nil
}

func (g *gitCLI) LookupCommit(hash string) (*Commit, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, fmt.Errorf("commit hash not specified")
	}
	out, err := g.runGitCommand([]string{"log", "-1", "-z", logFormat, "--end-of-options", hash, "--"}, false, "git log")
	if err != nil {
		return nil, native.Failed(native.OpCurrent, exitCode(err), err)
	}
	commits, err := parseGitLog([]byte(out))
	if err != nil {
		return nil, err
	}
	if len(commits) != 1 {
		return nil, fmt.Errorf("git log -1 %s: got %d commits", hash, len(commits))
	}
	return commits[0], nil
}

// parseForEachRef parses "%(HEAD)\0%(objectname)\0%(refname)\0%(symref)" lines.
// Symbolic refs such as origin/HEAD are skipped.
func parseForEachRef(out string, kind BranchKind) ([]Ref, error) {
	var refs []Ref
	for rawLine := range strings.SplitSeq(out, "\n") {
		line := strings.TrimRight(rawLine, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\x00")
		if len(parts) != 4 {
			return nil, fmt.Errorf("unexpected for-each-ref output line: %q", rawLine)
		}
		head, hash, refName, symref := parts[0], strings.TrimSpace(parts[1]), strings.TrimSpace(parts[2]), parts[3]
		if hash == "" || refName == "" {
			return nil, fmt.Errorf("unexpected for-each-ref output line: %q", rawLine)
		}
		if symref != "" {
			continue
		}
		var ref Ref
		switch {
		case strings.HasPrefix(refName, "refs/heads/"):
			ref = Ref{Hash: hash, Kind: RefKindBranch, Name: strings.TrimPrefix(refName, "refs/heads/")}
		case strings.HasPrefix(refName, "refs/remotes/"):
			ref = Ref{Hash: hash, Kind: RefKindRemoteBranch, Name: strings.TrimPrefix(refName, "refs/remotes/")}
		default:
			continue
		}
		if ref.Name == "" || !kind.includes(ref.Kind) {
			continue
		}
		ref.IsHead = head == "*"
		refs = append(refs, ref)
	}
	return refs, nil
}

func parseGitLog(out []byte) ([]*Commit, error) {
	var commits []*Commit
	for rec := range bytes.SplitSeq(out, []byte{0}) {
		rec = bytes.TrimLeft(rec, "\n")
		if len(rec) == 0 {
			continue
		}
		commit, err := parseGitLogRecord(rec)
		if err != nil {
			return nil, err
		}
		commits = append(commits, commit)
	}
	return commits, nil
}

// parseGitLogRecord parses one record produced by logFormat.
func parseGitLogRecord(rec []byte) (*Commit, error) {
	parts := bytes.SplitN(rec, []byte("\n"), 9)
	if len(parts) < 8 {
		return nil, fmt.Errorf("short git log record: %q", rec)
	}
	authorWhen, err := time.Parse(time.RFC3339, string(parts[4]))
	if err != nil {
		return nil, fmt.Errorf("parse author date: %w", err)
	}
	committerWhen, err := time.Parse(time.RFC3339, string(parts[7]))
	if err != nil {
		return nil, fmt.Errorf("parse committer date: %w", err)
	}
	commit := &Commit{
		Hash:         string(parts[0]),
		ParentHashes: strings.Fields(string(parts[1])),
		Author:       Signature{Name: string(parts[2]), Email: string(parts[3]), When: authorWhen},
		Committer:    Signature{Name: string(parts[5]), Email: string(parts[6]), When: committerWhen},
	}
	if len(parts) == 9 {
		commit.Message = string(parts[8])
	}
	return commit, nil
}
