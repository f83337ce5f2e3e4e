package git

import "strings"

// FileSection marks the line at which a file's diff starts in Show's output.
type FileSection struct {
	Path string
	Line int
}

// Show renders the commit rev names as a header followed by its diff against
// the first parent, and returns where each file's section begins.
func (r *Repository) Show(rev string) (string, []FileSection, error) {
	b, err := r.repo()
	if err != nil {
		return "", nil, err
	}
	hash, err := r.Resolve(rev)
	if err != nil {
		return "", nil, err
	}
	raw, err := b.LookupCommit(hash)
	if err != nil {
		return "", nil, err
	}
	commit := Commit(*raw)

	header := FormatCommitHeader(&commit)
	diffText, err := b.CommitDiffText(commit.Hash, "")
	if err != nil {
		return "", nil, err
	}
	if strings.TrimSpace(diffText) == "" {
		return header + "\nNo file level changes.\n", nil, nil
	}
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(diffText)
	if !strings.HasSuffix(diffText, "\n") {
		sb.WriteByte('\n')
	}
	lineOffset := strings.Count(header, "\n")
	return sb.String(), parseGitDiffSections(diffText, lineOffset), nil
}
