package git

import (
	"fmt"
	"strings"

	"github.com/thiagokokada/gitkid/internal/cursor"
	gitbackend "github.com/thiagokokada/gitkid/internal/git/backend"
	"github.com/thiagokokada/gitkid/internal/native"
)

type Signature = gitbackend.Signature

type Commit struct {
	Hash         string
	ParentHashes []string
	Author       Signature
	Committer    Signature
	Message      string
}

func commitDecoder(b gitbackend.Repo) cursor.Decoder[Commit] {
	return func(raw native.Raw) (Commit, error) {
		c, err := b.DecodeCommit(raw)
		if err != nil {
			return Commit{}, err
		}
		return Commit(*c), nil
	}
}

func (c Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Subject returns the first line of the commit message.
func (c Commit) Subject() string {
	return strings.SplitN(strings.TrimSpace(c.Message), "\n", 2)[0]
}

// Summary formats the commit as a single log line.
func (c Commit) Summary() string {
	subject := c.Subject()
	if len(subject) > 80 {
		subject = subject[:77] + "..."
	}
	timestamp := c.Committer.When.Format("2006-01-02 15:04")
	return fmt.Sprintf("%s  %s  %s", c.ShortHash(), timestamp, subject)
}

// Commits returns an iterator over the history reachable from the revision
// from, newest first, or from HEAD when from is empty. An unborn HEAD yields
// an empty iterator. The caller must Close it.
func (r *Repository) Commits(from string) (*cursor.Iterator[Commit], error) {
	b, err := r.repo()
	if err != nil {
		return nil, err
	}
	c, err := b.Commits(from)
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	return cursor.New(c, commitDecoder(b), cursor.WithName("commits"))
}

// Matches reports whether query occurs, ignoring case, in the hash, the
// author or the message. An empty query matches every commit.
func (c Commit) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range []string{c.Hash, c.Author.Name, c.Author.Email, c.Message} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// Log returns up to limit commits reachable from from. A limit of zero or less
// means DefaultBatch.
func (r *Repository) Log(from string, limit int) ([]Commit, error) {
	return r.Search(from, "", limit)
}

// Search is Log restricted to the commits matching query.
func (r *Repository) Search(from, query string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = DefaultBatch
	}
	b, err := r.repo()
	if err != nil {
		return nil, err
	}
	c, err := b.Commits(from)
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	commits := make([]Commit, 0, min(limit, 64))
	err = cursor.Use(c, commitDecoder(b), func(it *cursor.Iterator[Commit]) error {
		for len(commits) < limit {
			ok, err := it.HasNext()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			commit, err := it.Next()
			if err != nil {
				return err
			}
			if commit.Matches(query) {
				commits = append(commits, commit)
			}
		}
		return nil
	}, cursor.WithName("log"))
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// FormatCommitHeader renders the commit the way "git show" prints its header.
func FormatCommitHeader(c *Commit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "commit %s\n", c.Hash)
	if len(c.ParentHashes) > 1 {
		short := make([]string, len(c.ParentHashes))
		for i, p := range c.ParentHashes {
			short[i] = Commit{Hash: p}.ShortHash()
		}
		fmt.Fprintf(&b, "Merge: %s\n", strings.Join(short, " "))
	}
	appendSignatureLine(&b, "Author", c.Author)
	committer := c.Committer
	if committer.Name == "" && committer.Email == "" && committer.When.IsZero() {
		committer = c.Author
	}
	appendSignatureLine(&b, "Committer", committer)
	b.WriteString("\n")
	message := strings.TrimRight(c.Message, "\n")
	if message == "" {
		b.WriteString("    (no commit message)\n")
		return b.String()
	}
	for line := range strings.SplitSeq(message, "\n") {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "    %s\n", line)
	}
	return b.String()
}

func appendSignatureLine(b *strings.Builder, label string, sig Signature) {
	fmt.Fprintf(b, "%s: %s <%s>", label, sig.Name, sig.Email)
	if !sig.When.IsZero() {
		fmt.Fprintf(b, "  %s", sig.When.Format("2006-01-02 15:04:05 -0700"))
	}
	b.WriteByte('\n')
}
