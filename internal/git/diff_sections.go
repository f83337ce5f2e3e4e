package git

import (
	"strconv"
	"strings"
)

const diffHeader = "diff --git "

// parseGitDiffSections finds the file headers of diffText. Line numbers are
// 1-based and shifted by lineOffset, the number of lines printed before the
// diff.
func parseGitDiffSections(diffText string, lineOffset int) []FileSection {
	var sections []FileSection
	n := lineOffset
	for line := range strings.Lines(diffText) {
		n++
		if path, _ := DiffPath(strings.TrimSuffix(line, "\n")); path != "" {
			sections = append(sections, FileSection{Path: path, Line: n})
		}
	}
	return sections
}

// DiffPath returns the post-image path of a "diff --git" header line. ok
// reports whether line is such a header; path is empty when it cannot be
// parsed.
func DiffPath(line string) (path string, ok bool) {
	rest, ok := strings.CutPrefix(line, diffHeader)
	if !ok {
		return "", false
	}
	paths := splitDiffPaths(rest)
	if len(paths) < 2 {
		return "", true
	}
	return stripDiffPrefix(paths[1]), true
}

// splitDiffPaths splits the two paths of a diff header. git quotes paths
// with control characters or non-ASCII bytes using C-style escapes; paths
// with plain spaces stay unquoted.
func splitDiffPaths(s string) []string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, `"`) {
		return splitUnquotedPaths(s)
	}
	var paths []string
	for {
		s = strings.TrimLeft(s, " \t")
		if s == "" {
			return paths
		}
		if s[0] != '"' {
			end := strings.IndexAny(s, " \t")
			if end < 0 {
				end = len(s)
			}
			paths = append(paths, s[:end])
			s = s[end:]
			continue
		}
		end := closingQuote(s)
		quoted := s[:end]
		s = s[end:]
		if unquoted, err := strconv.Unquote(quoted); err == nil {
			paths = append(paths, unquoted)
		} else {
			paths = append(paths, strings.Trim(quoted, `"`))
		}
	}
}

// splitUnquotedPaths splits "a/<old> b/<new>" at the " b/" that leaves two
// halves of equal length, which is where it falls when the path did not
// change. Renames fall back to the last " b/".
func splitUnquotedPaths(s string) []string {
	split := -1
	for from := 0; ; {
		i := strings.Index(s[from:], " b/")
		if i < 0 {
			break
		}
		split = from + i
		if split == len(s)-split-1 {
			break
		}
		from = split + 1
	}
	if split < 0 {
		return []string{s}
	}
	return []string{s[:split], s[split+1:]}
}

// closingQuote returns the index just past the quote closing the string that
// starts at s[0], or len(s) when it is unterminated.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(s)
}

func stripDiffPrefix(path string) string {
	if p, ok := strings.CutPrefix(path, "a/"); ok {
		return p
	}
	return strings.TrimPrefix(path, "b/")
}
