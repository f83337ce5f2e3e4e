// Package highlight colours unified diffs for terminals, with syntax
// highlighting of the changed code.
package highlight

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-isatty"

	"github.com/thiagokokada/gitkid/internal/git"
)

const DefaultStyle = "github-dark"

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiCyan  = "\x1b[36m"
)

// Enabled reports whether w is a terminal that should receive colour.
// A non-empty NO_COLOR disables colour regardless.
func Enabled(w io.Writer) bool {
	return colorAllowed(os.Getenv("NO_COLOR"), isTerminal(w))
}

func colorAllowed(noColor string, terminal bool) bool {
	return noColor == "" && terminal
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Highlighter writes diffs with ANSI colours.
type Highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

// New returns a Highlighter using the named chroma style, or the fallback
// style when the name is unknown.
func New(styleName string) *Highlighter {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &Highlighter{style: style, formatter: formatter}
}

// Diff writes text to w. Lines belonging to a "diff --git" section have their
// code highlighted with the lexer matching the file name; everything else is
// written with diff colours only. Stripping the escape sequences from the
// output gives back text unchanged.
func (h *Highlighter) Diff(w io.Writer, text string) error {
	bw := bufio.NewWriter(w)
	var lexer chroma.Lexer
	inDiff := false
	lines := strings.Split(text, "\n")
	if strings.HasSuffix(text, "\n") {
		lines = lines[:len(lines)-1]
	}
	for _, line := range lines {
		if path, ok := git.DiffPath(line); ok {
			inDiff = true
			lexer = lexerForPath(path)
			writeColored(bw, ansiBold, line)
			continue
		}
		if !inDiff {
			fmt.Fprintln(bw, line)
			continue
		}
		switch {
		case strings.HasPrefix(line, "--- "), strings.HasPrefix(line, "+++ "):
			writeColored(bw, ansiBold, line)
		case strings.HasPrefix(line, "@@"):
			writeColored(bw, ansiCyan, line)
		default:
			code, marker, ok := diffLineCode(line)
			if !ok {
				fmt.Fprintln(bw, line)
				continue
			}
			switch marker {
			case '+':
				bw.WriteString(ansiGreen + "+" + ansiReset)
			case '-':
				bw.WriteString(ansiRed + "-" + ansiReset)
			default:
				bw.WriteByte(marker)
			}
			if err := h.code(bw, lexer, code); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// code writes one line of source followed by a newline.
func (h *Highlighter) code(w io.Writer, lexer chroma.Lexer, code string) error {
	if lexer == nil || code == "" {
		_, err := fmt.Fprintln(w, code)
		return err
	}
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		_, err := fmt.Fprintln(w, code)
		return err
	}
	// Lexers may append a newline; it is written uncoloured instead.
	tokens := iterator.Tokens()
	for len(tokens) > 0 {
		last := &tokens[len(tokens)-1]
		last.Value = strings.TrimSuffix(last.Value, "\n")
		if last.Value != "" {
			break
		}
		tokens = tokens[:len(tokens)-1]
	}
	if err := h.formatter.Format(w, h.style, chroma.Literator(tokens...)); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

func writeColored(w *bufio.Writer, color string, line string) {
	w.WriteString(color)
	w.WriteString(line)
	w.WriteString(ansiReset)
	w.WriteByte('\n')
}

func lexerForPath(path string) chroma.Lexer {
	if path == "" {
		return nil
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// diffLineCode splits a diff body line into its marker and code.
func diffLineCode(line string) (string, byte, bool) {
	if line == "" {
		return "", 0, false
	}
	switch line[0] {
	case '+', '-', ' ':
		return line[1:], line[0], true
	default:
		return "", 0, false
	}
}
