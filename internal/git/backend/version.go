package backend

import (
	"cmp"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/thiagokokada/gitkid/internal/native"
)

// requiredGit is the oldest git the CLI backend works with. for-each-ref
// %(symref) and rev-parse --end-of-options decide it.
var requiredGit = gitVersion{2, 24, 0}

type gitVersion [3]int

func (v gitVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

func (v gitVersion) compare(other gitVersion) int {
	for i := range v {
		if c := cmp.Compare(v[i], other[i]); c != 0 {
			return c
		}
	}
	return 0
}

// versionPattern takes the leading dotted number, so vendor suffixes such as
// "(Apple Git-146)" or ".windows.1" are ignored.
var versionPattern = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

func parseGitVersion(out string) (gitVersion, bool) {
	s := strings.TrimSpace(out)
	s = strings.TrimSpace(strings.TrimPrefix(s, "git version"))
	m := versionPattern.FindStringSubmatch(s)
	if m == nil || !strings.HasPrefix(s, m[0]) {
		return gitVersion{}, false
	}
	var v gitVersion
	for i, part := range m[1:] {
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return gitVersion{}, false
		}
		v[i] = n
	}
	return v, true
}

func checkGitVersion(out string) error {
	got, ok := parseGitVersion(out)
	if !ok {
		return fmt.Errorf("unable to parse git version output: %q", strings.TrimSpace(out))
	}
	if got.compare(requiredGit) < 0 {
		return fmt.Errorf("git %s is too old; the gitcli backend requires git >= %s", got, requiredGit)
	}
	return nil
}

// gitAvailable runs "git --version" once per process. A git that cannot run
// is reported as a failed open carrying its exit status.
var gitAvailable = sync.OnceValue(func() error {
	out, err := exec.Command("git", "--version").CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return native.Failed(native.OpOpen, exitCode(err), fmt.Errorf("git --version: %w", err))
	}
	return checkGitVersion(string(out))
})
