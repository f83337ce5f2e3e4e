//go:build !libgit2

package backend

import "fmt"

func openLibgit2(string) (Repo, error) {
	return nil, fmt.Errorf("%w: %s (rebuild with -tags libgit2)", ErrBackendUnavailable, KindLibgit2)
}
